// mongo — реализация storage.Storage поверх MongoDB.
// Целочисленные ID новостей выдаются атомарным $inc по коллекции counters.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-news-cms/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	newsCollection     = "news"
	usersCollection    = "users"
	countersCollection = "counters"
	defaultDBName      = "news_cms"

	disconnectTimeout = 5 * time.Second
)

// Mongo держит клиента и коллекции news, users и counters.
type Mongo struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	news     *mongodriver.Collection
	users    *mongodriver.Collection
	counters *mongodriver.Collection
}

// New подключается по uri, пингует primary и создаёт индексы.
// Имя базы берётся из пути uri, по умолчанию news_cms.
func New(ctx context.Context, uri string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))

	m := &Mongo{
		client:   cli,
		db:       db,
		news:     db.Collection(newsCollection),
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		m.Close()
		return nil, err
	}

	return m, nil
}

// Close отключает клиента с ограниченным таймаутом.
func (m *Mongo) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	_ = m.client.Disconnect(ctx)
}

// ensureIndexes создает индексы:
// - users.email_lower — уникальный (email без учёта регистра);
// - news.author/title — для фильтров списка.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "email_lower", Value: 1}},
		Options: options.Index().SetName("uniq_email_lower").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	_, err = m.news.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "author", Value: 1}},
			Options: options.Index().SetName("author"),
		},
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetName("title"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

var _ storage.Storage = (*Mongo)(nil)
