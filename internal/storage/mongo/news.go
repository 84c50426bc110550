package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newsDoc — представление новости в коллекции news.
type newsDoc struct {
	ID      int64   `bson:"_id"`
	Title   string  `bson:"title"`
	Author  string  `bson:"author"`
	Content string  `bson:"content"`
	Photo   *string `bson:"photo"`
}

func (d newsDoc) toModel() models.News {
	return models.News{ID: d.ID, Title: d.Title, Author: d.Author, Content: d.Content, Photo: d.Photo}
}

// nextNewsID атомарно увеличивает счётчик news в коллекции counters.
func (m *Mongo) nextNewsID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	err := m.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: newsCollection}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}

	return counter.Seq, nil
}

// InsertNews назначает следующий ID и сохраняет документ.
func (m *Mongo) InsertNews(ctx context.Context, news models.News) (*models.News, error) {
	const op = "storage.mongo.InsertNews"

	id, err := m.nextNewsID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: next id: %w", op, err)
	}
	news.ID = id

	doc := newsDoc{ID: news.ID, Title: news.Title, Author: news.Author, Content: news.Content, Photo: news.Photo}
	if _, err := m.news.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &news, nil
}

// DeleteNewsByID удаляет документ и возвращает его прежнее содержимое.
func (m *Mongo) DeleteNewsByID(ctx context.Context, id int64) (*models.News, error) {
	const op = "storage.mongo.DeleteNewsByID"

	var doc newsDoc
	if err := m.news.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	news := doc.toModel()

	return &news, nil
}

// NewsByID возвращает новость или storage.ErrNotFound.
func (m *Mongo) NewsByID(ctx context.Context, id int64) (*models.News, error) {
	const op = "storage.mongo.NewsByID"

	var doc newsDoc
	if err := m.news.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	news := doc.toModel()

	return &news, nil
}

// CountNews считает документы под фильтром.
func (m *Mongo) CountNews(ctx context.Context, filter models.NewsFilter) (int64, error) {
	const op = "storage.mongo.CountNews"

	total, err := m.news.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, nil
}

// SelectNews возвращает окно документов под фильтром, сортировка _id ASC.
func (m *Mongo) SelectNews(ctx context.Context, filter models.NewsFilter, offset, limit int64) ([]models.News, error) {
	const op = "storage.mongo.SelectNews"

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := m.news.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	items := make([]models.News, 0, limit)
	for cur.Next(ctx) {
		var doc newsDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		items = append(items, doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// buildFilter — регистронезависимый $regex по экранированной подстроке.
func buildFilter(filter models.NewsFilter) bson.D {
	f := bson.D{}

	if filter.Author != "" {
		f = append(f, bson.E{Key: "author", Value: containsRegex(filter.Author)})
	}
	if filter.Title != "" {
		f = append(f, bson.E{Key: "title", Value: containsRegex(filter.Title)})
	}

	return f
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
