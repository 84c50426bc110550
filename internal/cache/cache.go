// cache — необязательный Redis-кэш страниц списка новостей.
//
// Ключи страниц содержат номер поколения; Invalidate увеличивает поколение,
// и все ранее закэшированные страницы перестают читаться (дотлевают по TTL).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/pagination"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "news:list:"

// ListCache — минимальный контракт кэша страниц списка.
type ListCache interface {
	// Get возвращает страницу, признак её наличия и поколение, под которым искали.
	Get(ctx context.Context, filter models.NewsFilter, p pagination.Params) (*pagination.Result, int64, bool, error)
	// Set сохраняет страницу под поколением gen, полученным из Get до запроса в хранилище.
	// Если с тех пор был Invalidate, запись ляжет в мёртвое поколение и читаться не будет.
	Set(ctx context.Context, gen int64, res *pagination.Result, ttl time.Duration) error
	// Invalidate делает все закэшированные страницы недействительными.
	Invalidate(ctx context.Context) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "news:list:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (ListCache, error) {
	if prefix == "" {
		prefix = defaultPrefix
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

// entry — сериализованная страница.
type entry struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int64       `json:"total_pages"`
	Items      []entryItem `json:"items"`
	Filter     entryFilter `json:"filter"`
}

type entryItem struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Content string  `json:"content"`
	Photo   *string `json:"photo"`
}

type entryFilter struct {
	Author string `json:"author"`
	Title  string `json:"title"`
}

func (c *redisCache) genKey() string { return c.prefix + "gen" }

// generation читает текущее поколение; отсутствие ключа — поколение 0.
func (c *redisCache) generation(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, c.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(v, 10, 64)
}

func (c *redisCache) pageKey(gen int64, filter models.NewsFilter, p pagination.Params) string {
	return c.prefix + strconv.FormatInt(gen, 10) + ":" + pageHash(filter, p)
}

// pageHash — стабильный отпечаток фильтра и окна.
func pageHash(filter models.NewsFilter, p pagination.Params) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("a=%q|t=%q|p=%d|l=%d", filter.Author, filter.Title, p.Page, p.Limit)))

	return hex.EncodeToString(sum[:16])
}

func (c *redisCache) Get(ctx context.Context, filter models.NewsFilter, p pagination.Params) (*pagination.Result, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := c.rdb.Get(ctx, c.pageKey(gen, filter, p)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, gen, false, err
	}

	res := &pagination.Result{
		Filter:     models.NewsFilter{Author: e.Filter.Author, Title: e.Filter.Title},
		Page:       e.Page,
		Limit:      e.Limit,
		Total:      e.Total,
		TotalPages: e.TotalPages,
		Items:      make([]models.News, 0, len(e.Items)),
	}
	for _, it := range e.Items {
		res.Items = append(res.Items, models.News{
			ID: it.ID, Title: it.Title, Author: it.Author, Content: it.Content, Photo: it.Photo,
		})
	}

	return res, gen, true, nil
}

func (c *redisCache) Set(ctx context.Context, gen int64, res *pagination.Result, ttl time.Duration) error {
	e := entry{
		Page:       res.Page,
		Limit:      res.Limit,
		Total:      res.Total,
		TotalPages: res.TotalPages,
		Items:      make([]entryItem, 0, len(res.Items)),
		Filter:     entryFilter{Author: res.Filter.Author, Title: res.Filter.Title},
	}
	for _, n := range res.Items {
		e.Items = append(e.Items, entryItem{
			ID: n.ID, Title: n.Title, Author: n.Author, Content: n.Content, Photo: n.Photo,
		})
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	p := pagination.Params{Page: res.Page, Limit: res.Limit}

	return c.rdb.Set(ctx, c.pageKey(gen, res.Filter, p), raw, ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.genKey()).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
