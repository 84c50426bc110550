// pagination — движок фильтрации и постраничной выдачи списка новостей.
//
// Контракт:
//   - page и limit никогда не дают ошибку: значения вне диапазона приводятся к границам;
//   - Total считается до применения окна;
//   - элементы идут по возрастанию ID, окно начинается с (page-1)*limit;
//   - при offset >= Total выборка не выполняется, Items — пустой (не nil) срез.
package pagination

import (
	"context"
	"fmt"

	"github.com/pribylovaa/go-news-cms/internal/models"
)

// Значения по умолчанию.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Source — хранилище, по которому строится страница.
type Source interface {
	CountNews(ctx context.Context, filter models.NewsFilter) (int64, error)
	SelectNews(ctx context.Context, filter models.NewsFilter, offset, limit int64) ([]models.News, error)
}

// Params — нормализованные параметры страницы.
type Params struct {
	Page  int
	Limit int
}

// Offset возвращает смещение окна.
func (p Params) Offset() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Result — страница вместе с метаданными пагинации.
type Result struct {
	Filter     models.NewsFilter
	Page       int
	Limit      int
	Total      int64
	TotalPages int64
	Items      []models.News
}

// Engine хранит серверные лимиты.
type Engine struct {
	defaultLimit int
	maxLimit     int
}

// New создает движок; невалидные лимиты заменяются значениями по умолчанию.
func New(defaultLimit, maxLimit int) *Engine {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(DefaultLimit, maxLimit)
	}

	return &Engine{defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// DefaultLimit — limit для запросов, где он не передан.
func (e *Engine) DefaultLimit() int { return e.defaultLimit }

// MaxLimit — верхняя граница limit.
func (e *Engine) MaxLimit() int { return e.maxLimit }

// Normalize приводит page к >= 1, limit к [1, max].
// Отсутствующие значения подставляет вызывающий (DefaultPage, DefaultLimit).
func (e *Engine) Normalize(page, limit int) Params {
	if page < 1 {
		page = 1
	}

	switch {
	case limit < 1:
		limit = 1
	case limit > e.maxLimit:
		limit = e.maxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Query считает подходящие записи и выбирает запрошенное окно.
func (e *Engine) Query(ctx context.Context, src Source, filter models.NewsFilter, page, limit int) (*Result, error) {
	const op = "pagination.Query"

	p := e.Normalize(page, limit)

	total, err := src.CountNews(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: count: %w", op, err)
	}

	res := &Result{
		Filter:     filter,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: TotalPages(total, p.Limit),
		Items:      []models.News{},
	}

	if p.Offset() >= total {
		return res, nil
	}

	items, err := src.SelectNews(ctx, filter, p.Offset(), int64(p.Limit))
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}
	if items != nil {
		res.Items = items
	}

	return res, nil
}

// TotalPages — ceil(total/limit); 0 при пустой выборке.
func TotalPages(total int64, limit int) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}

	return (total + int64(limit) - 1) / int64(limit)
}
