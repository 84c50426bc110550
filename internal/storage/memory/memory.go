// memory — хранилище в памяти процесса.
// Используется для env: local без инфраструктуры и в тестах сервиса/транспорта.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/storage"
)

// Storage — потокобезопасная реализация storage.Storage на map'ах.
type Storage struct {
	mu     sync.RWMutex
	nextID int64
	news   map[int64]models.News
	// users индексируется email в нижнем регистре.
	users map[string]models.User
}

// New создает пустое хранилище.
func New() *Storage {
	return &Storage{
		news:  make(map[int64]models.News),
		users: make(map[string]models.User),
	}
}

// Close — no-op.
func (s *Storage) Close() {}

// InsertNews назначает следующий ID и сохраняет копию новости.
func (s *Storage) InsertNews(ctx context.Context, news models.News) (*models.News, error) {
	const op = "storage.memory.InsertNews"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	news.ID = s.nextID
	news.Photo = clonePhoto(news.Photo)
	s.news[news.ID] = news

	out := news
	out.Photo = clonePhoto(news.Photo)

	return &out, nil
}

// DeleteNewsByID удаляет новость и возвращает удалённую запись.
func (s *Storage) DeleteNewsByID(ctx context.Context, id int64) (*models.News, error) {
	const op = "storage.memory.DeleteNewsByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	news, ok := s.news[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	delete(s.news, id)

	return &news, nil
}

// NewsByID возвращает копию новости по идентификатору.
func (s *Storage) NewsByID(ctx context.Context, id int64) (*models.News, error) {
	const op = "storage.memory.NewsByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	news, ok := s.news[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	news.Photo = clonePhoto(news.Photo)

	return &news, nil
}

// CountNews считает новости, подходящие под фильтр.
func (s *Storage) CountNews(ctx context.Context, filter models.NewsFilter) (int64, error) {
	const op = "storage.memory.CountNews"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, n := range s.news {
		if matches(n, filter) {
			total++
		}
	}

	return total, nil
}

// SelectNews возвращает окно подходящих новостей в порядке возрастания ID.
func (s *Storage) SelectNews(ctx context.Context, filter models.NewsFilter, offset, limit int64) ([]models.News, error) {
	const op = "storage.memory.SelectNews"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	matched := make([]models.News, 0, len(s.news))
	for _, n := range s.news {
		if matches(n, filter) {
			n.Photo = clonePhoto(n.Photo)
			matched = append(matched, n)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(matched)) || limit <= 0 {
		return []models.News{}, nil
	}

	end := offset + limit
	if end > int64(len(matched)) {
		end = int64(len(matched))
	}

	return matched[offset:end], nil
}

// SaveUser сохраняет пользователя; email уникален без учёта регистра.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.memory.SaveUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[key]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	u := *user
	u.Roles = append([]string(nil), user.Roles...)
	s.users[key] = u

	return nil
}

// UserByEmail находит пользователя по email без учёта регистра.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.memory.UserByEmail"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	u.Roles = append([]string(nil), u.Roles...)

	return &u, nil
}

// matches — регистронезависимое вхождение подстроки по каждому заданному полю.
func matches(n models.News, f models.NewsFilter) bool {
	if f.Author != "" && !strings.Contains(strings.ToLower(n.Author), strings.ToLower(f.Author)) {
		return false
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(n.Title), strings.ToLower(f.Title)) {
		return false
	}

	return true
}

func clonePhoto(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p

	return &v
}

// Проверка на соответствие интерфейсу Storage.
var _ storage.Storage = (*Storage)(nil)
