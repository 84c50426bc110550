// storage определяет контракты доступа к БД для news-cms.
// Реализации: postgres, mongo и memory.
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-news-cms/internal/models"
)

var (
	// ErrNotFound — запись не найдена (новость/пользователь).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// NewsStorage описывает операции над сущностью models.News.
type NewsStorage interface {
	// InsertNews сохраняет новость и возвращает её с назначенным ID.
	InsertNews(ctx context.Context, news models.News) (*models.News, error)
	// DeleteNewsByID удаляет новость и возвращает удалённую запись.
	// Если записи нет — ErrNotFound.
	DeleteNewsByID(ctx context.Context, id int64) (*models.News, error)
	// NewsByID возвращает новость по идентификатору или ErrNotFound.
	NewsByID(ctx context.Context, id int64) (*models.News, error)
	// CountNews возвращает число новостей, подходящих под фильтр.
	CountNews(ctx context.Context, filter models.NewsFilter) (int64, error)
	// SelectNews возвращает окно [offset, offset+limit) подходящих новостей,
	// отсортированных по ID по возрастанию.
	SelectNews(ctx context.Context, filter models.NewsFilter, offset, limit int64) ([]models.News, error)
}

// UsersStorage выполняет операции над пользователями.
type UsersStorage interface {
	// SaveUser создает нового пользователя; дубликат email — ErrAlreadyExists.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email (без учёта регистра) или ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	NewsStorage
	UsersStorage
	Close()
}
