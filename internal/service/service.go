// service содержит бизнес-логику news-cms:
// создание/удаление/список новостей с прикреплением фото,
// отдельную загрузку файлов, регистрацию пользователей и выпуск access-токенов.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для конкурентного
//     использования при условии, что хранилище и FileStore потокобезопасны.
//   - Аутентификация запросов выполняется транспортом до вызова методов.
//   - Ошибки возвращаются обёрнутыми и маппятся транспортом на HTTP-коды
//     (см. комментарии к переменным ошибок ниже и пакет uploads).
package service

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/go-news-cms/internal/cache"
	"github.com/pribylovaa/go-news-cms/internal/config"
	"github.com/pribylovaa/go-news-cms/internal/metrics"
	"github.com/pribylovaa/go-news-cms/internal/pagination"
	"github.com/pribylovaa/go-news-cms/internal/storage"
	"github.com/pribylovaa/go-news-cms/internal/uploads"
)

var (
	// ErrMissingFields — не передан title, author или content. HTTP 400.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidID — идентификатор не число или <= 0. HTTP 400.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidArgument — прочие некорректные входные данные. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound — новость не найдена. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials — пара email/пароль неверна или пользователь не найден. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — access-токен некорректен по формату/подписи. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrEmailTaken — e-mail уже занят. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль короче минимальной длины. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")
)

// FileValidator — проверка файла до любой записи.
type FileValidator interface {
	CheckContentLength(n int64) error
	Validate(declaredContentLength int64, f *uploads.File) error
}

// FileStore — сохранение файлов и откат сохранённого.
type FileStore interface {
	Save(ctx context.Context, f *uploads.File) (*uploads.StoredFile, error)
	Remove(ctx context.Context, url string) error
}

// Service описывает бизнес-логику news-cms.
type Service struct {
	storage   storage.Storage
	cfg       config.AuthConfig
	validator FileValidator
	files     FileStore
	pager     *pagination.Engine

	lcache   cache.ListCache // может быть nil, если кэш не сконфигурирован
	cacheTTL time.Duration
	metrics  *metrics.Metrics // может быть nil
}

// New создаёт новый экземпляр Service.
// Валидатор и лимиты пагинации строятся из cfg.
func New(st storage.Storage, cfg *config.Config, files FileStore) *Service {
	return &Service{
		storage: st,
		cfg:     cfg.Auth,
		validator: uploads.NewValidator(
			cfg.Uploads.MaxSizeBytes,
			cfg.Uploads.AllowedMIMETypes,
			cfg.Uploads.MIMESource,
		),
		files: files,
		pager: pagination.New(cfg.Limits.Default, cfg.Limits.Max),
	}
}

// SetListCache устанавливает кэш страниц списка (опционально).
func (s *Service) SetListCache(c cache.ListCache, ttl time.Duration) {
	s.lcache = c
	s.cacheTTL = ttl
}

// SetMetrics подключает доменные метрики (опционально).
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// DefaultLimit — limit для запросов списка без явного значения.
func (s *Service) DefaultLimit() int {
	return s.pager.DefaultLimit()
}
