package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/pagination"
	"github.com/pribylovaa/go-news-cms/internal/service"
	"github.com/pribylovaa/go-news-cms/internal/uploads"
)

// NewsService — операции над новостями и файлами (реализует service.Service).
type NewsService interface {
	CreateNews(ctx context.Context, in service.CreateNewsInput) (*models.News, error)
	DeleteNews(ctx context.Context, rawID string) (int64, error)
	NewsByID(ctx context.Context, rawID string) (*models.News, error)
	ListNews(ctx context.Context, filter models.NewsFilter, page, limit int) (*pagination.Result, error)
	UploadFile(ctx context.Context, declaredLength int64, f *uploads.File) (*uploads.StoredFile, error)
	AdmitUpload(ctx context.Context, declaredLength int64) error
	DefaultLimit() int
}

// AuthService — регистрация и вход (реализует service.Service).
type AuthService interface {
	RegisterUser(ctx context.Context, email, password string) (*models.User, error)
	LoginUser(ctx context.Context, email, password string) (*service.AccessToken, error)
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	News NewsService
	Auth AuthService
}

func New(news NewsService, auth AuthService) *Handlers {
	return &Handlers{News: news, Auth: auth}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
// Превышение лимита тела (*http.MaxBytesError) возвращается как есть.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
	}

	return nil
}
