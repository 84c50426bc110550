package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/pagination"
	"github.com/pribylovaa/go-news-cms/internal/storage"
	"github.com/pribylovaa/go-news-cms/internal/uploads"
	"github.com/pribylovaa/go-news-cms/pkg/log"
)

// CreateNewsInput — разобранный запрос на создание новости.
type CreateNewsInput struct {
	Title   string
	Author  string
	Content string
	// Photo — необязательное фото; nil, если файл не передан.
	Photo *uploads.File
	// ContentLength — заявленная длина тела запроса (-1, если неизвестна).
	ContentLength int64
}

// CreateNews проверяет поля, при наличии фото проверяет и сохраняет его,
// затем сохраняет новость. Если запись в БД не удалась, сохранённый файл удаляется.
func (s *Service) CreateNews(ctx context.Context, in CreateNewsInput) (*models.News, error) {
	const op = "service.news.CreateNews"

	lg := log.From(ctx)

	news := models.News{
		Title:   strings.TrimSpace(in.Title),
		Author:  strings.TrimSpace(in.Author),
		Content: strings.TrimSpace(in.Content),
	}
	if news.Title == "" || news.Author == "" || news.Content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingFields)
	}

	var stored *uploads.StoredFile
	if in.Photo != nil {
		var err error
		stored, err = s.storeFile(ctx, in.ContentLength, in.Photo)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		news.Photo = &stored.URL
	}

	created, err := s.storage.InsertNews(ctx, news)
	if err != nil {
		lg.Error("insert_news_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)

		if stored != nil {
			s.removeFile(ctx, op, stored.URL)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateList(ctx)
	s.metrics.NewsCreated()

	lg.Info("news_created",
		slog.Int64("id", created.ID),
		slog.Bool("with_photo", created.Photo != nil),
	)

	return created, nil
}

// DeleteNews удаляет новость по строковому идентификатору из пути запроса.
// После удаления прикреплённое фото удаляется без гарантии (ошибка только логируется).
func (s *Service) DeleteNews(ctx context.Context, rawID string) (int64, error) {
	const op = "service.news.DeleteNews"

	id, err := parseID(rawID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := s.storage.DeleteNewsByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if deleted.Photo != nil {
		s.removeFile(ctx, op, *deleted.Photo)
	}

	s.invalidateList(ctx)
	s.metrics.NewsDeleted()

	log.From(ctx).Info("news_deleted", slog.Int64("id", id))

	return id, nil
}

// NewsByID возвращает новость по строковому идентификатору.
func (s *Service) NewsByID(ctx context.Context, rawID string) (*models.News, error) {
	const op = "service.news.NewsByID"

	id, err := parseID(rawID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	news, err := s.storage.NewsByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return news, nil
}

// ListNews возвращает страницу новостей под фильтром.
// page/limit вне диапазона приводятся к границам; ошибки кэша не влияют на ответ.
func (s *Service) ListNews(ctx context.Context, filter models.NewsFilter, page, limit int) (*pagination.Result, error) {
	const op = "service.news.ListNews"

	lg := log.From(ctx)

	filter = models.NewsFilter{
		Author: strings.TrimSpace(filter.Author),
		Title:  strings.TrimSpace(filter.Title),
	}
	params := s.pager.Normalize(page, limit)

	// Страницу кладём в кэш только под поколением, прочитанным до запроса в хранилище.
	var (
		gen       int64
		cacheable bool
	)
	if s.lcache != nil {
		res, g, ok, err := s.lcache.Get(ctx, filter, params)
		switch {
		case err != nil:
			s.metrics.ListCache("error")
			lg.Warn("list_cache_get_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		case ok:
			s.metrics.ListCache("hit")
			return res, nil
		default:
			s.metrics.ListCache("miss")
			gen, cacheable = g, true
		}
	}

	res, err := s.pager.Query(ctx, s.storage, filter, params.Page, params.Limit)
	if err != nil {
		lg.Error("list_news_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cacheable {
		if err := s.lcache.Set(ctx, gen, res, s.cacheTTL); err != nil {
			lg.Warn("list_cache_set_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	lg.Debug("list_news_ok",
		slog.Int("page", res.Page),
		slog.Int("limit", res.Limit),
		slog.Int64("total", res.Total),
	)

	return res, nil
}

// UploadFile проверяет и сохраняет отдельный файл, возвращая его публичный URL.
func (s *Service) UploadFile(ctx context.Context, declaredLength int64, f *uploads.File) (*uploads.StoredFile, error) {
	const op = "service.news.UploadFile"

	stored, err := s.storeFile(ctx, declaredLength, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("file_uploaded",
		slog.String("name", stored.Name),
		slog.Int64("size", stored.Size),
	)

	return stored, nil
}

// AdmitUpload решает по заявленному Content-Length, можно ли читать тело загрузки.
// Вызывается транспортом до разбора multipart.
func (s *Service) AdmitUpload(ctx context.Context, declaredLength int64) error {
	const op = "service.news.AdmitUpload"

	if err := s.validator.CheckContentLength(declaredLength); err != nil {
		s.metrics.UploadRejected(rejectReason(err))
		log.From(ctx).Warn("upload_rejected",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// storeFile — общий путь Validator → Store.
func (s *Service) storeFile(ctx context.Context, declaredLength int64, f *uploads.File) (*uploads.StoredFile, error) {
	const op = "service.news.storeFile"

	lg := log.From(ctx)

	if err := s.validator.Validate(declaredLength, f); err != nil {
		s.metrics.UploadRejected(rejectReason(err))
		lg.Warn("upload_rejected",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	stored, err := s.files.Save(ctx, f)
	if err != nil {
		s.metrics.UploadRejected("storage")
		lg.Error("upload_store_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	s.metrics.UploadStored()

	return stored, nil
}

// removeFile удаляет файл без гарантии; контекст запроса может быть уже отменён.
func (s *Service) removeFile(ctx context.Context, op, url string) {
	if err := s.files.Remove(context.WithoutCancel(ctx), url); err != nil {
		log.From(ctx).Warn("file_remove_failed",
			slog.String("op", op),
			slog.String("url", url),
			slog.String("err", err.Error()),
		)
	}
}

func (s *Service) invalidateList(ctx context.Context) {
	if s.lcache == nil {
		return
	}

	if err := s.lcache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		log.From(ctx).Warn("list_cache_invalidate_failed", slog.String("err", err.Error()))
	}
}

// parseID принимает только положительные целые.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, uploads.ErrTooLarge):
		return "too_large"
	case errors.Is(err, uploads.ErrNoFile):
		return "no_file"
	case errors.Is(err, uploads.ErrUnsupportedType):
		return "unsupported_media_type"
	default:
		return "invalid"
	}
}
