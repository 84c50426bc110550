// minio — backend объектного хранилища (MinIO/S3) для uploads.Store.
// Объект появляется в бакете только после успешного PutObject,
// поэтому частичная запись снаружи не видна.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/pribylovaa/go-news-cms/internal/config"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage — адаптер MinIO для файлов новостей.
type Storage struct {
	bucket string
	client *mclient.Client
	ready  atomic.Bool
}

// New создает и инициализирует клиент MinIO.
// Делает endpoint-перенастройку (убирает схему), подбирает Secure по схеме
// и сразу гарантирует наличие бакета.
func New(ctx context.Context, cfg config.S3Config) (*Storage, error) {
	const op = "storage.minio.New"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.RootUser, cfg.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{bucket: cfg.Bucket, client: client}
	if err := s.EnsureDir(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// EnsureDir проверяет бакет и создает его при отсутствии.
func (s *Storage) EnsureDir(ctx context.Context) error {
	const op = "storage.minio.EnsureDir"

	if s.ready.Load() {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, mclient.MakeBucketOptions{}); err != nil {
			resp := mclient.ToErrorResponse(err)
			if resp.Code != "BucketAlreadyOwnedByYou" && resp.Code != "BucketAlreadyExists" {
				return fmt.Errorf("%s: bucket %q: %w", op, s.bucket, err)
			}
		}
	}

	s.ready.Store(true)

	return nil
}

// Write загружает объект name; size <= 0 — потоковая загрузка без длины.
func (s *Storage) Write(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	const op = "storage.minio.Write"

	if size <= 0 {
		size = -1
	}

	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete удаляет объект; отсутствие объекта не ошибка.
func (s *Storage) Delete(ctx context.Context, name string) error {
	const op = "storage.minio.Delete"

	err := s.client.RemoveObject(ctx, s.bucket, name, mclient.RemoveObjectOptions{})
	if err != nil {
		resp := mclient.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
