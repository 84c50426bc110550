package uploads

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pribylovaa/go-news-cms/pkg/log"
)

// Backend — физическое хранилище файлов (диск или объектное хранилище).
type Backend interface {
	// EnsureDir гарантирует, что место хранения существует (создаёт при необходимости).
	EnsureDir(ctx context.Context) error
	// Write атомарно записывает содержимое под именем name.
	// При ошибке частичный объект не должен оставаться видимым.
	Write(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Delete удаляет объект; отсутствие объекта ошибкой не считается.
	Delete(ctx context.Context, name string) error
}

// Store сохраняет проверенные файлы и строит их публичные URL.
type Store struct {
	backend Backend
	baseURL string
}

// NewStore создает Store поверх backend; baseURL — публичный префикс.
func NewStore(backend Backend, baseURL string) *Store {
	return &Store{backend: backend, baseURL: strings.TrimRight(baseURL, "/")}
}

// URL строит публичный адрес файла по имени.
func (s *Store) URL(name string) string {
	return s.baseURL + "/" + name
}

// Save сохраняет файл под новым уникальным именем.
func (s *Store) Save(ctx context.Context, f *File) (*StoredFile, error) {
	const op = "uploads.Store.Save"

	if f == nil || f.Reader == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoFile)
	}

	if err := s.backend.EnsureDir(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDirectoryUnavailable, err)
	}

	mtype, err := f.Detect()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrWriteFailed, err)
	}

	name := GenerateName(mtype, f.OriginalName)
	cr := &countingReader{r: f.Reader}

	if err := s.backend.Write(ctx, name, cr, f.DeclaredSize, mtype.String()); err != nil {
		if delErr := s.backend.Delete(context.WithoutCancel(ctx), name); delErr != nil {
			log.From(ctx).Warn("upload_cleanup_failed",
				slog.String("op", op),
				slog.String("name", name),
				slog.String("err", delErr.Error()),
			)
		}

		return nil, fmt.Errorf("%s: %w: %w", op, ErrWriteFailed, err)
	}

	return &StoredFile{
		Name:        name,
		URL:         s.URL(name),
		ContentType: mtype.String(),
		Size:        cr.n,
	}, nil
}

// Remove удаляет ранее сохранённый файл по его публичному URL.
// URL с чужим префиксом игнорируются.
func (s *Store) Remove(ctx context.Context, url string) error {
	const op = "uploads.Store.Remove"

	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}

	if err := s.backend.Delete(ctx, name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// countingReader считает прочитанные байты.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}
