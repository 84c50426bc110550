// disk — файловый backend для uploads.Store.
// Запись идёт во временный файл в том же каталоге, затем fsync и os.Rename,
// поэтому частично записанный файл никогда не виден под итоговым именем.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644

	tempPattern = ".upload-*"
)

// Storage хранит файлы в одном каталоге.
type Storage struct {
	dir string
}

// New создает backend с корнем dir. Каталог создаётся лениво в EnsureDir.
func New(dir string) *Storage {
	return &Storage{dir: filepath.Clean(dir)}
}

// Dir возвращает корневой каталог (для раздачи статики).
func (s *Storage) Dir() string { return s.dir }

// EnsureDir создает каталог при необходимости и проверяет, что это каталог.
func (s *Storage) EnsureDir(_ context.Context) error {
	const op = "storage.disk.EnsureDir"

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %q is not a directory", op, s.dir)
	}

	return nil
}

// Write пишет r во временный файл и атомарно переименовывает его в name.
func (s *Storage) Write(ctx context.Context, name string, r io.Reader, _ int64, _ string) (err error) {
	const op = "storage.disk.Write"

	if err := validName(name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("%s: create temp: %w", op, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		return fmt.Errorf("%s: copy: %w", op, err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%s: sync: %w", op, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", op, err)
	}

	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("%s: chmod: %w", op, err)
	}

	if err = os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("%s: rename: %w", op, err)
	}

	return nil
}

// Delete удаляет файл; отсутствие файла не ошибка.
func (s *Storage) Delete(_ context.Context, name string) error {
	const op = "storage.disk.Delete"

	if err := validName(name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// validName запрещает пути и скрытые имена.
func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid file name %q", name)
	}

	return nil
}

// ctxReader прерывает копирование при отмене контекста.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
