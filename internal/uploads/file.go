// uploads — конвейер приёма файлов: проверка (Validator) и сохранение (Store).
//
// Validator ничего не пишет; Store — единственный, кто обращается к Backend.
// Абсолютный путь файла не покидает Backend: наружу уходят имя и публичный URL.
package uploads

import (
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrTooLarge — заявленный размер превышает лимит.
	ErrTooLarge = errors.New("file too large")
	// ErrNoFile — файл не передан.
	ErrNoFile = errors.New("no file provided")
	// ErrUnsupportedType — тип содержимого не входит в allow-list.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrDirectoryUnavailable — каталог хранения отсутствует и не может быть создан.
	ErrDirectoryUnavailable = errors.New("upload directory unavailable")
	// ErrWriteFailed — запись не завершилась; частичный результат удалён.
	ErrWriteFailed = errors.New("upload write failed")
)

// File — принятый, но ещё не сохранённый файл.
// Читается Store ровно один раз.
type File struct {
	// Reader — содержимое; Seek нужен, чтобы определить тип и вернуться к началу.
	Reader io.ReadSeeker
	// DeclaredType — Content-Type, заявленный клиентом.
	DeclaredType string
	// DeclaredSize — размер, заявленный клиентом (для multipart — фактический).
	DeclaredSize int64
	// OriginalName — имя файла у клиента; используется только для расширения.
	OriginalName string

	detected *mimetype.MIME
}

// StoredFile — результат успешного сохранения.
type StoredFile struct {
	// Name — сгенерированное имя в хранилище.
	Name string
	// URL — публичный адрес: base_url + "/" + Name.
	URL string
	// ContentType — тип, определённый по содержимому.
	ContentType string
	// Size — число записанных байт.
	Size int64
}

// Detect определяет тип по первым байтам содержимого и возвращает Reader к началу.
// Результат кэшируется.
func (f *File) Detect() (*mimetype.MIME, error) {
	if f.detected != nil {
		return f.detected, nil
	}

	if _, err := f.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("uploads.Detect: seek: %w", err)
	}

	mtype, err := mimetype.DetectReader(f.Reader)
	if err != nil {
		return nil, fmt.Errorf("uploads.Detect: %w", err)
	}

	if _, err := f.Reader.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("uploads.Detect: rewind: %w", err)
	}

	f.detected = mtype

	return mtype, nil
}
