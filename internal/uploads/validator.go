package uploads

import (
	"fmt"
	"mime"
	"strings"
)

// Режимы определения эффективного типа файла.
const (
	// MIMESourceSniffed — тип по содержимому (по умолчанию).
	MIMESourceSniffed = "sniffed"
	// MIMESourceDeclared — тип, заявленный клиентом.
	MIMESourceDeclared = "declared"
)

// Validator проверяет размер, наличие и тип файла до любой записи.
type Validator struct {
	maxSize int64
	allowed []string
	source  string
}

// NewValidator создает валидатор.
// Неизвестный source трактуется как MIMESourceSniffed.
func NewValidator(maxSize int64, allowed []string, source string) *Validator {
	norm := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if a = normalizeType(a); a != "" {
			norm = append(norm, a)
		}
	}

	if source != MIMESourceDeclared {
		source = MIMESourceSniffed
	}

	return &Validator{maxSize: maxSize, allowed: norm, source: source}
}

// MaxSize возвращает лимит размера в байтах.
func (v *Validator) MaxSize() int64 { return v.maxSize }

// CheckContentLength отсекает запрос по заявленному Content-Length, до чтения тела.
// n < 0 означает «неизвестно» и не проверяется.
func (v *Validator) CheckContentLength(n int64) error {
	if n > v.maxSize {
		return fmt.Errorf("content length %d: %w", n, ErrTooLarge)
	}
	return nil
}

// Validate проверяет файл в порядке: размер запроса → наличие → размер файла → тип.
// declaredContentLength < 0 означает «неизвестно» и не проверяется.
func (v *Validator) Validate(declaredContentLength int64, f *File) error {
	const op = "uploads.Validator.Validate"

	if err := v.CheckContentLength(declaredContentLength); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if f == nil || f.Reader == nil {
		return fmt.Errorf("%s: %w", op, ErrNoFile)
	}

	if f.DeclaredSize > v.maxSize {
		return fmt.Errorf("%s: file size %d: %w", op, f.DeclaredSize, ErrTooLarge)
	}

	ok, effective, err := v.allowedType(f)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %q: %w", op, effective, ErrUnsupportedType)
	}

	return nil
}

// allowedType сверяет эффективный тип с allow-list.
func (v *Validator) allowedType(f *File) (bool, string, error) {
	if v.source == MIMESourceDeclared {
		declared := normalizeType(f.DeclaredType)
		for _, a := range v.allowed {
			if declared == a {
				return true, declared, nil
			}
		}

		return false, declared, nil
	}

	mtype, err := f.Detect()
	if err != nil {
		return false, "", err
	}

	for _, a := range v.allowed {
		if mtype.Is(a) {
			return true, mtype.String(), nil
		}
	}

	return false, mtype.String(), nil
}

// normalizeType отбрасывает параметры и приводит тип к нижнему регистру.
func normalizeType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}

	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}

	return strings.ToLower(ct)
}
