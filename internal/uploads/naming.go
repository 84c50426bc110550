package uploads

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const maxExtLen = 10

// GenerateName возвращает уникальное имя файла: UUIDv7 + расширение.
// Расширение берётся из определённого типа, иначе из исходного имени (очищенное).
func GenerateName(mtype *mimetype.MIME, originalName string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return id.String() + extension(mtype, originalName)
}

func extension(mtype *mimetype.MIME, originalName string) string {
	if mtype != nil {
		if ext := mtype.Extension(); ext != "" {
			return ext
		}
	}

	return sanitizeExt(filepath.Ext(originalName))
}

// sanitizeExt оставляет только [a-z0-9] и ограничивает длину.
func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))

	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 || b.Len() > maxExtLen {
		return ""
	}

	return "." + b.String()
}
