package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-news-cms/internal/http/middleware"
	"github.com/pribylovaa/go-news-cms/pkg/log"
	"github.com/pribylovaa/go-news-cms/pkg/redact"
)

// audit пишет запись msg="audit" об изменяющем действии редактора.
// Редактора выставляет RequireAuth; user_id уже есть в логгере запроса.
func audit(r *http.Request, action string, attrs ...slog.Attr) {
	ctx := r.Context()

	attrs = append([]slog.Attr{slog.String("action", action)}, attrs...)
	if _, email, ok := middleware.UserFromContext(ctx); ok {
		attrs = append(attrs, slog.String("editor", redact.Email(email)))
	}

	log.From(ctx).LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}
