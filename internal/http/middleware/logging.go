package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/go-news-cms/pkg/log"
)

// Logging кладёт request-scoped логгер (с request_id) в контекст
// и после ответа пишет одну запись msg="http".
// Ставится после RequestID.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := r.Header.Get(HeaderRequestID); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			r = r.WithContext(log.Into(r.Context(), reqLogger))

			rec := meter(w)
			start := time.Now()

			next.ServeHTTP(rec, r)

			lvl := slog.LevelInfo
			if rec.Status() >= http.StatusInternalServerError {
				lvl = slog.LevelError
			}

			log.From(r.Context()).LogAttrs(r.Context(), lvl, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.Status()),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", rec.BytesWritten()),
			)
		})
	}
}
