package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/pribylovaa/go-news-cms/internal/errors"
	"github.com/pribylovaa/go-news-cms/pkg/log"
)

// errPanic — то, что видит маппер ошибок вместо значения паники; наружу уходит 500/internal.
var errPanic = errors.New("handler panicked")

// Recover превращает панику обработчика в ответ 500 и запись panic со стеком.
// http.ErrAbortHandler пробрасывается дальше: им net/http обрывает соединение.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				switch rec := recover(); rec {
				case nil:
				case http.ErrAbortHandler:
					panic(rec)
				default:
					ctx := r.Context()
					log.From(ctx).LogAttrs(ctx, slog.LevelError, "panic",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("reason", fmt.Sprint(rec)),
						slog.String("stack", string(debug.Stack())),
					)
					apierrors.WriteError(w, r, errPanic)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
