package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/go-news-cms/internal/errors"
	"github.com/pribylovaa/go-news-cms/pkg/log"
)

// TokenValidator — проверка access-токена (реализует service.Service).
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, string, error)
}

// RequireAuth пропускает запрос дальше только с валидным Bearer-токеном.
// Идентификатор и email пользователя кладутся в контекст (UserFromContext).
func RequireAuth(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			uid, email, err := v.ValidateToken(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, fmt.Errorf("%w: %w", apierrors.ErrUnauthenticated, err))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, uid)
			ctx = context.WithValue(ctx, ctxEmail, email)
			ctx = log.With(ctx, slog.String("user_id", uid.String()))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext возвращает пользователя, выставленного RequireAuth.
func UserFromContext(ctx context.Context) (uuid.UUID, string, bool) {
	uid, ok := ctx.Value(ctxUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	email, _ := ctx.Value(ctxEmail).(string)
	return uid, email, true
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}
