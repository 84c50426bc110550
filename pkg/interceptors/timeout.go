// Package interceptors содержит серверные unary-интерсепторы служебного
// gRPC-эндпоинта CMS (health, reflection).
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout задаёт вызову дедлайн d, если клиент его не прислал.
// При d <= 0 вызов проходит как есть.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, set := ctx.Deadline(); set || d <= 0 {
			return handler(ctx, req)
		}

		bounded, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(bounded, req)
	}
}
