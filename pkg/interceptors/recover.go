package interceptors

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errInternal = status.Error(codes.Internal, "internal server error")

// Recover отвечает codes.Internal на панику в обработчике.
// Значение паники и стек остаются в логе fallback.
func Recover(fallback *slog.Logger) grpc.UnaryServerInterceptor {
	if fallback == nil {
		fallback = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fallback.LogAttrs(ctx, slog.LevelError, "panic_recovered",
				slog.String("method", info.FullMethod),
				slog.String("reason", fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
			resp, err = nil, errInternal
		}()

		return handler(ctx, req)
	}
}
