package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/go-news-cms/pkg/log"
)

// mdRequestID — ключ metadata с идентификатором запроса, тот же, что X-Request-Id в HTTP.
const mdRequestID = "x-request-id"

// UnaryLogging привязывает к контексту логгер вызова и по завершении пишет
// запись msg="grpc" с кодом статуса и длительностью.
func UnaryLogging(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()

		callLog := base.With(
			slog.String("request_id", incomingRequestID(ctx)),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr(ctx)),
		)

		resp, err := handler(log.Into(ctx, callLog), req)

		callLog.Debug("grpc",
			slog.String("code", status.Code(err).String()),
			slog.Duration("dur", time.Since(started)),
		)

		return resp, err
	}
}

func incomingRequestID(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get(mdRequestID) {
		if v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "-"
}
