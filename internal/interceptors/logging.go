package interceptors

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
)

const healthPrefix = "/grpc.health.v1.Health/"

// UnaryLoggingInterceptor логирует unary-вызовы и кладёт обогащённый логгер в контекст.
//
// request_id берётся из metadata x-request-id, иначе генерируется UUID.
// Итоговая запись: msg="grpc", code, dur. Пробы health пишутся на уровне Debug,
// ответы Internal/Unknown — на уровне Error.
func UnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		l := base.With(
			slog.String("request_id", requestID(ctx)),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr(ctx)),
		)

		resp, err := handler(log.Into(ctx, l), req)

		code := status.Code(err)
		l.Log(ctx, level(info.FullMethod, code), "grpc",
			slog.String("code", code.String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

// requestID — x-request-id из входящих metadata или новый UUID.
func requestID(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get("x-request-id") {
		if v != "" {
			return v
		}
	}

	return uuid.NewString()
}

// peerAddr — адрес клиента или "-".
func peerAddr(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "-"
	}

	return p.Addr.String()
}

func level(method string, code codes.Code) slog.Level {
	switch {
	case code == codes.Internal || code == codes.Unknown:
		return slog.LevelError
	case strings.HasPrefix(method, healthPrefix):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
