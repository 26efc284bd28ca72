// interceptors — unary-интерсепторы gRPC health-сервера.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/deadline"
)

// WithTimeout навешивает deadline, если клиент его не задал. d <= 0 — no-op.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, cancel := deadline.Ensure(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
