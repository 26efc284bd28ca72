// deadline — общий для HTTP и gRPC дедлайн запроса.
package deadline

import (
	"context"
	"time"
)

// Ensure ограничивает ctx сроком d, если у него ещё нет своего дедлайна.
// При d <= 0 или уже заданном дедлайне возвращает ctx и пустой cancel.
func Ensure(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, d)
}
