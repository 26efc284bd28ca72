package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
)

// Recover перехватывает panic и отвечает 500/InternalError.
// Детали паники остаются в логе.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic_recovered",
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)

				if !sw.written() {
					apierrors.WriteError(sw, r, apierrors.Internal(fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
