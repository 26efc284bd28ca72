package middleware

import (
	"log/slog"
	"net/http"

	"github.com/pribylovaa/playlist-transfer-api/internal/auth"
	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/redact"
)

// RequireAuth пропускает запрос дальше только с валидным Bearer access-токеном
// и кладёт личность вызывающего в контекст. Хранилище не используется.
func RequireAuth(v auth.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			claims, err := auth.Authenticate(r.Context(), v, header)
			if err != nil {
				log.From(r.Context()).Warn("auth_rejected",
					slog.String("path", r.URL.Path),
					slog.String("authorization", redact.Authorization(header)),
					slog.String("kind", apierrors.As(err).Kind.Key()),
				)
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := auth.Into(r.Context(), claims)
			ctx, _ = log.With(ctx, slog.Int64("user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
