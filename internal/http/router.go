package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/playlist-transfer-api/internal/auth"
	"github.com/pribylovaa/playlist-transfer-api/internal/http/handlers"
	"github.com/pribylovaa/playlist-transfer-api/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/playlist-transfer-api"; пустой — только корень.
	Verifier auth.Verifier
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
// Маршруты доступны на корне и повторно под BasePath.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования, чтобы request_id попал в лог
		middleware.Logging(opts.Logger),
		middleware.Timeout(opts.Timeout),
	)

	requireAuth := middleware.RequireAuth(opts.Verifier)

	registerRoutes(root, h, requireAuth)
	if opts.BasePath != "" && opts.BasePath != "/" {
		root.Route(opts.BasePath, func(r chi.Router) {
			registerRoutes(r, h, requireAuth)
		})
	}

	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, requireAuth middleware.Middleware) {
	r.Get("/v1/health", h.Health)

	r.Route("/v1/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Get("/user", h.GetUser)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Delete("/account", h.DeleteAccount)
		})
	})
}
