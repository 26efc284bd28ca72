// handlers — HTTP-обработчики /v1/health и /v1/users/*.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/playlist-transfer-api/internal/config"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
)

// Service — операции сессий и учётных записей, которые нужны обработчикам.
type Service interface {
	RegisterUser(ctx context.Context, in models.NewUser) (int64, error)
	GetUser(ctx context.Context, id models.UserIdentifier) (*models.PublicUser, error)
	Login(ctx context.Context, password string, id models.UserIdentifier) (*models.LoginResult, error)
	Refresh(ctx context.Context, userID int64, raw string) (*models.AccessToken, error)
	Logout(ctx context.Context, userID int64) error
	DeleteAccount(ctx context.Context, userID int64) error
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc Service
	cfg config.AuthConfig
}

func New(svc Service, cfg config.AuthConfig) *Handlers {
	return &Handlers{svc: svc, cfg: cfg}
}

// Health — проверка живости API.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"isHealthCheckComplete": true})
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

type messageResponse struct {
	Message string `json:"message"`
}
