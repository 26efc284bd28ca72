package handlers

import (
	"net/http"
	"strconv"

	"github.com/pribylovaa/playlist-transfer-api/internal/auth"
	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/parsing"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	body, err := parsing.Decode(r.Body)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	in, err := parsing.Register(body)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if _, err := h.svc.RegisterUser(r.Context(), in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"userCreated": true})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parsing.Lookup(r.URL.Query())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       int64  `json:"userId"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	body, err := parsing.Decode(r.Body)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	password, id, err := parsing.Login(body)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), password, id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setSessionCookies(w, res.UserID, res.RefreshToken, res.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		UserID:       res.UserID,
	})
}

// Refresh берёт userId и refreshToken из cookie; недостающие значения
// ищет в JSON-теле запроса.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	in := parsing.Body{}
	for _, name := range []string{cookieUserID, cookieRefreshToken} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			in[name] = c.Value
		}
	}

	if len(in) < 2 {
		body, err := parsing.Decode(r.Body)
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}

		for _, name := range []string{cookieUserID, cookieRefreshToken} {
			if _, ok := in[name]; !ok && body[name] != nil {
				in[name] = body[name]
			}
		}
	}

	var missing []string
	for _, name := range []string{cookieUserID, cookieRefreshToken} {
		if _, ok := in[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		apierrors.WriteError(w, r, apierrors.MissingCookies(missing...))
		return
	}

	userID, raw, err := parsing.Refresh(in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	tok, err := h.svc.Refresh(r.Context(), userID, raw)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": tok.Token})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.From(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthorized)
		return
	}

	if err := h.svc.Logout(r.Context(), claims.Subject); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "User logged out"})
}

type meResponse struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
}

// Me возвращает личность из access-токена без обращения к хранилищу.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.From(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Sub:      strconv.FormatInt(claims.Subject, 10),
		Username: claims.Username,
	})
}

func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.From(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthorized)
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), claims.Subject); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "User account deleted"})
}
