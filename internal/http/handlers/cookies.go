package handlers

import (
	"net/http"
	"strconv"
	"time"
)

const (
	cookieRefreshToken = "refreshToken"
	cookieUserID       = "userId"
)

// setSessionCookies выставляет HttpOnly cookie сессии на срок жизни refresh-токена.
func (h *Handlers) setSessionCookies(w http.ResponseWriter, userID int64, raw string, exp time.Time) {
	maxAge := int(h.cfg.RefreshTokenTTL / time.Second)

	http.SetCookie(w, h.cookie(cookieRefreshToken, raw, maxAge, exp))
	http.SetCookie(w, h.cookie(cookieUserID, strconv.FormatInt(userID, 10), maxAge, exp))
}

// clearSessionCookies удаляет cookie сессии.
func (h *Handlers) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(cookieRefreshToken, "", -1, time.Unix(0, 0)))
	http.SetCookie(w, h.cookie(cookieUserID, "", -1, time.Unix(0, 0)))
}

func (h *Handlers) cookie(name, value string, maxAge int, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  exp.UTC(),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
