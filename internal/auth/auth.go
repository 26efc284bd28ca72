// auth — проверка заголовка Authorization и request-scoped личность вызывающего.
//
// Проверка не обращается к хранилищу: достаточно подписи access-токена.
package auth

import (
	"context"
	"strings"

	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
)

// Verifier проверяет access-токен.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.AccessClaims, error)
}

const scheme = "Bearer"

// Authenticate разбирает значение заголовка Authorization и проверяет токен.
//
//   - пустой заголовок — MissingAuthHeader;
//   - нет пробела, пустой токен или схема не Bearer — InvalidAuthHeader;
//   - токен не прошёл проверку — Unauthorized.
func Authenticate(ctx context.Context, v Verifier, header string) (*models.AccessClaims, error) {
	if header == "" {
		return nil, apierrors.ErrMissingAuthHeader
	}

	sch, tok, ok := strings.Cut(header, " ")
	tok = strings.TrimSpace(tok)
	if !ok || tok == "" || !strings.EqualFold(sch, scheme) {
		return nil, apierrors.ErrInvalidAuthHeader
	}

	claims, err := v.Verify(ctx, tok)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindUnauthorized, err)
	}

	return claims, nil
}

type ctxKey struct{}

// Into кладёт личность вызывающего в контекст.
func Into(ctx context.Context, c *models.AccessClaims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// From достаёт личность вызывающего из контекста.
func From(ctx context.Context) (*models.AccessClaims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*models.AccessClaims)
	return c, ok && c != nil
}
