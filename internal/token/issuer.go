// token выпускает и проверяет короткоживущие access-токены (JWT HS256).
//
// Проверка не требует обращения к БД: достаточно ключа подписи.
// Ключ запрашивается у secrets.Resolver при каждом вызове, поэтому ротация
// секрета в Parameter Store подхватывается без рестарта (с точностью до TTL кэша).
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/playlist-transfer-api/internal/config"
	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
	"github.com/pribylovaa/playlist-transfer-api/internal/secrets"
)

type accessClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer выпускает и проверяет access-токены.
type Issuer struct {
	secrets secrets.Resolver
	ttl     time.Duration
	issuer  string
	now     func() time.Time
}

// New создаёт Issuer c TTL и издателем из cfg.
func New(res secrets.Resolver, cfg config.AuthConfig) *Issuer {
	return &Issuer{
		secrets: res,
		ttl:     cfg.AccessTokenTTL,
		issuer:  cfg.Issuer,
		now:     time.Now,
	}
}

// Issue подписывает access-токен для пользователя.
func (i *Issuer) Issue(ctx context.Context, user *models.User) (string, time.Time, error) {
	const op = "token.issuer.Issue"

	lg := log.From(ctx)

	key, err := i.secrets.SigningSecret(ctx)
	if err != nil {
		lg.Error("signing_secret_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	now := i.now().UTC()
	exp := now.Add(i.ttl)

	claims := accessClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Verify проверяет подпись, алгоритм, срок и издателя токена.
// Любой отказ — Unauthorized; причина (expired/invalid) пишется только в лог.
func (i *Issuer) Verify(ctx context.Context, tokenStr string) (*models.AccessClaims, error) {
	const op = "token.issuer.Verify"

	lg := log.From(ctx)

	key, err := i.secrets.SigningSecret(ctx)
	if err != nil {
		lg.Error("signing_secret_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, apierrors.Wrap(apierrors.KindUnauthorized, fmt.Errorf("%s: %w", op, err))
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var claims accessClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	if err != nil || !tok.Valid {
		reason := "invalid"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		}
		lg.Warn("access_token_rejected",
			slog.String("op", op),
			slog.String("reason", reason),
		)

		if err == nil {
			err = errors.New("token is not valid")
		}
		return nil, apierrors.Wrap(apierrors.KindUnauthorized, fmt.Errorf("%s: %w", op, err))
	}

	sub, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || sub <= 0 {
		lg.Warn("access_token_rejected",
			slog.String("op", op),
			slog.String("reason", "invalid_subject"),
		)
		return nil, apierrors.Wrap(apierrors.KindUnauthorized, fmt.Errorf("%s: invalid subject %q", op, claims.Subject))
	}

	out := &models.AccessClaims{
		Subject:  sub,
		Username: claims.Username,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}
