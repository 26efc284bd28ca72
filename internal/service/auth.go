package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/redact"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage"
)

// refreshSecretBytes — энтропия сырого refresh-секрета.
const refreshSecretBytes = 64

const noIdentifierDetail = "No valid email or username to search for user by during getUser!"

// Login проверяет пароль и открывает новую сессию.
// Ошибки: UsersError (нет ни email, ни username), NoUserFound,
// IncorrectPassword, InternalError.
func (s *Service) Login(ctx context.Context, password string, id models.UserIdentifier) (res *models.LoginResult, err error) {
	const op = "service.auth.Login"

	defer func() { s.observe("login", err) }()

	lg := log.From(ctx).With(slog.String("op", op))

	if id.Email == "" && id.Username == "" {
		return nil, apierrors.Users(noIdentifierDetail)
	}

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	user, err := conn.User(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("login_user_not_found",
				slog.String("email", redact.Email(id.Email)),
				slog.String("username", id.Username),
			)
			return nil, apierrors.ErrNoUserFound
		}

		return nil, s.internal(ctx, op, "user_lookup_failed", err)
	}

	ok, err := s.verify(user.PasswordHash, password)
	if err != nil {
		return nil, s.internal(ctx, op, "password_verify_failed", err)
	}
	if !ok {
		lg.Warn("login_incorrect_password", slog.Int64("user_id", user.ID))
		return nil, apierrors.ErrIncorrectPassword
	}

	access, accessExp, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, op, "access_token_issue_failed", err)
	}

	raw, refreshExp, err := s.generateRefreshToken(ctx, conn, user.ID)
	if err != nil {
		return nil, err
	}

	lg.Info("login_succeeded", slog.Int64("user_id", user.ID))

	return &models.LoginResult{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     raw,
		RefreshExpiresAt: refreshExp,
		UserID:           user.ID,
	}, nil
}

// Refresh выпускает новый access-токен по сырому refresh-секрету.
// Refresh-токен не ротируется. Любая причина отказа (нет сессии, секрет не
// совпал, пользователь удалён) сводится к InvalidRefreshToken.
func (s *Service) Refresh(ctx context.Context, userID int64, raw string) (res *models.AccessToken, err error) {
	const op = "service.auth.Refresh"

	defer func() { s.observe("refresh", err) }()

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("user_id", userID))

	if userID <= 0 || raw == "" {
		return nil, apierrors.ErrInvalidRefreshToken
	}

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tokens, err := conn.ActiveRefreshTokens(ctx, userID)
	if err != nil {
		return nil, s.internal(ctx, op, "active_tokens_failed", err)
	}

	// Хэши солёные, поэтому поиск по значению невозможен: сверяем с каждой
	// активной сессией пользователя до первого совпадения.
	matched := false
	for i := range tokens {
		ok, err := s.verify(tokens[i].TokenHash, raw)
		if err != nil {
			return nil, s.internal(ctx, op, "refresh_hash_corrupted",
				fmt.Errorf("token %d: %w", tokens[i].ID, err))
		}
		if ok {
			matched = true
			break
		}
	}
	if !matched {
		lg.Warn("refresh_rejected",
			slog.String("reason", "no_matching_session"),
			slog.Int("active", len(tokens)),
		)
		return nil, apierrors.ErrInvalidRefreshToken
	}

	user, err := conn.User(ctx, models.UserIdentifier{UserID: userID})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_rejected", slog.String("reason", "user_not_found"))
			return nil, apierrors.ErrInvalidRefreshToken
		}

		return nil, s.internal(ctx, op, "user_lookup_failed", err)
	}

	access, exp, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, op, "access_token_issue_failed", err)
	}

	return &models.AccessToken{Token: access, ExpiresAt: exp}, nil
}

// Logout отзывает все активные сессии пользователя.
// Успешен и при отсутствии активных сессий.
func (s *Service) Logout(ctx context.Context, userID int64) (err error) {
	const op = "service.auth.Logout"

	defer func() { s.observe("logout", err) }()

	if userID <= 0 {
		return apierrors.Parsing("Invalid user id: %d", userID)
	}

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Release()

	n, err := conn.RevokeRefreshTokens(ctx, userID)
	if err != nil {
		return s.internal(ctx, op, "revoke_tokens_failed", err)
	}

	log.From(ctx).Info("logout_succeeded",
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int64("revoked", n),
	)

	return nil
}

// generateRefreshToken создаёт сырой секрет, сохраняет его хэш и возвращает
// секрет вместе со сроком действия.
func (s *Service) generateRefreshToken(ctx context.Context, conn storage.RefreshTokenStorage, userID int64) (string, time.Time, error) {
	const op = "service.auth.generateRefreshToken"

	b := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, s.internal(ctx, op, "refresh_rand_failed", err)
	}
	raw := hex.EncodeToString(b)

	hash, err := s.hash(raw)
	if err != nil {
		return "", time.Time{}, s.internal(ctx, op, "refresh_hash_failed", err)
	}

	exp := s.now().UTC().Add(s.cfg.RefreshTokenTTL)
	if err := conn.AddRefreshToken(ctx, userID, hash, exp); err != nil {
		return "", time.Time{}, s.internal(ctx, op, "save_refresh_token_failed", fmt.Errorf("%s: %w", op, err))
	}

	return raw, exp, nil
}
