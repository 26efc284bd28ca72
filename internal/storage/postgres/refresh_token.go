package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/playlist-transfer-api/internal/models"
)

// AddRefreshToken сохраняет хэш нового refresh-токена.
// Уникальности на пользователя нет: у каждой сессии своя запись.
func (c *Conn) AddRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	const op = "storage.postgres.AddRefreshToken"

	query := `
        INSERT INTO refresh_tokens(user_id, token_hash, expires_at)
        VALUES ($1, $2, $3)
    `

	l, start := logQuery(ctx, op, query)

	if _, err := c.q.Exec(ctx, query, userID, tokenHash, expiresAt); err != nil {
		l.Error("db_query_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	l.Debug("db_query_done", slog.Duration("dur", time.Since(start)))
	return nil
}

// ActiveRefreshTokens возвращает неотозванные и непросроченные токены пользователя.
func (c *Conn) ActiveRefreshTokens(ctx context.Context, userID int64) ([]models.RefreshToken, error) {
	const op = "storage.postgres.ActiveRefreshTokens"

	query := `
        SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
        FROM refresh_tokens
        WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > now()
        ORDER BY created_at DESC
    `

	l, start := logQuery(ctx, op, query)

	rows, err := c.q.Query(ctx, query, userID)
	if err != nil {
		l.Error("db_query_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tokens []models.RefreshToken
	for rows.Next() {
		var t models.RefreshToken
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.TokenHash,
			&t.ExpiresAt,
			&t.RevokedAt,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		l.Error("db_query_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l.Debug("db_query_done",
		slog.Int("rows", len(tokens)),
		slog.Duration("dur", time.Since(start)),
	)
	return tokens, nil
}

// RevokeRefreshTokens отзывает все активные токены пользователя.
// Уже отозванные записи не трогает, чтобы сохранить исходное время отзыва.
func (c *Conn) RevokeRefreshTokens(ctx context.Context, userID int64) (int64, error) {
	const op = "storage.postgres.RevokeRefreshTokens"

	query := `
        UPDATE refresh_tokens
        SET revoked_at = now()
        WHERE user_id = $1 AND revoked_at IS NULL
    `

	l, start := logQuery(ctx, op, query)

	tag, err := c.q.Exec(ctx, query, userID)
	if err != nil {
		l.Error("db_query_failed", slog.String("err", err.Error()))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	l.Debug("db_query_done",
		slog.Int64("rows", tag.RowsAffected()),
		slog.Duration("dur", time.Since(start)),
	)
	return tag.RowsAffected(), nil
}
