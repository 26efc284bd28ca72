package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage"
)

// CreateUser создает нового пользователя в БД.
func (c *Conn) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	const op = "storage.postgres.CreateUser"

	query := `
        INSERT INTO users(username, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	l, start := logQuery(ctx, op, query)

	err := c.q.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		l.Error("db_query_failed", slog.String("err", err.Error()))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	l.Debug("db_query_done", slog.Duration("dur", time.Since(start)))
	return user.ID, nil
}

// User находит пользователя. Ключ выбирается по приоритету: email, username, id.
func (c *Conn) User(ctx context.Context, id models.UserIdentifier) (*models.User, error) {
	const op = "storage.postgres.User"

	var (
		where string
		arg   any
	)

	switch {
	case id.Email != "":
		where, arg = "email = $1", id.Email
	case id.Username != "":
		where, arg = "username = $1", id.Username
	case id.UserID > 0:
		where, arg = "id = $1", id.UserID
	default:
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	query := `
        SELECT id, username, email, password_hash, created_at
        FROM users
        WHERE ` + where

	l, start := logQuery(ctx, op, query)

	var u models.User
	err := c.q.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		l.Error("db_query_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l.Debug("db_query_done", slog.Duration("dur", time.Since(start)))
	return &u, nil
}

// UsernameOrEmailTaken проверяет занятость username и email одним запросом.
func (c *Conn) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, bool, error) {
	const op = "storage.postgres.UsernameOrEmailTaken"

	query := `
        SELECT
            EXISTS(SELECT 1 FROM users WHERE username = $1),
            EXISTS(SELECT 1 FROM users WHERE email = $2)
    `

	l, start := logQuery(ctx, op, query)

	var usernameTaken, emailTaken bool
	if err := c.q.QueryRow(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		l.Error("db_query_failed", slog.String("err", err.Error()))
		return false, false, fmt.Errorf("%s: %w", op, err)
	}

	l.Debug("db_query_done", slog.Duration("dur", time.Since(start)))
	return usernameTaken, emailTaken, nil
}

// DeleteUser удаляет пользователя. Его refresh-токены удаляются каскадно.
func (c *Conn) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteUser"

	query := `
        DELETE FROM users
        WHERE id = $1
    `

	l, start := logQuery(ctx, op, query)

	tag, err := c.q.Exec(ctx, query, id)
	if err != nil {
		l.Error("db_query_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	l.Debug("db_query_done", slog.Duration("dur", time.Since(start)))
	return nil
}
