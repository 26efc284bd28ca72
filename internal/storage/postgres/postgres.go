// postgres реализует storage.Storage поверх пула pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage"
)

type Storage struct {
	db *pgxpool.Pool
}

// New создает новое подключение к PostgreSQL.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// Acquire берёт соединение из пула.
func (s *Storage) Acquire(ctx context.Context) (storage.Conn, error) {
	const op = "storage.postgres.Acquire"

	c, err := s.db.Acquire(ctx)
	if err != nil {
		log.From(ctx).Error("db_acquire_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Conn{q: c, release: c.Release}, nil
}

// Ping проверяет доступность БД.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.postgres.Ping"

	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.db.Close()
}

// querier — общее подмножество *pgxpool.Conn и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Conn — соединение из пула либо открытая транзакция.
type Conn struct {
	q       querier
	release func()
}

// Release возвращает соединение в пул. Для транзакции — no-op.
func (c *Conn) Release() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

// InTx выполняет fn в транзакции: commit при nil, rollback при ошибке или панике.
func (c *Conn) InTx(ctx context.Context, fn func(tx storage.Conn) error) (err error) {
	const op = "storage.postgres.InTx"

	tx, err := c.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.From(ctx).Error("tx_rollback_failed",
					slog.String("op", op),
					slog.String("err", rbErr.Error()),
				)
			}
			return
		}
		if cErr := tx.Commit(ctx); cErr != nil {
			err = fmt.Errorf("%s: %w", op, cErr)
		}
	}()

	return fn(&Conn{q: tx})
}

// logQuery пишет запрос в debug-лог с идентификатором, по которому
// можно связать начало и результат.
func logQuery(ctx context.Context, op, query string) (*slog.Logger, time.Time) {
	l := log.From(ctx).With(
		slog.String("op", op),
		slog.String("query_id", uuid.NewString()),
	)
	l.Debug("db_query", slog.String("query", strings.Join(strings.Fields(query), " ")))

	return l, time.Now()
}

// Проверка на соответствие интерфейсам storage.
var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Conn    = (*Conn)(nil)
)
