// memory — потокобезопасная реализация storage.Storage в памяти процесса.
// Используется в тестах сервиса и HTTP-слоя и для локального запуска без БД.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage"
)

type Storage struct {
	mu     sync.RWMutex
	now    func() time.Time
	users  map[int64]models.User
	tokens []models.RefreshToken
	userID int64
	tokID  int64
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		now:   time.Now,
		users: make(map[int64]models.User),
	}
}

// SetClock подменяет источник времени (для проверки истечения токенов).
func (s *Storage) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Acquire возвращает "соединение" поверх общего состояния.
func (s *Storage) Acquire(ctx context.Context) (storage.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("storage.memory.Acquire: %w", err)
	}

	return &Conn{s: s}, nil
}

// Ping всегда успешен.
func (s *Storage) Ping(context.Context) error { return nil }

// Close ничего не освобождает.
func (s *Storage) Close() {}

// Tokens возвращает копию всех записей о сессиях, включая отозванные.
func (s *Storage) Tokens() []models.RefreshToken {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.RefreshToken, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Conn — представление хранилища на время операции.
type Conn struct {
	s *Storage
}

// Release — no-op.
func (c *Conn) Release() {}

// InTx выполняет fn над тем же состоянием; отката нет.
func (c *Conn) InTx(_ context.Context, fn func(tx storage.Conn) error) error {
	return fn(c)
}

func (c *Conn) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	const op = "storage.memory.CreateUser"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for _, u := range c.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
	}

	c.s.userID++
	user.ID = c.s.userID
	user.CreatedAt = c.s.now().UTC()
	c.s.users[user.ID] = *user

	return user.ID, nil
}

func (c *Conn) User(ctx context.Context, id models.UserIdentifier) (*models.User, error) {
	const op = "storage.memory.User"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	match := func(u models.User) bool {
		switch {
		case id.Email != "":
			return u.Email == id.Email
		case id.Username != "":
			return u.Username == id.Username
		case id.UserID > 0:
			return u.ID == id.UserID
		}
		return false
	}

	for _, u := range c.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

func (c *Conn) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, fmt.Errorf("storage.memory.UsernameOrEmailTaken: %w", err)
	}

	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var nameTaken, emailTaken bool
	for _, u := range c.s.users {
		nameTaken = nameTaken || u.Username == username
		emailTaken = emailTaken || u.Email == email
	}

	return nameTaken, emailTaken, nil
}

// DeleteUser удаляет пользователя вместе с его сессиями.
func (c *Conn) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.memory.DeleteUser"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.users[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	delete(c.s.users, id)

	kept := c.s.tokens[:0]
	for _, t := range c.s.tokens {
		if t.UserID != id {
			kept = append(kept, t)
		}
	}
	c.s.tokens = kept

	return nil
}

func (c *Conn) AddRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("storage.memory.AddRefreshToken: %w", err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	c.s.tokID++
	c.s.tokens = append(c.s.tokens, models.RefreshToken{
		ID:        c.s.tokID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: c.s.now().UTC(),
	})

	return nil
}

func (c *Conn) ActiveRefreshTokens(ctx context.Context, userID int64) ([]models.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("storage.memory.ActiveRefreshTokens: %w", err)
	}

	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	now := c.s.now()
	var out []models.RefreshToken
	for i := len(c.s.tokens) - 1; i >= 0; i-- {
		t := c.s.tokens[i]
		if t.UserID == userID && t.Active(now) {
			out = append(out, t)
		}
	}

	return out, nil
}

func (c *Conn) RevokeRefreshTokens(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("storage.memory.RevokeRefreshTokens: %w", err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	now := c.s.now().UTC()
	var n int64
	for i := range c.s.tokens {
		t := &c.s.tokens[i]
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	}

	return n, nil
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Conn    = (*Conn)(nil)
)
