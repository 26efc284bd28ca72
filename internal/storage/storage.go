package storage

//go:generate mockgen -destination=../../mocks/storage.go -package=mocks github.com/pribylovaa/playlist-transfer-api/internal/storage Storage,Conn

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/playlist-transfer-api/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username/email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// CreateUser сохраняет пользователя и возвращает присвоенный ID.
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	// User находит пользователя по email, затем по username, затем по ID.
	User(ctx context.Context, id models.UserIdentifier) (*models.User, error)
	// UsernameOrEmailTaken сообщает, заняты ли username и email.
	UsernameOrEmailTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	// DeleteUser удаляет пользователя.
	DeleteUser(ctx context.Context, id int64) error
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// AddRefreshToken сохраняет хэш нового refresh-токена.
	AddRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// ActiveRefreshTokens возвращает неотозванные и непросроченные токены пользователя.
	ActiveRefreshTokens(ctx context.Context, userID int64) ([]models.RefreshToken, error)
	// RevokeRefreshTokens отзывает все активные токены пользователя и возвращает их число.
	RevokeRefreshTokens(ctx context.Context, userID int64) (int64, error)
}

// Conn — соединение, взятое из пула на время одной операции.
// Вызывающий обязан вызвать Release на любом пути выхода.
type Conn interface {
	UserStorage
	RefreshTokenStorage
	// InTx выполняет fn в транзакции; ошибка fn откатывает транзакцию.
	InTx(ctx context.Context, fn func(tx Conn) error) error
	// Release возвращает соединение в пул.
	Release()
}

// Storage задает контракт работы с БД.
type Storage interface {
	// Acquire берёт соединение из пула.
	Acquire(ctx context.Context) (Conn, error)
	// Ping проверяет доступность БД.
	Ping(ctx context.Context) error
	Close()
}
