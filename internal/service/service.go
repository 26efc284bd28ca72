// service содержит бизнес-логику сессий: вход, обновление access-токена,
// выход, регистрацию и удаление учётной записи.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для конкурентного
//     использования при потокобезопасном storage.Storage.
//   - Соединение с БД берётся на время одной операции и возвращается через defer.
//   - Наружу уходят только ошибки таксономии (internal/errors); причины сбоев
//     хранилища остаются внутри InternalError и попадают лишь в лог.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/playlist-transfer-api/internal/config"
	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/metrics"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage"
)

// PasswordHasher хэширует пароли и refresh-секреты.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(hash, secret string) (bool, error)
}

// TokenIssuer выпускает access-токены.
type TokenIssuer interface {
	Issue(ctx context.Context, user *models.User) (string, time.Time, error)
}

// Service описывает бизнес-логику сессий.
type Service struct {
	storage storage.Storage
	hasher  PasswordHasher
	issuer  TokenIssuer
	cfg     config.AuthConfig
	metrics *metrics.Metrics
	now     func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, hasher PasswordHasher, issuer TokenIssuer, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		hasher:  hasher,
		issuer:  issuer,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetMetrics подключает метрики (опционально).
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// acquire берёт соединение; сбой пула — InternalError.
func (s *Service) acquire(ctx context.Context, op string) (storage.Conn, error) {
	conn, err := s.storage.Acquire(ctx)
	if err != nil {
		return nil, s.internal(ctx, op, "db_acquire_failed", err)
	}

	return conn, nil
}

// internal логирует причину и заворачивает её в InternalError.
func (s *Service) internal(ctx context.Context, op, event string, err error) error {
	log.From(ctx).Error(event,
		slog.String("op", op),
		slog.String("err", err.Error()),
	)

	return apierrors.Internal(err)
}

// hash считает хэш и учитывает его длительность.
func (s *Service) hash(secret string) (string, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveHash("hash", time.Since(start)) }()

	return s.hasher.Hash(secret)
}

// verify сравнивает секрет с хэшем и учитывает длительность.
func (s *Service) verify(hash, secret string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveHash("verify", time.Since(start)) }()

	return s.hasher.Verify(hash, secret)
}

// observe учитывает исход операции по ключу таксономии.
func (s *Service) observe(operation string, err error) {
	if err == nil {
		s.metrics.Observe(operation, metrics.ResultOK)
		return
	}

	s.metrics.Observe(operation, apierrors.As(err).Kind.Key())
}
