package service

import (
	"context"
	"errors"
	"log/slog"

	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/redact"
	"github.com/pribylovaa/playlist-transfer-api/internal/storage"
)

const takenDetail = "Username or email already taken!"

// RegisterUser создаёт учётную запись и возвращает её ID.
// Занятый username или email — UsersError.
func (s *Service) RegisterUser(ctx context.Context, in models.NewUser) (id int64, err error) {
	const op = "service.users.RegisterUser"

	defer func() { s.observe("register", err) }()

	lg := log.From(ctx).With(slog.String("op", op))

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	nameTaken, emailTaken, err := conn.UsernameOrEmailTaken(ctx, in.Username, in.Email)
	if err != nil {
		return 0, s.internal(ctx, op, "uniqueness_check_failed", err)
	}
	if nameTaken || emailTaken {
		lg.Warn("register_conflict",
			slog.Bool("username_taken", nameTaken),
			slog.Bool("email_taken", emailTaken),
		)
		return 0, apierrors.Users(takenDetail)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return 0, s.internal(ctx, op, "password_hash_failed", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	id, err = conn.CreateUser(ctx, user)
	if err != nil {
		// Гонка двух регистраций с одинаковыми данными.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return 0, apierrors.Users(takenDetail)
		}

		return 0, s.internal(ctx, op, "create_user_failed", err)
	}

	lg.Info("user_registered",
		slog.Int64("user_id", id),
		slog.String("email", redact.Email(in.Email)),
	)

	return id, nil
}

// GetUser возвращает публичный профиль. Поиск: email, затем username, затем ID.
func (s *Service) GetUser(ctx context.Context, id models.UserIdentifier) (*models.PublicUser, error) {
	const op = "service.users.GetUser"

	if id.Empty() {
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
			return nil, apierrors.ErrNoUserFound
		}

		return nil, s.internal(ctx, op, "user_lookup_failed", err)
	}

	pub := user.Public()
	return &pub, nil
}

// DeleteAccount отзывает все сессии пользователя и удаляет учётную запись
// в одной транзакции.
func (s *Service) DeleteAccount(ctx context.Context, userID int64) (err error) {
	const op = "service.users.DeleteAccount"

	defer func() { s.observe("delete_account", err) }()

	if userID <= 0 {
		return apierrors.Parsing("Invalid user id: %d", userID)
	}

	conn, err := s.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer conn.Release()

	err = conn.InTx(ctx, func(tx storage.Conn) error {
		if _, err := tx.RevokeRefreshTokens(ctx, userID); err != nil {
			return err
		}

		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apierrors.ErrNoUserFound
		}

		return s.internal(ctx, op, "delete_account_failed", err)
	}

	log.From(ctx).Info("account_deleted",
		slog.String("op", op),
		slog.Int64("user_id", userID),
	)

	return nil
}
