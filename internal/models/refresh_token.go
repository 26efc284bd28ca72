package models

import "time"

// RefreshToken — запись о сессии. На сервере хранится только хэш секрета.
//
// Запись активна, пока RevokedAt == nil и ExpiresAt в будущем.
// Записи не удаляются: отзыв лишь проставляет RevokedAt.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active сообщает, пригодна ли запись для обновления access-токена на момент now.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
