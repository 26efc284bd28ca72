package models

import "time"

// AccessClaims — утверждения, подписанные в access-токене.
type AccessClaims struct {
	Subject   int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessToken — выпущенный access-токен.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// LoginResult — результат успешного входа.
//
// RefreshToken — сырой секрет; возвращается клиенту ровно один раз,
// в хранилище попадает только его хэш.
type LoginResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	UserID           int64
}
