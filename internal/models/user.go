package models

import "time"

// User — учётная запись пользователя. ID неизменяем после создания.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Public возвращает профиль без хэша пароля.
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// PublicUser — данные пользователя, которые можно отдавать клиенту.
type PublicUser struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUser — входные данные регистрации.
type NewUser struct {
	Username string
	Email    string
	Password string
}

// UserIdentifier — ключ поиска пользователя.
// Приоритет: Email, затем Username, затем UserID.
type UserIdentifier struct {
	UserID   int64
	Username string
	Email    string
}

// Empty сообщает, что ни один из ключей не задан.
func (id UserIdentifier) Empty() bool {
	return id.UserID <= 0 && id.Username == "" && id.Email == ""
}
