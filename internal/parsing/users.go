package parsing

import (
	"net/url"

	"github.com/pribylovaa/playlist-transfer-api/internal/models"
)

// Register — тело POST /v1/users/register.
func Register(b Body) (models.NewUser, error) {
	var (
		out models.NewUser
		err error
	)

	if out.Username, err = String(b["username"], "username"); err != nil {
		return models.NewUser{}, err
	}
	if out.Email, err = String(b["email"], "email"); err != nil {
		return models.NewUser{}, err
	}
	if out.Password, err = String(b["password"], "password"); err != nil {
		return models.NewUser{}, err
	}

	return out, nil
}

// Login — тело POST /v1/users/login: пароль и email и/или username.
func Login(b Body) (string, models.UserIdentifier, error) {
	var id models.UserIdentifier

	password, err := String(b["password"], "password")
	if err != nil {
		return "", id, err
	}
	if id.Username, err = OptionalString(b["username"], "username"); err != nil {
		return "", id, err
	}
	if id.Email, err = OptionalString(b["email"], "email"); err != nil {
		return "", id, err
	}

	return password, id, nil
}

// Refresh — пара userId/refreshToken из cookie или тела.
func Refresh(b Body) (int64, string, error) {
	userID, err := Int64(b["userId"], "userId")
	if err != nil {
		return 0, "", err
	}

	raw, err := String(b["refreshToken"], "refreshToken")
	if err != nil {
		return 0, "", err
	}

	return userID, raw, nil
}

// Lookup — query-параметры GET /v1/users/user.
func Lookup(q url.Values) (models.UserIdentifier, error) {
	var (
		id  models.UserIdentifier
		err error
	)

	if id.Username, err = OptionalString(optional(q, "username"), "username"); err != nil {
		return id, err
	}
	if id.Email, err = OptionalString(optional(q, "email"), "email"); err != nil {
		return id, err
	}

	return id, nil
}

func optional(q url.Values, key string) any {
	if !q.Has(key) {
		return nil
	}

	return q.Get(key)
}
