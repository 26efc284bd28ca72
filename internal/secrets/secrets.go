// secrets разрешает секреты сервиса (ключ подписи JWT, строка подключения к БД).
//
// Источник секрета — либо значение из конфигурации (Static), либо
// AWS Systems Manager Parameter Store (SSM) с кэшированием на TTL.
package secrets

import (
	"context"
	"errors"
)

// ErrEmptySecret — источник вернул пустое значение.
var ErrEmptySecret = errors.New("empty secret")

// Resolver отдаёт ключ подписи access-токенов.
type Resolver interface {
	SigningSecret(ctx context.Context) ([]byte, error)
}

// Static — секрет, заданный в конфигурации.
type Static string

// SigningSecret возвращает значение как есть.
func (s Static) SigningSecret(context.Context) ([]byte, error) {
	if s == "" {
		return nil, ErrEmptySecret
	}

	return []byte(s), nil
}
