// hasher реализует необратимое хэширование паролей и refresh-секретов (Argon2id).
//
// Формат хэша — PHC-строка, совместимая с node-argon2:
//
//	$argon2id$v=19$m=<KiB>,t=<iter>,p=<par>$<salt b64>$<key b64>
//
// Параметры кодируются в самой строке, поэтому Verify проверяет хэши,
// выпущенные с другими (меньшими) настройками.
package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Version = argon2.Version

// ErrInvalidHash — хэш повреждён или имеет неподдерживаемые параметры.
var ErrInvalidHash = errors.New("invalid argon2id hash")

// Params — параметры Argon2id.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams — значения по умолчанию node-argon2 (m=64MiB, t=3, p=4).
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher хэширует и проверяет секреты. Безопасен для конкурентного использования.
type Hasher struct {
	params Params
}

// New создаёт Hasher; нулевые поля params заменяются значениями по умолчанию.
func New(params Params) *Hasher {
	def := DefaultParams()
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Iterations == 0 {
		params.Iterations = def.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = def.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = def.KeyLength
	}

	return &Hasher{params: params}
}

// Params возвращает действующие параметры.
func (h *Hasher) Params() Params { return h.params }

// Hash хэширует секрет со свежей случайной солью.
func (h *Hasher) Hash(secret string) (string, error) {
	const op = "hasher.Hash"

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		h.params.Iterations,
		h.params.MemoryKiB,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify сравнивает секрет с хэшем за постоянное время.
// (true, nil) — совпадение; (false, nil) — несовпадение;
// (false, ErrInvalidHash) — хэш повреждён или требует чрезмерных ресурсов.
func (h *Hasher) Verify(encoded, secret string) (bool, error) {
	const op = "hasher.Verify"

	params, salt, expected, err := decode(encoded)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !withinBounds(params, h.params) {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidHash)
	}

	key := argon2.IDKey(
		[]byte(secret),
		salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		uint32(len(expected)),
	)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// withinBounds отвергает хэши с параметрами сильно выше настроенных:
// строка хэша приходит из хранилища и не должна управлять расходом памяти.
func withinBounds(got, limits Params) bool {
	switch {
	case got.MemoryKiB > limits.MemoryKiB*2:
		return false
	case got.Iterations > limits.Iterations*2:
		return false
	case uint32(got.Parallelism) > uint32(limits.Parallelism)*2:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}

	return true
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}

	return Params{
		MemoryKiB:   mem,
		Iterations:  iter,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}, salt, key, nil
}
