// parsing — граница между сырым вводом HTTP и доменными структурами.
//
// Тело запроса декодируется в Body без схемы, чтобы сообщения об ошибках
// называли поле и фактический тип значения. Любая ошибка — ParsingError.
package parsing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apierrors "github.com/pribylovaa/playlist-transfer-api/internal/errors"
)

// maxBodyBytes — предел размера тела запроса.
const maxBodyBytes = 1 << 20

// Body — JSON-объект запроса.
type Body map[string]any

// Decode читает JSON-объект. Пустое тело — пустой Body.
func Decode(r io.Reader) (Body, error) {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.UseNumber()

	var b Body
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return Body{}, nil
		}

		return nil, &apierrors.Error{Kind: apierrors.KindParsingError, Detail: "Invalid JSON body", Err: err}
	}
	if b == nil {
		b = Body{}
	}

	return b, nil
}

// String возвращает обязательную непустую строку без пробелов по краям.
func String(v any, name string) (string, error) {
	if v == nil {
		return "", apierrors.Parsing("String field '%s' is undefined.", name)
	}

	s, err := asString(v, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", apierrors.Parsing("Got empty string for field '%s'", name)
	}

	return s, nil
}

// OptionalString возвращает строку без пробелов по краям; отсутствие поля — "".
func OptionalString(v any, name string) (string, error) {
	if v == nil {
		return "", nil
	}

	return asString(v, name)
}

// Int64 принимает JSON-число или десятичную строку (значение cookie).
func Int64(v any, name string) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, apierrors.Parsing("Number field '%s' is undefined.", name)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, apierrors.Parsing("Expected integer for field '%s' and got %s", name, x.String())
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, apierrors.Parsing("Expected integer for field '%s' and got '%s'", name, x)
		}
		return n, nil
	default:
		return 0, apierrors.Parsing("Expected number for field '%s' and got %s", name, typeName(v))
	}
}

func asString(v any, name string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", apierrors.Parsing("Expected string for field '%s' and got %s", name, typeName(v))
	}

	return strings.TrimSpace(s), nil
}

// typeName называет тип JSON-значения.
func typeName(v any) string {
	switch v.(type) {
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
