// errors описывает закрытую таксономию ошибок сервиса и её HTTP-представление.
//
// Каждая ошибка, которую видит клиент, — это *Error с одним из заранее известных Kind.
// Kind однозначно определяет числовой код, стабильный ключ, HTTP-статус и
// безопасное сообщение. Причина (Err) используется только для логов и никогда
// не сериализуется.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind — вид ошибки из закрытого набора.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindMissingAuthHeader
	KindInvalidAuthHeader
	KindUsersError
	KindParsingError
	KindIncorrectPassword
	KindInvalidRefreshToken
	KindNoUserFound
	KindMissingCookies
)

// Code — стабильный числовой код для клиента.
func (k Kind) Code() int {
	switch k {
	case KindUnauthorized:
		return 1000
	case KindMissingAuthHeader:
		return 1001
	case KindInvalidAuthHeader:
		return 1002
	case KindUsersError:
		return 2000
	case KindParsingError:
		return 2001
	case KindIncorrectPassword:
		return 2003
	case KindInvalidRefreshToken:
		return 2004
	case KindNoUserFound:
		return 2005
	case KindMissingCookies:
		return 2006
	default:
		return 5000
	}
}

// Key — стабильный строковый ключ для клиента.
func (k Kind) Key() string {
	switch k {
	case KindUnauthorized:
		return "Unauthorized"
	case KindMissingAuthHeader:
		return "MissingAuthHeader"
	case KindInvalidAuthHeader:
		return "InvalidAuthHeader"
	case KindUsersError:
		return "UsersError"
	case KindParsingError:
		return "ParseError"
	case KindIncorrectPassword:
		return "IncorrectPassword"
	case KindInvalidRefreshToken:
		return "InvalidRefreshToken"
	case KindNoUserFound:
		return "NoUserFound"
	case KindMissingCookies:
		return "MissingCookies"
	default:
		return "InternalError"
	}
}

// Status — HTTP-статус ответа.
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized,
		KindMissingAuthHeader,
		KindInvalidAuthHeader,
		KindIncorrectPassword,
		KindInvalidRefreshToken,
		KindMissingCookies:
		return http.StatusUnauthorized
	case KindUsersError, KindParsingError, KindNoUserFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string { return k.Key() }

// message — базовое безопасное сообщение вида.
func (k Kind) message() string {
	switch k {
	case KindUnauthorized:
		return "User unauthorized for action."
	case KindMissingAuthHeader:
		return "Authorization header is missing."
	case KindInvalidAuthHeader:
		return `Authorization header is missing. (Should be "Bearer <token>")`
	case KindUsersError:
		return "Something went wrong with users"
	case KindParsingError:
		return "Something went wrong when parsing"
	case KindIncorrectPassword:
		return "Incorrect password for account."
	case KindInvalidRefreshToken:
		return "Invalid refresh token."
	case KindNoUserFound:
		return "No user found with specified details"
	case KindMissingCookies:
		return "Missing cookies from refresh request"
	default:
		return "Internal server error"
	}
}

// Error — ошибка таксономии.
type Error struct {
	Kind   Kind
	Detail string // безопасная деталь для клиента (UsersError/ParsingError/MissingCookies)
	Err    error  // причина, только для логов
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}

	return msg
}

// Message — сообщение, которое уходит клиенту.
// Деталь дописывается к базовому сообщению вида через ": ".
func (e *Error) Message() string {
	if e.Detail == "" {
		return e.Kind.message()
	}

	return e.Kind.message() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибки таксономии по Kind, чтобы errors.Is(err, ErrIncorrectPassword)
// работал для любых Detail/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// Сентинелы для errors.Is.
var (
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrMissingAuthHeader   = &Error{Kind: KindMissingAuthHeader}
	ErrInvalidAuthHeader   = &Error{Kind: KindInvalidAuthHeader}
	ErrUsersError          = &Error{Kind: KindUsersError}
	ErrParsingError        = &Error{Kind: KindParsingError}
	ErrIncorrectPassword   = &Error{Kind: KindIncorrectPassword}
	ErrInvalidRefreshToken = &Error{Kind: KindInvalidRefreshToken}
	ErrNoUserFound         = &Error{Kind: KindNoUserFound}
	ErrMissingCookies      = &Error{Kind: KindMissingCookies}
	ErrInternal            = &Error{Kind: KindInternal}
)

// New создаёт ошибку вида k с безопасной деталью.
func New(k Kind, detail string) *Error {
	return &Error{Kind: k, Detail: detail}
}

// Wrap создаёт ошибку вида k с причиной для логов.
func Wrap(k Kind, cause error) *Error {
	return &Error{Kind: k, Err: cause}
}

// Users — UsersError с деталью.
func Users(detail string) *Error { return New(KindUsersError, detail) }

// Parsing — ParsingError с деталью.
func Parsing(format string, args ...any) *Error {
	return New(KindParsingError, fmt.Sprintf(format, args...))
}

// MissingCookies — MissingCookies с перечнем недостающих cookie.
func MissingCookies(names ...string) *Error {
	return New(KindMissingCookies, strings.Join(names, ", "))
}

// Internal — InternalError с причиной.
func Internal(cause error) *Error { return Wrap(KindInternal, cause) }

// As достаёт *Error из цепочки; ошибки вне таксономии становятся InternalError.
func As(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	return Internal(err)
}

// APIError — формат тела ответа для фронта.
type APIError struct {
	Code      int    `json:"errorCode"`
	Key       string `json:"errorKey"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/InternalError, чтобы не отдать 200 с телом ошибки;
//   - err вне таксономии — 500/InternalError без утечки деталей;
//   - *Error где-либо в цепочке — статус/код/ключ по его Kind.
func ToHTTP(err error) (int, APIError) {
	if err == nil {
		err = ErrInternal
	}

	e := As(err)
	return e.Kind.Status(), APIError{
		Code:    e.Kind.Code(),
		Key:     e.Kind.Key(),
		Message: e.Message(),
	}
}

// WriteError пишет статус и JSON-тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
