package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Application error codes. Each code maps onto exactly one HTTP status in ReturnError.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized"
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict"
	ETOOMANY      = "too_many_requests"
	EINTERNAL     = "internal"
)

const (
	// IdInvalid is returned when an identifier in the url or body is not a valid uuid.
	IdInvalid modelError = "models: ID provided was invalid"
	// UserIdValid is returned when a record is about to be written without its owning user.
	UserIdValid modelError = "models: user ID is required"
	// ContentTooShort is returned when a tweet or comment has no content.
	ContentTooShort modelError = "models: content must not be empty"
	// ContentTooLong is returned when a tweet exceeds the maximum content length.
	ContentTooLong modelError = "models: content must not have more than 280 characters"
	// TokenInvalid is returned when an access or refresh token cannot be verified.
	TokenInvalid modelError = "models: token provided is not valid"
	// NotOwner is returned by the ownership guard.
	NotOwner modelError = "models: you are not the owner of this resource"
)

// Error represents an application-specific error. The Message is always
// safe to show to the client.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("videotube error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var m modelError
	if errors.As(err, &m) {
		return m.code()
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var m modelError
	if errors.As(err, &m) {
		return m.Public()
	}
	return "Internal error."
}

// modelError is a predefined validation error of the models layer.
type modelError string

func (e modelError) Error() string {
	return string(e)
}

// Public turns "models: content must not be empty" into "Content must not be empty."
func (e modelError) Public() string {
	s := strings.Replace(string(e), "models: ", "", 1)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func (e modelError) code() string {
	switch e {
	case TokenInvalid:
		return EUNAUTHORIZED
	case NotOwner:
		return EFORBIDDEN
	default:
		return EINVALID
	}
}
