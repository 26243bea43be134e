package apperror

import (
	"errors"
	"net/http"
)

// Kind identifies the class of failure independently of the transport status code.
type Kind string

const (
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindForbidden              Kind = "FORBIDDEN"
	KindInvalidInput           Kind = "INVALID_INPUT"
	KindNotFound               Kind = "NOT_FOUND"
	KindUnsupportedMediaType   Kind = "UNSUPPORTED_MEDIA_TYPE"
	KindPayloadTooLarge        Kind = "PAYLOAD_TOO_LARGE"
	KindTokenInvalid           Kind = "TOKEN_INVALID"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindUpstreamUnavailable    Kind = "UPSTREAM_UNAVAILABLE"
	KindRateLimited            Kind = "RATE_LIMITED"
	KindInternal               Kind = "INTERNAL"
)

type AppError struct {
	Code    int               `json:"code"`
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, kind Kind, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, KindForbidden, message, nil)
}

// InvalidInput carries per-field detail so the caller can correct the request.
func InvalidInput(message string, fields map[string]string) *AppError {
	e := New(http.StatusBadRequest, KindInvalidInput, message, nil)
	e.Fields = fields
	return e
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

func UnsupportedMediaType(message string) *AppError {
	return New(http.StatusUnsupportedMediaType, KindUnsupportedMediaType, message, nil)
}

func PayloadTooLarge(message string) *AppError {
	return New(http.StatusRequestEntityTooLarge, KindPayloadTooLarge, message, nil)
}

func TokenInvalid(message string) *AppError {
	return New(http.StatusNotFound, KindTokenInvalid, message, nil)
}

func InvalidStateTransition(message string) *AppError {
	return New(http.StatusConflict, KindInvalidStateTransition, message, nil)
}

func UpstreamUnavailable(message string, err error) *AppError {
	return New(http.StatusServiceUnavailable, KindUpstreamUnavailable, message, err)
}

func RateLimited(message string) *AppError {
	return New(http.StatusTooManyRequests, KindRateLimited, message, nil)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, KindInternal, "Internal Server Error", err)
}

// KindOf reports the Kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
