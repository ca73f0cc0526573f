package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidationFailed Kind = "validation_failed"
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindRateLimited      Kind = "rate_limited"
	KindPaymentRequired  Kind = "payment_required"
	KindEffectFailed     Kind = "effect_failed"
)

// Message returned for NotFound and Forbidden alike so callers cannot probe for existence.
const msgNotFoundOrForbidden = "not found or unauthorized"

const msgInternal = "internal server error"

type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind onto the fixed set of response codes.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	case KindForbidden, KindNotFound:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what the client is allowed to see.
func (e *Error) PublicMessage() string {
	switch e.Kind {
	case KindEffectFailed:
		if e.Message == "" {
			return msgInternal
		}
		return e.Message
	case KindNotFound, KindForbidden:
		if e.Message == "" {
			return msgNotFoundOrForbidden
		}
		return e.Message
	default:
		return e.Message
	}
}

// ValidationFailed carries the complete field -> message map.
func ValidationFailed(fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: "validation failed", Details: fields}
}

func Unauthenticated(msg string, err error) *Error {
	if msg == "" {
		msg = "missing or invalid credential"
	}
	return &Error{Kind: KindUnauthenticated, Message: msg, Err: err}
}

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "forbidden"
	}
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound is surfaced with the same message and status as Forbidden.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " " + msgNotFoundOrForbidden}
}

func RateLimited(msg string, err error) *Error {
	if msg == "" {
		msg = "too many requests"
	}
	return &Error{Kind: KindRateLimited, Message: msg, Err: err}
}

func PaymentRequired(msg string, err error) *Error {
	if msg == "" {
		msg = "payment required"
	}
	return &Error{Kind: KindPaymentRequired, Message: msg, Err: err}
}

// EffectFailed wraps a storage or provider error; the wrapped text is exposed as the message.
func EffectFailed(msg string, err error) *Error {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindEffectFailed, Message: msg, Err: err}
}

// From classifies any error. Unknown errors become EffectFailed with the generic message.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindEffectFailed, Message: msgInternal, Err: err}
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// FromUpstreamStatus maps a gateway HTTP status to the taxonomy, or nil when it is not special.
func FromUpstreamStatus(status int, body string) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return RateLimited("payment gateway rate limit exceeded", fmt.Errorf("upstream %d: %s", status, body))
	case http.StatusPaymentRequired:
		return PaymentRequired("payment gateway credit exhausted", fmt.Errorf("upstream %d: %s", status, body))
	}
	return nil
}
