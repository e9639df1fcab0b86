// Package apperror defines the error taxonomy surfaced by the JSON API.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an Error. The string value is what clients see in the
// "error" field of a response body.
type Kind string

const (
	KindAuthenticationRequired  Kind = "authentication_required"
	KindAuthorizationDenied     Kind = "authorization_denied"
	KindValidationFailed        Kind = "validation_failed"
	KindWebhookSignatureInvalid Kind = "webhook_signature_invalid"
	KindWebhookPayloadMalformed Kind = "webhook_payload_malformed"
	KindUpstreamBillingError    Kind = "upstream_billing_error"
	KindNotFound                Kind = "not_found"
	KindConflict                Kind = "conflict"
	KindInternal                Kind = "internal_error"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error without a cause.
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Wrap creates an Error carrying err as its cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a ValidationFailed error with per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: "validation failed", Fields: fields}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// Status maps err to an HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindAuthenticationRequired:
		return http.StatusUnauthorized
	case KindAuthorizationDenied:
		return http.StatusForbidden
	case KindValidationFailed, KindWebhookSignatureInvalid, KindWebhookPayloadMalformed:
		return http.StatusBadRequest
	case KindUpstreamBillingError:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON representation of an error response.
type Body struct {
	Error   string            `json:"error"`
	Reason  string            `json:"reason,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ToBody renders err for a response. Internal details of unclassified errors
// are not exposed.
func ToBody(err error) Body {
	e, ok := As(err)
	if !ok {
		return Body{Error: string(KindInternal), Message: "internal server error"}
	}
	return Body{Error: string(e.Kind), Reason: e.Reason, Message: e.Message, Fields: e.Fields}
}
