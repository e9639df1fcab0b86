package billing

import "errors"

var (
	ErrSignatureInvalid     = errors.New("billing: webhook signature invalid")
	ErrPayloadMalformed     = errors.New("billing: webhook payload malformed")
	ErrWebhookNotConfigured = errors.New("billing: webhook secret not configured")
	ErrPriceNotConfigured   = errors.New("billing: price not configured")
	ErrUnknownCustomer      = errors.New("billing: unknown customer")
)
