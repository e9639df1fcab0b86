package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// VerifyStripeEvent checks the Stripe-Signature header against payload and
// decodes the event envelope. Signature problems wrap ErrSignatureInvalid,
// anything else wrong with the body wraps ErrPayloadMalformed.
func VerifyStripeEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	if strings.TrimSpace(secret) == "" {
		return stripe.Event{}, ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return stripe.Event{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		default:
			return stripe.Event{}, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
		}
	}

	if strings.TrimSpace(event.ID) == "" || event.Type == "" {
		return stripe.Event{}, fmt.Errorf("%w: missing event id or type", ErrPayloadMalformed)
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return stripe.Event{}, fmt.Errorf("%w: missing data.object", ErrPayloadMalformed)
	}
	return event, nil
}
