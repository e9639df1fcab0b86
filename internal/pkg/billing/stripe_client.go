package billing

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// CheckoutAPI is the outbound part of the billing provider used here.
type CheckoutAPI interface {
	NewCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeAPI struct {
	sc *client.API
}

// NewStripeAPI returns a CheckoutAPI backed by the Stripe client for secretKey.
func NewStripeAPI(secretKey string) CheckoutAPI {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &stripeAPI{sc: sc}
}

func (a *stripeAPI) NewCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return a.sc.Customers.New(params)
}

func (a *stripeAPI) NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return a.sc.CheckoutSessions.New(params)
}
