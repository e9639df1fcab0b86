package billing

import (
	"encoding/json"
	"time"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/stripe/stripe-go/v76"
)

// NormalizedSubscription is the provider-agnostic shape used by the billing
// service when syncing external subscription state into local tables.
type NormalizedSubscription struct {
	UserID                 uint
	Provider               string
	ProviderSubscriptionID string
	ProviderPlanRef        string
	BillingInterval        string
	Status                 string
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	RawPayloadJSON         string
}

// CheckoutKind selects what a hosted checkout session sells.
type CheckoutKind string

const (
	CheckoutJobCredit    CheckoutKind = "job_credit"
	CheckoutSubscription CheckoutKind = "subscription"
)

// CheckoutSession is the part of a provider session handed to the client.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookResult describes how a delivery was handled.
type WebhookResult struct {
	EventID   string
	EventType string
	Outcome   string
	AccountID uint
}

func normalizeStripeSubscription(sub *stripe.Subscription, userID uint, raw json.RawMessage) NormalizedSubscription {
	n := NormalizedSubscription{
		UserID:                 userID,
		Provider:               models.BillingProviderStripe,
		ProviderSubscriptionID: sub.ID,
		Status:                 string(sub.Status),
		CurrentPeriodStart:     unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:       unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
		RawPayloadJSON:         string(raw),
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil || item.Price == nil {
				continue
			}
			n.ProviderPlanRef = item.Price.ID
			if item.Price.Recurring != nil {
				n.BillingInterval = string(item.Price.Recurring.Interval)
			}
			break
		}
	}
	return n
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
