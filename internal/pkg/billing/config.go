package billing

import (
	"strings"
	"time"

	"github.com/ManuelReschke/JobFox/internal/pkg/env"
)

const defaultSubscriptionCacheTTL = 60 * time.Second

// Config holds the billing provider settings.
type Config struct {
	SecretKey               string
	WebhookSecret           string
	JobPostingPriceID       string
	UnlimitedPostingPriceID string
	SuccessURL              string
	CancelURL               string
	SubscriptionCacheTTL    time.Duration
}

// ConfigFromEnv reads STRIPE_* and SUBSCRIPTION_CACHE_TTL_SECONDS.
func ConfigFromEnv() Config {
	ttl := time.Duration(env.GetEnvInt("SUBSCRIPTION_CACHE_TTL_SECONDS", int(defaultSubscriptionCacheTTL/time.Second))) * time.Second
	if ttl <= 0 {
		ttl = defaultSubscriptionCacheTTL
	}
	return Config{
		SecretKey:               strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		WebhookSecret:           strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		JobPostingPriceID:       strings.TrimSpace(env.GetEnv("STRIPE_JOB_POSTING_PRICE_ID", "")),
		UnlimitedPostingPriceID: strings.TrimSpace(env.GetEnv("STRIPE_UNLIMITED_POSTING_PRICE_ID", "")),
		SuccessURL:              strings.TrimSpace(env.GetEnv("STRIPE_SUCCESS_URL", "http://localhost:8080/billing/success?session_id={CHECKOUT_SESSION_ID}")),
		CancelURL:               strings.TrimSpace(env.GetEnv("STRIPE_CANCEL_URL", "http://localhost:8080/billing/cancel")),
		SubscriptionCacheTTL:    ttl,
	}
}

// Missing lists the settings required for checkout and webhooks that are empty.
func (c Config) Missing() []string {
	var missing []string
	if c.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.JobPostingPriceID == "" {
		missing = append(missing, "STRIPE_JOB_POSTING_PRICE_ID")
	}
	if c.UnlimitedPostingPriceID == "" {
		missing = append(missing, "STRIPE_UNLIMITED_POSTING_PRICE_ID")
	}
	return missing
}
