package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/credits"
	"github.com/ManuelReschke/JobFox/internal/pkg/metrics"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebhookProcessor handles Stripe webhook deliveries. Each event id is
// recorded in the same transaction as its effects, so a replayed delivery
// is acknowledged without being applied twice.
type WebhookProcessor struct {
	db      *gorm.DB
	repo    Repository
	ledger  *credits.Ledger
	service *Service
	secret  string
	log     *zap.Logger
	metrics metrics.Recorder
}

// NewWebhookProcessor wires a processor. rec may be nil.
func NewWebhookProcessor(db *gorm.DB, service *Service, ledger *credits.Ledger, log *zap.Logger, rec metrics.Recorder) *WebhookProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &WebhookProcessor{
		db:      db,
		repo:    service.repo,
		ledger:  ledger,
		service: service,
		secret:  service.cfg.WebhookSecret,
		log:     log.Named("billing.webhook"),
		metrics: rec,
	}
}

// decodedEvent is a verified event with its object parsed for the types
// that are acted upon.
type decodedEvent struct {
	event        stripe.Event
	session      *stripe.CheckoutSession
	subscription *stripe.Subscription
}

// Process verifies and applies one delivery. Signature and payload problems
// are returned as *apperror.Error with a 4xx kind and leave no trace in the
// database. Any other error means nothing was committed and the provider
// should retry.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, sigHeader string) (WebhookResult, error) {
	started := time.Now()
	defer func() { p.metrics.RecordWebhookLatency(time.Since(started)) }()

	ev, err := p.decode(payload, sigHeader)
	if err != nil {
		if errors.Is(err, ErrWebhookNotConfigured) {
			p.metrics.RecordWebhookEvent(metrics.WebhookFailed)
			p.log.Error("webhook secret not configured")
			return WebhookResult{}, err
		}
		p.metrics.RecordWebhookEvent(metrics.WebhookRejected)
		p.log.Warn("webhook rejected", zap.Error(err))
		return WebhookResult{}, err
	}

	res := WebhookResult{EventID: ev.event.ID, EventType: string(ev.event.Type)}
	log := p.log.With(zap.String("event_id", res.EventID), zap.String("event_type", res.EventType))

	var invalidateUserID uint
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := p.repo.WithTx(tx)
		created, err := repo.RecordProcessedEvent(ctx, &models.ProcessedWebhookEvent{
			Provider:  models.BillingProviderStripe,
			EventID:   ev.event.ID,
			EventType: string(ev.event.Type),
		})
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		if !created {
			res.Outcome = metrics.WebhookDuplicate
			return nil
		}

		switch {
		case ev.session != nil:
			return p.applyCheckoutCompleted(ctx, tx, repo, ev.session, &res)
		case ev.subscription != nil:
			if err := p.applySubscription(ctx, repo, ev, &res); err != nil {
				return err
			}
			invalidateUserID = res.AccountID
			return nil
		default:
			res.Outcome = metrics.WebhookIgnored
			return nil
		}
	})
	if err != nil {
		p.metrics.RecordWebhookEvent(metrics.WebhookFailed)
		log.Error("webhook processing failed", zap.Error(err))
		return res, err
	}

	if invalidateUserID != 0 {
		p.service.InvalidateSubscription(ctx, invalidateUserID)
	}

	p.metrics.RecordWebhookEvent(res.Outcome)
	log.Info("webhook handled", zap.String("outcome", res.Outcome), zap.Uint("account_id", res.AccountID))
	return res, nil
}

func (p *WebhookProcessor) decode(payload []byte, sigHeader string) (*decodedEvent, error) {
	event, err := VerifyStripeEvent(payload, sigHeader, p.secret)
	if err != nil {
		switch {
		case errors.Is(err, ErrSignatureInvalid):
			return nil, &apperror.Error{Kind: apperror.KindWebhookSignatureInvalid, Message: "invalid signature", Err: err}
		case errors.Is(err, ErrPayloadMalformed):
			return nil, &apperror.Error{Kind: apperror.KindWebhookPayloadMalformed, Message: "invalid payload", Err: err}
		default:
			return nil, err
		}
	}

	ev := &decodedEvent{event: event}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, malformed(err)
		}
		ev.session = &session
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, malformed(err)
		}
		if strings.TrimSpace(sub.ID) == "" {
			return nil, malformed(errors.New("subscription without id"))
		}
		ev.subscription = &sub
	}
	return ev, nil
}

func malformed(err error) error {
	return &apperror.Error{
		Kind:    apperror.KindWebhookPayloadMalformed,
		Message: "invalid payload",
		Err:     fmt.Errorf("%w: %v", ErrPayloadMalformed, err),
	}
}

func (p *WebhookProcessor) applyCheckoutCompleted(ctx context.Context, tx *gorm.DB, repo Repository, session *stripe.CheckoutSession, res *WebhookResult) error {
	accountID, ok := parseAccountID(session.ClientReferenceID)
	if !ok {
		res.Outcome = metrics.WebhookUnknownAccount
		p.log.Warn("checkout session without usable client_reference_id",
			zap.String("event_id", res.EventID),
			zap.String("client_reference_id", session.ClientReferenceID))
		return nil
	}
	res.AccountID = accountID

	if session.Customer != nil && session.Customer.ID != "" {
		if err := p.linkCustomer(ctx, repo, accountID, session.Customer.ID); err != nil {
			return err
		}
	}

	if session.Mode != stripe.CheckoutSessionModePayment {
		res.Outcome = metrics.WebhookIgnored
		return nil
	}

	if err := p.ledger.GrantTx(ctx, tx, accountID); err != nil {
		if errors.Is(err, credits.ErrAccountNotFound) {
			res.Outcome = metrics.WebhookUnknownAccount
			return nil
		}
		return err
	}
	res.Outcome = metrics.WebhookProcessed
	return nil
}

// linkCustomer stores the customer id of a completed checkout for accounts
// that do not have one yet, so later subscription events resolve.
func (p *WebhookProcessor) linkCustomer(ctx context.Context, repo Repository, accountID uint, customerID string) error {
	if _, err := repo.GetBillingAccountByProviderAccountID(ctx, models.BillingProviderStripe, customerID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := repo.GetBillingAccountByUserID(ctx, models.BillingProviderStripe, accountID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	exists, err := repo.UserExists(ctx, accountID)
	if err != nil || !exists {
		return err
	}
	return repo.UpsertBillingAccount(ctx, &models.BillingAccount{
		UserID:            accountID,
		Provider:          models.BillingProviderStripe,
		ProviderAccountID: customerID,
	})
}

func (p *WebhookProcessor) applySubscription(ctx context.Context, repo Repository, ev *decodedEvent, res *WebhookResult) error {
	sub := ev.subscription
	userID, err := p.resolveSubscriber(ctx, repo, sub)
	if err != nil {
		if errors.Is(err, ErrUnknownCustomer) {
			res.Outcome = metrics.WebhookUnknownAccount
			p.log.Warn("subscription event for unknown customer",
				zap.String("event_id", res.EventID),
				zap.String("subscription_id", sub.ID))
			return nil
		}
		return err
	}
	res.AccountID = userID

	if _, err := p.service.SyncSubscription(ctx, repo, normalizeStripeSubscription(sub, userID, ev.event.Data.Raw)); err != nil {
		return fmt.Errorf("sync subscription %s: %w", sub.ID, err)
	}
	res.Outcome = metrics.WebhookProcessed
	return nil
}

func (p *WebhookProcessor) resolveSubscriber(ctx context.Context, repo Repository, sub *stripe.Subscription) (uint, error) {
	if sub.Customer != nil && sub.Customer.ID != "" {
		account, err := repo.GetBillingAccountByProviderAccountID(ctx, models.BillingProviderStripe, sub.Customer.ID)
		if err == nil {
			return account.UserID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
	}
	if id, ok := parseAccountID(sub.Metadata["user_id"]); ok {
		exists, err := repo.UserExists(ctx, id)
		if err != nil {
			return 0, err
		}
		if exists {
			return id, nil
		}
	}
	return 0, ErrUnknownCustomer
}

func parseAccountID(ref string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ref), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
