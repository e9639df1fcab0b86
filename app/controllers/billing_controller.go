package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/JobFox/app/repository"
	"github.com/ManuelReschke/JobFox/internal/pkg/billing"
)

const webhookTimeout = 15 * time.Second

type BillingController struct {
	users    repository.UserRepository
	service  *billing.Service
	webhooks *billing.WebhookProcessor
}

func NewBillingController(users repository.UserRepository, service *billing.Service, webhooks *billing.WebhookProcessor) *BillingController {
	return &BillingController{users: users, service: service, webhooks: webhooks}
}

// HandleCheckoutJobCredit starts a one-time payment for a job posting credit.
func (bc *BillingController) HandleCheckoutJobCredit(c *fiber.Ctx) error {
	return bc.checkout(c, billing.CheckoutJobCredit)
}

// HandleCheckoutSubscription starts an unlimited posting subscription.
func (bc *BillingController) HandleCheckoutSubscription(c *fiber.Ctx) error {
	return bc.checkout(c, billing.CheckoutSubscription)
}

func (bc *BillingController) checkout(c *fiber.Ctx, kind billing.CheckoutKind) error {
	account, err := requireUser(c, bc.users)
	if err != nil {
		return renderError(c, err)
	}
	session, err := bc.service.CreateCheckoutSession(c.UserContext(), account, kind)
	if err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// HandleWebhook receives Stripe events. It answers 200 for everything that
// was applied or deliberately skipped, so the provider stops retrying.
func (bc *BillingController) HandleWebhook(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns.
	payload := append([]byte(nil), c.Body()...)
	sig := c.Get("Stripe-Signature")

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	res, err := bc.webhooks.Process(ctx, payload, sig)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{
		"received": true,
		"event_id": res.EventID,
		"outcome":  res.Outcome,
	})
}

// HandleStatus reports the caller's posting credit and subscriptions.
func (bc *BillingController) HandleStatus(c *fiber.Ctx) error {
	account, err := requireUser(c, bc.users)
	if err != nil {
		return renderError(c, err)
	}
	active, err := bc.service.HasActiveSubscription(c.UserContext(), account.ID)
	if err != nil {
		return renderError(c, err)
	}
	subs, err := bc.service.ListSubscriptions(c.UserContext(), account.ID)
	if err != nil {
		return renderError(c, err)
	}

	items := make([]fiber.Map, 0, len(subs))
	for _, s := range subs {
		items = append(items, fiber.Map{
			"id":                   s.ProviderSubscriptionID,
			"plan":                 s.InternalPlan,
			"status":               s.Status,
			"interval":             s.BillingInterval,
			"current_period_end":   formatTimePtr(s.CurrentPeriodEnd),
			"cancel_at_period_end": s.CancelAtPeriodEnd,
		})
	}
	return c.JSON(fiber.Map{
		"has_active_job_posting_plan": account.HasActiveJobPostingPlan,
		"has_active_subscription":     active,
		"subscriptions":               items,
	})
}
