package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ManuelReschke/JobFox/app/models"
	"github.com/ManuelReschke/JobFox/internal/pkg/apperror"
	"github.com/ManuelReschke/JobFox/internal/pkg/credits"
	"github.com/ManuelReschke/JobFox/internal/pkg/metrics"
	"github.com/ManuelReschke/JobFox/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type webhookFixture struct {
	db        *gorm.DB
	service   *Service
	processor *WebhookProcessor
	store     *memStore
	rec       *recordingMetrics
	logs      *observer.ObservedLogs
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	db := testutil.NewDB(t)
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	store := newMemStore()
	rec := newRecordingMetrics()
	svc := NewServiceFromDB(db, testConfig(), WithCache(store), WithCheckoutAPI(&fakeCheckoutAPI{}), WithLogger(log))
	return &webhookFixture{
		db:        db,
		service:   svc,
		processor: NewWebhookProcessor(db, svc, credits.NewLedger(db, log), log, rec),
		store:     store,
		rec:       rec,
		logs:      logs,
	}
}

func (f *webhookFixture) deliver(t *testing.T, payload string) (WebhookResult, error) {
	t.Helper()
	body := []byte(payload)
	return f.processor.Process(context.Background(), body, signedHeader(body, testWebhookSecret, time.Now()))
}

func (f *webhookFixture) processedCount(t *testing.T, eventID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.ProcessedWebhookEvent{}).Where("event_id = ?", eventID).Count(&n).Error)
	return n
}

func checkoutCompleted(eventID, mode, ref string) string {
	return fmt.Sprintf(`{"id":%q,"object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_%s","object":"checkout.session","mode":%q,"client_reference_id":%q,"customer":"cus_web"}}}`,
		eventID, eventID, mode, ref)
}

func subscriptionEvent(eventID, eventType, customer, status string) string {
	return fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":{"id":"sub_1","object":"subscription","customer":%q,"status":%q,"current_period_start":1700000000,"current_period_end":1702592000,"cancel_at_period_end":false,"items":{"object":"list","data":[{"id":"si_1","object":"subscription_item","price":{"id":"price_unlimited","object":"price","recurring":{"interval":"month","interval_count":1}}}]}}}}`,
		eventID, eventType, customer, status)
}

func TestWebhookReplayGrantsOnce(t *testing.T) {
	f := newWebhookFixture(t)
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)
	payload := checkoutCompleted("evt_1", "payment", fmt.Sprint(acct.ID))

	res, err := f.deliver(t, payload)
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookProcessed, res.Outcome)
	assert.Equal(t, acct.ID, res.AccountID)
	assert.True(t, testutil.Credit(t, f.db, acct.ID))

	for i := 0; i < 3; i++ {
		res, err = f.deliver(t, payload)
		require.NoError(t, err)
		assert.Equal(t, metrics.WebhookDuplicate, res.Outcome)
	}
	assert.True(t, testutil.Credit(t, f.db, acct.ID))
	assert.Equal(t, int64(1), f.processedCount(t, "evt_1"))
	assert.Equal(t, 1, f.rec.webhookCount(metrics.WebhookProcessed))
	assert.Equal(t, 3, f.rec.webhookCount(metrics.WebhookDuplicate))
}

func TestWebhookReplayAfterConsumeDoesNotRegrant(t *testing.T) {
	f := newWebhookFixture(t)
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)
	payload := checkoutCompleted("evt_1", "payment", fmt.Sprint(acct.ID))

	_, err := f.deliver(t, payload)
	require.NoError(t, err)
	consumed, err := credits.NewLedger(f.db, nil).Consume(context.Background(), acct.ID)
	require.NoError(t, err)
	require.True(t, consumed)

	res, err := f.deliver(t, payload)
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookDuplicate, res.Outcome)
	assert.False(t, testutil.Credit(t, f.db, acct.ID))
}

func TestWebhookMalformedIsNotRecordedAndCorrectedResendWorks(t *testing.T) {
	f := newWebhookFixture(t)
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)

	broken := `{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_2","mode":42}}}`
	_, err := f.deliver(t, broken)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindWebhookPayloadMalformed))
	assert.Equal(t, 400, apperror.Status(err))
	assert.Equal(t, int64(0), f.processedCount(t, "evt_2"))

	res, err := f.deliver(t, checkoutCompleted("evt_2", "payment", fmt.Sprint(acct.ID)))
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookProcessed, res.Outcome)
	assert.True(t, testutil.Credit(t, f.db, acct.ID))
	assert.Equal(t, int64(1), f.processedCount(t, "evt_2"))
	assert.Equal(t, 1, f.rec.webhookCount(metrics.WebhookRejected))
}

func TestWebhookBadSignatureIsRejectedBeforeAnyWrite(t *testing.T) {
	f := newWebhookFixture(t)
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)
	body := []byte(checkoutCompleted("evt_3", "payment", fmt.Sprint(acct.ID)))

	_, err := f.processor.Process(context.Background(), body, signedHeader(body, "whsec_wrong", time.Now()))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindWebhookSignatureInvalid))
	assert.Equal(t, int64(0), f.processedCount(t, "evt_3"))
	assert.False(t, testutil.Credit(t, f.db, acct.ID))
}

func TestWebhookSubscriptionModeCheckoutDoesNotGrant(t *testing.T) {
	f := newWebhookFixture(t)
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)

	res, err := f.deliver(t, checkoutCompleted("evt_4", "subscription", fmt.Sprint(acct.ID)))
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookIgnored, res.Outcome)
	assert.False(t, testutil.Credit(t, f.db, acct.ID))

	var link models.BillingAccount
	require.NoError(t, f.db.Where("user_id = ?", acct.ID).First(&link).Error)
	assert.Equal(t, "cus_web", link.ProviderAccountID)
}

func TestWebhookUnknownAccountIsAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)

	for _, ref := range []string{"9999", "", "not-a-number"} {
		eventID := "evt_ref_" + ref
		res, err := f.deliver(t, checkoutCompleted(eventID, "payment", ref))
		require.NoError(t, err, ref)
		assert.Equal(t, metrics.WebhookUnknownAccount, res.Outcome, ref)
		assert.Equal(t, int64(1), f.processedCount(t, eventID), ref)
	}

	var links int64
	require.NoError(t, f.db.Model(&models.BillingAccount{}).Count(&links).Error)
	assert.Zero(t, links)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	f := newWebhookFixture(t)

	res, err := f.deliver(t, `{"id":"evt_5","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookIgnored, res.Outcome)
	assert.Equal(t, int64(1), f.processedCount(t, "evt_5"))
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)
	require.NoError(t, f.db.Create(&models.BillingAccount{UserID: acct.ID, Provider: models.BillingProviderStripe, ProviderAccountID: "cus_known"}).Error)

	active, err := f.service.HasActiveSubscription(ctx, acct.ID)
	require.NoError(t, err)
	require.False(t, active)

	res, err := f.deliver(t, subscriptionEvent("evt_s1", "customer.subscription.created", "cus_known", "active"))
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookProcessed, res.Outcome)
	assert.Equal(t, 1, f.store.deletes)

	var sub models.BillingSubscription
	require.NoError(t, f.db.Where("provider_subscription_id = ?", "sub_1").First(&sub).Error)
	assert.Equal(t, acct.ID, sub.UserID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, models.PlanUnlimitedPosting, sub.InternalPlan)
	assert.Equal(t, models.BillingIntervalMonth, sub.BillingInterval)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, int64(1702592000), sub.CurrentPeriodEnd.Unix())

	active, err = f.service.HasActiveSubscription(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = f.deliver(t, subscriptionEvent("evt_s2", "customer.subscription.deleted", "cus_known", "canceled"))
	require.NoError(t, err)

	var subs int64
	require.NoError(t, f.db.Model(&models.BillingSubscription{}).Count(&subs).Error)
	assert.Equal(t, int64(1), subs)

	active, err = f.service.HasActiveSubscription(ctx, acct.ID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.False(t, testutil.Credit(t, f.db, acct.ID))
}

func TestWebhookSubscriptionForUnknownCustomer(t *testing.T) {
	f := newWebhookFixture(t)

	res, err := f.deliver(t, subscriptionEvent("evt_s3", "customer.subscription.updated", "cus_ghost", "active"))
	require.NoError(t, err)
	assert.Equal(t, metrics.WebhookUnknownAccount, res.Outcome)
	assert.Equal(t, 1, f.logs.FilterMessage("subscription event for unknown customer").Len())
}

func TestWebhookConcurrentDeliveriesGrantOnce(t *testing.T) {
	f := newWebhookFixture(t)
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)
	payload := checkoutCompleted("evt_race", "payment", fmt.Sprint(acct.ID))

	const deliveries = 6
	var wg sync.WaitGroup
	outcomes := make(chan string, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.deliver(t, payload)
			assert.NoError(t, err)
			outcomes <- res.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[string]int{}
	for o := range outcomes {
		counts[o]++
	}
	assert.Equal(t, 1, counts[metrics.WebhookProcessed])
	assert.Equal(t, deliveries-1, counts[metrics.WebhookDuplicate])
	assert.Equal(t, int64(1), f.processedCount(t, "evt_race"))
}

func TestWebhookLogsOutcome(t *testing.T) {
	f := newWebhookFixture(t)
	acct := testutil.CreateUser(t, f.db, "acme", models.ROLE_COMPANY, false)

	_, err := f.deliver(t, checkoutCompleted("evt_log", "payment", fmt.Sprint(acct.ID)))
	require.NoError(t, err)

	entries := f.logs.FilterMessage("webhook handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "evt_log", fields["event_id"])
	assert.Equal(t, "processed", fields["outcome"])
	assert.Equal(t, "billing.webhook", entries[0].LoggerName)
}

func TestWebhookWithoutSecretFails(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewServiceFromDB(db, Config{}, WithCheckoutAPI(&fakeCheckoutAPI{}))
	p := NewWebhookProcessor(db, svc, credits.NewLedger(db, nil), nil, nil)

	_, err := p.Process(context.Background(), []byte(`{}`), "t=1,v1=00")
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
	assert.Equal(t, 500, apperror.Status(err))
}
