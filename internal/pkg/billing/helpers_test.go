package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/JobFox/internal/pkg/cache"
	"github.com/stripe/stripe-go/v76"
)

type memStore struct {
	mu      sync.Mutex
	vals    map[string]string
	gets    int
	deletes int
	failGet error
}

func newMemStore() *memStore { return &memStore{vals: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet != nil {
		return "", m.failGet
	}
	v, ok := m.vals[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.vals, key)
	return nil
}

type fakeCheckoutAPI struct {
	mu           sync.Mutex
	customers    []*stripe.CustomerParams
	sessions     []*stripe.CheckoutSessionParams
	sessionErr   error
	customerErr  error
	nextCustomer int
}

func (f *fakeCheckoutAPI) NewCustomer(_ context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	f.customers = append(f.customers, params)
	f.nextCustomer++
	return &stripe.Customer{ID: fmt.Sprintf("cus_%d", f.nextCustomer)}, nil
}

func (f *fakeCheckoutAPI) NewCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.sessions = append(f.sessions, params)
	id := fmt.Sprintf("cs_test_%d", len(f.sessions))
	return &stripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/pay/" + id}, nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	webhooks map[string]int
	checkout map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{webhooks: map[string]int{}, checkout: map[string]int{}}
}

func (r *recordingMetrics) RecordWebhookEvent(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks[outcome]++
}

func (r *recordingMetrics) RecordWebhookLatency(time.Duration) {}
func (r *recordingMetrics) RecordJobPosting(string)            {}

func (r *recordingMetrics) RecordCheckoutSession(mode, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkout[mode+"/"+outcome]++
}

func (r *recordingMetrics) webhookCount(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.webhooks[outcome]
}

var errCacheDown = errors.New("cache down")

func testConfig() Config {
	return Config{
		SecretKey:               "sk_test_x",
		WebhookSecret:           testWebhookSecret,
		JobPostingPriceID:       "price_credit",
		UnlimitedPostingPriceID: "price_unlimited",
		SuccessURL:              "https://jobfox.test/billing/success",
		CancelURL:               "https://jobfox.test/billing/cancel",
		SubscriptionCacheTTL:    time.Minute,
	}
}
