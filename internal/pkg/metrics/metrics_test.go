package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectorRegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordWebhookEvent(WebhookProcessed)
	c.RecordJobPosting(JobPostingCreated)
	c.RecordCheckoutSession("payment", "created")
	c.RecordWebhookLatency(20 * time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"jobfox_webhook_events_total",
		"jobfox_webhook_processing_seconds",
		"jobfox_job_postings_total",
		"jobfox_checkout_sessions_total",
	} {
		assert.True(t, names[want], want)
	}
}

func TestCollectorCountsByLabel(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordWebhookEvent(WebhookDuplicate)
	c.RecordWebhookEvent(WebhookDuplicate)
	c.RecordWebhookEvent(WebhookIgnored)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.webhookEvents.WithLabelValues(WebhookDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.webhookEvents.WithLabelValues(WebhookIgnored)))
}

func TestHandlerServesExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg).RecordJobPosting(JobPostingDenied)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `jobfox_job_postings_total{outcome="denied"} 1`)
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordWebhookEvent(WebhookFailed)
}
