// Package metrics exposes Prometheus counters for billing and job posting.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcomes.
const (
	WebhookProcessed      = "processed"
	WebhookDuplicate      = "duplicate"
	WebhookIgnored        = "ignored"
	WebhookRejected       = "rejected"
	WebhookFailed         = "failed"
	WebhookUnknownAccount = "unknown_account"
)

// Job posting outcomes.
const (
	JobPostingCreated = "created"
	JobPostingDenied  = "denied"
	JobPostingInvalid = "invalid"
	JobPostingFailed  = "failed"
)

// Recorder is what services report to. Collector and Nop implement it.
type Recorder interface {
	RecordWebhookEvent(outcome string)
	RecordWebhookLatency(d time.Duration)
	RecordJobPosting(outcome string)
	RecordCheckoutSession(mode, outcome string)
}

// Collector records metrics on a Prometheus registry.
type Collector struct {
	webhookEvents    *prometheus.CounterVec
	webhookLatency   prometheus.Histogram
	jobPostings      *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfox_webhook_events_total",
			Help: "Billing webhook deliveries by outcome.",
		}, []string{"outcome"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobfox_webhook_processing_seconds",
			Help:    "Time spent processing a billing webhook delivery.",
			Buckets: prometheus.DefBuckets,
		}),
		jobPostings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfox_job_postings_total",
			Help: "Job creation attempts by outcome.",
		}, []string{"outcome"}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfox_checkout_sessions_total",
			Help: "Hosted checkout sessions requested from the billing provider.",
		}, []string{"mode", "outcome"}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.webhookLatency,
		c.jobPostings,
		c.checkoutSessions,
	)

	return c
}

func (c *Collector) RecordWebhookEvent(outcome string) {
	c.webhookEvents.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordWebhookLatency(d time.Duration) {
	c.webhookLatency.Observe(d.Seconds())
}

func (c *Collector) RecordJobPosting(outcome string) {
	c.jobPostings.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordCheckoutSession(mode, outcome string) {
	c.checkoutSessions.WithLabelValues(mode, outcome).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordWebhookEvent(string)            {}
func (Nop) RecordWebhookLatency(time.Duration)   {}
func (Nop) RecordJobPosting(string)              {}
func (Nop) RecordCheckoutSession(string, string) {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
