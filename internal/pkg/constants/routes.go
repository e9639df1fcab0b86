package constants

// Static route constants
const (
	HealthRoute  = "/healthz"
	MetricsRoute = "/metrics"
	APIRoute     = "/api"
	// Stripe posts here; the path is excluded from rate limiting
	WebhookRoute = "/api/v1/billing/webhook"
	DocsBasePath = "/docs/api/"
	// OpenAPI document relative to the project root
	OpenAPIPath = "public/docs/v1/openapi.yml"
)
