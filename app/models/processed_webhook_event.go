package models

import "time"

// ProcessedWebhookEvent records a provider event id that has been handled.
// Rows are append-only; the unique (provider, event_id) pair is the
// idempotency key for webhook deliveries.
type ProcessedWebhookEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"type:varchar(20);not null;index:ux_processed_webhook_events_provider_event,unique,priority:1" json:"provider"`
	EventID   string    `gorm:"type:varchar(255);not null;index:ux_processed_webhook_events_provider_event,unique,priority:2" json:"event_id"`
	EventType string    `gorm:"type:varchar(100);not null;default:''" json:"event_type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
