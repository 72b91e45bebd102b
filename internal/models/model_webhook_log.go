package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookLogStatus string

const (
	WebhookLogStatusReceived     WebhookLogStatus = "received"
	WebhookLogStatusHandled      WebhookLogStatus = "handled"
	WebhookLogStatusHandleFailed WebhookLogStatus = "handle_failed"
	WebhookLogStatusSkipped      WebhookLogStatus = "skipped"
)

// WebhookLog is the diagnostic trail of a routed webhook delivery.
type WebhookLog struct {
	ID         string            `gorm:"column:id;type:varchar(64);primaryKey" json:"id" bson:"id"`
	ProviderID string            `gorm:"column:provider_id;type:varchar(32);not null" json:"providerId" bson:"providerId"`
	EventID    string            `gorm:"column:event_id;type:varchar(128);index" json:"eventId" bson:"eventId"`
	EventType  string            `gorm:"column:event_type;type:varchar(64)" json:"eventType" bson:"eventType"`
	EntityID   string            `gorm:"column:entity_id;type:varchar(64)" json:"entityId" bson:"entityId"`
	UserID     *string           `gorm:"column:user_id;type:varchar(64)" json:"userId,omitempty" bson:"userId,omitempty"`
	TraceID    string            `gorm:"column:trace_id;type:varchar(128)" json:"traceId" bson:"traceId"`
	Data       datatypes.JSONMap `gorm:"column:data" json:"data" bson:"data"`
	Result     datatypes.JSONMap `gorm:"column:result" json:"result,omitempty" bson:"result,omitempty"`
	Status     WebhookLogStatus  `gorm:"column:status;type:varchar(32);not null" json:"status" bson:"status"`
	CreatedAt  time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt" bson:"updatedAt"`
}

func (WebhookLog) TableName() string { return "webhook_log" }

// ProcessedEvent claims a gateway event id before a token side effect runs.
// (ProviderID, EventID) is unique.
type ProcessedEvent struct {
	ID          string    `gorm:"column:id;type:varchar(64);primaryKey" json:"id" bson:"id"`
	ProviderID  string    `gorm:"column:provider_id;type:varchar(32);not null;uniqueIndex:idx_processed_event,priority:1" json:"providerId" bson:"providerId"`
	EventID     string    `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex:idx_processed_event,priority:2" json:"eventId" bson:"eventId"`
	EventType   string    `gorm:"column:event_type;type:varchar(64)" json:"eventType" bson:"eventType"`
	EntityID    string    `gorm:"column:entity_id;type:varchar(64)" json:"entityId" bson:"entityId"`
	ProcessedAt string    `gorm:"column:processed_at;type:varchar(17)" json:"processedAt" bson:"processedAt"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

func (ProcessedEvent) TableName() string { return "processed_event" }
