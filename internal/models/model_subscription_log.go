package models

import (
	"encoding/json"
	"time"

	"github.com/fatflowers/billing/pkg/types"
	"gorm.io/datatypes"
)

// SubscriptionLog records every change applied to a subscription row.
// Use case: troubleshooting out-of-order webhook deliveries.
type SubscriptionLog struct {
	ID             string                         `gorm:"column:id;type:varchar(64);primaryKey" json:"id" bson:"id"`
	UserID         string                         `gorm:"column:user_id;type:varchar(64);index:idx_subscription_log_user,priority:1;not null" json:"userId" bson:"userId"`
	SubscriptionID string                         `gorm:"column:subscription_id;type:varchar(64);not null" json:"subscriptionId" bson:"subscriptionId"`
	Source         types.SubscriptionChangeSource `gorm:"column:source;type:varchar(32);not null" json:"source" bson:"source"`
	EventType      string                         `gorm:"column:event_type;type:varchar(64)" json:"eventType,omitempty" bson:"eventType,omitempty"`
	// Before is nil for the first write of a subscription.
	Before    datatypes.JSONMap `gorm:"column:before" json:"before" bson:"before"`
	After     datatypes.JSONMap `gorm:"column:after" json:"after" bson:"after"`
	CreatedAt time.Time         `gorm:"index:idx_subscription_log_user,priority:2" json:"createdAt" bson:"createdAt"`
}

func (SubscriptionLog) TableName() string {
	return "subscription_log"
}

// SnapshotOf flattens a subscription into a JSON map for the log.
func SnapshotOf(s *Subscription) datatypes.JSONMap {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m datatypes.JSONMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
