package models

import (
	"time"

	"github.com/fatflowers/billing/pkg/types"
	"gorm.io/datatypes"
)

// TokenBalance is the per-user counter. One row per user.
// Invariant: CurrentTokens >= 0 after every successful adjustment.
type TokenBalance struct {
	ID             string `gorm:"column:id;type:varchar(64);primaryKey" json:"-" bson:"id"`
	UserID         string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"userId" bson:"userId"`
	PlanID         string `gorm:"column:plan_id;type:varchar(64)" json:"planId" bson:"planId"`
	SubscriptionID string `gorm:"column:subscription_id;type:varchar(64)" json:"subscriptionId" bson:"subscriptionId"`
	CurrentTokens  int64  `gorm:"column:current_tokens;not null;default:0" json:"currentTokens" bson:"currentTokens"`
	TotalAllocated int64  `gorm:"column:total_allocated;not null;default:0" json:"totalAllocated" bson:"totalAllocated"`
	CycleStart     string `gorm:"column:cycle_start;type:varchar(17)" json:"cycleStart" bson:"cycleStart"`
	CycleEnd       string `gorm:"column:cycle_end;type:varchar(17)" json:"cycleEnd" bson:"cycleEnd"`
	LastUpdated    string `gorm:"column:last_updated;type:varchar(17)" json:"lastUpdated" bson:"lastUpdated"`
	// Version increments on every write.
	Version   int64     `gorm:"column:version;not null;default:0" json:"-" bson:"version"`
	CreatedAt time.Time `json:"-" bson:"createdAt"`
	UpdatedAt time.Time `json:"-" bson:"updatedAt"`
}

func (TokenBalance) TableName() string {
	return "token_balance"
}

// TokenLog is the append-only audit entry for a balance change.
// Tokens is always a magnitude; the direction is carried by Type.
type TokenLog struct {
	ID        string             `gorm:"column:id;type:varchar(64);primaryKey" json:"-" bson:"id"`
	UserID    string             `gorm:"column:user_id;type:varchar(64);not null;index:idx_token_log_user_ts,priority:1" json:"userId" bson:"userId"`
	Type      types.TokenLogType `gorm:"column:type;type:varchar(16);not null" json:"type" bson:"type"`
	Tokens    int64              `gorm:"column:tokens;not null" json:"tokens" bson:"tokens"`
	Reason    string             `gorm:"column:reason;type:varchar(255)" json:"reason" bson:"reason"`
	Meta      datatypes.JSONMap  `gorm:"column:meta" json:"meta" bson:"meta"`
	Timestamp string             `gorm:"column:timestamp;type:varchar(17);not null;index:idx_token_log_user_ts,priority:2;index:idx_token_log_ts" json:"timestamp" bson:"timestamp"`
	CreatedAt time.Time          `json:"-" bson:"createdAt"`
}

func (TokenLog) TableName() string {
	return "token_log"
}
