package models

import (
	"time"

	"github.com/fatflowers/billing/pkg/types"
	"gorm.io/datatypes"
)

// Subscription is the local copy of a gateway subscription.
// Natural key: (UserID, SubscriptionID). Nil fields are "not reported" and are
// never written by a partial upsert.
type Subscription struct {
	ID             string `gorm:"column:id;type:varchar(64);primaryKey" json:"id,omitempty" bson:"id" patch:"-"`
	UserID         string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_subscription_user_sub,priority:1" json:"userId" bson:"userId" patch:"-"`
	SubscriptionID string `gorm:"column:subscription_id;type:varchar(64);not null;uniqueIndex:idx_subscription_user_sub,priority:2;index:idx_subscription_id" json:"subscriptionId" bson:"subscriptionId" patch:"-"`

	CustomerID *string                   `gorm:"column:customer_id;type:varchar(64);index" json:"customerId,omitempty" bson:"customerId,omitempty"`
	PlanID     *string                   `gorm:"column:plan_id;type:varchar(64)" json:"planId,omitempty" bson:"planId,omitempty"`
	Status     *types.SubscriptionStatus `gorm:"column:status;type:varchar(32)" json:"subscriptionStatus,omitempty" bson:"subscriptionStatus,omitempty"`

	TokensAllocated *int64 `gorm:"column:tokens_allocated" json:"tokensAllocated,omitempty" bson:"tokensAllocated,omitempty"`
	UserCount       *int64 `gorm:"column:user_count" json:"userCount,omitempty" bson:"userCount,omitempty"`

	// Times are canonical 17-digit strings.
	SubscriptionStartTime *string `gorm:"column:subscription_start_time;type:varchar(17)" json:"subscriptionStartTime,omitempty" bson:"subscriptionStartTime,omitempty"`
	SubscriptionEndTime   *string `gorm:"column:subscription_end_time;type:varchar(17)" json:"subscriptionEndTime,omitempty" bson:"subscriptionEndTime,omitempty"`
	NextBillingDate       *string `gorm:"column:next_billing_date;type:varchar(17)" json:"nextBillingDate,omitempty" bson:"nextBillingDate,omitempty"`
	AuthExpiryTime        *string `gorm:"column:auth_expiry_time;type:varchar(17)" json:"authExpiryTime,omitempty" bson:"authExpiryTime,omitempty"`

	TotalBillingCycles     *int64 `gorm:"column:total_billing_cycles" json:"totalBillingCycles,omitempty" bson:"totalBillingCycles,omitempty"`
	CompletedBillingCycles *int64 `gorm:"column:completed_billing_cycles" json:"completedBillingCycles,omitempty" bson:"completedBillingCycles,omitempty"`
	RemainingBillingCycles *int64 `gorm:"column:remaining_billing_cycles" json:"remainingBillingCycles,omitempty" bson:"remainingBillingCycles,omitempty"`

	CustomerNotify *bool   `gorm:"column:customer_notify" json:"customerNotify,omitempty" bson:"customerNotify,omitempty"`
	AuthPaymentURL *string `gorm:"column:auth_payment_url;type:varchar(255)" json:"authPaymentUrl,omitempty" bson:"authPaymentUrl,omitempty"`

	Notes     datatypes.JSONMap `gorm:"column:notes" json:"subscriptionNotes,omitempty" bson:"subscriptionNotes,omitempty"`
	EventType *string           `gorm:"column:event_type;type:varchar(64)" json:"eventType,omitempty" bson:"eventType,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt" patch:"-"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" patch:"-"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// StatusValue returns the status or "" when unknown.
func (s *Subscription) StatusValue() types.SubscriptionStatus {
	if s == nil || s.Status == nil {
		return ""
	}
	return *s.Status
}

// Str dereferences an optional string field.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
