package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// PaymentCard is the non-sensitive projection of a card. No PAN, no CVV.
type PaymentCard struct {
	Last4       string `json:"last4,omitempty" bson:"last4,omitempty"`
	Network     string `json:"network,omitempty" bson:"network,omitempty"`
	Type        string `json:"type,omitempty" bson:"type,omitempty"`
	Issuer      string `json:"issuer,omitempty" bson:"issuer,omitempty"`
	ExpiryMonth string `json:"expiryMonth,omitempty" bson:"expiryMonth,omitempty"`
	ExpiryYear  string `json:"expiryYear,omitempty" bson:"expiryYear,omitempty"`
}

func (c PaymentCard) Value() (driver.Value, error)                     { return jsonValue(c) }
func (c *PaymentCard) Scan(src any) error                              { return scanJSON(c, src) }
func (PaymentCard) GormDBDataType(db *gorm.DB, f *schema.Field) string { return jsonDBDataType(db, f) }

// PaymentError is only populated for failed payments.
type PaymentError struct {
	Code        string `json:"code,omitempty" bson:"code,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Source      string `json:"source,omitempty" bson:"source,omitempty"`
	Step        string `json:"step,omitempty" bson:"step,omitempty"`
	Reason      string `json:"reason,omitempty" bson:"reason,omitempty"`
}

func (e PaymentError) Value() (driver.Value, error)                     { return jsonValue(e) }
func (e *PaymentError) Scan(src any) error                              { return scanJSON(e, src) }
func (PaymentError) GormDBDataType(db *gorm.DB, f *schema.Field) string { return jsonDBDataType(db, f) }

// Payment is upserted by payment.* webhook events keyed by PaymentID.
type Payment struct {
	ID        string `gorm:"column:id;type:varchar(64);primaryKey" json:"-" bson:"id" patch:"-"`
	PaymentID string `gorm:"column:payment_id;type:varchar(64);not null;uniqueIndex" json:"paymentId" bson:"paymentId" patch:"-"`

	Status     *string `gorm:"column:status;type:varchar(32)" json:"status,omitempty" bson:"status,omitempty"`
	Method     *string `gorm:"column:method;type:varchar(32)" json:"method,omitempty" bson:"method,omitempty"`
	Amount     *int64  `gorm:"column:amount" json:"amount,omitempty" bson:"amount,omitempty"`
	Currency   *string `gorm:"column:currency;type:varchar(8)" json:"currency,omitempty" bson:"currency,omitempty"`
	OrderID    *string `gorm:"column:order_id;type:varchar(64);index" json:"orderId,omitempty" bson:"orderId,omitempty"`
	InvoiceID  *string `gorm:"column:invoice_id;type:varchar(64)" json:"invoiceId,omitempty" bson:"invoiceId,omitempty"`
	CustomerID *string `gorm:"column:customer_id;type:varchar(64);index" json:"customerId,omitempty" bson:"customerId,omitempty"`
	Captured   *bool   `gorm:"column:captured" json:"captured,omitempty" bson:"captured,omitempty"`
	Fee        *int64  `gorm:"column:fee" json:"fee,omitempty" bson:"fee,omitempty"`
	Tax        *int64  `gorm:"column:tax" json:"tax,omitempty" bson:"tax,omitempty"`

	Card  *PaymentCard  `gorm:"column:card" json:"card,omitempty" bson:"card,omitempty"`
	Error *PaymentError `gorm:"column:error" json:"error,omitempty" bson:"error,omitempty"`

	GatewayCreatedAt *string `gorm:"column:gateway_created_at;type:varchar(17)" json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	EventType        *string `gorm:"column:event_type;type:varchar(64)" json:"eventType,omitempty" bson:"eventType,omitempty"`

	InsertedAt time.Time `gorm:"column:inserted_at;autoCreateTime" json:"insertedAt" bson:"insertedAt" patch:"-"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt" patch:"-"`
}

func (Payment) TableName() string {
	return "payment"
}
