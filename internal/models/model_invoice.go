package models

import "time"

// Invoice is upserted by invoice.* webhook events keyed by InvoiceID.
// Fields only ever fill in across the invoice lifecycle (issued -> paid).
type Invoice struct {
	ID        string `gorm:"column:id;type:varchar(64);primaryKey" json:"-" bson:"id" patch:"-"`
	InvoiceID string `gorm:"column:invoice_id;type:varchar(64);not null;uniqueIndex" json:"invoiceId" bson:"invoiceId" patch:"-"`

	SubscriptionID *string `gorm:"column:subscription_id;type:varchar(64);index" json:"subscriptionId,omitempty" bson:"subscriptionId,omitempty"`
	CustomerID     *string `gorm:"column:customer_id;type:varchar(64);index" json:"customerId,omitempty" bson:"customerId,omitempty"`
	OrderID        *string `gorm:"column:order_id;type:varchar(64)" json:"orderId,omitempty" bson:"orderId,omitempty"`
	PaymentID      *string `gorm:"column:payment_id;type:varchar(64)" json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	Status         *string `gorm:"column:status;type:varchar(32)" json:"status,omitempty" bson:"status,omitempty"`
	Type           *string `gorm:"column:type;type:varchar(32)" json:"type,omitempty" bson:"type,omitempty"`

	// Amounts are in the currency's minor unit.
	Amount        *int64  `gorm:"column:amount" json:"amount,omitempty" bson:"amount,omitempty"`
	AmountPaid    *int64  `gorm:"column:amount_paid" json:"amountPaid,omitempty" bson:"amountPaid,omitempty"`
	AmountDue     *int64  `gorm:"column:amount_due" json:"amountDue,omitempty" bson:"amountDue,omitempty"`
	Currency      *string `gorm:"column:currency;type:varchar(8)" json:"currency,omitempty" bson:"currency,omitempty"`
	TaxAmount     *int64  `gorm:"column:tax_amount" json:"taxAmount,omitempty" bson:"taxAmount,omitempty"`
	TaxableAmount *int64  `gorm:"column:taxable_amount" json:"taxableAmount,omitempty" bson:"taxableAmount,omitempty"`
	GrossAmount   *int64  `gorm:"column:gross_amount" json:"grossAmount,omitempty" bson:"grossAmount,omitempty"`

	IssuedAt         *string `gorm:"column:issued_at;type:varchar(17)" json:"issuedAt,omitempty" bson:"issuedAt,omitempty"`
	PaidAt           *string `gorm:"column:paid_at;type:varchar(17)" json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	GatewayCreatedAt *string `gorm:"column:gateway_created_at;type:varchar(17)" json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	EventType        *string `gorm:"column:event_type;type:varchar(64)" json:"eventType,omitempty" bson:"eventType,omitempty"`

	InsertedAt time.Time `gorm:"column:inserted_at;autoCreateTime" json:"insertedAt" bson:"insertedAt" patch:"-"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt" patch:"-"`
}

func (Invoice) TableName() string {
	return "invoice"
}
