package models

import (
	"database/sql/driver"
	"time"

	"github.com/fatflowers/billing/pkg/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type OrderItem struct {
	ProductID string `json:"productId,omitempty" bson:"productId,omitempty"`
	Quantity  int64  `json:"quantity,omitempty" bson:"quantity,omitempty"`
	Price     int64  `json:"price,omitempty" bson:"price,omitempty"`
	Name      string `json:"name,omitempty" bson:"name,omitempty"`
	Image     string `json:"image,omitempty" bson:"image,omitempty"`
}

type OrderItems []OrderItem

func (o OrderItems) Value() (driver.Value, error)                     { return jsonValue(o) }
func (o *OrderItems) Scan(src any) error                              { return scanJSON(o, src) }
func (OrderItems) GormDBDataType(db *gorm.DB, f *schema.Field) string { return jsonDBDataType(db, f) }

type ShippingAddress struct {
	FullName     string `json:"fullName,omitempty" bson:"fullName,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty" bson:"mobileNumber,omitempty"`
	Pincode      string `json:"pincode,omitempty" bson:"pincode,omitempty"`
	HouseNumber  string `json:"houseNumber,omitempty" bson:"houseNumber,omitempty"`
	StreetArea   string `json:"streetArea,omitempty" bson:"streetArea,omitempty"`
	Landmark     string `json:"landmark,omitempty" bson:"landmark,omitempty"`
	City         string `json:"city,omitempty" bson:"city,omitempty"`
	State        string `json:"state,omitempty" bson:"state,omitempty"`
	AddressType  string `json:"addressType,omitempty" bson:"addressType,omitempty"`
}

func (a ShippingAddress) Value() (driver.Value, error) { return jsonValue(a) }
func (a *ShippingAddress) Scan(src any) error          { return scanJSON(a, src) }
func (ShippingAddress) GormDBDataType(db *gorm.DB, f *schema.Field) string {
	return jsonDBDataType(db, f)
}

type HalfPaymentDetails struct {
	FirstPaymentAmount   int64  `json:"firstPaymentAmount" bson:"firstPaymentAmount"`
	RemainingAmount      int64  `json:"remainingAmount" bson:"remainingAmount"`
	FirstPaymentDate     string `json:"firstPaymentDate" bson:"firstPaymentDate"`
	RemainingPaymentDate string `json:"remainingPaymentDate,omitempty" bson:"remainingPaymentDate,omitempty"`
	RemindersSent        int64  `json:"remindersSent" bson:"remindersSent"`
}

func (d HalfPaymentDetails) Value() (driver.Value, error) { return jsonValue(d) }
func (d *HalfPaymentDetails) Scan(src any) error          { return scanJSON(d, src) }
func (HalfPaymentDetails) GormDBDataType(db *gorm.DB, f *schema.Field) string {
	return jsonDBDataType(db, f)
}

// Order is a one-off checkout order. ID is ours; OrderID is the gateway's.
// A half-paid order gets a second gateway order for the remaining amount.
type Order struct {
	ID            string  `gorm:"column:id;type:varchar(64);primaryKey" json:"id" bson:"id" patch:"-"`
	OrderID       string  `gorm:"column:order_id;type:varchar(64);not null;uniqueIndex" json:"orderId" bson:"orderId" patch:"-"`
	SecondOrderID *string `gorm:"column:second_order_id;type:varchar(64);index" json:"secondOrderId,omitempty" bson:"secondOrderId,omitempty"`
	UserID        string  `gorm:"column:user_id;type:varchar(64);index" json:"userId" bson:"userId" patch:"-"`

	Amount     int64   `gorm:"column:amount;not null" json:"amount" bson:"amount" patch:"-"`
	AmountPaid *int64  `gorm:"column:amount_paid" json:"amountPaid,omitempty" bson:"amountPaid,omitempty"`
	AmountDue  *int64  `gorm:"column:amount_due" json:"amountDue,omitempty" bson:"amountDue,omitempty"`
	Currency   string  `gorm:"column:currency;type:varchar(8)" json:"currency" bson:"currency" patch:"-"`
	Receipt    *string `gorm:"column:receipt;type:varchar(64)" json:"receipt,omitempty" bson:"receipt,omitempty"`
	Status     *string `gorm:"column:status;type:varchar(32)" json:"status,omitempty" bson:"status,omitempty"`
	Attempts   *int64  `gorm:"column:attempts" json:"attempts,omitempty" bson:"attempts,omitempty"`

	Notes           datatypes.JSONMap `gorm:"column:notes" json:"notes,omitempty" bson:"notes,omitempty"`
	Items           OrderItems        `gorm:"column:items" json:"items" bson:"items"`
	ShippingAddress *ShippingAddress  `gorm:"column:shipping_address" json:"shippingAddress,omitempty" bson:"shippingAddress,omitempty"`
	TrackingNumber  *string           `gorm:"column:tracking_number;type:varchar(64)" json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`

	IsHalfPaid             *bool                    `gorm:"column:is_half_paid" json:"isHalfPaid,omitempty" bson:"isHalfPaid,omitempty"`
	RemainingAmount        *int64                   `gorm:"column:remaining_amount" json:"remainingAmount,omitempty" bson:"remainingAmount,omitempty"`
	HalfPaymentStatus      *types.HalfPaymentStatus `gorm:"column:half_payment_status;type:varchar(32)" json:"halfPaymentStatus,omitempty" bson:"halfPaymentStatus,omitempty"`
	PaymentType            *types.PaymentType       `gorm:"column:payment_type;type:varchar(16)" json:"paymentType,omitempty" bson:"paymentType,omitempty"`
	HalfPaymentDetails     *HalfPaymentDetails      `gorm:"column:half_payment_details" json:"halfPaymentDetails,omitempty" bson:"halfPaymentDetails,omitempty"`
	EnableRemainingPayment *bool                    `gorm:"column:enable_remaining_payment" json:"enableRemainingPayment,omitempty" bson:"enableRemainingPayment,omitempty"`
	TrackingIDSentAt       *string                  `gorm:"column:tracking_id_sent_at;type:varchar(17)" json:"trackingIdSentAt,omitempty" bson:"trackingIdSentAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt" patch:"-"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" patch:"-"`
}

func (Order) TableName() string {
	return "order_record"
}

func (o *Order) HalfPaid() bool {
	return o != nil && o.IsHalfPaid != nil && *o.IsHalfPaid
}

func (o *Order) StatusValue() string {
	if o == nil {
		return ""
	}
	return Str(o.Status)
}
