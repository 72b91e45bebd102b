package types

type PaymentProvider string

const (
	PaymentProviderRazorpay PaymentProvider = "razorpay"
)

// TokenLogType classifies a balance-affecting operation.
type TokenLogType string

const (
	TokenLogTypeConsume TokenLogType = "consume"
	TokenLogTypeBonus   TokenLogType = "bonus"
	TokenLogTypeRefund  TokenLogType = "refund"
	TokenLogTypeTopup   TokenLogType = "topup"
)

type PaymentType string

const (
	PaymentTypeFull      PaymentType = "full"
	PaymentTypeHalf      PaymentType = "half"
	PaymentTypeRemaining PaymentType = "remaining"
)

type HalfPaymentStatus string

const (
	HalfPaymentStatusPending       HalfPaymentStatus = "pending"
	HalfPaymentStatusNotApplicable HalfPaymentStatus = "not_applicable"
	HalfPaymentStatusCreated       HalfPaymentStatus = "created"
	HalfPaymentStatusPaid          HalfPaymentStatus = "paid"
)

const OrderStatusPaid = "paid"

// InvoiceNotifyBlocked lists invoice statuses that cannot be re-sent.
var InvoiceNotifyBlocked = []string{"paid", "cancelled", "expired"}

var InvoiceNotifyMediums = []string{"email", "sms"}
