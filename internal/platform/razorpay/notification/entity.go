package notification

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Notes is the gateway's free-form notes object. The gateway sends an empty
// array instead of an empty object, so anything that is not an object decodes
// to nil.
type Notes map[string]any

func (n *Notes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*n = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*n = m
	return nil
}

// Text accepts a JSON string or number.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(strings.Trim(string(b), " "))
	return nil
}

type SubscriptionEntity struct {
	ID             string       `json:"id"`
	PlanID         *string      `json:"plan_id"`
	CustomerID     *string      `json:"customer_id"`
	Status         *string      `json:"status"`
	Quantity       *int64       `json:"quantity"`
	Notes          Notes        `json:"notes"`
	ChargeAt       *json.Number `json:"charge_at"`
	StartAt        *json.Number `json:"start_at"`
	EndAt          *json.Number `json:"end_at"`
	TotalCount     *int64       `json:"total_count"`
	PaidCount      *int64       `json:"paid_count"`
	RemainingCount *int64       `json:"remaining_count"`
	ExpireBy       *json.Number `json:"expire_by"`
	CustomerNotify *bool        `json:"customer_notify"`
	ShortURL       *string      `json:"short_url"`
}

type InvoiceEntity struct {
	ID             string       `json:"id"`
	Type           *string      `json:"type"`
	SubscriptionID *string      `json:"subscription_id"`
	CustomerID     *string      `json:"customer_id"`
	OrderID        *string      `json:"order_id"`
	PaymentID      *string      `json:"payment_id"`
	Status         *string      `json:"status"`
	Amount         *int64       `json:"amount"`
	AmountPaid     *int64       `json:"amount_paid"`
	AmountDue      *int64       `json:"amount_due"`
	Currency       *string      `json:"currency"`
	TaxAmount      *int64       `json:"tax_amount"`
	TaxableAmount  *int64       `json:"taxable_amount"`
	GrossAmount    *int64       `json:"gross_amount"`
	IssuedAt       *json.Number `json:"issued_at"`
	PaidAt         *json.Number `json:"paid_at"`
	CreatedAt      *json.Number `json:"created_at"`
}

type CardEntity struct {
	Last4       Text `json:"last4"`
	Network     Text `json:"network"`
	Type        Text `json:"type"`
	Issuer      Text `json:"issuer"`
	ExpiryMonth Text `json:"expiry_month"`
	ExpiryYear  Text `json:"expiry_year"`
}

// PaymentEntity deliberately omits email, contact, token_id and card_id.
type PaymentEntity struct {
	ID               string       `json:"id"`
	Status           *string      `json:"status"`
	Method           *string      `json:"method"`
	Amount           *int64       `json:"amount"`
	Currency         *string      `json:"currency"`
	OrderID          *string      `json:"order_id"`
	InvoiceID        *string      `json:"invoice_id"`
	CustomerID       *string      `json:"customer_id"`
	Captured         *bool        `json:"captured"`
	Fee              *int64       `json:"fee"`
	Tax              *int64       `json:"tax"`
	CreatedAt        *json.Number `json:"created_at"`
	Card             *CardEntity  `json:"card"`
	ErrorCode        *string      `json:"error_code"`
	ErrorDescription *string      `json:"error_description"`
	ErrorSource      *string      `json:"error_source"`
	ErrorStep        *string      `json:"error_step"`
	ErrorReason      *string      `json:"error_reason"`
}
