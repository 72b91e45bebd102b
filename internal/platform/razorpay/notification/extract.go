package notification

import (
	"encoding/json"

	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/cycle"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

const paymentStatusFailed = "failed"

// timestamp renders an epoch as a 17-digit cycle string; nil when absent or
// unparseable.
func timestamp(n *json.Number) *string {
	if n == nil {
		return nil
	}
	s := cycle.Normalize(*n)
	if s == "" {
		return nil
	}
	return &s
}

// UserID returns notes.userId, or "" when missing.
func (n Notes) UserID() string {
	if n == nil {
		return ""
	}
	return tool.ToString(n["userId"])
}

// ExtractSubscription maps the entity onto a partial subscription. The
// result's UserID comes from notes.userId; callers treat "" as not actionable.
func ExtractSubscription(e *SubscriptionEntity, eventType string) *models.Subscription {
	if e == nil {
		return nil
	}
	sub := &models.Subscription{
		UserID:                 e.Notes.UserID(),
		SubscriptionID:         e.ID,
		CustomerID:             e.CustomerID,
		PlanID:                 e.PlanID,
		TokensAllocated:        lo.ToPtr(tool.ToInt64(e.Notes["tokens"])),
		UserCount:              lo.ToPtr(lo.FromPtrOr(e.Quantity, 1)),
		SubscriptionStartTime:  timestamp(e.StartAt),
		SubscriptionEndTime:    timestamp(e.EndAt),
		NextBillingDate:        timestamp(e.ChargeAt),
		AuthExpiryTime:         timestamp(e.ExpireBy),
		TotalBillingCycles:     e.TotalCount,
		CompletedBillingCycles: e.PaidCount,
		RemainingBillingCycles: e.RemainingCount,
		CustomerNotify:         e.CustomerNotify,
		AuthPaymentURL:         e.ShortURL,
	}
	if e.Status != nil {
		sub.Status = lo.ToPtr(types.SubscriptionStatus(*e.Status))
	}
	if len(e.Notes) > 0 {
		sub.Notes = datatypes.JSONMap(e.Notes)
	}
	if eventType != "" {
		sub.EventType = &eventType
	}
	return sub
}

func ExtractInvoice(e *InvoiceEntity, eventType string) *models.Invoice {
	if e == nil {
		return nil
	}
	inv := &models.Invoice{
		InvoiceID:        e.ID,
		SubscriptionID:   e.SubscriptionID,
		CustomerID:       e.CustomerID,
		OrderID:          e.OrderID,
		PaymentID:        e.PaymentID,
		Status:           e.Status,
		Type:             e.Type,
		Amount:           e.Amount,
		AmountPaid:       e.AmountPaid,
		AmountDue:        e.AmountDue,
		Currency:         e.Currency,
		TaxAmount:        e.TaxAmount,
		TaxableAmount:    e.TaxableAmount,
		GrossAmount:      e.GrossAmount,
		IssuedAt:         timestamp(e.IssuedAt),
		PaidAt:           timestamp(e.PaidAt),
		GatewayCreatedAt: timestamp(e.CreatedAt),
	}
	if eventType != "" {
		inv.EventType = &eventType
	}
	return inv
}

func ExtractPayment(e *PaymentEntity, eventType string) *models.Payment {
	if e == nil {
		return nil
	}
	p := &models.Payment{
		PaymentID:        e.ID,
		Status:           e.Status,
		Method:           e.Method,
		Amount:           e.Amount,
		Currency:         e.Currency,
		OrderID:          e.OrderID,
		InvoiceID:        e.InvoiceID,
		CustomerID:       e.CustomerID,
		Captured:         e.Captured,
		Fee:              e.Fee,
		Tax:              e.Tax,
		GatewayCreatedAt: timestamp(e.CreatedAt),
	}
	if e.Card != nil {
		p.Card = &models.PaymentCard{
			Last4:       string(e.Card.Last4),
			Network:     string(e.Card.Network),
			Type:        string(e.Card.Type),
			Issuer:      string(e.Card.Issuer),
			ExpiryMonth: string(e.Card.ExpiryMonth),
			ExpiryYear:  string(e.Card.ExpiryYear),
		}
	}
	if lo.FromPtr(e.Status) == paymentStatusFailed {
		p.Error = &models.PaymentError{
			Code:        lo.FromPtr(e.ErrorCode),
			Description: lo.FromPtr(e.ErrorDescription),
			Source:      lo.FromPtr(e.ErrorSource),
			Step:        lo.FromPtr(e.ErrorStep),
			Reason:      lo.FromPtr(e.ErrorReason),
		}
	}
	if eventType != "" {
		p.EventType = &eventType
	}
	return p
}
