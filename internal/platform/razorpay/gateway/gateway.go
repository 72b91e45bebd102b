// Package gateway is the ctx-aware facade over the Razorpay REST API.
package gateway

import (
	"context"
	"errors"
)

var (
	// ErrGateway marks a transient gateway failure: timeout, transport error or
	// an error response. Callers may retry.
	ErrGateway = errors.New("gateway: request failed")
	// ErrNotConfigured is returned by every call when no API key is set.
	ErrNotConfigured = errors.New("gateway: api key not configured")
)

// Entity is a raw gateway response object.
type Entity = map[string]any

type OrderRequest struct {
	// Amount in the currency's minor unit.
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]any
}

type SubscriptionRequest struct {
	PlanID         string
	TotalCount     int
	Quantity       int
	CustomerNotify bool
	CustomerID     string
	// StartAt is a unix timestamp; zero lets the gateway start immediately.
	StartAt int64
	Notes   map[string]any
}

type PlanRequest struct {
	Period      string
	Interval    int
	Name        string
	Amount      int64
	Currency    string
	Description string
	Notes       map[string]any
}

type CustomerRequest struct {
	Name    string
	Contact string
	Email   string
	Notes   map[string]any
	// FailExisting false makes create return the existing customer for a
	// duplicate email or contact.
	FailExisting bool
}

// Gateway lists the gateway operations the service relies on.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Entity, error)
	FetchOrder(ctx context.Context, orderID string) (Entity, error)
	FetchOrderPayments(ctx context.Context, orderID string) (Entity, error)

	CreateSubscription(ctx context.Context, req SubscriptionRequest) (Entity, error)
	FetchSubscription(ctx context.Context, subscriptionID string) (Entity, error)
	EditSubscription(ctx context.Context, subscriptionID string, fields map[string]any) (Entity, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (Entity, error)
	PauseSubscription(ctx context.Context, subscriptionID string) (Entity, error)
	ResumeSubscription(ctx context.Context, subscriptionID string) (Entity, error)

	CreatePlan(ctx context.Context, req PlanRequest) (Entity, error)

	FetchPayment(ctx context.Context, paymentID string) (Entity, error)
	CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (Entity, error)

	CreateCustomer(ctx context.Context, req CustomerRequest) (Entity, error)
	EditCustomer(ctx context.Context, customerID string, req CustomerRequest) (Entity, error)
	FetchCustomer(ctx context.Context, customerID string) (Entity, error)

	FetchInvoice(ctx context.Context, invoiceID string) (Entity, error)
	NotifyInvoice(ctx context.Context, invoiceID, medium string) (Entity, error)
}

func (r OrderRequest) body() map[string]any {
	out := map[string]any{"amount": r.Amount, "currency": r.Currency}
	if r.Receipt != "" {
		out["receipt"] = r.Receipt
	}
	if len(r.Notes) > 0 {
		out["notes"] = r.Notes
	}
	return out
}

func (r SubscriptionRequest) body() map[string]any {
	out := map[string]any{
		"plan_id":         r.PlanID,
		"total_count":     r.TotalCount,
		"quantity":        r.Quantity,
		"customer_notify": boolFlag(r.CustomerNotify),
	}
	if r.CustomerID != "" {
		out["customer_id"] = r.CustomerID
	}
	if r.StartAt > 0 {
		out["start_at"] = r.StartAt
	}
	if len(r.Notes) > 0 {
		out["notes"] = r.Notes
	}
	return out
}

func (r PlanRequest) body() map[string]any {
	item := map[string]any{"name": r.Name, "amount": r.Amount, "currency": r.Currency}
	if r.Description != "" {
		item["description"] = r.Description
	}
	out := map[string]any{"period": r.Period, "interval": r.Interval, "item": item}
	if len(r.Notes) > 0 {
		out["notes"] = r.Notes
	}
	return out
}

// body only carries the fields that are set so an edit never blanks a value.
func (r CustomerRequest) body() map[string]any {
	out := map[string]any{}
	if r.Name != "" {
		out["name"] = r.Name
	}
	if r.Contact != "" {
		out["contact"] = r.Contact
	}
	if r.Email != "" {
		out["email"] = r.Email
	}
	if len(r.Notes) > 0 {
		out["notes"] = r.Notes
	}
	return out
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
