package ledger

import (
	"context"
	"errors"

	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/types"
)

var (
	ErrNotFound           = errors.New("ledger: record not found")
	ErrInsufficientTokens = errors.New("ledger: insufficient tokens")
	ErrDuplicate          = errors.New("ledger: duplicate record")
)

type SubscriptionFilter struct {
	UserID   string
	Statuses []types.SubscriptionStatus
	// Limit 0 means no limit.
	Limit int
}

type InvoiceFilter struct {
	SubscriptionID string
	CustomerID     string
}

type PaymentFilter struct {
	CustomerID string
	OrderID    string
}

type OrderFilter struct {
	UserID string
}

type CustomerFilter struct {
	UserID string
}

// Store is the persistence contract of the billing ledger. Upserts are partial:
// only present (non-nil) fields of the argument are written, keyed by the
// record's natural key.
type Store interface {
	UpsertSubscription(ctx context.Context, sub *models.Subscription) (before, after *models.Subscription, err error)
	GetSubscription(ctx context.Context, userID, subscriptionID string) (*models.Subscription, error)
	FindSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]*models.Subscription, error)
	AppendSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error

	SavePlan(ctx context.Context, plan *models.Plan) error
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)

	UpsertCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*models.Customer, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]*models.Customer, error)

	UpsertInvoice(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*models.Invoice, error)

	UpsertPayment(ctx context.Context, p *models.Payment) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]*models.Payment, error)

	CreateOrder(ctx context.Context, o *models.Order) error
	// UpdateOrder applies the present fields of patch to the order with our id.
	UpdateOrder(ctx context.Context, id string, patch *models.Order) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// FindOrderByGatewayID matches either the first or the second gateway order id.
	FindOrderByGatewayID(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error)

	GetTokenBalance(ctx context.Context, userID string) (*models.TokenBalance, error)
	// ReplaceTokenBalance overwrites (or creates) the user's balance and appends log.
	ReplaceTokenBalance(ctx context.Context, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error)
	// ApplyTokenDelta adds delta to current tokens in one conditional write that
	// fails with ErrInsufficientTokens when the result would be negative. The log
	// is appended only when the write succeeds.
	ApplyTokenDelta(ctx context.Context, userID string, delta int64, log *models.TokenLog) (*models.TokenBalance, error)
	// ListTokenLogs returns the newest logs first.
	ListTokenLogs(ctx context.Context, userID string, limit int) ([]*models.TokenLog, error)
	// ListTokenLogsBetween returns logs with from <= timestamp < to, oldest first.
	ListTokenLogsBetween(ctx context.Context, from, to string) ([]*models.TokenLog, error)

	// ClaimTokenAllocation records ev and replaces the balance in one atomic
	// write. When ev was already claimed it fails with ErrDuplicate and changes
	// nothing; when any part fails, neither the claim nor the balance persists.
	ClaimTokenAllocation(ctx context.Context, ev *models.ProcessedEvent, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error)
	SaveWebhookLog(ctx context.Context, log *models.WebhookLog) error

	Migrate(ctx context.Context) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
