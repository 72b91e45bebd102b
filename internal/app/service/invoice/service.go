package invoice

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/notification"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/types"
)

// ErrNotifyBlocked is returned when the invoice is already settled.
var ErrNotifyBlocked = errors.New("invoice: notification not allowed in current status")

type Service struct {
	store     ledger.Store
	gw        gateway.Gateway
	customers *customer.Service
	log       *zap.SugaredLogger
}

func NewService(store ledger.Store, gw gateway.Gateway, customers *customer.Service, log *zap.SugaredLogger) *Service {
	return &Service{store: store, gw: gw, customers: customers, log: log}
}

// BySubscription lists the stored invoices of one of userID's subscriptions.
func (s *Service) BySubscription(ctx context.Context, userID, subscriptionID string) ([]*models.Invoice, error) {
	if _, err := s.store.GetSubscription(ctx, userID, subscriptionID); err != nil {
		return nil, err
	}
	return s.store.ListInvoices(ctx, ledger.InvoiceFilter{SubscriptionID: subscriptionID})
}

func (s *Service) Get(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	return s.store.GetInvoice(ctx, invoiceID)
}

// ListForUser lists invoices of the user's gateway customer.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Invoice, error) {
	customerID, err := s.customers.ResolveID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListInvoices(ctx, ledger.InvoiceFilter{CustomerID: customerID})
}

// Notify asks the gateway to resend the invoice by email or sms. The
// gateway's current copy decides whether the invoice is still payable and
// refreshes the stored one.
func (s *Service) Notify(ctx context.Context, invoiceID, medium string) (map[string]any, error) {
	if !slices.Contains(types.InvoiceNotifyMediums, medium) {
		return nil, fmt.Errorf("%w: medium must be one of %v", types.ErrInvalidRequest, types.InvoiceNotifyMediums)
	}
	log := logctx.FromCtx(ctx, s.log).With("invoice_id", invoiceID, "medium", medium)

	ent, err := s.gw.FetchInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv, err := notification.Decode[notification.InvoiceEntity](ent)
	if err != nil {
		return nil, fmt.Errorf("%w: decode invoice %s: %v", gateway.ErrGateway, invoiceID, err)
	}
	if row := notification.ExtractInvoice(inv, ""); row != nil && row.InvoiceID != "" {
		if _, err := s.store.UpsertInvoice(ctx, row); err != nil {
			log.Warnw("invoice_refresh_failed", "err", err)
		}
	}
	if status := models.Str(inv.Status); slices.Contains(types.InvoiceNotifyBlocked, status) {
		log.Warnw("invoice_notify_blocked", "status", status)
		return nil, fmt.Errorf("%w: %s", ErrNotifyBlocked, status)
	}

	out, err := s.gw.NotifyInvoice(ctx, invoiceID, medium)
	if err != nil {
		return nil, err
	}
	log.Infow("invoice_notified")
	return out, nil
}
