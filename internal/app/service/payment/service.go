package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/notification"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/types"
)

var ErrNoInvoice = errors.New("payment: no invoice linked")

type Service struct {
	store     ledger.Store
	gw        gateway.Gateway
	customers *customer.Service
	log       *zap.SugaredLogger
}

func NewService(store ledger.Store, gw gateway.Gateway, customers *customer.Service, log *zap.SugaredLogger) *Service {
	return &Service{store: store, gw: gw, customers: customers, log: log}
}

// History lists the stored payments of the user's gateway customer.
func (s *Service) History(ctx context.Context, userID string) ([]*models.Payment, error) {
	customerID, err := s.customers.ResolveID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, ledger.PaymentFilter{CustomerID: customerID})
}

func (s *Service) InvoiceFor(ctx context.Context, paymentID string) (*models.Invoice, error) {
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	invoiceID := models.Str(p.InvoiceID)
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: payment %s", ErrNoInvoice, paymentID)
	}
	return s.store.GetInvoice(ctx, invoiceID)
}

// Capture captures an authorized payment for its full stored amount and
// stores the gateway's answer.
func (s *Service) Capture(ctx context.Context, paymentID string) (*models.Payment, error) {
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if models.Str(p.Status) != "authorized" || p.Amount == nil {
		return nil, fmt.Errorf("%w: payment %s is %q, not authorized", types.ErrInvalidRequest, paymentID, models.Str(p.Status))
	}
	ent, err := s.gw.CapturePayment(ctx, paymentID, *p.Amount, models.Str(p.Currency))
	if err != nil {
		return nil, err
	}
	out, err := s.store.UpsertPayment(ctx, extract(ent, paymentID))
	if err != nil {
		return nil, fmt.Errorf("save payment %s: %w", paymentID, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("payment_captured", "payment_id", paymentID, "amount", *p.Amount)
	return out, nil
}

// Refresh pulls the gateway's copy of a payment into the ledger.
func (s *Service) Refresh(ctx context.Context, paymentID string) (*models.Payment, error) {
	ent, err := s.gw.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.UpsertPayment(ctx, extract(ent, paymentID))
	if err != nil {
		return nil, fmt.Errorf("save payment %s: %w", paymentID, err)
	}
	return out, nil
}

func extract(ent gateway.Entity, paymentID string) *models.Payment {
	e, err := notification.Decode[notification.PaymentEntity](ent)
	if err != nil {
		return &models.Payment{PaymentID: paymentID}
	}
	p := notification.ExtractPayment(e, "")
	if p.PaymentID == "" {
		p.PaymentID = paymentID
	}
	return p
}
