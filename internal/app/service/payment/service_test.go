package payment

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/app/service/profile/profiletest"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway/gatewaytest"
	"github.com/fatflowers/billing/pkg/types"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *gatewaytest.Stub) {
	t.Helper()
	store, gw := memory.New(), gatewaytest.New()
	log := zap.NewNop().Sugar()
	ctx := context.Background()
	_, err := store.UpsertCustomer(ctx, &models.Customer{CustomerID: "cust_1", UserID: lo.ToPtr("u1")})
	require.NoError(t, err)
	for _, p := range []*models.Payment{
		{PaymentID: "pay_1", CustomerID: lo.ToPtr("cust_1"), InvoiceID: lo.ToPtr("inv_1"), Status: lo.ToPtr("captured"), Amount: lo.ToPtr(int64(49900))},
		{PaymentID: "pay_2", CustomerID: lo.ToPtr("cust_1"), Status: lo.ToPtr("authorized"), Amount: lo.ToPtr(int64(1000)), Currency: lo.ToPtr("INR")},
		{PaymentID: "pay_3", CustomerID: lo.ToPtr("cust_2"), Status: lo.ToPtr("failed")},
	} {
		_, err := store.UpsertPayment(ctx, p)
		require.NoError(t, err)
	}
	_, err = store.UpsertInvoice(ctx, &models.Invoice{InvoiceID: "inv_1", Status: lo.ToPtr("paid")})
	require.NoError(t, err)
	return NewService(store, gw, customer.NewService(store, gw, profiletest.New(), log), log), store, gw
}

func TestHistory(t *testing.T) {
	svc, _, _ := newTestService(t)
	list, err := svc.History(context.Background(), "u1")
	require.NoError(t, err)
	ids := lo.Map(list, func(p *models.Payment, _ int) string { return p.PaymentID })
	assert.ElementsMatch(t, []string{"pay_1", "pay_2"}, ids)
}

func TestInvoiceFor(t *testing.T) {
	svc, _, _ := newTestService(t)
	inv, err := svc.InvoiceFor(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "inv_1", inv.InvoiceID)

	_, err = svc.InvoiceFor(context.Background(), "pay_2")
	require.ErrorIs(t, err, ErrNoInvoice)
	_, err = svc.InvoiceFor(context.Background(), "pay_x")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestCapture(t *testing.T) {
	svc, _, gw := newTestService(t)
	gw.Payments["pay_2"] = gateway.Entity{"id": "pay_2", "status": "captured", "captured": true, "email": "x@y.z"}

	p, err := svc.Capture(context.Background(), "pay_2")
	require.NoError(t, err)
	assert.Equal(t, "captured", models.Str(p.Status))
	assert.Equal(t, int64(1000), *p.Amount)
	assert.Equal(t, []string{"payment.capture pay_2"}, gw.Calls)

	_, err = svc.Capture(context.Background(), "pay_1")
	require.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestRefresh(t *testing.T) {
	svc, store, gw := newTestService(t)
	gw.Payments["pay_9"] = gateway.Entity{"id": "pay_9", "status": "failed", "error_code": "BAD_REQUEST_ERROR"}

	_, err := svc.Refresh(context.Background(), "pay_9")
	require.NoError(t, err)
	p, err := store.GetPayment(context.Background(), "pay_9")
	require.NoError(t, err)
	require.NotNil(t, p.Error)
	assert.Equal(t, "BAD_REQUEST_ERROR", p.Error.Code)
}
