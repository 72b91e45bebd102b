package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway/gatewaytest"
	"github.com/fatflowers/billing/pkg/types"
)

func TestCreate_StoresGatewayCopy(t *testing.T) {
	store, gw := memory.New(), gatewaytest.New()
	svc := NewService(store, gw, zap.NewNop().Sugar())
	gw.Created = gateway.Entity{
		"id": "plan_1", "period": "monthly", "interval": float64(1),
		"item":  map[string]any{"name": "Pro", "amount": float64(49900), "currency": "INR"},
		"notes": map[string]any{"tokens": "500"},
	}

	p, err := svc.Create(context.Background(), CreateRequest{
		Period: "monthly", Interval: 1,
		Item:  ItemRequest{Name: "Pro", Amount: 49900, Currency: "INR"},
		Notes: map[string]any{"tokens": "500"},
	})
	require.NoError(t, err)
	assert.Equal(t, "plan_1", p.PlanID)
	assert.Equal(t, int64(500), p.Tokens())
	assert.Equal(t, "Pro", gw.LastPlan.Name)

	got, err := svc.Get(context.Background(), "plan_1")
	require.NoError(t, err)
	assert.Equal(t, int64(49900), got.Item.Amount)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreate_EmptyNotesArray(t *testing.T) {
	store, gw := memory.New(), gatewaytest.New()
	svc := NewService(store, gw, zap.NewNop().Sugar())
	gw.Created = gateway.Entity{"id": "plan_2", "period": "weekly", "interval": 2, "notes": []any{}}

	p, err := svc.Create(context.Background(), CreateRequest{Period: "weekly", Interval: 2, Item: ItemRequest{Name: "W", Amount: 100, Currency: "INR"}})
	require.NoError(t, err)
	assert.NotNil(t, p.Notes)
	assert.Zero(t, p.Tokens())
}

func TestCreate_Invalid(t *testing.T) {
	store, gw := memory.New(), gatewaytest.New()
	svc := NewService(store, gw, zap.NewNop().Sugar())
	_, err := svc.Create(context.Background(), CreateRequest{Period: "monthly"})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	assert.Empty(t, gw.Calls)
}

func TestCreate_GatewayFailureStoresNothing(t *testing.T) {
	store, gw := memory.New(), gatewaytest.New()
	gw.Err = gateway.ErrGateway
	svc := NewService(store, gw, zap.NewNop().Sugar())
	_, err := svc.Create(context.Background(), CreateRequest{Period: "monthly", Interval: 1, Item: ItemRequest{Name: "Pro", Amount: 1, Currency: "INR"}})
	require.ErrorIs(t, err, gateway.ErrGateway)

	_, err = svc.Get(context.Background(), "plan_1")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
