package customer

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/profile/profiletest"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway/gatewaytest"
	"github.com/fatflowers/billing/pkg/types"
)

func newTestService() (*Service, *memory.Store, *gatewaytest.Stub, *profiletest.Recorder) {
	store, gw, mirror := memory.New(), gatewaytest.New(), profiletest.New()
	return NewService(store, gw, mirror, zap.NewNop().Sugar()), store, gw, mirror
}

func TestCreate_FallsBackToIdentity(t *testing.T) {
	svc, _, gw, mirror := newTestService()
	gw.Created = gateway.Entity{"id": "cust_1", "name": "Asha", "email": "asha@example.com", "contact": "+911234567890", "notes": []any{}}

	c, err := svc.Create(context.Background(),
		Identity{UserID: "u1", Name: "asha", Email: "asha@example.com", Contact: "+911234567890"},
		Request{Name: lo.ToPtr("Asha")})
	require.NoError(t, err)

	assert.Equal(t, "Asha", gw.LastCustomer.Name)
	assert.Equal(t, "asha@example.com", gw.LastCustomer.Email)
	assert.Equal(t, "+911234567890", gw.LastCustomer.Contact)
	assert.Equal(t, "cust_1", c.CustomerID)
	assert.Equal(t, "u1", models.Str(c.UserID))
	assert.Equal(t, "cust_1", mirror.Customers["u1"])
}

func TestCreate_RequiresUser(t *testing.T) {
	svc, _, gw, _ := newTestService()
	_, err := svc.Create(context.Background(), Identity{}, Request{})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
	assert.Empty(t, gw.Calls)
}

func TestUpdate_SendsProvidedOrExisting(t *testing.T) {
	svc, store, gw, _ := newTestService()
	_, err := store.UpsertCustomer(context.Background(), &models.Customer{
		CustomerID: "cust_1", UserID: lo.ToPtr("u1"), Name: lo.ToPtr("Old"), Email: lo.ToPtr("old@example.com"),
	})
	require.NoError(t, err)
	gw.Customers["cust_1"] = gateway.Entity{"id": "cust_1", "name": "Old", "email": "new@example.com"}

	c, err := svc.Update(context.Background(), "cust_1", Request{Email: lo.ToPtr("new@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "Old", gw.LastCustomer.Name)
	assert.Equal(t, "new@example.com", gw.LastCustomer.Email)
	assert.Empty(t, gw.LastCustomer.Contact)
	assert.Equal(t, "new@example.com", models.Str(c.Email))
	assert.Equal(t, "u1", models.Str(c.UserID))
}

func TestUpdate_Unknown(t *testing.T) {
	svc, _, gw, _ := newTestService()
	_, err := svc.Update(context.Background(), "cust_x", Request{Name: lo.ToPtr("x")})
	require.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Empty(t, gw.Calls)
}

func TestResolveID(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ResolveID(ctx, "u1")
	require.ErrorIs(t, err, ErrNoCustomer)

	_, err = store.UpsertCustomer(ctx, &models.Customer{CustomerID: "cust_stored", UserID: lo.ToPtr("u1")})
	require.NoError(t, err)
	id, err := svc.ResolveID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "cust_stored", id)

	_, _, err = store.UpsertSubscription(ctx, &models.Subscription{UserID: "u1", SubscriptionID: "sub_1", CustomerID: lo.ToPtr("cust_sub"), Status: lo.ToPtr(types.SubscriptionStatusActive)})
	require.NoError(t, err)
	_, _, err = store.UpsertSubscription(ctx, &models.Subscription{UserID: "u1", SubscriptionID: "sub_2", Status: lo.ToPtr(types.SubscriptionStatusCreated)})
	require.NoError(t, err)
	id, err = svc.ResolveID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "cust_sub", id)
}
