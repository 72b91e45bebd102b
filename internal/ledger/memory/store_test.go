package memory

import (
	"context"
	"testing"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/ledgertest"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	ledgertest.Run(t, func(*testing.T) ledger.Store { return New() })
}

func TestUpsertSubscription_PartialMerge(t *testing.T) {
	ctx := context.Background()
	s := New()

	before, after, err := s.UpsertSubscription(ctx, &models.Subscription{
		UserID:         "u1",
		SubscriptionID: "sub_1",
		Status:         lo.ToPtr(types.SubscriptionStatusCreated),
		PlanID:         lo.ToPtr("plan_1"),
	})
	require.NoError(t, err)
	assert.Nil(t, before)
	require.NotEmpty(t, after.ID)

	before, after, err = s.UpsertSubscription(ctx, &models.Subscription{
		UserID:         "u1",
		SubscriptionID: "sub_1",
		Status:         lo.ToPtr(types.SubscriptionStatusActive),
	})
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, types.SubscriptionStatusCreated, before.StatusValue())
	assert.Equal(t, types.SubscriptionStatusActive, after.StatusValue())
	assert.Equal(t, "plan_1", models.Str(after.PlanID))

	got, err := s.FindSubscription(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, after.ID, got.ID)

	_, err = s.GetSubscription(ctx, "u2", "sub_1")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestListSubscriptions_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		_, _, err := s.UpsertSubscription(ctx, &models.Subscription{UserID: "u1", SubscriptionID: id, Status: lo.ToPtr(types.SubscriptionStatusActive)})
		require.NoError(t, err)
	}
	_, _, err := s.UpsertSubscription(ctx, &models.Subscription{UserID: "u1", SubscriptionID: "d", Status: lo.ToPtr(types.SubscriptionStatusCancelled)})
	require.NoError(t, err)

	list, err := s.ListSubscriptions(ctx, ledger.SubscriptionFilter{UserID: "u1", Statuses: []types.SubscriptionStatus{types.SubscriptionStatusActive}})
	require.NoError(t, err)
	ids := lo.Map(list, func(s *models.Subscription, _ int) string { return s.SubscriptionID })
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	list, err = s.ListSubscriptions(ctx, ledger.SubscriptionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "d", list[0].SubscriptionID)
}

func TestApplyTokenDelta(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		start   int64
		delta   int64
		want    int64
		wantErr error
		logs    int
	}{
		{name: "bonus", start: 10, delta: 5, want: 15, logs: 2},
		{name: "consume to zero", start: 10, delta: -10, want: 0, logs: 2},
		{name: "consume beyond balance", start: 10, delta: -11, want: 10, wantErr: ledger.ErrInsufficientTokens, logs: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			_, err := s.ReplaceTokenBalance(ctx,
				&models.TokenBalance{UserID: "u1", CurrentTokens: tc.start, TotalAllocated: tc.start},
				&models.TokenLog{UserID: "u1", Type: types.TokenLogTypeTopup, Tokens: tc.start, Timestamp: "20250101000000000"})
			require.NoError(t, err)

			_, err = s.ApplyTokenDelta(ctx, "u1", tc.delta, &models.TokenLog{UserID: "u1", Type: types.TokenLogTypeBonus, Tokens: abs(tc.delta), Timestamp: "20250102000000000"})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			bal, err := s.GetTokenBalance(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, bal.CurrentTokens)
			assert.Len(t, s.TokenLogs(), tc.logs)
		})
	}
}

func TestApplyTokenDelta_MissingBalance(t *testing.T) {
	s := New()
	_, err := s.ApplyTokenDelta(context.Background(), "nobody", 5, &models.TokenLog{UserID: "nobody"})
	require.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Zero(t, s.Writes())
}

func TestListTokenLogs_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.ReplaceTokenBalance(ctx, &models.TokenBalance{UserID: "u1", CurrentTokens: 100}, &models.TokenLog{UserID: "u1", Reason: "first", Timestamp: "20250101000000000"})
	require.NoError(t, err)
	for _, reason := range []string{"second", "third"} {
		_, err := s.ApplyTokenDelta(ctx, "u1", -1, &models.TokenLog{UserID: "u1", Reason: reason, Timestamp: "20250102000000000"})
		require.NoError(t, err)
	}

	logs, err := s.ListTokenLogs(ctx, "u1", 2)
	require.NoError(t, err)
	reasons := lo.Map(logs, func(l *models.TokenLog, _ int) string { return l.Reason })
	assert.Equal(t, []string{"third", "second"}, reasons)

	between, err := s.ListTokenLogsBetween(ctx, "20250101000000000", "20250102000000000")
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "first", between[0].Reason)
}

func TestClaimTokenAllocation_PerProvider(t *testing.T) {
	ctx := context.Background()
	s := New()
	bal := &models.TokenBalance{UserID: "u1", CurrentTokens: 100, TotalAllocated: 100}

	_, err := s.ClaimTokenAllocation(ctx, &models.ProcessedEvent{ProviderID: "razorpay", EventID: "evt_1"}, bal, nil)
	require.NoError(t, err)
	_, err = s.ClaimTokenAllocation(ctx, &models.ProcessedEvent{ProviderID: "razorpay", EventID: "evt_1"}, bal, nil)
	require.ErrorIs(t, err, ledger.ErrDuplicate)
	_, err = s.ClaimTokenAllocation(ctx, &models.ProcessedEvent{ProviderID: "other", EventID: "evt_1"}, bal, nil)
	require.NoError(t, err)

	assert.True(t, s.Processed("razorpay", "evt_1"))
	assert.True(t, s.Processed("other", "evt_1"))
	assert.False(t, s.Processed("razorpay", "evt_2"))
	assert.Equal(t, 2, s.Writes())
}

func TestOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := &models.Order{OrderID: "order_1", UserID: "u1", Amount: 1000, Currency: "INR"}
	require.NoError(t, s.CreateOrder(ctx, o))
	require.NotEmpty(t, o.ID)
	require.ErrorIs(t, s.CreateOrder(ctx, &models.Order{OrderID: "order_1"}), ledger.ErrDuplicate)

	updated, err := s.UpdateOrder(ctx, o.ID, &models.Order{SecondOrderID: lo.ToPtr("order_2"), Status: lo.ToPtr("paid")})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), updated.Amount)
	assert.Equal(t, "paid", updated.StatusValue())

	found, err := s.FindOrderByGatewayID(ctx, "order_2")
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)

	_, err = s.UpdateOrder(ctx, "missing", &models.Order{})
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
