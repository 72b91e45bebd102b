// Package ledgertest holds the behavioural contract every ledger.Store
// backend must satisfy.
package ledgertest

import (
	"context"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

// Run exercises newStore against the ledger contract. newStore must return an
// empty, migrated store; ids are randomised so shared databases stay usable.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Run("ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
	t.Run("subscription partial upsert", func(t *testing.T) { testSubscriptionUpsert(t, newStore(t)) })
	t.Run("invoice fields fill in", func(t *testing.T) { testInvoiceUpsert(t, newStore(t)) })
	t.Run("plan save and get", func(t *testing.T) { testPlans(t, newStore(t)) })
	t.Run("guarded token delta", func(t *testing.T) { testTokenDelta(t, newStore(t)) })
	t.Run("failed log write leaves balance untouched", func(t *testing.T) { testTokenLogFailure(t, newStore(t)) })
	t.Run("concurrent consume never overdraws", func(t *testing.T) { testConcurrentConsume(t, newStore(t)) })
	t.Run("claimed allocation applies once", func(t *testing.T) { testClaimTokenAllocation(t, newStore(t)) })
}

func uniq(prefix string) string {
	return prefix + "_" + tool.GenerateUUIDV7()
}

func testSubscriptionUpsert(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	user, subID := uniq("u"), uniq("sub")

	before, after, err := s.UpsertSubscription(ctx, &models.Subscription{
		UserID:          user,
		SubscriptionID:  subID,
		Status:          lo.ToPtr(types.SubscriptionStatusCreated),
		PlanID:          lo.ToPtr("plan_x"),
		TokensAllocated: lo.ToPtr(int64(500)),
		Notes:           datatypes.JSONMap{"userId": user},
	})
	require.NoError(t, err)
	assert.Nil(t, before)
	assert.Equal(t, types.SubscriptionStatusCreated, after.StatusValue())

	before, after, err = s.UpsertSubscription(ctx, &models.Subscription{
		UserID:         user,
		SubscriptionID: subID,
		Status:         lo.ToPtr(types.SubscriptionStatusActive),
	})
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, types.SubscriptionStatusCreated, before.StatusValue())
	assert.Equal(t, types.SubscriptionStatusActive, after.StatusValue())
	assert.Equal(t, "plan_x", models.Str(after.PlanID))
	require.NotNil(t, after.TokensAllocated)
	assert.Equal(t, int64(500), *after.TokensAllocated)

	list, err := s.ListSubscriptions(ctx, ledger.SubscriptionFilter{UserID: user})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testInvoiceUpsert(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	id := uniq("inv")
	_, err := s.UpsertInvoice(ctx, &models.Invoice{InvoiceID: id, Status: lo.ToPtr("issued"), Amount: lo.ToPtr(int64(49900))})
	require.NoError(t, err)
	got, err := s.UpsertInvoice(ctx, &models.Invoice{InvoiceID: id, Status: lo.ToPtr("paid"), AmountPaid: lo.ToPtr(int64(49900))})
	require.NoError(t, err)
	assert.Equal(t, "paid", models.Str(got.Status))
	require.NotNil(t, got.Amount)
	assert.Equal(t, int64(49900), *got.Amount)

	_, err = s.GetInvoice(ctx, uniq("missing"))
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func testPlans(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	id := uniq("plan")
	require.NoError(t, s.SavePlan(ctx, &models.Plan{PlanID: id, Period: "monthly", Interval: 1, Notes: datatypes.JSONMap{"tokens": 500}}))
	p, err := s.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), p.Tokens())
	assert.Equal(t, "monthly", p.Period)
}

func testTokenDelta(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	user := uniq("u")

	_, err := s.ApplyTokenDelta(ctx, user, 10, &models.TokenLog{UserID: user, Type: types.TokenLogTypeBonus, Tokens: 10})
	require.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = s.ReplaceTokenBalance(ctx,
		&models.TokenBalance{UserID: user, CurrentTokens: 100, TotalAllocated: 100, CycleStart: "20250101000000000", CycleEnd: "20250201000000000"},
		&models.TokenLog{UserID: user, Type: types.TokenLogTypeTopup, Tokens: 100, Timestamp: "20250101000000000"})
	require.NoError(t, err)

	bal, err := s.ApplyTokenDelta(ctx, user, -40, &models.TokenLog{UserID: user, Type: types.TokenLogTypeConsume, Tokens: 40, Timestamp: "20250102000000000"})
	require.NoError(t, err)
	assert.Equal(t, int64(60), bal.CurrentTokens)

	_, err = s.ApplyTokenDelta(ctx, user, -61, &models.TokenLog{UserID: user, Type: types.TokenLogTypeConsume, Tokens: 61, Timestamp: "20250103000000000"})
	require.ErrorIs(t, err, ledger.ErrInsufficientTokens)

	bal, err = s.GetTokenBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(60), bal.CurrentTokens)
	assert.Equal(t, int64(100), bal.TotalAllocated)

	logs, err := s.ListTokenLogs(ctx, user, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, types.TokenLogTypeConsume, logs[0].Type)
	assert.Equal(t, types.TokenLogTypeTopup, logs[1].Type)
}

// A reused log id makes the log write fail after the balance update has been
// prepared; the balance and the log trail must both stay as they were.
func testTokenLogFailure(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	user := uniq("u")
	logID := tool.GenerateUUIDV7()

	_, err := s.ReplaceTokenBalance(ctx,
		&models.TokenBalance{UserID: user, CurrentTokens: 100, TotalAllocated: 100},
		&models.TokenLog{ID: logID, UserID: user, Type: types.TokenLogTypeTopup, Tokens: 100, Timestamp: "20250101000000000"})
	require.NoError(t, err)

	_, err = s.ApplyTokenDelta(ctx, user, -30, &models.TokenLog{ID: logID, UserID: user, Type: types.TokenLogTypeConsume, Tokens: 30, Timestamp: "20250102000000000"})
	require.Error(t, err)

	_, err = s.ReplaceTokenBalance(ctx,
		&models.TokenBalance{UserID: user, CurrentTokens: 500, TotalAllocated: 500},
		&models.TokenLog{ID: logID, UserID: user, Type: types.TokenLogTypeTopup, Tokens: 500, Timestamp: "20250103000000000"})
	require.Error(t, err)

	bal, err := s.GetTokenBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.CurrentTokens)
	assert.Equal(t, int64(100), bal.TotalAllocated)

	logs, err := s.ListTokenLogs(ctx, user, 50)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, types.TokenLogTypeTopup, logs[0].Type)
}

func testConcurrentConsume(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	user := uniq("u")
	_, err := s.ReplaceTokenBalance(ctx, &models.TokenBalance{UserID: user, CurrentTokens: 10, TotalAllocated: 10}, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyTokenDelta(ctx, user, -1, &models.TokenLog{UserID: user, Type: types.TokenLogTypeConsume, Tokens: 1, Timestamp: "20250101000000000"})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	bal, err := s.GetTokenBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 10, ok)
	assert.Zero(t, bal.CurrentTokens)
}

func testClaimTokenAllocation(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	user := uniq("u")
	claim := func() *models.ProcessedEvent {
		return &models.ProcessedEvent{ProviderID: string(types.PaymentProviderRazorpay), EventID: "evt_" + user, EntityID: "sub_1"}
	}
	grant := func(tokens int64) (*models.TokenBalance, *models.TokenLog) {
		return &models.TokenBalance{UserID: user, CurrentTokens: tokens, TotalAllocated: tokens},
			&models.TokenLog{UserID: user, Type: types.TokenLogTypeTopup, Tokens: tokens, Timestamp: "20250101000000000"}
	}

	bal, log := grant(500)
	out, err := s.ClaimTokenAllocation(ctx, claim(), bal, log)
	require.NoError(t, err)
	assert.Equal(t, int64(500), out.CurrentTokens)

	bal, log = grant(900)
	_, err = s.ClaimTokenAllocation(ctx, claim(), bal, log)
	require.ErrorIs(t, err, ledger.ErrDuplicate)

	got, err := s.GetTokenBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.CurrentTokens)
	logs, err := s.ListTokenLogs(ctx, user, 50)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	// A failed balance write rolls the claim back with it.
	other := uniq("u")
	failing := &models.ProcessedEvent{ProviderID: string(types.PaymentProviderRazorpay), EventID: "evt_" + other}
	logID := tool.GenerateUUIDV7()
	_, err = s.ReplaceTokenBalance(ctx, &models.TokenBalance{UserID: other, CurrentTokens: 1, TotalAllocated: 1},
		&models.TokenLog{ID: logID, UserID: other, Type: types.TokenLogTypeTopup, Tokens: 1, Timestamp: "20250101000000000"})
	require.NoError(t, err)
	_, err = s.ClaimTokenAllocation(ctx, failing, &models.TokenBalance{UserID: other, CurrentTokens: 50, TotalAllocated: 50},
		&models.TokenLog{ID: logID, UserID: other, Type: types.TokenLogTypeTopup, Tokens: 50, Timestamp: "20250102000000000"})
	require.Error(t, err)

	retry := &models.ProcessedEvent{ProviderID: string(types.PaymentProviderRazorpay), EventID: "evt_" + other}
	out, err = s.ClaimTokenAllocation(ctx, retry, &models.TokenBalance{UserID: other, CurrentTokens: 50, TotalAllocated: 50},
		&models.TokenLog{UserID: other, Type: types.TokenLogTypeTopup, Tokens: 50, Timestamp: "20250102000000000"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), out.CurrentTokens)
}
