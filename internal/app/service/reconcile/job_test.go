package reconcile

import (
	"context"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/profile/profiletest"
	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway/gatewaytest"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/types"
)

func TestRun_SyncsOpenSubscriptions(t *testing.T) {
	ctx := context.Background()
	store, gw := memory.New(), gatewaytest.New()
	log := zap.NewNop().Sugar()
	subs := subscription.NewService(store, gw, profiletest.New(), log)

	for id, st := range map[string]types.SubscriptionStatus{
		"sub_active":    types.SubscriptionStatusActive,
		"sub_created":   types.SubscriptionStatusCreated,
		"sub_cancelled": types.SubscriptionStatusCancelled,
	} {
		_, _, err := store.UpsertSubscription(ctx, &models.Subscription{UserID: "u1", SubscriptionID: id, Status: lo.ToPtr(st)})
		require.NoError(t, err)
	}
	gw.Subscriptions["sub_active"] = gateway.Entity{"id": "sub_active", "status": "halted", "notes": []any{}}
	// sub_created is unknown to the gateway stub and fails

	job := NewJob(store, subs, &config.Config{}, log)
	rep, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Checked: 2, Synced: 1, Failed: 1}, rep)
	assert.NotContains(t, gw.Calls, "subscription.fetch sub_cancelled")

	got, err := store.GetSubscription(ctx, "u1", "sub_active")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusHalted, got.StatusValue())

	logs := store.SubscriptionLogs()
	require.NotEmpty(t, logs)
	assert.Equal(t, types.SubscriptionChangeSourceReconcile, logs[len(logs)-1].Source)
	_, err = store.GetTokenBalance(ctx, "u1")
	assert.Error(t, err)
}

func TestSchedule(t *testing.T) {
	job := NewJob(memory.New(), nil, &config.Config{Reconcile: config.ReconcileConfig{Spec: "@every 1h"}}, zap.NewNop().Sugar())
	c := cron.New()
	_, err := job.Schedule(c)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	bad := NewJob(memory.New(), nil, &config.Config{Reconcile: config.ReconcileConfig{Spec: "not a spec"}}, zap.NewNop().Sugar())
	_, err = bad.Schedule(cron.New())
	require.Error(t, err)
}
