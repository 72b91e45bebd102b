// Package reconcile periodically re-syncs open subscriptions from the gateway
// to heal missed webhook deliveries.
package reconcile

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/types"
)

const (
	DefaultSpec    = "@every 30m"
	DefaultTimeout = 5 * time.Minute
)

// Report summarises one sweep.
type Report struct {
	Checked int
	Synced  int
	Failed  int
}

type Job struct {
	store   ledger.Store
	subs    *subscription.Service
	spec    string
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewJob(store ledger.Store, subs *subscription.Service, cfg *config.Config, log *zap.SugaredLogger) *Job {
	return &Job{
		store:   store,
		subs:    subs,
		spec:    lo.CoalesceOrEmpty(cfg.Reconcile.Spec, DefaultSpec),
		timeout: lo.Ternary(cfg.Reconcile.Timeout > 0, cfg.Reconcile.Timeout, DefaultTimeout),
		log:     log.With("job", "reconcile"),
	}
}

// Run re-fetches every subscription not in a terminal status and upserts the
// gateway copy. Token balances are left alone. A failing subscription is
// logged and skipped.
func (j *Job) Run(ctx context.Context) (Report, error) {
	var rep Report
	subs, err := j.store.ListSubscriptions(ctx, ledger.SubscriptionFilter{Statuses: types.OpenSubscriptionStatuses})
	if err != nil {
		return rep, err
	}
	for _, sub := range subs {
		if ctx.Err() != nil {
			j.log.Warnw("reconcile_interrupted", "checked", rep.Checked, "err", ctx.Err())
			return rep, ctx.Err()
		}
		rep.Checked++
		if _, err := j.subs.Sync(ctx, sub.UserID, sub.SubscriptionID, types.SubscriptionChangeSourceReconcile); err != nil {
			rep.Failed++
			j.log.Warnw("reconcile_sync_failed", "user_id", sub.UserID, "subscription_id", sub.SubscriptionID, "err", err)
			continue
		}
		rep.Synced++
	}
	return rep, nil
}

func (j *Job) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	start := time.Now()
	rep, err := j.Run(ctx)
	if err != nil {
		j.log.Errorw("reconcile_failed", "err", err)
		return
	}
	j.log.Infow("reconcile_finished",
		"checked", rep.Checked, "synced", rep.Synced, "failed", rep.Failed,
		"duration_ms", time.Since(start).Milliseconds())
}

// Schedule registers the job on c.
func (j *Job) Schedule(c *cron.Cron) (cron.EntryID, error) {
	return c.AddFunc(j.spec, j.tick)
}

func register(lc fx.Lifecycle, cfg *config.Config, j *Job, log *zap.SugaredLogger) error {
	if !cfg.Reconcile.Enabled {
		log.Infow("reconcile job disabled")
		return nil
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := j.Schedule(c); err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			log.Infow("reconcile job scheduled", "spec", j.spec)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-c.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}

var Module = fx.Options(
	fx.Provide(NewJob),
	fx.Invoke(register),
)
