// Package token owns the per-user token balance: cycle allocation from a
// subscription's plan, adjustments, top-ups and the audit history.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/billing/internal/app/service/profile"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/lock"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/cycle"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/metrics"
	"github.com/fatflowers/billing/pkg/types"
)

const (
	AllocationReason   = "Initial subscription allocation"
	DefaultTopUpReason = "Top-up via Razorpay"

	// expiredCycle is what the balance view shows for the bounds of a
	// cycle that has already ended.
	expiredCycle = "0"
)

var (
	ErrUnsupportedAdjustment = errors.New("token: unsupported adjustment type")
	ErrInvalidRequest        = types.ErrInvalidRequest
)

type AdjustRequest struct {
	Type   types.TokenLogType `json:"type" binding:"required"`
	Tokens int64              `json:"tokens"`
	Reason string             `json:"reason"`
	Meta   map[string]any     `json:"meta,omitempty"`
}

type TopUpRequest struct {
	Tokens         int64          `json:"tokens"`
	Reason         string         `json:"reason,omitempty"`
	Meta           map[string]any `json:"meta,omitempty"`
	CycleStart     string         `json:"cycleStart,omitempty"`
	CycleEnd       string         `json:"cycleEnd,omitempty"`
	PlanID         string         `json:"planId,omitempty"`
	SubscriptionID string         `json:"subscriptionId,omitempty"`
}

type Service struct {
	store   ledger.Store
	locker  lock.Locker
	mirror  profile.Mirror
	metrics *metrics.Business
	cfg     *config.Config
	log     *zap.SugaredLogger

	now func() time.Time
}

func NewService(store ledger.Store, locker lock.Locker, mirror profile.Mirror, m *metrics.Business, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{store: store, locker: locker, mirror: mirror, metrics: m, cfg: cfg, log: log, now: time.Now}
}

// Allocate grants the plan's per-cycle tokens for sub, replacing whatever
// balance the user had. Replaying the same subscription converges on the same
// balance; each call still appends its own log entry.
//
// A non-nil claim is recorded in the same write as the balance; a claim seen
// before fails with ledger.ErrDuplicate and allocates nothing.
func (s *Service) Allocate(ctx context.Context, sub *models.Subscription, claim *models.ProcessedEvent) (*models.TokenBalance, error) {
	if sub == nil || sub.UserID == "" {
		return nil, fmt.Errorf("%w: subscription without user", ErrInvalidRequest)
	}
	planID := models.Str(sub.PlanID)
	if planID == "" {
		return nil, fmt.Errorf("%w: subscription %s has no plan", ErrInvalidRequest, sub.SubscriptionID)
	}

	unlock, err := s.locker.Lock(ctx, lock.TokenKey(sub.UserID))
	if err != nil {
		return nil, fmt.Errorf("lock balance of %s: %w", sub.UserID, err)
	}
	defer unlock()

	plan, err := s.store.GetPlan(ctx, planID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("%w: plan %s not found", ErrInvalidRequest, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", planID, err)
	}

	tokens := plan.Tokens()
	c := cycle.Compute(models.Str(sub.SubscriptionStartTime), plan.Period, plan.Interval)
	if !c.Valid() {
		return nil, fmt.Errorf("%w: subscription %s has no usable start time", ErrInvalidRequest, sub.SubscriptionID)
	}
	end := c.End
	if end == "" {
		end = models.Str(sub.SubscriptionEndTime)
	}

	now := cycle.Format(s.now())
	next := &models.TokenBalance{
		UserID:         sub.UserID,
		PlanID:         planID,
		SubscriptionID: sub.SubscriptionID,
		CurrentTokens:  tokens,
		TotalAllocated: tokens,
		CycleStart:     c.Start,
		CycleEnd:       end,
		LastUpdated:    now,
	}
	entry := &models.TokenLog{
		UserID:    sub.UserID,
		Type:      types.TokenLogTypeTopup,
		Tokens:    tokens,
		Reason:    AllocationReason,
		Meta:      datatypes.JSONMap{"subscriptionId": sub.SubscriptionID, "planId": planID},
		Timestamp: now,
	}
	var bal *models.TokenBalance
	if claim != nil {
		bal, err = s.store.ClaimTokenAllocation(ctx, claim, next, entry)
	} else {
		bal, err = s.store.ReplaceTokenBalance(ctx, next, entry)
	}
	if errors.Is(err, ledger.ErrDuplicate) {
		s.metrics.TokenAdjustment("allocate", "duplicate")
		return nil, err
	}
	if err != nil {
		s.metrics.TokenAdjustment("allocate", "error")
		return nil, fmt.Errorf("allocate tokens for %s: %w", sub.UserID, err)
	}
	s.metrics.TokenAdjustment("allocate", "ok")

	logctx.FromCtx(ctx, s.log).Infow("tokens_allocated",
		"user_id", sub.UserID,
		"subscription_id", sub.SubscriptionID,
		"plan_id", planID,
		"tokens", tokens,
		"cycle_start", c.Start,
		"cycle_end", end,
	)
	s.mirror.SyncBalance(ctx, sub.UserID, bal.CurrentTokens)
	return bal, nil
}

// Adjust applies a consume, bonus or refund to an existing balance. A consume
// that would take the balance below zero is rejected with
// ledger.ErrInsufficientTokens and leaves no trace.
func (s *Service) Adjust(ctx context.Context, userID string, req AdjustRequest) (*models.TokenBalance, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	}
	magnitude := abs(req.Tokens)
	var delta int64
	switch req.Type {
	case types.TokenLogTypeConsume:
		delta = -magnitude
	case types.TokenLogTypeBonus, types.TokenLogTypeRefund:
		delta = magnitude
	case types.TokenLogTypeTopup:
		return s.TopUp(ctx, userID, TopUpRequest{Tokens: magnitude, Reason: req.Reason, Meta: req.Meta})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAdjustment, req.Type)
	}

	log := logctx.FromCtx(ctx, s.log)
	unlock, err := s.locker.Lock(ctx, lock.TokenKey(userID))
	if err != nil {
		return nil, fmt.Errorf("lock balance of %s: %w", userID, err)
	}
	defer unlock()

	bal, err := s.store.ApplyTokenDelta(ctx, userID, delta, &models.TokenLog{
		UserID:    userID,
		Type:      req.Type,
		Tokens:    magnitude,
		Reason:    req.Reason,
		Meta:      datatypes.JSONMap(req.Meta),
		Timestamp: cycle.Format(s.now()),
	})
	switch {
	case errors.Is(err, ledger.ErrInsufficientTokens):
		s.metrics.TokenAdjustment(string(req.Type), "rejected")
		log.Warnw("token_adjust_rejected", "user_id", userID, "type", req.Type, "tokens", magnitude)
		return nil, err
	case err != nil:
		s.metrics.TokenAdjustment(string(req.Type), "error")
		return nil, fmt.Errorf("adjust tokens for %s: %w", userID, err)
	}
	s.metrics.TokenAdjustment(string(req.Type), "ok")

	log.Infow("token_adjusted", "user_id", userID, "type", req.Type, "delta", delta, "current_tokens", bal.CurrentTokens)
	s.mirror.SyncBalance(ctx, userID, bal.CurrentTokens)
	return bal, nil
}

// TopUp sets the balance to req.Tokens, creating it when absent.
func (s *Service) TopUp(ctx context.Context, userID string, req TopUpRequest) (*models.TokenBalance, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	}
	tokens := abs(req.Tokens)
	reason := req.Reason
	if reason == "" {
		reason = DefaultTopUpReason
	}

	unlock, err := s.locker.Lock(ctx, lock.TokenKey(userID))
	if err != nil {
		return nil, fmt.Errorf("lock balance of %s: %w", userID, err)
	}
	defer unlock()

	next := &models.TokenBalance{UserID: userID}
	cur, err := s.store.GetTokenBalance(ctx, userID)
	switch {
	case err == nil:
		next = cur
	case !errors.Is(err, ledger.ErrNotFound):
		return nil, fmt.Errorf("get balance of %s: %w", userID, err)
	}

	now := cycle.Format(s.now())
	next.CurrentTokens = tokens
	next.TotalAllocated = tokens
	next.LastUpdated = now
	if v := cycle.Normalize(req.CycleStart); v != "" {
		next.CycleStart = v
	}
	if v := cycle.Normalize(req.CycleEnd); v != "" {
		next.CycleEnd = v
	}
	if req.PlanID != "" {
		next.PlanID = req.PlanID
	}
	if req.SubscriptionID != "" {
		next.SubscriptionID = req.SubscriptionID
	}

	bal, err := s.store.ReplaceTokenBalance(ctx, next, &models.TokenLog{
		UserID:    userID,
		Type:      types.TokenLogTypeTopup,
		Tokens:    tokens,
		Reason:    reason,
		Meta:      datatypes.JSONMap(req.Meta),
		Timestamp: now,
	})
	if err != nil {
		s.metrics.TokenAdjustment(string(types.TokenLogTypeTopup), "error")
		return nil, fmt.Errorf("top up tokens for %s: %w", userID, err)
	}
	s.metrics.TokenAdjustment(string(types.TokenLogTypeTopup), "ok")

	logctx.FromCtx(ctx, s.log).Infow("tokens_topped_up", "user_id", userID, "tokens", tokens)
	s.mirror.SyncBalance(ctx, userID, bal.CurrentTokens)
	return bal, nil
}

// GetBalance returns the stored balance. Once the cycle has ended the view
// reads as empty; the stored row is left for the next allocation to replace.
func (s *Service) GetBalance(ctx context.Context, userID string) (*models.TokenBalance, error) {
	bal, err := s.store.GetTokenBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bal.CycleEnd != "" && cycle.Format(s.now()) >= bal.CycleEnd {
		bal.CycleStart = expiredCycle
		bal.CycleEnd = expiredCycle
		bal.CurrentTokens = 0
		bal.TotalAllocated = 0
	}
	return bal, nil
}

// History returns the latest token logs, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]*models.TokenLog, error) {
	limit := 50
	if s.cfg != nil && s.cfg.Token.HistoryLimit > 0 {
		limit = s.cfg.Token.HistoryLimit
	}
	return s.store.ListTokenLogs(ctx, userID, limit)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
