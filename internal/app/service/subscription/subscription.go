package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/app/service/profile"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/notification"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

const (
	defaultTotalCount = 12
	defaultQuantity   = 1
)

type Service struct {
	store  ledger.Store
	gw     gateway.Gateway
	mirror profile.Mirror
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewService(store ledger.Store, gw gateway.Gateway, mirror profile.Mirror, log *zap.SugaredLogger) *Service {
	return &Service{store: store, gw: gw, mirror: mirror, log: log, now: time.Now}
}

type CheckoutRequest struct {
	PlanID         string         `json:"plan_id" binding:"required"`
	TotalCount     int            `json:"total_count,omitempty"`
	Quantity       int            `json:"quantity,omitempty"`
	CustomerNotify *bool          `json:"customer_notify,omitempty"`
	CustomerID     string         `json:"customer_id,omitempty"`
	StartAt        int64          `json:"start_at,omitempty"`
	Notes          map[string]any `json:"notes,omitempty"`
	// SubscriptionType defaults to solo; any other type is a team plan.
	SubscriptionType string `json:"subscriptionType,omitempty"`
	TeamName         string `json:"teamName,omitempty"`
}

type UpdateRequest struct {
	SubscriptionID   string `json:"subscriptionId" binding:"required"`
	PlanID           string `json:"plan_id,omitempty"`
	Quantity         int    `json:"quantity,omitempty"`
	RemainingCount   int    `json:"remaining_count,omitempty"`
	ScheduleChangeAt string `json:"schedule_change_at,omitempty"`
	CustomerNotify   *bool  `json:"customer_notify,omitempty"`
}

// StatusChange is the gateway's answer to cancel, pause and resume.
type StatusChange struct {
	SubscriptionID string `json:"subscriptionId"`
	Status         string `json:"status"`
}

// Apply upserts the present fields of sub, appends the before/after pair to
// the subscription log and mirrors the result onto the user profile.
func (s *Service) Apply(ctx context.Context, sub *models.Subscription, source types.SubscriptionChangeSource) (*models.Subscription, error) {
	before, after, err := s.store.UpsertSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("upsert subscription %s: %w", sub.SubscriptionID, err)
	}
	if err := s.store.AppendSubscriptionLog(ctx, &models.SubscriptionLog{
		ID:             tool.GenerateUUIDV7(),
		UserID:         sub.UserID,
		SubscriptionID: sub.SubscriptionID,
		Source:         source,
		EventType:      models.Str(sub.EventType),
		Before:         models.SnapshotOf(before),
		After:          models.SnapshotOf(after),
		CreatedAt:      s.now(),
	}); err != nil {
		return nil, fmt.Errorf("append subscription log %s: %w", sub.SubscriptionID, err)
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_upserted",
		"user_id", sub.UserID,
		"subscription_id", sub.SubscriptionID,
		"source", source,
		"status", after.StatusValue(),
	)
	s.mirror.SyncSubscription(ctx, after)
	return after, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*models.Subscription, error) {
	return s.store.ListSubscriptions(ctx, ledger.SubscriptionFilter{UserID: userID})
}

// Checkout creates the gateway subscription for a stored plan and keeps a
// local copy whose notes carry the user id and the plan's token grant.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*models.Subscription, error) {
	if userID == "" || req.PlanID == "" {
		return nil, fmt.Errorf("%w: user and plan are required", types.ErrInvalidRequest)
	}
	plan, err := s.store.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", req.PlanID, err)
	}

	notes := make(map[string]any, len(req.Notes)+3)
	for k, v := range req.Notes {
		notes[k] = v
	}
	notes["userId"] = userID
	subType := req.SubscriptionType
	if subType == "" {
		subType = string(types.SubscriptionTypeSolo)
	}
	notes["subscriptionType"] = subType
	if subType != string(types.SubscriptionTypeSolo) {
		team := req.TeamName
		if team == "" {
			team = "team_" + userID[len(userID)/2:]
		}
		notes["teamName"] = team
	}

	gr := gateway.SubscriptionRequest{
		PlanID:         req.PlanID,
		TotalCount:     req.TotalCount,
		Quantity:       req.Quantity,
		CustomerNotify: req.CustomerNotify == nil || *req.CustomerNotify,
		CustomerID:     req.CustomerID,
		StartAt:        req.StartAt,
		Notes:          notes,
	}
	if gr.TotalCount <= 0 {
		gr.TotalCount = defaultTotalCount
	}
	if gr.Quantity <= 0 {
		gr.Quantity = defaultQuantity
	}

	created, err := s.gw.CreateSubscription(ctx, gr)
	if err != nil {
		return nil, err
	}
	if tool.ToString(created["id"]) == "" {
		return nil, fmt.Errorf("%w: subscription create returned no id", gateway.ErrGateway)
	}

	withNotes(created, map[string]any{"tokens": plan.Tokens()})
	sub, err := extract(created)
	if err != nil {
		return nil, err
	}
	// The gateway may echo notes without our user id.
	sub.UserID = userID
	return s.Apply(ctx, sub, types.SubscriptionChangeSourceCheckout)
}

// Sync fetches the gateway copy of a subscription and stores it under userID.
func (s *Service) Sync(ctx context.Context, userID, subscriptionID string, source types.SubscriptionChangeSource) (*models.Subscription, error) {
	fetched, err := s.gw.FetchSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	withNotes(fetched, map[string]any{"userId": userID})
	sub, err := extract(fetched)
	if err != nil {
		return nil, err
	}
	sub.UserID = userID
	if sub.SubscriptionID == "" {
		sub.SubscriptionID = subscriptionID
	}
	return s.Apply(ctx, sub, source)
}

// Update edits the subscription on the gateway and then re-syncs it.
func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (*models.Subscription, error) {
	if err := s.owned(ctx, userID, req.SubscriptionID); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if req.PlanID != "" {
		fields["plan_id"] = req.PlanID
	}
	if req.Quantity > 0 {
		fields["quantity"] = req.Quantity
	}
	if req.RemainingCount > 0 {
		fields["remaining_count"] = req.RemainingCount
	}
	if req.ScheduleChangeAt != "" {
		fields["schedule_change_at"] = req.ScheduleChangeAt
	}
	if req.CustomerNotify != nil {
		fields["customer_notify"] = *req.CustomerNotify
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", types.ErrInvalidRequest)
	}
	if _, err := s.gw.EditSubscription(ctx, req.SubscriptionID, fields); err != nil {
		return nil, err
	}
	return s.Sync(ctx, userID, req.SubscriptionID, types.SubscriptionChangeSourceSync)
}

func (s *Service) Cancel(ctx context.Context, userID, subscriptionID string, atCycleEnd bool) (*StatusChange, error) {
	if err := s.owned(ctx, userID, subscriptionID); err != nil {
		return nil, err
	}
	return statusChange(s.gw.CancelSubscription(ctx, subscriptionID, atCycleEnd))
}

func (s *Service) Pause(ctx context.Context, userID, subscriptionID string) (*StatusChange, error) {
	if err := s.owned(ctx, userID, subscriptionID); err != nil {
		return nil, err
	}
	return statusChange(s.gw.PauseSubscription(ctx, subscriptionID))
}

func (s *Service) Resume(ctx context.Context, userID, subscriptionID string) (*StatusChange, error) {
	if err := s.owned(ctx, userID, subscriptionID); err != nil {
		return nil, err
	}
	return statusChange(s.gw.ResumeSubscription(ctx, subscriptionID))
}

// owned reports ledger.ErrNotFound unless the user has the subscription locally.
func (s *Service) owned(ctx context.Context, userID, subscriptionID string) error {
	if subscriptionID == "" {
		return fmt.Errorf("%w: missing subscription id", types.ErrInvalidRequest)
	}
	if _, err := s.store.GetSubscription(ctx, userID, subscriptionID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("subscription %s: %w", subscriptionID, err)
		}
		return err
	}
	return nil
}

func statusChange(e gateway.Entity, err error) (*StatusChange, error) {
	if err != nil {
		return nil, err
	}
	return &StatusChange{SubscriptionID: tool.ToString(e["id"]), Status: tool.ToString(e["status"])}, nil
}

// withNotes merges extra into the entity's notes. The gateway sends empty
// notes as [], which is replaced by an object.
func withNotes(e gateway.Entity, extra map[string]any) {
	notes, _ := e["notes"].(map[string]any)
	if notes == nil {
		notes = map[string]any{}
	}
	for k, v := range extra {
		notes[k] = v
	}
	e["notes"] = notes
}

func extract(e gateway.Entity) (*models.Subscription, error) {
	ent, err := notification.Decode[notification.SubscriptionEntity](e)
	if err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	return notification.ExtractSubscription(ent, ""), nil
}
