// Package profile mirrors billing state onto the externally owned user
// profile by publishing partial updates on the bus.
package profile

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/bus"
	"github.com/fatflowers/billing/pkg/logctx"
)

const (
	SubjectProfileUpdate = "profile.update"

	FieldSubscriptionStatus       = "paymentSubscription.subscriptionStatus"
	FieldPlanID                   = "paymentSubscription.planId"
	FieldSubscriptionID           = "paymentSubscription.subscriptionId"
	FieldCustomerID               = "paymentSubscription.customerId"
	FieldSubscriptionTokenBalance = "paymentSubscription.subscriptionTokenBalance"
)

// Update is a partial profile update: Fields are dotted paths under the
// user's metadata.
type Update struct {
	UserID string         `json:"userId"`
	Fields map[string]any `json:"fields"`
}

// Mirror is best effort: failures are logged and never fail the caller.
type Mirror interface {
	SyncSubscription(ctx context.Context, sub *models.Subscription)
	SyncBalance(ctx context.Context, userID string, currentTokens int64)
	SyncCustomer(ctx context.Context, userID, customerID string)
}

type Service struct {
	pub    bus.Publisher
	logger *zap.SugaredLogger
}

var _ Mirror = (*Service)(nil)

func NewService(pub bus.Publisher, l *zap.SugaredLogger) *Service {
	return &Service{pub: pub, logger: l}
}

func (s *Service) SyncSubscription(ctx context.Context, sub *models.Subscription) {
	if sub == nil || sub.UserID == "" {
		return
	}
	s.publish(ctx, Update{UserID: sub.UserID, Fields: map[string]any{
		FieldSubscriptionStatus: sub.StatusValue(),
		FieldPlanID:             models.Str(sub.PlanID),
		FieldSubscriptionID:     sub.SubscriptionID,
		FieldCustomerID:         models.Str(sub.CustomerID),
	}})
}

func (s *Service) SyncBalance(ctx context.Context, userID string, currentTokens int64) {
	s.publish(ctx, Update{UserID: userID, Fields: map[string]any{FieldSubscriptionTokenBalance: currentTokens}})
}

func (s *Service) SyncCustomer(ctx context.Context, userID, customerID string) {
	if userID == "" || customerID == "" {
		return
	}
	s.publish(ctx, Update{UserID: userID, Fields: map[string]any{FieldCustomerID: customerID}})
}

func (s *Service) publish(ctx context.Context, u Update) {
	if err := s.pub.Publish(ctx, SubjectProfileUpdate, u); err != nil {
		logctx.FromCtx(ctx, s.logger).Warnw("profile_sync_failed", "user_id", u.UserID, "err", err)
	}
}

var Module = fx.Options(
	fx.Provide(
		NewService,
		func(s *Service) Mirror { return s },
	),
)
