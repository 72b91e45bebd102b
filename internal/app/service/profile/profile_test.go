package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/types"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []Update
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if subject == SubjectProfileUpdate {
		p.msgs = append(p.msgs, payload.(Update))
	}
	return p.err
}

func TestSyncSubscription(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewService(pub, zap.NewNop().Sugar())

	s.SyncSubscription(context.Background(), &models.Subscription{
		UserID:         "u1",
		SubscriptionID: "sub_1",
		Status:         lo.ToPtr(types.SubscriptionStatusActive),
		PlanID:         lo.ToPtr("plan_1"),
	})
	s.SyncSubscription(context.Background(), &models.Subscription{SubscriptionID: "no_user"})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "u1", pub.msgs[0].UserID)
	assert.Equal(t, types.SubscriptionStatusActive, pub.msgs[0].Fields[FieldSubscriptionStatus])
	assert.Equal(t, "plan_1", pub.msgs[0].Fields[FieldPlanID])
}

func TestSyncBalance_PublishErrorIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("down")}
	s := NewService(pub, zap.NewNop().Sugar())
	s.SyncBalance(context.Background(), "u1", 42)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, int64(42), pub.msgs[0].Fields[FieldSubscriptionTokenBalance])
}
