// Package profiletest records profile mirror calls for service tests.
package profiletest

import (
	"context"
	"sync"

	"github.com/fatflowers/billing/internal/app/service/profile"
	"github.com/fatflowers/billing/internal/models"
)

type Recorder struct {
	mu            sync.Mutex
	Subscriptions []*models.Subscription
	// Balances holds the last mirrored balance per user.
	Balances  map[string]int64
	Customers map[string]string
}

var _ profile.Mirror = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{Balances: map[string]int64{}, Customers: map[string]string{}}
}

func (r *Recorder) SyncSubscription(_ context.Context, sub *models.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Subscriptions = append(r.Subscriptions, sub)
}

func (r *Recorder) SyncBalance(_ context.Context, userID string, currentTokens int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Balances[userID] = currentTokens
}

func (r *Recorder) SyncCustomer(_ context.Context, userID, customerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Customers[userID] = customerID
}

func (r *Recorder) Balance(userID string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.Balances[userID]
	return v, ok
}
