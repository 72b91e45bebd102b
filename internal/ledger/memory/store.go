// Package memory is an in-process ledger.Store used by tests and by the
// "memory" database driver for local runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/tool"
)

type Store struct {
	mu sync.RWMutex

	subs     map[string]*models.Subscription
	subOrder []string
	subLogs  []*models.SubscriptionLog

	plans     map[string]*models.Plan
	customers map[string]*models.Customer
	invoices  map[string]*models.Invoice
	payments  map[string]*models.Payment
	orders    map[string]*models.Order
	ordOrder  []string

	balances    map[string]*models.TokenBalance
	tokenLogs   []*models.TokenLog
	tokenLogIDs map[string]struct{}

	events      map[string]*models.ProcessedEvent
	webhookLogs map[string]*models.WebhookLog

	writes int
	closed bool
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		subs:        map[string]*models.Subscription{},
		plans:       map[string]*models.Plan{},
		customers:   map[string]*models.Customer{},
		invoices:    map[string]*models.Invoice{},
		payments:    map[string]*models.Payment{},
		orders:      map[string]*models.Order{},
		balances:    map[string]*models.TokenBalance{},
		tokenLogIDs: map[string]struct{}{},
		events:      map[string]*models.ProcessedEvent{},
		webhookLogs: map[string]*models.WebhookLog{},
	}
}

// Writes counts successful mutating calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// TokenLogs returns every token log in insertion order.
func (s *Store) TokenLogs() []*models.TokenLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.TokenLog, 0, len(s.tokenLogs))
	for _, l := range s.tokenLogs {
		out = append(out, clone(l))
	}
	return out
}

// SubscriptionLogs returns every subscription log in insertion order.
func (s *Store) SubscriptionLogs() []*models.SubscriptionLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.SubscriptionLog, 0, len(s.subLogs))
	for _, l := range s.subLogs {
		out = append(out, clone(l))
	}
	return out
}

// WebhookLogs returns the stored webhook logs.
func (s *Store) WebhookLogs() []*models.WebhookLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.WebhookLog, 0, len(s.webhookLogs))
	for _, l := range s.webhookLogs {
		out = append(out, clone(l))
	}
	return out
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func subKey(userID, subscriptionID string) string {
	return userID + "\x00" + subscriptionID
}

func (s *Store) UpsertSubscription(_ context.Context, sub *models.Subscription) (*models.Subscription, *models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	key := subKey(sub.UserID, sub.SubscriptionID)
	cur, ok := s.subs[key]
	var before *models.Subscription
	if ok {
		before = clone(cur)
		cur.Notes = maps.Clone(cur.Notes)
		models.ApplyPatch(cur, sub)
		cur.UpdatedAt = now
	} else {
		cur = clone(sub)
		cur.Notes = maps.Clone(sub.Notes)
		cur.ID = tool.GenerateUUIDV7()
		cur.CreatedAt, cur.UpdatedAt = now, now
		s.subs[key] = cur
		s.subOrder = append(s.subOrder, key)
	}
	s.writes++
	return before, clone(cur), nil
}

func (s *Store) GetSubscription(_ context.Context, userID, subscriptionID string) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[subKey(userID, subscriptionID)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return clone(sub), nil
}

func (s *Store) FindSubscription(_ context.Context, subscriptionID string) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.subOrder) - 1; i >= 0; i-- {
		if sub := s.subs[s.subOrder[i]]; sub.SubscriptionID == subscriptionID {
			return clone(sub), nil
		}
	}
	return nil, ledger.ErrNotFound
}

// ListSubscriptions returns the newest subscriptions first.
func (s *Store) ListSubscriptions(_ context.Context, f ledger.SubscriptionFilter) ([]*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Subscription
	for i := len(s.subOrder) - 1; i >= 0; i-- {
		sub := s.subs[s.subOrder[i]]
		if f.UserID != "" && sub.UserID != f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, sub.StatusValue()) {
			continue
		}
		out = append(out, clone(sub))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) AppendSubscriptionLog(_ context.Context, log *models.SubscriptionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := clone(log)
	if l.ID == "" {
		l.ID = tool.GenerateUUIDV7()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	s.subLogs = append(s.subLogs, l)
	s.writes++
	return nil
}

func (s *Store) SavePlan(_ context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p := clone(plan)
	p.Notes = maps.Clone(plan.Notes)
	if cur, ok := s.plans[p.PlanID]; ok {
		p.ID, p.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		p.ID, p.CreatedAt = tool.GenerateUUIDV7(), now
	}
	p.UpdatedAt = now
	s.plans[p.PlanID] = p
	s.writes++
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return clone(p), nil
}

func (s *Store) ListPlans(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanID < out[j].PlanID })
	return out, nil
}

func (s *Store) UpsertCustomer(_ context.Context, c *models.Customer) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cur, ok := s.customers[c.CustomerID]
	if ok {
		models.ApplyPatch(cur, c)
	} else {
		cur = clone(c)
		cur.ID, cur.CreatedAt = tool.GenerateUUIDV7(), now
		s.customers[c.CustomerID] = cur
	}
	cur.UpdatedAt = now
	s.writes++
	return clone(cur), nil
}

func (s *Store) GetCustomer(_ context.Context, customerID string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[customerID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return clone(c), nil
}

func (s *Store) ListCustomers(_ context.Context, f ledger.CustomerFilter) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Customer
	for _, c := range s.customers {
		if f.UserID != "" && models.Str(c.UserID) != f.UserID {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpsertInvoice(_ context.Context, inv *models.Invoice) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cur, ok := s.invoices[inv.InvoiceID]
	if ok {
		models.ApplyPatch(cur, inv)
	} else {
		cur = clone(inv)
		cur.ID, cur.InsertedAt = tool.GenerateUUIDV7(), now
		s.invoices[inv.InvoiceID] = cur
	}
	cur.UpdatedAt = now
	s.writes++
	return clone(cur), nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return clone(inv), nil
}

func (s *Store) ListInvoices(_ context.Context, f ledger.InvoiceFilter) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invoice
	for _, inv := range s.invoices {
		if f.SubscriptionID != "" && models.Str(inv.SubscriptionID) != f.SubscriptionID {
			continue
		}
		if f.CustomerID != "" && models.Str(inv.CustomerID) != f.CustomerID {
			continue
		}
		out = append(out, clone(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertedAt.After(out[j].InsertedAt) })
	return out, nil
}

func (s *Store) UpsertPayment(_ context.Context, p *models.Payment) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cur, ok := s.payments[p.PaymentID]
	if ok {
		models.ApplyPatch(cur, p)
	} else {
		cur = clone(p)
		cur.ID, cur.InsertedAt = tool.GenerateUUIDV7(), now
		s.payments[p.PaymentID] = cur
	}
	cur.UpdatedAt = now
	s.writes++
	return clone(cur), nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return clone(p), nil
}

func (s *Store) ListPayments(_ context.Context, f ledger.PaymentFilter) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if f.CustomerID != "" && models.Str(p.CustomerID) != f.CustomerID {
			continue
		}
		if f.OrderID != "" && models.Str(p.OrderID) != f.OrderID {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InsertedAt.After(out[j].InsertedAt) })
	return out, nil
}

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.orders {
		if cur.OrderID == o.OrderID {
			return ledger.ErrDuplicate
		}
	}
	now := time.Now()
	if o.ID == "" {
		o.ID = tool.GenerateUUIDV7()
	}
	o.CreatedAt, o.UpdatedAt = now, now
	s.orders[o.ID] = clone(o)
	s.ordOrder = append(s.ordOrder, o.ID)
	s.writes++
	return nil
}

func (s *Store) UpdateOrder(_ context.Context, id string, patch *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	models.ApplyPatch(cur, patch)
	cur.UpdatedAt = time.Now()
	s.writes++
	return clone(cur), nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return clone(o), nil
}

func (s *Store) FindOrderByGatewayID(_ context.Context, orderID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.OrderID == orderID || models.Str(o.SecondOrderID) == orderID {
			return clone(o), nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (s *Store) ListOrders(_ context.Context, f ledger.OrderFilter) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Order
	for i := len(s.ordOrder) - 1; i >= 0; i-- {
		o := s.orders[s.ordOrder[i]]
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		out = append(out, clone(o))
	}
	return out, nil
}

func (s *Store) GetTokenBalance(_ context.Context, userID string) (*models.TokenBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[userID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return clone(b), nil
}

func (s *Store) ReplaceTokenBalance(_ context.Context, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTokenLog(log); err != nil {
		return nil, err
	}
	return s.replaceTokenBalance(bal, log), nil
}

func (s *Store) ClaimTokenAllocation(_ context.Context, ev *models.ProcessedEvent, bal *models.TokenBalance, log *models.TokenLog) (*models.TokenBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := eventKey(ev.ProviderID, ev.EventID)
	if _, ok := s.events[key]; ok {
		return nil, fmt.Errorf("event %s: %w", ev.EventID, ledger.ErrDuplicate)
	}
	if err := s.checkTokenLog(log); err != nil {
		return nil, err
	}
	e := clone(ev)
	if e.ID == "" {
		e.ID = tool.GenerateUUIDV7()
	}
	e.CreatedAt = time.Now()
	s.events[key] = e
	return s.replaceTokenBalance(bal, log), nil
}

// replaceTokenBalance expects s.mu to be held.
func (s *Store) replaceTokenBalance(bal *models.TokenBalance, log *models.TokenLog) *models.TokenBalance {
	now := time.Now()
	next := clone(bal)
	if cur, ok := s.balances[bal.UserID]; ok {
		next.ID, next.CreatedAt, next.Version = cur.ID, cur.CreatedAt, cur.Version+1
	} else {
		next.ID, next.CreatedAt, next.Version = tool.GenerateUUIDV7(), now, 1
	}
	next.UpdatedAt = now
	s.balances[bal.UserID] = next
	s.appendTokenLog(log, now)
	s.writes++
	return clone(next)
}

func (s *Store) ApplyTokenDelta(_ context.Context, userID string, delta int64, log *models.TokenLog) (*models.TokenBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.balances[userID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if cur.CurrentTokens+delta < 0 {
		return nil, ledger.ErrInsufficientTokens
	}
	if err := s.checkTokenLog(log); err != nil {
		return nil, err
	}
	now := time.Now()
	cur.CurrentTokens += delta
	cur.Version++
	cur.UpdatedAt = now
	if log != nil {
		cur.LastUpdated = log.Timestamp
	}
	s.appendTokenLog(log, now)
	s.writes++
	return clone(cur), nil
}

// checkTokenLog rejects a log id already written, before any balance change.
func (s *Store) checkTokenLog(log *models.TokenLog) error {
	if log == nil || log.ID == "" {
		return nil
	}
	if _, dup := s.tokenLogIDs[log.ID]; dup {
		return fmt.Errorf("token log %s: %w", log.ID, ledger.ErrDuplicate)
	}
	return nil
}

func (s *Store) appendTokenLog(log *models.TokenLog, now time.Time) {
	if log == nil {
		return
	}
	l := clone(log)
	if l.ID == "" {
		l.ID = tool.GenerateUUIDV7()
	}
	l.CreatedAt = now
	s.tokenLogs = append(s.tokenLogs, l)
	s.tokenLogIDs[l.ID] = struct{}{}
}

func (s *Store) ListTokenLogs(_ context.Context, userID string, limit int) ([]*models.TokenLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TokenLog
	for i := len(s.tokenLogs) - 1; i >= 0; i-- {
		if l := s.tokenLogs[i]; l.UserID == userID {
			out = append(out, clone(l))
		}
	}
	// Insertion order already breaks timestamp ties newest first.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListTokenLogsBetween(_ context.Context, from, to string) ([]*models.TokenLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TokenLog
	for _, l := range s.tokenLogs {
		if l.Timestamp >= from && l.Timestamp < to {
			out = append(out, clone(l))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// Processed reports whether the event has been claimed.
func (s *Store) Processed(providerID, eventID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[eventKey(providerID, eventID)]
	return ok
}

func eventKey(providerID, eventID string) string {
	return providerID + "\x00" + eventID
}

// SaveWebhookLog inserts or replaces the log by id.
func (s *Store) SaveWebhookLog(_ context.Context, log *models.WebhookLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := clone(log)
	now := time.Now()
	if cur, ok := s.webhookLogs[l.ID]; ok {
		l.CreatedAt = cur.CreatedAt
	} else if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	s.webhookLogs[l.ID] = l
	s.writes++
	return nil
}

func (s *Store) Migrate(context.Context) error { return nil }

// Ping fails once the store has been closed.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("memory store closed")
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
