// Package gatewaytest provides an in-memory Gateway for service tests.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
)

// Stub answers from canned entities keyed by id and records every call as
// "<op> <id>". Err, when set, is returned by every call.
type Stub struct {
	mu sync.Mutex

	Orders        map[string]gateway.Entity
	OrderPayments map[string]gateway.Entity
	Subscriptions map[string]gateway.Entity
	Payments      map[string]gateway.Entity
	Customers     map[string]gateway.Entity
	Invoices      map[string]gateway.Entity

	// Created is returned by the Create* calls; its "id" is echoed in Calls.
	Created gateway.Entity
	Err     error

	Calls []string
	// LastSubscription and friends keep the most recent request bodies.
	LastOrder        gateway.OrderRequest
	LastSubscription gateway.SubscriptionRequest
	LastCustomer     gateway.CustomerRequest
	LastPlan         gateway.PlanRequest
	LastEdit         map[string]any
}

var _ gateway.Gateway = (*Stub)(nil)

func New() *Stub {
	return &Stub{
		Orders:        map[string]gateway.Entity{},
		OrderPayments: map[string]gateway.Entity{},
		Subscriptions: map[string]gateway.Entity{},
		Payments:      map[string]gateway.Entity{},
		Customers:     map[string]gateway.Entity{},
		Invoices:      map[string]gateway.Entity{},
	}
}

func (s *Stub) record(op, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, op+" "+id)
	return s.Err
}

func (s *Stub) lookup(m map[string]gateway.Entity, id string) (gateway.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := m[id]
	if !ok {
		return nil, gateway.ErrGateway
	}
	return e, nil
}

func (s *Stub) created() gateway.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Created
}

func (s *Stub) CreateOrder(_ context.Context, req gateway.OrderRequest) (gateway.Entity, error) {
	s.LastOrder = req
	if err := s.record("order.create", ""); err != nil {
		return nil, err
	}
	return s.created(), nil
}

func (s *Stub) FetchOrder(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("order.fetch", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Orders, id)
}

func (s *Stub) FetchOrderPayments(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("order.payments", id); err != nil {
		return nil, err
	}
	return s.lookup(s.OrderPayments, id)
}

func (s *Stub) CreateSubscription(_ context.Context, req gateway.SubscriptionRequest) (gateway.Entity, error) {
	s.LastSubscription = req
	if err := s.record("subscription.create", ""); err != nil {
		return nil, err
	}
	return s.created(), nil
}

func (s *Stub) FetchSubscription(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("subscription.fetch", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Subscriptions, id)
}

func (s *Stub) EditSubscription(_ context.Context, id string, fields map[string]any) (gateway.Entity, error) {
	s.LastEdit = fields
	if err := s.record("subscription.update", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Subscriptions, id)
}

func (s *Stub) CancelSubscription(_ context.Context, id string, atCycleEnd bool) (gateway.Entity, error) {
	op := "subscription.cancel"
	if atCycleEnd {
		op += ".cycle_end"
	}
	if err := s.record(op, id); err != nil {
		return nil, err
	}
	return gateway.Entity{"id": id, "status": "cancelled"}, nil
}

func (s *Stub) PauseSubscription(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("subscription.pause", id); err != nil {
		return nil, err
	}
	return gateway.Entity{"id": id, "status": "paused"}, nil
}

func (s *Stub) ResumeSubscription(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("subscription.resume", id); err != nil {
		return nil, err
	}
	return gateway.Entity{"id": id, "status": "active"}, nil
}

func (s *Stub) CreatePlan(_ context.Context, req gateway.PlanRequest) (gateway.Entity, error) {
	s.LastPlan = req
	if err := s.record("plan.create", ""); err != nil {
		return nil, err
	}
	return s.created(), nil
}

func (s *Stub) FetchPayment(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("payment.fetch", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Payments, id)
}

func (s *Stub) CapturePayment(_ context.Context, id string, _ int64, _ string) (gateway.Entity, error) {
	if err := s.record("payment.capture", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Payments, id)
}

func (s *Stub) CreateCustomer(_ context.Context, req gateway.CustomerRequest) (gateway.Entity, error) {
	s.LastCustomer = req
	if err := s.record("customer.create", ""); err != nil {
		return nil, err
	}
	return s.created(), nil
}

func (s *Stub) EditCustomer(_ context.Context, id string, req gateway.CustomerRequest) (gateway.Entity, error) {
	s.LastCustomer = req
	if err := s.record("customer.edit", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Customers, id)
}

func (s *Stub) FetchCustomer(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("customer.fetch", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Customers, id)
}

func (s *Stub) FetchInvoice(_ context.Context, id string) (gateway.Entity, error) {
	if err := s.record("invoice.fetch", id); err != nil {
		return nil, err
	}
	return s.lookup(s.Invoices, id)
}

func (s *Stub) NotifyInvoice(_ context.Context, id, medium string) (gateway.Entity, error) {
	if err := s.record("invoice.notify."+medium, id); err != nil {
		return nil, err
	}
	return gateway.Entity{"success": true}, nil
}
