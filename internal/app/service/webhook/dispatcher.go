// Package webhook verifies, routes and applies gateway webhook deliveries.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	notificationlog "github.com/fatflowers/billing/internal/app/service/notification_log"
	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/internal/app/service/token"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/razorpay/notification"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/cycle"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/metrics"
	"github.com/fatflowers/billing/pkg/signature"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

// ErrUnauthorized is returned when the delivery signature does not match.
var ErrUnauthorized = errors.New("webhook: invalid signature")

type Outcome string

const (
	OutcomeHandled   Outcome = "handled"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Delivery is one webhook request as received.
type Delivery struct {
	Body      []byte
	Signature string
	// EventID is the gateway's delivery id header; empty means derive one
	// from the body.
	EventID string
	TraceID string
}

type Result struct {
	EventID   string  `json:"eventId"`
	EventType string  `json:"eventType,omitempty"`
	Handled   bool    `json:"handled"`
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason,omitempty"`
	EntityID  string  `json:"entityId,omitempty"`
	UserID    string  `json:"-"`

	// entity is the sanitised record kept in the webhook log.
	entity any
}

func (r *Result) skip(reason string) {
	r.Outcome, r.Reason = OutcomeSkipped, reason
}

type Dispatcher struct {
	secret  string
	store   ledger.Store
	subs    *subscription.Service
	tokens  *token.Service
	logs    *notificationlog.Service
	metrics *metrics.Business
	log     *zap.SugaredLogger
}

func NewDispatcher(cfg *config.Config, store ledger.Store, subs *subscription.Service, tokens *token.Service, logs *notificationlog.Service, m *metrics.Business, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		secret:  cfg.Razorpay.WebhookSecret,
		store:   store,
		subs:    subs,
		tokens:  tokens,
		logs:    logs,
		metrics: m,
		log:     log,
	}
}

// Dispatch never panics on malformed input. It returns ErrUnauthorized for a
// bad signature and a non-nil error only when the delivery should be retried
// (storage failures); everything else is acknowledged with a Result.
func (d *Dispatcher) Dispatch(ctx context.Context, del Delivery) (*Result, error) {
	log := logctx.FromCtx(ctx, d.log)
	if !signature.Verify(del.Body, del.Signature, d.secret) {
		d.metrics.WebhookEvent("unknown", "unauthorized")
		log.Warnw("webhook_signature_invalid", "body_bytes", len(del.Body))
		return nil, ErrUnauthorized
	}

	eventID := del.EventID
	if eventID == "" {
		eventID = tool.ContentID(del.Body)
	}
	res := &Result{EventID: eventID}

	ev, err := notification.ParseEvent(del.Body)
	if err != nil {
		res.skip("malformed payload")
		d.metrics.WebhookEvent("malformed", string(res.Outcome))
		log.Warnw("webhook_malformed", "event_id", eventID, "err", err)
		return res, nil
	}
	res.EventType = ev.Event
	log = log.With("event_id", eventID, "event_type", ev.Event)
	log.Infow("webhook_received")

	var handle func(context.Context, *notification.Event, *Result) error
	switch ev.Family() {
	case notification.FamilySubscription:
		handle = d.handleSubscription
	case notification.FamilyInvoice:
		handle = d.handleInvoice
	case notification.FamilyPayment:
		handle = d.handlePayment
	default:
		res.Outcome = OutcomeIgnored
		d.metrics.WebhookEvent(ev.Event, string(res.Outcome))
		log.Infow("webhook_ignored")
		return res, nil
	}

	entry := &models.WebhookLog{
		ProviderID: string(types.PaymentProviderRazorpay),
		EventID:    eventID,
		EventType:  ev.Event,
		TraceID:    del.TraceID,
		Data:       datatypes.JSONMap{"event": ev.Event, "accountId": ev.AccountID},
		Status:     models.WebhookLogStatusReceived,
	}
	d.logs.Save(ctx, entry)

	err = handle(logctx.WithLogger(ctx, log), ev, res)
	d.finish(ctx, entry, res, err)
	if err != nil {
		res.Outcome = OutcomeFailed
		d.metrics.WebhookEvent(ev.Event, string(res.Outcome))
		log.Errorw("webhook_handle_failed", "entity_id", res.EntityID, "err", err)
		return res, err
	}
	res.Handled = res.Outcome == OutcomeHandled
	d.metrics.WebhookEvent(ev.Event, string(res.Outcome))
	log.Infow("webhook_processed", "outcome", res.Outcome, "entity_id", res.EntityID, "reason", res.Reason)
	return res, nil
}

func (d *Dispatcher) finish(ctx context.Context, entry *models.WebhookLog, res *Result, err error) {
	entry.EntityID = res.EntityID
	if res.UserID != "" {
		uid := res.UserID
		entry.UserID = &uid
	}
	// Save copies the row shallowly; the queued received row still holds the old map.
	data := datatypes.JSONMap{}
	maps.Copy(data, entry.Data)
	if res.entity != nil {
		data["entity"] = toMap(res.entity)
	}
	entry.Data = data
	result := datatypes.JSONMap{"outcome": res.Outcome}
	if res.Reason != "" {
		result["reason"] = res.Reason
	}
	switch {
	case err != nil:
		entry.Status = models.WebhookLogStatusHandleFailed
		result["error"] = err.Error()
	case res.Outcome == OutcomeHandled:
		entry.Status = models.WebhookLogStatusHandled
	default:
		entry.Status = models.WebhookLogStatusSkipped
	}
	entry.Result = result
	d.logs.Save(ctx, entry)
}

func (d *Dispatcher) handleSubscription(ctx context.Context, ev *notification.Event, res *Result) error {
	log := logctx.FromCtx(ctx, d.log)
	sub := notification.ExtractSubscription(ev.SubscriptionEntity(), ev.Event)
	if sub == nil || sub.SubscriptionID == "" {
		res.skip("missing subscription entity")
		log.Warnw("webhook_subscription_missing")
		return nil
	}
	res.EntityID, res.UserID, res.entity = sub.SubscriptionID, sub.UserID, sub
	if sub.UserID == "" {
		res.skip("missing userId in notes")
		log.Warnw("webhook_subscription_without_user", "subscription_id", sub.SubscriptionID)
		return nil
	}

	after, err := d.subs.Apply(ctx, sub, types.SubscriptionChangeSourceWebhook)
	if err != nil {
		return err
	}
	res.Outcome = OutcomeHandled
	if ev.Event != types.EventSubscriptionCharged {
		return nil
	}

	// The claim commits with the allocation, so a failed allocation leaves the
	// event unclaimed for the gateway's redelivery.
	_, err = d.tokens.Allocate(ctx, after, &models.ProcessedEvent{
		ProviderID:  string(types.PaymentProviderRazorpay),
		EventID:     res.EventID,
		EventType:   ev.Event,
		EntityID:    sub.SubscriptionID,
		ProcessedAt: cycle.Now(),
	})
	switch {
	case errors.Is(err, ledger.ErrDuplicate):
		res.Outcome = OutcomeDuplicate
		log.Infow("webhook_duplicate_charge", "subscription_id", sub.SubscriptionID)
		return nil
	case errors.Is(err, types.ErrInvalidRequest):
		res.skip(err.Error())
		log.Warnw("token_allocation_skipped", "subscription_id", sub.SubscriptionID, "err", err)
		return nil
	}
	return err
}

func (d *Dispatcher) handleInvoice(ctx context.Context, ev *notification.Event, res *Result) error {
	inv := notification.ExtractInvoice(ev.InvoiceEntity(), ev.Event)
	if inv == nil || inv.InvoiceID == "" {
		res.skip("missing invoice entity")
		logctx.FromCtx(ctx, d.log).Warnw("webhook_invoice_missing")
		return nil
	}
	res.EntityID, res.entity = inv.InvoiceID, inv
	if _, err := d.store.UpsertInvoice(ctx, inv); err != nil {
		return fmt.Errorf("upsert invoice %s: %w", inv.InvoiceID, err)
	}
	res.Outcome = OutcomeHandled
	return nil
}

func (d *Dispatcher) handlePayment(ctx context.Context, ev *notification.Event, res *Result) error {
	p := notification.ExtractPayment(ev.PaymentEntity(), ev.Event)
	if p == nil || p.PaymentID == "" {
		res.skip("missing payment entity")
		logctx.FromCtx(ctx, d.log).Warnw("webhook_payment_missing")
		return nil
	}
	res.EntityID, res.entity = p.PaymentID, p
	if _, err := d.store.UpsertPayment(ctx, p); err != nil {
		return fmt.Errorf("upsert payment %s: %w", p.PaymentID, err)
	}
	res.Outcome = OutcomeHandled
	return nil
}

func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
