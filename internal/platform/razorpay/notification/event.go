package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformed = errors.New("notification: malformed event")

const (
	FamilySubscription = "subscription"
	FamilyInvoice      = "invoice"
	FamilyPayment      = "payment"
)

// Event is the webhook envelope:
// {event, payload:{<entity>:{entity:{...}}}, created_at, account_id}.
type Event struct {
	Entity    string      `json:"entity"`
	AccountID string      `json:"account_id"`
	Event     string      `json:"event"`
	Contains  []string    `json:"contains"`
	Payload   Payload     `json:"payload"`
	CreatedAt json.Number `json:"created_at"`
}

type Payload struct {
	Subscription *Wrapped[SubscriptionEntity] `json:"subscription"`
	Invoice      *Wrapped[InvoiceEntity]      `json:"invoice"`
	Payment      *Wrapped[PaymentEntity]      `json:"payment"`
}

type Wrapped[T any] struct {
	Entity *T `json:"entity"`
}

// ParseEvent decodes a webhook body. Numbers are kept as json.Number so epoch
// timestamps survive untouched.
func ParseEvent(body []byte) (*Event, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var ev Event
	if err := dec.Decode(&ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformed)
	}
	return &ev, nil
}

// Family returns the routing prefix of an event type ("subscription" for
// "subscription.charged"), or "" when the type has no dot.
func Family(eventType string) string {
	family, _, ok := strings.Cut(eventType, ".")
	if !ok {
		return ""
	}
	return family
}

func (e *Event) Family() string { return Family(e.Event) }

func (e *Event) SubscriptionEntity() *SubscriptionEntity {
	if e.Payload.Subscription == nil {
		return nil
	}
	return e.Payload.Subscription.Entity
}

func (e *Event) InvoiceEntity() *InvoiceEntity {
	if e.Payload.Invoice == nil {
		return nil
	}
	return e.Payload.Invoice.Entity
}

func (e *Event) PaymentEntity() *PaymentEntity {
	if e.Payload.Payment == nil {
		return nil
	}
	return e.Payload.Payment.Entity
}

// Decode converts a loosely typed gateway response into an entity.
func Decode[T any](m map[string]any) (*T, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out T
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &out, nil
}
