package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/types"
)

const chargedBody = `{
  "entity": "event",
  "account_id": "acc_1",
  "event": "subscription.charged",
  "contains": ["subscription", "payment"],
  "payload": {
    "subscription": {"entity": {
      "id": "sub_1",
      "plan_id": "plan_1",
      "customer_id": "cust_1",
      "status": "active",
      "notes": {"userId": "u1", "tokens": "500"},
      "start_at": 1735689600,
      "end_at": 1767225600,
      "charge_at": 1738368000,
      "total_count": 12,
      "paid_count": 1,
      "remaining_count": 11,
      "customer_notify": true,
      "short_url": "https://rzp.io/i/x",
      "unknown_field": "dropped"
    }},
    "payment": {"entity": {
      "id": "pay_1",
      "status": "captured",
      "amount": 49900,
      "email": "a@b.c",
      "contact": "+910000000000",
      "token_id": "token_1",
      "card_id": "card_1",
      "card": {"last4": "1111", "network": "Visa", "type": "credit", "issuer": null, "expiry_month": 12, "expiry_year": "2030"}
    }}
  },
  "created_at": 1735689600
}`

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(chargedBody))
	require.NoError(t, err)
	assert.Equal(t, "subscription.charged", ev.Event)
	assert.Equal(t, FamilySubscription, ev.Family())
	require.NotNil(t, ev.SubscriptionEntity())
	require.NotNil(t, ev.PaymentEntity())
	assert.Nil(t, ev.InvoiceEntity())

	_, err = ParseEvent([]byte(`{"event":`))
	require.ErrorIs(t, err, ErrMalformed)
	_, err = ParseEvent([]byte(`{"payload":{}}`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestFamily(t *testing.T) {
	cases := map[string]string{
		"subscription.charged": FamilySubscription,
		"invoice.paid":         FamilyInvoice,
		"payment.failed":       FamilyPayment,
		"refund.created":       "refund",
		"ping":                 "",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Family(in), in)
	}
}

func TestExtractSubscription(t *testing.T) {
	ev, err := ParseEvent([]byte(chargedBody))
	require.NoError(t, err)

	sub := ExtractSubscription(ev.SubscriptionEntity(), ev.Event)
	require.NotNil(t, sub)
	assert.Equal(t, "u1", sub.UserID)
	assert.Equal(t, "sub_1", sub.SubscriptionID)
	assert.Equal(t, types.SubscriptionStatusActive, sub.StatusValue())
	assert.Equal(t, int64(500), *sub.TokensAllocated)
	assert.Equal(t, int64(1), *sub.UserCount)
	assert.Equal(t, "20250101000000000", *sub.SubscriptionStartTime)
	assert.Equal(t, "20260101000000000", *sub.SubscriptionEndTime)
	assert.Equal(t, "20250201000000000", *sub.NextBillingDate)
	assert.Nil(t, sub.AuthExpiryTime)
	assert.Equal(t, int64(11), *sub.RemainingBillingCycles)
	assert.Equal(t, "subscription.charged", *sub.EventType)
	assert.NotContains(t, sub.Notes, "unknown_field")
}

func TestExtractSubscription_Defaults(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"subscription.created","payload":{"subscription":{"entity":{"id":"sub_2","notes":[],"quantity":3,"status":"created"}}}}`))
	require.NoError(t, err)

	sub := ExtractSubscription(ev.SubscriptionEntity(), ev.Event)
	assert.Empty(t, sub.UserID)
	assert.Equal(t, int64(0), *sub.TokensAllocated)
	assert.Equal(t, int64(3), *sub.UserCount)
	assert.Nil(t, sub.Notes)
	assert.Nil(t, sub.PlanID)
	assert.Nil(t, sub.SubscriptionStartTime)

	fields := models.PatchFields(sub)
	for _, f := range fields {
		assert.NotEqual(t, "plan_id", f.Column)
	}
}

func TestExtractPayment_DropsSensitiveFields(t *testing.T) {
	ev, err := ParseEvent([]byte(chargedBody))
	require.NoError(t, err)

	p := ExtractPayment(ev.PaymentEntity(), "payment.captured")
	require.NotNil(t, p.Card)
	assert.Equal(t, "1111", p.Card.Last4)
	assert.Equal(t, "12", p.Card.ExpiryMonth)
	assert.Equal(t, "2030", p.Card.ExpiryYear)
	assert.Empty(t, p.Card.Issuer)
	assert.Nil(t, p.Error)
	assert.Nil(t, p.GatewayCreatedAt)
}

func TestExtractPayment_FailedCarriesError(t *testing.T) {
	body := `{"event":"payment.failed","payload":{"payment":{"entity":{
		"id":"pay_2","status":"failed","error_code":"BAD_REQUEST_ERROR",
		"error_description":"declined","error_source":"bank","error_step":"payment_authorization","error_reason":"payment_failed",
		"created_at":1735689600000}}}}`
	ev, err := ParseEvent([]byte(body))
	require.NoError(t, err)

	p := ExtractPayment(ev.PaymentEntity(), ev.Event)
	require.NotNil(t, p.Error)
	assert.Equal(t, "BAD_REQUEST_ERROR", p.Error.Code)
	assert.Equal(t, "payment_failed", p.Error.Reason)
	assert.Equal(t, "20250101000000000", *p.GatewayCreatedAt)
	assert.Nil(t, p.Card)
}

func TestExtractInvoice(t *testing.T) {
	body := `{"event":"invoice.paid","payload":{"invoice":{"entity":{
		"id":"inv_1","subscription_id":"sub_1","status":"paid","amount":49900,"amount_paid":49900,"amount_due":0,
		"currency":"INR","issued_at":1735689600,"paid_at":null}}}}`
	ev, err := ParseEvent([]byte(body))
	require.NoError(t, err)

	inv := ExtractInvoice(ev.InvoiceEntity(), ev.Event)
	assert.Equal(t, "inv_1", inv.InvoiceID)
	assert.Equal(t, int64(0), *inv.AmountDue)
	assert.Equal(t, "20250101000000000", *inv.IssuedAt)
	assert.Nil(t, inv.PaidAt)
	assert.Nil(t, inv.OrderID)
}

func TestDecode(t *testing.T) {
	e, err := Decode[SubscriptionEntity](map[string]any{"id": "sub_9", "start_at": float64(1735689600), "notes": map[string]any{"userId": "u9"}})
	require.NoError(t, err)
	assert.Equal(t, "sub_9", e.ID)
	assert.Equal(t, "u9", e.Notes.UserID())
	assert.Equal(t, "1735689600", e.StartAt.String())
}
