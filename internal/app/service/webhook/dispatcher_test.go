package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	notificationlog "github.com/fatflowers/billing/internal/app/service/notification_log"
	"github.com/fatflowers/billing/internal/app/service/profile/profiletest"
	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/internal/app/service/token"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/lock"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway/gatewaytest"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/signature"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

const secret = "whsec_test"

const chargedBody = `{"entity":"event","account_id":"acc_1","event":"subscription.charged","contains":["subscription","payment"],
"payload":{"subscription":{"entity":{"id":"sub_1","plan_id":"plan_1","status":"active","notes":{"userId":"u1"},
"start_at":1735689600,"end_at":1767225600,"total_count":12,"paid_count":1,"remaining_count":11}}},"created_at":1735689600}`

type fixture struct {
	d      *Dispatcher
	store  *memory.Store
	logs   *notificationlog.Service
	mirror *profiletest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	mirror := profiletest.New()
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Razorpay: config.RazorpayConfig{WebhookSecret: secret},
		Token:    config.TokenConfig{HistoryLimit: 50},
	}
	require.NoError(t, store.SavePlan(context.Background(), &models.Plan{
		PlanID: "plan_1", Period: "monthly", Interval: 1, Notes: datatypes.JSONMap{"tokens": 500},
	}))
	subs := subscription.NewService(store, gatewaytest.New(), mirror, log)
	tokens := token.NewService(store, lock.NewLocalLocker(), mirror, nil, cfg, log)
	logs := notificationlog.New(store, log)
	return &fixture{
		d:      NewDispatcher(cfg, store, subs, tokens, logs, nil, log),
		store:  store,
		logs:   logs,
		mirror: mirror,
	}
}

func (f *fixture) deliver(t *testing.T, body, eventID string) (*Result, error) {
	t.Helper()
	res, err := f.d.Dispatch(context.Background(), Delivery{
		Body:      []byte(body),
		Signature: signature.Sign([]byte(body), secret),
		EventID:   eventID,
		TraceID:   "trace-1",
	})
	f.logs.Wait()
	return res, err
}

func TestDispatch_ChargedAllocatesTokens(t *testing.T) {
	f := newFixture(t)
	res, err := f.deliver(t, chargedBody, "evt_1")
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.Equal(t, OutcomeHandled, res.Outcome)
	assert.Equal(t, "sub_1", res.EntityID)

	sub, err := f.store.GetSubscription(context.Background(), "u1", "sub_1")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusActive, sub.StatusValue())

	bal, err := f.store.GetTokenBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal.CurrentTokens)
	assert.Equal(t, "20250101000000000", bal.CycleStart)
	assert.Equal(t, "20250201000000000", bal.CycleEnd)
	mirrored, ok := f.mirror.Balance("u1")
	assert.True(t, ok)
	assert.Equal(t, int64(500), mirrored)

	logs := f.store.WebhookLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.WebhookLogStatusHandled, logs[0].Status)
	assert.Equal(t, "evt_1", logs[0].EventID)
	assert.Equal(t, "trace-1", logs[0].TraceID)
	assert.Equal(t, "u1", models.Str(logs[0].UserID))
	assert.Contains(t, logs[0].Data, "entity")
}

func TestDispatch_DuplicateChargeAllocatesOnce(t *testing.T) {
	f := newFixture(t)
	_, err := f.deliver(t, chargedBody, "evt_1")
	require.NoError(t, err)
	_, err = f.store.ApplyTokenDelta(context.Background(), "u1", -100, &models.TokenLog{UserID: "u1", Type: types.TokenLogTypeConsume, Tokens: 100})
	require.NoError(t, err)

	res, err := f.deliver(t, chargedBody, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)

	bal, err := f.store.GetTokenBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(400), bal.CurrentTokens)
}

func TestDispatch_EventIDFallsBackToBodyHash(t *testing.T) {
	f := newFixture(t)
	res, err := f.deliver(t, chargedBody, "")
	require.NoError(t, err)
	assert.Equal(t, tool.ContentID([]byte(chargedBody)), res.EventID)

	res, err = f.deliver(t, chargedBody, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
}

func TestDispatch_BadSignature(t *testing.T) {
	f := newFixture(t)
	before := f.store.Writes()
	res, err := f.d.Dispatch(context.Background(), Delivery{Body: []byte(chargedBody), Signature: "deadbeef"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, res)
	assert.Equal(t, before, f.store.Writes())
}

func TestDispatch_UnknownEventWritesNothing(t *testing.T) {
	f := newFixture(t)
	before := f.store.Writes()
	res, err := f.deliver(t, `{"event":"refund.created","payload":{"refund":{"entity":{"id":"rfnd_1"}}}}`, "evt_r")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.False(t, res.Handled)
	assert.Equal(t, before, f.store.Writes())
	assert.Empty(t, f.store.WebhookLogs())
}

func TestDispatch_MalformedIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	before := f.store.Writes()
	res, err := f.deliver(t, `{"event":`, "evt_m")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, before, f.store.Writes())
}

func TestDispatch_SubscriptionWithoutUserIsSkipped(t *testing.T) {
	f := newFixture(t)
	body := `{"event":"subscription.activated","payload":{"subscription":{"entity":{"id":"sub_9","status":"active","notes":[]}}}}`
	res, err := f.deliver(t, body, "evt_9")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)

	_, err = f.store.FindSubscription(context.Background(), "sub_9")
	require.ErrorIs(t, err, ledger.ErrNotFound)
	logs := f.store.WebhookLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.WebhookLogStatusSkipped, logs[0].Status)
}

func TestDispatch_ChargeWithUnknownPlanStaysUnclaimed(t *testing.T) {
	f := newFixture(t)
	body := `{"event":"subscription.charged","payload":{"subscription":{"entity":{"id":"sub_2","plan_id":"plan_x","status":"active",
"notes":{"userId":"u2"},"start_at":1735689600}}}}`
	res, err := f.deliver(t, body, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)

	_, err = f.store.GetTokenBalance(context.Background(), "u2")
	require.ErrorIs(t, err, ledger.ErrNotFound)
	assert.False(t, f.store.Processed(string(types.PaymentProviderRazorpay), "evt_2"))

	// Once the plan exists the redelivered event allocates.
	require.NoError(t, f.store.SavePlan(context.Background(), &models.Plan{
		PlanID: "plan_x", Period: "monthly", Interval: 1, Notes: datatypes.JSONMap{"tokens": 200},
	}))
	res, err = f.deliver(t, body, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeHandled, res.Outcome)
	bal, err := f.store.GetTokenBalance(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(200), bal.CurrentTokens)
	assert.True(t, f.store.Processed(string(types.PaymentProviderRazorpay), "evt_2"))
}

func TestDispatch_NonChargeEventDoesNotAllocate(t *testing.T) {
	f := newFixture(t)
	body := `{"event":"subscription.activated","payload":{"subscription":{"entity":{"id":"sub_1","plan_id":"plan_1","status":"active",
"notes":{"userId":"u1"},"start_at":1735689600}}}}`
	res, err := f.deliver(t, body, "evt_a")
	require.NoError(t, err)
	assert.True(t, res.Handled)

	_, err = f.store.GetTokenBalance(context.Background(), "u1")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestDispatch_InvoiceAndPaymentUpserts(t *testing.T) {
	f := newFixture(t)
	_, err := f.deliver(t, `{"event":"invoice.paid","payload":{"invoice":{"entity":{"id":"inv_1","subscription_id":"sub_1","status":"paid","amount":49900}}}}`, "evt_i")
	require.NoError(t, err)
	inv, err := f.store.GetInvoice(context.Background(), "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "paid", models.Str(inv.Status))

	_, err = f.deliver(t, `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","status":"captured","amount":49900,"email":"a@b.c"}}}}`, "evt_p")
	require.NoError(t, err)
	p, err := f.store.GetPayment(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "captured", models.Str(p.Status))

	logs := f.store.WebhookLogs()
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.NotContains(t, l.Data["entity"], "email")
	}
}
