package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/app/service/invoice"
	notificationlog "github.com/fatflowers/billing/internal/app/service/notification_log"
	"github.com/fatflowers/billing/internal/app/service/order"
	"github.com/fatflowers/billing/internal/app/service/payment"
	"github.com/fatflowers/billing/internal/app/service/plan"
	"github.com/fatflowers/billing/internal/app/service/profile/profiletest"
	"github.com/fatflowers/billing/internal/app/service/statistics"
	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/internal/app/service/token"
	"github.com/fatflowers/billing/internal/app/service/webhook"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/bus"
	"github.com/fatflowers/billing/internal/platform/lock"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway/gatewaytest"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/response"
	"github.com/fatflowers/billing/pkg/signature"
	"github.com/fatflowers/billing/pkg/types"
)

const webhookSecret = "whsec_test"

type env struct {
	r     *gin.Engine
	store *memory.Store
	gw    *gatewaytest.Stub
	logs  *notificationlog.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	store, gw, mirror := memory.New(), gatewaytest.New(), profiletest.New()
	cfg := &config.Config{
		Razorpay: config.RazorpayConfig{WebhookSecret: webhookSecret, KeySecret: "key_secret"},
		Token:    config.TokenConfig{HistoryLimit: 50},
	}
	require.NoError(t, store.SavePlan(context.Background(), &models.Plan{
		PlanID: "plan_1", Period: "monthly", Interval: 1, Notes: datatypes.JSONMap{"tokens": 500},
	}))

	subs := subscription.NewService(store, gw, mirror, log)
	tokens := token.NewService(store, lock.NewLocalLocker(), mirror, nil, cfg, log)
	logs := notificationlog.New(store, log)
	customers := customer.NewService(store, gw, mirror, log)
	orders := order.NewService(store, gw, bus.NewLogPublisher(log), cfg, log)
	payments := payment.NewService(store, gw, customers, log)

	r := gin.New()
	r.Use(mw.TraceMiddleware(log))
	RegisterHealthRoutes(r, store)
	RegisterWebhookRoutes(r, webhook.NewDispatcher(cfg, store, subs, tokens, logs, nil, log))

	api := r.Group("/api/v1", mw.UserMiddleware(), mw.RequestLoggerMiddleware(log), mw.RequireUser())
	RegisterTokenRoutes(api, tokens)
	RegisterSubscriptionRoutes(api, subs)
	RegisterPlanRoutes(api, plan.NewService(store, gw, log))
	RegisterCustomerRoutes(api, customers)
	RegisterInvoiceRoutes(api, invoice.NewService(store, gw, customers, log))
	RegisterPaymentRoutes(api, payments, orders)
	RegisterOrderRoutes(api, orders)
	RegisterAdminRoutes(api.Group("/admin", mw.RequireAdmin()), statistics.New(store), orders, payments)

	return &env{r: r, store: store, gw: gw, logs: logs}
}

type call struct {
	method, path string
	body         any
	user, role   string
	headers      map[string]string
}

func (e *env) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	switch b := c.body.(type) {
	case nil:
	case string:
		body = []byte(b)
	default:
		var err error
		body, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(c.method, c.path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.Header.Set(mw.HeaderUserID, c.user)
	}
	if c.role != "" {
		req.Header.Set(mw.HeaderUserRole, c.role)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) response.APIResponse[json.RawMessage] {
	t.Helper()
	var out response.APIResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRoutesRegistered(t *testing.T) {
	e := newEnv(t)
	routes := lo.Map(e.r.Routes(), func(rt gin.RouteInfo, _ int) string { return rt.Method + " " + rt.Path })

	for _, want := range []string{
		"POST /webhook",
		"POST /webhook/razorpay",
		"GET /api/v1/tokens/balance",
		"POST /api/v1/tokens/adjust/:userId",
		"POST /api/v1/subscriptions/checkout",
		"POST /api/v1/subscriptions/plan",
		"PUT /api/v1/customer/:customerId",
		"POST /api/v1/invoice/notify/:invoiceId/:medium",
		"POST /api/v1/payments/payment/remaining-verify",
		"GET /api/v1/orders/:id/payments",
		"POST /api/v1/orders/remaining-payment",
		"GET /api/v1/admin/orders",
		"POST /api/v1/admin/orders/:orderId/send-remaining-payment-notification",
		"POST /api/v1/admin/statistics",
	} {
		assert.Contains(t, routes, want)
	}
}

const chargedBody = `{"entity":"event","event":"subscription.charged","payload":{"subscription":{"entity":{
"id":"sub_1","plan_id":"plan_1","status":"active","notes":{"userId":"u1"},"start_at":1735689600,"end_at":1767225600}}},"created_at":1735689600}`

func TestWebhook_StatusCodes(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, call{method: http.MethodPost, path: "/webhook/razorpay", body: chargedBody,
		headers: map[string]string{HeaderRazorpaySignature: "00"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.APIResponseCodeUnauthorized, envelope(t, w).Code)

	signed := map[string]string{
		HeaderRazorpaySignature: signature.Sign([]byte(chargedBody), webhookSecret),
		HeaderRazorpayEventID:   "evt_1",
	}
	w = e.do(t, call{method: http.MethodPost, path: "/webhook", body: chargedBody, headers: signed})
	e.logs.Wait()
	require.Equal(t, http.StatusOK, w.Code)
	var res webhook.Result
	require.NoError(t, json.Unmarshal(envelope(t, w).Data, &res))
	assert.Equal(t, webhook.OutcomeHandled, res.Outcome)
	assert.Equal(t, "evt_1", res.EventID)

	bal, err := e.store.GetTokenBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal.CurrentTokens)

	unknown := `{"event":"refund.created","payload":{}}`
	w = e.do(t, call{method: http.MethodPost, path: "/webhook/razorpay", body: unknown,
		headers: map[string]string{HeaderRazorpaySignature: signature.Sign([]byte(unknown), webhookSecret)}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(envelope(t, w).Data, &res))
	assert.Equal(t, webhook.OutcomeIgnored, res.Outcome)
}

func TestWebhook_SignatureHeaderAlias(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, call{method: http.MethodPost, path: "/webhook", body: chargedBody,
		headers: map[string]string{HeaderSignature: signature.Sign([]byte(chargedBody), webhookSecret)}})
	e.logs.Wait()
	require.Equal(t, http.StatusOK, w.Code)
	var res webhook.Result
	require.NoError(t, json.Unmarshal(envelope(t, w).Data, &res))
	assert.Equal(t, webhook.OutcomeHandled, res.Outcome)

	bal, err := e.store.GetTokenBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal.CurrentTokens)

	// The gateway header wins when both are present.
	w = e.do(t, call{method: http.MethodPost, path: "/webhook", body: chargedBody,
		headers: map[string]string{
			HeaderRazorpaySignature: "00",
			HeaderSignature:         signature.Sign([]byte(chargedBody), webhookSecret),
		}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_RequiresCaller(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, call{method: http.MethodGet, path: "/api/v1/tokens/balance"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.APIResponseCodeUnauthorized, envelope(t, w).Code)
}

func TestTokens_TopUpAdjustAndBalance(t *testing.T) {
	e := newEnv(t)
	post := func(path, user, role string, body any) response.APIResponse[json.RawMessage] {
		return envelope(t, e.do(t, call{method: http.MethodPost, path: path, user: user, role: role, body: body}))
	}

	out := post("/api/v1/tokens/adjust/u1", "u1", "", token.AdjustRequest{Type: types.TokenLogTypeConsume, Tokens: 1})
	assert.Equal(t, response.APIResponseCodeNotFound, out.Code)

	out = post("/api/v1/tokens/topup/u1", "u1", "", token.TopUpRequest{Tokens: 1000})
	require.Equal(t, response.APIResponseCodeOK, out.Code)

	out = post("/api/v1/tokens/adjust/u1", "u1", "", token.AdjustRequest{Type: types.TokenLogTypeConsume, Tokens: 300})
	require.Equal(t, response.APIResponseCodeOK, out.Code)

	out = post("/api/v1/tokens/adjust/u1", "u1", "", token.AdjustRequest{Type: types.TokenLogTypeConsume, Tokens: 800})
	assert.Equal(t, response.APIResponseCodeConflict, out.Code)

	out = post("/api/v1/tokens/adjust/u1", "u1", "", map[string]any{"type": "gift", "tokens": 5})
	assert.Equal(t, response.APIResponseCodeBadRequest, out.Code)

	out = post("/api/v1/tokens/adjust/u1", "u2", "", token.AdjustRequest{Type: types.TokenLogTypeBonus, Tokens: 5})
	assert.Equal(t, response.APIResponseCodeForbidden, out.Code)

	out = post("/api/v1/tokens/adjust/u1", "ops", mw.RoleAdmin, token.AdjustRequest{Type: types.TokenLogTypeBonus, Tokens: 50})
	require.Equal(t, response.APIResponseCodeOK, out.Code)

	w := e.do(t, call{method: http.MethodGet, path: "/api/v1/tokens/balance", user: "u1"})
	var bal models.TokenBalance
	require.NoError(t, json.Unmarshal(envelope(t, w).Data, &bal))
	assert.Equal(t, int64(750), bal.CurrentTokens)
	assert.Equal(t, int64(1000), bal.TotalAllocated)

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/tokens/history", user: "u1"})
	var logs []models.TokenLog
	require.NoError(t, json.Unmarshal(envelope(t, w).Data, &logs))
	require.Len(t, logs, 3)
	assert.Equal(t, types.TokenLogTypeBonus, logs[0].Type)
}

func TestSubscriptions_Cancel(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.store.UpsertSubscription(context.Background(), &models.Subscription{
		UserID: "u1", SubscriptionID: "sub_1", Status: lo.ToPtr(types.SubscriptionStatusActive),
	})
	require.NoError(t, err)

	cases := []struct {
		name, query string
		user        string
		code        response.APIResponseCode
		call        string
	}{
		{"defaults to cycle end", "", "u1", response.APIResponseCodeOK, "subscription.cancel.cycle_end sub_1"},
		{"immediate", "?cancel_at_cycle_end=false", "u1", response.APIResponseCodeOK, "subscription.cancel sub_1"},
		{"bad flag", "?cancel_at_cycle_end=maybe", "u1", response.APIResponseCodeBadRequest, ""},
		{"other user", "", "u2", response.APIResponseCodeNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e.gw.Calls = nil
			w := e.do(t, call{method: http.MethodPost, path: "/api/v1/subscriptions/cancel/sub_1" + tc.query, user: tc.user})
			assert.Equal(t, tc.code, envelope(t, w).Code)
			if tc.call == "" {
				assert.Empty(t, e.gw.Calls)
			} else {
				assert.Equal(t, []string{tc.call}, e.gw.Calls)
			}
		})
	}
}

func TestPlans_CreateRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	body := plan.CreateRequest{Period: "monthly", Interval: 1, Item: plan.ItemRequest{Name: "Pro", Amount: 49900, Currency: "INR"}}

	w := e.do(t, call{method: http.MethodPost, path: "/api/v1/subscriptions/plan", user: "u1", body: body})
	assert.Equal(t, response.APIResponseCodeForbidden, envelope(t, w).Code)
	assert.Empty(t, e.gw.Calls)

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/subscriptions/plans/plan_1", user: "u1"})
	var p models.Plan
	require.NoError(t, json.Unmarshal(envelope(t, w).Data, &p))
	assert.Equal(t, int64(500), p.Tokens())

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/subscriptions/plans/plan_x", user: "u1"})
	assert.Equal(t, response.APIResponseCodeNotFound, envelope(t, w).Code)
}

func TestCustomers_HiddenFromOtherUsers(t *testing.T) {
	e := newEnv(t)
	_, err := e.store.UpsertCustomer(context.Background(), &models.Customer{CustomerID: "cust_1", UserID: lo.ToPtr("u2"), Name: lo.ToPtr("Ravi")})
	require.NoError(t, err)

	w := e.do(t, call{method: http.MethodGet, path: "/api/v1/customer/cust_1", user: "u1"})
	assert.Equal(t, response.APIResponseCodeNotFound, envelope(t, w).Code)

	w = e.do(t, call{method: http.MethodPut, path: "/api/v1/customer/cust_1", user: "u1", body: map[string]any{"name": "Mallory"}})
	assert.Equal(t, response.APIResponseCodeNotFound, envelope(t, w).Code)
	assert.Empty(t, e.gw.Calls)

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/customer/cust_1", user: "u2"})
	assert.Equal(t, response.APIResponseCodeOK, envelope(t, w).Code)

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/customers", user: "u2"})
	assert.Equal(t, response.APIResponseCodeForbidden, envelope(t, w).Code)
}

func TestInvoices_NoCustomer(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, call{method: http.MethodGet, path: "/api/v1/invoices", user: "u1"})
	assert.Equal(t, response.APIResponseCodeNotFound, envelope(t, w).Code)

	w = e.do(t, call{method: http.MethodPost, path: "/api/v1/invoice/notify/inv_1/fax", user: "u1"})
	assert.Equal(t, response.APIResponseCodeBadRequest, envelope(t, w).Code)
}

func TestOrders_GatewayFailureAndAdmin(t *testing.T) {
	e := newEnv(t)
	e.gw.Err = fmt.Errorf("%w: timeout", gateway.ErrGateway)

	w := e.do(t, call{method: http.MethodPost, path: "/api/v1/order", user: "u1", body: order.CreateRequest{Amount: 1000}})
	assert.Equal(t, response.APIResponseCodeGateway, envelope(t, w).Code)

	w = e.do(t, call{method: http.MethodPost, path: "/api/v1/order", user: "u1", body: map[string]any{"amount": 0}})
	assert.Equal(t, response.APIResponseCodeBadRequest, envelope(t, w).Code)

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/orders/missing", user: "u1"})
	assert.Equal(t, response.APIResponseCodeNotFound, envelope(t, w).Code)

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/admin/orders", user: "u1"})
	assert.Equal(t, response.APIResponseCodeForbidden, envelope(t, w).Code)

	w = e.do(t, call{method: http.MethodGet, path: "/api/v1/admin/orders", user: "ops", role: mw.RoleAdmin})
	assert.Equal(t, response.APIResponseCodeOK, envelope(t, w).Code)
}

func TestAdmin_Statistics(t *testing.T) {
	e := newEnv(t)
	body := statistics.StatisticRequest{
		From:      "2025-01-01",
		To:        "2025-01-31",
		DataItems: []*statistics.StatisticDataItem{{ID: statistics.StatisticTypeSubscriptionStatusCount}},
	}
	w := e.do(t, call{method: http.MethodPost, path: "/api/v1/admin/statistics", user: "ops", role: mw.RoleAdmin, body: body})
	out := envelope(t, w)
	require.Equal(t, response.APIResponseCodeOK, out.Code)
	var res statistics.StatisticResponse
	require.NoError(t, json.Unmarshal(out.Data, &res))
	assert.Contains(t, res.DataItems, statistics.StatisticTypeSubscriptionStatusCount)
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want response.APIResponseCode
	}{
		{fmt.Errorf("x: %w", types.ErrInvalidRequest), response.APIResponseCodeBadRequest},
		{token.ErrUnsupportedAdjustment, response.APIResponseCodeBadRequest},
		{order.ErrInvalidSignature, response.APIResponseCodeBadRequest},
		{fmt.Errorf("order o1: %w", ledger.ErrNotFound), response.APIResponseCodeNotFound},
		{customer.ErrNoCustomer, response.APIResponseCodeNotFound},
		{payment.ErrNoInvoice, response.APIResponseCodeNotFound},
		{ledger.ErrInsufficientTokens, response.APIResponseCodeConflict},
		{invoice.ErrNotifyBlocked, response.APIResponseCodeConflict},
		{order.ErrNotEligible, response.APIResponseCodeConflict},
		{fmt.Errorf("%w: 503", gateway.ErrGateway), response.APIResponseCodeGateway},
		{gateway.ErrNotConfigured, response.APIResponseCodeGateway},
		{errors.New("disk full"), response.APIResponseCodeError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorCode(tc.err), tc.err.Error())
	}
}

func TestHealthz_ReportsStore(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, call{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, w.Code)
	out := envelope(t, w)
	assert.Equal(t, response.APIResponseCodeOK, out.Code)
	assert.JSONEq(t, `{"status":"ok","store":"ok"}`, string(out.Data))

	require.NoError(t, e.store.Close(context.Background()))
	out = envelope(t, e.do(t, call{method: http.MethodGet, path: "/healthz"}))
	assert.Equal(t, response.APIResponseCodeError, out.Code)
	assert.JSONEq(t, `{"status":"degraded","store":"unreachable"}`, string(out.Data))
}
