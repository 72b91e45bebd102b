// Package order handles one-off checkout orders, including orders paid in
// two halves.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/internal/platform/bus"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/cycle"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/signature"
	"github.com/fatflowers/billing/pkg/tool"
	"github.com/fatflowers/billing/pkg/types"
)

const (
	DefaultCurrency = "INR"

	SubjectUserNotification      = "notification.create"
	NotificationRemainingPayment = "remaining_payment_available"
)

var (
	ErrInvalidSignature = errors.New("order: payment signature mismatch")
	ErrNotEligible      = errors.New("order: not eligible for remaining payment")
)

type CreateRequest struct {
	// Amount is what the first gateway order charges, in minor units.
	Amount   int64          `json:"amount" binding:"required,gt=0"`
	Currency string         `json:"currency"`
	Receipt  string         `json:"receipt"`
	Notes    map[string]any `json:"notes"`

	Items           []models.OrderItem      `json:"items"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`

	IsHalfPaid      bool   `json:"isHalfPaid"`
	TotalAmount     *int64 `json:"totalAmount"`
	RemainingAmount *int64 `json:"remainingAmount"`
}

type RemainingRequest struct {
	OriginalOrderID string         `json:"originalOrderId" binding:"required"`
	Amount          int64          `json:"amount"`
	Currency        string         `json:"currency"`
	Receipt         string         `json:"receipt"`
	Notes           map[string]any `json:"notes"`
}

// VerifyRequest is the checkout callback posted by the client.
type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// Notification is published for the notification service to store and show.
type Notification struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionURL string `json:"actionUrl"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

type NotificationResult struct {
	OrderID          string `json:"orderId"`
	NotificationSent bool   `json:"notificationSent"`
	UserEmail        string `json:"userEmail,omitempty"`
}

type Service struct {
	store     ledger.Store
	gw        gateway.Gateway
	pub       bus.Publisher
	keySecret string
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewService(store ledger.Store, gw gateway.Gateway, pub bus.Publisher, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{
		store:     store,
		gw:        gw,
		pub:       pub,
		keySecret: cfg.Razorpay.KeySecret,
		log:       log,
		now:       time.Now,
	}
}

// RemainingAmount is what is left to pay after a first payment of amount:
// remaining when given, else total minus amount, else half of amount
// rounded up.
func RemainingAmount(amount int64, total, remaining *int64) int64 {
	switch {
	case remaining != nil:
		return *remaining
	case total != nil:
		return decimal.NewFromInt(*total).Sub(decimal.NewFromInt(amount)).IntPart()
	default:
		return decimal.NewFromInt(amount).Div(decimal.NewFromInt(2)).Ceil().IntPart()
	}
}

// FormatAmount renders minor units as a major-unit amount, e.g. 49950 INR
// as "INR 499.50".
func FormatAmount(minor int64, currency string) string {
	return currency + " " + decimal.New(minor, -2).StringFixed(2)
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*models.Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", types.ErrInvalidRequest)
	}
	currency := lo.Ternary(req.Currency == "", DefaultCurrency, req.Currency)
	notes := lo.Assign(req.Notes, map[string]any{"userId": userID})

	ent, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  req.Receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, err
	}
	gatewayID := tool.ToString(ent["id"])
	if gatewayID == "" {
		return nil, fmt.Errorf("%w: order create returned no id", gateway.ErrGateway)
	}

	o := fromEntity(ent)
	o.ID = tool.GenerateUUIDV7()
	o.UserID = userID
	o.Items = req.Items
	o.ShippingAddress = req.ShippingAddress
	if o.Amount == 0 {
		o.Amount = req.Amount
	}
	if o.Currency == "" {
		o.Currency = currency
	}
	if o.Notes == nil {
		o.Notes = notes
	}
	o.IsHalfPaid = lo.ToPtr(req.IsHalfPaid)
	if req.IsHalfPaid {
		remaining := RemainingAmount(req.Amount, req.TotalAmount, req.RemainingAmount)
		o.RemainingAmount = lo.ToPtr(remaining)
		o.HalfPaymentStatus = lo.ToPtr(types.HalfPaymentStatusPending)
		o.PaymentType = lo.ToPtr(types.PaymentTypeHalf)
		o.HalfPaymentDetails = &models.HalfPaymentDetails{
			FirstPaymentAmount: req.Amount,
			RemainingAmount:    remaining,
			FirstPaymentDate:   cycle.Format(s.now()),
		}
	} else {
		o.HalfPaymentStatus = lo.ToPtr(types.HalfPaymentStatusNotApplicable)
		o.PaymentType = lo.ToPtr(types.PaymentTypeFull)
	}

	if err := s.store.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("save order %s: %w", gatewayID, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("order_created",
		"order_id", o.ID, "gateway_order_id", gatewayID, "amount", FormatAmount(o.Amount, o.Currency), "half_paid", req.IsHalfPaid)
	return o, nil
}

// owned loads an order; a non-empty userID must match its owner.
func (s *Service) owned(ctx context.Context, userID, id string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && o.UserID != userID {
		return nil, ledger.ErrNotFound
	}
	return o, nil
}

// Get returns the order, refreshed from the gateway unless both payments
// are settled. The first gateway order is consulted until it is paid, the
// second one after that.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Order, error) {
	o, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	half := lo.FromPtr(o.HalfPaymentStatus)
	paid := o.StatusValue() == types.OrderStatusPaid
	if paid && (half == types.HalfPaymentStatusPaid || half == types.HalfPaymentStatusNotApplicable) {
		return o, nil
	}
	gatewayID := o.OrderID
	if paid {
		gatewayID = models.Str(o.SecondOrderID)
		if gatewayID == "" {
			return o, nil
		}
	}

	ent, err := s.gw.FetchOrder(ctx, gatewayID)
	if err != nil {
		return nil, err
	}
	status := tool.ToString(ent["status"])
	if status == "" {
		return nil, fmt.Errorf("%w: order %s has no status", gateway.ErrGateway, gatewayID)
	}

	patch := &models.Order{}
	if !paid {
		patch.Status = lo.ToPtr(status)
	}
	if o.HalfPaid() && lo.FromPtr(o.PaymentType) == types.PaymentTypeRemaining {
		patch.HalfPaymentStatus = lo.ToPtr(types.HalfPaymentStatus(status))
	}
	if patch.Status == nil && patch.HalfPaymentStatus == nil {
		return o, nil
	}
	logctx.FromCtx(ctx, s.log).Infow("order_status_refreshed", "order_id", id, "gateway_order_id", gatewayID, "status", status)
	return s.store.UpdateOrder(ctx, id, patch)
}

// Payments lists the gateway's payments for one of the user's gateway orders.
func (s *Service) Payments(ctx context.Context, userID, gatewayOrderID string) (gateway.Entity, error) {
	o, err := s.store.FindOrderByGatewayID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && o.UserID != userID {
		return nil, ledger.ErrNotFound
	}
	return s.gw.FetchOrderPayments(ctx, gatewayOrderID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return s.store.ListOrders(ctx, ledger.OrderFilter{UserID: userID})
}

func (s *Service) ListAll(ctx context.Context) ([]*models.Order, error) {
	return s.store.ListOrders(ctx, ledger.OrderFilter{})
}

// EnableRemainingPayment lets the customer settle the second half.
func (s *Service) EnableRemainingPayment(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.HalfPaid() || lo.FromPtr(o.HalfPaymentStatus) == types.HalfPaymentStatusPaid {
		return nil, fmt.Errorf("%w: order %s", ErrNotEligible, id)
	}
	return s.store.UpdateOrder(ctx, id, &models.Order{
		EnableRemainingPayment: lo.ToPtr(true),
		TrackingIDSentAt:       lo.ToPtr(cycle.Format(s.now())),
	})
}

func (s *Service) SendRemainingPaymentNotification(ctx context.Context, id string) (*NotificationResult, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	remaining := lo.FromPtr(o.RemainingAmount)
	n := Notification{
		OrderID:   id,
		UserID:    o.UserID,
		Type:      NotificationRemainingPayment,
		Title:     "Complete your payment",
		Message:   fmt.Sprintf("Your order is ready for delivery. Please complete the remaining payment of %s.", FormatAmount(remaining, o.Currency)),
		ActionURL: "/pay-remaining/" + id,
		CreatedAt: cycle.Format(s.now()),
	}
	if err := s.pub.Publish(ctx, SubjectUserNotification, n); err != nil {
		return nil, fmt.Errorf("publish notification for order %s: %w", id, err)
	}
	if d := o.HalfPaymentDetails; d != nil {
		details := *d
		details.RemindersSent++
		if _, err := s.store.UpdateOrder(ctx, id, &models.Order{HalfPaymentDetails: &details}); err != nil {
			logctx.FromCtx(ctx, s.log).Warnw("order_reminder_count_failed", "order_id", id, "err", err)
		}
	}
	logctx.FromCtx(ctx, s.log).Infow("remaining_payment_notified", "order_id", id, "user_id", o.UserID)
	return &NotificationResult{
		OrderID:          id,
		NotificationSent: true,
		UserEmail:        tool.ToString(o.Notes["userEmail"]),
	}, nil
}

// CreateRemainingPayment opens the second gateway order of a half-paid order.
func (s *Service) CreateRemainingPayment(ctx context.Context, userID string, req RemainingRequest) (*models.Order, error) {
	o, err := s.owned(ctx, userID, req.OriginalOrderID)
	if err != nil {
		return nil, err
	}
	if !o.HalfPaid() || lo.FromPtr(o.HalfPaymentStatus) == types.HalfPaymentStatusPaid {
		return nil, fmt.Errorf("%w: order %s", ErrNotEligible, o.ID)
	}
	amount := lo.Ternary(req.Amount > 0, req.Amount, lo.FromPtr(o.RemainingAmount))
	if amount <= 0 {
		return nil, fmt.Errorf("%w: no remaining amount", types.ErrInvalidRequest)
	}
	currency := lo.Ternary(req.Currency == "", o.Currency, req.Currency)

	ent, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  req.Receipt,
		Notes:    lo.Assign(req.Notes, map[string]any{"userId": o.UserID, "originalOrderId": o.ID}),
	})
	if err != nil {
		return nil, err
	}
	secondID := tool.ToString(ent["id"])
	if secondID == "" {
		return nil, fmt.Errorf("%w: order create returned no id", gateway.ErrGateway)
	}

	details := lo.FromPtr(o.HalfPaymentDetails)
	details.RemainingPaymentDate = cycle.Format(s.now())
	out, err := s.store.UpdateOrder(ctx, o.ID, &models.Order{
		SecondOrderID:      lo.ToPtr(secondID),
		HalfPaymentStatus:  lo.ToPtr(types.HalfPaymentStatusCreated),
		PaymentType:        lo.ToPtr(types.PaymentTypeRemaining),
		HalfPaymentDetails: &details,
	})
	if err != nil {
		return nil, fmt.Errorf("save second order %s: %w", secondID, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("remaining_order_created", "order_id", o.ID, "second_order_id", secondID, "amount", FormatAmount(amount, currency))
	return out, nil
}

// VerifyPayment checks the checkout signature, then copies the gateway
// order's status onto the matching local order: the first order's status
// lands on Status, the second order's on HalfPaymentStatus.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyRequest) (*models.Order, error) {
	return s.verify(ctx, req, false)
}

// VerifyRemainingPayment is VerifyPayment for the second half only.
func (s *Service) VerifyRemainingPayment(ctx context.Context, req VerifyRequest) (*models.Order, error) {
	return s.verify(ctx, req, true)
}

func (s *Service) verify(ctx context.Context, req VerifyRequest, secondOnly bool) (*models.Order, error) {
	log := logctx.FromCtx(ctx, s.log).With("gateway_order_id", req.OrderID, "payment_id", req.PaymentID)
	if !signature.VerifyPayment(req.OrderID, req.PaymentID, req.Signature, s.keySecret) {
		log.Warnw("payment_signature_mismatch")
		return nil, ErrInvalidSignature
	}
	o, err := s.store.FindOrderByGatewayID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	second := models.Str(o.SecondOrderID) == req.OrderID
	if secondOnly && !second {
		return nil, fmt.Errorf("%w: %s is not a remaining-payment order", ErrNotEligible, req.OrderID)
	}

	ent, err := s.gw.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	status := lo.CoalesceOrEmpty(tool.ToString(ent["status"]), "created")

	patch := &models.Order{}
	if second {
		patch.HalfPaymentStatus = lo.ToPtr(types.HalfPaymentStatus(status))
	} else {
		patch.Status = lo.ToPtr(status)
		patch.AmountPaid = amountPtr(ent["amount_paid"])
		patch.AmountDue = amountPtr(ent["amount_due"])
	}
	out, err := s.store.UpdateOrder(ctx, o.ID, patch)
	if err != nil {
		return nil, err
	}
	log.Infow("payment_verified", "order_id", o.ID, "status", status, "second", second)
	return out, nil
}

func amountPtr(v any) *int64 {
	n, ok := tool.ParseInt64(v)
	if !ok {
		return nil
	}
	return &n
}

func fromEntity(ent gateway.Entity) *models.Order {
	o := &models.Order{
		OrderID:    tool.ToString(ent["id"]),
		Amount:     tool.ToInt64(ent["amount"]),
		Currency:   tool.ToString(ent["currency"]),
		AmountPaid: amountPtr(ent["amount_paid"]),
		AmountDue:  amountPtr(ent["amount_due"]),
		Attempts:   amountPtr(ent["attempts"]),
	}
	if v := tool.ToString(ent["receipt"]); v != "" {
		o.Receipt = lo.ToPtr(v)
	}
	if v := tool.ToString(ent["status"]); v != "" {
		o.Status = lo.ToPtr(v)
	}
	if notes, ok := ent["notes"].(map[string]any); ok {
		o.Notes = notes
	}
	return o
}
