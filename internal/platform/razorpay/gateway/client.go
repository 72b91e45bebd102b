package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/metrics"
)

// Client implements Gateway on the official SDK. The SDK is blocking and has
// no context support, so every call runs in its own goroutine and is
// abandoned when ctx or the configured timeout ends first.
type Client struct {
	api     *razorpay.Client
	timeout time.Duration
	metrics *metrics.Business
	logger  *zap.SugaredLogger
}

var _ Gateway = (*Client)(nil)

func NewClient(keyID, keySecret string, timeout time.Duration, m *metrics.Business, l *zap.SugaredLogger) *Client {
	var api *razorpay.Client
	if keyID != "" {
		api = razorpay.NewClient(keyID, keySecret)
	}
	return &Client{api: api, timeout: timeout, metrics: m, logger: l}
}

func New(cfg *config.Config, m *metrics.Business, l *zap.SugaredLogger) Gateway {
	if cfg.Razorpay.KeyID == "" {
		l.Warnw("razorpay api key not configured, gateway calls will fail")
	}
	return NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Timeout, m, l)
}

type result struct {
	body Entity
	err  error
}

func (c *Client) call(ctx context.Context, op string, fn func() (Entity, error)) (Entity, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan result, 1)
	go func() {
		body, err := fn()
		done <- result{body: body, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		c.metrics.ObserveGateway(op, "error", start)
		logctx.FromCtx(ctx, c.logger).Warnw("gateway_call_failed", "op", op, "err", res.err)
		if errors.Is(res.err, ErrNotConfigured) {
			return nil, res.err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrGateway, op, res.err)
	}
	c.metrics.ObserveGateway(op, "ok", start)
	return res.body, nil
}

func (c *Client) sdk() (*razorpay.Client, error) {
	if c.api == nil {
		return nil, ErrNotConfigured
	}
	return c.api, nil
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Entity, error) {
	return c.call(ctx, "order.create", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Order.Create(req.body(), nil)
	})
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (Entity, error) {
	return c.call(ctx, "order.fetch", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Order.Fetch(orderID, nil, nil)
	})
}

func (c *Client) FetchOrderPayments(ctx context.Context, orderID string) (Entity, error) {
	return c.call(ctx, "order.payments", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Order.Payments(orderID, nil, nil)
	})
}

func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (Entity, error) {
	return c.call(ctx, "subscription.create", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Subscription.Create(req.body(), nil)
	})
}

func (c *Client) FetchSubscription(ctx context.Context, subscriptionID string) (Entity, error) {
	return c.call(ctx, "subscription.fetch", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Subscription.Fetch(subscriptionID, nil, nil)
	})
}

func (c *Client) EditSubscription(ctx context.Context, subscriptionID string, fields map[string]any) (Entity, error) {
	return c.call(ctx, "subscription.update", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Subscription.Update(subscriptionID, fields, nil)
	})
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (Entity, error) {
	return c.call(ctx, "subscription.cancel", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Subscription.Cancel(subscriptionID, map[string]any{"cancel_at_cycle_end": boolFlag(atCycleEnd)}, nil)
	})
}

func (c *Client) PauseSubscription(ctx context.Context, subscriptionID string) (Entity, error) {
	return c.call(ctx, "subscription.pause", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Subscription.Pause(subscriptionID, map[string]any{"pause_at": "now"}, nil)
	})
}

func (c *Client) ResumeSubscription(ctx context.Context, subscriptionID string) (Entity, error) {
	return c.call(ctx, "subscription.resume", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Subscription.Resume(subscriptionID, map[string]any{"resume_at": "now"}, nil)
	})
}

func (c *Client) CreatePlan(ctx context.Context, req PlanRequest) (Entity, error) {
	return c.call(ctx, "plan.create", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Plan.Create(req.body(), nil)
	})
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (Entity, error) {
	return c.call(ctx, "payment.fetch", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Payment.Fetch(paymentID, nil, nil)
	})
}

func (c *Client) CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (Entity, error) {
	return c.call(ctx, "payment.capture", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Payment.Capture(paymentID, int(amount), map[string]any{"currency": currency}, nil)
	})
}

func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (Entity, error) {
	return c.call(ctx, "customer.create", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		body := req.body()
		body["fail_existing"] = boolFlag(req.FailExisting)
		return api.Customer.Create(body, nil)
	})
}

func (c *Client) EditCustomer(ctx context.Context, customerID string, req CustomerRequest) (Entity, error) {
	return c.call(ctx, "customer.edit", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Customer.Edit(customerID, req.body(), nil)
	})
}

func (c *Client) FetchCustomer(ctx context.Context, customerID string) (Entity, error) {
	return c.call(ctx, "customer.fetch", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Customer.Fetch(customerID, nil, nil)
	})
}

func (c *Client) FetchInvoice(ctx context.Context, invoiceID string) (Entity, error) {
	return c.call(ctx, "invoice.fetch", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Invoice.Fetch(invoiceID, nil, nil)
	})
}

func (c *Client) NotifyInvoice(ctx context.Context, invoiceID, medium string) (Entity, error) {
	return c.call(ctx, "invoice.notify", func() (Entity, error) {
		api, err := c.sdk()
		if err != nil {
			return nil, err
		}
		return api.Invoice.Notify(invoiceID, medium, nil, nil)
	})
}

var Module = fx.Options(
	fx.Provide(New),
)
