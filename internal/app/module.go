package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/billing/internal/app/api/server"
	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/app/service/invoice"
	notificationlog "github.com/fatflowers/billing/internal/app/service/notification_log"
	"github.com/fatflowers/billing/internal/app/service/order"
	"github.com/fatflowers/billing/internal/app/service/payment"
	"github.com/fatflowers/billing/internal/app/service/plan"
	"github.com/fatflowers/billing/internal/app/service/profile"
	"github.com/fatflowers/billing/internal/app/service/reconcile"
	"github.com/fatflowers/billing/internal/app/service/statistics"
	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/internal/app/service/token"
	"github.com/fatflowers/billing/internal/app/service/webhook"
	"github.com/fatflowers/billing/internal/platform/bus"
	"github.com/fatflowers/billing/internal/platform/db"
	"github.com/fatflowers/billing/internal/platform/lock"
	"github.com/fatflowers/billing/internal/platform/razorpay/gateway"
	"github.com/fatflowers/billing/internal/platform/redis"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/logger"
	"github.com/fatflowers/billing/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	redis.Module,
	lock.Module,
	bus.Module,
	gateway.Module,
	server.Module,
	profile.Module,
	subscription.Module,
	token.Module,
	plan.Module,
	customer.Module,
	invoice.Module,
	payment.Module,
	order.Module,
	statistics.Module,
	notificationlog.Module,
	webhook.Module,
	reconcile.Module,
)
