package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/docs"
	"github.com/fatflowers/billing/internal/app/api/handlers"
	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/app/service/invoice"
	"github.com/fatflowers/billing/internal/app/service/order"
	"github.com/fatflowers/billing/internal/app/service/payment"
	"github.com/fatflowers/billing/internal/app/service/plan"
	"github.com/fatflowers/billing/internal/app/service/statistics"
	"github.com/fatflowers/billing/internal/app/service/subscription"
	"github.com/fatflowers/billing/internal/app/service/token"
	"github.com/fatflowers/billing/internal/app/service/webhook"
	"github.com/fatflowers/billing/internal/ledger"
	cfgpkg "github.com/fatflowers/billing/pkg/config"
	metrics "github.com/fatflowers/billing/pkg/metrics"
)

func newEngine(log *zap.SugaredLogger, cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware(log))
	return r
}

type routeParams struct {
	fx.In

	Engine        *gin.Engine
	Store         ledger.Store
	Log           *zap.SugaredLogger
	Cfg           *cfgpkg.Config
	Webhook       *webhook.Dispatcher
	Tokens        *token.Service
	Subscriptions *subscription.Service
	Plans         *plan.Service
	Customers     *customer.Service
	Invoices      *invoice.Service
	Payments      *payment.Service
	Orders        *order.Service
	Stats         *statistics.Service
}

func registerRoutes(p routeParams) {
	r, log, cfg := p.Engine, p.Log, p.Cfg
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		prom.SetListenAddress(cfg.MetricsAddr)
		prom.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}
	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub, p.Store)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	// Gateway callbacks authenticate by signature, not by caller headers.
	handlers.RegisterWebhookRoutes(pub, p.Webhook)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.UserMiddleware(), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.RequireUser())
	handlers.RegisterTokenRoutes(apiV1, p.Tokens)
	handlers.RegisterSubscriptionRoutes(apiV1, p.Subscriptions)
	handlers.RegisterPlanRoutes(apiV1, p.Plans)
	handlers.RegisterCustomerRoutes(apiV1, p.Customers)
	handlers.RegisterInvoiceRoutes(apiV1, p.Invoices)
	handlers.RegisterPaymentRoutes(apiV1, p.Payments, p.Orders)
	handlers.RegisterOrderRoutes(apiV1, p.Orders)

	handlers.RegisterAdminRoutes(apiV1.Group("/admin", mw.RequireAdmin()), p.Stats, p.Orders, p.Payments)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
