package notification_log

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/tool"
)

const queueSize = 1024

type job struct {
	ctx context.Context
	row models.WebhookLog
}

// Service writes the webhook delivery trail off the request path. A single
// worker drains the queue so saves of the same row land in call order.
type Service struct {
	store ledger.Store
	log   *zap.SugaredLogger
	queue chan job
	wg    sync.WaitGroup
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func New(store ledger.Store, log *zap.SugaredLogger) *Service {
	s := &Service{store: store, log: log, queue: make(chan job, queueSize), done: make(chan struct{})}
	go s.run()
	return s
}

func (s *Service) run() {
	defer close(s.done)
	for j := range s.queue {
		if err := s.store.SaveWebhookLog(j.ctx, &j.row); err != nil {
			logctx.FromCtx(j.ctx, s.log).Errorf("failed to save webhook log: %v", err)
		}
		s.wg.Done()
	}
}

// Save asynchronously persists a webhook log. Nil input is ignored. A log
// without an id gets one assigned before Save returns, so the caller can save
// the same row again with its final status.
func (s *Service) Save(ctx context.Context, log *models.WebhookLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	// The request may finish before the write does.
	j := job{ctx: context.WithoutCancel(ctx), row: *log}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logctx.FromCtx(ctx, s.log).Warnw("webhook_log_after_close", "event_id", log.EventID, "status", log.Status)
		return
	}
	s.wg.Add(1)
	select {
	case s.queue <- j:
	default:
		s.wg.Done()
		logctx.FromCtx(ctx, s.log).Warnw("webhook_log_dropped", "event_id", log.EventID, "status", log.Status)
	}
}

// Wait blocks until every pending Save has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close flushes pending saves and stops the worker. Saves after Close are
// dropped with a warning. Close is idempotent.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	close(s.queue)
	<-s.done
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Service) {
		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			s.Close()
			return nil
		}})
	}),
)
