// Package bus publishes JSON messages to NATS. Without a configured URL it
// logs the messages instead, which keeps local runs self-contained.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/billing/pkg/config"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.SugaredLogger
}

func NewNATSPublisher(url, prefix string, l *zap.SugaredLogger) (*NATSPublisher, error) {
	p := &NATSPublisher{prefix: prefix, logger: l}
	conn, err := nats.Connect(
		url,
		nats.Name("billing"),
		nats.ReconnectHandler(p.reconnectHandler),
		nats.DisconnectErrHandler(p.disconnectHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("bus: connect %s: %w", url, err)
	}
	p.conn = conn
	return p, nil
}

func (p *NATSPublisher) reconnectHandler(nc *nats.Conn) {
	p.logger.Infow("nats reconnected", "url", nc.ConnectedUrl())
}

func (p *NATSPublisher) disconnectHandler(_ *nats.Conn, err error) {
	if err != nil {
		p.logger.Errorw("nats disconnected", "err", err)
	}
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bus: encode %s: %w", subject, err)
	}
	return p.conn.Publish(Subject(p.prefix, subject), data)
}

// Drain flushes pending messages and closes the connection.
func (p *NATSPublisher) Drain() error {
	return p.conn.Drain()
}

// Subject joins prefix and subject with a dot, skipping an empty prefix.
func Subject(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return strings.TrimSuffix(prefix, ".") + "." + subject
}

// LogPublisher only logs what would have been published.
type LogPublisher struct {
	logger *zap.SugaredLogger
}

func NewLogPublisher(l *zap.SugaredLogger) *LogPublisher {
	return &LogPublisher{logger: l}
}

func (p *LogPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.logger.Infow("bus_publish_skipped", "subject", subject, "payload", payload)
	return nil
}

func New(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config) (Publisher, error) {
	if cfg.NATS.URL == "" {
		l.Infow("nats disabled; bus messages are logged only")
		return NewLogPublisher(l), nil
	}
	p, err := NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, l)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			l.Infow("draining nats connection")
			return p.Drain()
		},
	})
	return p, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
