package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/billing/pkg/config"
)

// NewClient returns nil when redis.addr is empty; consumers then fall back to
// process-local behaviour.
func NewClient(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config) *goredis.Client {
	if cfg.Redis.Addr == "" {
		l.Infow("redis disabled")
		return nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				l.Warnw("redis ping failed", "addr", cfg.Redis.Addr, "err", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			l.Infow("closing redis client")
			return rdb.Close()
		},
	})
	l.Infow("redis configured", "addr", cfg.Redis.Addr)
	return rdb
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
