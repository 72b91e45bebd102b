package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/ledger/gormstore"
	"github.com/fatflowers/billing/internal/ledger/memory"
	"github.com/fatflowers/billing/internal/ledger/mongostore"
	cfgpkg "github.com/fatflowers/billing/pkg/config"
	gormzap "github.com/fatflowers/billing/pkg/gormlog"
)

const migrateTimeout = 30 * time.Second

// NewGormDB opens the relational database selected by database.driver.
func NewGormDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case cfgpkg.DBDriverPostgres:
		dialector = postgres.Open(cfg.Database.DSN)
	case cfgpkg.DBDriverMySQL:
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("db: %q is not a sql driver", cfg.Database.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormzap.New(l, gormzap.WithSlowThreshold(cfg.Database.SlowThreshold)),
		TranslateError: true,
	})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to database via DSN", "driver", cfg.Database.Driver)
	return db, nil
}

// NewMongoClient connects lazily; the first operation dials the server.
// Token writes run in multi-document transactions, so the URI must point at a
// replica set or sharded cluster (a single-node replica set is enough locally).
func NewMongoClient(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Database.MongoURI))
	if err != nil {
		l.Errorf("failed to create mongo client: %v", err)
		return nil, err
	}
	l.Infow("mongo client created", "database", cfg.Database.MongoDatabase)
	return client, nil
}

// Open builds the ledger backend selected by database.driver and migrates it.
func Open(ctx context.Context, l *zap.SugaredLogger, cfg *cfgpkg.Config) (ledger.Store, error) {
	var store ledger.Store
	switch cfg.Database.Driver {
	case cfgpkg.DBDriverPostgres, cfgpkg.DBDriverMySQL:
		gdb, err := NewGormDB(l, cfg)
		if err != nil {
			return nil, err
		}
		store = gormstore.New(gdb, l)
	case cfgpkg.DBDriverMongo:
		client, err := NewMongoClient(l, cfg)
		if err != nil {
			return nil, err
		}
		store = mongostore.New(client, cfg.Database.MongoDatabase, l)
	case cfgpkg.DBDriverMemory:
		l.Warnw("using in-memory ledger; data is lost on restart")
		store = memory.New()
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close(context.Background())
		return nil, err
	}
	return store, nil
}

// NewStore opens the ledger and registers its shutdown.
func NewStore(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config) (ledger.Store, error) {
	store, err := Open(context.Background(), l, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close(ctx)
		},
	})
	return store, nil
}

var Module = fx.Options(
	fx.Provide(NewStore),
)
