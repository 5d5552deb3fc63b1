package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/config"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/usecase"

	"github.com/google/uuid"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

// 起動時に組み立てる共通部品
type app struct {
	cfg     config.Config
	log     *slog.Logger
	repos   infraRepo.Repositories
	health  func(ctx context.Context) error
	closers []func() error
}

// boot は設定を読み、DB_DRIVERに応じてDBへ接続する。
func boot(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.GoEnv)
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log}
	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		gdb, err := db.ConnectPostgres(cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		a.repos = infraRepo.NewGormRepositories(gdb)
		a.closers = append(a.closers, func() error { return db.ClosePostgres(gdb) })
		a.health = func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	case config.DBDriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		database := client.Database(cfg.MongoDB)
		a.repos = infraRepo.NewMongoRepositories(client, database)
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		a.health = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	log.Info("database connected", "driver", cfg.DBDriver)
	return a, nil
}

// 注文通知の送り先
func (a *app) notifier() usecase.OrderNotifier {
	switch a.cfg.NotifyDriver {
	case config.NotifyDriverSMTP:
		return notify.NewSMTPNotifier(a.cfg.SMTPHost, a.cfg.SMTPPort, a.cfg.SMTPFrom)
	case config.NotifyDriverKafka:
		n := notify.NewKafkaNotifier(a.cfg.KafkaBrokers, a.cfg.KafkaOrderTopic)
		a.closers = append(a.closers, n.Close)
		return n
	default:
		return notify.NewLogNotifier(a.log)
	}
}

// REDIS_ADDRが空、または繋がらなければキャッシュなし
func (a *app) reportCache(ctx context.Context) usecase.ReportCache {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	c := cache.NewRedisCache(a.cfg.RedisAddr)
	if err := c.Ping(ctx); err != nil {
		a.log.Warn("analytics cache disabled", "err", err)
		_ = c.Close()
		return nil
	}
	a.closers = append(a.closers, c.Close)
	return c
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "err", err)
		}
	}
}
