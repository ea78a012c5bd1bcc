package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/b2bnest/b2bnest-api/config"
	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/bootstrap"
	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/scheduler"
	"github.com/b2bnest/b2bnest-api/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	pool, err := bootstrap.OpenPool(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database), MaxConns: 10})
	if err != nil {
		return err
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = bootstrap.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and live notifications", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var fb *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		fb, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
	}

	services, err := bootstrap.NewServices(ctx, cfg, bootstrap.Infra{SQL: sqlDB, Pool: pool, Redis: rdb, Firebase: fb})
	if err != nil {
		return err
	}

	guard, err := bootstrap.AuthMiddleware(cfg.Auth, fb)
	if err != nil {
		return err
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		DB:          pool,
		Redis:       rdb,
		Auth:        guard,
		Services:    services,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New()
		if err := sched.Add("publish_due_posts", cfg.Scheduler.PublishPostsSpec, services.Social.PublishDue); err != nil {
			return err
		}
		if err := sched.Add("mark_overdue_obligations", cfg.Scheduler.OverdueSpec, services.HMRC.MarkOverdue); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("auth_mode", cfg.Auth.Mode),
			zap.Bool("hmrc_live", services.HMRC.Live()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if sched != nil {
		g.Go(func() error { return sched.Run(gctx) })
	}

	return g.Wait()
}
