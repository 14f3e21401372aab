package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/clocktrack/internal/auth"
	"github.com/geocoder89/clocktrack/internal/cache"
	"github.com/geocoder89/clocktrack/internal/cache/redisclient"
	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/db"
	httpx "github.com/geocoder89/clocktrack/internal/http"
	"github.com/geocoder89/clocktrack/internal/http/handlers"
	"github.com/geocoder89/clocktrack/internal/observability"
	"github.com/geocoder89/clocktrack/internal/ownership"
	"github.com/geocoder89/clocktrack/internal/repo/memory"
	"github.com/geocoder89/clocktrack/internal/repo/postgres"
	"github.com/geocoder89/clocktrack/internal/tracking"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "clocktrack-api",
			Environment: cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	var shuttingDown atomic.Bool

	deps := httpx.Deps{
		Tokens:       auth.NewManager(cfg.JWTSecret, cfg.AccessTTL()),
		Readiness:    map[string]handlers.Pinger{},
		ShuttingDown: shuttingDown.Load,
		Prom:         prom,
		Gatherer:     reg,
	}

	var running tracking.RunningCache
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()

		deps.Readiness["redis"] = rdb
		running = cache.NewRedisRunningTimers(rdb, cfg.RunningCacheTTL(), prom)
	} else {
		running = cache.NewRunningTimers(cfg.RunningCacheTTL(), prom)
	}
	deps.Running = running

	var (
		store  tracking.Store
		lookup ownership.Lookup
	)

	switch cfg.Store {
	case "memory":
		mem := memory.NewStore()
		store, lookup = mem, mem
		deps.Clients, deps.Projects, deps.Tasks = mem, mem, mem
		log.Warn("using in-memory store; data is lost on restart")

	default:
		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if cfg.MigrateOnStart {
			if err := db.MigrateUp(ctx, pool); err != nil {
				return err
			}
		}

		if cfg.SeedUserEmail != "" {
			u, err := db.EnsureUser(ctx, postgres.NewUsersRepo(pool), cfg.SeedUserEmail, cfg.SeedUserPassword, cfg.SeedUserName)
			if err != nil {
				return fmt.Errorf("seed user: %w", err)
			}
			log.Info("seed user ready", "user_id", u.ID, "email", u.Email)
		}

		deps.Readiness["postgres"] = pool
		store = postgres.NewTimeEntriesRepo(pool, prom)
		lookup = postgres.NewOwnershipRepo(pool, prom)
		deps.Clients = postgres.NewClientsRepo(pool, prom)
		deps.Projects = postgres.NewProjectsRepo(pool, prom)
		deps.Tasks = postgres.NewTasksRepo(pool, prom)
	}

	owners := ownership.NewResolver(lookup)
	opts := []tracking.Option{tracking.WithCache(running), tracking.WithMetrics(prom)}

	deps.Owners = owners
	deps.Timer = tracking.NewTimer(store, owners, opts...)
	deps.Entries = tracking.NewManager(store, owners, opts...)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpx.NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		shuttingDown.Store(true)
		log.Info("server shutting down")

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.Info("shutdown complete")
		return nil
	})

	return g.Wait()
}
