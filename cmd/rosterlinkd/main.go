// Command rosterlinkd is the device agent: it holds the enrollment model,
// keeps club metadata cached and reconciles with the tenant backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"rosterlink/internal/backend"
	"rosterlink/internal/cache"
	cachemetrics "rosterlink/internal/cache/metrics"
	cachestore "rosterlink/internal/cache/store"
	"rosterlink/internal/club"
	"rosterlink/internal/device"
	enrollmetrics "rosterlink/internal/enrollment/metrics"
	"rosterlink/internal/enrollment/service"
	enrollstore "rosterlink/internal/enrollment/store"
	"rosterlink/internal/platform/boltdb"
	"rosterlink/internal/platform/config"
	"rosterlink/internal/platform/httpserver"
	"rosterlink/internal/platform/logger"
	"rosterlink/internal/platform/metrics"
	platformredis "rosterlink/internal/platform/redis"
	"rosterlink/internal/reconcile"
	reconcilemetrics "rosterlink/internal/reconcile/metrics"
	reconcilestore "rosterlink/internal/reconcile/store"
	httptransport "rosterlink/internal/transport/http"
	"rosterlink/pkg/platform/circuit"
	"rosterlink/pkg/platform/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rosterlinkd: %v\n", err)
		os.Exit(2)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	log := logger.New("rosterlinkd", level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("rosterlinkd stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("rosterlinkd stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := boltdb.Open(cfg.Storage.Path, cfg.Storage.OpenTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database failed", "error", err)
		}
	}()

	reg := metrics.NewRegistry()

	hardware, err := device.NewBoltStore(db)
	if err != nil {
		return err
	}
	modelStore, err := enrollstore.NewBoltStore(db)
	if err != nil {
		return err
	}
	throttle, err := reconcilestore.NewBoltStore(db)
	if err != nil {
		return err
	}

	tier, closeTier, err := buildTier(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeTier()

	tiered, err := cache.New(tier,
		cache.WithLogger(log.With("component", "cache")),
		cache.WithMetrics(cachemetrics.New(reg)),
		cache.WithMemoryBudget(cfg.Cache.MemoryBytes),
		cache.WithQueueSize(cfg.Cache.QueueSize),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := tiered.Close(); err != nil {
			log.Warn("closing cache failed", "error", err)
		}
	}()

	client, err := backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.RequestTimeout),
		backend.WithLogger(log.With("component", "backend")),
	)
	if err != nil {
		return err
	}

	// The container and the reconciler reference each other: reconcile
	// failures revoke through the container, removals force a reconcile.
	var container *service.Container
	reconciler := reconcile.New(client, throttle,
		reconcile.WithLogger(log.With("component", "reconcile")),
		reconcile.WithMetrics(reconcilemetrics.New(reg)),
		reconcile.WithMinInterval(cfg.Reconcile.MinInterval),
		reconcile.WithHistory(reconcile.NewHistory(cfg.Reconcile.HistorySize)),
		reconcile.WithAuthFailureHandler(func(ctx context.Context, slug string, err error) bool {
			return container.HandleAuthFailure(ctx, slug, err)
		}),
	)

	enrollLog := log.With("component", "enrollment")
	container = service.New(modelStore, client, hardware,
		service.WithLogger(enrollLog),
		service.WithMetrics(enrollmetrics.New(reg)),
		service.WithCache(tiered),
		service.WithReconciler(reconciler),
		service.WithScheduler(schedule.New(schedule.WithLogger(enrollLog))),
		service.WithPushRetryDelay(cfg.Enroll.PushRetryDelay),
	)
	defer container.Close()
	if err := container.Load(ctx); err != nil {
		return err
	}

	clubs := club.New(client, tiered, container,
		club.WithLogger(log.With("component", "club")),
		club.WithTTL(cfg.Club.TTL),
		club.WithWaitCeiling(cfg.Club.WaitCeiling),
		club.WithBreaker(circuit.New("club-metadata",
			circuit.WithFailureThreshold(cfg.Club.BreakerFailures),
			circuit.WithCooldown(cfg.Club.BreakerCooldown),
		)),
	)
	defer clubs.Close()

	handler := httptransport.New(container, clubs, reconciler, log.With("component", "status"))
	router := httptransport.NewRouter(handler, cfg.Status.AdminToken, metrics.Handler(reg), log)
	srv := httpserver.New(cfg.Status.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("status api listening", "addr", cfg.Status.Addr)
		return httpserver.Serve(gctx, srv)
	})
	g.Go(func() error {
		reconcileLoop(gctx, container, reconciler, cfg.Reconcile.TickInterval, log)
		return nil
	})
	g.Go(func() error {
		sweepLoop(gctx, tiered, cfg.Cache.SweepInterval, log)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildTier opens the persistent cache tier selected by configuration.
func buildTier(ctx context.Context, cfg config.Config, db *bbolt.DB) (cache.Tier, func(), error) {
	if cfg.Cache.Tier == "redis" {
		rc, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return cachestore.NewRedisTier(rc.Client), func() { _ = rc.Close() }, nil
	}
	tier, err := cachestore.NewBoltTier(db)
	if err != nil {
		return nil, nil, err
	}
	return tier, func() {}, nil
}

// reconcileLoop attempts a throttled reconciliation at start and on every
// tick. The throttle decides whether a run actually uploads.
func reconcileLoop(ctx context.Context, container *service.Container, reconciler *reconcile.Service, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		id, err := container.Identity(ctx)
		if err != nil {
			log.WarnContext(ctx, "reconcile identity unavailable", "error", err)
		} else {
			res := reconciler.ReconcileIfNeeded(ctx, container.Snapshot(), id)
			log.DebugContext(ctx, "reconcile tick", "status", res.Status)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepLoop(ctx context.Context, c *cache.Tiered, every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Sweep(ctx)
			if err != nil {
				log.WarnContext(ctx, "cache sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "cache sweep purged expired entries", "purged", n)
			}
		}
	}
}
