// Package main wires the fleet admin API, the live tracking feed and the
// background optimisation workers.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/Khangurai/zap-admin/internal/baas"
	"github.com/Khangurai/zap-admin/internal/config"
	"github.com/Khangurai/zap-admin/internal/mapping/google"
	"github.com/Khangurai/zap-admin/internal/mapping/graphhopper"
	"github.com/Khangurai/zap-admin/internal/mapping/mapbox"
	"github.com/Khangurai/zap-admin/internal/observability"
	"github.com/Khangurai/zap-admin/internal/optimization"
	"github.com/Khangurai/zap-admin/internal/planner"
	"github.com/Khangurai/zap-admin/internal/quota"
	"github.com/Khangurai/zap-admin/internal/repository"
	"github.com/Khangurai/zap-admin/internal/store"
	"github.com/Khangurai/zap-admin/internal/tracking"
	"github.com/Khangurai/zap-admin/internal/transport/http/middleware"
	"github.com/Khangurai/zap-admin/internal/transport/http/server/handlers-fiber"
	"github.com/Khangurai/zap-admin/internal/usecase"
	"github.com/Khangurai/zap-admin/internal/usecase/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Infow("starting zap-admin", "addr", cfg.ServerAddr())

	go func() {
		if err := observability.StartMetricsServer(ctx, cfg.Metrics.Port); err != nil {
			log.Errorw("metrics server failed", "error", err)
		}
	}()
	health := observability.NewHealthServer(log)
	go func() {
		if err := health.Serve(ctx, cfg.GRPC.Port); err != nil {
			log.Errorw("grpc health server failed", "error", err)
		}
	}()

	rdb, err := store.InitRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Errorw("redis init failed", "error", err)
		return
	}
	defer func() { _ = rdb.Close() }()

	repo, err := repository.New(ctx, "postgres", log, cfg)
	if err != nil {
		log.Errorw("repository initialization error", "error", err)
		return
	}
	if err := repo.OnStart(ctx); err != nil {
		log.Errorw("repository start error", "error", err)
		return
	}
	defer func() {
		_ = repo.OnStop(context.Background())
	}()

	guard := quota.NewGuard(rdb)
	guard.Register(quota.Rule{Name: google.QuotaRule, DailyLimit: cfg.Google.DailyLimit})

	timeout := cfg.HTTP.RequestTimeout
	maps := google.NewClient(cfg.Google.BaseURL, cfg.Google.APIKey, timeout, guard)
	geocoder := google.NewCachedGeocoder(maps, rdb, cfg.Google.GeocodeTTL)
	vrp := graphhopper.NewClient(cfg.GraphHopper.BaseURL, cfg.GraphHopper.APIKey, timeout,
		cfg.GraphHopper.PollInterval, cfg.GraphHopper.PollAttempts)
	static := mapbox.NewClient(cfg.Mapbox.BaseURL, cfg.Mapbox.Token)
	bs := baas.NewClient(cfg.BaaS.URL, cfg.BaaS.AnonKey, cfg.BaaS.ServiceKey, timeout)

	uc := usecase.New(log, ctx, repo, domain.Deps{
		Auth:         bs,
		Storage:      bs,
		Maps:         static,
		Cache:        rdb,
		AvatarBucket: cfg.BaaS.AvatarBucket,
	}, timeout)

	plans := planner.NewService(log, rdb, maps, geocoder, repo, repo, planner.Config{
		TTL:            cfg.Planner.TTL,
		DragThresholdM: cfg.Planner.DragThresholdM,
	})

	jobs := optimization.NewService(log, rdb, vrp, repo, cfg.GraphHopper.Workers, cfg.GraphHopper.JobTTL)
	jobs.Start(ctx)

	hub := tracking.NewHub(log)
	tracker := tracking.NewTracker(log, rdb, hub)
	go func() {
		if err := hub.Serve(ctx, cfg.Live.Port); err != nil {
			log.Errorw("live server failed", "error", err)
		}
	}()
	if cfg.Tracking.GTFSRTURL != "" {
		feed := tracking.NewGTFSRTFeed(cfg.Tracking.GTFSRTURL, timeout)
		go tracking.NewPoller(log, feed, tracker, tracking.SourceGTFSRT, cfg.Tracking.Refresh).Run(ctx)
	}
	if cfg.Tracking.LinkAddr != "" {
		go tracking.NewLinkClient(log, cfg.Tracking.LinkAddr, tracker).Run(ctx)
	}

	serv := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.RequestTimeout,
		WriteTimeout: cfg.HTTP.RequestTimeout,
		BodyLimit:    4 * 1024 * 1024,
	})
	serv.Use(recover.New())
	serv.Use(requestid.New())
	serv.Use(middleware.RequestLogger(log))

	serv.Get("/healthz", handlers_fiber.Healthz(rdb))

	h := handlers_fiber.NewHandler(log, uc, plans, jobs, tracker)
	handlers_fiber.Register(serv, h)

	go func() {
		if err := serv.Listen(cfg.ServerAddr()); err != nil {
			log.Errorw("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = serv.Shutdown()
		jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warnw("server shutdown timeout", "timeout", cfg.Server.ShutdownTimeout)
	}
}
