package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/yonetim/adminpanel/internal/app"
	"github.com/yonetim/adminpanel/internal/audit"
	audithttp "github.com/yonetim/adminpanel/internal/audit/http"
	"github.com/yonetim/adminpanel/internal/auth"
	"github.com/yonetim/adminpanel/internal/content"
	"github.com/yonetim/adminpanel/internal/deploy"
	"github.com/yonetim/adminpanel/internal/gate"
	"github.com/yonetim/adminpanel/internal/observability"
	"github.com/yonetim/adminpanel/internal/platform/cache"
	"github.com/yonetim/adminpanel/internal/platform/db"
	"github.com/yonetim/adminpanel/internal/profiles"
	"github.com/yonetim/adminpanel/internal/session"
	"github.com/yonetim/adminpanel/internal/shared"
	"github.com/yonetim/adminpanel/internal/supabase"
	"github.com/yonetim/adminpanel/jobs"
	"github.com/yonetim/adminpanel/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, deploy cooldown falls back to process memory", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	metrics := observability.NewMetrics()
	cookies := shared.NewCookieWriter(cfg.IsProduction())

	backend := supabase.NewClient(supabase.Config{
		URL:            cfg.SupabaseURL,
		AnonKey:        cfg.SupabaseAnonKey,
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
		Timeout:        cfg.SupabaseTimeout,
	})
	if !backend.HasServiceKey() {
		logger.Warn("SUPABASE_SERVICE_ROLE_KEY not set, admin password resets are disabled")
	}

	// Audit delivery: inline through pgx, or through the asynq queue drained by cmd/worker.
	auditStore := audit.NewStore(dbpool)
	var (
		auditSink audit.Sink = auditStore
		inspector *asynq.Inspector
	)
	if cfg.QueueEnabled() {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		queueClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := queueClient.Close(); err != nil {
				logger.Warn("queue client close", slog.Any("error", err))
			}
		}()
		auditSink = queueClient
		inspector = asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}
	recorder := audit.NewRecorder(auditSink, logger, cfg.AuditTimeout, metrics)

	profileService := profiles.NewService(profiles.NewRepository(dbpool))
	resolver := session.NewResolver(backend, cookies, logger)
	gateEngine := gate.NewEngine(resolver, profileService, gate.Config{
		FallbackURL: cfg.PublicWebsiteURL,
		Timeout:     cfg.GateTimeout,
	}, metrics, logger)

	authHandler := auth.NewHandler(logger, auth.NewService(backend), cookies, recorder, web.AuthPages())

	var tracker deploy.CooldownTracker = deploy.NewMemoryTracker()
	if redisClient != nil {
		tracker = deploy.NewRedisTracker(redisClient, "", cfg.DeployCooldown)
	}
	var hook deploy.Hook
	if cfg.DeployHookURL != "" {
		hook = deploy.NewWebhook(cfg.DeployHookURL, cfg.DeployHookTimeout)
	}
	throttle := deploy.NewThrottle(deploy.NewStore(dbpool), tracker, hook, recorder, deploy.Options{
		Cooldown: cfg.DeployCooldown,
		Metrics:  metrics,
		Logger:   logger,
	})

	var queueInspector jobs.QueueInspector
	if inspector != nil {
		queueInspector = inspector
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Gate:            gateEngine,
		Metrics:         metrics,
		AuthHandler:     authHandler,
		ProfilesHandler: profiles.NewHandler(logger, profileService, recorder),
		ContentHandler:  content.NewHandler(logger, content.NewService(content.NewRepository(dbpool), content.NewSanitizer()), recorder),
		AuditHandler:    audithttp.NewHandler(logger, audit.NewService(auditStore)),
		DeployHandler:   deploy.NewHandler(logger, throttle),
		JobHandler:      jobs.NewHandler(queueInspector, logger),
		SystemHandler:   app.NewSystemHandler(cfg, throttle, queueInspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("audit_mode", cfg.AuditMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	if err := recorder.WaitContext(shutdownCtx); err != nil {
		logger.Warn("audit entries still in flight at shutdown", slog.Any("error", err))
	}
}
