package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yonetim/adminpanel/internal/app"
	"github.com/yonetim/adminpanel/internal/audit"
	jobmetrics "github.com/yonetim/adminpanel/internal/jobs"
	"github.com/yonetim/adminpanel/internal/observability"
	"github.com/yonetim/adminpanel/internal/platform/db"
	"github.com/yonetim/adminpanel/jobs"
)

// Usage: worker [run|stats|requeue]
func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR must be provided for the worker")
		os.Exit(1)
	}
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	switch command {
	case "run":
		if err := run(ctx, cfg, redisOpts, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker run", slog.Any("error", err))
			os.Exit(1)
		}
	case "stats", "requeue":
		ops := NewQueueOps(redisOpts)
		defer func() {
			if err := ops.Close(); err != nil {
				logger.Warn("queue ops close", slog.Any("error", err))
			}
		}()
		if err := runOps(ops, command); err != nil {
			logger.Error("queue ops", slog.String("command", command), slog.Any("error", err))
			os.Exit(1)
		}
	default:
		logger.Error("unknown command, expected run, stats or requeue", slog.String("command", command))
		os.Exit(2)
	}
}

func run(ctx context.Context, cfg *app.Config, redisOpts asynq.RedisClientOpt, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	serveMetrics(ctx, cfg.WorkerMetricsAddr, metrics, logger)

	deliveryJob := jobs.NewAuditDeliveryJob(audit.NewStore(pool), logger, jobmetrics.NewMetrics(metrics.Registerer()))
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditDeliver, Handler: deliveryJob.Handle},
		},
	})
	if err != nil {
		return err
	}
	logger.Info("worker started", slog.String("queue", jobs.QueueDefault))
	return worker.Run(ctx)
}

// serveMetrics exposes job metrics until ctx is cancelled. An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, metrics *observability.Metrics, logger *slog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics listener", slog.Any("error", err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
}

func runOps(ops *QueueOps, command string) error {
	switch command {
	case "requeue":
		n, err := ops.RequeueArchived()
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]int{"requeued": n})
	default:
		stats, err := ops.InspectQueue()
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(stats)
	}
}
