package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/yonetim/adminpanel/internal/audit"
	jobmetrics "github.com/yonetim/adminpanel/internal/jobs"
)

// AuditInserter persists audit entries. audit.PGStore satisfies it.
type AuditInserter interface {
	Insert(ctx context.Context, e audit.Entry) error
}

// AuditDeliveryJob writes queued audit entries to the audit_logs table.
type AuditDeliveryJob struct {
	Store   AuditInserter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuditDeliveryJob wires dependencies for the delivery handler.
func NewAuditDeliveryJob(store AuditInserter, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditDeliveryJob {
	return &AuditDeliveryJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAuditDeliver tasks. Malformed payloads are not retried.
func (j *AuditDeliveryJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("audit delivery: handler not configured")
	}
	tracker := j.Metrics.Track(TaskAuditDeliver)
	return tracker.End(j.deliver(ctx, t.Payload()))
}

func (j *AuditDeliveryJob) deliver(ctx context.Context, payload []byte) error {
	var entry audit.Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		j.logger().Warn("drop malformed audit task", slog.Any("error", err))
		return fmt.Errorf("audit delivery: decode: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("audit delivery: missing action: %w", asynq.SkipRetry)
	}
	if err := j.Store.Insert(ctx, entry); err != nil {
		j.logger().Error("deliver audit entry",
			slog.String("entry_id", entry.ID),
			slog.String("action", entry.Action),
			slog.Any("error", err))
		return err
	}
	return nil
}

func (j *AuditDeliveryJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
