package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yonetim/adminpanel/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditDeliver stores one audit entry.
	TaskAuditDeliver = "audit:deliver"
)

const (
	auditMaxRetry  = 10
	auditRetention = 24 * time.Hour
)

// NewAuditTask constructs an Asynq task for an audit entry. The entry ID doubles
// as the task ID so a repeated enqueue of the same entry is rejected by the broker.
func NewAuditTask(entry audit.Entry) (*asynq.Task, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(auditMaxRetry),
		asynq.Retention(auditRetention),
	}
	if entry.ID != "" {
		opts = append(opts, asynq.TaskID(entry.ID))
	}
	return asynq.NewTask(TaskAuditDeliver, body, opts...), nil
}
