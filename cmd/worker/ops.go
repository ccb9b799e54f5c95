package main

import (
	"errors"

	"github.com/hibiken/asynq"

	"github.com/yonetim/adminpanel/jobs"
)

// QueueOps wraps manual management helpers for the audit queue.
type QueueOps struct {
	inspector *asynq.Inspector
}

// NewQueueOps initialises the helpers using the provided Redis options.
func NewQueueOps(redisOpts asynq.RedisClientOpt) *QueueOps {
	return &QueueOps{inspector: asynq.NewInspector(redisOpts)}
}

// Close releases underlying resources.
func (c *QueueOps) Close() error {
	if c == nil || c.inspector == nil {
		return nil
	}
	return c.inspector.Close()
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueue reports the queue metrics for the default queue.
func (c *QueueOps) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("queue ops: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

// RequeueArchived moves audit entries that exhausted their retries back to pending,
// typically after a database outage has been resolved.
func (c *QueueOps) RequeueArchived() (int, error) {
	if c == nil || c.inspector == nil {
		return 0, errors.New("queue ops: inspector not configured")
	}
	return c.inspector.RunAllArchivedTasks(jobs.QueueDefault)
}
