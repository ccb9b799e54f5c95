// Package deploy rate-limits website deploy hook triggers.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/yonetim/adminpanel/internal/shared"
)

// DefaultCooldown is the minimum spacing between two triggers.
const DefaultCooldown = 180 * time.Second

// Status is the outcome of a trigger attempt.
type Status int

const (
	// StatusOK means the hook answered 2xx.
	StatusOK Status = iota
	// StatusCooldown means the attempt was refused; Remaining is set.
	StatusCooldown
	// StatusHookMissing means no hook URL is configured.
	StatusHookMissing
	// StatusHookFailed means the hook answered non-2xx or could not be reached.
	StatusHookFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCooldown:
		return "cooldown"
	case StatusHookMissing:
		return "hook_missing"
	default:
		return "hook_failed"
	}
}

// Result describes one attempt.
type Result struct {
	Status Status
	// Remaining is the whole number of seconds left, rounded up.
	Remaining int
	// HookStatus is the hook's HTTP status, 0 when it was unreachable.
	HookStatus int
}

// Trigger is a persisted deploy attempt.
type Trigger struct {
	CreatedAt        time.Time
	TriggeredBy      string
	TriggeredByEmail string
}

// CooldownTracker holds the most recent trigger time seen by this deployment.
type CooldownTracker interface {
	Get(ctx context.Context) (time.Time, error)
	Set(ctx context.Context, at time.Time) error
}

// TriggerStore persists trigger attempts.
type TriggerStore interface {
	LatestTrigger(ctx context.Context) (time.Time, error)
	RecordTrigger(ctx context.Context, t Trigger) error
}

// Hook fires the deploy webhook and returns its HTTP status.
type Hook interface {
	Fire(ctx context.Context) (int, error)
}

// ResultRecorder counts attempts by result.
type ResultRecorder interface {
	DeployTrigger(result string)
}

// Options configures a Throttle. Zero values pick defaults.
type Options struct {
	Cooldown time.Duration
	Clock    func() time.Time
	Metrics  ResultRecorder
	Logger   *slog.Logger
}

// Throttle enforces the cooldown across persisted and in-process state.
type Throttle struct {
	store    TriggerStore
	tracker  CooldownTracker
	hook     Hook
	auditor  shared.Auditor
	cooldown time.Duration
	clock    func() time.Time
	metrics  ResultRecorder
	logger   *slog.Logger
}

// NewThrottle constructs a Throttle. hook may be nil when no URL is configured.
func NewThrottle(store TriggerStore, tracker CooldownTracker, hook Hook, auditor shared.Auditor, opts Options) *Throttle {
	t := &Throttle{
		store:    store,
		tracker:  tracker,
		hook:     hook,
		auditor:  auditor,
		cooldown: opts.Cooldown,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if t.cooldown <= 0 {
		t.cooldown = DefaultCooldown
	}
	if t.clock == nil {
		t.clock = time.Now
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.auditor == nil {
		t.auditor = shared.NopAuditor{}
	}
	return t
}

// Cooldown returns the configured cooldown.
func (t *Throttle) Cooldown() time.Duration {
	return t.cooldown
}

// HookConfigured reports whether a hook is available.
func (t *Throttle) HookConfigured() bool {
	return t.hook != nil
}

// TryTrigger fires the hook unless the cooldown is still running. Any attempt
// that reaches the hook consumes the cooldown, whatever the hook answered.
// The returned error reports a hook transport failure alongside StatusHookFailed.
func (t *Throttle) TryTrigger(ctx context.Context, actor *shared.Identity) (Result, error) {
	now := t.clock()
	if remaining := t.remaining(ctx, now); remaining > 0 {
		t.count(StatusCooldown)
		return Result{Status: StatusCooldown, Remaining: remaining}, nil
	}
	if t.hook == nil {
		t.count(StatusHookMissing)
		return Result{Status: StatusHookMissing}, nil
	}

	status, hookErr := t.hook.Fire(ctx)

	firedAt := t.clock()
	if err := t.tracker.Set(ctx, firedAt); err != nil {
		t.logger.Warn("deploy tracker update failed", slog.Any("error", err))
	}
	trigger := Trigger{CreatedAt: firedAt}
	if actor != nil {
		trigger.TriggeredBy = actor.ID
		trigger.TriggeredByEmail = actor.Email
	}
	if err := t.store.RecordTrigger(ctx, trigger); err != nil {
		t.logger.Warn("deploy trigger insert failed", slog.Any("error", err))
	}
	t.auditor.Record(ctx, shared.AuditEvent{
		Action:     "deploy_triggered",
		EntityType: "system",
		Metadata:   map[string]any{"status": status},
	})

	result := Result{Status: StatusOK, HookStatus: status}
	if hookErr != nil || status < 200 || status > 299 {
		result.Status = StatusHookFailed
	}
	t.count(result.Status)
	if hookErr != nil {
		return result, fmt.Errorf("deploy: fire hook: %w", hookErr)
	}
	return result, nil
}

// Remaining reports the cooldown left at the current clock, in whole seconds.
func (t *Throttle) Remaining(ctx context.Context) int {
	return t.remaining(ctx, t.clock())
}

func (t *Throttle) remaining(ctx context.Context, now time.Time) int {
	last := t.lastTrigger(ctx)
	if last.IsZero() {
		return 0
	}
	left := t.cooldown - now.Sub(last)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// lastTrigger is max(persisted, in-process). Read failures count as "never".
func (t *Throttle) lastTrigger(ctx context.Context) time.Time {
	var last time.Time
	if persisted, err := t.store.LatestTrigger(ctx); err != nil {
		t.logger.Warn("deploy trigger lookup failed", slog.Any("error", err))
	} else if persisted.After(last) {
		last = persisted
	}
	if tracked, err := t.tracker.Get(ctx); err != nil {
		t.logger.Warn("deploy tracker lookup failed", slog.Any("error", err))
	} else if tracked.After(last) {
		last = tracked
	}
	return last
}

func (t *Throttle) count(s Status) {
	if t.metrics != nil {
		t.metrics.DeployTrigger(s.String())
	}
}
