package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yonetim/adminpanel/internal/platform/httpx"
	"github.com/yonetim/adminpanel/internal/shared"
)

// DefaultTimeout bounds one detached delivery.
const DefaultTimeout = 5 * time.Second

// Sink delivers an entry to durable storage or a queue.
type Sink interface {
	Deliver(ctx context.Context, e Entry) error
}

// FailureCounter counts entries that could not be delivered.
type FailureCounter interface {
	AuditFailure()
}

// Recorder is the best-effort, non-blocking auditor used by handlers.
type Recorder struct {
	sink     Sink
	logger   *slog.Logger
	failures FailureCounter
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewRecorder constructs a Recorder. failures may be nil.
func NewRecorder(sink Sink, logger *slog.Logger, timeout time.Duration, failures FailureCounter) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Recorder{
		sink:     sink,
		logger:   logger,
		failures: failures,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Record builds an entry from the request context and delivers it in the
// background. It never blocks on storage and never reports failures.
func (r *Recorder) Record(ctx context.Context, event shared.AuditEvent) {
	entry := EntryFromContext(ctx, event, r.now())
	detached := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.fail(entry, fmt.Errorf("audit: delivery panic: %v", rec))
			}
		}()
		dctx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()
		if err := r.sink.Deliver(dctx, entry); err != nil {
			r.fail(entry, err)
		}
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// WaitContext is Wait bounded by ctx.
func (r *Recorder) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) fail(entry Entry, err error) {
	r.logger.Error("audit delivery failed",
		slog.String("action", entry.Action),
		slog.String("entry_id", entry.ID),
		slog.Any("error", err),
	)
	if r.failures != nil {
		r.failures.AuditFailure()
	}
}

// EntryFromContext fills actor and client details for event from ctx.
func EntryFromContext(ctx context.Context, event shared.AuditEvent, at time.Time) Entry {
	entry := Entry{
		ID:         uuid.NewString(),
		CreatedAt:  at.UTC(),
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Metadata:   event.Metadata,
	}
	if identity := shared.IdentityFromContext(ctx); identity != nil {
		entry.ActorID = identity.ID
		entry.ActorEmail = identity.Email
	}
	if meta, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		entry.IP = meta.ip
		entry.UserAgent = meta.userAgent
	}
	return entry
}

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// WithRequestMeta stores client details for later audit entries.
func WithRequestMeta(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, requestMeta{ip: ip, userAgent: userAgent})
}

// CaptureRequest records the first X-Forwarded-For address and the user agent
// so entries recorded while handling the request carry them.
func CaptureRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestMeta(r.Context(), httpx.ClientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var _ shared.Auditor = (*Recorder)(nil)
