package core

import (
	"context"
	stdlog "log"
	"sync"
	"sync/atomic"
	"time"
)

// AuditSeverity classifies an audit record.
type AuditSeverity string

const (
	AuditInfo    AuditSeverity = "info"
	AuditWarning AuditSeverity = "warning"
)

// Audit action tags emitted by the verification flows.
const (
	AuditPasswordResetRequested = "password_reset_requested"
	AuditPasswordResetCompleted = "password_reset_completed"
	AuditPasswordResetFailed    = "password_reset_failed"
	AuditEmailVerifyRequested   = "email_verification_requested"
	AuditEmailVerified          = "email_verified"
	AuditEmailChangeRequested   = "email_change_requested"
	AuditEmailChangeCompleted   = "email_change_completed"
	AuditEmailChangeFailed      = "email_change_failed"
)

// AuditEvent is an append-only record of a security-sensitive transition.
type AuditEvent struct {
	OccurredAt time.Time         `json:"occurred_at"`
	Action     string            `json:"action"`
	Severity   AuditSeverity     `json:"severity"`
	SubjectID  string            `json:"subject_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AuditLogger records audit events to an external sink (e.g. Postgres).
// Implementations should be non-blocking and best-effort.
type AuditLogger interface {
	Record(ctx context.Context, e AuditEvent) error
}

// ChannelAuditLogger buffers events on a channel. Used in tests and as a
// bridge to host-owned consumers.
type ChannelAuditLogger struct {
	events chan AuditEvent
}

func NewChannelAuditLogger(buffer int) *ChannelAuditLogger {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelAuditLogger{events: make(chan AuditEvent, buffer)}
}

func (l *ChannelAuditLogger) Record(ctx context.Context, e AuditEvent) error {
	select {
	case l.events <- e:
	case <-ctx.Done():
	}
	return nil
}

func (l *ChannelAuditLogger) Events() <-chan AuditEvent { return l.events }

// AsyncAuditLogger decouples flow latency from sink latency: Record enqueues
// and a single goroutine forwards to the wrapped sink. Events are dropped
// (and counted) rather than blocking the request path when the buffer fills.
type AsyncAuditLogger struct {
	sink    AuditLogger
	ch      chan AuditEvent
	done    chan struct{}
	wg      sync.WaitGroup
	dropped atomic.Uint64
	closed  atomic.Bool
	once    sync.Once
}

func NewAsyncAuditLogger(sink AuditLogger, buffer int) *AsyncAuditLogger {
	if buffer <= 0 {
		buffer = 64
	}
	a := &AsyncAuditLogger{
		sink: sink,
		ch:   make(chan AuditEvent, buffer),
		done: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncAuditLogger) run() {
	defer a.wg.Done()
	for {
		select {
		case e := <-a.ch:
			a.forward(e)
		case <-a.done:
			for {
				select {
				case e := <-a.ch:
					a.forward(e)
				default:
					return
				}
			}
		}
	}
}

func (a *AsyncAuditLogger) forward(e AuditEvent) {
	if err := a.sink.Record(context.Background(), e); err != nil {
		stdlog.Printf("[verifykit/audit] sink write failed action=%s: %v", e.Action, err)
	}
}

func (a *AsyncAuditLogger) Record(_ context.Context, e AuditEvent) error {
	if a == nil || a.closed.Load() {
		return nil
	}
	select {
	case a.ch <- e:
	default:
		a.dropped.Add(1)
	}
	return nil
}

// Close drains buffered events into the sink and stops the forwarder.
func (a *AsyncAuditLogger) Close() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.closed.Store(true)
		close(a.done)
		a.wg.Wait()
	})
}

func (a *AsyncAuditLogger) Dropped() uint64 {
	if a == nil {
		return 0
	}
	return a.dropped.Load()
}

// recordAudit is the flows' fire-and-forget entry point. Sink failures are
// logged, never returned to the caller.
func (s *Service) recordAudit(ctx context.Context, action string, severity AuditSeverity, subjectID string, metadata map[string]string) {
	if s == nil || s.audit == nil {
		return
	}
	e := AuditEvent{
		OccurredAt: time.Now(),
		Action:     action,
		Severity:   severity,
		SubjectID:  subjectID,
		IP:         ClientIPFromContext(ctx),
		Metadata:   metadata,
	}
	if err := s.audit.Record(ctx, e); err != nil {
		stdlog.Printf("[verifykit/audit] record failed action=%s: %v", action, err)
	}
}
