// Package writer applies record updates with bounded retry on write conflicts.
//
// A conflict (storage.ErrConflict) is retried after a linearly growing delay:
// baseDelay before the second attempt, 2*baseDelay before the third, and so
// on, up to MaxRetries attempts in total. Any other error is returned at
// once. Updates are field assignments, so replaying one after a partially
// applied attempt is safe.
package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/metric"

	"github.com/steveyegge/lineup/internal/debug"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/telemetry"
)

const (
	// DefaultMaxRetries is the attempt limit used when WithMaxRetries is not given.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the first wait between conflicting attempts.
	DefaultBaseDelay = 500 * time.Millisecond
)

// Writer issues updates through a storage.Store. It holds no per-record state
// and is safe for concurrent use when its Timer is.
type Writer struct {
	store      storage.Store
	maxRetries int
	baseDelay  time.Duration
	newTimer   func() backoff.Timer
	notify     func(id string, attempt int, err error, delay time.Duration)

	attempts metric.Int64Counter
	retries  metric.Int64Counter
}

// Option configures a Writer.
type Option func(*Writer)

// WithMaxRetries sets the total number of attempts. Values below 1 mean 1.
func WithMaxRetries(n int) Option {
	return func(w *Writer) {
		if n < 1 {
			n = 1
		}
		w.maxRetries = n
	}
}

// WithBaseDelay sets the delay unit of the linear schedule.
func WithBaseDelay(d time.Duration) Option {
	return func(w *Writer) { w.baseDelay = d }
}

// WithTimer replaces the timer used to wait between attempts. newTimer is
// called once per Write.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(w *Writer) { w.newTimer = newTimer }
}

// WithNotify registers a callback invoked before each retry.
func WithNotify(fn func(id string, attempt int, err error, delay time.Duration)) Option {
	return func(w *Writer) { w.notify = fn }
}

// New returns a Writer with the default schedule (3 attempts, 500ms base).
func New(store storage.Store, opts ...Option) *Writer {
	w := &Writer{
		store:      store,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(w)
	}

	m := telemetry.Meter("github.com/steveyegge/lineup/writer")
	w.attempts, _ = m.Int64Counter("lineup.writer.attempts",
		metric.WithDescription("Update calls issued by the conflict-safe writer"),
	)
	w.retries, _ = m.Int64Counter("lineup.writer.retries",
		metric.WithDescription("Update calls repeated after a write conflict"),
	)
	return w
}

// MaxRetries returns the configured attempt limit.
func (w *Writer) MaxRetries() int { return w.maxRetries }

// Write assigns fields on record id. It returns nil on success, the last
// conflict error once every attempt was rejected, or the first non-conflict
// error unchanged in its chain.
func (w *Writer) Write(ctx context.Context, id string, fields storage.Fields) error {
	attempt := 0
	op := func() error {
		attempt++
		w.attempts.Add(ctx, 1)
		err := w.store.UpdateRecord(ctx, id, fields)
		if err == nil {
			return nil
		}
		if storage.IsConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, delay time.Duration) {
		w.retries.Add(ctx, 1)
		debug.Logger().Debug("write conflict, retrying",
			"id", id, "attempt", attempt, "next_attempt", attempt+1, "delay", delay)
		if w.notify != nil {
			w.notify(id, attempt, err, delay)
		}
	}

	var timer backoff.Timer
	if w.newTimer != nil {
		timer = w.newTimer()
	}

	b := backoff.WithContext(newLinearBackOff(w.baseDelay, w.maxRetries), ctx)
	err := backoff.RetryNotifyWithTimer(op, b, notify, timer)
	switch {
	case err == nil:
		return nil
	case storage.IsConflict(err):
		return fmt.Errorf("write %s: gave up after %d attempts: %w", id, attempt, err)
	default:
		return fmt.Errorf("write %s: %w", id, err)
	}
}

// linearBackOff waits base*n before attempt n+1 and stops after limit attempts.
type linearBackOff struct {
	base    time.Duration
	limit   int
	attempt int
}

func newLinearBackOff(base time.Duration, limit int) *linearBackOff {
	return &linearBackOff{base: base, limit: limit}
}

// NextBackOff is called after a failed attempt.
func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.attempt >= b.limit {
		return backoff.Stop
	}
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }
