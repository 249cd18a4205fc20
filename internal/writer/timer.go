package writer

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RecordingTimer is a backoff.Timer that fires immediately and remembers the
// delays it was asked to wait. Use it to run the retry schedule without
// sleeping.
type RecordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

var _ backoff.Timer = (*RecordingTimer)(nil)

func (t *RecordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delays = append(t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *RecordingTimer) Stop() {}

func (t *RecordingTimer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c
}

// Delays returns a copy of the recorded delays.
func (t *RecordingTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.delays...)
}

// NoDelay returns a timer factory for WithTimer that skips every wait.
func NoDelay() func() backoff.Timer {
	return func() backoff.Timer { return &RecordingTimer{} }
}
