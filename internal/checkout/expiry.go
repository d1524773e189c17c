package checkout

import (
	"sync"
	"time"
)

// Countdown is the time left until a transaction expires.
type Countdown struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// NewCountdown splits a positive duration into hours, minutes and seconds.
func NewCountdown(remaining time.Duration) Countdown {
	ms := remaining.Milliseconds()
	return Countdown{
		Hours:   ms / 3600000,
		Minutes: (ms % 3600000) / 60000,
		Seconds: (ms % 60000) / 1000,
	}
}

// ExpiryTimer ticks against a wall-clock deadline, exposes the countdown and
// calls onExpire once the deadline has passed. onExpire reports whether the
// expiry was applied; while it returns false the timer keeps re-checking.
type ExpiryTimer struct {
	sched    *Scheduler
	interval time.Duration
	now      func() time.Time
	onExpire func() bool

	mu        sync.Mutex
	deadline  time.Time
	countdown *Countdown
	gen       uint64
	stop      Disposer
}

// NewExpiryTimer creates an idle timer.
func NewExpiryTimer(sched *Scheduler, interval time.Duration, now func() time.Time, onExpire func() bool) *ExpiryTimer {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &ExpiryTimer{
		sched:    sched,
		interval: interval,
		now:      now,
		onExpire: onExpire,
		stop:     noopDisposer,
	}
}

// Start begins ticking toward deadline, replacing any previous deadline.
// The first tick runs immediately.
func (t *ExpiryTimer) Start(deadline time.Time) Disposer {
	t.mu.Lock()
	t.stop()
	t.gen++
	gen := t.gen
	t.deadline = deadline
	t.countdown = nil
	t.stop = t.sched.Every(t.interval, "expiry-tick", func() { t.tick(gen) })
	t.mu.Unlock()

	t.tick(gen)
	return t.Stop
}

// Stop halts ticking and clears the countdown.
func (t *ExpiryTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.deadline = time.Time{}
	t.stop()
	t.stop = noopDisposer
	t.countdown = nil
}

// Countdown returns the latest countdown, or nil once expired or stopped.
func (t *ExpiryTimer) Countdown() *Countdown {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.countdown == nil {
		return nil
	}
	c := *t.countdown
	return &c
}

// Tick evaluates the deadline once, outside the schedule.
func (t *ExpiryTimer) Tick() {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()
	t.tick(gen)
}

func (t *ExpiryTimer) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.deadline.IsZero() {
		t.mu.Unlock()
		return
	}
	remaining := t.deadline.Sub(t.now())
	if remaining > 0 {
		c := NewCountdown(remaining)
		t.countdown = &c
		t.mu.Unlock()
		return
	}
	t.countdown = nil
	t.mu.Unlock()

	if t.onExpire() {
		t.mu.Lock()
		if gen == t.gen {
			t.gen++
			t.deadline = time.Time{}
			t.stop()
			t.stop = noopDisposer
		}
		t.mu.Unlock()
	}
}
