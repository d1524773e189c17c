package checkout

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Disposer cancels whatever started it. Calling it more than once is a no-op.
type Disposer func()

func noopDisposer() {}

// Scheduler owns the recurring and one-shot jobs of a single checkout session.
// Recurring jobs run on a seconds-resolution cron; overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu      sync.Mutex
	timers  map[uint64]*time.Timer
	nextID  uint64
	stopped bool
}

// NewScheduler creates and starts a scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
		timers: make(map[uint64]*time.Timer),
	}
	s.cron.Start()
	return s
}

// Every runs fn on a fixed interval (whole seconds, at least one) until disposed.
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) Disposer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return noopDisposer
	}

	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.guard(name, fn)))
	var once sync.Once
	return func() {
		once.Do(func() { s.cron.Remove(id) })
	}
}

// After runs fn once after delay unless disposed first.
func (s *Scheduler) After(delay time.Duration, name string, fn func()) Disposer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return noopDisposer
	}

	s.nextID++
	id := s.nextID
	job := s.guard(name, fn)
	s.timers[id] = time.AfterFunc(delay, func() {
		s.forget(id)
		job()
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if t, ok := s.timers[id]; ok {
				t.Stop()
				delete(s.timers, id)
			}
			s.mu.Unlock()
		})
	}
}

// Stop removes every job. It does not wait for a job that is already running,
// so it is safe to call from inside a job.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.cron.Stop()
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Scheduler) forget(id uint64) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
}

func (s *Scheduler) guard(name string, fn func()) func() {
	return func() {
		defer s.recoverFromPanic(name)
		fn()
	}
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Checkout job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
