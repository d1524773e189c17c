package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/ledger"
)

// pollTarget is the slice of a session the poller reads from and reports into.
type pollTarget interface {
	// pollable returns the identifiers to poll with, or false when polling is not allowed.
	pollable() (txID, token string, ok bool)
	// applyPolled reconciles the session toward the authoritative status.
	applyPolled(txID string, res ledger.StatusResult)
}

// StatusPoller periodically asks the ledger for the authoritative status while
// the session is pending. It can also be triggered on demand.
type StatusPoller struct {
	sched    *Scheduler
	ledger   Ledger
	target   pollTarget
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	manualBusy atomic.Bool

	mu   sync.Mutex
	stop Disposer
}

// NewStatusPoller creates an idle poller.
func NewStatusPoller(sched *Scheduler, l Ledger, target pollTarget, interval, timeout time.Duration, logger *zap.Logger) *StatusPoller {
	return &StatusPoller{
		sched:    sched,
		ledger:   l,
		target:   target,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		stop:     noopDisposer,
	}
}

// Start schedules polling every interval. Starting again replaces the schedule.
func (p *StatusPoller) Start() Disposer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
	p.stop = p.sched.Every(p.interval, "status-poll", func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.Poll(ctx)
	})
	return p.Stop
}

// Stop cancels scheduled polling.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop()
	p.stop = noopDisposer
}

// Trigger runs a manual poll. Overlapping manual polls are rejected; the
// scheduled poll is not blocked since the status read is idempotent.
func (p *StatusPoller) Trigger(ctx context.Context) bool {
	if !p.manualBusy.CompareAndSwap(false, true) {
		return false
	}
	defer p.manualBusy.Store(false)
	return p.Poll(ctx)
}

// Busy reports whether a manual poll is running.
func (p *StatusPoller) Busy() bool {
	return p.manualBusy.Load()
}

// Poll reads the status once. It reports whether a request was made and answered.
func (p *StatusPoller) Poll(ctx context.Context) bool {
	txID, token, ok := p.target.pollable()
	if !ok {
		return false
	}
	res, err := p.ledger.Status(ctx, token, txID)
	if err != nil {
		p.logger.Warn("Status poll failed", zap.String("transaction_id", txID), zap.Error(err))
		return false
	}
	p.target.applyPolled(txID, res)
	return true
}
