package cron

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionSweeper drops settled checkout sessions. *checkout.Manager satisfies it.
type SessionSweeper interface {
	Sweep() int
	Len() int
}

// OutcomeCounter aggregates recorded attempts. *repository.AttemptRepository satisfies it.
type OutcomeCounter interface {
	CountOutcomesSince(since time.Time) (map[string]int64, error)
}

// ReportSender posts an HTML report. *notify.Reporter satisfies it.
type ReportSender interface {
	Report(text string)
}

// Scheduler runs the process-wide maintenance jobs. Per-session timers live
// on each session's own scheduler.
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	sessions SessionSweeper
	outcomes OutcomeCounter
	reporter ReportSender
	now      func() time.Time
}

// New creates a new cron scheduler. outcomes and reporter may be nil.
func New(sessions SessionSweeper, outcomes OutcomeCounter, reporter ReportSender, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
		sessions: sessions,
		outcomes: outcomes,
		reporter: reporter,
		now:      time.Now,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Sweep settled sessions - every minute
	s.cron.AddFunc("0 * * * * *", func() {
		s.logger.Debug("Running: sweep checkout sessions")
		s.sweepSessions()
	})

	// Daily payment report - at 23:45
	if s.outcomes != nil && s.reporter != nil {
		s.cron.AddFunc("0 45 23 * * *", func() {
			s.logger.Debug("Running: daily payment report")
			s.dailyPaymentReport()
		})
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweepSessions() {
	defer s.recoverFromPanic("sweepSessions")

	if removed := s.sessions.Sweep(); removed > 0 {
		s.logger.Info("Checkout sessions swept", zap.Int("removed", removed), zap.Int("open", s.sessions.Len()))
	}
}

func (s *Scheduler) dailyPaymentReport() {
	defer s.recoverFromPanic("dailyPaymentReport")

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	counts, err := s.outcomes.CountOutcomesSince(startOfDay)
	if err != nil {
		s.logger.Error("Failed to aggregate payment attempts", zap.Error(err))
		return
	}

	report := fmt.Sprintf("📊 <b>Daily payment report - %s</b>\n\n", now.Format("2006/01/02"))
	if len(counts) == 0 {
		report += "No confirmation attempts today.\n"
	}
	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		report += fmt.Sprintf("  • %s: %d\n", outcome, counts[outcome])
	}
	report += fmt.Sprintf("\n🧾 Open sessions: %d\n", s.sessions.Len())

	s.reporter.Report(report)
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
