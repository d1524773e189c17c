package cron

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSweeper struct {
	sweepFn func() int
	open    int
}

func (f *fakeSweeper) Sweep() int { return f.sweepFn() }
func (f *fakeSweeper) Len() int   { return f.open }

type fakeCounter struct {
	since  time.Time
	counts map[string]int64
	err    error
}

func (f *fakeCounter) CountOutcomesSince(since time.Time) (map[string]int64, error) {
	f.since = since
	return f.counts, f.err
}

type fakeReporter struct {
	reports []string
}

func (f *fakeReporter) Report(text string) { f.reports = append(f.reports, text) }

func TestDailyPaymentReport(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{"succeeded": 4, "failed": 2}}
	reporter := &fakeReporter{}
	s := New(&fakeSweeper{open: 3}, counter, reporter, zaptest.NewLogger(t))
	s.now = func() time.Time { return time.Date(2025, 3, 1, 23, 45, 0, 0, time.UTC) }

	s.dailyPaymentReport()

	require.Len(t, reporter.reports, 1)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), counter.since)
	report := reporter.reports[0]
	assert.Contains(t, report, "2025/03/01")
	assert.Contains(t, report, "failed: 2")
	assert.Contains(t, report, "succeeded: 4")
	assert.Less(t, strings.Index(report, "failed"), strings.Index(report, "succeeded"))
	assert.Contains(t, report, "Open sessions: 3")
}

func TestDailyPaymentReportSkipsOnError(t *testing.T) {
	reporter := &fakeReporter{}
	s := New(&fakeSweeper{}, &fakeCounter{err: errors.New("db down")}, reporter, zaptest.NewLogger(t))

	s.dailyPaymentReport()
	assert.Empty(t, reporter.reports)
}

func TestSweepRecoversFromPanic(t *testing.T) {
	s := New(&fakeSweeper{sweepFn: func() int { panic("boom") }}, nil, nil, zaptest.NewLogger(t))
	assert.NotPanics(t, s.sweepSessions)
}
