package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	tele "gopkg.in/telebot.v3"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/checkout"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	to   []tele.Recipient
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.sent = append(f.sent, what.(string))
	return &tele.Message{}, nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeStore struct {
	rows []*models.PaymentAttempt
	err  error
}

func (f *fakeStore) Create(row *models.PaymentAttempt) error {
	f.rows = append(f.rows, row)
	return f.err
}

func TestReporterSendsTerminalEvents(t *testing.T) {
	sender := &fakeSender{}
	r := NewReporter(sender, -100200, zaptest.NewLogger(t))

	r.PaymentCompleted("tx<1>", nil)
	r.StatusChanged("tx-2", models.StatusPending, models.StatusFailed, "Payment failed")
	r.StatusChanged("tx-3", models.StatusPending, models.StatusProcessing, "Confirming payment")
	r.StatusChanged("tx-4", models.StatusProcessing, models.StatusPending, checkout.MessageRetryExhausted)

	require.Eventually(t, func() bool { return len(sender.messages()) == 3 }, time.Second, 5*time.Millisecond)
	joined := ""
	for _, msg := range sender.messages() {
		joined += msg + "\n"
	}
	assert.Contains(t, joined, "tx&lt;1&gt;")
	assert.Contains(t, joined, "tx-2")
	assert.Contains(t, joined, "tx-4")
	assert.NotContains(t, joined, "tx-3")
	sender.mu.Lock()
	defer sender.mu.Unlock()
	for _, to := range sender.to {
		assert.Equal(t, tele.ChatID(-100200), to)
	}
}

func TestRecorderWritesAttempts(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, zaptest.NewLogger(t))

	r.ConfirmAttempted("tx-1", checkout.AttemptRecord{
		Gateway: "Flutterwave",
		Channel: checkout.ChannelHostedCard,
		Attempt: 2,
		Outcome: models.OutcomeFailed,
		Err:     errors.New("timeout"),
	})
	r.StatusChanged("tx-1", models.StatusPending, models.StatusProcessing, "")
	r.StatusChanged("tx-1", models.StatusProcessing, models.StatusCompleted, "Payment confirmed")

	require.Len(t, store.rows, 2)
	assert.Equal(t, "hosted_card", store.rows[0].Channel)
	assert.Equal(t, 2, store.rows[0].Attempt)
	assert.Equal(t, "timeout", store.rows[0].Message)
	assert.Equal(t, models.OutcomeTerminal, store.rows[1].Outcome)
	assert.Equal(t, "completed", store.rows[1].Status)
}

func TestRecorderSurvivesStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	r := NewRecorder(store, zaptest.NewLogger(t))

	assert.NotPanics(t, func() {
		r.StatusChanged("tx-1", models.StatusPending, models.StatusExpired, "expired")
	})
	assert.Len(t, store.rows, 1)
}
