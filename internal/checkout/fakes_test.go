package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/ledger"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

type confirmCall struct {
	at   time.Time
	id   string
	body map[string]interface{}
}

type fakeLedger struct {
	getFn     func(ctx context.Context, token, id string) (*models.TransactionBundle, error)
	confirmFn func(ctx context.Context, token, id string, body map[string]interface{}) (ledger.StatusResult, error)
	statusFn  func(ctx context.Context, token, id string) (ledger.StatusResult, error)
	listFn    func(ctx context.Context, token string) ([]models.SavedCard, error)
	deleteFn  func(ctx context.Context, token, cardID string) error

	mu          sync.Mutex
	confirms    []confirmCall
	statusCalls int
	listCalls   int
	deleted     []string
}

func (f *fakeLedger) GetTransaction(ctx context.Context, token, id string) (*models.TransactionBundle, error) {
	return f.getFn(ctx, token, id)
}

func (f *fakeLedger) Confirm(ctx context.Context, token, id string, body map[string]interface{}) (ledger.StatusResult, error) {
	f.mu.Lock()
	f.confirms = append(f.confirms, confirmCall{at: time.Now(), id: id, body: body})
	f.mu.Unlock()
	if f.confirmFn == nil {
		return paid(), nil
	}
	return f.confirmFn(ctx, token, id, body)
}

func (f *fakeLedger) Status(ctx context.Context, token, id string) (ledger.StatusResult, error) {
	f.mu.Lock()
	f.statusCalls++
	f.mu.Unlock()
	if f.statusFn == nil {
		return ledger.StatusResult{Success: true, Status: "pending"}, nil
	}
	return f.statusFn(ctx, token, id)
}

func (f *fakeLedger) ListCards(ctx context.Context, token string) ([]models.SavedCard, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, token)
}

func (f *fakeLedger) DeleteCard(ctx context.Context, token, cardID string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, cardID)
	f.mu.Unlock()
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, token, cardID)
}

func (f *fakeLedger) confirmCalls() []confirmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]confirmCall(nil), f.confirms...)
}

func (f *fakeLedger) cardListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func paid() ledger.StatusResult {
	return ledger.StatusResult{
		Success: true,
		Status:  "successful",
		Raw:     map[string]interface{}{"success": true, "data": map[string]interface{}{"status": "successful"}},
	}
}

func unpaid() ledger.StatusResult {
	return ledger.StatusResult{Success: true, Status: "pending"}
}

type statusChange struct {
	from, to models.PaymentStatus
	message  string
}

type recordingObserver struct {
	NopObserver

	mu        sync.Mutex
	changes   []statusChange
	completed []map[string]interface{}
	attempts  []AttemptRecord
	options   []*models.PaymentGatewayOption
}

func (r *recordingObserver) OptionChanged(_ string, option *models.PaymentGatewayOption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = append(r.options, option)
}

func (r *recordingObserver) StatusChanged(_ string, from, to models.PaymentStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, statusChange{from: from, to: to, message: message})
}

func (r *recordingObserver) PaymentCompleted(_ string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, payload)
}

func (r *recordingObserver) ConfirmAttempted(_ string, rec AttemptRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, rec)
}

func (r *recordingObserver) completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed)
}

func (r *recordingObserver) statusChanges() []statusChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]statusChange(nil), r.changes...)
}

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func testConfig() Config {
	return Config{
		HostedGateway:  "flutterwave",
		RetryDelay:     20 * time.Millisecond,
		MaxRetries:     6,
		PollInterval:   time.Hour,
		TickInterval:   time.Hour,
		RequestTimeout: time.Second,
	}
}

func testBundle(clock *fakeClock) *models.TransactionBundle {
	return &models.TransactionBundle{
		Transaction: models.Transaction{
			Identifier: "tx-1",
			Reference:  "REF-1",
			Currency:   "NGN",
			Status:     models.TransactionPending,
			ExpiresAt:  clock.Now().Add(10 * time.Minute).Format(time.RFC3339),
		},
		Payment: models.PaymentInfo{Gateway: "flutterwave"},
		Options: []models.PaymentGatewayOption{
			{ID: "1", Name: "Flutterwave Card", Gateway: "flutterwave", PaymentType: "card"},
			{ID: "2", Name: "Fincra Bank Transfer", Gateway: "fincra", PaymentType: "bank_transfer",
				Details: &models.BankDetails{AccountName: "Unicloud", AccountNumber: "0123456789", BankName: "Wema"}},
		},
		SavedCards: []models.SavedCard{
			{Identifier: "c1", Last4: "4242", PaymentGateway: "paystack"},
			{Identifier: "c2", Last4: "1111", PaymentGateway: "paystack"},
		},
	}
}

type harness struct {
	session  *Session
	ledger   *fakeLedger
	observer *recordingObserver
	clock    *fakeClock
}

func newHarness(t *testing.T, l *fakeLedger, mutate func(*models.TransactionBundle)) *harness {
	t.Helper()
	clock := &fakeClock{current: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	bundle := testBundle(clock)
	if mutate != nil {
		mutate(bundle)
	}
	observer := &recordingObserver{}
	s := NewSession(bundle, "token-1", testConfig(), Deps{
		Ledger:   l,
		Observer: observer,
		Logger:   zaptest.NewLogger(t),
		Now:      clock.Now,
	})
	s.Start()
	t.Cleanup(s.Teardown)
	return &harness{session: s, ledger: l, observer: observer, clock: clock}
}

func (h *harness) waitForStatus(t *testing.T, want models.PaymentStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.session.Status() == want
	}, 2*time.Second, 5*time.Millisecond, "status never became %s", want)
}
