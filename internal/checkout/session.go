package checkout

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/ledger"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/payment"
)

// ErrSessionClosed is returned by operations on a settled or torn-down session.
var ErrSessionClosed = errors.New("checkout: session closed")

// Ledger is the subset of the backend API a session needs.
type Ledger interface {
	GetTransaction(ctx context.Context, token, id string) (*models.TransactionBundle, error)
	Confirm(ctx context.Context, token, id string, body map[string]interface{}) (ledger.StatusResult, error)
	Status(ctx context.Context, token, id string) (ledger.StatusResult, error)
	ListCards(ctx context.Context, token string) ([]models.SavedCard, error)
	DeleteCard(ctx context.Context, token, cardID string) error
}

// Config holds the timing and gateway knobs of a session.
type Config struct {
	// HostedGateway is the gateway whose client widget drives the retry loop.
	HostedGateway  string
	RetryDelay     time.Duration
	MaxRetries     int
	PollInterval   time.Duration
	TickInterval   time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		HostedGateway:  payment.GatewayFlutterwave,
		RetryDelay:     5 * time.Second,
		MaxRetries:     6,
		PollInterval:   10 * time.Second,
		TickInterval:   time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HostedGateway == "" {
		c.HostedGateway = def.HostedGateway
	}
	if name, ok := payment.ResolveName(c.HostedGateway); ok {
		c.HostedGateway = name
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	return c
}

// Deps are the collaborators injected into a session.
type Deps struct {
	Ledger   Ledger
	Observer Observer
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type retryLoop struct {
	gen     uint64
	attempt int
	running bool
	cancel  Disposer
}

// Session drives one transaction from awaiting payment to a terminal state.
type Session struct {
	cfg      Config
	ledger   Ledger
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
	sched    *Scheduler
	expiry   *ExpiryTimer
	poller   *StatusPoller

	// inFlight is the single-flight guard on confirm.
	inFlight atomic.Bool

	mu        sync.Mutex
	txID      string
	token     string
	txn       models.Transaction
	payment   models.PaymentInfo
	status    models.PaymentStatus
	message   string
	saveCard  bool
	selector  ModeSelector
	cards     SavedCardStore
	retry     retryLoop
	released  bool
	torn      bool
	settledAt time.Time
	events    []func()
}

// NewSession builds a session from a ledger fetch. Call Start to arm its timers.
func NewSession(bundle *models.TransactionBundle, token string, cfg Config, deps Deps) *Session {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := deps.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		cfg:      cfg,
		ledger:   deps.Ledger,
		observer: observer,
		now:      now,
		sched:    NewScheduler(logger),
		txID:     bundle.Transaction.Identifier.String(),
		token:    token,
		txn:      bundle.Transaction,
		payment:  bundle.Payment,
		status:   localStatus(bundle.Transaction.Status),
	}
	s.logger = logger.With(zap.String("transaction_id", s.txID))
	s.cards.Replace(bundle.SavedCards)
	s.selector.Update(bundle.Options, s.cards.Len() > 0)
	s.expiry = NewExpiryTimer(s.sched, cfg.TickInterval, now, s.expire)
	s.poller = NewStatusPoller(s.sched, s.ledger, s, cfg.PollInterval, cfg.RequestTimeout, s.logger)
	return s
}

// localStatus maps the ledger status onto the local one. A ledger-side
// "processing" is still awaiting confirmation from our point of view.
func localStatus(st models.TransactionStatus) models.PaymentStatus {
	switch models.TransactionStatus(ledger.NormalizeStatus(string(st))) {
	case models.TransactionSuccessful:
		return models.StatusCompleted
	case models.TransactionFailed:
		return models.StatusFailed
	default:
		return models.StatusPending
	}
}

// Start arms the expiry timer and the status poller for a pending session.
// A session that is already settled releases its scheduler instead.
func (s *Session) Start() {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	if s.status.IsTerminal() {
		s.settledAt = s.now()
		s.releaseLocked()
		s.mu.Unlock()
		return
	}
	if selected := s.selector.Selected(); selected != nil {
		s.queueOptionChanged()
	}
	deadline, hasDeadline := s.txn.Deadline()
	s.unlockAndNotify()

	s.poller.Start()
	if hasDeadline {
		s.expiry.Start(deadline)
	}
}

// Snapshot is a consistent view of the session for the presentation layer.
type Snapshot struct {
	TransactionID   string                       `json:"transaction_id"`
	Reference       string                       `json:"reference"`
	Currency        string                       `json:"currency"`
	Amount          decimal.Decimal              `json:"amount"`
	Status          models.PaymentStatus         `json:"status"`
	Message         string                       `json:"message,omitempty"`
	Countdown       *Countdown                   `json:"countdown"`
	Modes           []models.Mode                `json:"modes"`
	ActiveMode      models.Mode                  `json:"active_mode"`
	SelectedOption  *models.PaymentGatewayOption `json:"selected_option"`
	Gateway         string                       `json:"gateway,omitempty"`
	SavedCards      []models.SavedCard           `json:"saved_cards"`
	SelectedCard    *models.SavedCard            `json:"selected_card"`
	SaveCard        bool                         `json:"save_card"`
	Retrying        bool                         `json:"retrying"`
	RetryAttempt    int                          `json:"retry_attempt"`
	ConfirmInFlight bool                         `json:"confirm_in_flight"`
	CheckingStatus  bool                         `json:"checking_status"`
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	gateway, _ := s.resolveGatewayLocked("")
	return Snapshot{
		TransactionID:   s.txID,
		Reference:       s.txn.Reference,
		Currency:        s.txn.Currency,
		Amount:          s.txn.Amount,
		Status:          s.status,
		Message:         s.message,
		Countdown:       s.expiry.Countdown(),
		Modes:           s.selector.Modes(),
		ActiveMode:      s.selector.Active(),
		SelectedOption:  s.selector.Selected(),
		Gateway:         gateway,
		SavedCards:      s.cards.List(),
		SelectedCard:    s.cards.Selected(),
		SaveCard:        s.saveCard,
		Retrying:        s.retry.running,
		RetryAttempt:    s.retry.attempt,
		ConfirmInFlight: s.inFlight.Load(),
		CheckingStatus:  s.poller.Busy(),
	}
}

// TransactionID returns the ledger identifier of the session.
func (s *Session) TransactionID() string {
	return s.txID
}

// Status returns the local payment status.
func (s *Session) Status() models.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SettledAt returns when the session reached a terminal status, or the zero time.
func (s *Session) SettledAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settledAt
}

// setCredential replaces the bearer token used for ledger calls. Callers must
// have verified the token against the ledger first.
func (s *Session) setCredential(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != "" {
		s.token = token
	}
}

func (s *Session) credentialIs(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token != "" && subtle.ConstantTimeCompare([]byte(s.token), []byte(token)) == 1
}

// SelectMode switches the active channel.
func (s *Session) SelectMode(mode models.Mode) error {
	s.mu.Lock()
	defer s.unlockAndNotify()
	if err := s.openLocked(); err != nil {
		return err
	}
	changed, err := s.selector.SelectMode(mode)
	if err != nil {
		return err
	}
	if changed {
		s.queueOptionChanged()
	}
	return nil
}

// SelectOption picks an option in the active card or bank-transfer bucket.
func (s *Session) SelectOption(id string) error {
	s.mu.Lock()
	defer s.unlockAndNotify()
	if err := s.openLocked(); err != nil {
		return err
	}
	changed, err := s.selector.SelectOption(id)
	if err != nil {
		return err
	}
	if changed {
		s.queueOptionChanged()
	}
	return nil
}

// SelectCard picks a saved card.
func (s *Session) SelectCard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(); err != nil {
		return err
	}
	return s.cards.Select(id)
}

// SetSaveCard sets the "save this card" toggle used by hosted card confirms.
func (s *Session) SetSaveCard(save bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCard = save
}

// RemoveCard deletes a saved card on the ledger and then drops it locally.
func (s *Session) RemoveCard(ctx context.Context, id string) bool {
	s.mu.Lock()
	token := s.token
	_, known := s.cards.Get(id)
	torn := s.torn
	s.mu.Unlock()
	if torn || token == "" || !known {
		return false
	}

	if err := s.ledger.DeleteCard(ctx, token, id); err != nil {
		s.logger.Warn("Saved card delete failed", zap.String("card_id", id), zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.unlockAndNotify()
	s.cards.Remove(id)
	if s.selector.SetHasSavedCards(s.cards.Len() > 0) {
		s.queueOptionChanged()
	}
	return true
}

// RefreshCards re-fetches the saved-card list.
func (s *Session) RefreshCards(ctx context.Context) bool {
	s.mu.Lock()
	token, torn := s.token, s.torn
	s.mu.Unlock()
	if torn || token == "" {
		return false
	}

	cards, err := s.ledger.ListCards(ctx, token)
	if err != nil {
		s.logger.Warn("Saved card refresh failed", zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.unlockAndNotify()
	s.cards.Replace(cards)
	if s.selector.SetHasSavedCards(s.cards.Len() > 0) {
		s.queueOptionChanged()
	}
	return true
}

// CheckStatus polls the ledger on demand.
func (s *Session) CheckStatus(ctx context.Context) bool {
	return s.poller.Trigger(ctx)
}

// Teardown cancels every timer and detaches the session. It is idempotent.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.torn = true
	s.releaseLocked()
}

func (s *Session) openLocked() error {
	if s.torn || s.status.IsTerminal() {
		return ErrSessionClosed
	}
	return nil
}

// releaseLocked is the single cancellation routine shared by terminal
// transitions and teardown.
func (s *Session) releaseLocked() {
	if s.released {
		return
	}
	s.released = true
	s.cancelRetryLocked()
	s.expiry.Stop()
	s.poller.Stop()
	s.sched.Stop()
}

func (s *Session) queue(fn func()) {
	s.events = append(s.events, fn)
}

func (s *Session) queueOptionChanged() {
	txID, option := s.txID, s.selector.Selected()
	s.queue(func() { s.observer.OptionChanged(txID, option) })
}

// unlockAndNotify releases mu and then delivers the events queued while it was held.
func (s *Session) unlockAndNotify() {
	events := s.events
	s.events = nil
	s.mu.Unlock()
	for _, fn := range events {
		fn()
	}
}

// pollable implements pollTarget.
func (s *Session) pollable() (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := !s.torn && s.status == models.StatusPending && s.txID != "" && s.token != ""
	return s.txID, s.token, ok
}

// applyPolled implements pollTarget.
func (s *Session) applyPolled(txID string, res ledger.StatusResult) {
	s.mu.Lock()
	defer s.unlockAndNotify()
	if txID != s.txID || s.status != models.StatusPending {
		return
	}
	switch {
	case res.Paid():
		s.completeLocked(res.Raw, MessageCompleted)
	case ledger.NormalizeStatus(res.Status) == string(models.TransactionFailed):
		s.transitionLocked(models.StatusFailed, MessageFailed)
	default:
		s.logger.Debug("Status poll still pending", zap.String("status", res.Status))
	}
}
