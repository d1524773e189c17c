package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned when no session is open for a transaction.
	ErrSessionNotFound = errors.New("checkout: session not found")
	// ErrForbidden is returned when a credential other than the session's own
	// cannot read the transaction on the ledger.
	ErrForbidden = errors.New("checkout: credential not accepted for this session")
)

// Manager keeps one session per transaction and sweeps settled ones.
type Manager struct {
	cfg      Config
	ledger   Ledger
	observer Observer
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	// aliases maps a requested id (e.g. a reference) to the ledger identifier.
	aliases map[string]string
}

// NewManager creates a manager. Settled sessions are kept for ttl so their
// final state can still be read.
func NewManager(cfg Config, l Ledger, observer Observer, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Manager{
		cfg:      cfg,
		ledger:   l,
		observer: observer,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
		aliases:  make(map[string]string),
	}
}

// Open fetches the transaction and starts a session for it. An existing
// session for the same transaction is reused once the credential is accepted
// (see Attach). txID may be an alias of the ledger identifier, such as the
// transaction reference; later lookups by either name hit the same session.
func (m *Manager) Open(ctx context.Context, token, txID string) (*Session, error) {
	if _, err := m.Get(txID); err == nil {
		return m.Attach(ctx, token, txID)
	}

	bundle, err := m.ledger.GetTransaction(ctx, token, txID)
	if err != nil {
		return nil, err
	}
	s := NewSession(bundle, token, m.cfg, Deps{
		Ledger:   m.ledger,
		Observer: m.observer,
		Logger:   m.logger,
		Now:      m.now,
	})

	id := s.TransactionID()
	m.mu.Lock()
	if txID != id {
		m.aliases[txID] = id
	}
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		// Lost a race or reached the session through a new alias. The fetch
		// above already proved the token can read the transaction.
		s.Teardown()
		existing.setCredential(token)
		return existing, nil
	}
	m.sessions[id] = s
	m.mu.Unlock()

	s.Start()
	m.logger.Info("Checkout session opened",
		zap.String("transaction_id", id),
		zap.String("status", string(s.Status())))
	return s, nil
}

// Attach returns the session for txID on behalf of the holder of token. The
// session keeps the credential it was opened with; a different token is only
// accepted, and then used for ledger calls, after the ledger lets it read the
// transaction.
func (m *Manager) Attach(ctx context.Context, token, txID string) (*Session, error) {
	s, err := m.Get(txID)
	if err != nil {
		return nil, err
	}
	if s.credentialIs(token) {
		return s, nil
	}
	if token == "" {
		return nil, ErrForbidden
	}
	if _, err := m.ledger.GetTransaction(ctx, token, s.TransactionID()); err != nil {
		m.logger.Warn("Rejected credential for checkout session",
			zap.String("transaction_id", s.TransactionID()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	s.setCredential(token)
	return s, nil
}

// Get returns the open session for txID or one of its aliases.
func (m *Manager) Get(txID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.lookupLocked(txID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears down and forgets the session for txID.
func (m *Manager) Close(txID string) error {
	m.mu.Lock()
	s, ok := m.lookupLocked(txID)
	if ok {
		m.forgetLocked(s.TransactionID())
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Teardown()
	return nil
}

func (m *Manager) lookupLocked(txID string) (*Session, bool) {
	if s, ok := m.sessions[txID]; ok {
		return s, true
	}
	if id, ok := m.aliases[txID]; ok {
		s, ok := m.sessions[id]
		return s, ok
	}
	return nil, false
}

func (m *Manager) forgetLocked(id string) {
	delete(m.sessions, id)
	for alias, target := range m.aliases {
		if target == id {
			delete(m.aliases, alias)
		}
	}
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions that settled more than ttl ago. It returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		settled := s.SettledAt()
		if !settled.IsZero() && settled.Before(cutoff) {
			stale = append(stale, s)
			m.forgetLocked(id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Teardown()
	}
	return len(stale)
}

// CloseAll tears down every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.aliases = make(map[string]string)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Teardown()
	}
}
