package checkout

import (
	"context"

	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/payment"
)

// Channel names the flow a confirm call was issued from.
type Channel string

const (
	ChannelHostedCard   Channel = "hosted_card"
	ChannelBankTransfer Channel = "bank_transfer"
	ChannelSavedCard    Channel = "saved_card"
)

// Status messages shown alongside a transition.
const (
	MessageProcessing     = "Confirming payment"
	MessageCompleted      = "Payment confirmed"
	MessageFailed         = "Payment failed"
	MessageExpired        = "Payment window expired"
	MessageRetryExhausted = "We could not confirm your payment yet. We will keep checking."
	MessageCardDeclined   = "Saved card payment was not confirmed. Please try again."
	MessageBusy           = "A confirmation is already in progress"
	MessageRetryCancelled = "Confirmation stopped. We will keep checking."
	MessageNoCredential   = "Your session has expired. Sign in again to confirm this payment."
	MessageNoGateway      = "No payment gateway is available for this option"
)

// ConfirmOptions tune a single confirm call.
type ConfirmOptions struct {
	// GatewayOverride wins over the resolved gateway when it is non-empty.
	GatewayOverride string
	// Body is merged over {"payment_gateway": ...}.
	Body map[string]interface{}
	// IncludeSaveCardDetails forces save_card_details on or off. When nil it
	// is attached only for the hosted gateway in card mode.
	IncludeSaveCardDetails *bool
	Channel                Channel
	Attempt                int
}

// refusal is why confirm declined to call the ledger.
type refusal int

const (
	notRefused refusal = iota
	refusedClosed
	refusedNoCredential
	refusedBusy
	refusedNoGateway
)

// message is shown when a refused confirm hands the session back to pending.
func (r refusal) message() string {
	switch r {
	case refusedNoCredential:
		return MessageNoCredential
	case refusedNoGateway:
		return MessageNoGateway
	default:
		return MessageBusy
	}
}

type confirmResult struct {
	ok      bool
	refused refusal
	payload map[string]interface{}
}

// confirm issues one confirmation request. At most one runs per session;
// a call made while another is outstanding is refused without side effects.
func (s *Session) confirm(ctx context.Context, opts ConfirmOptions) confirmResult {
	s.mu.Lock()
	txID, token := s.txID, s.token
	if s.torn || s.status.IsTerminal() {
		s.mu.Unlock()
		return confirmResult{refused: refusedClosed}
	}
	if txID == "" || token == "" {
		s.mu.Unlock()
		s.logger.Warn("Confirm refused, no credential or transaction id", zap.String("channel", string(opts.Channel)))
		return confirmResult{refused: refusedNoCredential}
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.logger.Debug("Confirm refused, another is in flight", zap.String("channel", string(opts.Channel)))
		return confirmResult{refused: refusedBusy}
	}
	gateway, ok := s.resolveGatewayLocked(opts.GatewayOverride)
	if !ok {
		s.inFlight.Store(false)
		s.mu.Unlock()
		s.logger.Warn("Confirm refused, no gateway resolved", zap.String("channel", string(opts.Channel)))
		return confirmResult{refused: refusedNoGateway}
	}

	body := map[string]interface{}{"payment_gateway": gateway}
	for k, v := range opts.Body {
		body[k] = v
	}
	include := gateway == s.cfg.HostedGateway && s.selector.Active() == models.ModeCard
	if opts.IncludeSaveCardDetails != nil {
		include = *opts.IncludeSaveCardDetails
	}
	if _, set := body["save_card_details"]; include && !set {
		body["save_card_details"] = s.saveCard
	}
	s.mu.Unlock()
	defer s.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	res, err := s.ledger.Confirm(ctx, token, txID, body)

	rec := AttemptRecord{
		Gateway: gateway,
		Channel: opts.Channel,
		Attempt: opts.Attempt,
		Status:  res.Status,
		Err:     err,
	}
	out := confirmResult{payload: res.Raw}
	switch {
	case err != nil:
		rec.Outcome = models.OutcomeFailed
	case !res.Paid():
		rec.Outcome = models.OutcomeRejected
	default:
		rec.Outcome = models.OutcomeSucceeded
		out.ok = true
	}
	s.observer.ConfirmAttempted(txID, rec)
	return out
}

func (s *Session) resolveGatewayLocked(override string) (string, bool) {
	if name, ok := payment.ResolveName(override); ok {
		return name, true
	}
	options := s.selector.Options()
	return payment.Resolve(payment.ResolveInput{
		Option:      s.selector.Selected(),
		Options:     options,
		Transaction: &s.txn,
		Payment:     &s.payment,
	})
}

// ConfirmBankTransfer confirms a transfer the customer says they made.
// A failed confirmation is final.
func (s *Session) ConfirmBankTransfer(ctx context.Context) bool {
	s.mu.Lock()
	if s.status != models.StatusPending || s.selector.Active() != models.ModeBankTransfer ||
		!s.transitionLocked(models.StatusProcessing, MessageProcessing) {
		s.unlockAndNotify()
		return false
	}
	s.unlockAndNotify()

	res := s.confirm(ctx, ConfirmOptions{Channel: ChannelBankTransfer, Attempt: 1})

	s.mu.Lock()
	defer s.unlockAndNotify()
	switch {
	case res.ok:
		s.completeLocked(res.payload, MessageCompleted)
	case res.refused != notRefused:
		s.transitionLocked(models.StatusPending, res.refused.message())
	default:
		s.transitionLocked(models.StatusFailed, MessageFailed)
	}
	return res.ok
}

// ConfirmSavedCard charges the selected saved card. A failed confirmation
// returns the session to pending so the customer can try again.
func (s *Session) ConfirmSavedCard(ctx context.Context) bool {
	s.mu.Lock()
	card := s.cards.Selected()
	if s.status != models.StatusPending || s.selector.Active() != models.ModeSavedCard || card == nil ||
		!s.transitionLocked(models.StatusProcessing, MessageProcessing) {
		s.unlockAndNotify()
		return false
	}
	s.unlockAndNotify()

	no := false
	res := s.confirm(ctx, ConfirmOptions{
		GatewayOverride:        card.PaymentGateway,
		Body:                   map[string]interface{}{"card_identifier": card.Identifier.String()},
		IncludeSaveCardDetails: &no,
		Channel:                ChannelSavedCard,
		Attempt:                1,
	})

	s.mu.Lock()
	defer s.unlockAndNotify()
	switch {
	case res.ok:
		s.completeLocked(res.payload, MessageCompleted)
	case res.refused != notRefused:
		s.transitionLocked(models.StatusPending, res.refused.message())
	default:
		s.transitionLocked(models.StatusPending, MessageCardDeclined)
	}
	return res.ok
}

// HostedSuccess is called when the hosted widget reports a successful charge.
// The widget result is not trusted; the ledger is confirmed through the retry loop.
func (s *Session) HostedSuccess() bool {
	return s.startHostedRetry()
}

// HostedClose is called when the hosted widget is dismissed. The customer may
// have paid before closing, so the same retry loop runs.
func (s *Session) HostedClose() bool {
	return s.startHostedRetry()
}

func (s *Session) startHostedRetry() bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	if s.torn || s.status.IsTerminal() {
		return false
	}
	s.transitionLocked(models.StatusProcessing, MessageProcessing)
	s.cancelRetryLocked()
	s.retry.running = true
	gen := s.retry.gen
	s.retry.cancel = s.sched.After(0, "confirm-retry", func() { s.hostedAttempt(gen) })
	return true
}

// CancelRetry stops a running hosted retry loop and resets its counter. A
// session left processing by the loop goes back to pending so polling resumes.
// It reports whether a loop was running.
func (s *Session) CancelRetry() bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	running := s.retry.running
	s.cancelRetryLocked()
	if running && s.status == models.StatusProcessing {
		s.transitionLocked(models.StatusPending, MessageRetryCancelled)
	}
	return running
}

func (s *Session) cancelRetryLocked() {
	s.retry.gen++
	if s.retry.cancel != nil {
		s.retry.cancel()
		s.retry.cancel = nil
	}
	s.retry.running = false
	s.retry.attempt = 0
}

func (s *Session) hostedAttempt(gen uint64) {
	s.mu.Lock()
	if gen != s.retry.gen || s.torn || s.status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	s.retry.attempt++
	s.retry.cancel = nil
	attempt := s.retry.attempt
	s.mu.Unlock()

	yes := true
	res := s.confirm(context.Background(), ConfirmOptions{
		GatewayOverride:        s.cfg.HostedGateway,
		IncludeSaveCardDetails: &yes,
		Channel:                ChannelHostedCard,
		Attempt:                attempt,
	})

	if res.ok {
		s.finishHosted(gen, res.payload)
		return
	}

	s.mu.Lock()
	defer s.unlockAndNotify()
	if gen != s.retry.gen || s.torn || s.status.IsTerminal() {
		return
	}
	if attempt < s.cfg.MaxRetries {
		s.retry.cancel = s.sched.After(s.cfg.RetryDelay, "confirm-retry", func() { s.hostedAttempt(gen) })
		return
	}
	s.logger.Warn("Confirm retries exhausted, falling back to status polling", zap.Int("attempts", attempt))
	s.retry.running = false
	s.transitionLocked(models.StatusPending, MessageRetryExhausted)
}

// finishHosted refreshes saved cards, since the customer may have asked to
// keep the card, and then completes the session.
func (s *Session) finishHosted(gen uint64, payload map[string]interface{}) {
	s.mu.Lock()
	if s.torn || s.status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	if gen == s.retry.gen {
		s.retry.running = false
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	s.RefreshCards(ctx)
	cancel()

	s.mu.Lock()
	defer s.unlockAndNotify()
	s.completeLocked(payload, MessageCompleted)
}

// expire is the ExpiryTimer callback. Expiry only applies to a pending
// session; the timer keeps re-checking while a confirmation is processing.
func (s *Session) expire() bool {
	s.mu.Lock()
	defer s.unlockAndNotify()
	if s.torn || s.status.IsTerminal() {
		return true
	}
	return s.transitionLocked(models.StatusExpired, MessageExpired)
}

func (s *Session) completeLocked(payload map[string]interface{}, message string) {
	if !s.transitionLocked(models.StatusCompleted, message) {
		return
	}
	txID := s.txID
	s.queue(func() { s.observer.PaymentCompleted(txID, payload) })
}

// transitionLocked moves the state machine. Terminal states are absorbing and
// expired is only reachable from pending. Reaching a terminal state releases
// every timer.
func (s *Session) transitionLocked(to models.PaymentStatus, message string) bool {
	from := s.status
	if s.torn || from.IsTerminal() {
		return false
	}
	if to == models.StatusExpired && from != models.StatusPending {
		return false
	}
	if from == to {
		s.message = message
		return true
	}
	s.status = to
	s.message = message
	txID := s.txID
	s.queue(func() { s.observer.StatusChanged(txID, from, to, message) })
	if to.IsTerminal() {
		s.settledAt = s.now()
		s.releaseLocked()
	}
	return true
}
