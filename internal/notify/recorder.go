package notify

import (
	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/checkout"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// AttemptStore persists attempt rows. *repository.AttemptRepository satisfies it.
type AttemptStore interface {
	Create(attempt *models.PaymentAttempt) error
}

// Recorder writes one audit row per confirm call and per terminal transition.
type Recorder struct {
	checkout.NopObserver

	store  AttemptStore
	logger *zap.Logger
}

func NewRecorder(store AttemptStore, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) ConfirmAttempted(txID string, rec checkout.AttemptRecord) {
	row := &models.PaymentAttempt{
		TransactionID: txID,
		Gateway:       rec.Gateway,
		Channel:       string(rec.Channel),
		Attempt:       rec.Attempt,
		Outcome:       rec.Outcome,
		Status:        rec.Status,
	}
	if rec.Err != nil {
		row.Message = rec.Err.Error()
	}
	r.save(row)
}

func (r *Recorder) StatusChanged(txID string, _, to models.PaymentStatus, message string) {
	if !to.IsTerminal() {
		return
	}
	r.save(&models.PaymentAttempt{
		TransactionID: txID,
		Outcome:       models.OutcomeTerminal,
		Status:        string(to),
		Message:       message,
	})
}

func (r *Recorder) save(row *models.PaymentAttempt) {
	if err := r.store.Create(row); err != nil {
		r.logger.Error("Failed to record payment attempt",
			zap.String("transaction_id", row.TransactionID),
			zap.String("outcome", row.Outcome),
			zap.Error(err))
	}
}
