package checkout

import (
	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// AttemptRecord describes one confirm call.
type AttemptRecord struct {
	Gateway string
	Channel Channel
	Attempt int
	Outcome string
	Status  string
	Err     error
}

// Observer receives everything a session reports outward.
// Calls are made after the session lock is released, from whichever goroutine
// caused the change, so implementations must be safe for concurrent use.
type Observer interface {
	OptionChanged(txID string, option *models.PaymentGatewayOption)
	StatusChanged(txID string, from, to models.PaymentStatus, message string)
	PaymentCompleted(txID string, payload map[string]interface{})
	ConfirmAttempted(txID string, rec AttemptRecord)
}

// NopObserver ignores every event. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) OptionChanged(string, *models.PaymentGatewayOption) {}
func (NopObserver) StatusChanged(string, models.PaymentStatus, models.PaymentStatus, string) {}
func (NopObserver) PaymentCompleted(string, map[string]interface{}) {}
func (NopObserver) ConfirmAttempted(string, AttemptRecord) {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (o Observers) OptionChanged(txID string, option *models.PaymentGatewayOption) {
	for _, ob := range o {
		ob.OptionChanged(txID, option)
	}
}

func (o Observers) StatusChanged(txID string, from, to models.PaymentStatus, message string) {
	for _, ob := range o {
		ob.StatusChanged(txID, from, to, message)
	}
}

func (o Observers) PaymentCompleted(txID string, payload map[string]interface{}) {
	for _, ob := range o {
		ob.PaymentCompleted(txID, payload)
	}
}

func (o Observers) ConfirmAttempted(txID string, rec AttemptRecord) {
	for _, ob := range o {
		ob.ConfirmAttempted(txID, rec)
	}
}

// LogObserver writes every event to a zap logger.
type LogObserver struct {
	Logger *zap.Logger
}

func (l LogObserver) OptionChanged(txID string, option *models.PaymentGatewayOption) {
	fields := []zap.Field{zap.String("transaction_id", txID)}
	if option != nil {
		fields = append(fields, zap.String("option_id", option.ID.String()), zap.String("option", option.Name))
	}
	l.Logger.Debug("Payment option changed", fields...)
}

func (l LogObserver) StatusChanged(txID string, from, to models.PaymentStatus, message string) {
	l.Logger.Info("Payment status changed",
		zap.String("transaction_id", txID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("message", message),
	)
}

func (l LogObserver) PaymentCompleted(txID string, _ map[string]interface{}) {
	l.Logger.Info("Payment completed", zap.String("transaction_id", txID))
}

func (l LogObserver) ConfirmAttempted(txID string, rec AttemptRecord) {
	l.Logger.Info("Confirm attempted",
		zap.String("transaction_id", txID),
		zap.String("gateway", rec.Gateway),
		zap.String("channel", string(rec.Channel)),
		zap.Int("attempt", rec.Attempt),
		zap.String("outcome", rec.Outcome),
		zap.String("status", rec.Status),
		zap.Error(rec.Err),
	)
}
