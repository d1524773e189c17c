package models

import "time"

// Attempt outcomes recorded in PaymentAttempt.Outcome.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeTerminal  = "terminal"
)

// PaymentAttempt maps to the `payment_attempts` table.
// One row per confirm call plus one row per terminal status transition.
type PaymentAttempt struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TransactionID string    `gorm:"column:transaction_id;size:200;index" json:"transaction_id"`
	Gateway       string    `gorm:"column:gateway;size:100" json:"gateway"`
	Channel       string    `gorm:"column:channel;size:50" json:"channel"`
	Attempt       int       `gorm:"column:attempt" json:"attempt"`
	Outcome       string    `gorm:"column:outcome;size:50" json:"outcome"`
	Status        string    `gorm:"column:status;size:50" json:"status"`
	Message       string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}
