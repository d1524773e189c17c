package models

// PaymentStatus is the locally derived status shown to the payer.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusFailed     PaymentStatus = "failed"
	StatusExpired    PaymentStatus = "expired"
)

// IsTerminal reports whether no further transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Mode is a payment channel bucket.
type Mode string

const (
	ModeCard         Mode = "card"
	ModeBankTransfer Mode = "bank_transfer"
	ModeSavedCard    Mode = "saved_card"
)
