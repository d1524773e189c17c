package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the authoritative status held by the backend ledger.
type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "processing"
	TransactionSuccessful TransactionStatus = "successful"
	TransactionFailed     TransactionStatus = "failed"
)

// Transaction is the read-only local copy of a ledger transaction.
type Transaction struct {
	Identifier     FlexString        `json:"identifier"`
	Reference      string            `json:"reference"`
	Currency       string            `json:"currency"`
	Amount         decimal.Decimal   `json:"amount"`
	Status         TransactionStatus `json:"status"`
	PaymentGateway string            `json:"payment_gateway,omitempty"`
	ExpiresAt      string            `json:"expires_at,omitempty"`
}

// Deadline parses ExpiresAt. The second return is false when no usable deadline is set.
func (t *Transaction) Deadline() (time.Time, bool) {
	return ParseTimestamp(t.ExpiresAt)
}

// ParseTimestamp accepts the timestamp layouts the ledger has been seen to emit.
func ParseTimestamp(val string) (time.Time, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, false
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, val); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// PaymentInfo carries the payment-side metadata of a transaction fetch.
type PaymentInfo struct {
	Gateway string `json:"gateway,omitempty"`
}

// TransactionBundle is everything a checkout session needs from one ledger fetch.
type TransactionBundle struct {
	Transaction Transaction            `json:"transaction"`
	Payment     PaymentInfo            `json:"payment"`
	Options     []PaymentGatewayOption `json:"payment_gateway_options"`
	SavedCards  []SavedCard            `json:"saved_cards"`
}
