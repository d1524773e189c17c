package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ChargeBreakdown is the amount summary attached to a gateway option.
type ChargeBreakdown struct {
	BaseAmount decimal.Decimal `json:"base_amount"`
	TotalFees  decimal.Decimal `json:"total_fees"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// BankDetails is present on bank-transfer options.
type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
}

// PaymentGatewayOption is one way to pay offered by the backend for a checkout session.
type PaymentGatewayOption struct {
	ID                   FlexString       `json:"id"`
	Name                 string           `json:"name"`
	Gateway              string           `json:"gateway,omitempty"`
	Provider             string           `json:"provider,omitempty"`
	PaymentType          string           `json:"payment_type"`
	TransactionReference string           `json:"transaction_reference"`
	ChargeBreakdown      *ChargeBreakdown `json:"charge_breakdown,omitempty"`
	Details              *BankDetails     `json:"details,omitempty"`
}

// IsCard reports whether the option's type or name mentions "card".
func (o PaymentGatewayOption) IsCard() bool {
	return containsFold(o.PaymentType, "card") || containsFold(o.Name, "card")
}

// IsBankTransfer reports whether the option's type or name mentions "bank" or "transfer".
func (o PaymentGatewayOption) IsBankTransfer() bool {
	for _, field := range []string{o.PaymentType, o.Name} {
		if containsFold(field, "bank") || containsFold(field, "transfer") {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
