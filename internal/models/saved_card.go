package models

import "strconv"

// SavedCard is a previously tokenized card belonging to the payer.
type SavedCard struct {
	Identifier     FlexString `json:"identifier"`
	Last4          string     `json:"last4"`
	CardType       string     `json:"card_type"`
	ExpMonth       FlexString `json:"exp_month"`
	ExpYear        FlexString `json:"exp_year"`
	Bank           string     `json:"bank"`
	PaymentGateway string     `json:"payment_gateway"`
}

// NormalizeSavedCards fills missing identifiers with the entry's index.
func NormalizeSavedCards(cards []SavedCard) []SavedCard {
	out := make([]SavedCard, len(cards))
	for i, card := range cards {
		if card.Identifier == "" {
			card.Identifier = FlexString(strconv.Itoa(i))
		}
		out[i] = card
	}
	return out
}
