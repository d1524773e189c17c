package models

// APIResponse is the standard response envelope of the checkout service.
type APIResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

// PaginatedResponse wraps paginated list responses.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// --- Checkout API Request Payloads ---

// OpenSessionRequest opens (or re-attaches to) a checkout session.
type OpenSessionRequest struct {
	TransactionID string `json:"transaction_id"`
}

// SelectModeRequest switches the active payment channel.
type SelectModeRequest struct {
	Mode Mode `json:"mode"`
}

// SelectOptionRequest picks a gateway option by id.
type SelectOptionRequest struct {
	OptionID string `json:"option_id"`
}

// SelectCardRequest picks a saved card by identifier.
type SelectCardRequest struct {
	CardID string `json:"card_id"`
}

// SaveCardRequest toggles "save this card" for hosted card payments.
type SaveCardRequest struct {
	Save bool `json:"save"`
}

// GatewayCallbackRequest is what the hosted card widget reports on success.
type GatewayCallbackRequest struct {
	Status        string                 `json:"status"`
	TxRef         string                 `json:"tx_ref"`
	TransactionID string                 `json:"transaction_id"`
	Raw           map[string]interface{} `json:"raw,omitempty"`
}
