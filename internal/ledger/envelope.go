package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// successStatuses are the confirm/poll statuses that mean money moved.
var successStatuses = map[string]bool{
	"successful": true,
	"completed":  true,
	"paid":       true,
}

// IsSuccessStatus reports whether a normalized status counts as paid.
func IsSuccessStatus(status string) bool {
	return successStatuses[NormalizeStatus(status)]
}

// NormalizeStatus trims and lower-cases a status string.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// StatusResult is the parsed outcome of a confirm or status call.
type StatusResult struct {
	Success bool
	Status  string
	Raw     map[string]interface{}
}

// Paid reports whether Status is one of the success statuses.
func (r StatusResult) Paid() bool {
	return IsSuccessStatus(r.Status)
}

func parseStatusEnvelope(body []byte) (StatusResult, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return StatusResult{}, fmt.Errorf("ledger: parse status envelope: %w", err)
	}
	success, _ := payload["success"].(bool)
	return StatusResult{
		Success: success,
		Status:  NormalizeStatus(ExtractStatus(payload)),
		Raw:     payload,
	}, nil
}

// ExtractStatus finds the status string in any of the envelope shapes the ledger uses:
// data.status, status, data.transaction.status (checked in that order).
func ExtractStatus(payload map[string]interface{}) string {
	data, _ := payload["data"].(map[string]interface{})
	if s := stringField(data, "status"); s != "" {
		return s
	}
	if s := stringField(payload, "status"); s != "" {
		return s
	}
	if data != nil {
		txn, _ := data["transaction"].(map[string]interface{})
		if s := stringField(txn, "status"); s != "" {
			return s
		}
	}
	return ""
}

// stringField reads a string value; booleans (the {status:true} envelope) are ignored.
func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
