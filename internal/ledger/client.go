package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/pkg/httpclient"
)

var (
	// ErrMissingIdentifier is returned when no transaction or card identifier is given.
	ErrMissingIdentifier = errors.New("ledger: missing identifier")
	// ErrMissingCredential is returned when no bearer token is given.
	ErrMissingCredential = errors.New("ledger: missing credential")
	// ErrUnauthorized is returned for 401/403 responses.
	ErrUnauthorized = errors.New("ledger: unauthorized")
	// ErrUnexpectedStatus is returned for any other non-2xx response.
	ErrUnexpectedStatus = errors.New("ledger: unexpected response status")
	// ErrRejected is returned when the envelope reports success=false.
	ErrRejected = errors.New("ledger: request rejected")
)

// IdempotencyHeader carries a key derived from the confirm payload.
const IdempotencyHeader = "Idempotency-Key"

// DefaultUserAgent identifies this service to the ledger.
const DefaultUserAgent = "uniclo-checkout"

// ConfirmKey derives a stable key from the transaction id and confirm body,
// so repeating an identical confirm is recognised by the ledger.
func ConfirmKey(id string, body map[string]interface{}) string {
	raw, _ := json.Marshal(body)
	return uuid.NewSHA1(uuid.NameSpaceURL, append([]byte(id+"|"), raw...)).String()
}

// Client talks to the authoritative backend ledger.
type Client struct {
	http        *httpclient.Client
	cardsPrefix string
}

// Options configure a ledger client.
type Options struct {
	BaseURL string
	// TenantPrefix is prepended to card routes, e.g. "/tenant/admin".
	TenantPrefix string
	Timeout      time.Duration
	RetryCount   int
	// UserAgent defaults to DefaultUserAgent.
	UserAgent string
}

// New creates a ledger client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	agent := strings.TrimSpace(opts.UserAgent)
	if agent == "" {
		agent = DefaultUserAgent
	}
	hc := httpclient.New().
		WithBaseURL(opts.BaseURL).
		WithTimeout(timeout).
		WithRetryCount(opts.RetryCount).
		WithHeader("User-Agent", agent)

	return &Client{
		http:        hc,
		cardsPrefix: "/" + strings.Trim(strings.TrimSpace(opts.TenantPrefix), "/"),
	}
}

// GetTransaction fetches the transaction with its gateway options and saved cards.
// GET /transactions/{id}
func (c *Client) GetTransaction(ctx context.Context, token, id string) (*models.TransactionBundle, error) {
	if err := checkArgs(token, id); err != nil {
		return nil, err
	}
	resp, err := c.http.Get(ctx, "/transactions/"+url.PathEscape(id), token)
	if err != nil {
		return nil, fmt.Errorf("ledger: get transaction: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var envelope struct {
		Success bool                     `json:"success"`
		Data    models.TransactionBundle `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("ledger: parse transaction: %w", err)
	}
	bundle := envelope.Data
	if bundle.Transaction.Identifier == "" {
		bundle.Transaction.Identifier = models.FlexString(id)
	}
	bundle.SavedCards = models.NormalizeSavedCards(bundle.SavedCards)
	return &bundle, nil
}

// Confirm asserts the transaction should be considered paid via the gateway in body.
// PUT /transactions/{id}
func (c *Client) Confirm(ctx context.Context, token, id string, body map[string]interface{}) (StatusResult, error) {
	if err := checkArgs(token, id); err != nil {
		return StatusResult{}, err
	}
	resp, err := c.http.Put(ctx, "/transactions/"+url.PathEscape(id), token, body,
		httpclient.WithRequestHeader(IdempotencyHeader, ConfirmKey(id, body)))
	if err != nil {
		return StatusResult{}, fmt.Errorf("ledger: confirm: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return StatusResult{}, err
	}
	return parseStatusEnvelope(resp.Body)
}

// Status reads the current authoritative status.
// GET /transactions/{id}/status
func (c *Client) Status(ctx context.Context, token, id string) (StatusResult, error) {
	if err := checkArgs(token, id); err != nil {
		return StatusResult{}, err
	}
	resp, err := c.http.Get(ctx, "/transactions/"+url.PathEscape(id)+"/status", token)
	if err != nil {
		return StatusResult{}, fmt.Errorf("ledger: status: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return StatusResult{}, err
	}
	return parseStatusEnvelope(resp.Body)
}

// ListCards returns the payer's saved cards.
// GET {prefix}/cards
func (c *Client) ListCards(ctx context.Context, token string) ([]models.SavedCard, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}
	resp, err := c.http.Get(ctx, c.cardsPath(""), token)
	if err != nil {
		return nil, fmt.Errorf("ledger: list cards: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var envelope struct {
		Success bool               `json:"success"`
		Cards   []models.SavedCard `json:"cards"`
		Data    *struct {
			Cards []models.SavedCard `json:"cards"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("ledger: parse cards: %w", err)
	}
	cards := envelope.Cards
	if cards == nil && envelope.Data != nil {
		cards = envelope.Data.Cards
	}
	return models.NormalizeSavedCards(cards), nil
}

// DeleteCard removes a saved card.
// DELETE {prefix}/cards/{id}
func (c *Client) DeleteCard(ctx context.Context, token, cardID string) error {
	if err := checkArgs(token, cardID); err != nil {
		return err
	}
	resp, err := c.http.Delete(ctx, c.cardsPath(cardID), token)
	if err != nil {
		return fmt.Errorf("ledger: delete card: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return err
	}

	var envelope struct {
		Success *bool `json:"success"`
	}
	if len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return fmt.Errorf("ledger: parse delete card: %w", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		return ErrRejected
	}
	return nil
}

func (c *Client) cardsPath(cardID string) string {
	path := strings.TrimRight(c.cardsPrefix, "/") + "/cards"
	if cardID != "" {
		path += "/" + url.PathEscape(cardID)
	}
	return path
}

func checkArgs(token, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingIdentifier
	}
	if strings.TrimSpace(token) == "" {
		return ErrMissingCredential
	}
	return nil
}

func checkResponse(resp *httpclient.Response) error {
	switch {
	case resp.OK():
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}
