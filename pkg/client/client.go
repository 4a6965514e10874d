// Package client provides the CropChain Go SDK for registering harvest lots,
// trading their tokens, and inspecting the settlement ledger and audit chain.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Crop is a registered harvest lot.
type Crop struct {
	CropID       string    `json:"crop_id"`
	CropType     string    `json:"crop_type"`
	Quantity     float64   `json:"quantity"`
	QualityGrade string    `json:"quality_grade"`
	MarketID     string    `json:"market_id"`
	FarmerID     string    `json:"farmer_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Token is the tradable claim on a crop.
type Token struct {
	TokenID      string    `json:"token_id"`
	LinkedCropID string    `json:"linked_crop_id"`
	OwnerID      string    `json:"owner_id"`
	Status       string    `json:"status"`
	AuditHash    string    `json:"audit_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Settlement is the financial record of an executed trade.
type Settlement struct {
	SettlementID   string    `json:"settlement_id"`
	TokenID        string    `json:"token_id"`
	SellerID       string    `json:"seller_id"`
	BuyerID        string    `json:"buyer_id"`
	PricePerKg     float64   `json:"price_per_kg"`
	Quantity       float64   `json:"quantity"`
	TotalAmount    float64   `json:"total_amount"`
	SettlementTime time.Time `json:"settlement_time"`
	Status         string    `json:"settlement_status"`
}

// AuditEntry is one event in the hash-chained audit trail.
type AuditEntry struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	Actor        string         `json:"actor"`
	Timestamp    time.Time      `json:"timestamp"`
	Data         map[string]any `json:"data"`
	PreviousHash string         `json:"previous_hash"`
	CurrentHash  string         `json:"current_hash"`
}

// VerifyResult is the outcome of an audit chain verification.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Entries int    `json:"total_entries"`
	EntryID string `json:"entry_id,omitempty"`
	Index   int    `json:"index,omitempty"`
}

// RegisterCropRequest is the payload for RegisterCrop.
type RegisterCropRequest struct {
	CropType     string  `json:"crop_type"`
	Quantity     float64 `json:"quantity"`
	QualityGrade string  `json:"quality_grade"`
	MarketID     string  `json:"market_id"`
	FarmerID     string  `json:"farmer_id"`
}

// RegistrationResult holds the crop and token minted by RegisterCrop.
type RegistrationResult struct {
	Crop  *Crop  `json:"crop"`
	Token *Token `json:"token"`
}

// TokenDetail is a token together with its linked crop (nil when the crop
// record is missing).
type TokenDetail struct {
	Token *Token `json:"token"`
	Crop  *Crop  `json:"crop"`
}

// Stats summarises exchange activity.
type Stats struct {
	TotalCrops            int            `json:"total_crops"`
	TotalTokens           int            `json:"total_tokens"`
	TotalSettlements      int            `json:"total_settlements"`
	TokenStatusBreakdown  map[string]int `json:"token_status_breakdown"`
	TotalSettlementVolume float64        `json:"total_settlement_volume"`
	AvgSettlementValue    float64        `json:"avg_settlement_value"`
}

// ComplianceReport is the regulator-facing activity summary.
type ComplianceReport struct {
	AuditTrailIntegrity       *VerifyResult `json:"audit_trail_integrity"`
	TotalRegisteredFarmers    int           `json:"total_registered_farmers"`
	TotalActiveTokens         int           `json:"total_active_tokens"`
	TotalCompletedSettlements int           `json:"total_completed_settlements"`
	RegulatoryNotes           []string      `json:"regulatory_notes"`
}

// APIError is a non-2xx response from the exchange. Message carries the
// server's explanation, e.g. "Token not found".
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Client is the CropChain SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a new Client for the exchange at baseURL.
//
//	c := client.New("http://localhost:8080")
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RegisterCrop registers a harvest lot and returns the crop with its token.
func (c *Client) RegisterCrop(ctx context.Context, reg RegisterCropRequest) (*RegistrationResult, error) {
	var resp struct {
		Crop  *Crop  `json:"crop"`
		Token *Token `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/crops/register", reg, &resp); err != nil {
		return nil, err
	}
	return &RegistrationResult{Crop: resp.Crop, Token: resp.Token}, nil
}

// Crops lists all registered crops.
func (c *Client) Crops(ctx context.Context) ([]Crop, error) {
	var resp struct {
		Crops []Crop `json:"crops"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/crops", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Crops, nil
}

// Crop fetches a single crop by ID.
func (c *Client) Crop(ctx context.Context, cropID string) (*Crop, error) {
	var resp struct {
		Crop *Crop `json:"crop"`
	}
	path := "/api/v1/crops/" + url.PathEscape(cropID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Crop, nil
}

// ListToken puts a token up for sale. Only the current owner may list.
func (c *Client) ListToken(ctx context.Context, tokenID, sellerID string) error {
	payload := map[string]string{"token_id": tokenID, "seller_id": sellerID}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/tokens/list", payload, nil)
}

// Tokens lists tokens, optionally filtered by status. Pass "" for all tokens;
// the filter is case-insensitive.
func (c *Client) Tokens(ctx context.Context, status string) ([]Token, error) {
	path := "/api/v1/tokens"
	if status != "" {
		path = "/api/v1/tokens/status/" + url.PathEscape(status)
	}
	var resp struct {
		Tokens []Token `json:"tokens"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// Token fetches a single token with its linked crop.
func (c *Client) Token(ctx context.Context, tokenID string) (*TokenDetail, error) {
	var resp TokenDetail
	path := "/api/v1/tokens/" + url.PathEscape(tokenID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExecuteTrade buys a listed token and returns the settlement record.
func (c *Client) ExecuteTrade(ctx context.Context, tokenID, buyerID string) (*Settlement, error) {
	payload := map[string]string{"token_id": tokenID, "buyer_id": buyerID}
	var resp struct {
		Settlement *Settlement `json:"settlement"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/settlements/execute", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Settlement, nil
}

// Settlements lists all settlement records.
func (c *Client) Settlements(ctx context.Context) ([]Settlement, error) {
	var resp struct {
		Settlements []Settlement `json:"settlements"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/settlements", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Settlements, nil
}

// AuditTrail returns the complete audit trail in chain order.
func (c *Client) AuditTrail(ctx context.Context) ([]AuditEntry, error) {
	var resp struct {
		Trail []AuditEntry `json:"audit_trail"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/audit/trail", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Trail, nil
}

// VerifyAudit runs a server-side integrity check of the audit chain.
// A tampered chain is reported in the result, not as an error.
func (c *Client) VerifyAudit(ctx context.Context) (*VerifyResult, error) {
	var res VerifyResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/audit/verify", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats returns exchange activity counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var resp struct {
		Stats *Stats `json:"stats"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/stats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

// ComplianceReport returns the regulator-facing activity summary.
func (c *Client) ComplianceReport(ctx context.Context) (*ComplianceReport, error) {
	var resp struct {
		Report *ComplianceReport `json:"compliance_report"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/compliance/report", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Report, nil
}

// doJSON executes a request against the exchange, JSON-encoding reqBody and
// decoding the response into respBody (either may be nil). Non-2xx responses
// are returned as *APIError carrying the server's message.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &envelope)
		if envelope.Message == "" {
			envelope.Message = string(body)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if respBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
