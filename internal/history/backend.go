package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/medtriage/internal/config"
	"github.com/hyperjump/medtriage/pkg/utils"
)

// GetHistoryRequest is the body sent to the history backend.
type GetHistoryRequest struct {
	Username       string `json:"username"`
	UserCanisterID string `json:"user_canister_id"`
}

// Fetcher retrieves a user's history as raw JSON.
type Fetcher interface {
	GetHistory(ctx context.Context, username string) (json.RawMessage, error)
}

// BackendClient calls the canister-hosted history backend.
type BackendClient struct {
	baseURL        string
	host           string
	userCanisterID string
	http           *http.Client
}

// NewBackendClient creates a client from cfg. hc may be nil.
func NewBackendClient(cfg *config.HistoryConfig, hc *http.Client) *BackendClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &BackendClient{
		baseURL:        strings.TrimRight(cfg.BackendURL, "/"),
		host:           cfg.HistoryCanisterID + ".localhost",
		userCanisterID: cfg.UserCanisterID,
		http:           hc,
	}
}

// GetHistory posts to /get-history. A body that is not valid JSON is parsed once more after control
// characters are stripped.
func (c *BackendClient) GetHistory(ctx context.Context, username string) (json.RawMessage, error) {
	body, err := json.Marshal(GetHistoryRequest{Username: username, UserCanisterID: c.userCanisterID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get-history", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	req.Host = c.host
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history backend: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("history backend returned %d: %s", resp.StatusCode, utils.Truncate(string(raw), 200))
	}

	if json.Valid(raw) {
		return raw, nil
	}
	cleaned := []byte(utils.StripControl(string(raw)))
	if !json.Valid(cleaned) {
		return nil, fmt.Errorf("history backend returned invalid JSON: %s", utils.Truncate(string(raw), 200))
	}
	return cleaned, nil
}
