package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/pkg/utils"
)

// APIError is a non-2xx response from an agent's REST API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent returned %d: %s", e.Status, e.Message)
}

// Client calls the REST endpoints of a running agent.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the agent at baseURL (e.g. http://localhost:8000).
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Diagnose posts a structured report to /diagnosis/from-symptoms.
func (c *Client) Diagnose(ctx context.Context, report *models.SymptomReport) (*models.DiagnosisResult, error) {
	var res models.DiagnosisResult
	if err := c.post(ctx, "/diagnosis/from-symptoms", report, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DiagnoseRaw posts free text to /diagnosis/raw.
func (c *Client) DiagnoseRaw(ctx context.Context, text string) (*models.DiagnosisResult, error) {
	var res models.DiagnosisResult
	if err := c.post(ctx, "/diagnosis/raw", models.RawRequest{Text: text}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Structure posts free text to /diagnosis/get_structure.
func (c *Client) Structure(ctx context.Context, text string) (*models.StructureResponse, error) {
	var res models.StructureResponse
	if err := c.post(ctx, "/diagnosis/get_structure", models.RawRequest{Text: text}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Recommend posts a question to /recommendation.
func (c *Client) Recommend(ctx context.Context, question string) (*models.RecommendationResult, error) {
	var res models.RecommendationResult
	if err := c.post(ctx, "/recommendation", models.RecommendationRequest{Question: question}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		msg := utils.Truncate(strings.TrimSpace(string(data)), 200)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
