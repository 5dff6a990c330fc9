package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender delivers an envelope to an endpoint URL.
type Sender interface {
	Send(ctx context.Context, endpoint string, env *Envelope) error
}

// HTTPSender posts envelopes as JSON.
type HTTPSender struct {
	client *http.Client
}

// NewHTTPSender returns a sender using client, or a client with a 30s timeout when nil.
func NewHTTPSender(client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSender{client: client}
}

// Send implements Sender. Any non-2xx status is an error.
func (s *HTTPSender) Send(ctx context.Context, endpoint string, env *Envelope) error {
	_, err := s.post(ctx, endpoint, env)
	return err
}

func (s *HTTPSender) post(ctx context.Context, endpoint string, env *Envelope) ([]byte, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}
	return data, nil
}
