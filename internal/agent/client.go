package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrTimeout is returned by Ask when the deadline passes before a reply arrives.
	ErrTimeout = errors.New("agent request timed out")
	// ErrNoReply is returned by Ask when the target answers without a usable reply.
	ErrNoReply = errors.New("agent sent no reply")
)

// Client performs typed request/response round trips with other agents.
type Client struct {
	identity  Identity
	sender    *HTTPSender
	endpoints map[string]string
	logger    *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint maps an agent address to its /submit URL.
func WithEndpoint(address, endpoint string) ClientOption {
	return func(c *Client) { c.endpoints[address] = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.sender = NewHTTPSender(hc) }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client sending as id.
func NewClient(id Identity, opts ...ClientOption) *Client {
	c := &Client{
		identity:  id,
		endpoints: make(map[string]string),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sender == nil {
		// Deadlines come from the caller's context.
		c.sender = NewHTTPSender(&http.Client{})
	}
	return c
}

// Ask sends req to the agent at address under schema and decodes the first non-acknowledgement
// reply into resp. The caller's context bounds the whole round trip.
func (c *Client) Ask(ctx context.Context, address string, schema Schema, req, resp interface{}) error {
	endpoint, ok := c.endpoints[address]
	if !ok {
		return fmt.Errorf("no endpoint known for agent %s", address)
	}
	env, err := NewEnvelope(c.identity, address, schema, req)
	if err != nil {
		return err
	}
	start := time.Now()
	body, err := c.sender.post(ctx, endpoint, env)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("agent request timed out",
				zap.String("target", address),
				zap.String("schema", string(schema)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	}

	var out SubmitResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode submit response: %w", err)
	}
	for _, reply := range out.Replies {
		if reply == nil || reply.Schema == SchemaChatAck {
			continue
		}
		return reply.Decode(resp)
	}
	return ErrNoReply
}
