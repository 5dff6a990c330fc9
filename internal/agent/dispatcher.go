package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hyperjump/medtriage/internal/metrics"
	"go.uber.org/zap"
)

// ErrBadRequest marks envelopes the dispatcher or a handler rejects as malformed. /submit answers
// them with 400; any other handler error is an upstream failure and gets 502.
var ErrBadRequest = errors.New("bad envelope")

// HandlerFunc handles one inbound envelope and returns the envelopes to send back.
type HandlerFunc func(ctx context.Context, env *Envelope) ([]*Envelope, error)

// Dispatcher routes inbound envelopes to handlers by schema.
type Dispatcher struct {
	identity Identity
	handlers map[Schema]HandlerFunc
	sender   Sender
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithSender sets the sender used to push replies when an envelope names a ReplyTo endpoint.
func WithSender(s Sender) DispatcherOption {
	return func(d *Dispatcher) { d.sender = s }
}

// WithMetrics counts dispatched envelopes per schema.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher for the agent id.
func NewDispatcher(id Identity, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		identity: id,
		handlers: make(map[Schema]HandlerFunc),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sender == nil {
		d.sender = NewHTTPSender(nil)
	}
	return d
}

// Identity returns the agent identity.
func (d *Dispatcher) Identity() Identity {
	return d.identity
}

// Handle registers h for schema, replacing any previous handler.
func (d *Dispatcher) Handle(schema Schema, h HandlerFunc) {
	d.handlers[schema] = h
}

// Dispatch validates env and runs its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope) ([]*Envelope, error) {
	if env.Version != EnvelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", ErrBadRequest, env.Version)
	}
	if env.Target != "" && env.Target != d.identity.Address {
		return nil, fmt.Errorf("%w: envelope addressed to %s, this agent is %s", ErrBadRequest, env.Target, d.identity.Address)
	}
	h, ok := d.handlers[env.Schema]
	if !ok {
		return nil, fmt.Errorf("%w: no handler for schema %q", ErrBadRequest, env.Schema)
	}
	d.metrics.Request(string(env.Schema))
	d.logger.Info("received envelope",
		zap.String("schema", string(env.Schema)),
		zap.String("sender", env.Sender),
		zap.String("session", env.Session),
	)
	return h(ctx, env)
}

// ServeHTTP implements POST /submit. Replies are returned in the body, or pushed to ReplyTo when set.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid envelope"})
		return
	}
	replies, err := d.Dispatch(r.Context(), &env)
	if err != nil {
		d.logger.Warn("dispatch failed", zap.String("schema", string(env.Schema)), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, ErrBadRequest) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	if env.ReplyTo != "" {
		for _, reply := range replies {
			if err := d.sender.Send(r.Context(), env.ReplyTo, reply); err != nil {
				d.logger.Warn("failed to push reply",
					zap.String("reply_to", env.ReplyTo),
					zap.String("schema", string(reply.Schema)),
					zap.Error(err),
				)
			}
		}
		replies = nil
	}
	if replies == nil {
		replies = []*Envelope{}
	}
	writeJSON(w, http.StatusOK, SubmitResponse{Replies: replies})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
