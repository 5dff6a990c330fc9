package agent

import (
	"context"
	"time"

	"github.com/hyperjump/medtriage/internal/metrics"
	"go.uber.org/zap"
)

// ChatFallback is the reply sent when the flow behind a chat handler fails.
const ChatFallback = "I am afraid something went wrong and I am unable to answer your question at the moment"

// ChatFlow answers the concatenated text of one chat message.
type ChatFlow func(ctx context.Context, text string) (string, error)

// ChatHandler implements the chat protocol: acknowledge, deduplicate by message ID, run the flow
// on the message text and reply with the answer followed by an end-session marker.
type ChatHandler struct {
	identity Identity
	guard    *MessageGuard
	flow     ChatFlow
	sender   Sender
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// ChatOption configures a ChatHandler.
type ChatOption func(*ChatHandler)

// WithChatLogger sets the handler logger.
func WithChatLogger(l *zap.Logger) ChatOption {
	return func(h *ChatHandler) { h.logger = l }
}

// WithChatSender lets the handler push the acknowledgement before running the flow when the
// inbound envelope names a ReplyTo endpoint.
func WithChatSender(s Sender) ChatOption {
	return func(h *ChatHandler) { h.sender = s }
}

// WithChatMetrics counts fallback replies.
func WithChatMetrics(m *metrics.Metrics) ChatOption {
	return func(h *ChatHandler) { h.metrics = m }
}

// NewChatHandler creates a chat handler for the agent id.
func NewChatHandler(id Identity, guard *MessageGuard, flow ChatFlow, opts ...ChatOption) *ChatHandler {
	h := &ChatHandler{
		identity: id,
		guard:    guard,
		flow:     flow,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle is a HandlerFunc for SchemaChatMessage.
func (h *ChatHandler) Handle(ctx context.Context, env *Envelope) ([]*Envelope, error) {
	var msg ChatMessage
	if err := env.Decode(&msg); err != nil {
		return nil, err
	}
	h.logger.Info("got chat message", zap.String("msg_id", msg.MsgID), zap.String("sender", env.Sender))

	ack, err := env.Reply(h.identity, SchemaChatAck, ChatAcknowledgement{
		Timestamp:         time.Now().UTC(),
		AcknowledgedMsgID: msg.MsgID,
	})
	if err != nil {
		return nil, err
	}
	var replies []*Envelope
	if env.ReplyTo != "" && h.sender != nil {
		if err := h.sender.Send(ctx, env.ReplyTo, ack); err != nil {
			h.logger.Warn("failed to send acknowledgement", zap.Error(err))
		}
	} else {
		replies = append(replies, ack)
	}

	if msg.MsgID != "" {
		if !h.guard.Begin(msg.MsgID) {
			h.logger.Info("skipping duplicate chat message", zap.String("msg_id", msg.MsgID))
			return replies, nil
		}
	}
	ok := false
	defer func() {
		if msg.MsgID != "" {
			h.guard.Done(msg.MsgID, ok)
		}
	}()

	answer, err := h.flow(ctx, JoinText(msg.Content))
	if err != nil {
		h.logger.Error("error querying model", zap.String("msg_id", msg.MsgID), zap.Error(err))
		h.metrics.Fallback("chat")
		answer = ChatFallback
	} else {
		ok = true
	}

	reply, err := env.Reply(h.identity, SchemaChatMessage, NewChatMessage(
		TextContent{Text: answer},
		EndSessionContent{},
	))
	if err != nil {
		return replies, err
	}
	return append(replies, reply), nil
}
