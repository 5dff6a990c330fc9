package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Content type tags on the wire.
const (
	ContentTypeText         = "text"
	ContentTypeStartSession = "start-session"
	ContentTypeEndSession   = "end-session"
	ContentTypeMetadata     = "metadata"
)

// Content is one item of a chat message. The set of implementations is closed; anything
// unrecognized on the wire decodes to UnknownContent.
type Content interface {
	contentType() string
}

// TextContent carries message text.
type TextContent struct {
	Text string
}

// StartSessionContent opens a chat session.
type StartSessionContent struct{}

// EndSessionContent closes a chat session.
type EndSessionContent struct{}

// MetadataContent carries free-form key/value metadata.
type MetadataContent struct {
	Metadata map[string]string
}

// UnknownContent preserves an item with an unrecognized type tag.
type UnknownContent struct {
	Type string
	Raw  json.RawMessage
}

func (TextContent) contentType() string         { return ContentTypeText }
func (StartSessionContent) contentType() string { return ContentTypeStartSession }
func (EndSessionContent) contentType() string   { return ContentTypeEndSession }
func (MetadataContent) contentType() string     { return ContentTypeMetadata }
func (u UnknownContent) contentType() string    { return u.Type }

// ContentVisitor has one method per Content variant.
type ContentVisitor interface {
	VisitText(TextContent)
	VisitStartSession(StartSessionContent)
	VisitEndSession(EndSessionContent)
	VisitMetadata(MetadataContent)
	VisitUnknown(UnknownContent)
}

// VisitContent dispatches c to the matching visitor method.
func VisitContent(c Content, v ContentVisitor) {
	switch c := c.(type) {
	case TextContent:
		v.VisitText(c)
	case StartSessionContent:
		v.VisitStartSession(c)
	case EndSessionContent:
		v.VisitEndSession(c)
	case MetadataContent:
		v.VisitMetadata(c)
	case UnknownContent:
		v.VisitUnknown(c)
	}
}

type textCollector struct {
	sb strings.Builder
}

func (t *textCollector) VisitText(c TextContent)               { t.sb.WriteString(c.Text) }
func (t *textCollector) VisitStartSession(StartSessionContent) {}
func (t *textCollector) VisitEndSession(EndSessionContent)     {}
func (t *textCollector) VisitMetadata(MetadataContent)         {}
func (t *textCollector) VisitUnknown(UnknownContent)           {}

// JoinText concatenates the text items of items, without separators.
func JoinText(items []Content) string {
	var c textCollector
	for _, item := range items {
		VisitContent(item, &c)
	}
	return c.sb.String()
}

type wireContent struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ContentList is a JSON-tagged list of Content items.
type ContentList []Content

// MarshalJSON implements json.Marshaler.
func (l ContentList) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(l))
	for _, item := range l {
		var (
			raw []byte
			err error
		)
		switch c := item.(type) {
		case TextContent:
			raw, err = json.Marshal(wireContent{Type: ContentTypeText, Text: c.Text})
		case MetadataContent:
			raw, err = json.Marshal(wireContent{Type: ContentTypeMetadata, Metadata: c.Metadata})
		case UnknownContent:
			if len(c.Raw) > 0 {
				raw = c.Raw
			} else {
				raw, err = json.Marshal(wireContent{Type: c.Type})
			}
		case nil:
			return nil, fmt.Errorf("nil content item")
		default:
			raw, err = json.Marshal(wireContent{Type: c.contentType()})
		}
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *ContentList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	items := make(ContentList, 0, len(raws))
	for _, raw := range raws {
		var w wireContent
		if err := json.Unmarshal(raw, &w); err != nil {
			return fmt.Errorf("decode content item: %w", err)
		}
		switch w.Type {
		case ContentTypeText:
			items = append(items, TextContent{Text: w.Text})
		case ContentTypeStartSession:
			items = append(items, StartSessionContent{})
		case ContentTypeEndSession:
			items = append(items, EndSessionContent{})
		case ContentTypeMetadata:
			items = append(items, MetadataContent{Metadata: w.Metadata})
		default:
			items = append(items, UnknownContent{Type: w.Type, Raw: append(json.RawMessage(nil), raw...)})
		}
	}
	*l = items
	return nil
}

// ChatMessage is a chat-protocol message.
type ChatMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	MsgID     string      `json:"msg_id"`
	Content   ContentList `json:"content"`
}

// ChatAcknowledgement confirms receipt of a ChatMessage.
type ChatAcknowledgement struct {
	Timestamp         time.Time `json:"timestamp"`
	AcknowledgedMsgID string    `json:"acknowledged_msg_id"`
}

// NewChatMessage builds a message with a fresh ID.
func NewChatMessage(items ...Content) ChatMessage {
	return ChatMessage{
		Timestamp: time.Now().UTC(),
		MsgID:     uuid.New().String(),
		Content:   items,
	}
}
