package agent

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EnvelopeVersion is the only envelope version accepted.
const EnvelopeVersion = 1

// Schema identifies the payload type carried by an Envelope.
type Schema string

const (
	SchemaChatMessage            Schema = "chat.message"
	SchemaChatAck                Schema = "chat.ack"
	SchemaDiagnosisFromSymptoms  Schema = "diagnosis.from_symptoms"
	SchemaDiagnosisRaw           Schema = "diagnosis.raw"
	SchemaDiagnosisResponse      Schema = "diagnosis.response"
	SchemaRecommendationRequest  Schema = "recommendation.request"
	SchemaRecommendationResponse Schema = "recommendation.response"
)

// Envelope is the unit exchanged on POST /submit.
type Envelope struct {
	Version int             `json:"version"`
	Sender  string          `json:"sender"`
	Target  string          `json:"target"`
	Session string          `json:"session"`
	Schema  Schema          `json:"schema"`
	ReplyTo string          `json:"reply_to,omitempty"` // endpoint to push replies to; empty means reply in the response body
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload into a new envelope from sender to target in a fresh session.
func NewEnvelope(sender Identity, target string, schema Schema, payload interface{}) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", schema, err)
	}
	return &Envelope{
		Version: EnvelopeVersion,
		Sender:  sender.Address,
		Target:  target,
		Session: uuid.New().String(),
		Schema:  schema,
		Payload: raw,
	}, nil
}

// Reply builds a response to e from responder, in the same session.
func (e *Envelope) Reply(responder Identity, schema Schema, payload interface{}) (*Envelope, error) {
	reply, err := NewEnvelope(responder, e.Sender, schema, payload)
	if err != nil {
		return nil, err
	}
	reply.Session = e.Session
	return reply, nil
}

// Decode unmarshals the payload into v. Failures wrap ErrBadRequest.
func (e *Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: decode %s payload: %w", ErrBadRequest, e.Schema, err)
	}
	return nil
}

// SubmitResponse is the body returned by POST /submit.
type SubmitResponse struct {
	Replies []*Envelope `json:"replies"`
}
