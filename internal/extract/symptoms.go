package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/medtriage/internal/llm"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/internal/prompts"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only text; no LLM call is made.
	ErrEmptyInput = errors.New("input text is empty")
	// ErrMalformedOutput is returned when the model reply is not the expected JSON.
	ErrMalformedOutput = errors.New("malformed LLM output")
	// ErrMissingField is returned when the reply lacks a required key or value.
	ErrMissingField = errors.New("missing field in LLM output")
)

// SymptomReport asks client to structure free text as a SymptomReport. It is attempted once.
func SymptomReport(ctx context.Context, client llm.Client, text string) (*models.SymptomReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	prompt, err := prompts.Extraction(text)
	if err != nil {
		return nil, err
	}
	raw, err := client.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract symptoms: %w", err)
	}
	return ParseSymptomReport(raw)
}

// ParseSymptomReport decodes a (possibly fenced) model reply into a validated SymptomReport.
func ParseSymptomReport(raw string) (*models.SymptomReport, error) {
	cleaned := StripCodeFence(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	for _, key := range prompts.ExtractionV1.RequiredKeys {
		v, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	var report models.SymptomReport
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingField, err)
	}
	return &report, nil
}
