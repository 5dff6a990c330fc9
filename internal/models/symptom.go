// Package models defines the request-scoped data structures exchanged between the triage agents.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used for symptom onset dates.
const DateLayout = "2006-01-02"

// Suggested severities. Severity is an open string; these are the values the prompts ask for.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
	SeveritySevere   = "severe"
)

// Severities lists the suggested severities from mildest to most severe.
var Severities = []string{SeverityMild, SeverityModerate, SeverityHigh, SeveritySevere}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Only YYYY-MM-DD strings are accepted.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Symptom is one reported symptom.
type Symptom struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
}

// SymptomReport is the structured patient input for a diagnosis.
type SymptomReport struct {
	Description string    `json:"description"`
	Symptoms    []Symptom `json:"symptoms"`
	Since       Date      `json:"since"`
}

// Validate checks that the report names at least one symptom and carries an onset date.
func (r *SymptomReport) Validate() error {
	if len(r.SymptomNames()) == 0 {
		return errors.New("at least one named symptom is required")
	}
	if r.Since.IsZero() {
		return errors.New("since is required")
	}
	return nil
}

// SymptomNames returns the non-empty symptom names in order.
func (r *SymptomReport) SymptomNames() []string {
	names := make([]string, 0, len(r.Symptoms))
	for _, s := range r.Symptoms {
		if name := strings.TrimSpace(s.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
