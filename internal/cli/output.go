// Package cli provides output formatting and a REST client for the medtriage commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/medtriage/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text", "json" or "" (text).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteDiagnosis writes res to w in the given format.
func WriteDiagnosis(w io.Writer, res *models.DiagnosisResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	_, err := io.WriteString(w, FormatDiagnosis(res))
	return err
}

// WriteRecommendation writes res to w in the given format.
func WriteRecommendation(w io.Writer, res *models.RecommendationResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	_, err := io.WriteString(w, FormatRecommendation(res))
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatDiagnosis renders a diagnosis as plain text. It is also the chat reply of the diagnosis agent.
func FormatDiagnosis(res *models.DiagnosisResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n%s\n", res.Title, strings.TrimSpace(res.Diagnosis))
	if res.Recommendation != nil {
		sb.WriteString("\n--- Medicine recommendation ---\n")
		sb.WriteString(FormatRecommendation(res.Recommendation))
	}
	return sb.String()
}

// FormatRecommendation renders the answer followed by the candidate medicines considered.
func FormatRecommendation(res *models.RecommendationResult) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(res.Answer))
	sb.WriteString("\n")
	if len(res.Medicines) > 0 {
		sb.WriteString("\nCandidates:\n")
		for i, m := range res.Medicines {
			fmt.Fprintf(&sb, "%d. %s (%s) - %s [NDC %s]\n", i+1, m.BrandName, m.GenericName, m.Manufacturer, m.ProductNDC)
		}
	}
	return sb.String()
}
