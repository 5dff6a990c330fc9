package prompts

import (
	"github.com/hyperjump/medtriage/internal/models"
)

// NoSuitableMedicine is the sentence the recommendation prompt requires when nothing matches.
const NoSuitableMedicine = "I'm sorry, but based on the provided documents, I cannot recommend a suitable medicine."

type diagnosisData struct {
	Description string
	Since       string
	Symptoms    []models.Symptom
	Documents   []models.DiagnosisDocument
}

// Diagnosis renders DiagnosisV1. Every document is included; nothing is truncated.
func Diagnosis(report *models.SymptomReport, docs []models.DiagnosisDocument) (string, error) {
	return DiagnosisV1.Render(diagnosisData{
		Description: report.Description,
		Since:       report.Since.String(),
		Symptoms:    report.Symptoms,
		Documents:   docs,
	})
}

// Title renders TitleV1.
func Title(narrative string) (string, error) {
	return TitleV1.Render(struct{ Narrative string }{narrative})
}

// Extraction renders ExtractionV1.
func Extraction(text string) (string, error) {
	return ExtractionV1.Render(struct{ Text string }{text})
}

type recommendationData struct {
	Context   string
	Medicines []models.MedicineRecord
	Question  string
	Fallback  string
}

// Recommendation renders RecommendationV1.
func Recommendation(context string, medicines []models.MedicineRecord, question string) (string, error) {
	return RecommendationV1.Render(recommendationData{
		Context:   context,
		Medicines: medicines,
		Question:  question,
		Fallback:  NoSuitableMedicine,
	})
}
