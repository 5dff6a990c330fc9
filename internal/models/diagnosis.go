package models

// DiagnosisDocument is one disease record materialized from a search hit.
type DiagnosisDocument struct {
	Name                string   `json:"name"`
	Symptoms            []string `json:"symptoms"`
	Treatments          []string `json:"treatments"`
	SymptomsFormatted   string   `json:"symptoms_formatted"`
	TreatmentsFormatted string   `json:"treatments_formatted"`
}

// DiagnosisResult is the response of the diagnosis flow.
type DiagnosisResult struct {
	Title          string                `json:"title"`
	Diagnosis      string                `json:"diagnosis"`
	Recommendation *RecommendationResult `json:"recommendation_agent_response,omitempty"`
}

// RawRequest carries free-text symptom input.
type RawRequest struct {
	Text string `json:"text"`
}

// StructureResponse wraps a structured SymptomReport serialized as a JSON string.
type StructureResponse struct {
	Structure string `json:"structure"`
}
