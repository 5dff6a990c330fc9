package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/medtriage/internal/models"
)

func sampleDiagnosis() *models.DiagnosisResult {
	return &models.DiagnosisResult{
		Title:     "Food Poisoning Suspected",
		Diagnosis: "  Your symptoms match food poisoning.\n",
		Recommendation: &models.RecommendationResult{
			Answer: "Take oral rehydration salts.",
			Medicines: []models.MedicineRecord{
				{BrandName: "Pepto", GenericName: "bismuth", Manufacturer: "P&G", ProductNDC: "37000-032"},
				models.NewMedicineRecord(),
			},
		},
	}
}

func TestFormatDiagnosis(t *testing.T) {
	got := FormatDiagnosis(sampleDiagnosis())
	want := "Food Poisoning Suspected\n\nYour symptoms match food poisoning.\n\n" +
		"--- Medicine recommendation ---\n" +
		"Take oral rehydration salts.\n\nCandidates:\n" +
		"1. Pepto (bismuth) - P&G [NDC 37000-032]\n" +
		"2. N/A (N/A) - N/A [NDC N/A]\n"
	if got != want {
		t.Errorf("FormatDiagnosis:\n got %q\nwant %q", got, want)
	}

	noRec := FormatDiagnosis(&models.DiagnosisResult{Title: "T", Diagnosis: "D"})
	if noRec != "T\n\nD\n" {
		t.Errorf("without recommendation: got %q", noRec)
	}
}

func TestWriteDiagnosis_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDiagnosis(&buf, sampleDiagnosis(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded["title"] != "Food Poisoning Suspected" {
		t.Errorf("title: got %v", decoded["title"])
	}
	if _, ok := decoded["recommendation_agent_response"]; !ok {
		t.Error("expected recommendation_agent_response key")
	}
}

func TestWriteRecommendation(t *testing.T) {
	res := &models.RecommendationResult{Answer: "No suitable medicine."}
	var buf bytes.Buffer
	if err := WriteRecommendation(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No suitable medicine.\n" {
		t.Errorf("text: got %q", buf.String())
	}
	buf.Reset()
	if err := WriteRecommendation(&buf, res, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"answer": "No suitable medicine."`) {
		t.Errorf("json: got %s", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{" JSON ", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/diagnosis/raw":
			var req models.RawRequest
			_ = json.Unmarshal(body, &req)
			_ = json.NewEncoder(w).Encode(models.DiagnosisResult{Title: "T", Diagnosis: "for " + req.Text})
		case "/diagnosis/from-symptoms":
			var report models.SymptomReport
			_ = json.Unmarshal(body, &report)
			_ = json.NewEncoder(w).Encode(models.DiagnosisResult{Title: report.Since.String()})
		case "/diagnosis/get_structure":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"error":"malformed LLM output"}`)
		case "/recommendation":
			_ = json.NewEncoder(w).Encode(models.RecommendationResult{Answer: "ok"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	ctx := context.Background()

	res, err := c.DiagnoseRaw(ctx, "fever")
	if err != nil {
		t.Fatal(err)
	}
	if res.Diagnosis != "for fever" {
		t.Errorf("raw: got %q", res.Diagnosis)
	}

	res, err = c.Diagnose(ctx, &models.SymptomReport{
		Symptoms: []models.Symptom{{Name: "fever"}},
		Since:    models.NewDate(2025, 8, 10),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "2025-08-10" {
		t.Errorf("from-symptoms: got %q", res.Title)
	}

	rec, err := c.Recommend(ctx, "headache")
	if err != nil || rec.Answer != "ok" {
		t.Errorf("recommend: %v %+v", err, rec)
	}

	_, err = c.Structure(ctx, "text")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message != "malformed LLM output" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}
