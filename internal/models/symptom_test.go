package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_JSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-08-10"`), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.August || d.Day() != 10 {
		t.Errorf("got %v", d)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"2025-08-10"` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestDate_RejectsNonISO(t *testing.T) {
	tests := []string{`"august 10"`, `"10/08/2025"`, `"2025-13-01"`, `20250810`, `""`}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			var d Date
			if err := json.Unmarshal([]byte(in), &d); err == nil {
				t.Errorf("expected error for %s", in)
			}
		})
	}
}

func TestSymptomReport_Validate(t *testing.T) {
	tests := []struct {
		name    string
		report  SymptomReport
		wantErr bool
	}{
		{"valid", SymptomReport{Symptoms: []Symptom{{Name: "fever"}}, Since: NewDate(2025, 8, 10)}, false},
		{"no symptoms", SymptomReport{Since: NewDate(2025, 8, 10)}, true},
		{"blank symptom names", SymptomReport{Symptoms: []Symptom{{Name: "  "}}, Since: NewDate(2025, 8, 10)}, true},
		{"no date", SymptomReport{Symptoms: []Symptom{{Name: "fever"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.report.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSymptomReport_SymptomNames(t *testing.T) {
	r := SymptomReport{Symptoms: []Symptom{{Name: " headache "}, {Name: ""}, {Name: "fever"}}}
	names := r.SymptomNames()
	if len(names) != 2 || names[0] != "headache" || names[1] != "fever" {
		t.Errorf("SymptomNames() = %v", names)
	}
}
