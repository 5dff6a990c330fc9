package prompts

import (
	"strings"
	"testing"

	"github.com/hyperjump/medtriage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosis_Layout(t *testing.T) {
	report := &models.SymptomReport{
		Description: "seafood illness",
		Symptoms: []models.Symptom{
			{Name: "fever", Severity: "high"},
			{Name: "nausea", Severity: "mild"},
		},
		Since: models.NewDate(2025, 8, 10),
	}
	docs := []models.DiagnosisDocument{
		{Name: "Food poisoning", SymptomsFormatted: "fever, nausea, vomiting"},
		{Name: "Influenza", SymptomsFormatted: "fever, cough"},
	}

	got, err := Diagnosis(report, docs)
	require.NoError(t, err)

	want := "Description: seafood illness\n\n" +
		"Since: 2025-08-10\n" +
		"Symptoms:\n" +
		"- fever - high\n" +
		"- nausea - mild\n" +
		"\n" +
		"Information that have been gathered from our dataset\n" +
		"Disease: Food poisoning\nSymptoms: fever, nausea, vomiting\n\n" +
		"Disease: Influenza\nSymptoms: fever, cough\n\n"
	assert.Equal(t, want, got)
}

func TestDiagnosis_Deterministic(t *testing.T) {
	report := &models.SymptomReport{Symptoms: []models.Symptom{{Name: "cough"}}, Since: models.NewDate(2024, 1, 2)}
	a, err := Diagnosis(report, nil)
	require.NoError(t, err)
	b, err := Diagnosis(report, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasSuffix(a, "Information that have been gathered from our dataset\n"))
}

func TestTitleAndExtraction(t *testing.T) {
	title, err := Title("You likely have a cold.")
	require.NoError(t, err)
	assert.Equal(t, "Can you make me a title from the sentence below\nYou likely have a cold.", title)

	extraction, err := Extraction("I have had a fever since Monday")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(extraction, "I have had a fever since Monday\ncan you format the following information in JSON format:\n"))
	assert.Contains(t, extraction, "YYYY-MM-DD")
	assert.Equal(t, []string{"symptoms", "since"}, ExtractionV1.RequiredKeys)
}

func TestRecommendation(t *testing.T) {
	meds := []models.MedicineRecord{
		{BrandName: "Painaway", GenericName: "acetaminophen", Manufacturer: "Acme"},
		models.NewMedicineRecord(),
	}
	got, err := Recommendation("Brand Name: Painaway\nText: relieves pain", meds, "Migraine")
	require.NoError(t, err)

	assert.Contains(t, got, "**List of Medicines:**\nMedicine 1: Painaway (acetaminophen) - Manufacturer: Acme\nMedicine 2: N/A (N/A) - Manufacturer: N/A\n\n**Instructions:**")
	assert.Contains(t, got, "**Context Documents:**\nBrand Name: Painaway\nText: relieves pain\n")
	assert.Contains(t, got, "**User's Question:**\nMigraine\n")
	assert.Contains(t, got, `you MUST respond with "`+NoSuitableMedicine+`" Do not use outside knowledge.`)
	assert.Contains(t, got, "**Recommended Medication:** [Drug's Brand Name]")
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"diagnosis/v1", "extraction/v1", "recommendation/v1", "title/v1"}, IDs())
	tmpl, ok := Lookup("title/v1")
	require.True(t, ok)
	assert.Same(t, TitleV1, tmpl)
	_, ok = Lookup("title/v9")
	assert.False(t, ok)
}

func TestRender_MissingField(t *testing.T) {
	_, err := TitleV1.Render(map[string]string{})
	assert.Error(t, err)
}
