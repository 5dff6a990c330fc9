package prompts

// DiagnosisV1 combines the patient's report with the retrieved disease documents.
var DiagnosisV1 = register("diagnosis", "v1", `Description: {{.Description}}

Since: {{.Since}}
Symptoms:
{{range .Symptoms}}- {{.Name}} - {{.Severity}}
{{end}}
Information that have been gathered from our dataset
{{range .Documents}}Disease: {{.Name}}
Symptoms: {{.SymptomsFormatted}}

{{end}}`)

// TitleV1 asks for a short title summarizing a diagnosis narrative.
var TitleV1 = register("title", "v1", `Can you make me a title from the sentence below
{{.Narrative}}`)

// ExtractionV1 asks the model to structure free text as a symptom report.
var ExtractionV1 = register("extraction", "v1", `{{.Text}}
can you format the following information in JSON format:
{
    "description": "",
    "symptoms": [
        {"name": "", "severity": ""},
        {"name": "", "severity": ""},
        {"name": "", "severity": ""}
    ],
    "since": ""
 //please provide the date in YYYY-MM-DD format
}
`, "symptoms", "since")

// RecommendationV1 restricts the model to the retrieved label documents and fixes the reply layout.
var RecommendationV1 = register("recommendation", "v1", `You are a medical assistant. Your task is to analyze the following drug information documents and follow the instructions below.

**List of Medicines:**
{{range $i, $m := .Medicines}}{{if $i}}
{{end}}Medicine {{inc $i}}: {{$m.BrandName}} ({{$m.GenericName}}) - Manufacturer: {{$m.Manufacturer}}{{end}}

**Instructions:**
1. Analyze the user's query to understand their illness and symptoms.
2. Carefully read the provided context documents.
3. Prescribe a suitable medicine from the available medicines that addresses the user's needs.
4. Present the prescription in the EXACT format specified below.
5. If multiple drugs from the context are suitable, list the best one first and briefly mention the others as alternatives.
6. If no document in the context is a suitable match for the user's query, you MUST respond with "{{.Fallback}}" Do not use outside knowledge.

---

**Context Documents:**
{{.Context}}

---

**User's Question:**
{{.Question}}

---

**Output Format:**
Follow this EXACT format with proper formatting:

**Recommended Medication:** [Drug's Brand Name]

**Medical Name:** [Generic Name]

**Manufacturer:** [Manufacturer Name]

**Active Ingredients:** [List of ingredients separated by commas]

**Route of Administration:** [Oral, Topical, Injection, etc.]

**Primary Use:** [Brief description]

**Important Warnings:**
- [Warning 1]
- [Warning 2]

**Contraindications:**
- [Contraindication 1]
- [Contraindication 2]

**Dosage and Administration:**
- [Instruction 1]
- [Instruction 2]

**Alternative Options:**
- [Brand Name] - [Brief indication]
- [Brand Name] - [Brief indication]

**Formatting Guidelines:**
- Use proper sentence case, not ALL CAPS
- Always use bullet points when listing multiple items (warnings, contraindications, dosage steps, alternatives), except for ingredients
- If a section has no content, completely omit that section from the output`)
