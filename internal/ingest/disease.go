// Package ingest loads the disease dataset and openFDA drug labels into their search indices.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DiseaseRecord is one row of the disease/symptom dataset. Symptoms and Treatments are the
// original comma-separated strings; they are split at query time.
type DiseaseRecord struct {
	Name       string `json:"Name"`
	Symptoms   string `json:"Symptoms"`
	Treatments string `json:"Treatments"`
}

// LoadDiseaseDataset reads the dataset at path. Supported formats are .csv, .xlsx and .json
// (an array of objects). Tabular files must have a header row with Name and Symptoms columns;
// Treatments is optional. Rows without a name are skipped.
func LoadDiseaseDataset(path string) ([]DiseaseRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var records []DiseaseRecord
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = diseaseFromCSV(content)
	case ".xlsx":
		records, err = diseaseFromExcel(content)
	case ".json":
		records, err = diseaseFromJSON(content)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return records, nil
}

func diseaseFromCSV(content []byte) ([]DiseaseRecord, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return diseaseFromRows(rows)
}

func diseaseFromExcel(content []byte) ([]DiseaseRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return diseaseFromRows(rows)
}

func diseaseFromJSON(content []byte) ([]DiseaseRecord, error) {
	var raw []DiseaseRecord
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	records := raw[:0]
	for _, rec := range raw {
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func diseaseFromRows(rows [][]string) ([]DiseaseRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameCol, ok := cols["name"]
	if !ok {
		return nil, fmt.Errorf("missing Name column")
	}
	symptomsCol, ok := cols["symptoms"]
	if !ok {
		return nil, fmt.Errorf("missing Symptoms column")
	}
	treatmentsCol, hasTreatments := cols["treatments"]

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	records := make([]DiseaseRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cell(row, nameCol)
		if name == "" {
			continue
		}
		rec := DiseaseRecord{Name: name, Symptoms: cell(row, symptomsCol)}
		if hasTreatments {
			rec.Treatments = cell(row, treatmentsCol)
		}
		records = append(records, rec)
	}
	return records, nil
}
