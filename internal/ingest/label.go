package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// labelTextFields are the free-text label sections concatenated into searchable_text, in order.
var labelTextFields = []string{
	"indications_and_usage", "dosage_and_administration", "warnings",
	"active_ingredient", "inactive_ingredient", "purpose", "description",
	"adverse_reactions", "contraindications", "drug_interactions",
	"clinical_pharmacology", "boxed_warning", "stop_use", "do_not_use",
}

// LabelRecord is one raw openFDA drug-label result.
type LabelRecord map[string]interface{}

// Strings returns the string values stored under key. openFDA sections are arrays of strings;
// a bare string is returned as a single element.
func (r LabelRecord) Strings(key string) []string {
	return toStrings(r[key])
}

// OpenFDA returns the values of key inside the record's "openfda" object.
func (r LabelRecord) OpenFDA(key string) []string {
	sub, ok := r["openfda"].(map[string]interface{})
	if !ok {
		return nil
	}
	return toStrings(sub[key])
}

func toStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

type labelFile struct {
	Results []LabelRecord `json:"results"`
}

// LoadLabelFile reads an openFDA label export ({"results": [...]}).
func LoadLabelFile(path string) ([]LabelRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label file: %w", err)
	}
	var f labelFile
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("decode label file %s: %w", path, err)
	}
	return f.Results, nil
}

// ListLabelFiles returns the .json files directly inside dir, sorted by name so ingestion order
// (and therefore deduplication) is stable.
func ListLabelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read label dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsLabelFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsLabelFile reports whether name looks like a label export.
func IsLabelFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

// LabelDocument is the indexed projection of a LabelRecord.
type LabelDocument struct {
	SearchableText   string   `json:"searchable_text"`
	BrandName        []string `json:"brand_name"`
	GenericName      []string `json:"generic_name"`
	ManufacturerName []string `json:"manufacturer_name"`
	ProductNDC       []string `json:"product_ndc"`
	Route            []string `json:"route"`
	ProductType      []string `json:"product_type"`
	SetID            string   `json:"set_id"`
	OriginalDocument string   `json:"original_document"`
}

// BuildLabelDocument projects a raw record into an indexable document.
func BuildLabelDocument(r LabelRecord) (*LabelDocument, error) {
	var sections []string
	for _, field := range labelTextFields {
		sections = append(sections, r.Strings(field)...)
	}
	original, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode original document: %w", err)
	}
	setID, _ := r["set_id"].(string)
	return &LabelDocument{
		SearchableText:   strings.Join(sections, " "),
		BrandName:        r.OpenFDA("brand_name"),
		GenericName:      r.OpenFDA("generic_name"),
		ManufacturerName: r.OpenFDA("manufacturer_name"),
		ProductNDC:       r.OpenFDA("product_ndc"),
		Route:            r.OpenFDA("route"),
		ProductType:      r.OpenFDA("product_type"),
		SetID:            setID,
		OriginalDocument: string(original),
	}, nil
}
