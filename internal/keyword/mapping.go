package keyword

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Disease index fields, named after the dataset columns.
const (
	DiseaseNameField       = "Name"
	DiseaseSymptomsField   = "Symptoms"
	DiseaseTreatmentsField = "Treatments"
)

// Drug-label index fields.
const (
	SearchableTextField   = "searchable_text"
	BrandNameField        = "brand_name"
	GenericNameField      = "generic_name"
	ManufacturerField     = "manufacturer_name"
	ProductNDCField       = "product_ndc"
	RouteField            = "route"
	ProductTypeField      = "product_type"
	SetIDField            = "set_id"
	OriginalDocumentField = "original_document"
)

// DiseaseFields are the stored fields loaded for disease hits.
var DiseaseFields = []string{DiseaseNameField, DiseaseSymptomsField, DiseaseTreatmentsField}

// MedicineFields are the stored fields loaded for drug-label hits. The original document is
// deliberately absent.
var MedicineFields = []string{
	SearchableTextField, BrandNameField, GenericNameField, ManufacturerField,
	ProductNDCField, RouteField, ProductTypeField, SetIDField,
}

// textField uses the standard analyzer (lowercase + tokenize, no stemming).
func textField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = standard.Name
	return fm
}

func keywordField() *mapping.FieldMapping {
	fm := bleve.NewKeywordFieldMapping()
	fm.Analyzer = keyword.Name
	return fm
}

// storedOnlyField is kept in the index but never searched.
func storedOnlyField() *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Index = false
	fm.Store = true
	fm.IncludeInAll = false
	fm.IncludeTermVectors = false
	fm.DocValues = false
	return fm
}

// DiseaseMapping returns the mapping for the disease/symptom corpus.
func DiseaseMapping() *mapping.IndexMappingImpl {
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(DiseaseNameField, textField())
	doc.AddFieldMappingsAt(DiseaseSymptomsField, textField())
	doc.AddFieldMappingsAt(DiseaseTreatmentsField, textField())
	return newIndexMapping("disease", doc)
}

// MedicineMapping returns the mapping for the drug-label corpus. Only searchable_text and the
// names are analyzed; identifiers are exact-match keywords and the original record is stored only.
func MedicineMapping() *mapping.IndexMappingImpl {
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(SearchableTextField, textField())
	doc.AddFieldMappingsAt(BrandNameField, textField())
	doc.AddFieldMappingsAt(GenericNameField, textField())
	doc.AddFieldMappingsAt(ManufacturerField, keywordField())
	doc.AddFieldMappingsAt(ProductNDCField, keywordField())
	doc.AddFieldMappingsAt(RouteField, keywordField())
	doc.AddFieldMappingsAt(ProductTypeField, keywordField())
	doc.AddFieldMappingsAt(SetIDField, keywordField())
	doc.AddFieldMappingsAt(OriginalDocumentField, storedOnlyField())
	return newIndexMapping("label", doc)
}

func newIndexMapping(typeName string, doc *mapping.DocumentMapping) *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.AddDocumentMapping(typeName, doc)
	im.DefaultType = typeName
	im.DefaultMapping = doc // so _default type also uses the explicit fields
	im.DefaultAnalyzer = standard.Name
	return im
}
