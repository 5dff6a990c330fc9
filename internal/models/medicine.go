package models

// NotAvailable is the sentinel for medicine fields missing upstream.
const NotAvailable = "N/A"

// MedicineRecord is the purchase-relevant projection of one drug label.
type MedicineRecord struct {
	BrandName    string `json:"brand_name"`
	GenericName  string `json:"generic_name"`
	Manufacturer string `json:"manufacturer"`
	ProductNDC   string `json:"product_ndc"`
}

// NewMedicineRecord returns a record with every field set to NotAvailable.
func NewMedicineRecord() MedicineRecord {
	return MedicineRecord{
		BrandName:    NotAvailable,
		GenericName:  NotAvailable,
		Manufacturer: NotAvailable,
		ProductNDC:   NotAvailable,
	}
}

// RecommendationRequest asks the recommendation agent about a condition or question.
type RecommendationRequest struct {
	Question string `json:"question"`
}

// RecommendationResult is the recommendation agent's answer and its candidate medicines.
type RecommendationResult struct {
	Answer    string           `json:"answer"`
	Medicines []MedicineRecord `json:"medicines"`
}
