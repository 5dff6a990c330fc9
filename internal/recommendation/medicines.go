package recommendation

import (
	"fmt"
	"strings"

	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/pkg/utils"
)

// ExtractMedicines maps label hits to medicine records, taking the first value of each field.
// Missing or empty values become models.NotAvailable.
func ExtractMedicines(hits []*keyword.Hit) []models.MedicineRecord {
	medicines := make([]models.MedicineRecord, 0, len(hits))
	for _, hit := range hits {
		medicines = append(medicines, models.MedicineRecord{
			BrandName:    first(hit, keyword.BrandNameField),
			GenericName:  first(hit, keyword.GenericNameField),
			Manufacturer: first(hit, keyword.ManufacturerField),
			ProductNDC:   first(hit, keyword.ProductNDCField),
		})
	}
	return medicines
}

func first(hit *keyword.Hit, field string) string {
	values := hit.Strings(field)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return models.NotAvailable
	}
	return values[0]
}

// BuildContext renders the hits as the context documents of the recommendation prompt, one block
// per hit separated by a blank line. maxChars caps each document's label text; 0 means no cap.
func BuildContext(hits []*keyword.Hit, maxChars int) string {
	blocks := make([]string, 0, len(hits))
	for i, hit := range hits {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Document %d\n", i+1)
		for _, f := range []struct{ label, field string }{
			{"Brand Name", keyword.BrandNameField},
			{"Generic Name", keyword.GenericNameField},
			{"Manufacturer", keyword.ManufacturerField},
			{"Route", keyword.RouteField},
			{"Product Type", keyword.ProductTypeField},
		} {
			if v := hit.String(f.field); v != "" {
				fmt.Fprintf(&sb, "%s: %s\n", f.label, v)
			}
		}
		fmt.Fprintf(&sb, "Label: %s", utils.Truncate(hit.String(keyword.SearchableTextField), maxChars))
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n\n")
}
