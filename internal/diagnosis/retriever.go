package diagnosis

import (
	"context"

	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/pkg/utils"
)

// Retriever returns the disease documents best matching a symptom query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]models.DiagnosisDocument, error)
}

// IndexRetriever matches the query against the Symptoms field of the disease index.
type IndexRetriever struct {
	searcher keyword.Searcher
}

// NewIndexRetriever creates a retriever over searcher.
func NewIndexRetriever(searcher keyword.Searcher) *IndexRetriever {
	return &IndexRetriever{searcher: searcher}
}

// Retrieve implements Retriever. Documents keep the backend's relevance order.
func (r *IndexRetriever) Retrieve(ctx context.Context, query string, limit int) ([]models.DiagnosisDocument, error) {
	hits, err := r.searcher.Search(ctx, keyword.DiseaseSymptomsField, query, limit, keyword.DiseaseFields...)
	if err != nil {
		return nil, err
	}
	docs := make([]models.DiagnosisDocument, 0, len(hits))
	for _, hit := range hits {
		symptoms := hit.String(keyword.DiseaseSymptomsField)
		treatments := hit.String(keyword.DiseaseTreatmentsField)
		docs = append(docs, models.DiagnosisDocument{
			Name:                hit.String(keyword.DiseaseNameField),
			Symptoms:            utils.SplitList(symptoms),
			Treatments:          utils.SplitList(treatments),
			SymptomsFormatted:   symptoms,
			TreatmentsFormatted: treatments,
		})
	}
	return docs, nil
}
