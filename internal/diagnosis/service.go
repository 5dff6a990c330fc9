// Package diagnosis orchestrates retrieval, LLM summarization and the cross-agent medicine
// recommendation for a symptom report.
package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/medtriage/internal/extract"
	"github.com/hyperjump/medtriage/internal/llm"
	"github.com/hyperjump/medtriage/internal/metrics"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/internal/prompts"
	"go.uber.org/zap"
)

// DefaultTopK is the number of disease documents retrieved per report.
const DefaultTopK = 5

// Fixed user-facing results.
const (
	NoMatchTitle              = "No Matching Conditions Found"
	NoMatchDiagnosis          = "We could not find any conditions matching the symptoms you described. Please add more detail or consult a healthcare professional."
	DefaultTitle              = "Diagnosis Result"
	LLMErrorDiagnosis         = "I'm sorry, I was unable to generate a diagnosis at the moment. Please try again later."
	ParseErrorDiagnosis       = "Error parsing the response from the LLM."
	RecommendationUnavailable = "Sorry, we were unable to get medicine recommendations at this time."
)

// Service runs the diagnosis flows.
type Service struct {
	retriever   Retriever
	llm         llm.Client
	recommender Recommender
	topK        int
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records requests, fallbacks and LLM outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTopK sets the number of documents retrieved; values <= 0 keep DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithRecommendationTimeout bounds the recommendation round trip; 0 disables the bound.
func WithRecommendationTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a diagnosis service. recommender may be nil, in which case every result
// carries RecommendationUnavailable.
func NewService(retriever Retriever, client llm.Client, recommender Recommender, opts ...Option) *Service {
	s := &Service{
		retriever:   retriever,
		llm:         client,
		recommender: recommender,
		topK:        DefaultTopK,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query formats the report's symptom names as the retrieval query.
func Query(report *models.SymptomReport) string {
	return strings.Join(report.SymptomNames(), ", ")
}

// FromSymptoms diagnoses a structured report. It never returns an error: backend failures are
// converted to fixed sentences in the result.
func (s *Service) FromSymptoms(ctx context.Context, report *models.SymptomReport) *models.DiagnosisResult {
	s.metrics.Request("from_symptoms")
	query := Query(report)

	docs, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		s.logger.Error("error fetching documents", zap.String("query", query), zap.Error(err))
		docs = nil
	}
	s.metrics.Retrieved(len(docs))
	if len(docs) == 0 {
		s.logger.Info("no matching conditions", zap.String("query", query))
		s.metrics.Fallback("no_match")
		return &models.DiagnosisResult{Title: NoMatchTitle, Diagnosis: NoMatchDiagnosis}
	}

	prompt, err := prompts.Diagnosis(report, docs)
	if err != nil {
		s.logger.Error("failed to build diagnosis prompt", zap.Error(err))
		s.metrics.Fallback("llm_error")
		return &models.DiagnosisResult{Title: DefaultTitle, Diagnosis: LLMErrorDiagnosis}
	}
	s.logger.Debug("diagnosis prompt", zap.String("prompt", prompt))
	narrative, err := s.llm.Generate(ctx, prompt)
	s.metrics.LLMCall(err)
	if err != nil {
		s.logger.Error("diagnosis generation failed", zap.Error(err))
		s.metrics.Fallback("llm_error")
		return &models.DiagnosisResult{Title: DefaultTitle, Diagnosis: LLMErrorDiagnosis}
	}

	return &models.DiagnosisResult{
		Title:          s.title(ctx, narrative),
		Diagnosis:      narrative,
		Recommendation: s.recommend(ctx, docs[0].Name),
	}
}

func (s *Service) title(ctx context.Context, narrative string) string {
	prompt, err := prompts.Title(narrative)
	if err != nil {
		return DefaultTitle
	}
	title, err := s.llm.Generate(ctx, prompt)
	s.metrics.LLMCall(err)
	if err != nil || strings.TrimSpace(title) == "" {
		s.logger.Warn("title generation failed", zap.Error(err))
		return DefaultTitle
	}
	return strings.TrimSpace(title)
}

func (s *Service) recommend(ctx context.Context, condition string) *models.RecommendationResult {
	if s.recommender == nil {
		return &models.RecommendationResult{Answer: RecommendationUnavailable}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := s.recommender.Recommend(ctx, condition)
	if err != nil {
		s.logger.Warn("unable to get medicine recommendations",
			zap.String("condition", condition),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		s.metrics.Fallback("recommendation")
		return &models.RecommendationResult{Answer: RecommendationUnavailable}
	}
	return res
}

// FromRaw structures free text and diagnoses it. Extraction failures yield ParseErrorDiagnosis.
func (s *Service) FromRaw(ctx context.Context, text string) *models.DiagnosisResult {
	s.metrics.Request("raw")
	report, err := extract.SymptomReport(ctx, s.llm, text)
	if err != nil {
		s.logger.Warn("error parsing JSON", zap.Error(err))
		s.metrics.Fallback("parse_error")
		return &models.DiagnosisResult{Title: DefaultTitle, Diagnosis: ParseErrorDiagnosis}
	}
	return s.FromSymptoms(ctx, report)
}

// Structure converts free text into a SymptomReport serialized as a JSON string.
// Errors are returned to the caller.
func (s *Service) Structure(ctx context.Context, text string) (*models.StructureResponse, error) {
	s.metrics.Request("structure")
	report, err := extract.SymptomReport(ctx, s.llm, text)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	return &models.StructureResponse{Structure: string(data)}, nil
}
