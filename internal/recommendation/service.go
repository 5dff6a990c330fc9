// Package recommendation retrieves drug labels for a condition and asks the LLM for a recommendation.
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/hyperjump/medtriage/internal/llm"
	"github.com/hyperjump/medtriage/internal/metrics"
	"github.com/hyperjump/medtriage/internal/models"
	"github.com/hyperjump/medtriage/internal/prompts"
	"go.uber.org/zap"
)

// DefaultTopN is the number of label documents retrieved per question.
const DefaultTopN = 4

// ErrEmptyQuestion is returned for an empty or whitespace-only question.
var ErrEmptyQuestion = errors.New("question is empty")

// Service answers recommendation requests.
type Service struct {
	searcher     keyword.Searcher
	llm          llm.Client
	topN         int
	contextChars int
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records retrieval sizes and LLM outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTopN sets the number of documents retrieved; values <= 0 keep DefaultTopN.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithContextChars caps each document's label text in the prompt; 0 means no cap.
func WithContextChars(n int) Option {
	return func(s *Service) { s.contextChars = n }
}

// NewService creates a recommendation service over the drug-label index.
func NewService(searcher keyword.Searcher, client llm.Client, opts ...Option) *Service {
	s := &Service{
		searcher: searcher,
		llm:      client,
		topN:     DefaultTopN,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Candidates returns up to topN label hits for question. Search errors are logged and yield no hits.
func (s *Service) Candidates(ctx context.Context, question string) []*keyword.Hit {
	hits, err := s.searcher.Search(ctx, keyword.SearchableTextField, question, s.topN, keyword.MedicineFields...)
	if err != nil {
		s.logger.Error("error when searching", zap.String("question", question), zap.Error(err))
		hits = nil
	}
	s.metrics.Retrieved(len(hits))
	return hits
}

// Recommend retrieves candidate labels for question and asks the LLM for a recommendation
// restricted to them. LLM errors are returned; the caller decides the fallback.
func (s *Service) Recommend(ctx context.Context, question string) (*models.RecommendationResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	s.metrics.Request("recommendation")

	hits := s.Candidates(ctx, question)
	medicines := ExtractMedicines(hits)
	prompt, err := prompts.Recommendation(BuildContext(hits, s.contextChars), medicines, question)
	if err != nil {
		return nil, err
	}

	answer, err := s.llm.Generate(ctx, prompt)
	s.metrics.LLMCall(err)
	if err != nil {
		return nil, fmt.Errorf("generate recommendation: %w", err)
	}
	s.logger.Info("recommendation generated",
		zap.String("question", question),
		zap.Int("candidates", len(hits)),
	)
	return &models.RecommendationResult{Answer: answer, Medicines: medicines}, nil
}
