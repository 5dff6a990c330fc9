package recommendation

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/medtriage/internal/agent"
	"github.com/hyperjump/medtriage/internal/models"
	"go.uber.org/zap"
)

// RegisterHandlers installs the recommendation request handler on d. Failures are returned to
// the caller as errors; the diagnosis side turns them into its own fallback text. An empty
// question is a bad request.
func (s *Service) RegisterHandlers(d *agent.Dispatcher) {
	id := d.Identity()
	d.Handle(agent.SchemaRecommendationRequest, func(ctx context.Context, env *agent.Envelope) ([]*agent.Envelope, error) {
		var req models.RecommendationRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		s.logger.Info("received recommendation request", zap.String("sender", env.Sender), zap.String("question", req.Question))
		res, err := s.Recommend(ctx, req.Question)
		if errors.Is(err, ErrEmptyQuestion) {
			return nil, fmt.Errorf("%w: %w", agent.ErrBadRequest, err)
		}
		if err != nil {
			return nil, err
		}
		out, err := env.Reply(id, agent.SchemaRecommendationResponse, res)
		if err != nil {
			return nil, err
		}
		return []*agent.Envelope{out}, nil
	})
}

// ChatFlow answers chat messages with the recommendation text only.
func (s *Service) ChatFlow() agent.ChatFlow {
	return func(ctx context.Context, text string) (string, error) {
		res, err := s.Recommend(ctx, text)
		if err != nil {
			return "", err
		}
		return res.Answer, nil
	}
}
