package diagnosis

import (
	"context"

	"github.com/hyperjump/medtriage/internal/agent"
	"github.com/hyperjump/medtriage/internal/models"
)

// Recommender returns medicine recommendations for a condition.
// *recommendation.Service satisfies it directly for in-process use.
type Recommender interface {
	Recommend(ctx context.Context, condition string) (*models.RecommendationResult, error)
}

// AgentRecommender asks the recommendation agent over the agent envelope protocol.
type AgentRecommender struct {
	client  *agent.Client
	address string
}

// NewAgentRecommender creates a recommender targeting the agent at address.
func NewAgentRecommender(client *agent.Client, address string) *AgentRecommender {
	return &AgentRecommender{client: client, address: address}
}

// Recommend implements Recommender.
func (a *AgentRecommender) Recommend(ctx context.Context, condition string) (*models.RecommendationResult, error) {
	var res models.RecommendationResult
	err := a.client.Ask(ctx, a.address, agent.SchemaRecommendationRequest,
		models.RecommendationRequest{Question: condition}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
