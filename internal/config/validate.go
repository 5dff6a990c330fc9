package config

import (
	"fmt"
	"strings"
)

type requirement struct {
	name  string
	value string
}

func check(reqs ...requirement) error {
	var missing []string
	for _, r := range reqs {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

func llmKeyName(l *LLMConfig) string {
	if strings.EqualFold(strings.TrimSpace(l.Provider), "anthropic") {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// ValidateDiagnosis checks the settings the diagnosis agent needs before serving. Index paths
// always have defaults and are not checked.
func ValidateDiagnosis(cfg *Config) error {
	return check(
		requirement{llmKeyName(&cfg.LLM), cfg.LLM.Key()},
		requirement{"SEED_SECRET", cfg.Agent.SeedSecret},
		requirement{"AGENT_ADDRESS", cfg.Agent.Address},
		requirement{"RECOMMENDATION_AGENT_ADDRESS", cfg.Agent.RecommendationAddress},
		requirement{"RECOMMENDATION_AGENT_ENDPOINT", cfg.Agent.RecommendationEndpoint},
	)
}

// ValidateRecommendation checks the settings the recommendation agent needs before serving.
func ValidateRecommendation(cfg *Config) error {
	return check(
		requirement{llmKeyName(&cfg.LLM), cfg.LLM.Key()},
		requirement{"SEED_VALUE", cfg.Agent.SeedValue},
	)
}

// ValidateHistory checks the settings the history agent needs before serving.
func ValidateHistory(cfg *Config) error {
	return check(
		requirement{"ASI1_API_KEY", cfg.History.APIKey},
		requirement{"ASI1_BASE_URL", cfg.History.BaseURL},
		requirement{"BASE_URL", cfg.History.BackendURL},
		requirement{"HISTORY_CANISTER_ID", cfg.History.HistoryCanisterID},
		requirement{"USER_CANISTER_ID", cfg.History.UserCanisterID},
	)
}
