package config

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with any non-empty environment values.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	set(&cfg.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	set(&cfg.LLM.Model, "MODEL_NAME")
	set(&cfg.LLM.Provider, "LLM_PROVIDER")
	set(&cfg.Storage.MedicalIndex, "MEDICAL_INDEX")
	set(&cfg.Storage.OpenFDAIndex, "OPENFDA_INDEX")
	set(&cfg.Agent.SeedSecret, "SEED_SECRET")
	set(&cfg.Agent.SeedValue, "SEED_VALUE")
	set(&cfg.Agent.Address, "AGENT_ADDRESS")
	set(&cfg.Agent.RecommendationAddress, "RECOMMENDATION_AGENT_ADDRESS")
	set(&cfg.Agent.RecommendationEndpoint, "RECOMMENDATION_AGENT_ENDPOINT")
	set(&cfg.History.APIKey, "ASI1_API_KEY")
	set(&cfg.History.BaseURL, "ASI1_BASE_URL")
	set(&cfg.History.BackendURL, "BASE_URL")
	set(&cfg.History.HistoryCanisterID, "HISTORY_CANISTER_ID")
	set(&cfg.History.UserCanisterID, "USER_CANISTER_ID")
}
