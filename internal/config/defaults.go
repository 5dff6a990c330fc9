package config

import (
	"strings"
	"time"
)

// DefaultRecommendationTimeout bounds the diagnosis agent's wait for a recommendation reply.
const DefaultRecommendationTimeout = 60 * time.Second

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.DiagnosisPort == 0 {
		cfg.Server.DiagnosisPort = 8000
	}
	if cfg.Server.RecommendationPort == 0 {
		cfg.Server.RecommendationPort = 8001
	}
	if cfg.Server.HistoryPort == 0 {
		cfg.Server.HistoryPort = 8002
	}
	if cfg.Server.HistoryBackendPort == 0 {
		cfg.Server.HistoryBackendPort = 4943
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
	}
	if cfg.LLM.Model == "" {
		if strings.EqualFold(cfg.LLM.Provider, "anthropic") {
			cfg.LLM.Model = "claude-sonnet-4-5"
		} else {
			cfg.LLM.Model = "gemini-2.5-flash"
		}
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}
	if cfg.Storage.MedicalIndex == "" {
		cfg.Storage.MedicalIndex = "./data/indices/medical"
	}
	if cfg.Storage.OpenFDAIndex == "" {
		cfg.Storage.OpenFDAIndex = "./data/indices/openfda"
	}
	if cfg.Storage.DiseaseDataset == "" {
		cfg.Storage.DiseaseDataset = "./data/diseases.csv"
	}
	if cfg.Storage.LabelDir == "" {
		cfg.Storage.LabelDir = "./data/openfda"
	}
	if cfg.Storage.HistoryDatabase == "" {
		cfg.Storage.HistoryDatabase = "./data/db/history.db"
	}
	if cfg.Search.DiagnosisTopK == 0 {
		cfg.Search.DiagnosisTopK = 5
	}
	if cfg.Search.RecommendationTopN == 0 {
		cfg.Search.RecommendationTopN = 4
	}
	if cfg.Agent.RecommendationEndpoint == "" {
		cfg.Agent.RecommendationEndpoint = "http://localhost:8001/submit"
	}
	if cfg.Agent.RecommendationTimeout == nil {
		d := DefaultRecommendationTimeout
		cfg.Agent.RecommendationTimeout = &d
	}
	if cfg.Agent.HistorySeed == "" {
		cfg.Agent.HistorySeed = "medtriage-history-agent"
	}
	if cfg.Agent.DedupCapacity == 0 {
		cfg.Agent.DedupCapacity = 10000
	}
	if cfg.Agent.DedupTTL == 0 {
		cfg.Agent.DedupTTL = time.Hour
	}
	if cfg.History.Model == "" {
		cfg.History.Model = "asi1-mini"
	}
	if cfg.History.Temperature == 0 {
		cfg.History.Temperature = 0.7
	}
	if cfg.History.MaxTokens == 0 {
		cfg.History.MaxTokens = 1024
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}
