// Package config provides configuration loading and structs for the medtriage agents.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingSetting is returned by the Validate functions when required values are absent.
var ErrMissingSetting = errors.New("missing required setting")

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Agent   AgentConfig   `yaml:"agent"`
	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP listen settings, one port per agent role.
type ServerConfig struct {
	Host               string `yaml:"host"`
	DiagnosisPort      int    `yaml:"diagnosis_port"`
	RecommendationPort int    `yaml:"recommendation_port"`
	HistoryPort        int    `yaml:"history_port"`
	HistoryBackendPort int    `yaml:"history_backend_port"`
}

// LLMConfig selects and configures the text-generation provider.
type LLMConfig struct {
	Provider        string `yaml:"provider"` // "gemini" (default) or "anthropic"
	Model           string `yaml:"model"`
	APIKey          string `yaml:"api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	MaxTokens       int    `yaml:"max_tokens"`
}

// Key returns the API key for the configured provider.
func (l *LLMConfig) Key() string {
	if strings.EqualFold(strings.TrimSpace(l.Provider), "anthropic") {
		return l.AnthropicAPIKey
	}
	return l.APIKey
}

// StorageConfig holds index locations, dataset sources and the history database path.
type StorageConfig struct {
	MedicalIndex    string `yaml:"medical_index"`
	OpenFDAIndex    string `yaml:"openfda_index"`
	DiseaseDataset  string `yaml:"disease_dataset"`
	LabelDir        string `yaml:"label_dir"`
	HistoryDatabase string `yaml:"history_database"`
}

// SearchConfig holds retrieval sizes.
type SearchConfig struct {
	DiagnosisTopK      int `yaml:"diagnosis_top_k"`
	RecommendationTopN int `yaml:"recommendation_top_n"`
	// ContextChars caps each document's text in the recommendation context; 0 means unlimited.
	ContextChars int `yaml:"context_chars"`
}

// AgentConfig holds agent identity and cross-agent messaging settings.
type AgentConfig struct {
	SeedSecret             string `yaml:"seed_secret"` // diagnosis agent seed
	SeedValue              string `yaml:"seed_value"`  // recommendation agent seed
	HistorySeed            string `yaml:"history_seed"`
	Address                string `yaml:"address"`
	RecommendationAddress  string `yaml:"recommendation_address"`
	RecommendationEndpoint string `yaml:"recommendation_endpoint"`
	// RecommendationTimeout bounds the cross-agent recommendation round trip. Nil means the
	// default; an explicit "0s" disables the timeout. Values need a unit: a bare 0 does not parse.
	RecommendationTimeout *time.Duration `yaml:"recommendation_timeout"`
	DedupCapacity         int            `yaml:"dedup_capacity"`
	DedupTTL              time.Duration  `yaml:"dedup_ttl"`
}

// Timeout returns the effective recommendation timeout.
func (a *AgentConfig) Timeout() time.Duration {
	if a.RecommendationTimeout == nil {
		return DefaultRecommendationTimeout
	}
	return *a.RecommendationTimeout
}

// HistoryConfig holds the tool-calling LLM and history backend settings.
type HistoryConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float32 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	BackendURL        string  `yaml:"backend_url"`
	HistoryCanisterID string  `yaml:"history_canister_id"`
	UserCanisterID    string  `yaml:"user_canister_id"`
}

// WatchConfig controls incremental ingestion of new label files.
type WatchConfig struct {
	Labels   bool          `yaml:"labels"`
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads and parses the config file at path, applies environment overrides, expands paths,
// and applies defaults. An empty path yields a config built from defaults and the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)

	cfg.Storage.MedicalIndex = expandPath(cfg.Storage.MedicalIndex, configDir)
	cfg.Storage.OpenFDAIndex = expandPath(cfg.Storage.OpenFDAIndex, configDir)
	cfg.Storage.DiseaseDataset = expandPath(cfg.Storage.DiseaseDataset, configDir)
	cfg.Storage.LabelDir = expandPath(cfg.Storage.LabelDir, configDir)
	cfg.Storage.HistoryDatabase = expandPath(cfg.Storage.HistoryDatabase, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
