package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  diagnosis_port: 9000
search:
  diagnosis_top_k: 3
agent:
  recommendation_timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.DiagnosisPort != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Search.DiagnosisTopK != 3 {
		t.Errorf("DiagnosisTopK = %d, want 3", cfg.Search.DiagnosisTopK)
	}
	if cfg.Search.RecommendationTopN != 4 {
		t.Errorf("RecommendationTopN = %d, want default 4", cfg.Search.RecommendationTopN)
	}
	if got := cfg.Agent.Timeout(); got != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_timeoutNeedsUnit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  recommendation_timeout: 0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected a bare 0 timeout to be rejected")
	}
	if !strings.Contains(err.Error(), "time.Duration") {
		t.Errorf("error %q does not name the duration field type", err)
	}
}

func TestLoad_timeoutZeroDisables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  recommendation_timeout: 0s\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Agent.Timeout(); got != 0 {
		t.Errorf("Timeout = %v, want 0", got)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  medical_index: "./data/medical"
  label_dir: "/abs/labels"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "medical"); cfg.Storage.MedicalIndex != want {
		t.Errorf("MedicalIndex = %q, want %q", cfg.Storage.MedicalIndex, want)
	}
	if cfg.Storage.LabelDir != "/abs/labels" {
		t.Errorf("LabelDir = %q, want /abs/labels", cfg.Storage.LabelDir)
	}
	if want := filepath.Join(dir, "data", "db", "history.db"); cfg.Storage.HistoryDatabase != want {
		t.Errorf("HistoryDatabase = %q, want %q", cfg.Storage.HistoryDatabase, want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GEMINI_API_KEY":               "g-key",
		"MEDICAL_INDEX":                "/idx/medical",
		"RECOMMENDATION_AGENT_ADDRESS": "agent1qrec",
		"ASI1_BASE_URL":                "https://asi1.example/v1",
		"MODEL_NAME":                   "",
	}
	cfg := &Config{LLM: LLMConfig{Model: "from-yaml"}}
	ApplyEnv(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if cfg.LLM.APIKey != "g-key" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.Storage.MedicalIndex != "/idx/medical" {
		t.Errorf("MedicalIndex = %q", cfg.Storage.MedicalIndex)
	}
	if cfg.Agent.RecommendationAddress != "agent1qrec" {
		t.Errorf("RecommendationAddress = %q", cfg.Agent.RecommendationAddress)
	}
	if cfg.History.BaseURL != "https://asi1.example/v1" {
		t.Errorf("History.BaseURL = %q", cfg.History.BaseURL)
	}
	if cfg.LLM.Model != "from-yaml" {
		t.Errorf("empty env value should not override, Model = %q", cfg.LLM.Model)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyEnv(cfg, noEnv)
	ApplyDefaults(cfg)
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.LLM.Provider)
	}
	if cfg.History.Model != "asi1-mini" || cfg.History.MaxTokens != 1024 || cfg.History.Temperature != 0.7 {
		t.Errorf("unexpected history defaults: %+v", cfg.History)
	}
	if cfg.Agent.Timeout() != DefaultRecommendationTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Agent.Timeout(), DefaultRecommendationTimeout)
	}

	anthropic := &Config{LLM: LLMConfig{Provider: "anthropic"}}
	ApplyDefaults(anthropic)
	if !strings.HasPrefix(anthropic.LLM.Model, "claude") {
		t.Errorf("anthropic default model = %q", anthropic.LLM.Model)
	}
}

func TestValidate(t *testing.T) {
	full := &Config{
		LLM:     LLMConfig{APIKey: "k"},
		Storage: StorageConfig{MedicalIndex: "m", OpenFDAIndex: "o"},
		Agent: AgentConfig{
			SeedSecret: "s", SeedValue: "v", Address: "agent1qa",
			RecommendationAddress: "agent1qr", RecommendationEndpoint: "http://r/submit",
		},
		History: HistoryConfig{
			APIKey: "a", BaseURL: "b", BackendURL: "c", HistoryCanisterID: "h", UserCanisterID: "u",
		},
	}
	tests := []struct {
		name     string
		validate func(*Config) error
		mutate   func(*Config)
		missing  []string
	}{
		{"diagnosis ok", ValidateDiagnosis, func(*Config) {}, nil},
		{"recommendation ok", ValidateRecommendation, func(*Config) {}, nil},
		{"history ok", ValidateHistory, func(*Config) {}, nil},
		{"diagnosis missing key and seed", ValidateDiagnosis, func(c *Config) {
			c.LLM.APIKey = ""
			c.Agent.SeedSecret = "  "
		}, []string{"GEMINI_API_KEY", "SEED_SECRET"}},
		{"index paths come from defaults", ValidateRecommendation, func(c *Config) {
			c.Storage = StorageConfig{}
			ApplyDefaults(c)
		}, nil},
		{"recommendation anthropic key", ValidateRecommendation, func(c *Config) {
			c.LLM.Provider = "anthropic"
		}, []string{"ANTHROPIC_API_KEY"}},
		{"history missing canisters", ValidateHistory, func(c *Config) {
			c.History.HistoryCanisterID = ""
			c.History.UserCanisterID = ""
		}, []string{"HISTORY_CANISTER_ID", "USER_CANISTER_ID"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *full
			tt.mutate(&cfg)
			err := tt.validate(&cfg)
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrMissingSetting) {
				t.Fatalf("err = %v, want ErrMissingSetting", err)
			}
			for _, name := range tt.missing {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("error %q does not name %s", err, name)
				}
			}
		})
	}
}
