// Package config loads and saves the RPG repository configuration,
// following the usual DefaultConfig/Load/Save shape (write-then-rename
// persistence, env-override layering) but narrowed to the JSON wire
// format and field surface spec §6 mandates for .rpg/config.json, rather
// than a YAML multi-subsystem config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rpg/internal/embedding"
	"rpg/internal/evolve"
	"rpg/internal/rpgerr"
)

// Config is the on-disk shape of .rpg/config.json.
type Config struct {
	Name           string           `json:"name"`
	RootPath       string           `json:"root_path"`
	Description    string           `json:"description"`
	DriftThreshold float64          `json:"drift_threshold"`
	UseLLM         bool             `json:"use_llm"`
	DescriberModel string           `json:"describer_model"`
	DebugMode      bool             `json:"debug_mode"`
	Embedding      embedding.Config `json:"embedding"`
}

// DefaultConfig returns the default configuration for a freshly initialized
// repository.
func DefaultConfig(name, rootPath string) *Config {
	return &Config{
		Name:           name,
		RootPath:       rootPath,
		DriftThreshold: evolve.DefaultDriftThreshold,
		UseLLM:         false,
		DescriberModel: "gemini-2.0-flash",
		DebugMode:      false,
		Embedding:      embedding.DefaultConfig(),
	}
}

// Path returns the canonical config path for a repo root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ".rpg", "config.json")
}

// Load reads and parses .rpg/config.json. A missing file yields
// DefaultConfig rather than an error; a present-but-corrupt file is a
// ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig("", filepath.Dir(filepath.Dir(path)))
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, rpgerr.NewConfigError(path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, rpgerr.NewConfigError(path, err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename), mirroring the
// write-then-rename idiom the semantic cache and the existing persisted
// state both use.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return rpgerr.NewConfigError(path, err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return rpgerr.NewConfigError(path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return rpgerr.NewConfigError(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return rpgerr.NewConfigError(path, err)
	}
	return nil
}

// applyEnvOverrides layers environment variables over the loaded config,
// the same override-after-parse ordering this module uses elsewhere.
func (c *Config) applyEnvOverrides() {
	if endpoint := os.Getenv("OLLAMA_ENDPOINT"); endpoint != "" {
		c.Embedding.OllamaEndpoint = endpoint
	}
	if model := os.Getenv("OLLAMA_EMBEDDING_MODEL"); model != "" {
		c.Embedding.OllamaModel = model
	}
	if _, ok := os.LookupEnv("RPG_DEBUG"); ok {
		c.DebugMode = true
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.Embedding.GenAIAPIKey = apiKey
	}
}

// Validate reports a ConfigError if cfg carries a value the rest of the
// system cannot act on.
func (c *Config) Validate() error {
	if c.DriftThreshold < 0 || c.DriftThreshold > 1 {
		return rpgerr.NewConfigError("", fmt.Errorf("drift_threshold must be in [0,1], got %v", c.DriftThreshold))
	}
	return nil
}
