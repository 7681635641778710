// Package config handles Nimbus configuration loading and management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is the config path used when none is given.
const DefaultConfigFile = "config.json"

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".nimbus")

	return &Config{
		OllamaEnabled:    true,
		OllamaURL:        "http://localhost:11434/api/generate",
		Model:            "deepseek-r1:14b",
		FallbackToSimple: true,
		TTSEnabled:       true,
		AdvancedPlugins:  true,
		Voice: VoiceConfig{
			Enabled:  false,
			WakeWord: "assistant",
		},
		Learning: LearningConfig{
			Enabled:            true,
			AutoLearnThreshold: 0.7,
			Scoring: ScoringConfig{
				TopicSubstring:  0.8,
				SummaryWord:     0.2,
				TopicWord:       0.3,
				MutualSubstring: 0.5,
				Threshold:       0.7,
			},
			MaxKnowledgeAgeDays: 30,
		},
		Weather: WeatherConfig{
			APIKey:      "",
			DefaultCity: "London",
		},
		Paths: PathsConfig{
			DataDir:       dataDir,
			KnowledgeFile: filepath.Join(dataDir, "knowledge_base.json"),
			RegistryFile:  filepath.Join(dataDir, "registry.json"),
			HistoryDB:     filepath.Join(dataDir, "history.db"),
			LogsDir:       filepath.Join(dataDir, "logs"),
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist or cannot be parsed, returns defaults: a broken
// config document must never prevent the assistant from starting.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = DefaultConfigFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config file doesn't exist, return defaults.
		return cfg, nil
	}

	if strings.HasSuffix(configPath, ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return Default(), nil
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return Default(), nil
		}
	}

	cfg = expandPaths(cfg)
	return cfg, nil
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if strings.HasSuffix(configPath, ".toml") {
		file, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer file.Close()
		return toml.NewEncoder(file).Encode(c)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o644)
}

// EnsureDirs creates the data directories the assistant writes to.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// expandPaths expands ~ in paths.
func expandPaths(cfg *Config) *Config {
	homeDir, _ := os.UserHomeDir()

	expand := func(p string) string {
		if strings.HasPrefix(p, "~") {
			return filepath.Join(homeDir, p[1:])
		}
		return p
	}

	cfg.Paths.DataDir = expand(cfg.Paths.DataDir)
	cfg.Paths.KnowledgeFile = expand(cfg.Paths.KnowledgeFile)
	cfg.Paths.RegistryFile = expand(cfg.Paths.RegistryFile)
	cfg.Paths.HistoryDB = expand(cfg.Paths.HistoryDB)
	cfg.Paths.LogsDir = expand(cfg.Paths.LogsDir)

	return cfg
}
