package config

// Config represents the main Nimbus configuration.
//
// It mirrors the on-disk config.json document. Every key has a hardcoded
// default so a missing file or missing keys never prevent startup.
type Config struct {
	OllamaEnabled    bool   `json:"ollama_enabled" toml:"ollama_enabled"`
	OllamaURL        string `json:"ollama_url" toml:"ollama_url"`
	Model            string `json:"model" toml:"model"`
	FallbackToSimple bool   `json:"fallback_to_simple" toml:"fallback_to_simple"`
	TTSEnabled       bool   `json:"tts_enabled" toml:"tts_enabled"`
	AdvancedPlugins  bool   `json:"advanced_plugins" toml:"advanced_plugins"`

	Voice    VoiceConfig    `json:"voice" toml:"voice"`
	Learning LearningConfig `json:"learning" toml:"learning"`
	Weather  WeatherConfig  `json:"weather" toml:"weather"`
	Paths    PathsConfig    `json:"paths" toml:"paths"`
}

// VoiceConfig configures the voice listener.
type VoiceConfig struct {
	Enabled  bool   `json:"enabled" toml:"enabled"`
	WakeWord string `json:"wake_word" toml:"wake_word"`

	// RecognizerCommand is an external command that records one utterance
	// and prints its transcript, e.g. a whisper CLI wrapper. Voice input
	// stays off while this is empty.
	RecognizerCommand string `json:"recognizer_command" toml:"recognizer_command"`
}

// LearningConfig configures the self-learning knowledge base.
//
// The scoring weights are tuning values with no deeper derivation; they are
// exposed here rather than hardcoded so deployments can adjust them.
type LearningConfig struct {
	Enabled            bool    `json:"enabled" toml:"enabled"`
	AutoLearnThreshold float64 `json:"auto_learn_threshold" toml:"auto_learn_threshold"`

	Scoring ScoringConfig `json:"scoring" toml:"scoring"`

	// MaxKnowledgeAgeDays bounds how long an unused entry survives cleanup.
	MaxKnowledgeAgeDays int `json:"max_knowledge_age_days" toml:"max_knowledge_age_days"`
}

// ScoringConfig holds the knowledge relevance scoring weights.
type ScoringConfig struct {
	TopicSubstring  float64 `json:"topic_substring" toml:"topic_substring"`   // query contained in topic key
	SummaryWord     float64 `json:"summary_word" toml:"summary_word"`         // per query word found in summary
	TopicWord       float64 `json:"topic_word" toml:"topic_word"`             // per query word found in topic key
	MutualSubstring float64 `json:"mutual_substring" toml:"mutual_substring"` // query/topic contain each other
	Threshold       float64 `json:"threshold" toml:"threshold"`               // minimum score to return a match
}

// WeatherConfig configures the OpenWeatherMap-backed weather plugin.
type WeatherConfig struct {
	APIKey      string `json:"api_key" toml:"api_key"`
	DefaultCity string `json:"default_city" toml:"default_city"`
}

// PathsConfig contains file path settings.
type PathsConfig struct {
	DataDir       string `json:"data_dir" toml:"data_dir"`
	KnowledgeFile string `json:"knowledge_file" toml:"knowledge_file"`
	RegistryFile  string `json:"registry_file" toml:"registry_file"`
	HistoryDB     string `json:"history_db" toml:"history_db"`
	LogsDir       string `json:"logs_dir" toml:"logs_dir"`
}

// Mode represents a launch mode of the assistant.
type Mode string

const (
	ModeLearning Mode = "learning"
	ModePro      Mode = "pro"
	ModeBasic    Mode = "basic"
	ModeVoice    Mode = "voice"
	ModeText     Mode = "text"
	ModeSetup    Mode = "setup"
)
