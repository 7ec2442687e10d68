package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration, loaded once at startup
// and passed explicitly to each component.
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Logging       LoggingConfig       `toml:"logging"`
	Storage       StorageConfig       `toml:"storage"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Analysis      AnalysisConfig      `toml:"analysis"`
	Aggregation   AggregationConfig   `toml:"aggregation"`
	Airports      []SeedAirport       `toml:"airports"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSec     int      `toml:"read_timeout_seconds"`
	WriteTimeoutSec    int      `toml:"write_timeout_seconds"`
	MaxUploadMB        int      `toml:"max_upload_mb"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, console
}

// StorageConfig represents SQLite storage configuration
type StorageConfig struct {
	Path string `toml:"path"`
}

// TranscriptionConfig represents speech-to-text configuration
type TranscriptionConfig struct {
	Backend        string `toml:"backend"` // "openai" or "local"
	OpenAIAPIKey   string `toml:"openai_api_key"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	Prompt         string `toml:"prompt"`
	LocalURL       string `toml:"local_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MinAudioBytes  int    `toml:"min_audio_bytes"`
	SpoolDir       string `toml:"spool_dir"` // empty disables audio spooling
}

// AnalysisConfig represents call analysis (chat completion) configuration
type AnalysisConfig struct {
	OpenAIAPIKey     string  `toml:"openai_api_key"`
	BaseURL          string  `toml:"base_url"`
	Model            string  `toml:"model"`
	Temperature      float64 `toml:"temperature"`
	TopP             float64 `toml:"top_p"`
	MaxTokens        int     `toml:"max_tokens"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	SystemPromptPath string  `toml:"system_prompt_path"`
	UserPromptPath   string  `toml:"user_prompt_path"`
	DefaultAirport   string  `toml:"default_airport"`
	FallbackCategory string  `toml:"fallback_category"`
	DefaultCategory  string  `toml:"default_category"`
	SummaryMaxChars  int     `toml:"summary_max_chars"`
}

// AggregationConfig represents the daily summary job configuration
type AggregationConfig struct {
	Enabled   bool `toml:"enabled"`
	HourUTC   int  `toml:"hour_utc"`
	MinuteUTC int  `toml:"minute_utc"`
}

// SeedAirport is one entry of the airport reference seed data
type SeedAirport struct {
	Code string `toml:"code"`
	Name string `toml:"name"`
}

// Load loads the configuration from the given TOML file
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	// API keys come from the environment when not set in the file
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.Transcription.OpenAIAPIKey == "" {
			cfg.Transcription.OpenAIAPIKey = key
		}
		if cfg.Analysis.OpenAIAPIKey == "" {
			cfg.Analysis.OpenAIAPIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			CORSAllowedOrigins: []string{"*"},
			ReadTimeoutSec:     60,
			WriteTimeoutSec:    120,
			MaxUploadMB:        32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Path: "callcenter.db",
		},
		Transcription: TranscriptionConfig{
			Backend:        "openai",
			Model:          "whisper-1",
			Language:       "es",
			Prompt:         "Llamada a un call center de aeropuertos españoles: vuelos, facturación, equipaje, parking, IATA.",
			LocalURL:       "http://localhost:8000",
			TimeoutSeconds: 30,
			MinAudioBytes:  10 * 1024,
		},
		Analysis: AnalysisConfig{
			Model:            "gpt-4o-mini",
			Temperature:      0.2,
			TopP:             0.95,
			MaxTokens:        250,
			TimeoutSeconds:   30,
			DefaultAirport:   "MAD",
			FallbackCategory: "Otros",
			DefaultCategory:  "Conversación General",
			SummaryMaxChars:  100,
		},
		Aggregation: AggregationConfig{
			Enabled:   true,
			HourUTC:   23,
			MinuteUTC: 30,
		},
		Airports: defaultAirports(),
	}
}

// defaultAirports is the reference seed set used when the config file does
// not override it.
func defaultAirports() []SeedAirport {
	return []SeedAirport{
		{Code: "MAD", Name: "Madrid-Barajas Adolfo Suárez"},
		{Code: "BCN", Name: "Barcelona-El Prat Josep Tarradellas"},
		{Code: "AGP", Name: "Málaga-Costa del Sol"},
		{Code: "PMI", Name: "Palma de Mallorca"},
		{Code: "VLC", Name: "Valencia"},
		{Code: "SVQ", Name: "Sevilla"},
		{Code: "ALC", Name: "Alicante-Elche"},
		{Code: "BIO", Name: "Bilbao"},
		{Code: "LPA", Name: "Gran Canaria"},
		{Code: "TFS", Name: "Tenerife Sur"},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	switch c.Transcription.Backend {
	case "openai", "local":
	default:
		return fmt.Errorf("invalid transcription backend: %s", c.Transcription.Backend)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must not be empty")
	}

	if c.Analysis.DefaultAirport == "" {
		return fmt.Errorf("analysis default_airport must not be empty")
	}

	if c.Aggregation.HourUTC < 0 || c.Aggregation.HourUTC > 23 {
		return fmt.Errorf("invalid aggregation hour_utc: %d", c.Aggregation.HourUTC)
	}
	if c.Aggregation.MinuteUTC < 0 || c.Aggregation.MinuteUTC > 59 {
		return fmt.Errorf("invalid aggregation minute_utc: %d", c.Aggregation.MinuteUTC)
	}

	return nil
}
