package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	Env                string        `yaml:"env"`
	CORSAllowOrigin    []string      `yaml:"cors_allow_origins"`
	OpenAIAPIKey       string        `yaml:"openai_api_key"`
	OpenAIBaseURL      string        `yaml:"openai_base_url"`
	OpenAIModel        string        `yaml:"openai_model"`
	OpenAIVisionModel  string        `yaml:"openai_vision_model"`
	OpenAIMaxTokens    int           `yaml:"openai_max_tokens"`
	OpenAITemperature  float32       `yaml:"openai_temperature"`
	AnalysisTimeout    time.Duration `yaml:"analysis_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	RateLimitRPS       float64       `yaml:"rate_limit_rps"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	LogLevel           string        `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               "8003",
		Env:                "dev",
		CORSAllowOrigin:    []string{"*"},
		OpenAIModel:        "gpt-4o",
		OpenAIVisionModel:  "gpt-4o",
		OpenAIMaxTokens:    1000,
		OpenAITemperature:  0.1,
		AnalysisTimeout:    60 * time.Second,
		MaxRequestBodySize: 220 << 20,
		RateLimitBurst:     5,
		LogLevel:           "info",
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. Environment variables win over file values.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns host:port for the HTTP listener.
func (c Config) Addr() string {
	return strings.TrimSpace(c.Host) + ":" + strings.TrimSpace(c.Port)
}

// OpenAIConfigured reports whether a remote API key is present.
func (c Config) OpenAIConfigured() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

func applyEnv(cfg *Config) {
	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = normalizeEnv(getEnv("ENV", cfg.Env))
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIVisionModel = getEnv("OPENAI_VISION_MODEL", cfg.OpenAIVisionModel)
	cfg.OpenAIMaxTokens = int(parseIntOrDefault("OPENAI_MAX_TOKENS", int64(cfg.OpenAIMaxTokens)))
	cfg.OpenAITemperature = float32(parseFloatOrDefault("OPENAI_TEMPERATURE", float64(cfg.OpenAITemperature)))
	cfg.AnalysisTimeout = parseDurationOrDefault("ANALYSIS_TIMEOUT", cfg.AnalysisTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)
	cfg.RateLimitRPS = parseFloatOrDefault("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = int(parseIntOrDefault("RATE_LIMIT_BURST", int64(cfg.RateLimitBurst)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func (c Config) validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be > 0 (got %s)", c.AnalysisTimeout)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.OpenAIMaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be > 0 (got %d)", c.OpenAIMaxTokens)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func parseDurationOrDefault(key string, def time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func parseIntOrDefault(key string, def int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n
		}
	}
	return def
}

func parseFloatOrDefault(key string, def float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
