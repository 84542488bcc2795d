package config

import (
	"os"
	"strconv"
	"strings"
)

type GateConfig struct {
	MinRelevanceScore float64
	QualityWeight     float64
	BatchSize         int
	MaxChunks         int
}

type Config struct {
	Env  string
	Port string

	// Provider selects the completion backend: "ollama", "openai", or
	// "none" (probe always falls back to heuristics).
	Provider string

	OllamaURL     string
	OllamaModel   string
	OllamaTimeout int // seconds
	OllamaRPS     float64

	OpenAIAPIKey string
	OpenAIModel  string

	CacheSize   int
	OTelEnabled bool

	Gate GateConfig
}

func Load() *Config {
	return &Config{
		Env:           getEnv("ENV", "development"),
		Port:          getEnv("PORT", "9020"),
		Provider:      getEnv("COMPLETION_PROVIDER", "ollama"),
		OllamaURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "gemma3:4b"),
		OllamaTimeout: getEnvInt("OLLAMA_TIMEOUT_SECONDS", 120),
		OllamaRPS:     getEnvFloat("OLLAMA_RPS", 4),
		OpenAIAPIKey:  getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		CacheSize:     getEnvInt("COMPLETION_CACHE_SIZE", 1024),
		OTelEnabled:   getEnvBool("OTEL_ENABLED", false),
		Gate: GateConfig{
			MinRelevanceScore: getEnvFloat("GATE_MIN_RELEVANCE_SCORE", 0.6),
			QualityWeight:     getEnvFloat("GATE_QUALITY_WEIGHT", 0.3),
			BatchSize:         getEnvInt("GATE_BATCH_SIZE", 10),
			MaxChunks:         getEnvInt("GATE_MAX_CHUNKS", 0),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
