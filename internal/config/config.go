package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds minimal runtime configuration. Extend as needed.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"26214400"` // 25MB in bytes

	// LLM
	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"ollama"` // "ollama" (local inference server) or "openai"
	OllamaURL       string        `env:"OLLAMA_URL" envDefault:"http://ollama:11434"`
	ModelName       string        `env:"OLLAMA_MODEL_NAME" envDefault:"receptim/kumru-2b"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"120s"` // budget for one outbound generate call

	// OpenAI (only when LLM_PROVIDER=openai)
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
