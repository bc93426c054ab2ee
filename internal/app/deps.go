package app

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"github.com/dibesmab-cyber/OCR/internal/config"
	"github.com/dibesmab-cyber/OCR/internal/llm"
	"github.com/dibesmab-cyber/OCR/internal/logger"
	"github.com/dibesmab-cyber/OCR/internal/pdftext"
)

// Deps bundles common runtime dependencies for the service.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	LLM       llm.Client
	Extractor pdftext.Extractor
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return Deps{
		Config:    cfg,
		Log:       log,
		LLM:       llmClient,
		Extractor: pdftext.NewReader(),
	}, nil
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "ollama":
		client, err := llm.NewOllamaClient(cfg.OllamaURL, cfg.ModelName, cfg.GenerateTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama client: %w", err)
		}
		log.Info("using Ollama LLM client", "url", cfg.OllamaURL, "model", cfg.ModelName)
		return client, nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.OpenAIModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.OpenAIModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: ollama, openai)", cfg.LLMProvider)
	}
}
