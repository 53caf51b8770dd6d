package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/model"
)

// Per-backend default model names.
const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOllamaModel = "llama3"
	defaultGeminiModel = "gemini-1.5-pro"
)

// Shared tuning defaults. Answers are meant to be brief, so the generation
// budget is small.
const (
	defaultMaxTokens   = 500
	defaultTemperature = 0.2
)

// NewFromEnv constructs a ChatModel by reading provider configuration from
// environment variables. MODEL_PROVIDER selects the backend; the generic
// MODEL_* vars apply to all backends, with each provider's native credential
// vars accepted as fallbacks.
//
// Environment variables:
//
//	MODEL_PROVIDER      = openai | azure | ollama | bedrock | gemini (default: openai)
//	MODEL_NAME          = model name or Azure deployment (per-backend default)
//	MODEL_API_KEY       = credential (fallbacks: OPENAI_API_KEY, AZURE_OPENAI_API_KEY, GOOGLE_API_KEY)
//	MODEL_BASE_URL      = endpoint override (fallbacks: OLLAMA_HOST, AZURE_OPENAI_ENDPOINT)
//	MODEL_MAX_TOKENS    = generation cap (default: 500)
//	MODEL_TEMPERATURE   = sampling temperature (default: 0.2)
//
//	Azure only: AZURE_OPENAI_API_VERSION (default: 2024-02-01)
func NewFromEnv(ctx context.Context) (model.ChatModel, error) { //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream; migration tracked separately
	backend := Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendOpenAI)))

	cfg := &Config{
		Backend:         backend,
		Model:           os.Getenv("MODEL_NAME"),
		BaseURL:         os.Getenv("MODEL_BASE_URL"),
		APIKey:          os.Getenv("MODEL_API_KEY"),
		AzureAPIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		MaxTokens:       getEnvInt("MODEL_MAX_TOKENS", defaultMaxTokens),
		Temperature:     getEnvFloat32("MODEL_TEMPERATURE", defaultTemperature),
	}

	// Per-backend fallbacks for credentials, endpoints, and model names.
	switch backend {
	case BackendOpenAI:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
	case BackendAzure:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("AZURE_OPENAI_ENDPOINT")
		}
	case BackendOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		if cfg.Model == "" {
			cfg.Model = defaultOllamaModel
		}
	case BackendGemini:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
		if cfg.Model == "" {
			cfg.Model = defaultGeminiModel
		}
	}

	return New(ctx, cfg)
}

// New constructs a ChatModel from an explicit Config, delegating to the
// appropriate backend factory function. It validates the config first so
// callers get a clear error at startup rather than on the first request.
func New(ctx context.Context, cfg *Config) (model.ChatModel, error) { //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream; migration tracked separately
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendOpenAI:
		return newOpenAI(ctx, cfg)
	case BackendAzure:
		return newAzure(ctx, cfg)
	case BackendOllama:
		return newOllama(ctx, cfg)
	case BackendBedrock:
		return newBedrock(ctx, cfg)
	case BackendGemini:
		return newGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("provider: unknown backend %q — valid values: openai, azure, ollama, bedrock, gemini", cfg.Backend)
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat32 returns the float32 value of the named environment variable,
// or fallback if the variable is unset, empty, or not parseable.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
