// Package provider selects and constructs the chat model backend used to
// generate answers. Supported backends: OpenAI, Azure OpenAI, Ollama,
// AWS Bedrock, Google Gemini.
package provider

import "fmt"

// Backend enumerates the supported chat model providers.
type Backend string

const (
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendBedrock selects AWS Bedrock.
	BackendBedrock Backend = "bedrock"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values.
type Config struct {
	// Backend identifies which chat provider to use.
	Backend Backend

	// Model is the model name or deployment ID (e.g. "gpt-4o-mini", "llama3").
	Model string

	// BaseURL overrides the default API endpoint (required for Ollama and Azure).
	BaseURL string

	// APIKey is the authentication credential for the selected provider.
	// For Bedrock this field doubles as the Ark gateway key.
	APIKey string

	// AzureAPIVersion is the Azure OpenAI REST API version (Azure only).
	AzureAPIVersion string

	// MaxTokens caps the number of tokens the model may generate per answer.
	MaxTokens int

	// Temperature controls answer randomness (0.0–1.0).
	Temperature float32
}

// Validate checks that the config carries everything the selected backend
// needs, so callers get a clear error at startup rather than on the first
// question.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("provider: openai requires MODEL_API_KEY or OPENAI_API_KEY")
		}
		if c.Model == "" {
			return fmt.Errorf("provider: openai requires MODEL_NAME")
		}
	case BackendAzure:
		if c.APIKey == "" {
			return fmt.Errorf("provider: azure requires MODEL_API_KEY or AZURE_OPENAI_API_KEY")
		}
		if c.BaseURL == "" {
			return fmt.Errorf("provider: azure requires MODEL_BASE_URL or AZURE_OPENAI_ENDPOINT")
		}
		if c.Model == "" {
			return fmt.Errorf("provider: azure requires MODEL_NAME (the deployment name)")
		}
	case BackendOllama:
		if c.Model == "" {
			return fmt.Errorf("provider: ollama requires MODEL_NAME")
		}
	case BackendBedrock:
		if c.Model == "" {
			return fmt.Errorf("provider: bedrock requires MODEL_NAME (the Bedrock model ID)")
		}
	case BackendGemini:
		if c.APIKey == "" {
			return fmt.Errorf("provider: gemini requires MODEL_API_KEY or GOOGLE_API_KEY")
		}
		if c.Model == "" {
			return fmt.Errorf("provider: gemini requires MODEL_NAME")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q — valid values: openai, azure, ollama, bedrock, gemini", c.Backend)
	}
	return nil
}
