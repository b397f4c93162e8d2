package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a chat provider for the given provider type.
// Only "openai" is remote; point baseURL at Ollama, OpenRouter or any other
// OpenAI-compatible server to use those. A positive rpm wraps the provider
// in a rate limiter.
func NewProvider(providerType, baseURL, model string, rpm int) (Provider, error) {
	var p Provider
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, baseURL, model)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}

	if rpm > 0 {
		p = NewRateLimitedProvider(p, rpm)
	}
	return p, nil
}
