package embeddings

import (
	"fmt"
	"os"
)

// NewEmbedder creates an embedder for the given provider type.
func NewEmbedder(providerType, baseURL, model string) (Embedder, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(apiKey, baseURL, model), nil
	case "none":
		return NewHashEmbedder(256), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
