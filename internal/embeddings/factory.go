package embeddings

import (
	"fmt"
	"os"
)

// New constructs the Embedder named by provider. dimensions is only
// consulted by providers that cannot report their own (ollama, local).
func New(provider, model string, dimensions int, baseURL string) (Embedder, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model)), nil
	case "ollama":
		return NewOllamaEmbedder(model, dimensions, baseURL), nil
	case "local", "":
		return NewLocalEmbedder(dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: must be one of openai, ollama, local", provider)
	}
}
