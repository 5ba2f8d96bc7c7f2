// Package embeddings turns chunk text into fixed-dimension vectors. The
// rest of the system treats embedding as an opaque, pluggable capability:
// text in, vector of Dimensions() floats out, deterministic for identical
// input on the same model version.
package embeddings

import "context"

// Embedder generates text embeddings.
type Embedder interface {
	// Embed generates one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of the produced vectors.
	Dimensions() int

	// Name identifies the embedding model, used to detect model changes
	// that would invalidate stored vectors.
	Name() string
}
