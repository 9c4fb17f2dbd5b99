package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// The embedder handle is always passed explicitly into the components that
// need it (constructor injection); nothing in this module constructs a
// client from ambient global configuration.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// Implementations batch requests to respect provider batch-size limits.
	// The returned slice contains embeddings in the same order as the input
	// texts. Returns an error if any embedding generation fails; callers
	// must treat a failure as "no embeddings produced" and never retry here.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
