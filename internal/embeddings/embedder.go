package embeddings

import "context"

// Embedder turns policy passages and customer questions into vectors for
// retrieval. Passages and queries must go through the same Embedder, so a
// model change requires a forced re-ingest.
type Embedder interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length.
	Dimensions() int

	// Name identifies the model in errors and logs.
	Name() string
}
