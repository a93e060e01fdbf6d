package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"report-rag/internal/arabic"
)

// Client is the embedding endpoint surface the gateway needs.
// *openai.LLM satisfies it.
type Client interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Gateway batches embedding requests and absorbs batch failures. A failed
// batch is replaced by zero vectors so ingestion never aborts mid-run;
// those rows rank near-orthogonal to every real query and are effectively
// unretrievable.
type Gateway struct {
	client    Client
	batchSize int
	dimension int
}

func NewGateway(client Client, batchSize int) *Gateway {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Gateway{client: client, batchSize: batchSize, dimension: Dimension}
}

// EmbedTexts returns one vector per input text, order-preserving. The
// second return value is the number of texts that received a substituted
// zero vector.
func (g *Gateway) EmbedTexts(ctx context.Context, texts []string) ([][]float32, int) {
	vectors := make([][]float32, 0, len(texts))
	substituted := 0

	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		batch := make([]string, 0, end-start)
		for _, t := range texts[start:end] {
			batch = append(batch, arabic.Clean(t))
		}

		embedded, err := g.client.CreateEmbedding(ctx, batch)
		if err == nil && len(embedded) != len(batch) {
			err = fmt.Errorf("got %d vectors for %d texts", len(embedded), len(batch))
		}
		if err != nil {
			log.Warn().Err(err).
				Int("batch_start", start).
				Int("batch_size", len(batch)).
				Msg("Embedding batch failed, substituting zero vectors")
			for range batch {
				vectors = append(vectors, make([]float32, g.dimension))
			}
			substituted += len(batch)
			continue
		}
		vectors = append(vectors, embedded...)
	}
	return vectors, substituted
}

// EmbedQuery embeds a single query string. Unlike ingestion there is no
// degraded value to fall back to: a query without an embedding cannot be
// answered, so the error propagates.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embedded, err := g.client.CreateEmbedding(ctx, []string{arabic.Clean(text)})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embedded) == 0 {
		return nil, fmt.Errorf("embedding query: no vector returned")
	}
	return embedded[0], nil
}
