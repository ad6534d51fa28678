package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teammind-ai/backend/internal/chunker"
	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// VectorSearcher is the slice of the vector store the retriever needs.
type VectorSearcher interface {
	SearchSimilar(ctx context.Context, userID string, queryVector []float32, limit int) ([]domain.RetrievalMatch, error)
}

// Retriever turns a free-text query into a ranked, deduplicated set of
// source documents.
type Retriever struct {
	ai        port.AIProvider
	vectors   VectorSearcher
	chunkSize int
	topK      int
}

// NewRetriever creates a retriever. chunkSize must match the ingestion chunk
// size so query chunks and corpus chunks are comparable in scale.
func NewRetriever(ai port.AIProvider, vectors VectorSearcher, chunkSize, topK int) *Retriever {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{ai: ai, vectors: vectors, chunkSize: chunkSize, topK: topK}
}

// Retrieve chunks the query, runs one similarity search per chunk, and
// deduplicates the flattened results by source-document identity. The first
// occurrence of a document wins, in query-chunk order then rank order, and
// later duplicates are dropped, not merged or re-ranked. A failed or empty
// per-chunk search degrades to skipping that chunk.
func (r *Retriever) Retrieve(ctx context.Context, userID, query string) ([]domain.RetrievalMatch, error) {
	chunks := chunker.Split(query, r.chunkSize)
	if len(chunks) == 0 {
		return nil, nil
	}

	var flat []domain.RetrievalMatch
	for i, chunk := range chunks {
		vector, err := r.ai.Embed(ctx, chunk)
		if err != nil {
			slog.Warn("query chunk embed failed", "chunk", i, "error", err)
			continue
		}
		matches, err := r.vectors.SearchSimilar(ctx, userID, vector, r.topK)
		if err != nil {
			slog.Warn("query chunk search failed", "chunk", i, "error", err)
			continue
		}
		flat = append(flat, matches...)
	}

	return dedupeBySource(flat), nil
}

// dedupeBySource keeps the first match for each source document. The input
// slice is ordered and that order decides which duplicate survives, so no
// unordered set here.
func dedupeBySource(matches []domain.RetrievalMatch) []domain.RetrievalMatch {
	seen := make(map[string]struct{}, len(matches))
	var unique []domain.RetrievalMatch
	for _, m := range matches {
		key := m.Metadata.SourceID
		if key == "" {
			key = fmt.Sprintf("doc:%s", m.ID)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, m)
	}
	return unique
}
