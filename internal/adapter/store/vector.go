package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/teammind-ai/backend/internal/domain"
)

// VectorStore handles pgvector-specific operations for ingested documents.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// UpsertDocuments persists (content, metadata, embedding) triples in one
// transaction.
func (v *VectorStore) UpsertDocuments(ctx context.Context, docs []domain.EmbeddedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (content, metadata, vector)
		 VALUES ($1, $2::jsonb, $3::vector)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		metadata, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, d.Content, metadata, vectorToString(d.Vector)); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}

	return tx.Commit()
}

// SearchSimilar performs a cosine similarity search over one user's documents.
func (v *VectorStore) SearchSimilar(ctx context.Context, userID string, queryVector []float32, limit int) ([]domain.RetrievalMatch, error) {
	query := `SELECT d.id, d.content, d.metadata::text,
	                 1 - (d.vector <=> $1::vector) AS similarity
	          FROM documents d
	          WHERE d.metadata->>'user_id' = $2
	          ORDER BY d.vector <=> $1::vector
	          LIMIT $3`

	rows, err := v.store.db.QueryContext(ctx, query, vectorToString(queryVector), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievalMatch
	for rows.Next() {
		var m domain.RetrievalMatch
		var metadata string
		if err := rows.Scan(&m.ID, &m.Content, &metadata, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		results = append(results, m)
	}
	return results, nil
}

// StoredText returns the truncated full text saved in a document's metadata,
// used by the refresh job to skip unchanged pages. The second return is false
// when no chunk for that source exists.
func (v *VectorStore) StoredText(ctx context.Context, sourceID string) (string, bool, error) {
	query := `SELECT d.metadata->'extra'->>'text'
	          FROM documents d
	          WHERE d.metadata->>'source_id' = $1
	          LIMIT 1`

	var text *string
	err := v.store.db.QueryRowContext(ctx, query, sourceID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("stored text: %w", err)
	}
	if text == nil {
		return "", true, nil
	}
	return *text, true, nil
}

// DeleteBySource removes every chunk of one source document. Re-ingestion
// after a delete is how a document is superseded.
func (v *VectorStore) DeleteBySource(ctx context.Context, sourceID string) error {
	query := `DELETE FROM documents WHERE metadata->>'source_id' = $1`
	_, err := v.store.db.ExecContext(ctx, query, sourceID)
	if err != nil {
		return fmt.Errorf("delete by source: %w", err)
	}
	return nil
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
