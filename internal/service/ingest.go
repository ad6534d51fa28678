package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teammind-ai/backend/internal/chunker"
	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// vectorWriter is the slice of the vector store ingestion needs.
type vectorWriter interface {
	UpsertDocuments(ctx context.Context, docs []domain.EmbeddedDocument) error
	StoredText(ctx context.Context, sourceID string) (string, bool, error)
	DeleteBySource(ctx context.Context, sourceID string) error
}

// ingestStore is the slice of the relational store ingestion needs.
type ingestStore interface {
	ListWorkspaceConfigs(ctx context.Context) ([]domain.WorkspaceConfig, error)
	UpdateSpaceKey(ctx context.Context, userID, spaceKey string) error
}

// reducer compresses page content under the embedding budget.
type reducer interface {
	Reduce(ctx context.Context, document, inquiry string) string
}

// IngestConfig tunes ingestion.
type IngestConfig struct {
	// ChunkSize is the target chunk length for embedding.
	ChunkSize int
	// MetadataBytes caps the full-text copy stored in chunk metadata.
	MetadataBytes int
}

// Ingestor pulls wiki pages into the vector store.
type Ingestor struct {
	ai          port.AIProvider
	vectors     vectorWriter
	store       ingestStore
	wikiFactory port.DocumentStoreFactory
	reduce      reducer
	cfg         IngestConfig
}

// NewIngestor creates an ingestor.
func NewIngestor(ai port.AIProvider, vectors vectorWriter, store ingestStore, wikiFactory port.DocumentStoreFactory, reduce reducer, cfg IngestConfig) *Ingestor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1200
	}
	if cfg.MetadataBytes <= 0 {
		cfg.MetadataBytes = 36000
	}
	return &Ingestor{ai: ai, vectors: vectors, store: store, wikiFactory: wikiFactory, reduce: reduce, cfg: cfg}
}

// VectorizeSpace ingests every page of one wiki space for a user and records
// the space key on the workspace so the refresh job can find it again. With
// summarize set, page content is compressed under the soft budget before
// chunking. A failing page is logged and skipped; the page count of
// successfully ingested pages comes back.
func (ing *Ingestor) VectorizeSpace(ctx context.Context, cfg domain.WorkspaceConfig, spaceKey string, summarize bool) (int, error) {
	wiki := ing.wikiFactory(cfg)

	pages, err := wiki.ListPages(ctx, spaceKey)
	if err != nil {
		return 0, fmt.Errorf("list pages in space %s: %w", spaceKey, err)
	}

	ingested := 0
	for _, page := range pages {
		if err := ing.ingestPage(ctx, cfg, spaceKey, page, summarize); err != nil {
			slog.Error("page ingestion failed", "page_id", page.ID, "title", page.Title, "error", err)
			continue
		}
		ingested++
	}

	if err := ing.store.UpdateSpaceKey(ctx, cfg.UserID, spaceKey); err != nil {
		slog.Error("record space key failed", "user_id", cfg.UserID, "error", err)
	}

	slog.Info("space vectorized", "space", spaceKey, "pages", ingested, "total", len(pages))
	return ingested, nil
}

// RefreshAll re-ingests changed pages across every configured workspace.
// Unchanged pages are detected by comparing the wiki content against the
// full-text copy stored in chunk metadata; changed or new pages are deleted
// from the vector store and ingested fresh. Per-workspace and per-page
// failures are logged and skipped.
func (ing *Ingestor) RefreshAll(ctx context.Context) (int, error) {
	configs, err := ing.store.ListWorkspaceConfigs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list workspaces: %w", err)
	}

	refreshed := 0
	for _, cfg := range configs {
		if cfg.SpaceKey == "" {
			continue
		}
		n, err := ing.refreshWorkspace(ctx, cfg)
		if err != nil {
			slog.Error("workspace refresh failed", "user_id", cfg.UserID, "error", err)
			continue
		}
		refreshed += n
	}
	return refreshed, nil
}

func (ing *Ingestor) refreshWorkspace(ctx context.Context, cfg domain.WorkspaceConfig) (int, error) {
	wiki := ing.wikiFactory(cfg)

	pages, err := wiki.ListPages(ctx, cfg.SpaceKey)
	if err != nil {
		return 0, fmt.Errorf("list pages: %w", err)
	}

	refreshed := 0
	for _, page := range pages {
		stored, exists, err := ing.vectors.StoredText(ctx, page.ID)
		if err != nil {
			slog.Error("stored text lookup failed", "page_id", page.ID, "error", err)
			continue
		}
		if exists && stored == chunker.TruncateBytes(page.Content, ing.cfg.MetadataBytes) {
			continue
		}

		if exists {
			if err := ing.vectors.DeleteBySource(ctx, page.ID); err != nil {
				slog.Error("delete stale chunks failed", "page_id", page.ID, "error", err)
				continue
			}
		}
		if err := ing.ingestPage(ctx, cfg, cfg.SpaceKey, page, false); err != nil {
			slog.Error("page refresh failed", "page_id", page.ID, "error", err)
			continue
		}
		refreshed++
	}

	slog.Info("workspace refreshed", "user_id", cfg.UserID, "space", cfg.SpaceKey, "pages", refreshed)
	return refreshed, nil
}

// ingestPage chunks, embeds, and stores one page. Every chunk carries the same
// metadata, including a truncated copy of the full page text used for change
// detection on refresh.
func (ing *Ingestor) ingestPage(ctx context.Context, cfg domain.WorkspaceConfig, spaceKey string, page port.Page, summarize bool) error {
	content := page.Content
	if summarize {
		content = ing.reduce.Reduce(ctx, content, "")
	}

	chunks := chunker.Split(content, ing.cfg.ChunkSize)
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := ing.ai.EmbedBatch(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed page %s: %w", page.ID, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed page %s: got %d vectors for %d chunks", page.ID, len(vectors), len(chunks))
	}

	metadata := domain.DocumentMetadata{
		SourceID: page.ID,
		Title:    page.Title,
		URL:      fmt.Sprintf("%s/wiki/spaces/%s/pages/%s", cfg.BaseURL, spaceKey, page.ID),
		SpaceKey: spaceKey,
		UserID:   cfg.UserID,
		Extra: map[string]string{
			"text": chunker.TruncateBytes(page.Content, ing.cfg.MetadataBytes),
		},
	}

	docs := make([]domain.EmbeddedDocument, len(chunks))
	for i, chunk := range chunks {
		docs[i] = domain.EmbeddedDocument{Content: chunk, Metadata: metadata, Vector: vectors[i]}
	}
	return ing.vectors.UpsertDocuments(ctx, docs)
}
