package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

type noopReducer struct{}

func (noopReducer) Reduce(_ context.Context, document, _ string) string { return document }

type markingReducer struct{}

func (markingReducer) Reduce(_ context.Context, document, _ string) string {
	return "reduced: " + document
}

type fakeVectorWriter struct {
	docs    []domain.EmbeddedDocument
	stored  map[string]string
	deleted []string
}

func (f *fakeVectorWriter) UpsertDocuments(_ context.Context, docs []domain.EmbeddedDocument) error {
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeVectorWriter) StoredText(_ context.Context, sourceID string) (string, bool, error) {
	text, ok := f.stored[sourceID]
	return text, ok, nil
}

func (f *fakeVectorWriter) DeleteBySource(_ context.Context, sourceID string) error {
	f.deleted = append(f.deleted, sourceID)
	return nil
}

type fakeIngestStore struct {
	configs   []domain.WorkspaceConfig
	spaceKeys map[string]string
}

func (f *fakeIngestStore) ListWorkspaceConfigs(_ context.Context) ([]domain.WorkspaceConfig, error) {
	return f.configs, nil
}

func (f *fakeIngestStore) UpdateSpaceKey(_ context.Context, userID, spaceKey string) error {
	if f.spaceKeys == nil {
		f.spaceKeys = map[string]string{}
	}
	f.spaceKeys[userID] = spaceKey
	return nil
}

func newTestIngestor(vectors *fakeVectorWriter, store *fakeIngestStore, wiki *fakeWiki) *Ingestor {
	return NewIngestor(&fakeAI{}, vectors, store,
		func(domain.WorkspaceConfig) port.DocumentStore { return wiki },
		noopReducer{},
		IngestConfig{ChunkSize: 1200, MetadataBytes: 100},
	)
}

func TestVectorizeSpace(t *testing.T) {
	vectors := &fakeVectorWriter{}
	store := &fakeIngestStore{}
	wiki := newFakeWiki(
		port.Page{ID: "p1", Title: "Release process", Content: "How we cut releases.", Version: 1},
	)
	ing := newTestIngestor(vectors, store, wiki)

	n, err := ing.VectorizeSpace(context.Background(), testWorkspace(), "ENG", false)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ENG", store.spaceKeys["user-1"], "space key recorded for the refresh job")

	require.NotEmpty(t, vectors.docs)
	meta := vectors.docs[0].Metadata
	assert.Equal(t, "p1", meta.SourceID)
	assert.Equal(t, "user-1", meta.UserID)
	assert.Equal(t, "https://acme.example.com/wiki/spaces/ENG/pages/p1", meta.URL)
	assert.Equal(t, "How we cut releases.", meta.Extra["text"])
	assert.NotEmpty(t, vectors.docs[0].Vector)
}

func TestVectorizeSpaceSummarized(t *testing.T) {
	vectors := &fakeVectorWriter{}
	store := &fakeIngestStore{}
	wiki := newFakeWiki(port.Page{ID: "p1", Title: "Long", Content: "page body", Version: 1})
	ing := NewIngestor(&fakeAI{}, vectors, store,
		func(domain.WorkspaceConfig) port.DocumentStore { return wiki },
		markingReducer{},
		IngestConfig{ChunkSize: 1200, MetadataBytes: 100},
	)

	_, err := ing.VectorizeSpace(context.Background(), testWorkspace(), "ENG", true)

	require.NoError(t, err)
	require.NotEmpty(t, vectors.docs)
	assert.Equal(t, "reduced: page body", vectors.docs[0].Content)
	assert.Equal(t, "page body", vectors.docs[0].Metadata.Extra["text"],
		"change detection compares raw page text, not the summary")
}

func TestRefreshSkipsUnchangedPages(t *testing.T) {
	content := "Stable page content."
	vectors := &fakeVectorWriter{stored: map[string]string{"p1": content}}
	cfg := testWorkspace()
	store := &fakeIngestStore{configs: []domain.WorkspaceConfig{cfg}}
	wiki := newFakeWiki(port.Page{ID: "p1", Title: "Stable", Content: content, Version: 2})
	ing := newTestIngestor(vectors, store, wiki)

	n, err := ing.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, vectors.deleted)
	assert.Empty(t, vectors.docs)
}

func TestRefreshReingestsChangedPages(t *testing.T) {
	vectors := &fakeVectorWriter{stored: map[string]string{"p1": "old text"}}
	cfg := testWorkspace()
	store := &fakeIngestStore{configs: []domain.WorkspaceConfig{cfg}}
	wiki := newFakeWiki(port.Page{ID: "p1", Title: "Edited", Content: "new text entirely", Version: 5})
	ing := newTestIngestor(vectors, store, wiki)

	n, err := ing.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"p1"}, vectors.deleted, "stale chunks deleted before re-ingestion")
	require.NotEmpty(t, vectors.docs)
	assert.Equal(t, "new text entirely", vectors.docs[0].Metadata.Extra["text"])
}

func TestRefreshSkipsWorkspacesWithoutSpaceKey(t *testing.T) {
	vectors := &fakeVectorWriter{}
	cfg := testWorkspace()
	cfg.SpaceKey = ""
	store := &fakeIngestStore{configs: []domain.WorkspaceConfig{cfg}}
	ing := newTestIngestor(vectors, store, newFakeWiki())

	n, err := ing.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, vectors.docs)
}
