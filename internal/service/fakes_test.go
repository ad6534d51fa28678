package service

import (
	"context"
	"sync"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// fakeAI is a scriptable AIProvider for service tests.
type fakeAI struct {
	mu         sync.Mutex
	completeFn func(prompt string) (string, error)
	embedFn    func(text string) ([]float32, error)
	prompts    []string
}

func (f *fakeAI) ModelName() string { return "fake" }

func (f *fakeAI) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.completeFn == nil {
		return "", nil
	}
	return f.completeFn(prompt)
}

func (f *fakeAI) completeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeAI) Embed(_ context.Context, text string) ([]float32, error) {
	if f.embedFn == nil {
		return []float32{0.1, 0.2}, nil
	}
	return f.embedFn(text)
}

func (f *fakeAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeAI) Chat(_ context.Context, _, _ string, _ []string) (string, error) {
	return "", nil
}

func (f *fakeAI) ChatStream(_ context.Context, _, _ string, _ []string) (<-chan string, error) {
	ch := make(chan string)
	close(ch)
	return ch, nil
}

// fakeChangeWriter records audit writes in memory.
type fakeChangeWriter struct {
	mu      sync.Mutex
	changes []domain.DocumentChange
}

func (f *fakeChangeWriter) InsertDocumentChange(_ context.Context, ch *domain.DocumentChange) (*domain.DocumentChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch.ID = "change-" + ch.PageID
	f.changes = append(f.changes, *ch)
	return ch, nil
}

func (f *fakeChangeWriter) UpdateDocumentChangeStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.changes {
		if f.changes[i].ID == id {
			f.changes[i].Status = status
		}
	}
	return nil
}

// fakeWiki is an in-memory DocumentStore keyed by page id.
type fakeWiki struct {
	pages     map[string]*port.Page
	updateErr map[string]error
	created   []port.Page
}

func newFakeWiki(pages ...port.Page) *fakeWiki {
	w := &fakeWiki{pages: map[string]*port.Page{}, updateErr: map[string]error{}}
	for i := range pages {
		p := pages[i]
		w.pages[p.ID] = &p
	}
	return w
}

func (w *fakeWiki) GetPage(_ context.Context, pageID string) (*port.Page, error) {
	p, ok := w.pages[pageID]
	if !ok {
		return nil, port.ErrPageNotFound
	}
	copied := *p
	return &copied, nil
}

func (w *fakeWiki) UpdatePage(_ context.Context, pageID, title, content string, expectedVersion int) (int, error) {
	if err := w.updateErr[pageID]; err != nil {
		return 0, err
	}
	p, ok := w.pages[pageID]
	if !ok {
		return 0, port.ErrPageNotFound
	}
	if p.Version != expectedVersion {
		return 0, port.ErrVersionConflict
	}
	p.Title = title
	p.Content = content
	p.Version++
	return p.Version, nil
}

func (w *fakeWiki) CreatePage(_ context.Context, spaceKey, title, content string) (*port.Page, error) {
	p := port.Page{ID: "new-page", Title: title, Content: content, Version: 1}
	w.created = append(w.created, p)
	w.pages[p.ID] = &p
	return &p, nil
}

func (w *fakeWiki) ListPages(_ context.Context, spaceKey string) ([]port.Page, error) {
	var out []port.Page
	for _, p := range w.pages {
		out = append(out, *p)
	}
	return out, nil
}

// fakeTracker records created issues.
type fakeTracker struct {
	mu     sync.Mutex
	issues []port.IssueRequest
	err    error
}

func (t *fakeTracker) CreateIssue(_ context.Context, req port.IssueRequest) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issues = append(t.issues, req)
	return "TM-1", nil
}
