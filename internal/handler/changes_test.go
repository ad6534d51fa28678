package handler

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

type fakeChangeStore struct {
	changes  map[string]*domain.DocumentChange
	statuses map[string]string
	bot      *domain.MeetingBot
	config   *domain.WorkspaceConfig
}

func (f *fakeChangeStore) ListDocumentChangesByBot(_ context.Context, meetingBotID string) ([]domain.DocumentChange, error) {
	var out []domain.DocumentChange
	for _, ch := range f.changes {
		if ch.MeetingBotID == meetingBotID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (f *fakeChangeStore) GetDocumentChange(_ context.Context, id string) (*domain.DocumentChange, error) {
	ch, ok := f.changes[id]
	if !ok {
		return nil, port.ErrPageNotFound
	}
	return ch, nil
}

func (f *fakeChangeStore) UpdateDocumentChangeStatus(_ context.Context, id, status string) error {
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeChangeStore) GetMeetingBotByID(_ context.Context, _ string) (*domain.MeetingBot, error) {
	if f.bot == nil {
		return nil, port.ErrBotNotFound
	}
	return f.bot, nil
}

func (f *fakeChangeStore) GetWorkspaceConfigByUser(_ context.Context, _ string) (*domain.WorkspaceConfig, error) {
	if f.config == nil {
		return nil, port.ErrConfigNotFound
	}
	return f.config, nil
}

// fakePageStore is a minimal DocumentStore for revert tests.
type fakePageStore struct {
	page    *port.Page
	updated string
}

func (f *fakePageStore) GetPage(_ context.Context, _ string) (*port.Page, error) {
	if f.page == nil {
		return nil, port.ErrPageNotFound
	}
	return f.page, nil
}

func (f *fakePageStore) UpdatePage(_ context.Context, _, _, content string, _ int) (int, error) {
	f.updated = content
	return f.page.Version + 1, nil
}

func (f *fakePageStore) CreatePage(_ context.Context, _, _, _ string) (*port.Page, error) {
	return nil, nil
}

func (f *fakePageStore) ListPages(_ context.Context, _ string) ([]port.Page, error) {
	return nil, nil
}

func changesApp(store *fakeChangeStore, wiki *fakePageStore) *fiber.App {
	app := fiber.New()
	h := NewChangesHandler(store, func(domain.WorkspaceConfig) port.DocumentStore { return wiki })
	h.Register(app.Group("/api/v1"))
	return app
}

func original(s string) *string { return &s }

func seededChangeStore() *fakeChangeStore {
	return &fakeChangeStore{
		changes: map[string]*domain.DocumentChange{
			"ch-1": {
				ID:              "ch-1",
				MeetingBotID:    "mb-1",
				PageID:          "p1",
				PageTitle:       "Release process",
				OriginalContent: original("<p>before</p>"),
				UpdatedContent:  "<p>before</p><h2>Meeting Notes</h2>",
				Status:          domain.ChangeStatusPending,
			},
		},
		bot:    &domain.MeetingBot{ID: "mb-1", UserID: "user-1"},
		config: &domain.WorkspaceConfig{UserID: "user-1"},
	}
}

func TestListChangesRequiresBotID(t *testing.T) {
	app := changesApp(seededChangeStore(), &fakePageStore{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/changes/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/changes/?bot_id=mb-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRevertRestoresOriginalContent(t *testing.T) {
	store := seededChangeStore()
	wiki := &fakePageStore{page: &port.Page{ID: "p1", Title: "Release process", Content: "<p>after</p>", Version: 4}}
	app := changesApp(store, wiki)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/changes/ch-1/revert", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "<p>before</p>", wiki.updated)
	assert.Equal(t, domain.ChangeStatusReverted, store.statuses["ch-1"])
}

func TestRevertCreatedPageRejected(t *testing.T) {
	store := seededChangeStore()
	store.changes["ch-1"].OriginalContent = nil
	wiki := &fakePageStore{}
	app := changesApp(store, wiki)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/changes/ch-1/revert", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, wiki.updated)
}

func TestRevertAlreadyReverted(t *testing.T) {
	store := seededChangeStore()
	store.changes["ch-1"].Status = domain.ChangeStatusReverted
	app := changesApp(store, &fakePageStore{})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/changes/ch-1/revert", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRevertUnknownChange(t *testing.T) {
	app := changesApp(&fakeChangeStore{changes: map[string]*domain.DocumentChange{}}, &fakePageStore{})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/changes/nope/revert", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
