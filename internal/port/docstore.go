package port

import (
	"context"

	"github.com/teammind-ai/backend/internal/domain"
)

// Page is one wiki page as read from the document store.
type Page struct {
	ID      string
	Title   string
	Content string
	Version int
}

// DocumentStore abstracts the wiki-style document store. Updates use
// optimistic concurrency: expectedVersion is the version read at fetch time,
// and a stale version fails with ErrVersionConflict.
type DocumentStore interface {
	GetPage(ctx context.Context, pageID string) (*Page, error)
	UpdatePage(ctx context.Context, pageID, title, content string, expectedVersion int) (int, error)
	CreatePage(ctx context.Context, spaceKey, title, content string) (*Page, error)
	ListPages(ctx context.Context, spaceKey string) ([]Page, error)
}

// DocumentStoreFactory builds a store client bound to one workspace's
// credentials.
type DocumentStoreFactory func(cfg domain.WorkspaceConfig) DocumentStore

// PageLink points a tracker issue back at a synchronized wiki page.
type PageLink struct {
	PageID string
	Title  string
}

// IssueRequest describes one tracker issue to create.
type IssueRequest struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
	Priority    string // empty = tracker default
	Assignee    string
	DueDate     string // YYYY-MM-DD, empty = none
	Links       []PageLink
}

// IssueTracker abstracts the external issue tracker.
type IssueTracker interface {
	CreateIssue(ctx context.Context, req IssueRequest) (string, error)
}

// IssueTrackerFactory builds a tracker client bound to one workspace's
// credentials.
type IssueTrackerFactory func(cfg domain.WorkspaceConfig) IssueTracker

// Recorder abstracts the external meeting recording service.
type Recorder interface {
	CreateBot(ctx context.Context, meetingURL, webhookURL string) (string, error)
}
