package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// changeWriter is the slice of the relational store the syncer needs.
type changeWriter interface {
	InsertDocumentChange(ctx context.Context, ch *domain.DocumentChange) (*domain.DocumentChange, error)
	UpdateDocumentChangeStatus(ctx context.Context, id, status string) error
}

// SyncedPage is one wiki page touched by a sync run, carried forward so task
// emission can link issues back to it.
type SyncedPage struct {
	ID        string
	Title     string
	Relevance float64
}

// Syncer pushes meeting analysis results into the user's wiki and issue
// tracker using per-workspace credentials.
type Syncer struct {
	store          changeWriter
	wikiFactory    port.DocumentStoreFactory
	trackerFactory port.IssueTrackerFactory
	now            func() time.Time
}

// NewSyncer creates a syncer.
func NewSyncer(store changeWriter, wikiFactory port.DocumentStoreFactory, trackerFactory port.IssueTrackerFactory) *Syncer {
	return &Syncer{
		store:          store,
		wikiFactory:    wikiFactory,
		trackerFactory: trackerFactory,
		now:            time.Now,
	}
}

// Sync appends a dated meeting-notes section to every matched page, in rank
// order. Each page gets its audit record written before the external update
// is attempted, so a crash mid-update still leaves a trace. A failure on one
// page is logged and does not stop the others.
//
// With no matched documents at all, the notes are not dropped: a fresh
// "Meeting Notes - YYYY-MM-DD" page is created in the workspace's space
// instead.
func (s *Syncer) Sync(ctx context.Context, cfg domain.WorkspaceConfig, meetingBotID string, analysis *domain.AnalysisResult, matches []domain.RetrievalMatch) ([]SyncedPage, error) {
	wiki := s.wikiFactory(cfg)
	date := s.now().Format("2006-01-02")
	section := renderMeetingSection(date, analysis)

	if len(matches) == 0 {
		return s.createNotesPage(ctx, wiki, cfg, meetingBotID, date, section)
	}

	var synced []SyncedPage
	for _, match := range matches {
		pageID := match.Metadata.SourceID
		if pageID == "" {
			continue
		}

		page, err := wiki.GetPage(ctx, pageID)
		if err != nil {
			slog.Error("sync: fetch page failed", "page_id", pageID, "error", err)
			continue
		}

		original := page.Content
		merged := page.Content + section

		change := &domain.DocumentChange{
			MeetingBotID:    meetingBotID,
			PageID:          page.ID,
			PageTitle:       page.Title,
			OriginalContent: &original,
			UpdatedContent:  merged,
			Status:          domain.ChangeStatusPending,
		}
		if _, err := s.store.InsertDocumentChange(ctx, change); err != nil {
			slog.Error("sync: record change failed", "page_id", page.ID, "error", err)
			continue
		}

		if _, err := wiki.UpdatePage(ctx, page.ID, page.Title, merged, page.Version); err != nil {
			slog.Error("sync: update page failed", "page_id", page.ID, "error", err)
			continue
		}

		synced = append(synced, SyncedPage{ID: page.ID, Title: page.Title, Relevance: match.Similarity})
	}
	return synced, nil
}

// createNotesPage handles the no-matches case. The page is new, so the audit
// record has no original content and is immediately applied.
func (s *Syncer) createNotesPage(ctx context.Context, wiki port.DocumentStore, cfg domain.WorkspaceConfig, meetingBotID, date, section string) ([]SyncedPage, error) {
	title := "Meeting Notes - " + date

	page, err := wiki.CreatePage(ctx, cfg.SpaceKey, title, section)
	if err != nil {
		return nil, fmt.Errorf("create notes page: %w", err)
	}

	change := &domain.DocumentChange{
		MeetingBotID:   meetingBotID,
		PageID:         page.ID,
		PageTitle:      title,
		UpdatedContent: section,
		Status:         domain.ChangeStatusApplied,
	}
	if _, err := s.store.InsertDocumentChange(ctx, change); err != nil {
		slog.Error("sync: record created page failed", "page_id", page.ID, "error", err)
	}

	return []SyncedPage{{ID: page.ID, Title: title, Relevance: 0}}, nil
}

// EmitTasks creates one tracker issue per action item, each linking the three
// most relevant synchronized pages. Emission is best-effort: a failed issue is
// logged, never rolled back, and never fails the run. Workspaces without a
// project key skip emission entirely.
func (s *Syncer) EmitTasks(ctx context.Context, cfg domain.WorkspaceConfig, analysis *domain.AnalysisResult, pages []SyncedPage) {
	if cfg.ProjectKey == "" || len(analysis.ActionItems) == 0 {
		return
	}

	tracker := s.trackerFactory(cfg)

	ranked := make([]SyncedPage, len(pages))
	copy(ranked, pages)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Relevance > ranked[j].Relevance })
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	links := make([]port.PageLink, 0, len(ranked))
	for _, p := range ranked {
		links = append(links, port.PageLink{PageID: p.ID, Title: p.Title})
	}

	for _, item := range analysis.ActionItems {
		req := port.IssueRequest{
			ProjectKey:  cfg.ProjectKey,
			Summary:     item.Title,
			Description: item.Description,
			IssueType:   "Task",
			Priority:    item.Priority,
			Assignee:    item.Assignee,
			DueDate:     item.DueDate,
			Links:       links,
		}
		key, err := tracker.CreateIssue(ctx, req)
		if err != nil {
			slog.Error("task emission failed", "title", item.Title, "error", err)
			continue
		}
		slog.Info("task created", "key", key, "title", item.Title)
	}
}

// renderMeetingSection builds the storage-format block appended to each page.
func renderMeetingSection(date string, a *domain.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(`<hr/><h2>Meeting Notes - ` + date + `</h2>`)
	b.WriteString(`<ac:structured-macro ac:name="info"><ac:rich-text-body>`)
	b.WriteString(`<p>` + html.EscapeString(a.Summary) + `</p>`)
	b.WriteString(`</ac:rich-text-body></ac:structured-macro>`)

	if len(a.KeyPoints) > 0 {
		b.WriteString(`<h3>Key Points</h3><ul>`)
		for _, p := range a.KeyPoints {
			b.WriteString(`<li>` + html.EscapeString(p) + `</li>`)
		}
		b.WriteString(`</ul>`)
	}
	if len(a.Decisions) > 0 {
		b.WriteString(`<h3>Decisions</h3><ul>`)
		for _, d := range a.Decisions {
			b.WriteString(`<li>` + html.EscapeString(d) + `</li>`)
		}
		b.WriteString(`</ul>`)
	}
	if len(a.ActionItems) > 0 {
		b.WriteString(`<h3>Action Items</h3><ul>`)
		for _, item := range a.ActionItems {
			b.WriteString(`<li><strong>` + html.EscapeString(item.Title) + `</strong>: ` + html.EscapeString(item.Description))
			if item.Assignee != "" {
				b.WriteString(` (` + html.EscapeString(item.Assignee) + `)`)
			}
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)
	}
	return b.String()
}
