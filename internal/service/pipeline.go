package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teammind-ai/backend/internal/domain"
)

// transcriptAnalyzer is the analysis step as the pipeline sees it.
type transcriptAnalyzer interface {
	Analyze(ctx context.Context, transcript domain.Transcript) (*domain.AnalysisResult, error)
}

// documentRetriever is the retrieval step as the pipeline sees it.
type documentRetriever interface {
	Retrieve(ctx context.Context, userID, query string) ([]domain.RetrievalMatch, error)
}

// pageSyncer is the sync/emission step as the pipeline sees it.
type pageSyncer interface {
	Sync(ctx context.Context, cfg domain.WorkspaceConfig, meetingBotID string, analysis *domain.AnalysisResult, matches []domain.RetrievalMatch) ([]SyncedPage, error)
	EmitTasks(ctx context.Context, cfg domain.WorkspaceConfig, analysis *domain.AnalysisResult, pages []SyncedPage)
}

// MeetingPipeline runs the full post-meeting flow: normalize the transcript,
// analyze it, find the wiki pages it touches, push the notes out, and raise
// tracker issues for the action items.
type MeetingPipeline struct {
	analyzer  transcriptAnalyzer
	retriever documentRetriever
	syncer    pageSyncer
}

// NewMeetingPipeline creates a pipeline.
func NewMeetingPipeline(analyzer transcriptAnalyzer, retriever documentRetriever, syncer pageSyncer) *MeetingPipeline {
	return &MeetingPipeline{analyzer: analyzer, retriever: retriever, syncer: syncer}
}

// Run processes one completed meeting. Analysis failure aborts the run before
// anything external is touched. After analysis, the run is best-effort:
// retrieval failure degrades to the no-matches path, and sync/emission handle
// their own partial failures.
func (p *MeetingPipeline) Run(ctx context.Context, cfg domain.WorkspaceConfig, bot *domain.MeetingBot, segments []domain.TranscriptSegment) error {
	transcript := Normalize(segments)
	if len(transcript.Utterances) == 0 {
		return fmt.Errorf("empty transcript for bot %s", bot.BotID)
	}

	analysis, err := p.analyzer.Analyze(ctx, transcript)
	if err != nil {
		return fmt.Errorf("analyze transcript: %w", err)
	}
	slog.Info("transcript analyzed",
		"bot_id", bot.BotID,
		"action_items", len(analysis.ActionItems),
		"key_points", len(analysis.KeyPoints),
	)

	matches, err := p.retriever.Retrieve(ctx, bot.UserID, analysis.Summary)
	if err != nil {
		slog.Warn("document retrieval failed, creating standalone notes page", "bot_id", bot.BotID, "error", err)
		matches = nil
	}

	pages, err := p.syncer.Sync(ctx, cfg, bot.ID, analysis, matches)
	if err != nil {
		return fmt.Errorf("sync pages: %w", err)
	}

	p.syncer.EmitTasks(ctx, cfg, analysis, pages)
	return nil
}
