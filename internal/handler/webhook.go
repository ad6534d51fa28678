package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/service"
)

// Recorder webhook event types, stored and matched verbatim.
const (
	eventStatusChange = "bot.status_change"
	eventComplete     = "complete"
	eventFailed       = "failed"
)

// botStore is the slice of the relational store webhook handling needs.
type botStore interface {
	GetMeetingBotByExternalID(ctx context.Context, botID string) (*domain.MeetingBot, error)
	UpdateMeetingBotStatus(ctx context.Context, botID, status string) error
	GetWorkspaceConfigByUser(ctx context.Context, userID string) (*domain.WorkspaceConfig, error)
}

// meetingRunner runs the post-meeting pipeline.
type meetingRunner interface {
	Run(ctx context.Context, cfg domain.WorkspaceConfig, bot *domain.MeetingBot, segments []domain.TranscriptSegment) error
}

// webhookPayload is the event envelope the recorder delivers.
type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		BotID  string `json:"bot_id"`
		Status struct {
			Code string `json:"code"`
		} `json:"status"`
		Transcript []domain.TranscriptSegment `json:"transcript"`
		Error      string                     `json:"error"`
	} `json:"data"`
}

// WebhookHandler receives meeting lifecycle events from the recorder.
type WebhookHandler struct {
	store    botStore
	pipeline meetingRunner
	tracker  *BotTracker
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(store botStore, pipeline meetingRunner, tracker *BotTracker) *WebhookHandler {
	return &WebhookHandler{store: store, pipeline: pipeline, tracker: tracker}
}

// Register sets up the webhook route. The recorder calls it unauthenticated,
// so unknown bot ids must not leak anything.
func (h *WebhookHandler) Register(router fiber.Router) {
	router.Post("/meeting/webhook", h.Receive)
}

// Receive dispatches one recorder event. Unknown event types are rejected
// without touching any state.
func (h *WebhookHandler) Receive(c fiber.Ctx) error {
	var payload webhookPayload
	if err := c.Bind().JSON(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if payload.Data.BotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bot_id is required"})
	}

	bot, err := h.store.GetMeetingBotByExternalID(c.Context(), payload.Data.BotID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown bot"})
	}

	switch payload.Event {
	case eventStatusChange:
		return h.statusChange(c, bot, payload.Data.Status.Code)
	case eventComplete:
		return h.complete(c, bot, payload.Data.Transcript)
	case eventFailed:
		return h.failed(c, bot, payload.Data.Error)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown event type"})
	}
}

// statusChange stores the recorder's status code verbatim.
func (h *WebhookHandler) statusChange(c fiber.Ctx, bot *domain.MeetingBot, code string) error {
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status code is required"})
	}
	if err := h.store.UpdateMeetingBotStatus(c.Context(), bot.BotID, code); err != nil {
		slog.Error("status update failed", "bot_id", bot.BotID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not update status"})
	}
	h.tracker.Notify(bot.BotID, code, "")
	return c.JSON(fiber.Map{"status": code})
}

// complete runs the full post-meeting pipeline. The terminal status written
// afterwards reflects the pipeline outcome, not the recorder's report.
func (h *WebhookHandler) complete(c fiber.Ctx, bot *domain.MeetingBot, segments []domain.TranscriptSegment) error {
	cfg, err := h.store.GetWorkspaceConfigByUser(c.Context(), bot.UserID)
	if err != nil {
		slog.Error("workspace config missing", "bot_id", bot.BotID, "user_id", bot.UserID, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "workspace not configured"})
	}

	runID := uuid.New().String()
	normalized := service.Normalize(segments)
	slog.Info("meeting completed",
		"bot_id", bot.BotID,
		"run_id", runID,
		"segments", len(segments),
		"speakers", len(normalized.Speakers),
	)

	if err := h.pipeline.Run(c.Context(), *cfg, bot, segments); err != nil {
		slog.Error("meeting pipeline failed", "bot_id", bot.BotID, "run_id", runID, "error", err)
		h.setTerminal(c.Context(), bot.BotID, domain.BotStatusFailed, err.Error())
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "transcript processing failed"})
	}

	h.setTerminal(c.Context(), bot.BotID, domain.BotStatusCompleted, "")
	return c.JSON(fiber.Map{"status": domain.BotStatusCompleted})
}

// failed marks the bot failed as reported by the recorder.
func (h *WebhookHandler) failed(c fiber.Ctx, bot *domain.MeetingBot, errMsg string) error {
	h.setTerminal(c.Context(), bot.BotID, domain.BotStatusFailed, errMsg)
	slog.Warn("meeting bot failed", "bot_id", bot.BotID, "reason", errMsg)
	return c.JSON(fiber.Map{"status": domain.BotStatusFailed})
}

func (h *WebhookHandler) setTerminal(ctx context.Context, botID, status, errMsg string) {
	if err := h.store.UpdateMeetingBotStatus(ctx, botID, status); err != nil {
		slog.Error("terminal status update failed", "bot_id", botID, "status", status, "error", err)
	}
	h.tracker.Notify(botID, status, errMsg)
}
