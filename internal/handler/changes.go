package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// changeStore is the slice of the relational store change endpoints need.
type changeStore interface {
	ListDocumentChangesByBot(ctx context.Context, meetingBotID string) ([]domain.DocumentChange, error)
	GetDocumentChange(ctx context.Context, id string) (*domain.DocumentChange, error)
	UpdateDocumentChangeStatus(ctx context.Context, id, status string) error
	GetMeetingBotByID(ctx context.Context, id string) (*domain.MeetingBot, error)
	GetWorkspaceConfigByUser(ctx context.Context, userID string) (*domain.WorkspaceConfig, error)
}

// ChangesHandler exposes the audit trail of wiki updates and lets users
// roll one back.
type ChangesHandler struct {
	store       changeStore
	wikiFactory port.DocumentStoreFactory
}

// NewChangesHandler creates a new changes handler.
func NewChangesHandler(store changeStore, wikiFactory port.DocumentStoreFactory) *ChangesHandler {
	return &ChangesHandler{store: store, wikiFactory: wikiFactory}
}

// Register sets up change routes.
func (h *ChangesHandler) Register(router fiber.Router) {
	changes := router.Group("/changes")
	changes.Get("/", h.List)
	changes.Post("/:id/revert", h.Revert)
}

// List returns the changes recorded for one meeting bot, newest first.
func (h *ChangesHandler) List(c fiber.Ctx) error {
	botID := c.Query("bot_id")
	if botID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bot_id is required"})
	}

	changes, err := h.store.ListDocumentChangesByBot(c.Context(), botID)
	if err != nil {
		slog.Error("list changes failed", "bot_id", botID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list changes"})
	}
	if changes == nil {
		changes = []domain.DocumentChange{}
	}
	return c.JSON(fiber.Map{"changes": changes})
}

// Revert restores a page to the content recorded before the sync wrote to it.
// Newly created pages carry no original content and cannot be reverted.
func (h *ChangesHandler) Revert(c fiber.Ctx) error {
	change, err := h.store.GetDocumentChange(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "change not found"})
	}
	if change.Status == domain.ChangeStatusReverted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "change already reverted"})
	}
	if change.OriginalContent == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "created pages cannot be reverted"})
	}

	bot, err := h.store.GetMeetingBotByID(c.Context(), change.MeetingBotID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "owning bot not found"})
	}
	cfg, err := h.store.GetWorkspaceConfigByUser(c.Context(), bot.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "workspace not configured"})
	}

	wiki := h.wikiFactory(*cfg)
	page, err := wiki.GetPage(c.Context(), change.PageID)
	if err != nil {
		slog.Error("revert: fetch page failed", "page_id", change.PageID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not read page"})
	}

	if _, err := wiki.UpdatePage(c.Context(), page.ID, page.Title, *change.OriginalContent, page.Version); err != nil {
		if errors.Is(err, port.ErrVersionConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "page changed since, revert manually"})
		}
		slog.Error("revert: update page failed", "page_id", change.PageID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not update page"})
	}

	if err := h.store.UpdateDocumentChangeStatus(c.Context(), change.ID, domain.ChangeStatusReverted); err != nil {
		slog.Error("revert: status update failed", "change_id", change.ID, "error", err)
	}

	return c.JSON(fiber.Map{"status": domain.ChangeStatusReverted})
}
