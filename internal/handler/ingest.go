package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// ingestStore is the slice of the relational store ingestion endpoints need.
type ingestStore interface {
	GetWorkspaceConfigByUser(ctx context.Context, userID string) (*domain.WorkspaceConfig, error)
}

// spaceIngestor runs ingestion jobs.
type spaceIngestor interface {
	VectorizeSpace(ctx context.Context, cfg domain.WorkspaceConfig, spaceKey string, summarize bool) (int, error)
	RefreshAll(ctx context.Context) (int, error)
}

// IngestHandler handles document ingestion endpoints.
type IngestHandler struct {
	store    ingestStore
	ingestor spaceIngestor
	cronAuth fiber.Handler
}

// NewIngestHandler creates a new ingest handler. cronAuth guards the refresh
// endpoint, which is meant to be hit by a scheduler, not end users.
func NewIngestHandler(store ingestStore, ingestor spaceIngestor, cronAuth fiber.Handler) *IngestHandler {
	return &IngestHandler{store: store, ingestor: ingestor, cronAuth: cronAuth}
}

// Register sets up ingestion routes.
func (h *IngestHandler) Register(router fiber.Router) {
	router.Post("/spaces/vectorize", h.Vectorize)
	router.Post("/cron/update-documents", h.cronAuth, h.Refresh)
}

// Vectorize ingests one wiki space into the vector store.
func (h *IngestHandler) Vectorize(c fiber.Ctx) error {
	var body struct {
		UserID    string `json:"user_id"`
		SpaceKey  string `json:"space_key"`
		Summarize bool   `json:"summarize"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.UserID == "" || body.SpaceKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and space_key are required"})
	}

	cfg, err := h.store.GetWorkspaceConfigByUser(c.Context(), body.UserID)
	if err != nil {
		if errors.Is(err, port.ErrConfigNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "workspace not configured"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load workspace"})
	}

	pages, err := h.ingestor.VectorizeSpace(c.Context(), *cfg, body.SpaceKey, body.Summarize)
	if err != nil {
		slog.Error("space vectorization failed", "space", body.SpaceKey, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not read wiki space"})
	}

	return c.JSON(fiber.Map{"space_key": body.SpaceKey, "pages": pages})
}

// Refresh re-ingests changed pages across all workspaces.
func (h *IngestHandler) Refresh(c fiber.Ctx) error {
	refreshed, err := h.ingestor.RefreshAll(c.Context())
	if err != nil {
		slog.Error("document refresh failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "refresh failed"})
	}
	return c.JSON(fiber.Map{"refreshed": refreshed})
}
