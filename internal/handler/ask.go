package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/teammind-ai/backend/internal/port"
)

// answerer answers questions against ingested documents.
type answerer interface {
	Ask(ctx context.Context, userID, prompt string, history []string) (string, []string, error)
}

// AskHandler handles the question-answering endpoint.
type AskHandler struct {
	ask answerer
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(ask answerer) *AskHandler {
	return &AskHandler{ask: ask}
}

// Register sets up the ask route.
func (h *AskHandler) Register(router fiber.Router) {
	router.Post("/ask", h.Ask)
}

// Ask answers one question from the user's knowledge base.
func (h *AskHandler) Ask(c fiber.Ctx) error {
	var body struct {
		UserID  string   `json:"user_id"`
		Prompt  string   `json:"prompt"`
		History []string `json:"conversation_history"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.UserID == "" || body.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and prompt are required"})
	}

	answer, sources, err := h.ask.Ask(c.Context(), body.UserID, body.Prompt, body.History)
	if err != nil {
		if errors.Is(err, port.ErrNoDocuments) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no matching documents, vectorize a space first"})
		}
		slog.Error("question answering failed", "user_id", body.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not answer question"})
	}

	return c.JSON(fiber.Map{"answer": answer, "sources": sources})
}
