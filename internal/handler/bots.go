package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// botRecordStore is the slice of the relational store bot endpoints need.
type botRecordStore interface {
	CreateMeetingBot(ctx context.Context, b *domain.MeetingBot) (*domain.MeetingBot, error)
	GetMeetingBotByExternalID(ctx context.Context, botID string) (*domain.MeetingBot, error)
}

// BotEvent is one status update of a meeting bot as pushed to SSE clients.
type BotEvent struct {
	BotID     string    `json:"bot_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BotTracker fans bot status updates out to SSE subscribers in memory. The
// database stays the source of truth; the tracker only carries live updates.
type BotTracker struct {
	mu     sync.RWMutex
	latest map[string]BotEvent
	subs   map[string][]chan BotEvent // subscribers per bot
}

// NewBotTracker creates a new bot tracker.
func NewBotTracker() *BotTracker {
	return &BotTracker{
		latest: make(map[string]BotEvent),
		subs:   make(map[string][]chan BotEvent),
	}
}

// Notify records a bot's latest status and wakes its subscribers.
func (t *BotTracker) Notify(botID, status, errMsg string) {
	event := BotEvent{BotID: botID, Status: status, Error: errMsg, UpdatedAt: time.Now()}

	t.mu.Lock()
	t.latest[botID] = event
	subs := t.subs[botID]
	t.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Latest returns the most recent event seen for a bot.
func (t *BotTracker) Latest(botID string) (BotEvent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	event, ok := t.latest[botID]
	return event, ok
}

// Subscribe returns a channel that receives status updates for one bot.
func (t *BotTracker) Subscribe(botID string) chan BotEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan BotEvent, 10)
	t.subs[botID] = append(t.subs[botID], ch)
	return ch
}

// Unsubscribe removes a channel from subscribers.
func (t *BotTracker) Unsubscribe(botID string, ch chan BotEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subs[botID]
	for i, s := range subs {
		if s == ch {
			t.subs[botID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(ch)
}

func terminal(status string) bool {
	return status == domain.BotStatusCompleted || status == domain.BotStatusFailed
}

// BotsHandler handles meeting bot endpoints.
type BotsHandler struct {
	store        botRecordStore
	recorder     port.Recorder
	tracker      *BotTracker
	webhookURL   string
	allowedHosts []string
}

// NewBotsHandler creates a new bots handler. webhookURL is the public callback
// address the recorder will deliver events to.
func NewBotsHandler(pgStore botRecordStore, recorder port.Recorder, tracker *BotTracker, webhookURL string, allowedHosts []string) *BotsHandler {
	return &BotsHandler{
		store:        pgStore,
		recorder:     recorder,
		tracker:      tracker,
		webhookURL:   webhookURL,
		allowedHosts: allowedHosts,
	}
}

// Register sets up bot routes.
func (h *BotsHandler) Register(router fiber.Router) {
	bots := router.Group("/meeting/bots")
	bots.Post("/", h.Create)
	bots.Get("/:id", h.Get)
	bots.Get("/:id/stream", h.StreamSSE)
}

// Create validates the meeting URL, asks the recorder to join the meeting,
// and stores the resulting bot in pending state.
func (h *BotsHandler) Create(c fiber.Ctx) error {
	var body struct {
		UserID     string `json:"user_id"`
		MeetingURL string `json:"meeting_url"`
		BotName    string `json:"bot_name"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.UserID == "" || body.MeetingURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and meeting_url are required"})
	}
	if !h.meetingHostAllowed(body.MeetingURL) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "meeting host not allowed"})
	}

	botID, err := h.recorder.CreateBot(c.Context(), body.MeetingURL, h.webhookURL)
	if err != nil {
		slog.Error("recorder bot creation failed", "meeting_url", body.MeetingURL, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not create meeting bot"})
	}

	bot, err := h.store.CreateMeetingBot(c.Context(), &domain.MeetingBot{
		UserID:     body.UserID,
		BotID:      botID,
		BotName:    body.BotName,
		MeetingURL: body.MeetingURL,
	})
	if err != nil {
		slog.Error("persist meeting bot failed", "bot_id", botID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store meeting bot"})
	}

	h.tracker.Notify(botID, bot.Status, "")
	return c.Status(fiber.StatusCreated).JSON(bot)
}

// Get returns one bot by its external id.
func (h *BotsHandler) Get(c fiber.Ctx) error {
	bot, err := h.store.GetMeetingBotByExternalID(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "bot not found"})
	}
	return c.JSON(bot)
}

// StreamSSE streams bot status updates via Server-Sent Events.
func (h *BotsHandler) StreamSSE(c fiber.Ctx) error {
	botID := c.Params("id")

	bot, err := h.store.GetMeetingBotByExternalID(c.Context(), botID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "bot not found"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	// Already terminal: send the final status and end the stream.
	if terminal(bot.Status) {
		data, _ := json.Marshal(BotEvent{BotID: botID, Status: bot.Status, UpdatedAt: bot.UpdatedAt})
		return c.SendString(fmt.Sprintf("event: %s\ndata: %s\n\n", bot.Status, string(data)))
	}

	ch := h.tracker.Subscribe(botID)
	initial := BotEvent{BotID: botID, Status: bot.Status, UpdatedAt: bot.UpdatedAt}
	if latest, ok := h.tracker.Latest(botID); ok {
		initial = latest
	}

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.tracker.Unsubscribe(botID, ch)

		data, _ := json.Marshal(initial)
		fmt.Fprintf(w, "event: status\ndata: %s\n\n", string(data))
		w.Flush()

		timeout := time.After(2 * time.Hour)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				eventType := "status"
				if terminal(event.Status) {
					eventType = event.Status
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, string(data))
				w.Flush()

				if terminal(event.Status) {
					return
				}
			case <-timeout:
				slog.Warn("SSE timeout", "bot_id", botID)
				return
			}
		}
	})
}

// meetingHostAllowed checks the URL host against the allow-list, accepting
// exact matches and subdomains.
func (h *BotsHandler) meetingHostAllowed(meetingURL string) bool {
	u, err := url.Parse(meetingURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range h.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
