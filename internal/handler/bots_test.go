package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

type fakeBotRecordStore struct {
	bots    map[string]*domain.MeetingBot
	created []domain.MeetingBot
}

func (f *fakeBotRecordStore) CreateMeetingBot(_ context.Context, b *domain.MeetingBot) (*domain.MeetingBot, error) {
	b.ID = "mb-1"
	b.Status = domain.BotStatusPending
	f.created = append(f.created, *b)
	return b, nil
}

func (f *fakeBotRecordStore) GetMeetingBotByExternalID(_ context.Context, botID string) (*domain.MeetingBot, error) {
	bot, ok := f.bots[botID]
	if !ok {
		return nil, port.ErrBotNotFound
	}
	return bot, nil
}

type fakeRecorder struct {
	called     bool
	meetingURL string
	webhookURL string
}

func (f *fakeRecorder) CreateBot(_ context.Context, meetingURL, webhookURL string) (string, error) {
	f.called = true
	f.meetingURL = meetingURL
	f.webhookURL = webhookURL
	return "ext-1", nil
}

func botsApp(store *fakeBotRecordStore, recorder *fakeRecorder) *fiber.App {
	app := fiber.New()
	h := NewBotsHandler(store, recorder, NewBotTracker(),
		"https://api.example.com/api/meeting/webhook",
		[]string{"zoom.us", "meet.google.com", "teams.microsoft.com"},
	)
	h.Register(app.Group("/api/v1"))
	return app
}

func createBot(t *testing.T, app *fiber.App, meetingURL string) int {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"user_id":     "user-1",
		"meeting_url": meetingURL,
		"bot_name":    "TeamMind",
	})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/meeting/bots/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestCreateBot(t *testing.T) {
	store := &fakeBotRecordStore{}
	recorder := &fakeRecorder{}
	app := botsApp(store, recorder)

	status := createBot(t, app, "https://us02.zoom.us/j/1234567890")

	assert.Equal(t, fiber.StatusCreated, status)
	assert.True(t, recorder.called)
	assert.Equal(t, "https://api.example.com/api/meeting/webhook", recorder.webhookURL)
	require.Len(t, store.created, 1)
	assert.Equal(t, "ext-1", store.created[0].BotID)
}

func TestCreateBotHostAllowList(t *testing.T) {
	cases := map[string]struct {
		url  string
		want int
	}{
		"zoom exact":        {"https://zoom.us/j/1", fiber.StatusCreated},
		"zoom subdomain":    {"https://us02.zoom.us/j/1", fiber.StatusCreated},
		"google meet":       {"https://meet.google.com/abc-defg-hij", fiber.StatusCreated},
		"lookalike suffix":  {"https://notzoom.us/j/1", fiber.StatusBadRequest},
		"lookalike host":    {"https://zoom.us.evil.example/j/1", fiber.StatusBadRequest},
		"unknown host":      {"https://webex.com/meet/x", fiber.StatusBadRequest},
		"not a url":         {"zoom.us/j/1", fiber.StatusBadRequest},
		"javascript scheme": {"javascript:alert(1)", fiber.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			app := botsApp(&fakeBotRecordStore{}, recorder)

			assert.Equal(t, tc.want, createBot(t, app, tc.url))
			if tc.want != fiber.StatusCreated {
				assert.False(t, recorder.called, "recorder must not be called for rejected hosts")
			}
		})
	}
}

func TestGetBot(t *testing.T) {
	store := &fakeBotRecordStore{bots: map[string]*domain.MeetingBot{
		"ext-1": {ID: "mb-1", BotID: "ext-1", Status: "in_call_recording"},
	}}
	app := botsApp(store, &fakeRecorder{})

	req := httptest.NewRequest("GET", "/api/v1/meeting/bots/ext-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/v1/meeting/bots/nope", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBotTrackerNotifiesSubscribers(t *testing.T) {
	tracker := NewBotTracker()
	ch := tracker.Subscribe("ext-1")

	tracker.Notify("ext-1", "in_call_recording", "")

	event := <-ch
	assert.Equal(t, "in_call_recording", event.Status)

	latest, ok := tracker.Latest("ext-1")
	assert.True(t, ok)
	assert.Equal(t, "in_call_recording", latest.Status)

	tracker.Unsubscribe("ext-1", ch)
	_, open := <-ch
	assert.False(t, open)
}
