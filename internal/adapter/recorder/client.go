// Package recorder implements the meeting-recorder port against the bot API.
package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client creates recording bots via the external meeting API.
type Client struct {
	baseURL    string
	apiKey     string
	botName    string
	botImage   string
	httpClient *http.Client
}

// NewClient creates a recorder API client.
func NewClient(baseURL, apiKey, botName string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		botName:    botName,
		botImage:   "https://teammind.pages.dev/teammind-bot-img.png",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateBot asks the recorder to join a meeting and returns the external bot id.
// Lifecycle events for the bot arrive at webhookURL.
func (c *Client) CreateBot(ctx context.Context, meetingURL, webhookURL string) (string, error) {
	payload := map[string]interface{}{
		"meeting_url":    meetingURL,
		"bot_name":       c.botName,
		"webhook_url":    webhookURL,
		"reserved":       false,
		"recording_mode": "audio_only",
		"speech_to_text": "Gladia",
		"bot_image":      c.botImage,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal bot request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bots", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-spoke-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("recorder API: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result struct {
		BotID   string `json:"bot_id"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("recorder API: invalid response (%d): %s", resp.StatusCode, string(body))
	}

	if resp.StatusCode >= 400 {
		msg := result.Message
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("bot creation failed (%d): %s", resp.StatusCode, msg)
	}
	if result.BotID == "" {
		return "", fmt.Errorf("recorder API: missing bot_id in response")
	}

	return result.BotID, nil
}
