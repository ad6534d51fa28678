// Package tracker implements the issue-tracker port against the Jira Cloud
// v3 REST API.
package tracker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// Client talks to one workspace's Jira instance.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// NewClient creates a tracker client bound to one workspace's credentials.
func NewClient(cfg domain.WorkspaceConfig) *Client {
	token := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIKey))
	return &Client{
		baseURL:    cfg.BaseURL,
		authHeader: "Basic " + token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Factory adapts NewClient to the port.IssueTrackerFactory signature.
func Factory(cfg domain.WorkspaceConfig) port.IssueTracker {
	return NewClient(cfg)
}

// adfNode is a node of the Atlassian Document Format tree used for issue
// descriptions.
type adfNode struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text,omitempty"`
	Marks   []map[string]string    `json:"marks,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Content []adfNode              `json:"content,omitempty"`
}

// CreateIssue creates one issue and returns its key.
func (c *Client) CreateIssue(ctx context.Context, req port.IssueRequest) (string, error) {
	issueType := req.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	fields := map[string]interface{}{
		"project": map[string]string{"key": req.ProjectKey},
		"summary": req.Summary,
		"description": map[string]interface{}{
			"type":    "doc",
			"version": 1,
			"content": c.descriptionContent(req),
		},
		"issuetype": map[string]string{"name": issueType},
	}
	if req.Priority != "" {
		fields["priority"] = map[string]string{"name": req.Priority}
	}
	if req.Assignee != "" {
		fields["assignee"] = map[string]string{"name": req.Assignee}
	}
	if req.DueDate != "" {
		fields["duedate"] = req.DueDate
	}

	payload := map[string]interface{}{"fields": fields}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal issue: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/api/3/issue", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.authHeader)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("create issue: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("tracker API error (%d): %s", resp.StatusCode, string(body))
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("create issue decode: %w", err)
	}
	return created.Key, nil
}

// descriptionContent builds the ADF body: the description paragraph plus a
// bulleted list of linked wiki pages.
func (c *Client) descriptionContent(req port.IssueRequest) []adfNode {
	content := []adfNode{
		{
			Type:    "paragraph",
			Content: []adfNode{{Type: "text", Text: req.Description}},
		},
	}

	if len(req.Links) == 0 {
		return content
	}

	content = append(content, adfNode{
		Type: "paragraph",
		Content: []adfNode{{
			Type:  "text",
			Text:  "\nRelated wiki pages:",
			Marks: []map[string]string{{"type": "strong"}},
		}},
	})

	items := make([]adfNode, 0, len(req.Links))
	for _, link := range req.Links {
		items = append(items, adfNode{
			Type: "listItem",
			Content: []adfNode{{
				Type: "paragraph",
				Content: []adfNode{{
					Type: "inlineCard",
					Attrs: map[string]interface{}{
						"url": fmt.Sprintf("%s/wiki/spaces/viewpage.action?pageId=%s", c.baseURL, link.PageID),
					},
				}},
			}},
		})
	}
	content = append(content, adfNode{Type: "bulletList", Content: items})
	return content
}
