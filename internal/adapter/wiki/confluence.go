// Package wiki implements the document-store port against the Confluence
// Cloud v2 REST API.
package wiki

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/teammind-ai/backend/internal/domain"
	"github.com/teammind-ai/backend/internal/port"
)

// Client talks to one workspace's Confluence instance. Outbound calls run
// through a circuit breaker so a dead wiki fails fast during batch sync
// instead of burning the full timeout per document.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a wiki client bound to one workspace's credentials.
func NewClient(cfg domain.WorkspaceConfig) *Client {
	token := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIKey))
	return &Client{
		baseURL:    cfg.BaseURL,
		authHeader: "Basic " + token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "wiki",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Factory adapts NewClient to the port.DocumentStoreFactory signature.
func Factory(cfg domain.WorkspaceConfig) port.DocumentStore {
	return NewClient(cfg)
}

type pageBody struct {
	Storage struct {
		Value string `json:"value"`
	} `json:"storage"`
}

type pageResponse struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Body    pageBody `json:"body"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

// GetPage fetches a page with its storage-format body and current version.
func (c *Client) GetPage(ctx context.Context, pageID string) (*port.Page, error) {
	body, err := c.do(ctx, http.MethodGet, "/wiki/api/v2/pages/"+pageID+"?body-format=storage", nil)
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", pageID, err)
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("get page %s decode: %w", pageID, err)
	}

	return &port.Page{
		ID:      resp.ID,
		Title:   resp.Title,
		Content: resp.Body.Storage.Value,
		Version: resp.Version.Number,
	}, nil
}

// UpdatePage writes new content using optimistic concurrency: the request
// carries expectedVersion+1 and fails with port.ErrVersionConflict when the
// page moved on since the read.
func (c *Client) UpdatePage(ctx context.Context, pageID, title, content string, expectedVersion int) (int, error) {
	payload := map[string]interface{}{
		"id":     pageID,
		"status": "current",
		"title":  title,
		"version": map[string]int{
			"number": expectedVersion + 1,
		},
		"body": map[string]string{
			"representation": "storage",
			"value":          content,
		},
	}

	body, err := c.do(ctx, http.MethodPut, "/wiki/api/v2/pages/"+pageID, payload)
	if err != nil {
		return 0, fmt.Errorf("update page %s: %w", pageID, err)
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("update page %s decode: %w", pageID, err)
	}
	return resp.Version.Number, nil
}

// CreatePage creates a new page in the given space.
func (c *Client) CreatePage(ctx context.Context, spaceKey, title, content string) (*port.Page, error) {
	payload := map[string]interface{}{
		"spaceId": spaceKey,
		"status":  "current",
		"title":   title,
		"body": map[string]string{
			"representation": "storage",
			"value":          content,
		},
	}

	body, err := c.do(ctx, http.MethodPost, "/wiki/api/v2/pages", payload)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("create page decode: %w", err)
	}

	return &port.Page{
		ID:      resp.ID,
		Title:   resp.Title,
		Content: content,
		Version: resp.Version.Number,
	}, nil
}

// ListPages returns all pages of a space with their content. The v2 list
// endpoint omits bodies, so each page is fetched individually.
func (c *Client) ListPages(ctx context.Context, spaceKey string) ([]port.Page, error) {
	body, err := c.do(ctx, http.MethodGet, "/wiki/api/v2/spaces/"+spaceKey+"/pages", nil)
	if err != nil {
		return nil, fmt.Errorf("list pages for space %s: %w", spaceKey, err)
	}

	var resp struct {
		Results []pageResponse `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("list pages decode: %w", err)
	}

	pages := make([]port.Page, 0, len(resp.Results))
	for _, r := range resp.Results {
		page, err := c.GetPage(ctx, r.ID)
		if err != nil {
			return pages, err
		}
		pages = append(pages, *page)
	}
	return pages, nil
}

// do executes one HTTP call through the circuit breaker.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var reqBody io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal payload: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusConflict:
			return nil, port.ErrVersionConflict
		case resp.StatusCode == http.StatusNotFound:
			return nil, port.ErrPageNotFound
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("wiki API error (%d): %s", resp.StatusCode, string(body))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
