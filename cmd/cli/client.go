package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/ytmm-go/api/handlers"
	"github.com/yourusername/ytmm-go/internal/domain"
	"github.com/yourusername/ytmm-go/pkg/logger"
)

// adminClient talks to the bot's admin HTTP API
type adminClient struct {
	baseURL string
	http    *http.Client
}

func newAdminClient(baseURL string) *adminClient {
	return &adminClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// apiError is the error body returned by every endpoint
type apiError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// logsResponse mirrors GET /api/v1/logs/:category
type logsResponse struct {
	Category string            `json:"category"`
	Date     string            `json:"date"`
	Count    int               `json:"count"`
	Entries  []logger.LogEntry `json:"entries"`
}

func (c *adminClient) Health() (*handlers.HealthResponse, error) {
	var health handlers.HealthResponse
	if err := c.do(http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *adminClient) ListRequests(status, user string) ([]*domain.Request, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if user != "" {
		query.Set("user", user)
	}

	var requests []*domain.Request
	if err := c.do(http.MethodGet, "/api/v1/requests", query, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (c *adminClient) GetRequest(id string) (*domain.Request, error) {
	var request domain.Request
	if err := c.do(http.MethodGet, "/api/v1/requests/"+url.PathEscape(id), nil, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (c *adminClient) Stats() (*domain.RequestStats, error) {
	var stats domain.RequestStats
	if err := c.do(http.MethodGet, "/api/v1/requests/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *adminClient) Cancel(id string) error {
	return c.do(http.MethodPost, "/api/v1/requests/"+url.PathEscape(id)+"/cancel", nil, nil)
}

func (c *adminClient) Logs(category, date, search string, limit int) (*logsResponse, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))
	if date != "" {
		query.Set("date", date)
	}
	if search != "" {
		query.Set("q", search)
	}

	var logs logsResponse
	if err := c.do(http.MethodGet, "/api/v1/logs/"+url.PathEscape(category), query, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// StreamLogs calls fn for every entry pushed by the stream endpoint until ctx
// is done or the server closes the connection
func (c *adminClient) StreamLogs(ctx context.Context, category string, fn func(logger.LogEntry)) error {
	target := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/logs/" + url.PathEscape(category) + "/stream"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to open log stream: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to open log stream: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock ReadJSON when ctx ends
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var entry logger.LogEntry
		if err := conn.ReadJSON(&entry); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("log stream: %w", err)
		}
		fn(entry)
	}
}

// do sends a request and decodes a 2xx body into out
func (c *adminClient) do(method, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		if apiErr.Reason != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Reason, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
