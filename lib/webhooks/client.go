package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/artie-labs/dwmerge/lib/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	httpClient http.Client
	// A run emits an event per table, so sends are paced.
	limiter    *rate.Limiter
	url        string
	apiKey     string
	runID      string
	properties map[string]any
}

func NewClient(apiKey, url, runID string, properties map[string]any) (*Client, error) {
	if apiKey == "" || url == "" {
		return nil, fmt.Errorf("apiKey and url are required")
	}

	return &Client{
		httpClient: http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		url:        url,
		apiKey:     apiKey,
		runID:      runID,
		properties: properties,
	}, nil
}

// NewFromConfig returns nil when webhooks are disabled. A nil [Client] drops every event.
func NewFromConfig(cfg *config.WebhookSettings, runID string) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	return NewClient(cfg.APIKey, cfg.URL, runID, cfg.Properties)
}

func (c *Client) buildProperties(eventType EventType, extra map[string]any) map[string]any {
	metadata := GetEventMetadata(eventType)
	properties := make(map[string]any, len(c.properties)+len(extra)+4)
	maps.Copy(properties, c.properties)
	maps.Copy(properties, extra)
	properties["run_id"] = c.runID
	properties["message"] = metadata.Message
	properties["severity"] = metadata.Severity
	properties["category"] = metadata.Category
	return properties
}

func (c *Client) SendEvent(ctx context.Context, eventType EventType, extra map[string]any) error {
	if c == nil {
		return nil
	}

	event := Event{
		ID:         uuid.NewString(),
		Event:      string(eventType),
		Timestamp:  time.Now().UTC(),
		Properties: c.buildProperties(eventType, extra),
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// Notify sends an event and only logs a failure, reporting never fails a run.
func (c *Client) Notify(ctx context.Context, eventType EventType, extra map[string]any) {
	if err := c.SendEvent(ctx, eventType, extra); err != nil {
		slog.Warn("Failed to send webhook event", slog.String("event", string(eventType)), slog.Any("err", err))
	}
}

// TableEvent converts table properties into event properties.
func TableEvent(properties TableProperties) map[string]any {
	return map[string]any{"table": properties}
}
