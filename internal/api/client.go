package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"triage/internal/config"
	"triage/internal/queue"
)

// Client talks to a running daemon's HTTP API. The CLI uses it for every
// command that needs live state.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds an API client from the configured bind address.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, fmt.Errorf("paths.api_bind not configured")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api bind: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &Client{
		base: base,
		http: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var payload DaemonStatus
	err := c.getJSON(ctx, "/api/status", nil, &payload)
	return payload, err
}

// Jobs lists pipeline jobs, optionally filtered by status.
func (c *Client) Jobs(ctx context.Context, statuses ...queue.Status) ([]JobView, error) {
	values := url.Values{}
	for _, status := range statuses {
		values.Add("status", string(status))
	}
	var payload JobListResponse
	if err := c.getJSON(ctx, "/api/jobs", values, &payload); err != nil {
		return nil, err
	}
	return payload.Jobs, nil
}

// Signals fetches the dashboard payload.
func (c *Client) Signals(ctx context.Context) (SignalsResponse, error) {
	var payload SignalsResponse
	err := c.getJSON(ctx, "/api/signals", nil, &payload)
	return payload, err
}

// Submit posts a feedback signal for processing.
func (c *Client) Submit(ctx context.Context, source, text string) (SubmitResponse, error) {
	body, err := json.Marshal(SubmitRequest{Source: source, Text: text})
	if err != nil {
		return SubmitResponse{}, err
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: "/feedback"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return SubmitResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return SubmitResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return SubmitResponse{}, apiError(resp)
	}
	var payload SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SubmitResponse{}, err
	}
	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, target any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	if len(values) > 0 {
		endpoint.RawQuery = values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func apiError(resp *http.Response) error {
	var payload ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return fmt.Errorf("api returned status %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("api returned status %d", resp.StatusCode)
}
