// Package onesignal delivers owner notifications through the OneSignal push
// API.
package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ScoeScoe/POSTANOS/internal/notify"
)

const defaultBaseURL = "https://onesignal.com/api/v1"

// Config captures the subset of OneSignal behaviour we need.
type Config struct {
	AppID      string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client delivers card-sent notifications as OneSignal push messages.
type Client struct {
	appID      string
	apiKey     string
	baseURL    string
	retryLimit int
	client     *http.Client
}

// NewClient builds a OneSignal client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	appID := strings.TrimSpace(cfg.AppID)
	if appID == "" {
		return nil, errors.New("onesignal app id is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("onesignal api key is required")
	}

	baseURL := strings.TrimSpace(strings.TrimSuffix(cfg.BaseURL, "/"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		appID:      appID,
		apiKey:     apiKey,
		baseURL:    baseURL,
		retryLimit: retries,
		client:     hc,
	}, nil
}

// SendCardSent pushes a card-sent notification to the owner's devices.
func (c *Client) SendCardSent(ctx context.Context, payload notify.CardSentPayload) error {
	msg := c.formatMessage(payload)
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode onesignal payload: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < attempts-1 {
			// Simple linear backoff to avoid thundering retries.
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return lastErr
}

func (c *Client) formatMessage(payload notify.CardSentPayload) map[string]any {
	contents := fmt.Sprintf("Your %s card for %s is on its way.",
		strings.ToLower(payload.OccasionLabel), payload.RecipientName)

	data := map[string]string{
		"job_id": payload.JobID,
	}
	if payload.TrackingURL != "" {
		data["tracking_url"] = payload.TrackingURL
	}

	return map[string]any{
		"app_id":                    c.appID,
		"include_external_user_ids": []string{payload.UserID},
		"headings":                  map[string]string{"en": "Postcard sent!"},
		"contents":                  map[string]string{"en": contents},
		"data":                      data,
	}
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create onesignal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("onesignal request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp)
	}

	return drainSuccess(resp)
}

func drainSuccess(resp *http.Response) error {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return errors.Join(
				fmt.Errorf("drain onesignal response body: %w", err),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("drain onesignal response body: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}

func (c *Client) handleErrorResponse(resp *http.Response) error {
	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return errors.Join(
				fmt.Errorf("read onesignal error response: %w", readErr),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("read onesignal error response: %w", readErr)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return fmt.Errorf("onesignal %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
}
