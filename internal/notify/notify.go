// Package notify posts webhook notifications for long-running searches.
// Payloads never include recovery phrases; only addresses leave the
// process.
package notify

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
)

type WebhookType string

const (
	WebhookDiscord WebhookType = "discord"
	WebhookSlack   WebhookType = "slack"
	WebhookGeneric WebhookType = "generic"
)

// MatchOptions describes a found-match notification.
type MatchOptions struct {
	WebhookURL string
	Address    string
	Found      int
	Count      int
	Timeout    time.Duration
}

// CompleteOptions describes a search-finished notification.
type CompleteOptions struct {
	WebhookURL string
	Found      int
	Processed  int
	Duration   time.Duration
	Timeout    time.Duration
}

// DetectWebhookType classifies a webhook URL by its host.
func DetectWebhookType(url string) WebhookType {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "discord.com/api/webhooks") || strings.Contains(lower, "discordapp.com/api/webhooks") {
		return WebhookDiscord
	}
	if strings.Contains(lower, "hooks.slack.com") {
		return WebhookSlack
	}
	return WebhookGeneric
}

// NotifyMatch announces a found address.
func NotifyMatch(ctx context.Context, opts MatchOptions) error {
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return errors.New("webhook URL is required")
	}
	if strings.TrimSpace(opts.Address) == "" {
		return errors.New("address is required")
	}

	message := fmt.Sprintf("Found %s (%d/%d)", opts.Address, opts.Found, opts.Count)
	payload, err := buildPayload(opts.WebhookURL, "match", message, map[string]interface{}{
		"address": opts.Address,
		"found":   opts.Found,
		"count":   opts.Count,
	})
	if err != nil {
		return err
	}
	return SendWebhook(ctx, opts.WebhookURL, payload, opts.Timeout)
}

// NotifyComplete announces the end of a generate run.
func NotifyComplete(ctx context.Context, opts CompleteOptions) error {
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return errors.New("webhook URL is required")
	}

	message := fmt.Sprintf("Search complete: %d found, %d candidates in %s",
		opts.Found, opts.Processed, formatDuration(opts.Duration))
	payload, err := buildPayload(opts.WebhookURL, "complete", message, map[string]interface{}{
		"found":     opts.Found,
		"processed": opts.Processed,
		"duration":  formatDuration(opts.Duration),
	})
	if err != nil {
		return err
	}
	return SendWebhook(ctx, opts.WebhookURL, payload, opts.Timeout)
}

// SendWebhook posts a JSON payload to a webhook URL.
func SendWebhook(ctx context.Context, url string, payload []byte, timeout time.Duration) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook URL is required")
	}
	if len(payload) == 0 {
		return errors.New("payload is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func buildPayload(url, event, message string, fields map[string]interface{}) ([]byte, error) {
	switch DetectWebhookType(url) {
	case WebhookDiscord:
		return json.Marshal(map[string]interface{}{"content": message})
	case WebhookSlack:
		return json.Marshal(map[string]interface{}{"text": message})
	default:
		payload := map[string]interface{}{
			"event":     event,
			"message":   message,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		for key, value := range fields {
			payload[key] = value
		}
		return json.Marshal(payload)
	}
}

func formatDuration(duration time.Duration) string {
	total := int(duration.Seconds())
	if total <= 0 {
		return "under 1s"
	}
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
