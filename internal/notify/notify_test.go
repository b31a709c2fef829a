package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDetectWebhookType(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want WebhookType
	}{
		{name: "discord", url: "https://discord.com/api/webhooks/123", want: WebhookDiscord},
		{name: "discordapp", url: "https://discordapp.com/api/webhooks/123", want: WebhookDiscord},
		{name: "slack", url: "https://hooks.slack.com/services/abc", want: WebhookSlack},
		{name: "generic", url: "https://example.com/webhook", want: WebhookGeneric},
	}

	for _, tc := range cases {
		if got := DetectWebhookType(tc.url); got != tc.want {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestNotifyMatchSendsGenericPayload(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NotifyMatch(context.Background(), MatchOptions{
		WebhookURL: server.URL,
		Address:    "AAAA7777",
		Found:      1,
		Count:      3,
	})
	if err != nil {
		t.Fatalf("notify match: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded["event"] != "match" {
		t.Fatalf("expected match event, got %v", decoded["event"])
	}
	if decoded["address"] != "AAAA7777" {
		t.Fatalf("expected address in payload, got %v", decoded["address"])
	}
	// the recovery phrase must never appear in a webhook payload
	if _, ok := decoded["phrase"]; ok {
		t.Fatal("payload must not carry a phrase field")
	}
}

func TestNotifyCompleteSendsSummary(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NotifyComplete(context.Background(), CompleteOptions{
		WebhookURL: server.URL,
		Found:      2,
		Processed:  123456,
		Duration:   90 * time.Second,
	})
	if err != nil {
		t.Fatalf("notify complete: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded["event"] != "complete" {
		t.Fatalf("expected complete event, got %v", decoded["event"])
	}
	if decoded["duration"] != "1m 30s" {
		t.Fatalf("unexpected duration: %v", decoded["duration"])
	}
}

func TestSendWebhookRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := SendWebhook(context.Background(), server.URL, []byte(`{}`), time.Second)
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestBuildPayloadChatVariants(t *testing.T) {
	payload, err := buildPayload("https://discord.com/api/webhooks/1", "match", "Found X", nil)
	if err != nil {
		t.Fatalf("build discord payload: %v", err)
	}
	var discord map[string]string
	if err := json.Unmarshal(payload, &discord); err != nil {
		t.Fatalf("unmarshal discord payload: %v", err)
	}
	if discord["content"] != "Found X" {
		t.Fatalf("unexpected discord payload: %v", discord)
	}

	payload, err = buildPayload("https://hooks.slack.com/services/1", "match", "Found X", nil)
	if err != nil {
		t.Fatalf("build slack payload: %v", err)
	}
	var slack map[string]string
	if err := json.Unmarshal(payload, &slack); err != nil {
		t.Fatalf("unmarshal slack payload: %v", err)
	}
	if slack["text"] != "Found X" {
		t.Fatalf("unexpected slack payload: %v", slack)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "under 1s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{3661 * time.Second, "1h 1m 1s"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
