package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteRequestShape(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotBody wireRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(wireResponse{
			Content:    []ContentBlock{{Type: BlockText, Text: "hello"}},
			StopReason: "end_turn",
		})
	}))
	defer server.Close()

	client := New("test-key", server.URL, "test-model", 5*time.Second, 1)
	resp, err := client.Complete(context.Background(), Request{
		MaxTokens: 100,
		System:    "be brief",
		Messages:  []Message{TextMessage("user", "hi")},
		Thinking:  &Thinking{Type: "enabled", BudgetTokens: 2048},
	})
	if err != nil {
		t.Fatalf("Complete() = %v", err)
	}

	if gotPath != "/v1/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" || gotVersion != "2023-06-01" {
		t.Errorf("headers = %q / %q", gotKey, gotVersion)
	}
	if gotBody.Model != "test-model" || gotBody.MaxTokens != 100 || gotBody.System != "be brief" {
		t.Errorf("body = %+v", gotBody)
	}
	if gotBody.Thinking == nil || gotBody.Thinking.BudgetTokens != 2048 {
		t.Errorf("thinking = %+v", gotBody.Thinking)
	}

	if got := JoinText(resp.Content); got != "hello" {
		t.Errorf("response text = %q", got)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("stop reason = %q", resp.StopReason)
	}
}

func TestCompleteServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	client := New("key", server.URL, "model", 5*time.Second, 1)
	if _, err := client.Complete(context.Background(), Request{MaxTokens: 10}); err == nil {
		t.Fatal("non-200 should fail")
	}
}

func TestCompleteWithRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(wireResponse{
			Content: []ContentBlock{{Type: BlockText, Text: "recovered"}},
		})
	}))
	defer server.Close()

	client := New("key", server.URL, "model", 5*time.Second, 3)
	resp, err := client.CompleteWithRetry(context.Background(), Request{MaxTokens: 10})
	if err != nil {
		t.Fatalf("CompleteWithRetry() = %v", err)
	}
	if JoinText(resp.Content) != "recovered" {
		t.Errorf("text = %q", JoinText(resp.Content))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestCompleteWithRetryRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New("key", server.URL, "model", 5*time.Second, 3)
	if _, err := client.CompleteWithRetry(ctx, Request{MaxTokens: 10}); err == nil {
		t.Fatal("cancelled context should fail")
	}
}

func TestPlain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body wireRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.System != "extract facts" {
			t.Errorf("system = %q", body.System)
		}
		if len(body.Tools) != 0 {
			t.Error("plain call should carry no tools")
		}
		json.NewEncoder(w).Encode(wireResponse{
			Content: []ContentBlock{
				{Type: BlockText, Text: "line one"},
				{Type: BlockText, Text: "line two"},
			},
		})
	}))
	defer server.Close()

	client := New("key", server.URL, "model", 5*time.Second, 1)
	got, err := client.Plain(context.Background(), "extract facts", "user text", 0)
	if err != nil {
		t.Fatalf("Plain() = %v", err)
	}
	if got != "line one\nline two" {
		t.Errorf("Plain() = %q", got)
	}
}

func TestJoinTextSkipsNonText(t *testing.T) {
	blocks := []ContentBlock{
		{Type: BlockThinking, Thinking: "hmm"},
		{Type: BlockText, Text: "visible"},
		{Type: BlockToolUse, Name: "recall"},
	}
	if got := JoinText(blocks); got != "visible" {
		t.Errorf("JoinText() = %q", got)
	}
}

func TestMessageHelpers(t *testing.T) {
	msg := TextMessage("assistant", "hi")
	if msg.Role != "assistant" || len(msg.Content) != 1 || msg.Content[0].Text != "hi" {
		t.Errorf("TextMessage() = %+v", msg)
	}

	results := ToolResultMessage([]ContentBlock{{Type: BlockToolResult, ToolUseID: "tu_1", Content: "ok"}})
	if results.Role != "user" {
		t.Errorf("ToolResultMessage role = %q, want user", results.Role)
	}
}
