package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Block kinds returned by the completion service.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
	BlockThinking   = "thinking"
)

// ContentBlock is one ordered element of a message.
// Exactly one of the payload fields is meaningful for a given Type.
type ContentBlock struct {
	Type string `json:"type"`

	// Type == "text"
	Text string `json:"text,omitempty"`

	// Type == "tool_use"
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// Type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`

	// Type == "thinking" (opaque, never interpreted)
	Thinking string `json:"thinking,omitempty"`
}

// Message is one conversation turn
type Message struct {
	Role    string         `json:"role"` // "user" | "assistant"
	Content []ContentBlock `json:"content"`
}

// TextMessage builds a message holding a single text block
func TextMessage(role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: BlockText, Text: text}},
	}
}

// ToolResultMessage packages tool results as a single user-role message
func ToolResultMessage(results []ContentBlock) Message {
	return Message{Role: "user", Content: results}
}

// Tool declares a callable tool to the completion service
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Thinking enables extended reasoning with a token budget
type Thinking struct {
	Type         string `json:"type"` // always "enabled" when set
	BudgetTokens int    `json:"budget_tokens"`
}

// Request is one completion round trip
type Request struct {
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Tools     []Tool    `json:"tools,omitempty"`
	Messages  []Message `json:"messages"`
	Thinking  *Thinking `json:"thinking,omitempty"`
}

// Response is the ordered content blocks of one completion
type Response struct {
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason,omitempty"`
}

// wireRequest is the request body actually sent on the wire
type wireRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Tools     []Tool    `json:"tools,omitempty"`
	Messages  []Message `json:"messages"`
	Thinking  *Thinking `json:"thinking,omitempty"`
}

// wireResponse is the response body received from the service
type wireResponse struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Completer is the completion-service contract the engine depends on.
// *Client satisfies it; tests substitute a scripted stub.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Client talks to the remote completion service
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
}

// New creates a new completion client
func New(apiKey, baseURL, model string, timeout time.Duration, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		maxRetries: maxRetries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Complete sends one completion request and returns the ordered content blocks
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	body := wireRequest{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Tools:     req.Tools,
		Messages:  req.Messages,
		Thinking:  req.Thinking,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if wire.Error != nil {
		return nil, fmt.Errorf("API error: %s", wire.Error.Message)
	}

	if len(wire.Content) == 0 {
		return nil, fmt.Errorf("API returned empty response")
	}

	return &Response{
		Content:    wire.Content,
		StopReason: wire.StopReason,
	}, nil
}

// CompleteWithRetry sends a completion request with retry on failure
func (c *Client) CompleteWithRetry(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		resp, err := c.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		// Wait before retry
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}
	return nil, fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// Plain sends a single system+user text exchange and returns the joined
// text blocks. Used for secondary calls that carry no tools, such as
// background fact extraction.
func (c *Client) Plain(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	resp, err := c.Complete(ctx, Request{
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []Message{TextMessage("user", user)},
	})
	if err != nil {
		return "", err
	}
	return JoinText(resp.Content), nil
}

// JoinText joins the text blocks of a content list with newlines
func JoinText(blocks []ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
