// Package llm provides a content analyzer backed by a chat-completions
// model. It works against the OpenAI API and any compatible endpoint
// (Ollama's /v1 compatibility layer included).
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

	"github.com/custodia-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Analyzer implements the interface.
var _ driven.ContentAnalyzer = (*Analyzer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second
)

const analysisPrompt = `Analyze the following text. Respond with only a JSON object of the form
{"language": "<2-letter ISO 639-1 code>", "topics": ["<topic>", ...]}
with 3 to 5 short topic keywords. No other output.

Text:
%s`

// Config holds configuration for the analyzer.
type Config struct {
	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// APIKey authenticates the request. Optional for local endpoints.
	APIKey string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Analyzer infers language and topics via a chat-completions call.
type Analyzer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatRequest is the /chat/completions request format.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// analysisPayload is the JSON shape the model is instructed to return.
type analysisPayload struct {
	Language string   `json:"language"`
	Topics   []string `json:"topics"`
}

// New creates a new analyzer.
func New(cfg Config) *Analyzer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Analyzer{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Analyze returns the inferred language and topic keywords for a sample.
func (a *Analyzer) Analyze(ctx context.Context, sample string) (*driven.Analysis, error) {
	reqBody := chatRequest{
		Model: a.model,
		Messages: []chatMsg{
			{Role: "user", Content: fmt.Sprintf(analysisPrompt, sample)},
		},
		MaxTokens:   200,
		Temperature: 0,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("analyzer error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("analyzer returned no choices")
	}

	return parseAnalysis(chatResp.Choices[0].Message.Content)
}

// parseAnalysis extracts the JSON object from the model output. Models
// sometimes wrap the JSON in code fences or prose; take the outermost
// braces.
func parseAnalysis(content string) (*driven.Analysis, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in analyzer output")
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("parse analyzer output: %w", err)
	}

	payload.Language = strings.ToLower(strings.TrimSpace(payload.Language))
	if len(payload.Language) != 2 {
		payload.Language = ""
	}

	topics := make([]string, 0, len(payload.Topics))
	for _, t := range payload.Topics {
		t = strings.TrimSpace(t)
		if t != "" {
			topics = append(topics, t)
		}
	}

	return &driven.Analysis{Language: payload.Language, Topics: topics}, nil
}

// Close releases resources.
func (a *Analyzer) Close() error {
	return nil
}
