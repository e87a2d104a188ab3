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

// Client talks to an OpenAI-compatible HTTP API. It implements both
// Extractor and Embedder.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
}

// ClientConfig configures the API client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	EmbedModel string
	Timeout    time.Duration
}

// NewClient creates an API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractArtifact asks the model for the task's artifact properties and
// decodes the JSON reply.
func (c *Client) ExtractArtifact(ctx context.Context, taskID, essay string) (Artifact, error) {
	fields, ok := TaskFields[taskID]
	if !ok {
		return Artifact{}, fmt.Errorf("llm: no extraction schema for task %q", taskID)
	}

	req := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: fmt.Sprintf(
					"Extract the desired information from the passage. "+
						"Only extract these properties of the %s the author writes about: %s. "+
						"Correct the name for spelling if necessary. "+
						"Output ONLY a JSON object with those keys.",
					strings.ReplaceAll(taskID, "_", " "), strings.Join(fields, ", ")),
			},
			{Role: "user", Content: "Passage:\n" + essay},
		},
		Temperature: 1,
		MaxTokens:   2048,
	}
	req.ResponseFormat.Type = "json_object"

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return Artifact{}, err
	}
	if len(resp.Choices) == 0 {
		return Artifact{}, fmt.Errorf("llm: empty completion for task %q", taskID)
	}

	var artifact Artifact
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &artifact); err != nil {
		return Artifact{}, fmt.Errorf("llm: decode artifact: %w", err)
	}
	return NormalizeArtifact(artifact), nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	if err := c.post(ctx, "/embeddings", embedRequest{Model: c.embedModel, Input: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("llm: empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("llm: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("llm: %s returned %d: %s", path, resp.StatusCode, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llm: decode response: %w", err)
	}
	return nil
}
