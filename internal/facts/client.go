package facts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/your-org/fieldsight/internal/config"
	"github.com/your-org/fieldsight/internal/observability"
)

// Client fetches a short trivia blurb about an identified species from an
// OpenAI-compatible chat completions endpoint. Responses are cached per class
// so repeated lookups don't re-bill.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	http      *http.Client
	cache     *cache.Cache
}

func NewClient(cfg config.FactsConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		http:      &http.Client{Timeout: 20 * time.Second},
		cache:     cache.New(cfg.CacheTTL, cfg.CacheTTL),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// FunFact returns trivia about the given class name.
func (c *Client) FunFact(ctx context.Context, className string) (string, error) {
	key := strings.ToLower(className)
	if fact, ok := c.cache.Get(key); ok {
		observability.FactsLookups.WithLabelValues("hit").Inc()
		return fact.(string), nil
	}
	observability.FactsLookups.WithLabelValues("miss").Inc()

	fact, err := c.fetch(ctx, className)
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(key, fact)
	return fact, nil
}

func (c *Client) fetch(ctx context.Context, className string) (string, error) {
	prompt := fmt.Sprintf("In 125 tokens, tell me something interesting about %s.", className)
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a scientist of plants and animals."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.7,
		TopP:        1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch fun fact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("fun fact endpoint returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	fact := strings.TrimSpace(out.Choices[0].Message.Content)
	if fact == "" {
		return "", fmt.Errorf("chat response has empty content")
	}
	return fact, nil
}
