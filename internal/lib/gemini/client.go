// Package gemini: тонкая обёртка над google.golang.org/genai для генерации JSON-ответов.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ErrEmptyResponse: модель не вернула текст.
var ErrEmptyResponse = errors.New("empty model response")

// Client генерирует ответы в формате JSON.
type Client struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
}

// Option настраивает клиента.
type Option func(cfg *genai.ClientConfig)

// WithBaseURL направляет запросы на другой адрес API.
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// WithHTTPClient задаёт HTTP-клиент.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = c
	}
}

// New создаёт клиента Gemini API.
func New(ctx context.Context, apiKey, model string, maxOutputTokens int32, opts ...Option) (*Client, error) {
	const op = "gemini.New"
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key is required", op)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Client{client: client, model: model, maxOutputTokens: maxOutputTokens}, nil
}

// Model возвращает имя модели.
func (c *Client) Model() string {
	return c.model
}

// GenerateJSON отправляет prompt с системной инструкцией и просит ответ в application/json.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error) {
	const op = "gemini.GenerateJSON"

	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}
	if c.maxOutputTokens > 0 {
		config.MaxOutputTokens = c.maxOutputTokens
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return text, nil
}
