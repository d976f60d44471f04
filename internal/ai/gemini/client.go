// Package gemini implements the remote embedding and generation providers on
// top of the Google GenAI client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/shl-recommender/internal/ai"
	"github.com/spigell/shl-recommender/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// DefaultEmbedModel is the embedding model used when none is configured.
	DefaultEmbedModel = "gemini-embedding-001"
	// DefaultEmbedDim is the requested output dimensionality for remote
	// embeddings.
	DefaultEmbedDim = 768

	maxLogLength = 200
)

// modelsAPI is the slice of *genai.Models this package calls, extracted so
// tests can substitute a fake.
type modelsAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps the Google GenAI client for embedding and text generation
// against the Gemini API backend.
type Client struct {
	models modelsAPI
	logger *zap.Logger
}

// NewClient creates a Client authenticated with the provided API key.
func NewClient(ctx context.Context, apiKey string, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ai.ErrMissingCredential
	}

	cfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{models: client.Models, logger: logger}, nil
}

// EmbedText returns the raw embedding values for the text. Callers are
// responsible for normalization. When dim is positive the model is asked for
// that output dimensionality.
func (c *Client) EmbedText(ctx context.Context, model, text string, dim int) ([]float32, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	var cfg *genai.EmbedContentConfig
	if dim > 0 {
		cfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(dim))}
	}

	c.logger.Debug("gemini embed content request",
		zap.String("model", model),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", utils.TruncateForLog(text, maxLogLength)),
	)

	resp, err := c.models.EmbedContent(ctx, model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}

	return resp.Embeddings[0].Values, nil
}

// GenerateContent sends the prompt to the given model at zero sampling
// temperature and returns the concatenated textual response.
func (c *Client) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	if c == nil || c.models == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}

	c.logger.Debug("gemini generate content request",
		zap.String("model", model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogLength)),
	)

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	c.logger.Debug("gemini generate content response",
		zap.String("model", model),
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, maxLogLength)),
	)

	return output, nil
}
