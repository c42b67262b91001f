// Package llm wraps the Gemini API for the three language-model tasks the
// pipeline needs: structured case labeling, plain-language summarization,
// and text embeddings. Generation goes through the generative-ai-go SDK;
// embeddings call the REST endpoint directly so the vector comes back as
// float64 values ready for the similarity index.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// generationModel is the default model for labeling and summarization.
	generationModel = "gemini-2.0-flash"

	// promptTextLimit bounds how much case text goes into a prompt; court
	// opinions routinely run tens of thousands of characters and the signal
	// for labeling is almost always in the opening narrative.
	promptTextLimit = 3000
)

// Client is a thin wrapper over the Gemini SDK client plus the API key used
// for direct REST embedding calls.
type Client struct {
	genai  *genai.Client
	apiKey string
}

// NewClient builds a client from GEMINI_API_KEY.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	return &Client{genai: gc, apiKey: apiKey}, nil
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	return c.genai.Close()
}

// generate runs one prompt through the generation model and concatenates the
// text parts of the first candidate.
func (c *Client) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	model := c.genai.GenerativeModel(generationModel)
	model.SetTemperature(temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("generation returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("generation returned empty content")
	}
	return out, nil
}

// truncateForPrompt caps case text at the prompt limit.
func truncateForPrompt(text string) string {
	if len(text) > promptTextLimit {
		return text[:promptTextLimit]
	}
	return text
}
