package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/postcraft/internal/postprocess"
)

const defaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"

// OpenRouterGenerator calls the OpenRouter chat completions API.
type OpenRouterGenerator struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenRouterGenerator creates an OpenRouter-backed generator.
func NewOpenRouterGenerator(apiKey, baseURL, model string) *OpenRouterGenerator {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = defaultOpenRouterModel
	}
	return &OpenRouterGenerator{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *OpenRouterGenerator) Name() string {
	return "openrouter:" + g.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenRouterGenerator) Generate(ctx context.Context, instructions string, input map[string]any) (string, error) {
	if g.apiKey == "" {
		return "", fail(g.Name(), "OpenRouter API key required")
	}

	jsonData, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: instructions},
			{Role: "user", Content: RenderInput(input)},
		},
		MaxTokens: 4096,
	})
	if err != nil {
		return "", fail(g.Name(), "marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat/completions", g.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fail(g.Name(), "create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("HTTP-Referer", "https://postcraft.local")
	req.Header.Set("X-Title", "PostCraft")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fail(g.Name(), "request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fail(g.Name(), "API returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fail(g.Name(), "decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fail(g.Name(), "empty response from API")
	}

	return postprocess.Clean(out.Choices[0].Message.Content), nil
}
