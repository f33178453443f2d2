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

const defaultOllamaModel = "llama3.2"

// OllamaGenerator uses a local Ollama model through /api/generate.
type OllamaGenerator struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaGenerator creates a generator backed by a local Ollama model.
func NewOllamaGenerator(model, baseURL string) *OllamaGenerator {
	if model == "" {
		model = defaultOllamaModel
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaGenerator{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *OllamaGenerator) Name() string {
	return "ollama:" + g.model
}

func (g *OllamaGenerator) Generate(ctx context.Context, instructions string, input map[string]any) (string, error) {
	reqBody := ollamaRequest{
		Model:  g.model,
		System: instructions,
		Prompt: RenderInput(input),
		Stream: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fail(g.Name(), "marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/generate", g.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fail(g.Name(), "create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fail(g.Name(), "request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fail(g.Name(), "API returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fail(g.Name(), "decode response: %w", err)
	}

	return postprocess.Clean(ollamaResp.Response), nil
}
