package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/valpere/postcraft/internal/postprocess"
)

// OpenAIGenerator uses the official openai-go SDK (chat completions). Any
// OpenAI-compatible endpoint works through BaseURL.
type OpenAIGenerator struct {
	model string
	opts  []option.RequestOption
}

// NewOpenAIGenerator validates settings and builds the request options.
func NewOpenAIGenerator(s Settings) (*OpenAIGenerator, error) {
	if s.APIKey == "" {
		return nil, errors.New("openai api key missing; set generator.api_key or POSTCRAFT_GENERATOR_API_KEY")
	}
	model := s.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &OpenAIGenerator{model: model, opts: opts}, nil
}

func (g *OpenAIGenerator) Name() string {
	return "openai:" + g.model
}

func (g *OpenAIGenerator) Generate(ctx context.Context, instructions string, input map[string]any) (string, error) {
	client := openai.NewClient(g.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instructions),
			openai.UserMessage(RenderInput(input)),
		},
	})
	if err != nil {
		return "", &GenerationError{Provider: g.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", fail(g.Name(), "empty choices")
	}
	return postprocess.Clean(resp.Choices[0].Message.Content), nil
}
