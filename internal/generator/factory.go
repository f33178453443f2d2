package generator

import (
	"fmt"
	"strings"
)

// New builds the provider named in s and wraps it with Resilient. The mock
// provider is returned bare since it never fails on its own.
func New(s Settings) (Generator, error) {
	var inner Generator
	switch strings.ToLower(s.Provider) {
	case "openai":
		g, err := NewOpenAIGenerator(s)
		if err != nil {
			return nil, err
		}
		inner = g
	case "", "ollama":
		inner = NewOllamaGenerator(s.Model, s.BaseURL)
	case "openrouter":
		inner = NewOpenRouterGenerator(s.APIKey, s.BaseURL, s.Model)
	case "mock":
		return NewScripted(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, s.Provider)
	}
	return NewResilient(inner, s), nil
}
