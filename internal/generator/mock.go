package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Scripted returns canned responses in order and records every call. Once
// the script is exhausted the last response repeats. It backs the "mock"
// provider and the pipeline tests.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	errs      map[int]error
	calls     []Call
}

// Call is one recorded Generate invocation.
type Call struct {
	Instructions string
	Input        map[string]any
}

// NewScripted creates a scripted generator.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses, errs: make(map[int]error)}
}

// FailOn makes the n-th call (zero based) return err.
func (s *Scripted) FailOn(n int, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[n] = err
	return s
}

func (s *Scripted) Name() string {
	return "mock"
}

func (s *Scripted) Generate(ctx context.Context, instructions string, input map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Provider: s.Name(), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.calls)
	s.calls = append(s.calls, Call{Instructions: instructions, Input: input})

	if err, ok := s.errs[n]; ok {
		return "", &GenerationError{Provider: s.Name(), Err: err}
	}
	if len(s.responses) == 0 {
		return echo(input), nil
	}
	if n < len(s.responses) {
		return s.responses[n], nil
	}
	return s.responses[len(s.responses)-1], nil
}

// Calls returns a copy of the recorded calls.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// echo returns the draft or source content unchanged, so an unscripted mock
// behaves like an identity reviser.
func echo(input map[string]any) string {
	for _, key := range []string{"draft", "content"} {
		if v, ok := input[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ErrUnknownProvider is returned by New for unsupported provider names.
var ErrUnknownProvider = errors.New("unknown generator provider")
