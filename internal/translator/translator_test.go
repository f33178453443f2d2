package translator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valpere/postcraft/internal/generator"
)

type mockService struct {
	name     string
	maxChars int
	reply    func(req TranslateRequest) (string, error)
	requests []TranslateRequest
}

func (m *mockService) Name() string { return m.name }

func (m *mockService) Translate(_ context.Context, req TranslateRequest) (*ServiceResult, error) {
	m.requests = append(m.requests, req)
	text, err := m.reply(req)
	if err != nil {
		return &ServiceResult{ServiceName: m.name, Error: err.Error()}, err
	}
	return &ServiceResult{ServiceName: m.name, TranslatedText: text, Confidence: 0.8}, nil
}

type limitedService struct{ *mockService }

func (l limitedService) MaxChars() int { return l.maxChars }

func TestLocalize_ProtectsPlaceholders(t *testing.T) {
	svc := &mockService{name: "mock", reply: func(req TranslateRequest) (string, error) {
		return strings.ReplaceAll(req.Text, "Read", "Lies"), nil
	}}
	l := NewLocalizer(svc, nil, nil)

	tr, err := l.Localize(context.Background(), "Read https://example.com by @jane #golang", "en", "de")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(svc.requests[0].Text, "https://") || strings.Contains(svc.requests[0].Text, "#golang") {
		t.Errorf("expected protected request, got %q", svc.requests[0].Text)
	}
	want := "Lies https://example.com by @jane #golang"
	if tr.Text != want {
		t.Errorf("expected %q, got %q", want, tr.Text)
	}
	if tr.Service != "mock" || tr.Language != "de" {
		t.Errorf("unexpected translation meta: %+v", tr)
	}
}

func TestLocalize_ChunksForLimitedServices(t *testing.T) {
	inner := &mockService{name: "small", maxChars: 40, reply: func(req TranslateRequest) (string, error) {
		return req.Text, nil
	}}
	l := NewLocalizer(limitedService{inner}, nil, nil)

	text := "First paragraph is here and fine.\n\nSecond paragraph is also here and fine."
	if _, err := l.Localize(context.Background(), text, "en", "fr"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.requests) != 2 {
		t.Errorf("expected 2 requests, got %d", len(inner.requests))
	}
}

func TestLocalize_InvalidTarget(t *testing.T) {
	svc := &mockService{name: "mock", reply: func(req TranslateRequest) (string, error) { return req.Text, nil }}
	if _, err := NewLocalizer(svc, nil, nil).Localize(context.Background(), "hello", "en", "!!"); err == nil {
		t.Fatal("expected error for invalid target")
	}
	if len(svc.requests) != 0 {
		t.Error("service should not be called for an invalid target")
	}
}

func TestLocalizeAll_SkipsFailures(t *testing.T) {
	svc := &mockService{name: "mock", reply: func(req TranslateRequest) (string, error) {
		if req.TargetLang == "fr" {
			return "", errors.New("quota exceeded")
		}
		return "translated " + req.TargetLang, nil
	}}
	l := NewLocalizer(svc, nil, nil)

	results, err := l.LocalizeAll(context.Background(), "hello world", "en", []string{"de", "fr", "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 translations, got %d", len(results))
	}
	if results[0].Language != "de" || results[1].Language != "es" {
		t.Errorf("unexpected languages: %+v", results)
	}
}

func TestLocalizeAll_AllFail(t *testing.T) {
	svc := &mockService{name: "mock", reply: func(TranslateRequest) (string, error) {
		return "", errors.New("down")
	}}
	if _, err := NewLocalizer(svc, nil, nil).LocalizeAll(context.Background(), "hello", "en", []string{"de", "fr"}); err == nil {
		t.Fatal("expected error when every target fails")
	}
}

func TestLLMService_Translate(t *testing.T) {
	gen := generator.NewScripted("Hallo Welt [PH0]")
	svc := NewLLMService(gen)

	res, err := svc.Translate(context.Background(), TranslateRequest{Text: "Hello world [PH0]", SourceLang: "en", TargetLang: "de"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TranslatedText != "Hallo Welt [PH0]" {
		t.Errorf("unexpected text %q", res.TranslatedText)
	}
	calls := gen.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Instructions, "[PHn]") {
		t.Error("expected placeholder hint in instructions")
	}
	if calls[0].Input["target_language"] != "de" {
		t.Errorf("unexpected input: %v", calls[0].Input)
	}
}

func TestLLMService_Failure(t *testing.T) {
	gen := generator.NewScripted("unused").FailOn(0, errors.New("boom"))
	_, err := NewLLMService(gen).Translate(context.Background(), TranslateRequest{Text: "hi", TargetLang: "de"})
	var genErr *generator.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestMyMemoryService_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "en|uk" {
			t.Errorf("unexpected langpair %q", got)
		}
		if got := r.URL.Query().Get("de"); got != "me@example.com" {
			t.Errorf("unexpected email %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responseData":{"translatedText":"Привіт","match":0.97},"responseStatus":200}`))
	}))
	defer server.Close()

	svc := NewMyMemoryService("me@example.com", server.URL)
	res, err := svc.Translate(context.Background(), TranslateRequest{Text: "Hello", SourceLang: "auto", TargetLang: "uk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TranslatedText != "Привіт" {
		t.Errorf("unexpected text %q", res.TranslatedText)
	}
	if res.Confidence != 0.97 {
		t.Errorf("unexpected confidence %v", res.Confidence)
	}
}

func TestMyMemoryService_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseStatus":429,"responseDetails":"TOO MANY REQUESTS"}`))
	}))
	defer server.Close()

	res, err := NewMyMemoryService("", server.URL).Translate(context.Background(), TranslateRequest{Text: "Hello", TargetLang: "de"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(res.Error, "TOO MANY REQUESTS") {
		t.Errorf("unexpected error detail %q", res.Error)
	}
}

func TestNewService(t *testing.T) {
	llm := NewLLMService(generator.NewScripted())
	tests := []struct {
		service string
		want    string
		wantErr bool
	}{
		{service: "", want: "llm:mock"},
		{service: "llm", want: "llm:mock"},
		{service: "google", want: "google"},
		{service: "mymemory", want: "mymemory"},
		{service: "babelfish", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			svc, err := NewService(ServiceConfig{Service: tt.service}, llm)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.Name() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, svc.Name())
			}
		})
	}
}
