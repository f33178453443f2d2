// Package extractor turns raw user input (a topic, pasted text or a link)
// into source content for the drafting stage.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/valpere/postcraft/internal/chunker"
	"github.com/valpere/postcraft/internal/markdown"
)

type InputType string

const (
	InputURL     InputType = "url"
	InputYouTube InputType = "youtube"
	InputTopic   InputType = "topic"
	InputText    InputType = "text"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxChars  = 12000
	DefaultUserAgent = "Mozilla/5.0 (compatible; postcraft/0.1)"

	maxTopicWords = 12
	maxBodyBytes  = 5 << 20
)

// ErrUnsupported is returned for inputs that are recognized but cannot be
// processed, such as video transcripts.
var ErrUnsupported = errors.New("unsupported input")

type Config struct {
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxChars  int           `mapstructure:"max_chars" json:"max_chars"`
	UserAgent string        `mapstructure:"user_agent" json:"user_agent"`
}

// Source is the processed input.
type Source struct {
	Type      InputType `json:"type"`
	Ref       string    `json:"ref"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Truncated bool      `json:"truncated"`
}

type Extractor struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

var (
	youtubeHosts = map[string]bool{
		"youtube.com": true, "www.youtube.com": true, "m.youtube.com": true,
		"youtu.be": true, "music.youtube.com": true,
	}
	youtubeIDRe   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	sentenceEndRe = regexp.MustCompile(`[.!?;:]\s`)
)

// Detect classifies raw input.
func Detect(input string) InputType {
	input = strings.TrimSpace(input)
	if u, ok := parseHTTPURL(input); ok {
		if youtubeID(u) != "" {
			return InputYouTube
		}
		return InputURL
	}
	if !strings.Contains(input, "\n") &&
		len(strings.Fields(input)) <= maxTopicWords &&
		!sentenceEndRe.MatchString(input+" ") {
		return InputTopic
	}
	return InputText
}

func parseHTTPURL(s string) (*url.URL, bool) {
	if strings.ContainsAny(s, " \n\t") {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	return u, true
}

func youtubeID(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if !youtubeHosts[host] {
		return ""
	}
	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case u.Path == "/watch":
		id = u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/live/"):
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 2 {
			id = parts[1]
		}
	}
	if youtubeIDRe.MatchString(id) {
		return id
	}
	return ""
}

// Extract detects the input type and produces normalized, length-limited
// source content.
func (e *Extractor) Extract(ctx context.Context, input string) (*Source, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("input is empty")
	}

	src := &Source{Type: Detect(input), Ref: input}
	switch src.Type {
	case InputYouTube:
		return nil, fmt.Errorf("%w: youtube transcripts cannot be retrieved (%s)", ErrUnsupported, input)
	case InputURL:
		text, title, err := e.fetch(ctx, input)
		if err != nil {
			return nil, err
		}
		src.Content, src.Title = text, title
	default:
		src.Content = input
	}

	src.Content = norm.NFC.String(strings.TrimSpace(src.Content))
	src.Title = norm.NFC.String(src.Title)
	if src.Content == "" {
		return nil, fmt.Errorf("no readable content in %s", input)
	}

	src.Content, src.Truncated = chunker.Limit(src.Content, e.cfg.MaxChars)
	if src.Truncated {
		e.logger.Info("source content truncated", "ref", src.Ref, "max_chars", e.cfg.MaxChars)
	}
	e.logger.Debug("input processed", "type", src.Type, "chars", utf8.RuneCountInString(src.Content))
	return src, nil
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) (text, title string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	ct := resp.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "text/plain") {
		b, err := io.ReadAll(body)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", rawURL, err)
		}
		text = string(b)
	} else {
		text, title, err = markdown.HTMLToText(body)
		if err != nil {
			return "", "", fmt.Errorf("parse %s: %w", rawURL, err)
		}
	}

	e.logger.Info("fetched source", "url", rawURL, "status", resp.StatusCode, "duration", time.Since(start))
	return text, title, nil
}
