// Package translator localizes a finished post into other languages.
package translator

import (
	"context"
	"time"
)

type ServiceConfig struct {
	Service     string        `mapstructure:"service" json:"service"`
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	Email       string        `mapstructure:"email" json:"email"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type ServiceResult struct {
	ServiceName    string        `json:"service_name"`
	TranslatedText string        `json:"translated_text"`
	Confidence     float64       `json:"confidence"`
	Latency        time.Duration `json:"latency"`
	Error          string        `json:"error,omitempty"`
}

type TranslationService interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error)
}
