package aisdk

import (
	"context"
)

// Provider identifies a model vendor.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
)

// DisplayName is the vendor name shown to users.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderGemini:
		return "Gemini"
	case ProviderClaude:
		return "Claude"
	default:
		return string(p)
	}
}

// LanguageModel is the capability every vendor adapter exposes. Callers only
// depend on this interface, never on a vendor type.
type LanguageModel interface {
	Provider() Provider
	ModelID() string
	// DefaultObjectGenerationMode is ObjectModeJSON for every adapter.
	DefaultObjectGenerationMode() ObjectMode

	GenerateText(ctx context.Context, req TextRequest) (string, error)
	// StreamText returns a lazy, single-consumer sequence of parts. A vendor
	// failure before the first part is returned as a *ProviderError.
	StreamText(ctx context.Context, req TextRequest) (*TextStream, error)
	// StreamObject never fails on malformed model output; the request's
	// fallback is used instead.
	StreamObject(ctx context.Context, req ObjectRequest) (*ObjectStream, error)
}
