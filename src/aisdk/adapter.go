package aisdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// claudeMaxTokens is sent on every Claude call; the Messages API requires it.
const claudeMaxTokens = 2048

type adapterOptions struct {
	generator Generator
	baseURL   string
	logger    *slog.Logger
}

// AdapterOption customizes NewLanguageModel.
type AdapterOption func(*adapterOptions)

// WithGenerator replaces the vendor client. Credentials are not checked when
// a generator is supplied.
func WithGenerator(g Generator) AdapterOption {
	return func(o *adapterOptions) { o.generator = g }
}

// WithBaseURL points the vendor client at another endpoint. Gemini ignores it.
func WithBaseURL(url string) AdapterOption {
	return func(o *adapterOptions) { o.baseURL = url }
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(o *adapterOptions) { o.logger = l }
}

// NewLanguageModel builds the adapter for the model's provider. Adapters are
// cheap and are meant to be created per request.
func NewLanguageModel(ctx context.Context, model ModelInfo, creds Credentials, opts ...AdapterOption) (LanguageModel, error) {
	o := adapterOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	gen := o.generator
	if gen == nil {
		key := creds.KeyFor(model.Provider)
		if key == "" {
			return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, model.Provider.DisplayName())
		}
		var err error
		gen, err = newVendorClient(ctx, model, key, o.baseURL)
		if err != nil {
			return nil, &ProviderError{Provider: model.Provider, Op: "init", Err: err}
		}
	}

	base := &adapter{
		provider: model.Provider,
		modelID:  model.ID,
		gen:      gen,
		logger:   o.logger.With("component", "aisdk", "provider", string(model.Provider), "model", model.ID),
	}

	switch model.Provider {
	case ProviderOpenAI:
		base.streaming = true
		return &OpenAIAdapter{adapter: base}, nil
	case ProviderGemini:
		return &GeminiAdapter{adapter: base}, nil
	case ProviderClaude:
		base.callOpts = []llms.CallOption{llms.WithMaxTokens(claudeMaxTokens)}
		return &ClaudeAdapter{adapter: base}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, model.Provider)
	}
}

func newVendorClient(ctx context.Context, model ModelInfo, key, baseURL string) (Generator, error) {
	switch model.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(key), openai.WithModel(model.APIIdentifier)}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.New(opts...)
	case ProviderGemini:
		return googleai.New(ctx, googleai.WithAPIKey(key), googleai.WithDefaultModel(model.APIIdentifier))
	case ProviderClaude:
		opts := []anthropic.Option{anthropic.WithToken(key), anthropic.WithModel(model.APIIdentifier)}
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		return anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, model.Provider)
	}
}

// OpenAIAdapter streams tokens as the vendor produces them.
type OpenAIAdapter struct {
	*adapter
}

// GeminiAdapter calls the vendor once per step and emits the whole reply as a
// single text-delta. Consumers get the same part sequence as with a token
// stream, only coarser.
type GeminiAdapter struct {
	*adapter
}

// ClaudeAdapter calls the vendor once per step and emits the whole reply as a
// single text-delta, like GeminiAdapter.
type ClaudeAdapter struct {
	*adapter
}

// adapter holds what the three vendor adapters share.
type adapter struct {
	provider  Provider
	modelID   string
	gen       Generator
	streaming bool
	callOpts  []llms.CallOption
	logger    *slog.Logger
}

func (a *adapter) Provider() Provider { return a.provider }

func (a *adapter) ModelID() string { return a.modelID }

func (a *adapter) DefaultObjectGenerationMode() ObjectMode { return ObjectModeJSON }

func (a *adapter) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return err
	}
	return &ProviderError{Provider: a.provider, Op: op, Err: err}
}

// step performs one model round. onText receives text as it becomes
// available; a non-streaming adapter calls it once with the whole reply.
func (a *adapter) step(ctx context.Context, system string, msgs []Message, tools []*ChatTool, jsonMode bool, onText func(string) error) (stepResult, error) {
	opts := append([]llms.CallOption(nil), a.callOpts...)
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(toLLMTools(tools)))
	}
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	streamed := false
	if a.streaming && onText != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 || isToolCallChunk(chunk) {
				return nil
			}
			streamed = true
			return onText(string(chunk))
		}))
	}

	resp, err := a.gen.GenerateContent(ctx, toLLMMessages(system, msgs), opts...)
	if err != nil {
		return stepResult{}, err
	}
	res, err := fromLLMResponse(resp)
	if err != nil {
		return stepResult{}, err
	}
	if !streamed && onText != nil && res.Text != "" {
		if err := onText(res.Text); err != nil {
			return stepResult{}, err
		}
	}
	a.logger.Debug("model step complete",
		"text_len", len(res.Text),
		"tool_calls", len(res.ToolCalls),
		"streamed", streamed)
	return res, nil
}

// GenerateText runs a single round without tools and returns the text.
func (a *adapter) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	res, err := a.step(ctx, req.System, req.Messages, nil, false, nil)
	if err != nil {
		return "", a.wrap("generate", err)
	}
	return res.Text, nil
}
