package aisdk

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

type fakeStep struct {
	chunks    []string
	text      string
	toolCalls []llms.ToolCall
	err       error
	// hang blocks until the request context ends.
	hang bool
}

// fakeGenerator replays scripted steps and records what it was called with.
type fakeGenerator struct {
	mu    sync.Mutex
	steps []fakeStep
	calls [][]llms.MessageContent
	opts  []llms.CallOptions
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, messages)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if i >= len(f.steps) {
		return nil, errors.New("fake generator: no more steps")
	}
	step := f.steps[i]

	if opts.StreamingFunc != nil {
		for _, c := range step.chunks {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	if step.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if step.err != nil {
		return nil, step.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:   step.text,
		ToolCalls: step.toolCalls,
	}}}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newFakeModel(provider Provider, gen Generator) LanguageModel {
	var info ModelInfo
	for _, m := range Models() {
		if m.Provider == provider {
			info = m
			break
		}
	}
	lm, err := NewLanguageModel(context.Background(), info, Credentials{}, WithGenerator(gen))
	if err != nil {
		panic(err)
	}
	return lm
}

func readAll(s *TextStream) []StreamPart {
	var parts []StreamPart
	for {
		p, err := s.Read()
		if err != nil {
			return parts
		}
		parts = append(parts, p)
	}
}
