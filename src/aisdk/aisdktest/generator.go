// Package aisdktest provides a scripted vendor client for tests of code that
// drives an aisdk.LanguageModel.
package aisdktest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"github.com/elee1766/finchat/src/aisdk"
)

// Step is one scripted vendor response.
type Step struct {
	// Chunks are streamed before the response when the adapter streams.
	Chunks []string
	// Text is the complete response text.
	Text string
	// Calls are tool calls as name and JSON arguments.
	Calls []Call
	// Err fails the step after Chunks were streamed.
	Err error
	// Hang blocks after Chunks until the request context ends.
	Hang bool
}

// Call is a scripted tool call.
type Call struct {
	ID   string
	Name string
	Args string
}

// Request is what the generator was called with.
type Request struct {
	System   string
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// Generator replays steps in order. A request beyond the script fails.
type Generator struct {
	mu       sync.Mutex
	steps    []Step
	requests []Request
}

// NewGenerator returns a generator that replays steps.
func NewGenerator(steps ...Step) *Generator {
	return &Generator{steps: steps}
}

// Text is a step answering with s, streamed as one chunk.
func Text(s string) Step {
	return Step{Chunks: []string{s}, Text: s}
}

// JSON is a step answering with v encoded as JSON.
func JSON(v any) Step {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Text(string(b))
}

// Tool is a step that only calls one tool.
func Tool(id, name, args string) Step {
	return Step{Calls: []Call{{ID: id, Name: name, Args: args}}}
}

// Hang is a step that never answers. It returns once ctx is done.
func Hang() Step {
	return Step{Hang: true}
}

// GenerateContent implements aisdk.Generator.
func (g *Generator) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	g.mu.Lock()
	i := len(g.requests)
	g.requests = append(g.requests, Request{System: systemOf(messages), Messages: messages, Options: opts})
	g.mu.Unlock()

	if i >= len(g.steps) {
		return nil, fmt.Errorf("aisdktest: unexpected request %d", i+1)
	}
	step := g.steps[i]

	if opts.StreamingFunc != nil {
		for _, c := range step.Chunks {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	if step.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if step.Err != nil {
		return nil, step.Err
	}

	choice := &llms.ContentChoice{Content: step.Text}
	for _, c := range step.Calls {
		choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
			ID:   c.ID,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      c.Name,
				Arguments: c.Args,
			},
		})
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{choice}}, nil
}

// Requests returns a copy of every request received so far.
func (g *Generator) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Request(nil), g.requests...)
}

// Remaining is the number of unused steps.
func (g *Generator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.steps) - len(g.requests)
}

// Model builds a real adapter for provider that talks to g.
func Model(provider aisdk.Provider, g *Generator) aisdk.LanguageModel {
	info := ModelInfo(provider)
	lm, err := aisdk.NewLanguageModel(context.Background(), info, aisdk.Credentials{}, aisdk.WithGenerator(g))
	if err != nil {
		panic(err)
	}
	return lm
}

// ModelInfo returns the first catalogue entry of provider.
func ModelInfo(provider aisdk.Provider) aisdk.ModelInfo {
	for _, m := range aisdk.Models() {
		if m.Provider == provider {
			return m
		}
	}
	panic(errors.New("aisdktest: no model for provider " + string(provider)))
}

func systemOf(messages []llms.MessageContent) string {
	var parts []string
	for _, m := range messages {
		if m.Role != llms.ChatMessageTypeSystem {
			continue
		}
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				parts = append(parts, t.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}
