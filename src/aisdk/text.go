package aisdk

import (
	"context"
	"errors"
)

// StreamText starts the multi-step tool loop. Each step calls the vendor with
// the conversation so far; tool calls it returns are executed in order and
// their results fed into the next step. The loop ends on a step without tool
// calls or after MaxSteps.
func (a *adapter) StreamText(ctx context.Context, req TextRequest) (*TextStream, error) {
	p := newPipe[StreamPart](ctx)
	s := &TextStream{pipe: p}
	go a.runSteps(ctx, p, s, req)

	first, ok := p.recv()
	if !ok {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if first.Type == PartError {
		<-p.done
		return nil, first.Err
	}
	s.pending = &first
	return s, nil
}

// runSteps produces the parts of s. When parent ends before the loop does,
// the stream is failed with the context error so a reader never mistakes a
// cut-off turn for a finished one.
func (a *adapter) runSteps(parent context.Context, p *pipe[StreamPart], s *TextStream, req TextRequest) {
	completed := false
	defer func() {
		if err := parent.Err(); err != nil && !completed {
			s.fail(a.wrap("stream", err))
		}
		p.finish()
	}()
	ctx := p.ctx

	maxSteps := req.MaxSteps
	if maxSteps < 1 {
		maxSteps = 1
	}
	history := make([]Message, len(req.Messages), len(req.Messages)+2*maxSteps)
	copy(history, req.Messages)

	for step := 0; step < maxSteps; step++ {
		res, err := a.step(ctx, req.System, history, req.Tools, false, func(delta string) error {
			s.appendText(delta)
			if !p.send(StreamPart{Type: PartTextDelta, TextDelta: delta, Step: step}) {
				return ErrStreamClosed
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, ErrStreamClosed) {
				return
			}
			a.logger.Warn("model step failed", "step", step, "error", err)
			p.send(StreamPart{Type: PartError, Err: a.wrap("stream", err), Step: step})
			return
		}

		assistant := Message{Role: RoleAssistant, Content: res.Text, ToolCalls: res.ToolCalls}
		s.appendMessage(assistant)
		history = append(history, assistant)

		if len(res.ToolCalls) == 0 {
			completed = true
			return
		}

		for i := range res.ToolCalls {
			call := &res.ToolCalls[i]
			if !p.send(StreamPart{Type: PartToolCall, ToolCall: call, Step: step}) {
				return
			}
			if req.Executor == nil {
				continue
			}

			resp, execErr := req.Executor(ctx, call)
			result := ResultFromResponse(call, resp, execErr)
			toolMsg := Message{
				Role:       RoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    string(result.Result),
			}
			s.appendMessage(toolMsg)
			history = append(history, toolMsg)

			if !p.send(StreamPart{Type: PartToolResult, ToolResult: &result, Step: step}) {
				return
			}
		}

		// Without an executor there is nothing to feed back to the model.
		if req.Executor == nil {
			completed = true
			return
		}
	}
	completed = true
}
