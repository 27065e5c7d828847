package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/planner"
	"github.com/elee1766/finchat/src/storage"
)

// emitter forwards events to a sink. A failed send is logged once; the turn
// keeps running so the response can still be stored.
type emitter struct {
	sink    EventSink
	logger  *slog.Logger
	dropped atomic.Bool
}

func (e *emitter) send(ev Event) {
	if err := e.sink.Send(ev); err != nil && e.dropped.CompareAndSwap(false, true) {
		e.logger.Debug("event dropped", "type", ev.EventType(), "error", err)
	}
}

// Stream runs a prepared turn and writes its events to sink. It plans the
// turn, streams the model with tools, and stores the response. The sink is
// flushed and closed before Stream returns.
//
// Work continues when the caller's context is cancelled; only the turn's
// deadline stops it. A client that goes away detaches the sink instead. A
// turn that fails or runs out of time stores nothing beyond the user message.
func (s *Service) Stream(ctx context.Context, turn *Turn, sink EventSink) error {
	ctx, cancel := context.WithDeadline(context.WithoutCancel(ctx), turn.deadline(s.requestTimeout))
	defer cancel()

	logger := s.logger.With("chat_id", turn.Chat.ID, "model", turn.Info.ID)
	em := &emitter{sink: sink, logger: logger}
	defer func() {
		if err := sink.Flush(); err != nil {
			logger.Warn("failed to flush events", "error", err)
		}
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close event sink", "error", err)
		}
	}()

	em.send(UserMessageID{ID: turn.UserMessageID})
	em.send(QueryLoading{IsLoading: true, TaskNames: planner.TaskNames([]planner.Task{planner.FallbackTask})})

	tasks := s.planner.Plan(ctx, turn.Model, turn.UserText)
	em.send(QueryLoading{IsLoading: true, TaskNames: planner.TaskNames(tasks)})

	endLoading := sync.OnceFunc(func() {
		em.send(QueryLoading{IsLoading: false})
	})
	defer endLoading()

	fail := func(err error) error {
		endLoading()
		em.send(Error{Message: errorMessage(err)})
		logger.Error("turn failed", "error", err)
		return err
	}

	toolbox, err := s.toolboxes(ctx, ToolboxRequest{
		UserID:      turn.UserID,
		ChatID:      turn.Chat.ID,
		Model:       turn.Model,
		Credentials: turn.Credentials,
		Sink:        sink,
		Logger:      logger,
	})
	if err != nil {
		endLoading()
		em.send(Error{Message: "Failed to prepare tools"})
		return fmt.Errorf("failed to build toolbox: %w", err)
	}
	toolbox.RegisterMiddleware(agent.LoggingMiddleware(logger))
	toolbox.RegisterMiddleware(agent.DedupMiddleware(agent.NewCallSet()))

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	system := s.systemPrompt
	if s.prompt != nil {
		system = s.prompt(toolbox)
	}

	stream, err := turn.Model.StreamText(ctx, aisdk.TextRequest{
		System:   system,
		Messages: planner.FoldTasks(turn.History, tasks),
		Tools:    toolbox.ChatTools(),
		Executor: reportingExecutor(em, toolbox.ExecuteTool, endLoading),
		MaxSteps: s.maxSteps,
	})
	if err != nil {
		return fail(err)
	}
	defer stream.Close()

	for {
		part, err := stream.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(err)
		}

		switch part.Type {
		case aisdk.PartTextDelta:
			endLoading()
			em.send(TextDelta{Delta: part.TextDelta})
		case aisdk.PartError:
			return fail(part.Err)
		}
	}

	// A deadline can land between the last part and the end of the stream.
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	endLoading()

	s.finalize(ctx, turn, stream.Messages(), em)
	return nil
}

// reportingExecutor emits a tool-call event before each execution and a
// tool-result event after it, then calls done. It runs on the goroutine that
// drives the model, so events a tool sends itself fall between the two.
func reportingExecutor(em *emitter, next aisdk.ToolExecutor, done func()) aisdk.ToolExecutor {
	return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
		em.send(ToolCall{
			ToolCallID: call.ID,
			ToolName:   call.Function.Name,
			Args:       call.Function.Arguments,
		})
		resp, err := next(ctx, call)
		result := aisdk.ResultFromResponse(call, resp, err)
		em.send(ToolResult{
			ToolCallID: result.ToolCallID,
			ToolName:   result.ToolName,
			Result:     result.Result,
			IsError:    result.IsError,
		})
		done()
		return resp, err
	}
}

// finalize stores the response messages and tells the client the id of
// each stored assistant message. Storage failures are logged, not returned:
// the client already has the content.
func (s *Service) finalize(ctx context.Context, turn *Turn, msgs []aisdk.Message, em *emitter) {
	msgs = SanitizeMessages(msgs)
	if len(msgs) == 0 {
		return
	}

	rows := make([]storage.Message, 0, len(msgs))
	for _, m := range msgs {
		content, err := aisdk.EncodeContent(m)
		if err != nil {
			s.logger.Warn("skipping unencodable message", "role", m.Role, "error", err)
			continue
		}
		row := storage.Message{
			ID:       uuid.New().String(),
			ChatID:   turn.Chat.ID,
			Role:     string(m.Role),
			Content:  storage.JSONContent(content),
			Provider: string(turn.Info.Provider),
		}
		if m.Role == aisdk.RoleAssistant {
			em.send(MessageAnnotation{MessageIDFromServer: row.ID})
		}
		rows = append(rows, row)
	}

	pctx, cancel := persistContext(ctx)
	defer cancel()
	if err := storage.SaveMessages(pctx, s.database, rows); err != nil {
		s.logger.Error("failed to save response messages",
			"chat_id", turn.Chat.ID,
			"count", len(rows),
			"error", err,
		)
	}
}

// SanitizeMessages drops tool calls that never got a result, tool results
// without a matching call, and assistant messages left with nothing in them.
func SanitizeMessages(msgs []aisdk.Message) []aisdk.Message {
	answered := make(map[string]bool)
	for _, m := range msgs {
		if m.Role == aisdk.RoleTool && m.ToolCallID != "" {
			answered[m.ToolCallID] = true
		}
	}

	called := make(map[string]bool)
	out := make([]aisdk.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case aisdk.RoleAssistant:
			var calls []aisdk.ToolCall
			for _, tc := range m.ToolCalls {
				if answered[tc.ID] {
					calls = append(calls, tc)
					called[tc.ID] = true
				}
			}
			m.ToolCalls = calls
			if strings.TrimSpace(m.Content) == "" && len(calls) == 0 {
				continue
			}
		case aisdk.RoleTool:
			if !called[m.ToolCallID] {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

func errorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}
	var perr *aisdk.ProviderError
	if errors.As(err, &perr) {
		return fmt.Sprintf("%s request failed", perr.Provider.DisplayName())
	}
	return "An error occurred while generating the response"
}
