// Package planner breaks a user message into short progress tasks before the
// main answer is generated.
package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/finchat/src/aisdk"
)

// DefaultMaxTasks bounds the plan length.
const DefaultMaxTasks = 6

// Task is one planned step. Tasks live for a single request.
type Task struct {
	TaskName string `json:"task_name" validate:"required" required:"true" description:"Short present progressive description of the step"`
	Class    string `json:"class" validate:"required" required:"true" description:"The name of the sub-task"`
}

// FallbackTask is used whenever planning produces nothing usable.
var FallbackTask = Task{TaskName: "Analyzing your query...", Class: "default"}

// Fallback returns a fresh single-task plan.
func Fallback() []Task {
	return []Task{FallbackTask}
}

type Option func(*Planner)

// WithMaxTasks caps the number of tasks kept from the model output.
func WithMaxTasks(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.maxTasks = n
		}
	}
}

// WithLogger sets the planner logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// Planner turns a user message into a task list.
type Planner struct {
	maxTasks int
	logger   *slog.Logger
	validate *validator.Validate
	schema   *jsonschema.Schema
}

// New creates a planner.
func New(opts ...Option) *Planner {
	p := &Planner{
		maxTasks: DefaultMaxTasks,
		logger:   slog.Default(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.With("component", "planner")

	reflector := jsonschema.Reflector{}
	s, err := reflector.Reflect(Task{}, jsonschema.InlineRefs)
	if err == nil {
		p.schema = &s
	}
	return p
}

// Plan asks model for a task list. It never fails: vendor errors, output that
// is not JSON and elements missing a field all end in Fallback.
func (p *Planner) Plan(ctx context.Context, model aisdk.LanguageModel, userMessage string) []Task {
	fallback, _ := json.Marshal(Fallback())

	stream, err := model.StreamObject(ctx, aisdk.ObjectRequest{
		Prompt:   Prompt(userMessage),
		Schema:   p.schema,
		Output:   aisdk.OutputArray,
		Fallback: fallback,
	})
	if err != nil {
		p.logger.Warn("failed to start planning", "provider", model.Provider(), "error", err)
		return Fallback()
	}
	defer stream.Close()

	raw, err := stream.Final()
	if err != nil {
		p.logger.Warn("planning failed, using fallback", "provider", model.Provider(), "error", err)
		return Fallback()
	}

	tasks := p.parse(raw)
	if len(tasks) == 0 {
		p.logger.Debug("no valid tasks in model output, using fallback")
		return Fallback()
	}
	p.logger.Debug("planned tasks", "count", len(tasks))
	return tasks
}

// parse keeps every element that decodes into a Task with both fields set.
func (p *Planner) parse(raw json.RawMessage) []Task {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	tasks := make([]Task, 0, len(elems))
	for _, e := range elems {
		var t Task
		if err := json.Unmarshal(e, &t); err != nil {
			continue
		}
		t.TaskName = strings.TrimSpace(t.TaskName)
		t.Class = strings.TrimSpace(t.Class)
		if err := p.validate.Struct(t); err != nil {
			continue
		}
		tasks = append(tasks, t)
		if len(tasks) == p.maxTasks {
			break
		}
	}
	return tasks
}

// TaskNames returns the display names in order.
func TaskNames(tasks []Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.TaskName
	}
	return names
}

// FoldTasks returns a copy of messages whose final user message is replaced by
// the task names, one per line. The input slice is not modified.
func FoldTasks(messages []aisdk.Message, tasks []Task) []aisdk.Message {
	out := make([]aisdk.Message, len(messages))
	copy(out, messages)
	if len(out) == 0 || len(tasks) == 0 {
		return out
	}
	last := len(out) - 1
	if out[last].Role != aisdk.RoleUser {
		return out
	}
	out[last].Content = strings.Join(TaskNames(tasks), "\n")
	return out
}
