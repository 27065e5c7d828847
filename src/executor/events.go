package executor

import (
	"encoding/json"
	"fmt"

	"github.com/elee1766/finchat/src/storage"
)

// EventType is the wire name of an event.
type EventType string

const (
	EventUserMessageID     EventType = "user-message-id"
	EventQueryLoading      EventType = "query-loading"
	EventToolLoading       EventType = "tool-loading"
	EventDocumentID        EventType = "id"
	EventDocumentTitle     EventType = "title"
	EventDocumentKind      EventType = "kind"
	EventClear             EventType = "clear"
	EventTextDelta         EventType = "text-delta"
	EventCodeDelta         EventType = "code-delta"
	EventSuggestion        EventType = "suggestion"
	EventFinish            EventType = "finish"
	EventMessageAnnotation EventType = "message-annotation"
	EventToolCall          EventType = "tool-call"
	EventToolResult        EventType = "tool-result"
	EventError             EventType = "error"
)

// Event is one item of the response stream. The set of implementations is
// closed; every event is one of the types in this file.
type Event interface {
	EventType() EventType
	content() any
}

// UserMessageID carries the server id of the persisted user message.
type UserMessageID struct {
	ID string
}

// QueryLoading reports planning progress. TaskNames is empty once loading
// has finished.
type QueryLoading struct {
	IsLoading bool     `json:"isLoading"`
	TaskNames []string `json:"taskNames"`
}

// ToolLoading reports progress of a slow tool.
type ToolLoading struct {
	Tool      string  `json:"tool"`
	IsLoading bool    `json:"isLoading"`
	Message   *string `json:"message"`
}

// DocumentID opens a document stream.
type DocumentID struct {
	ID string
}

type DocumentTitle struct {
	Title string
}

type DocumentKind struct {
	Kind storage.DocumentKind
}

// Clear resets the client's document buffer. Content is empty for a new
// document and holds the title when a document is regenerated.
type Clear struct {
	Content string
}

// TextDelta is a fragment of answer or document text.
type TextDelta struct {
	Delta string
}

// CodeDelta carries the whole code document generated so far.
type CodeDelta struct {
	Code string
}

// Suggestion is one generated edit suggestion.
type Suggestion struct {
	Suggestion storage.Suggestion
}

// Finish closes a document stream.
type Finish struct{}

// MessageAnnotation tells the client the server id of an assistant message.
type MessageAnnotation struct {
	MessageIDFromServer string `json:"messageIdFromServer"`
}

// ToolCall is emitted before a tool runs.
type ToolCall struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args"`
}

// ToolResult is emitted after a tool ran or was skipped.
type ToolResult struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Result     json.RawMessage `json:"result"`
	IsError    bool            `json:"isError,omitempty"`
}

// Error ends a failed stream.
type Error struct {
	Message string `json:"message"`
}

func (UserMessageID) EventType() EventType     { return EventUserMessageID }
func (QueryLoading) EventType() EventType      { return EventQueryLoading }
func (ToolLoading) EventType() EventType       { return EventToolLoading }
func (DocumentID) EventType() EventType        { return EventDocumentID }
func (DocumentTitle) EventType() EventType     { return EventDocumentTitle }
func (DocumentKind) EventType() EventType      { return EventDocumentKind }
func (Clear) EventType() EventType             { return EventClear }
func (TextDelta) EventType() EventType         { return EventTextDelta }
func (CodeDelta) EventType() EventType         { return EventCodeDelta }
func (Suggestion) EventType() EventType        { return EventSuggestion }
func (Finish) EventType() EventType            { return EventFinish }
func (MessageAnnotation) EventType() EventType { return EventMessageAnnotation }
func (ToolCall) EventType() EventType          { return EventToolCall }
func (ToolResult) EventType() EventType        { return EventToolResult }
func (Error) EventType() EventType             { return EventError }

func (e UserMessageID) content() any { return e.ID }
func (e QueryLoading) content() any {
	if e.TaskNames == nil {
		e.TaskNames = []string{}
	}
	return e
}
func (e ToolLoading) content() any       { return e }
func (e DocumentID) content() any        { return e.ID }
func (e DocumentTitle) content() any     { return e.Title }
func (e DocumentKind) content() any      { return e.Kind }
func (e Clear) content() any             { return e.Content }
func (e TextDelta) content() any         { return e.Delta }
func (e CodeDelta) content() any         { return e.Code }
func (e Suggestion) content() any        { return e.Suggestion }
func (Finish) content() any              { return "" }
func (e MessageAnnotation) content() any { return e }
func (e ToolCall) content() any {
	if len(e.Args) == 0 {
		e.Args = json.RawMessage("{}")
	}
	return e
}
func (e ToolResult) content() any {
	if len(e.Result) == 0 {
		e.Result = json.RawMessage("null")
	}
	return e
}
func (e Error) content() any { return e }

// Frame is the wire form of an event: one JSON object per line.
type Frame struct {
	Type    EventType `json:"type"`
	Content any       `json:"content"`
}

// NewFrame wraps ev for encoding.
func NewFrame(ev Event) Frame {
	return Frame{Type: ev.EventType(), Content: ev.content()}
}

// ParseFrame decodes one wire frame back into an event.
func ParseFrame(line []byte) (Event, error) {
	var f struct {
		Type    EventType       `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(line, &f); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	var (
		ev  Event
		err error
	)
	switch f.Type {
	case EventUserMessageID:
		var e UserMessageID
		err = json.Unmarshal(f.Content, &e.ID)
		ev = e
	case EventQueryLoading:
		var e QueryLoading
		err = json.Unmarshal(f.Content, &e)
		ev = e
	case EventToolLoading:
		var e ToolLoading
		err = json.Unmarshal(f.Content, &e)
		ev = e
	case EventDocumentID:
		var e DocumentID
		err = json.Unmarshal(f.Content, &e.ID)
		ev = e
	case EventDocumentTitle:
		var e DocumentTitle
		err = json.Unmarshal(f.Content, &e.Title)
		ev = e
	case EventDocumentKind:
		var e DocumentKind
		err = json.Unmarshal(f.Content, &e.Kind)
		ev = e
	case EventClear:
		var e Clear
		err = json.Unmarshal(f.Content, &e.Content)
		ev = e
	case EventTextDelta:
		var e TextDelta
		err = json.Unmarshal(f.Content, &e.Delta)
		ev = e
	case EventCodeDelta:
		var e CodeDelta
		err = json.Unmarshal(f.Content, &e.Code)
		ev = e
	case EventSuggestion:
		var e Suggestion
		err = json.Unmarshal(f.Content, &e.Suggestion)
		ev = e
	case EventFinish:
		ev = Finish{}
	case EventMessageAnnotation:
		var e MessageAnnotation
		err = json.Unmarshal(f.Content, &e)
		ev = e
	case EventToolCall:
		var e ToolCall
		err = json.Unmarshal(f.Content, &e)
		ev = e
	case EventToolResult:
		var e ToolResult
		err = json.Unmarshal(f.Content, &e)
		ev = e
	case EventError:
		var e Error
		err = json.Unmarshal(f.Content, &e)
		ev = e
	default:
		return nil, fmt.Errorf("unknown event type %q", f.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s content: %w", f.Type, err)
	}
	return ev, nil
}

// EventSink receives the events of one response, in order.
type EventSink interface {
	// Send writes one event. Implementations are safe for concurrent use.
	Send(event Event) error

	// Flush pushes buffered events to the consumer.
	Flush() error

	// Close ends the stream. Later sends fail.
	Close() error
}

// EventProcessor handles events delivered by a ChannelEventSink.
type EventProcessor interface {
	// Process handles a single event
	Process(event Event) error

	// Close cleans up any resources
	Close() error
}
