package executor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elee1766/finchat/src/storage"
	"github.com/elee1766/finchat/src/theme"
)

// ConsoleProcessorConfig configures the console event processor
type ConsoleProcessorConfig struct {
	ShowLoading       bool
	ShowToolArguments bool
	ShowToolResults   bool
	// RawMode prints assistant text only.
	RawMode          bool
	MaxResultPreview int // Max characters to show in result preview
	Out              io.Writer
}

// ConsoleEventProcessor renders a response stream on a terminal. Document
// content is buffered and printed as one block when the document finishes.
type ConsoleEventProcessor struct {
	config ConsoleProcessorConfig
	styles theme.Styles

	lastTasks  string
	midLine    bool
	inDocument bool
	docTitle   string
	docKind    storage.DocumentKind
	docText    strings.Builder
	docCode    string
}

// NewConsoleEventProcessor creates a new console event processor
func NewConsoleEventProcessor(config ConsoleProcessorConfig) *ConsoleEventProcessor {
	if config.MaxResultPreview == 0 {
		config.MaxResultPreview = 200
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &ConsoleEventProcessor{
		config: config,
		styles: theme.Current(),
	}
}

// Process handles a single event
func (p *ConsoleEventProcessor) Process(event Event) error {
	if p.config.RawMode {
		if e, ok := event.(TextDelta); ok && !p.inDocument {
			p.write(e.Delta)
		}
		p.track(event)
		return nil
	}

	switch e := event.(type) {
	case QueryLoading:
		p.processQueryLoading(e)
	case ToolLoading:
		if e.IsLoading && e.Message != nil && p.config.ShowLoading {
			p.line(p.styles.Muted.Render("   " + *e.Message))
		}
	case ToolCall:
		p.processToolCall(e)
	case ToolResult:
		p.processToolResult(e)
	case TextDelta:
		if p.inDocument {
			p.docText.WriteString(e.Delta)
			return nil
		}
		p.write(e.Delta)
	case Suggestion:
		s := e.Suggestion
		p.line(fmt.Sprintf("   %s %s → %s",
			p.styles.Warning.Render("✎"),
			theme.Preview(s.OriginalText, 60),
			theme.Preview(s.SuggestedText, 60)))
		if s.Description != "" {
			p.line(p.styles.Muted.Render("     " + s.Description))
		}
	case Finish:
		p.renderDocument()
	case Error:
		p.line(p.styles.Error.Render("❌ " + e.Message))
	}
	p.track(event)
	return nil
}

// track follows document boundaries.
func (p *ConsoleEventProcessor) track(event Event) {
	switch e := event.(type) {
	case DocumentID:
		p.inDocument = true
		p.docTitle = ""
		p.docKind = storage.DocumentText
		p.docText.Reset()
		p.docCode = ""
	case DocumentTitle:
		p.docTitle = e.Title
	case DocumentKind:
		p.docKind = e.Kind
	case Clear:
		p.inDocument = true
		if p.docTitle == "" {
			p.docTitle = e.Content
		}
		p.docText.Reset()
		p.docCode = ""
	case CodeDelta:
		p.docCode = e.Code
	case Finish:
		p.inDocument = false
	}
}

// Close ends the current line.
func (p *ConsoleEventProcessor) Close() error {
	if p.midLine {
		fmt.Fprintln(p.config.Out)
		p.midLine = false
	}
	return nil
}

func (p *ConsoleEventProcessor) processQueryLoading(e QueryLoading) {
	if !p.config.ShowLoading || !e.IsLoading {
		return
	}
	key := strings.Join(e.TaskNames, "\x00")
	if key == p.lastTasks {
		return
	}
	p.lastTasks = key
	for _, name := range e.TaskNames {
		p.line(p.styles.Muted.Render("• " + name))
	}
}

func (p *ConsoleEventProcessor) processToolCall(e ToolCall) {
	p.line("🔧 Calling tool: " + p.styles.Label.Render(e.ToolName))
	if !p.config.ShowToolArguments {
		return
	}
	var v any
	if err := json.Unmarshal(e.Args, &v); err == nil {
		if pretty, err := json.MarshalIndent(v, "   ", "  "); err == nil {
			p.line("   Arguments:\n   " + string(pretty))
			return
		}
	}
	p.line("   Arguments: " + string(e.Args))
}

func (p *ConsoleEventProcessor) processToolResult(e ToolResult) {
	switch {
	case e.IsError:
		p.line(p.styles.Error.Render("   ❌ Tool failed: ") + theme.Preview(string(e.Result), p.config.MaxResultPreview))
		return
	case string(e.Result) == "null":
		p.line(p.styles.Muted.Render("   ↷ Skipped repeated call"))
		return
	}
	p.line(p.styles.Success.Render("   ✓ Tool completed"))
	if p.config.ShowToolResults && len(e.Result) > 0 {
		p.line("   Result preview: " + theme.Preview(string(e.Result), p.config.MaxResultPreview))
	}
}

func (p *ConsoleEventProcessor) renderDocument() {
	body := p.docText.String()
	if p.docKind == storage.DocumentCode {
		body = theme.Highlight(p.docCode, "python")
	}
	title := p.docTitle
	if title == "" {
		title = "Document"
	}
	p.line(p.styles.Title.Render("📄 " + title))
	p.line(p.styles.Box.Render(strings.TrimRight(body, "\n")))
}

func (p *ConsoleEventProcessor) write(s string) {
	if s == "" {
		return
	}
	fmt.Fprint(p.config.Out, s)
	p.midLine = !strings.HasSuffix(s, "\n")
}

func (p *ConsoleEventProcessor) line(s string) {
	if p.midLine {
		fmt.Fprintln(p.config.Out)
		p.midLine = false
	}
	fmt.Fprintln(p.config.Out, s)
}
