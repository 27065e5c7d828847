package tool_createdocument

import (
	"context"

	"github.com/google/uuid"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/storage"
)

// Tool name constant
const Name = "createDocument"

const description = "Create a document for a writing activity. This tool will call other functions that will generate the contents of the document based on the title and kind."

const textPrompt = "Write about the given topic. Markdown is supported. Use headings wherever appropriate."

// CodePrompt steers code document generation.
const CodePrompt = `You are a Python code generator for financial analysis. Create self-contained, executable snippets.
- each snippet must be complete and runnable on its own
- print results with print() so the output shows what the code computed
- keep snippets short, generally under 20 lines
- use only the Python standard library
- handle bad input gracefully
- do not use input(), files, network access or infinite loops`

// Input represents the parameters for createDocument
type Input struct {
	Title string `json:"title" required:"true"`
	Kind  string `json:"kind" required:"true" enum:"text,code" validate:"oneof=text code"`
}

// Output is what the model is told about the new document.
type Output struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Kind    storage.DocumentKind `json:"kind"`
	Content string               `json:"content"`
}

// Tool returns the createDocument tool. Content is streamed to the client as
// it is generated and saved once complete.
func Tool(turn *toolsutil.Turn) (agent.Tool, error) {
	return agent.NewGenericTool(Name, description, func(ctx context.Context, in Input) (Output, error) {
		id := uuid.New().String()
		kind := storage.DocumentKind(in.Kind)

		turn.Emit(executor.DocumentID{ID: id})
		turn.Emit(executor.DocumentTitle{Title: in.Title})
		turn.Emit(executor.DocumentKind{Kind: kind})
		turn.Emit(executor.Clear{})

		var (
			content string
			err     error
		)
		if kind == storage.DocumentCode {
			content, err = turn.StreamCode(ctx, CodePrompt, in.Title)
		} else {
			content, err = turn.StreamText(ctx, textPrompt, in.Title)
		}
		turn.Emit(executor.Finish{})
		if err != nil {
			return Output{}, err
		}

		if turn.UserID != "" {
			doc := &storage.Document{ID: id, Title: in.Title, Kind: kind, Content: content, UserID: turn.UserID}
			if err := storage.SaveDocument(ctx, turn.DB, doc); err != nil {
				return Output{}, err
			}
		}

		return Output{
			ID:      id,
			Title:   in.Title,
			Kind:    kind,
			Content: "A document was created and is now visible to the user.",
		}, nil
	})
}
