package tool_updatedocument

import (
	"context"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/storage"
)

// Tool name constant
const Name = "updateDocument"

const description = "Update a document with the given description."

// UpdatePrompt is the system prompt for regenerating a document.
func UpdatePrompt(current string) string {
	return "Improve the following contents of the document based on the given prompt.\n\n" + current
}

// Input represents the parameters for updateDocument
type Input struct {
	ID          string `json:"id" required:"true" description:"The ID of the document to update"`
	Description string `json:"description" required:"true" description:"The description of changes that need to be made"`
}

// Output is what the model is told about the updated document.
type Output struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Kind    storage.DocumentKind `json:"kind"`
	Content string               `json:"content"`
}

// Tool returns the updateDocument tool. The regenerated content is saved as
// a new version of the document.
func Tool(turn *toolsutil.Turn) (agent.Tool, error) {
	return agent.NewGenericTool(Name, description, func(ctx context.Context, in Input) (Output, error) {
		doc, err := storage.GetDocumentByID(ctx, turn.DB, in.ID)
		if err != nil {
			return Output{}, err
		}
		if doc == nil || doc.UserID != turn.UserID {
			return Output{}, toolsutil.ErrDocumentNotFound
		}

		turn.Emit(executor.Clear{Content: doc.Title})

		var content string
		if doc.Kind == storage.DocumentCode {
			content, err = turn.StreamCode(ctx, UpdatePrompt(doc.Content), in.Description)
		} else {
			content, err = turn.StreamText(ctx, UpdatePrompt(doc.Content), in.Description)
		}
		turn.Emit(executor.Finish{})
		if err != nil {
			return Output{}, err
		}

		next := &storage.Document{ID: doc.ID, Title: doc.Title, Kind: doc.Kind, Content: content, UserID: turn.UserID}
		if err := storage.SaveDocument(ctx, turn.DB, next); err != nil {
			return Output{}, err
		}

		return Output{
			ID:      doc.ID,
			Title:   doc.Title,
			Kind:    doc.Kind,
			Content: "The document has been updated successfully.",
		}, nil
	})
}
