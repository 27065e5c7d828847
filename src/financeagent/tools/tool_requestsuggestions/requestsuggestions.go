package tool_requestsuggestions

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/google/uuid"
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/schema"
	"github.com/elee1766/finchat/src/storage"
)

// Tool name constant
const Name = "requestSuggestions"

const description = "Request suggestions for a document"

// MaxSuggestions caps how many suggestions one request produces.
const MaxSuggestions = 5

const systemPrompt = "You are a help writing assistant. Given a piece of writing, please offer suggestions to improve the piece of writing and describe the change. It is very important for the edits to contain full sentences instead of just words. Max 5 suggestions."

var suggestionSchema = schema.CreateObjectSchema(map[string]*jsonschema.Schema{
	"originalSentence":  schema.CreateStringSchema("The original sentence"),
	"suggestedSentence": schema.CreateStringSchema("The suggested sentence"),
	"description":       schema.CreateStringSchema("The description of the suggestion"),
}, []string{"originalSentence", "suggestedSentence", "description"})

type element struct {
	OriginalSentence  string `json:"originalSentence"`
	SuggestedSentence string `json:"suggestedSentence"`
	Description       string `json:"description"`
}

// Input represents the parameters for requestSuggestions
type Input struct {
	DocumentID string `json:"documentId" required:"true" description:"The ID of the document to request edits"`
}

// Output is what the model is told once suggestions are stored.
type Output struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Kind    storage.DocumentKind `json:"kind"`
	Message string               `json:"message"`
}

// Tool returns the requestSuggestions tool. Each suggestion is streamed to
// the client as soon as it is complete; all of them are saved together.
func Tool(turn *toolsutil.Turn) (agent.Tool, error) {
	return agent.NewGenericTool(Name, description, func(ctx context.Context, in Input) (Output, error) {
		doc, err := storage.GetDocumentByID(ctx, turn.DB, in.DocumentID)
		if err != nil {
			return Output{}, err
		}
		if doc == nil || doc.Content == "" || doc.UserID != turn.UserID {
			return Output{}, toolsutil.ErrDocumentNotFound
		}

		stream, err := turn.Model.StreamObject(ctx, aisdk.ObjectRequest{
			System:   systemPrompt,
			Prompt:   doc.Content,
			Schema:   suggestionSchema,
			Output:   aisdk.OutputArray,
			Fallback: []byte("[]"),
		})
		if err != nil {
			return Output{}, err
		}
		defer stream.Close()

		var suggestions []storage.Suggestion
		for len(suggestions) < MaxSuggestions {
			part, err := stream.Read()
			if errors.Is(err, io.EOF) || err != nil {
				break
			}
			var el element
			if err := json.Unmarshal(part.Element, &el); err != nil || el.OriginalSentence == "" || el.SuggestedSentence == "" {
				continue
			}
			s := storage.Suggestion{
				ID:                uuid.New().String(),
				DocumentID:        doc.ID,
				DocumentCreatedAt: doc.CreatedAt,
				OriginalText:      el.OriginalSentence,
				SuggestedText:     el.SuggestedSentence,
				Description:       el.Description,
				UserID:            turn.UserID,
			}
			turn.Emit(executor.Suggestion{Suggestion: s})
			suggestions = append(suggestions, s)
		}

		if err := storage.SaveSuggestions(ctx, turn.DB, suggestions); err != nil {
			return Output{}, err
		}

		return Output{
			ID:      doc.ID,
			Title:   doc.Title,
			Kind:    doc.Kind,
			Message: "Suggestions have been added to the document",
		}, nil
	})
}
