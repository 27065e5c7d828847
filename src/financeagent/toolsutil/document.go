package toolsutil

import (
	"context"
	"errors"
	"fmt"
	"io"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/schema"
)

var codeSchema = schema.CreateObjectSchema(map[string]*jsonschema.Schema{
	"code": schema.CreateStringSchema("The complete source code"),
}, []string{"code"})

// StreamText generates a text document and forwards each delta to the
// client. It returns the whole text.
func (t *Turn) StreamText(ctx context.Context, system, prompt string) (string, error) {
	stream, err := t.Model.StreamText(ctx, aisdk.TextRequest{
		System:   system,
		Messages: []aisdk.Message{{Role: aisdk.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate document: %w", err)
	}
	defer stream.Close()

	for {
		part, err := stream.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stream.Text(), err
		}
		switch part.Type {
		case aisdk.PartTextDelta:
			t.Emit(executor.TextDelta{Delta: part.TextDelta})
		case aisdk.PartError:
			return stream.Text(), fmt.Errorf("failed to generate document: %w", part.Err)
		}
	}
	return stream.Text(), nil
}

// StreamCode generates a code document. Every partial object with more code
// is forwarded whole, so the client always holds the latest full draft.
func (t *Turn) StreamCode(ctx context.Context, system, prompt string) (string, error) {
	stream, err := t.Model.StreamObject(ctx, aisdk.ObjectRequest{
		System:   system,
		Prompt:   prompt,
		Schema:   codeSchema,
		Output:   aisdk.OutputObject,
		Fallback: []byte(`{"code":""}`),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	defer stream.Close()

	var draft string
	for {
		part, err := stream.Read()
		if err != nil {
			break
		}
		if code := StringField(part.Partial, "code"); code != "" && code != draft {
			draft = code
			t.Emit(executor.CodeDelta{Code: code})
		}
	}

	final, err := stream.Final()
	if err != nil {
		return draft, fmt.Errorf("failed to generate code: %w", err)
	}
	if code := StringField(final, "code"); code != "" {
		if code != draft {
			t.Emit(executor.CodeDelta{Code: code})
		}
		draft = code
	}
	return draft, nil
}
