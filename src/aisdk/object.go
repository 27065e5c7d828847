package aisdk

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/finchat/src/schema"
)

const objectInstruction = "Respond only with a JSON value that conforms to this JSON schema. Do not wrap it in markdown.\n"

// StreamObject asks the model for JSON matching req.Schema. Partial values
// are emitted while a streaming vendor produces tokens. Invalid output is
// replaced by req.Fallback; a vendor failure also yields the fallback and is
// reported by Final alongside it.
func (a *adapter) StreamObject(ctx context.Context, req ObjectRequest) (*ObjectStream, error) {
	system, err := objectSystemPrompt(req)
	if err != nil {
		return nil, err
	}

	p := newPipe[ObjectPart](ctx)
	s := &ObjectStream{pipe: p}
	go a.runObject(p, s, system, req)
	return s, nil
}

func objectSystemPrompt(req ObjectRequest) (string, error) {
	target := req.Schema
	if req.Output == OutputArray {
		target = arrayWrapperSchema(req.Schema)
	}
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	if target != nil {
		raw, err := json.Marshal(target)
		if err != nil {
			return "", err
		}
		b.WriteString(objectInstruction)
		b.Write(raw)
	}
	return b.String(), nil
}

// arrayWrapperSchema wraps the element schema in {"elements": [...]} since
// JSON mode vendors only accept an object at the top level.
func arrayWrapperSchema(item *jsonschema.Schema) *jsonschema.Schema {
	return schema.CreateObjectSchema(map[string]*jsonschema.Schema{
		"elements": schema.CreateArraySchema("", item),
	}, []string{"elements"})
}

func (a *adapter) runObject(p *pipe[ObjectPart], s *ObjectStream, system string, req ObjectRequest) {
	defer p.finish()

	var (
		buf     strings.Builder
		last    string
		emitted int
	)
	onText := func(delta string) error {
		buf.WriteString(delta)
		repaired, ok := repairJSON(stripFences(buf.String()))
		if !ok || repaired == last {
			return nil
		}
		last = repaired
		if req.Output == OutputArray {
			elems, ok := arrayElements(json.RawMessage(repaired))
			// The last element may still be growing.
			for ok && emitted < len(elems)-1 {
				if !p.send(ObjectPart{Element: elems[emitted], Index: emitted}) {
					return ErrStreamClosed
				}
				emitted++
			}
			return nil
		}
		if !p.send(ObjectPart{Partial: json.RawMessage(repaired)}) {
			return ErrStreamClosed
		}
		return nil
	}

	msgs := []Message{{Role: RoleUser, Content: req.Prompt}}
	res, err := a.step(p.ctx, system, msgs, nil, true, onText)
	if err != nil {
		if err == ErrStreamClosed {
			return
		}
		a.logger.Warn("object generation failed, using fallback", "error", err)
		s.setResult(req.Fallback, a.wrap("object", err))
		return
	}

	text := stripFences(res.Text)
	if !json.Valid([]byte(text)) {
		a.logger.Warn("model returned invalid JSON, using fallback", "len", len(text))
		s.setResult(req.Fallback, nil)
		return
	}

	if req.Output != OutputArray {
		if text != last {
			p.send(ObjectPart{Partial: json.RawMessage(text)})
		}
		s.setResult(json.RawMessage(text), nil)
		return
	}

	elems, ok := arrayElements(json.RawMessage(text))
	if !ok {
		a.logger.Warn("model returned JSON without an elements array, using fallback")
		s.setResult(req.Fallback, nil)
		return
	}
	for ; emitted < len(elems); emitted++ {
		if !p.send(ObjectPart{Element: elems[emitted], Index: emitted}) {
			break
		}
	}
	final, err := json.Marshal(elems)
	if err != nil {
		s.setResult(req.Fallback, nil)
		return
	}
	s.setResult(final, nil)
}

// arrayElements accepts both the {"elements": [...]} wrapper and a bare array.
func arrayElements(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	if trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, false
		}
		return elems, true
	}
	var wrapper struct {
		Elements *[]json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil || wrapper.Elements == nil {
		return nil, false
	}
	return *wrapper.Elements, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// repairJSON closes a truncated JSON document so it can be parsed. It returns
// false when the prefix cannot be completed into valid JSON, for example when
// it ends inside a key or a literal.
func repairJSON(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		out := b.String()
		if escaped {
			out = out[:len(out)-1]
		}
		b.Reset()
		b.WriteString(out)
		b.WriteByte('"')
	}

	out := strings.TrimRightFunc(b.String(), func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		out += "null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	if !json.Valid([]byte(out)) {
		return "", false
	}
	return out, true
}
