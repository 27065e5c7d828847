package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/elee1766/finchat/src/aisdk"
)

// SkippedType marks a response that short-circuited a repeated call.
const SkippedType = "skipped"

// CallSet records the invocation keys seen during one turn. It belongs to a
// single request and is not safe for concurrent use.
type CallSet struct {
	seen map[string]struct{}
}

// NewCallSet returns an empty set.
func NewCallSet() *CallSet {
	return &CallSet{seen: make(map[string]struct{})}
}

// Seen reports whether key was recorded and records it if not.
func (s *CallSet) Seen(key string) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Len is the number of distinct keys recorded.
func (s *CallSet) Len() int {
	return len(s.seen)
}

// InvocationKey is the tool name joined with the canonical form of args.
// Arguments that differ only in key order or whitespace share a key.
func InvocationKey(name string, args json.RawMessage) string {
	return name + ":" + string(CanonicalJSON(args))
}

// CanonicalJSON re-encodes raw with object keys sorted at every level. Input
// that is not valid JSON is returned as is, minus surrounding whitespace.
func CanonicalJSON(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return trimmed
	}
	var buf bytes.Buffer
	writeCanonical(&buf, v)
	return buf.Bytes()
}

func writeCanonical(buf *bytes.Buffer, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			writeCanonical(buf, t[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, e)
		}
		buf.WriteByte(']')
	default:
		b, _ := json.Marshal(t)
		buf.Write(b)
	}
}

// SkippedResponse is returned in place of running a repeated call.
func SkippedResponse() *aisdk.ToolResponse {
	return &aisdk.ToolResponse{
		Type:    SkippedType,
		Content: []byte("null"),
	}
}

// DedupMiddleware runs each distinct (tool, arguments) pair at most once per
// set. Later calls get SkippedResponse without reaching the tool.
func DedupMiddleware(set *CallSet) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
			if set.Seen(InvocationKey(call.Function.Name, call.Function.Arguments)) {
				return SkippedResponse(), nil
			}
			return next(ctx, call)
		}
	}
}
