package toolsutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elee1766/finchat/src/executor"
)

func TestStringField(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"code":"print(1)"}`, "print(1)"},
		{`{"code":1}`, ""},
		{`{"other":"x"}`, ""},
		{`["code"]`, ""},
		{`{"code":"pri`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, StringField(json.RawMessage(tt.raw), "code"))
		})
	}
}

func TestTurnEmit(t *testing.T) {
	sink := executor.NewCollectingSink()
	turn := &Turn{Sink: sink}
	turn.Emit(executor.Finish{})
	_ = sink.Close()
	turn.Emit(executor.Finish{})

	assert.Equal(t, []executor.EventType{executor.EventFinish}, sink.Types())

	var empty Turn
	empty.Emit(executor.Finish{})
}
