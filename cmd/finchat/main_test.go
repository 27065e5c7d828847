package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/app"
	"github.com/elee1766/finchat/src/config"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/storage"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitError},
		{"validation", config.ValidationError{Field: "server.addr", Message: "bad"}, ExitConfig},
		{"wrapped validation", fmt.Errorf("load: %w", config.ValidationError{Field: "x"}), ExitConfig},
		{"no jwt secret", fmt.Errorf("serve: %w", app.ErrNoJWTSecret), ExitConfig},
		{"unauthorized", executor.ErrUnauthorized, ExitAuth},
		{"missing key", &executor.ConfigError{Status: 400, Code: executor.CodeMissingAPIKey}, ExitAuth},
		{"free tier", &executor.ConfigError{Status: 400, Code: executor.CodeFreeTierExhausted}, ExitAuth},
		{"unknown model", &executor.ConfigError{Status: 400, Code: executor.CodeModelNotFound}, ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("nonsense"))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func versions(contents ...string) []storage.Document {
	out := make([]storage.Document, len(contents))
	for i, c := range contents {
		out[i] = storage.Document{ID: "doc", Title: "Report", Content: c, CreatedAt: time.Unix(int64(i), 0)}
	}
	return out
}

func TestPickVersion(t *testing.T) {
	vs := versions("one", "two", "three")

	latest, err := pickVersion(vs, 0)
	require.NoError(t, err)
	assert.Equal(t, "three", latest.Content)

	first, err := pickVersion(vs, 1)
	require.NoError(t, err)
	assert.Equal(t, "one", first.Content)

	_, err = pickVersion(vs, 4)
	assert.Error(t, err)
	_, err = pickVersion(vs, -1)
	assert.Error(t, err)
}

func TestDiffVersions(t *testing.T) {
	vs := versions("alpha\nbeta\n", "alpha\ngamma\n")

	out, err := diffVersions(vs, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "--- Report v1")
	assert.Contains(t, out, "+++ Report v2")
	assert.Contains(t, out, "-beta")
	assert.Contains(t, out, "+gamma")

	_, err = diffVersions(versions("only"), 0, 0)
	assert.Error(t, err)

	_, err = diffVersions(vs, 1, 5)
	assert.Error(t, err)
}

func TestPrintModelsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printModelsTable(&buf, aisdk.Models()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(aisdk.Models())+1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, buf.String(), aisdk.DefaultModelID+" *")
}

func TestPrintChats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printChats(&buf, nil))
	assert.Equal(t, "No chats.\n", buf.String())

	buf.Reset()
	require.NoError(t, printChats(&buf, []storage.Chat{
		{ID: "c1", Title: "Apple outlook", Visibility: storage.VisibilityPrivate, CreatedAt: time.Now()},
	}))
	assert.Contains(t, buf.String(), "Apple outlook")
	assert.Contains(t, buf.String(), "private")
}

func TestListToolbox(t *testing.T) {
	toolbox, err := listToolbox()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printToolsTable(&buf, toolbox.Tools()))
	assert.Contains(t, buf.String(), "getCurrentStockPrice")
	assert.Contains(t, buf.String(), "createDocument")
	assert.True(t, toolbox.HasTool("requestSuggestions"))
}
