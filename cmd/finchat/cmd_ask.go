package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/storage"
)

// localUser owns everything created from the terminal.
const localUser = "local"

// AskCmd runs one chat turn locally and renders the events
type AskCmd struct {
	Text      []string `arg:"" optional:"" help:"The question; read from stdin when omitted"`
	Model     string   `short:"m" help:"Model ID (see 'finchat model list')"`
	ChatID    string   `name:"chat" help:"Continue a stored chat"`
	Raw       bool     `help:"Print the answer text only"`
	Verbose   bool     `short:"v" help:"Show tool arguments and results"`
	NoLoading bool     `help:"Hide progress messages"`
}

func (c *AskCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	text := strings.TrimSpace(strings.Join(c.Text, " "))
	if text == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimSpace(string(b))
	}
	if text == "" {
		return fmt.Errorf("a question is required")
	}

	a, logger, err := openApp(ctx, cli, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	model := c.Model
	if model == "" {
		model = a.Config.Orchestrator.DefaultModel
	}

	req := executor.ChatRequest{
		ID:      c.ChatID,
		ModelID: model,
		UserID:  localUser,
	}
	if c.ChatID != "" {
		history, err := loadHistory(ctx, a.Store.DB(), c.ChatID)
		if err != nil {
			return err
		}
		req.Messages = history
	} else {
		req.ID = uuid.New().String()
	}
	content, _ := json.Marshal(text)
	req.Messages = append(req.Messages, executor.ClientMessage{Role: aisdk.RoleUser, Content: content})

	processor := executor.NewConsoleEventProcessor(executor.ConsoleProcessorConfig{
		ShowLoading:       !c.NoLoading,
		ShowToolArguments: c.Verbose,
		ShowToolResults:   c.Verbose,
		RawMode:           c.Raw,
	})
	sink := executor.NewChannelEventSink(100, logger, processor)

	if err := a.Executor.Chat(ctx, req, sink); err != nil {
		return err
	}
	if !c.Raw && c.ChatID == "" {
		fmt.Fprintf(os.Stderr, "\nchat: %s\n", req.ID)
	}
	return nil
}

// loadHistory returns a stored chat as the client would send it back.
func loadHistory(ctx context.Context, db storage.ExecQuerier, chatID string) ([]executor.ClientMessage, error) {
	chat, err := storage.GetChatByID(ctx, db, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil || chat.UserID != localUser {
		return nil, fmt.Errorf("chat %s not found", chatID)
	}
	msgs, err := storage.GetMessagesByChatID(ctx, db, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	out := make([]executor.ClientMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, executor.ClientMessage{
			ID:      m.ID,
			Role:    aisdk.Role(m.Role),
			Content: json.RawMessage(m.Content),
		})
	}
	return out, nil
}
