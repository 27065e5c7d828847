package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/storage"
	"github.com/elee1766/finchat/src/theme"
)

// ChatCmd inspects stored chats
type ChatCmd struct {
	List   ChatListCmd   `cmd:"" help:"List chats"`
	Show   ChatShowCmd   `cmd:"" help:"Print a chat transcript"`
	Delete ChatDeleteCmd `cmd:"" help:"Delete a chat and its messages"`
}

type ChatListCmd struct {
	User string `short:"u" default:"local" help:"Owner of the chats"`
}

func (c *ChatListCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	chats, err := storage.GetChatsByUserID(ctx, a.Store.DB(), c.User)
	if err != nil {
		return fmt.Errorf("failed to list chats: %w", err)
	}
	return printChats(os.Stdout, chats)
}

func printChats(w io.Writer, chats []storage.Chat) error {
	if len(chats) == 0 {
		fmt.Fprintln(w, "No chats.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tVISIBILITY\tTITLE")
	for _, ch := range chats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ch.ID, ch.CreatedAt.Local().Format("2006-01-02 15:04"), ch.Visibility, ch.Title)
	}
	return tw.Flush()
}

type ChatShowCmd struct {
	ID string `arg:"" help:"Chat ID"`
}

func (c *ChatShowCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	chat, err := storage.GetChatByID(ctx, a.Store.DB(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return fmt.Errorf("chat %s not found", c.ID)
	}
	msgs, err := storage.GetMessagesByChatID(ctx, a.Store.DB(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	printTranscript(os.Stdout, theme.Current(), chat, msgs)
	return nil
}

// printTranscript prints user and assistant text. Tool traffic is shown as
// a one-line marker.
func printTranscript(w io.Writer, styles theme.Styles, chat *storage.Chat, msgs []storage.Message) {
	fmt.Fprintln(w, styles.Title.Render(chat.Title))
	for _, m := range msgs {
		text := strings.TrimSpace(aisdk.TextOf(json.RawMessage(m.Content)))
		switch aisdk.Role(m.Role) {
		case aisdk.RoleUser:
			fmt.Fprintln(w, styles.Label.Render("you: ")+text)
		case aisdk.RoleAssistant:
			if text == "" {
				fmt.Fprintln(w, styles.Muted.Render("   (tool calls)"))
				continue
			}
			fmt.Fprintln(w, styles.Success.Render("assistant: ")+text)
		case aisdk.RoleTool:
			fmt.Fprintln(w, styles.Muted.Render("   "+theme.Preview(text, 80)))
		}
	}
}

type ChatDeleteCmd struct {
	ID string `arg:"" help:"Chat ID"`
}

func (c *ChatDeleteCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	if err := storage.DeleteChatByID(ctx, a.Store.DB(), c.ID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	fmt.Printf("Deleted chat %s\n", c.ID)
	return nil
}
