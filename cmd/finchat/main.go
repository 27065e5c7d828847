package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	Config    string `short:"c" type:"path" help:"Config file (defaults to $XDG_CONFIG_HOME/finchat/config.json)"`
	LogLevel  string `help:"Log level (debug, info, warn, error), overrides the config file"`
	LogFormat string `help:"Log format (text, json), overrides the config file"`

	Serve    ServeCmd    `cmd:"" help:"Run the HTTP API"`
	Ask      AskCmd      `cmd:"" help:"Ask the finance assistant a question in the terminal"`
	Chat     ChatCmd     `cmd:"" help:"Inspect stored chats"`
	Document DocumentCmd `cmd:"" help:"Inspect stored documents"`
	Model    ModelCmd    `cmd:"" help:"List available models"`
	Tools    ToolsCmd    `cmd:"" help:"List the assistant's tools"`
	Token    TokenCmd    `cmd:"" help:"Mint a session token for a user"`
	Migrate  MigrateCmd  `cmd:"" help:"Database migrations"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("finchat"),
		kong.Description("Finance chat assistant with market data tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
