package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/financeagent"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/findata"
	"github.com/elee1766/finchat/src/theme"
)

// ToolsCmd represents all tool-related commands
type ToolsCmd struct {
	List ToolsListCmd `cmd:"list" help:"List available tools"`
	Show ToolsShowCmd `cmd:"show" help:"Show a tool's parameter schema"`
}

// listToolbox builds the toolbox a turn would get, without credentials.
func listToolbox() (*agent.DefaultToolbox, error) {
	return financeagent.BuildToolbox(findata.NewClient(findata.Config{}), nil, &toolsutil.Turn{})
}

// ToolsListCmd lists available tools
type ToolsListCmd struct {
	Format string `short:"f" enum:"table,json" default:"table" help:"Output format"`
}

func (c *ToolsListCmd) Run(ctx *kong.Context, cli *CLI) error {
	toolbox, err := listToolbox()
	if err != nil {
		return fmt.Errorf("failed to get tools: %w", err)
	}
	if c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(toolbox.ChatTools())
	}
	return printToolsTable(os.Stdout, toolbox.Tools())
}

func printToolsTable(w io.Writer, tools []agent.Tool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%s\n", t.GetName(), theme.Preview(t.GetDescription(), 90))
	}
	return tw.Flush()
}

// ToolsShowCmd shows tool details
type ToolsShowCmd struct {
	Name string `arg:"" help:"Tool name"`
}

func (c *ToolsShowCmd) Run(ctx *kong.Context, cli *CLI) error {
	toolbox, err := listToolbox()
	if err != nil {
		return fmt.Errorf("failed to get tools: %w", err)
	}
	t, ok := toolbox.GetTool(c.Name)
	if !ok {
		return fmt.Errorf("unknown tool %q", c.Name)
	}
	styles := theme.Current()
	fmt.Println(styles.Title.Render(t.GetName()))
	fmt.Println(t.GetDescription())
	schema, err := json.MarshalIndent(t.GetParameters(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(theme.Highlight(string(schema), "json"))
	return nil
}
