package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/elee1766/finchat/src/aisdk"
)

// ModelCmd manages model operations
type ModelCmd struct {
	List ModelListCmd `cmd:"" help:"List available models"`
}

// ModelListCmd lists available models
type ModelListCmd struct {
	Format string `help:"Output format (table, json)" enum:"table,json" default:"table"`
}

// Run executes the model list command
func (c *ModelListCmd) Run(ctx *kong.Context, cli *CLI) error {
	models := aisdk.Models()
	switch c.Format {
	case "json":
		return printModelsJSON(os.Stdout, models)
	default:
		return printModelsTable(os.Stdout, models)
	}
}

func printModelsJSON(w io.Writer, models []aisdk.ModelInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(models)
}

func printModelsTable(w io.Writer, models []aisdk.ModelInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROVIDER\tNAME\tDESCRIPTION")
	for _, m := range models {
		id := m.ID
		if id == aisdk.DefaultModelID {
			id += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, m.Provider.DisplayName(), m.Label, m.Description)
	}
	return tw.Flush()
}
