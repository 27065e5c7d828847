package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/aymanbagabas/go-udiff"

	"github.com/elee1766/finchat/src/storage"
	"github.com/elee1766/finchat/src/theme"
)

// DocumentCmd inspects stored documents
type DocumentCmd struct {
	List DocumentListCmd `cmd:"" help:"List documents"`
	Show DocumentShowCmd `cmd:"" help:"Print a document"`
	Diff DocumentDiffCmd `cmd:"" help:"Diff two versions of a document"`
}

type DocumentListCmd struct {
	User string `short:"u" default:"local" help:"Owner of the documents"`
}

func (c *DocumentListCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := storage.GetDocumentsByUserID(ctx, a.Store.DB(), c.User)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPDATED\tKIND\tTITLE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.CreatedAt.Local().Format("2006-01-02 15:04"), d.Kind, d.Title)
	}
	return tw.Flush()
}

type DocumentShowCmd struct {
	ID      string `arg:"" help:"Document ID"`
	Version int    `short:"V" help:"Version number, 1 is the oldest (default latest)"`
	Plain   bool   `help:"Do not highlight code"`
}

func (c *DocumentShowCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	versions, err := loadVersions(ctx, a.Store.DB(), c.ID)
	if err != nil {
		return err
	}
	doc, err := pickVersion(versions, c.Version)
	if err != nil {
		return err
	}
	printDocument(os.Stdout, theme.Current(), doc, !c.Plain)
	return nil
}

func printDocument(w io.Writer, styles theme.Styles, doc storage.Document, highlight bool) {
	fmt.Fprintln(w, styles.Title.Render(doc.Title)+" "+styles.Muted.Render(doc.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	body := doc.Content
	if highlight && doc.Kind == storage.DocumentCode {
		body = theme.Highlight(body, "python")
	}
	fmt.Fprintln(w, strings.TrimRight(body, "\n"))
}

type DocumentDiffCmd struct {
	ID   string `arg:"" help:"Document ID"`
	From int    `help:"Older version (default the one before --to)"`
	To   int    `help:"Newer version (default latest)"`
}

func (c *DocumentDiffCmd) Run(kctx *kong.Context, cli *CLI) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cli, "warn")
	if err != nil {
		return err
	}
	defer a.Close()

	versions, err := loadVersions(ctx, a.Store.DB(), c.ID)
	if err != nil {
		return err
	}
	diff, err := diffVersions(versions, c.From, c.To)
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Println("No changes.")
		return nil
	}
	fmt.Print(theme.Highlight(diff, "diff"))
	return nil
}

func loadVersions(ctx context.Context, db storage.ExecQuerier, id string) ([]storage.Document, error) {
	versions, err := storage.GetDocumentsByID(ctx, db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("document %s not found", id)
	}
	return versions, nil
}

// pickVersion selects a 1-based version; 0 is the latest.
func pickVersion(versions []storage.Document, n int) (storage.Document, error) {
	if n == 0 {
		return versions[len(versions)-1], nil
	}
	if n < 1 || n > len(versions) {
		return storage.Document{}, fmt.Errorf("version %d out of range (1-%d)", n, len(versions))
	}
	return versions[n-1], nil
}

// diffVersions returns a unified diff between two 1-based versions. The
// defaults compare the latest version with the one before it.
func diffVersions(versions []storage.Document, from, to int) (string, error) {
	if to == 0 {
		to = len(versions)
	}
	if from == 0 {
		from = to - 1
	}
	if from < 1 {
		return "", fmt.Errorf("document has a single version")
	}
	older, err := pickVersion(versions, from)
	if err != nil {
		return "", err
	}
	newer, err := pickVersion(versions, to)
	if err != nil {
		return "", err
	}
	return udiff.Unified(
		fmt.Sprintf("%s v%d", older.Title, from),
		fmt.Sprintf("%s v%d", newer.Title, to),
		older.Content,
		newer.Content,
	), nil
}
