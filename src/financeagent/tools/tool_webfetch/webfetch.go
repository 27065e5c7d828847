package tool_webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
)

// Tool name constant
const Name = "fetchWebPage"

const description = `Fetch a web page and return its readable content. Use it to read a news article, an investor relations page or a filing the user links to or that you need to answer a question. HTML is converted to markdown or plain text; scripts, styles and navigation are removed. Only http and https URLs are supported and responses are capped at 5MB.`

const (
	maxBodySize     = 5 * 1024 * 1024
	defaultMaxChars = 20000
	fetchTimeout    = 30 * time.Second
	userAgent       = "finchat/1.0"
)

// Input represents the parameters for fetchWebPage
type Input struct {
	URL      string `json:"url" required:"true" description:"The URL to fetch" validate:"url"`
	Format   string `json:"format,omitempty" enum:"markdown,text" default:"markdown" description:"How to return the page content" validate:"omitempty,oneof=markdown text"`
	Selector string `json:"selector,omitempty" description:"Optional CSS selector limiting the content to part of the page, e.g. article or #main"`
	MaxChars int    `json:"max_chars,omitempty" default:"20000" description:"Maximum number of characters to return" validate:"gte=0"`
}

// SetDefaults fills the optional fields.
func (in *Input) SetDefaults() {
	if in.Format == "" {
		in.Format = "markdown"
	}
	if in.MaxChars == 0 {
		in.MaxChars = defaultMaxChars
	}
}

// Output is the fetched page.
type Output struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// Tool returns the fetchWebPage tool. A nil client gets a default with a
// 30 second timeout.
func Tool(client *http.Client, turn *toolsutil.Turn) (agent.Tool, error) {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	f := &fetcher{client: client, turn: turn}
	return agent.NewGenericTool(Name, description, f.fetch)
}

type fetcher struct {
	client *http.Client
	turn   *toolsutil.Turn
}

func (f *fetcher) fetch(ctx context.Context, in Input) (Output, error) {
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Output{}, fmt.Errorf("URL must start with http:// or https://")
	}

	f.turn.Emit(executor.ToolLoading{Tool: Name, IsLoading: true, Message: toolsutil.Ptr("Reading " + u.Host + "...")})
	defer f.turn.Emit(executor.ToolLoading{Tool: Name, IsLoading: false})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Output{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Output{}, fmt.Errorf("failed to read response: %w", err)
	}

	out := Output{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if !strings.Contains(out.ContentType, "html") {
		if in.Selector != "" {
			return Output{}, fmt.Errorf("selector needs an HTML page, got %q", out.ContentType)
		}
		out.Content = string(body)
	} else {
		out.Title, out.Content, err = render(string(body), in.Format, in.Selector)
		if err != nil {
			return Output{}, err
		}
	}

	out.Content, out.Truncated = truncate(out.Content, in.MaxChars)
	f.turn.Log().Info("fetched web page",
		"url", out.URL,
		"size", len(body),
		"format", in.Format,
		"truncated", out.Truncated,
	)
	return out, nil
}

// render turns an HTML page into the requested format.
func render(page, format, selector string) (title, content string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript, nav, footer, iframe, svg").Remove()

	sel := doc.Find("body")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	if selector != "" {
		sel = doc.Find(selector)
		if sel.Length() == 0 {
			return title, "", fmt.Errorf("selector %q matched nothing", selector)
		}
	}

	if format == "text" {
		return title, cleanText(sel.Text()), nil
	}

	converter := md.NewConverter("", true, nil)
	markdown := converter.Convert(sel)
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return title, strings.TrimSpace(markdown), nil
}

func cleanText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) (string, bool) {
	if n <= 0 {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]), true
}
