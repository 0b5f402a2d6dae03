// Package report renders an analysis result as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/ericksa/contractlens/internal/pipeline"
	"github.com/ericksa/contractlens/internal/risk"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

func Markdown(res *pipeline.Result) string {
	var b strings.Builder

	title := res.Document
	if title == "" {
		title = "contract"
	}
	fmt.Fprintf(&b, "# Contract analysis: %s\n\n", title)
	fmt.Fprintf(&b, "Analysis `%s`, %d page(s).\n\n", res.ID, res.Pages)

	if res.Outcome == pipeline.OutcomeEmptyInput {
		b.WriteString(res.Message + "\n")
		return b.String()
	}

	if facts := res.Facts.Facts(); len(facts) > 0 {
		b.WriteString("## Key facts\n\n")
		for _, f := range facts {
			fmt.Fprintf(&b, "- **%s:** %s\n", f.Label, f.Value)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString(res.Summary.Narrative + "\n\n")

	b.WriteString("## Risk assessment\n\n")
	b.WriteString("| Page | Kind | Risk | Score | Clause |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, v := range res.Risks {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s |\n", page(v.Page), kind(v), riskCell(v.Label), v.Score, cell(v.ClauseText))
	}
	b.WriteString("\n")

	if len(res.Clauses) > 0 {
		b.WriteString("## Clauses\n\n")
		for i, c := range res.Clauses {
			fmt.Fprintf(&b, "%d. *(page %d, %s)* %s\n", i+1, c.Page, c.Kind, inline(c.Text))
		}
	}
	return b.String()
}

// HTML renders the Markdown report into a standalone page.
func HTML(res *pipeline.Result) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(res)), &body); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Contract analysis: " +
		html.EscapeString(res.Document) + "</title>" + style + "</head><body>" +
		body.String() + "</body></html>", nil
}

const style = `<style>
body{font-family:sans-serif;max-width:960px;margin:2em auto;line-height:1.45}
table{border-collapse:collapse;width:100%}
td,th{border:1px solid #ccc;padding:4px 8px;vertical-align:top}
</style>`

func page(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprint(n)
}

func kind(v risk.Verdict) string {
	if v.Clause < 0 {
		return "-"
	}
	return v.Kind.String()
}

func riskCell(l risk.Label) string {
	if l == risk.LabelRisky {
		return "**" + string(l) + "**"
	}
	return string(l)
}

func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cell(s string) string {
	return strings.ReplaceAll(inline(s), "|", `\|`)
}
