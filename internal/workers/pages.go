package workers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericksa/contractlens/internal/contract"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PDFPages extracts per-page plain text from a PDF file.
type PDFPages struct{}

func (PDFPages) Pages(ctx context.Context, path string) ([]contract.PageText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, contract.Fail("open pdf", contract.ErrExtraction, err)
	}
	defer f.Close()

	pages := make([]contract.PageText, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, contract.PageText{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, contract.Fail("read pdf page", contract.ErrExtraction, fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, contract.PageText{Number: i, Text: text})
	}
	return checkPages(path, pages)
}

// TextPages reads a plain text file; form feeds separate pages.
type TextPages struct{}

func (TextPages) Pages(_ context.Context, path string) ([]contract.PageText, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, contract.Fail("read text", contract.ErrExtraction, err)
	}
	parts := strings.Split(string(b), "\f")
	pages := make([]contract.PageText, len(parts))
	for i, part := range parts {
		pages[i] = contract.PageText{Number: i + 1, Text: part}
	}
	return checkPages(path, pages)
}

// HTMLPages extracts the visible text of an HTML document. A CSS page
// break (page-break-before/after or break-before/after: page) starts a new
// page.
type HTMLPages struct{}

func (HTMLPages) Pages(_ context.Context, path string) ([]contract.PageText, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, contract.Fail("read html", contract.ErrExtraction, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, contract.Fail("parse html", contract.ErrExtraction, err)
	}

	var pages []contract.PageText
	var cur strings.Builder
	breakPage := func() {
		pages = append(pages, contract.PageText{Number: len(pages) + 1, Text: strings.TrimSpace(cur.String())})
		cur.Reset()
	}

	var traverse func(n *html.Node)
	traverse = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Template:
				return
			case atom.Br:
				cur.WriteString("\n")
				return
			}
		}

		before, after := pageBreaks(n)
		if before && cur.Len() > 0 {
			breakPage()
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			cur.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
		if block {
			cur.WriteString("\n")
		}
		if after {
			breakPage()
		}
	}
	traverse(doc)
	if cur.Len() > 0 || len(pages) == 0 {
		breakPage()
	}
	return checkPages(path, pages)
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Table: true, atom.Blockquote: true, atom.Pre: true,
}

func pageBreaks(n *html.Node) (before, after bool) {
	if n.Type != html.ElementNode {
		return false, false
	}
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
		before = strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page")
		after = strings.Contains(style, "page-break-after:always") || strings.Contains(style, "break-after:page")
	}
	return before, after
}

// DocumentPages picks the extractor from the file extension; anything that
// is not a PDF or HTML is read as text.
type DocumentPages struct{}

func (DocumentPages) Pages(ctx context.Context, path string) ([]contract.PageText, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDFPages{}.Pages(ctx, path)
	case ".html", ".htm":
		return HTMLPages{}.Pages(ctx, path)
	default:
		return TextPages{}.Pages(ctx, path)
	}
}

func checkPages(path string, pages []contract.PageText) ([]contract.PageText, error) {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return pages, nil
		}
	}
	return nil, contract.Fail("extract pages", contract.ErrExtraction, fmt.Errorf("%s has no text on any page", filepath.Base(path)))
}
