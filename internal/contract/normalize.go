package contract

import (
	"regexp"
	"strings"
)

const months = `january|february|march|april|may|june|july|august|september|october|november|december`

var (
	placeholderRe = regexp.MustCompile(`\(\s*_+\s*\)`)
	templateRe    = regexp.MustCompile(`(?i)customizethis`)

	// keyword through end of line
	signatureRe = regexp.MustCompile(`(?i)\b(?:witness|signature|signed|20th\s+century)[^\n]*`)
	presenceRe  = regexp.MustCompile(`(?i)\bin\s+the\s+presence\s+of\s+the\s+following[^\n]*`)

	// whole lines
	partySignRe  = regexp.MustCompile(`(?im)^[ \t]*(?:the[ \t]+)?less(?:or|ee)[ \t]*(?::[ \t]*_*|_+)[ \t]*$`)
	execDateRe   = regexp.MustCompile(`(?im)^[ \t]*(?:date(?:d)?(?:[ \t]+of[ \t]+execution)?[ \t]*:?[ \t]*)?\d{1,2}(?:st|nd|rd|th)?[ \t]+(?:` + months + `)[ \t]*,?[ \t]*\d{4}[ \t.]*$`)
	honorificRe  = regexp.MustCompile(`(?im)^[ \t]*(?:mr|mrs|ms|shri|smt|dr)\.?[ \t]+[a-z]+[ \t]+[a-z]+[ \t.]*$`)
	witnessRowRe = regexp.MustCompile(`(?im)^[ \t]*\d+\.[ \t]*name[ \t]*:[ \t]*,[ \t]*[^,\n]*,[ \t]*[^,\n]*$`)

	blankRunRe   = regexp.MustCompile(`[ \t\r\f\v]+`)
	lineEdgeRe   = regexp.MustCompile(` *\n *`)
	newlineRunRe = regexp.MustCompile(`\n{2,}`)
)

var normalizePasses = []struct {
	re   *regexp.Regexp
	repl string
}{
	{placeholderRe, ""},
	{templateRe, ""},
	{signatureRe, ""},
	{presenceRe, ""},
	{partySignRe, ""},
	{execDateRe, ""},
	{honorificRe, ""},
	{witnessRowRe, ""},
	{blankRunRe, " "},
	{lineEdgeRe, "\n"},
	{newlineRunRe, "\n"},
}

// Normalize strips execution boilerplate (signature and witness blocks,
// execution dates, blank placeholders) from raw page text and collapses
// whitespace. It never fails and Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := raw
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

// normalizeOnce never grows its input, so Normalize reaches a fixed point.
func normalizeOnce(s string) string {
	for _, p := range normalizePasses {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return strings.TrimSpace(s)
}

// NormalizePages normalizes every page, keeping page numbers.
func NormalizePages(pages []PageText) []PageText {
	out := make([]PageText, len(pages))
	for i, p := range pages {
		out[i] = PageText{Number: p.Number, Text: Normalize(p.Text)}
	}
	return out
}
