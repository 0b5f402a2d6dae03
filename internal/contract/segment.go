package contract

import (
	"regexp"
	"strings"
)

var (
	sectionHeaderRe = regexp.MustCompile(`\d+\.\s+[A-Z]`)
	sectionNumberRe = regexp.MustCompile(`^\d+\.\s+`)
	preambleCutRe   = regexp.MustCompile(`\.(\s+)[A-Z][a-z]+,`)
	partyRe         = regexp.MustCompile(`(?i)\d+\.\s+mr\.\s+[a-z\s]+,\s+son\s+of\s+mr\.\s+[a-z\s]+,\s+residing\s+at\s+[^,]+,\s+[^,]+,\s+india,\s+hereinafter\s+referred\s+to\s+as\s+[^)]+\)`)
	subHeaderRe     = regexp.MustCompile(`\d+\.\d+\s+`)
	subEndRe        = regexp.MustCompile(`\d+\.\d+|\d+\.\s+[A-Z]`)
)

// A stage reads an immutable text and returns the clauses it recognised
// together with the text the following stages should see.
type stage func(text string, page int) (matches []Clause, residual string)

var segmentStages = []stage{preambleStage, partyStage, sectionStage}

// Segment splits the normalized text of one page into typed clauses:
// preamble recitals first, then party definitions, then numbered sections
// and their sub-clauses in document order.
func Segment(text string, page int) []Clause {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	return runStages(text, page, segmentStages)
}

// SegmentPages segments each page independently and concatenates the
// results in page order.
func SegmentPages(pages []PageText) []Clause {
	var clauses []Clause
	for _, p := range pages {
		clauses = append(clauses, Segment(p.Text, p.Number)...)
	}
	return clauses
}

func runStages(text string, page int, stages []stage) []Clause {
	var out []Clause
	for _, st := range stages {
		matches, residual := st(text, page)
		for _, c := range matches {
			if c.Text != "" {
				out = append(out, c)
			}
		}
		text = residual
	}
	return out
}

// preambleStage keeps the recitals that precede the first numbered
// section. Without a numbered section there is no preamble.
func preambleStage(text string, page int) ([]Clause, string) {
	loc := sectionHeaderRe.FindStringIndex(text)
	if loc == nil {
		return nil, text
	}
	region := strings.TrimSpace(text[:loc[0]])

	var clauses []Clause
	for _, piece := range splitRecitals(region) {
		piece = strings.TrimSpace(piece)
		lower := strings.ToLower(piece)
		if strings.HasPrefix(lower, "whereas") || strings.HasPrefix(lower, "now, therefore") {
			clauses = append(clauses, Clause{Text: piece, Page: page, Kind: KindPreamble})
		}
	}
	return clauses, text
}

// splitRecitals cuts after a period that is followed by whitespace and a
// capitalised word ending in a comma, as in ". Whereas," or ". Now,".
func splitRecitals(region string) []string {
	var pieces []string
	prev := 0
	for _, m := range preambleCutRe.FindAllStringSubmatchIndex(region, -1) {
		pieces = append(pieces, region[prev:m[2]])
		prev = m[3]
	}
	return append(pieces, region[prev:])
}

// partyStage emits every party definition and removes them from the text
// so that section scanning never sees them.
func partyStage(text string, page int) ([]Clause, string) {
	var clauses []Clause
	for _, m := range partyRe.FindAllString(text, -1) {
		clauses = append(clauses, Clause{Text: strings.TrimSpace(m), Page: page, Kind: KindParty})
	}
	if len(clauses) == 0 {
		return nil, text
	}
	return clauses, strings.TrimSpace(partyRe.ReplaceAllString(text, ""))
}

// sectionStage consumes the rest of the text.
func sectionStage(text string, page int) ([]Clause, string) {
	headers := sectionHeaderRe.FindAllStringIndex(text, -1)
	var clauses []Clause
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		title, body := splitTitle(text[h[0]:end])
		clauses = append(clauses, sectionClauses(title, body, page)...)
	}
	return clauses, ""
}

func sectionClauses(title, body string, page int) []Clause {
	var clauses []Clause
	for _, sub := range subClauses(body) {
		clauses = append(clauses, Clause{
			Text:         title + ": " + sub,
			Page:         page,
			Kind:         KindSubClause,
			SectionTitle: title,
		})
	}
	if len(clauses) == 0 && body != "" {
		clauses = append(clauses, Clause{
			Text:         title + ": " + body,
			Page:         page,
			Kind:         KindSection,
			SectionTitle: title,
		})
	}
	return clauses
}

// subClauses returns each "<n>.<m> ..." run of body. A run ends at the
// next sub-clause number, the next section header or the end of body.
// Text before the first sub-clause number is not returned.
func subClauses(body string) []string {
	var subs []string
	pos := 0
	for pos < len(body) {
		loc := subHeaderRe.FindStringIndex(body[pos:])
		if loc == nil {
			break
		}
		start, content := pos+loc[0], pos+loc[1]
		end := len(body)
		if next := subEndRe.FindStringIndex(body[content:]); next != nil {
			end = content + next[0]
		}
		if s := strings.TrimSpace(body[start:end]); s != "" {
			subs = append(subs, s)
		}
		pos = end
	}
	return subs
}

var titleOpeners = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"Each": true, "Either": true, "Any": true, "All": true, "No": true,
	"If": true, "In": true, "Upon": true, "Subject": true, "Such": true,
	"It": true, "Notwithstanding": true,
}

var titleConnectors = map[string]bool{
	"and": true, "of": true, "the": true, "for": true, "to": true,
	"in": true, "on": true, "or": true, "with": true, "by": true, "&": true,
}

// splitTitle separates "<n>. <Title>" from the section body. The title is
// a run of letters, spaces and '&' after the number; it stops early where
// the body visibly begins: at a sentence-opening word, at a capitalised
// word followed by an ordinary lower-case word, or at a lower-case word
// right after the first title word.
func splitTitle(seg string) (title, body string) {
	num := sectionNumberRe.FindString(seg)
	rest := seg[len(num):]

	runEnd := 0
	for runEnd < len(rest) && isTitleByte(rest[runEnd]) {
		runEnd++
	}
	cut := runEnd

	words := wordSpans(rest[:runEnd])
	for k := 1; k < len(words); k++ {
		w := rest[words[k][0]:words[k][1]]
		if isUpperWord(w) {
			if titleOpeners[w] {
				cut = words[k][0]
				break
			}
			if k+1 < len(words) {
				nxt := rest[words[k+1][0]:words[k+1][1]]
				if !isUpperWord(nxt) && !titleConnectors[nxt] {
					cut = words[k][0]
					break
				}
			}
			continue
		}
		if k == 1 && !titleConnectors[w] {
			cut = words[k][0]
			break
		}
	}

	title = strings.TrimSpace(num + rest[:cut])
	body = strings.TrimSpace(rest[cut:])
	body = strings.TrimSpace(strings.TrimLeft(body, ":-"))
	return title, body
}

func isTitleByte(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b == '&' || b == ' ' || b == '\t'
}

func isUpperWord(w string) bool {
	return w != "" && w[0] >= 'A' && w[0] <= 'Z'
}

func wordSpans(s string) [][2]int {
	var spans [][2]int
	start := -1
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ' ' || s[i] == '\t' {
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return spans
}
