package contract

import (
	"regexp"
	"strings"
)

var (
	partiesRe       = regexp.MustCompile(`(?i:\bbetween\b)(?s:(.*?))(?:(?i:\bwhereas\b|\bnow,?\s+therefore\b)|\d+\.\s+[A-Z])`)
	subjectRe       = regexp.MustCompile(`(?i)[^.]*\bsurvey\s+no\.?\s*[\w/-]+[^.]*\.?`)
	termRe          = regexp.MustCompile(`(?i)\blease\s+term\s+shall\s+be\s+([^.]*?\bcommencing\b[^.]*?\bending\b[^.]*)`)
	considerationRe = regexp.MustCompile(`(?i)\bannual\s+lease\s+rent\s+of\s+((?:inr|rs\.?)\s*[\d,]+(?:\.\d+)?(?:/-)?\s*\([^)]*\))`)
	purposeRe       = regexp.MustCompile(`(?i)[^.]*\bagricultural\s+purposes\b[^.]*\.?`)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// ExtractFacts runs five independent searches over normalized document
// text. A field whose pattern does not match stays empty.
func ExtractFacts(text string) KeyFacts {
	text = spaceRunRe.ReplaceAllString(text, " ")
	return KeyFacts{
		Parties:       submatch(partiesRe, text),
		Subject:       match(subjectRe, text),
		Term:          submatch(termRe, text),
		Consideration: submatch(considerationRe, text),
		Purpose:       match(purposeRe, text),
	}
}

func match(re *regexp.Regexp, text string) string {
	return tidy(re.FindString(text))
}

func submatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return tidy(m[1])
}

func tidy(s string) string {
	return strings.Trim(strings.TrimSpace(s), ",;: ")
}
