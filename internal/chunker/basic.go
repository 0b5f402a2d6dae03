package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// BasicTokenizer is the in-process pre-tokenizer used by BERT-style
// models: whitespace split, punctuation as separate tokens, optional
// lower-casing. It has no vocabulary, so token IDs are zero. Use it when
// no tokenizer service is configured.
type BasicTokenizer struct {
	Lower bool
}

func NewBasicTokenizer(lower bool) *BasicTokenizer {
	return &BasicTokenizer{Lower: lower}
}

func (t *BasicTokenizer) Tokenize(_ context.Context, text string) ([]Token, error) {
	var tokens []Token
	emit := func(start, end int) {
		s := text[start:end]
		if t.Lower {
			s = strings.ToLower(s)
		}
		tokens = append(tokens, Token{Text: s, Start: start, End: end})
	}
	word := -1
	for i, r := range text {
		switch {
		case unicode.IsSpace(r):
			if word >= 0 {
				emit(word, i)
				word = -1
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			if word >= 0 {
				emit(word, i)
				word = -1
			}
			emit(i, i+utf8.RuneLen(r))
		default:
			if word < 0 {
				word = i
			}
		}
	}
	if word >= 0 {
		emit(word, len(text))
	}
	return tokens, nil
}

// Detokenize joins tokens, separating two tokens by one space only where
// the source text had whitespace between them. "50,000", "1.5" and "Rs."
// come back as they were written. Tokens without offsets fall back to
// spacing around punctuation.
func (t *BasicTokenizer) Detokenize(_ context.Context, tokens []Token) (string, error) {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 && separated(tokens[i-1], tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
	}
	return b.String(), nil
}

func separated(prev, cur Token) bool {
	if cur.End > 0 {
		return cur.Start > prev.End
	}
	return !attachesLeft(cur.Text) && !opensRight(prev.Text)
}

func attachesLeft(s string) bool {
	switch s {
	case ".", ",", ";", ":", "!", "?", ")", "]", "}", "%", "'", "/", "-":
		return true
	}
	return false
}

func opensRight(s string) bool {
	switch s {
	case "(", "[", "{", "/", "-":
		return true
	}
	return false
}
