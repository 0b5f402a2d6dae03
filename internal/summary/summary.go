// Package summary builds the structured contract summary from chunk
// summaries produced by an external summarization model.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/ericksa/contractlens/internal/chunker"
	"github.com/ericksa/contractlens/internal/contract"
	"github.com/ericksa/contractlens/internal/risk"
)

type Summarizer interface {
	Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error)
}

type Options struct {
	// WordBudget is the narrative length above which the joined chunk
	// summaries are summarized once more.
	WordBudget int `json:"word_budget" mapstructure:"word_budget"`
	FinalMin   int `json:"final_min" mapstructure:"final_min"`
	FinalMax   int `json:"final_max" mapstructure:"final_max"`
}

func DefaultOptions() Options {
	return Options{WordBudget: 500, FinalMin: 50, FinalMax: 150}
}

// Bounds returns the summary length bounds for an input of the given
// word count.
func Bounds(words int) (minLength, maxLength int) {
	minLength = min(50, max(10, words/2))
	maxLength = max(minLength+10, min(150, words*2))
	return minLength, maxLength
}

// Structured is the composed summary: labelled facts, then the narrative.
type Structured struct {
	Facts     []contract.Fact `json:"facts,omitempty"`
	Narrative string          `json:"narrative"`
	Risks     []risk.Verdict  `json:"risks,omitempty"`
}

func (s Structured) String() string {
	var b strings.Builder
	for _, f := range s.Facts {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	if len(s.Facts) > 0 {
		b.WriteString("Summary: ")
	}
	b.WriteString(s.Narrative)
	if len(s.Risks) > 0 {
		b.WriteString("\nClauses with risk:")
		for _, v := range s.Risks {
			fmt.Fprintf(&b, "\n  - %s (Risk: %s, Score: %.2f)", v.ClauseText, v.Label, v.Score)
		}
	}
	return b.String()
}

type Composer struct {
	chunker    *chunker.Chunker
	summarizer Summarizer
	opts       Options
}

func NewComposer(ch *chunker.Chunker, s Summarizer, opts Options) *Composer {
	return &Composer{chunker: ch, summarizer: s, opts: opts}
}

// Summarize chunks the whole text, summarizes each window with its own
// bounds and composes the result with facts.
func (c *Composer) Summarize(ctx context.Context, text string, facts contract.KeyFacts) (Structured, error) {
	chunks, err := c.chunker.Chunk(ctx, text)
	if err != nil {
		return Structured{}, contract.Fail("chunk text", contract.ErrSummarization, err)
	}

	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		lo, hi := Bounds(len(strings.Fields(ch.Text)))
		s, err := c.summarizer.Summarize(ctx, ch.Text, lo, hi)
		if err != nil {
			return Structured{}, contract.Fail("summarize", contract.ErrSummarization, fmt.Errorf("chunk %d: %w", ch.Index, err))
		}
		parts = append(parts, strings.TrimSpace(s))
	}
	return c.Compose(ctx, parts, facts)
}

// Compose joins chunk summaries and re-summarizes once when the result is
// over the word budget.
func (c *Composer) Compose(ctx context.Context, summaries []string, facts contract.KeyFacts) (Structured, error) {
	narrative := strings.Join(summaries, " ")
	if len(strings.Fields(narrative)) > c.opts.WordBudget {
		s, err := c.summarizer.Summarize(ctx, narrative, c.opts.FinalMin, c.opts.FinalMax)
		if err != nil {
			return Structured{}, contract.Fail("resummarize", contract.ErrSummarization, err)
		}
		narrative = strings.TrimSpace(s)
	}
	return Structured{Facts: facts.Facts(), Narrative: narrative}, nil
}
