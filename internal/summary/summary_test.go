package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ericksa/contractlens/internal/chunker"
	"github.com/ericksa/contractlens/internal/contract"
	"github.com/ericksa/contractlens/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	text     string
	min, max int
}

type stubSummarizer struct {
	calls []call
	out   func(text string) string
	err   error
}

func (s *stubSummarizer) Summarize(_ context.Context, text string, minLength, maxLength int) (string, error) {
	s.calls = append(s.calls, call{text: text, min: minLength, max: maxLength})
	if s.err != nil {
		return "", s.err
	}
	if s.out != nil {
		return s.out(text), nil
	}
	return "short summary.", nil
}

func newComposer(t *testing.T, s Summarizer, size, overlap int) *Composer {
	t.Helper()
	ch, err := chunker.New(chunker.NewBasicTokenizer(false), chunker.Options{WindowSize: size, Overlap: overlap})
	require.NoError(t, err)
	return NewComposer(ch, s, DefaultOptions())
}

func TestBounds(t *testing.T) {
	tests := []struct {
		words, min, max int
	}{
		{0, 10, 20},
		{4, 10, 20},
		{20, 10, 40},
		{40, 20, 80},
		{100, 50, 150},
		{512, 50, 150},
	}
	for _, tt := range tests {
		lo, hi := Bounds(tt.words)
		assert.Equal(t, tt.min, lo, "min for %d words", tt.words)
		assert.Equal(t, tt.max, hi, "max for %d words", tt.words)
	}
}

func TestCompose_FactsThenNarrative(t *testing.T) {
	c := newComposer(t, &stubSummarizer{}, 512, 50)
	facts := contract.KeyFacts{Parties: "A and B", Consideration: "INR 10 (Ten)"}

	got, err := c.Compose(context.Background(), []string{"First part.", "Second part."}, facts)
	require.NoError(t, err)

	assert.Equal(t, "First part. Second part.", got.Narrative)
	assert.Equal(t, "Parties: A and B\nConsideration: INR 10 (Ten)\nSummary: First part. Second part.", got.String())
}

func TestCompose_NoFactsIsNarrativeOnly(t *testing.T) {
	c := newComposer(t, &stubSummarizer{}, 512, 50)

	got, err := c.Compose(context.Background(), []string{"Only the narrative."}, contract.KeyFacts{})
	require.NoError(t, err)
	assert.Equal(t, "Only the narrative.", got.String())
}

func TestCompose_ResummarizesOverBudget(t *testing.T) {
	s := &stubSummarizer{}
	c := newComposer(t, s, 512, 50)
	long := strings.TrimSpace(strings.Repeat("word ", 300))

	got, err := c.Compose(context.Background(), []string{long, long}, contract.KeyFacts{})
	require.NoError(t, err)

	require.Len(t, s.calls, 1)
	assert.Equal(t, 50, s.calls[0].min)
	assert.Equal(t, 150, s.calls[0].max)
	assert.Equal(t, "short summary.", got.Narrative)
}

func TestCompose_AtBudgetIsKept(t *testing.T) {
	s := &stubSummarizer{}
	c := newComposer(t, s, 512, 50)
	exact := strings.TrimSpace(strings.Repeat("word ", 500))

	got, err := c.Compose(context.Background(), []string{exact}, contract.KeyFacts{})
	require.NoError(t, err)
	assert.Empty(t, s.calls)
	assert.Equal(t, exact, got.Narrative)
}

func TestSummarize_PerChunkBounds(t *testing.T) {
	s := &stubSummarizer{out: func(text string) string { return "S" + strings.Fields(text)[0] + "." }}
	c := newComposer(t, s, 10, 0)
	text := "a0 a1 a2 a3 a4 a5 a6 a7 a8 a9 b0 b1 b2 b3 b4"

	got, err := c.Summarize(context.Background(), text, contract.KeyFacts{Purpose: "agricultural purposes"})
	require.NoError(t, err)

	require.Len(t, s.calls, 2)
	assert.Equal(t, call{text: "a0 a1 a2 a3 a4 a5 a6 a7 a8 a9", min: 10, max: 20}, s.calls[0])
	assert.Equal(t, call{text: "b0 b1 b2 b3 b4", min: 10, max: 20}, s.calls[1])
	assert.Equal(t, "Sa0. Sb0.", got.Narrative)
	assert.Equal(t, []contract.Fact{{Label: "Purpose", Value: "agricultural purposes"}}, got.Facts)
}

func TestSummarize_FailureIsSummarizationError(t *testing.T) {
	boom := errors.New("model timeout")
	c := newComposer(t, &stubSummarizer{err: boom}, 512, 50)

	_, err := c.Summarize(context.Background(), "some contract text here", contract.KeyFacts{})
	assert.ErrorIs(t, err, contract.ErrSummarization)
	assert.ErrorIs(t, err, boom)
}

func TestStructured_StringWithRisks(t *testing.T) {
	s := Structured{
		Narrative: "Lease for five years.",
		Risks:     []risk.Verdict{{ClauseText: "1. Rent: penalty", Label: risk.LabelRisky, Score: 0.93}},
	}
	assert.Equal(t, "Lease for five years.\nClauses with risk:\n  - 1. Rent: penalty (Risk: RISKY, Score: 0.93)", s.String())
}
