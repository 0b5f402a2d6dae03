package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ericksa/contractlens/internal/audit"
	"github.com/ericksa/contractlens/internal/chunker"
	"github.com/ericksa/contractlens/internal/contract"
	"github.com/ericksa/contractlens/internal/risk"
	"github.com/ericksa/contractlens/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leasePage = `THIS AGRICULTURAL LAND LEASE AGREEMENT is made on this day between
1. mr. vinay sharma, son of mr. rajesh sharma, residing at Nashik, Maharashtra, india, hereinafter referred to as Lessor) and 2. mr. arvind mehta, son of mr. suresh mehta, residing at Pune, Maharashtra, india, hereinafter referred to as Lessee).
Whereas, the Lessor is the owner of the land bearing Survey No. 45/2 situated at Village Ozar. Now, therefore, the parties agree as follows.
1. Lease Term and Rent
1.1 The lease term shall be five years commencing from 1st April 2024 and ending on 31st March 2029.
1.2 The Lessee shall pay an annual lease rent of INR 50,000 (Rupees Fifty Thousand only).`

const usePage = `2. Purpose of Lease The land shall be used for agricultural purposes only.
Signed by the Lessor`

type pageSource struct {
	pages []contract.PageText
	err   error
}

func (s pageSource) Pages(context.Context, string) ([]contract.PageText, error) {
	return s.pages, s.err
}

// keywordClassifier marks chunks mentioning INR as risky.
type keywordClassifier struct {
	calls atomic.Int32
	err   error
}

func (c *keywordClassifier) Classify(_ context.Context, text string) (risk.Prediction, error) {
	c.calls.Add(1)
	if c.err != nil {
		return risk.Prediction{}, c.err
	}
	if strings.Contains(text, "INR") {
		return risk.Prediction{Label: "LABEL_1", Score: 0.91}, nil
	}
	return risk.Prediction{Label: "LABEL_0", Score: 0.95}, nil
}

type fixedSummarizer struct{}

func (fixedSummarizer) Summarize(context.Context, string, int, int) (string, error) {
	return "A five year agricultural lease.", nil
}

func newAnalyzer(t *testing.T, src PageSource, cl risk.Classifier) (*Analyzer, *audit.Auditor) {
	t.Helper()
	ch, err := chunker.New(chunker.NewBasicTokenizer(false), chunker.Options{WindowSize: 64, Overlap: 8})
	require.NoError(t, err)
	aud, err := audit.NewAuditor(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { aud.Close() })

	a := New(src,
		risk.NewAssessor(ch, cl, risk.DefaultPolicy()),
		summary.NewComposer(ch, fixedSummarizer{}, summary.DefaultOptions()),
		aud,
	)
	return a, aud
}

func TestAnalyzer_Lease(t *testing.T) {
	src := pageSource{pages: []contract.PageText{{Number: 1, Text: leasePage}, {Number: 2, Text: usePage}}}
	a, aud := newAnalyzer(t, src, &keywordClassifier{})

	res, err := a.AnalyzeFile(context.Background(), "/tmp/upload-123.pdf", "lease.pdf")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnalyzed, res.Outcome)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "lease.pdf", res.Document)
	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Clauses, 7)
	assert.Equal(t, 1, res.Clauses[0].Page)
	last := res.Clauses[len(res.Clauses)-1]
	assert.Equal(t, contract.KindSection, last.Kind)
	assert.Equal(t, 2, last.Page)

	assert.Equal(t, "five years commencing from 1st April 2024 and ending on 31st March 2029", res.Facts.Term)
	assert.Equal(t, "A five year agricultural lease.", res.Summary.Narrative)
	assert.Len(t, res.Summary.Facts, 5)

	require.Len(t, res.Summary.Risks, 1)
	assert.Contains(t, res.Summary.Risks[0].ClauseText, "INR 50,000")
	assert.Equal(t, 1, res.Summary.Risks[0].Page)
	assert.Len(t, res.Risks, 7)
	assert.Len(t, res.Report.Verdicts, 7)

	entries, err := aud.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.ID, entries[0].ID)
	assert.Equal(t, "analyze", entries[0].Operation)
	assert.Equal(t, "lease.pdf", entries[0].Document)
	assert.Equal(t, 7, entries[0].Clauses)
	assert.Equal(t, 1, entries[0].Risky)
	assert.Empty(t, entries[0].Error)
}

func TestAnalyzer_EmptyInput(t *testing.T) {
	cl := &keywordClassifier{}
	a, _ := newAnalyzer(t, nil, cl)

	res, err := a.AnalyzePages(context.Background(), "note.txt", []contract.PageText{{Number: 1, Text: "Hi there"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmptyInput, res.Outcome)
	assert.Equal(t, emptyInputMessage, res.Message)
	assert.Empty(t, res.Clauses)
	assert.Zero(t, cl.calls.Load())
}

func TestAnalyzer_NothingAfterNormalization(t *testing.T) {
	a, aud := newAnalyzer(t, nil, &keywordClassifier{})

	_, err := a.AnalyzePages(context.Background(), "sign.txt", []contract.PageText{{Number: 1, Text: "Signed by the Lessor\n  \n"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrExtraction)

	entries, err := aud.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Error)
}

func TestAnalyzer_PageSourceError(t *testing.T) {
	a, _ := newAnalyzer(t, pageSource{err: errors.New("permission denied")}, &keywordClassifier{})

	_, err := a.AnalyzeFile(context.Background(), "/tmp/x.pdf", "")
	require.Error(t, err)
	assert.Equal(t, contract.ErrExtraction, contract.KindOf(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestAnalyzer_ClassifierFailure(t *testing.T) {
	src := pageSource{pages: []contract.PageText{{Number: 1, Text: leasePage}}}
	a, aud := newAnalyzer(t, src, &keywordClassifier{err: errors.New("model is loading")})

	res, err := a.AnalyzeFile(context.Background(), "lease.pdf", "")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrClassification)

	entries, err := aud.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Error, "model is loading")
}

func TestAnalyzer_NoClauses(t *testing.T) {
	a, _ := newAnalyzer(t, nil, &keywordClassifier{})

	res, err := a.AnalyzePages(context.Background(), "memo.txt", []contract.PageText{{Number: 1, Text: "The parties met to discuss the harvest schedule."}})
	require.NoError(t, err)
	assert.Empty(t, res.Clauses)
	require.Len(t, res.Risks, 1)
	assert.Equal(t, risk.NoClausesText, res.Risks[0].ClauseText)
	assert.True(t, res.Report.NoClauses())
	assert.Empty(t, res.Summary.Risks)
}
