// Package pipeline runs one contract through normalization, segmentation,
// risk assessment, key-fact extraction and summarization.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/ericksa/contractlens/internal/audit"
	"github.com/ericksa/contractlens/internal/contract"
	"github.com/ericksa/contractlens/internal/risk"
	"github.com/ericksa/contractlens/internal/summary"
	"github.com/google/uuid"
)

// PageSource supplies the raw text of each page of a document.
type PageSource interface {
	Pages(ctx context.Context, path string) ([]contract.PageText, error)
}

type Outcome string

const (
	OutcomeAnalyzed   Outcome = "analyzed"
	OutcomeEmptyInput Outcome = "empty_input"
)

const (
	minTextLength     = 10
	emptyInputMessage = "The document has too little text to analyze."
)

// Result is the analysis of one document. Risks holds the retained
// verdicts; Report keeps all of them.
type Result struct {
	ID       string             `json:"id"`
	Document string             `json:"document,omitempty"`
	Outcome  Outcome            `json:"outcome"`
	Message  string             `json:"message,omitempty"`
	Pages    int                `json:"pages"`
	Clauses  []contract.Clause  `json:"clauses"`
	Facts    contract.KeyFacts  `json:"facts"`
	Risks    []risk.Verdict     `json:"risks"`
	Summary  summary.Structured `json:"summary"`
	Report   risk.Report        `json:"-"`
}

type Analyzer struct {
	pages    PageSource
	assessor *risk.Assessor
	composer *summary.Composer
	auditor  *audit.Auditor
}

// New wires an analyzer. auditor may be nil.
func New(pages PageSource, assessor *risk.Assessor, composer *summary.Composer, auditor *audit.Auditor) *Analyzer {
	return &Analyzer{pages: pages, assessor: assessor, composer: composer, auditor: auditor}
}

// AnalyzeFile extracts the pages of path and analyzes them. name is the
// document name recorded in the result and the audit log; the base of path
// is used when it is empty.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path, name string) (*Result, error) {
	if name == "" {
		name = filepath.Base(path)
	}
	started := time.Now()

	pages, err := a.pages.Pages(ctx, path)
	if err != nil {
		if contract.KindOf(err) == nil {
			err = contract.Fail("extract pages", contract.ErrExtraction, err)
		}
		a.record(ctx, "analyze", name, nil, started, err)
		return nil, err
	}
	return a.analyze(ctx, name, pages, started)
}

// AnalyzePages analyzes pages that were extracted elsewhere.
func (a *Analyzer) AnalyzePages(ctx context.Context, name string, pages []contract.PageText) (*Result, error) {
	return a.analyze(ctx, name, pages, time.Now())
}

func (a *Analyzer) analyze(ctx context.Context, name string, pages []contract.PageText, started time.Time) (*Result, error) {
	res, err := a.run(ctx, name, pages)
	a.record(ctx, "analyze", name, res, started, err)
	return res, err
}

func (a *Analyzer) run(ctx context.Context, name string, pages []contract.PageText) (*Result, error) {
	pages = contract.NormalizePages(pages)
	res := &Result{
		ID:       uuid.NewString(),
		Document: name,
		Outcome:  OutcomeAnalyzed,
		Pages:    len(pages),
		Clauses:  []contract.Clause{},
		Risks:    []risk.Verdict{},
	}

	text := contract.JoinPages(pages)
	if strings.TrimSpace(text) == "" {
		return nil, contract.Fail("normalize pages", contract.ErrExtraction, errors.New("no text left after normalization"))
	}
	if visibleRunes(text) < minTextLength {
		res.Outcome = OutcomeEmptyInput
		res.Message = emptyInputMessage
		return res, nil
	}

	res.Clauses = append(res.Clauses, contract.SegmentPages(pages)...)
	report, err := a.assessor.Assess(ctx, res.Clauses)
	if err != nil {
		return nil, err
	}
	res.Report = report
	res.Risks = report.Retained()

	res.Facts = contract.ExtractFacts(text)
	s, err := a.composer.Summarize(ctx, text, res.Facts)
	if err != nil {
		return nil, err
	}
	for _, v := range res.Risks {
		if v.Label == risk.LabelRisky {
			s.Risks = append(s.Risks, v)
		}
	}
	res.Summary = s
	return res, nil
}

func (a *Analyzer) record(ctx context.Context, op, name string, res *Result, started time.Time, err error) {
	if a.auditor == nil {
		return
	}
	e := audit.Entry{
		Operation: op,
		Document:  name,
		Duration:  time.Since(started).Milliseconds(),
	}
	if res != nil {
		e.ID = res.ID
		e.Pages = res.Pages
		e.Clauses = len(res.Clauses)
		e.Risky = len(res.Summary.Risks)
	}
	if err != nil {
		e.Error = err.Error()
	}
	a.auditor.Log(context.WithoutCancel(ctx), e)
}

func visibleRunes(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
