// Package risk classifies clause chunks with an external model and folds
// the chunk verdicts into a page-aware document report.
package risk

import (
	"context"
	"fmt"

	"github.com/ericksa/contractlens/internal/chunker"
	"github.com/ericksa/contractlens/internal/contract"
	"golang.org/x/sync/errgroup"
)

type Label string

const (
	LabelSafe    Label = "SAFE"
	LabelRisky   Label = "RISKY"
	LabelUnknown Label = "UNKNOWN"
)

const (
	explainModel    = "Classified by the risk model."
	explainOverride = " Overridden to SAFE due to low confidence score."

	NoClausesText        = "No clauses found in the document."
	noClausesExplanation = "No clauses detected."
)

// Prediction is the raw output of the classifier for one chunk.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// Policy holds the thresholds applied to raw predictions.
type Policy struct {
	RiskyLabel     string  `json:"risky_label" mapstructure:"risky_label"`
	RiskyThreshold float64 `json:"risky_threshold" mapstructure:"risky_threshold"`
	SafeThreshold  float64 `json:"safe_threshold" mapstructure:"safe_threshold"`
	Concurrency    int     `json:"concurrency" mapstructure:"concurrency"`
}

func DefaultPolicy() Policy {
	return Policy{
		RiskyLabel:     "LABEL_1",
		RiskyThreshold: 0.7,
		SafeThreshold:  0.85,
		Concurrency:    1,
	}
}

// Label maps a raw prediction: RISKY only for the risky class with a
// score strictly above the threshold.
func (p Policy) Label(pred Prediction) Label {
	if pred.Label == p.RiskyLabel && pred.Score > p.RiskyThreshold {
		return LabelRisky
	}
	return LabelSafe
}

// Keep reports whether a verdict belongs in the document-level report.
// RISKY verdicts are always kept; SAFE ones only when confident.
func (p Policy) Keep(v Verdict) bool {
	switch v.Label {
	case LabelRisky, LabelUnknown:
		return true
	default:
		return v.Score >= p.SafeThreshold
	}
}

// Verdict is the outcome for one chunk. Page is zero when unknown.
type Verdict struct {
	ClauseText  string              `json:"clause"`
	Page        int                 `json:"page,omitempty"`
	Label       Label               `json:"risk"`
	Score       float64             `json:"score"`
	Explanation string              `json:"explanation"`
	RawLabel    string              `json:"raw_label,omitempty"`
	Clause      int                 `json:"clause_index"`
	Chunk       int                 `json:"chunk_index"`
	Kind        contract.ClauseKind `json:"kind,omitempty"`
}

// Report keeps every verdict in clause and chunk order. Retained applies
// the policy filter for callers that want the short report.
type Report struct {
	Verdicts []Verdict `json:"verdicts"`
	policy   Policy
}

func (r Report) Retained() []Verdict {
	out := make([]Verdict, 0, len(r.Verdicts))
	for _, v := range r.Verdicts {
		if r.policy.Keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (r Report) Risky() []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.Label == LabelRisky {
			out = append(out, v)
		}
	}
	return out
}

// NoClauses reports whether the report is the "no clauses found" sentinel.
func (r Report) NoClauses() bool {
	return len(r.Verdicts) == 1 && r.Verdicts[0].Label == LabelUnknown
}

func noClausesReport(p Policy) Report {
	return Report{
		Verdicts: []Verdict{{
			ClauseText:  NoClausesText,
			Label:       LabelUnknown,
			Score:       0,
			Explanation: noClausesExplanation,
			Clause:      -1,
			Chunk:       -1,
		}},
		policy: p,
	}
}

type Assessor struct {
	chunker    *chunker.Chunker
	classifier Classifier
	policy     Policy
}

func NewAssessor(ch *chunker.Chunker, cl Classifier, policy Policy) *Assessor {
	return &Assessor{chunker: ch, classifier: cl, policy: policy}
}

type job struct {
	clause int
	chunk  chunker.Chunk
	source contract.Clause
}

// Assess chunks every clause and classifies each chunk once. Any
// tokenizer or classifier failure fails the whole call.
func (a *Assessor) Assess(ctx context.Context, clauses []contract.Clause) (Report, error) {
	if len(clauses) == 0 {
		return noClausesReport(a.policy), nil
	}

	var jobs []job
	for i, c := range clauses {
		chunks, err := a.chunker.ChunkClause(ctx, c.Text, i)
		if err != nil {
			return Report{}, contract.Fail("chunk clause", contract.ErrClassification, fmt.Errorf("clause %d: %w", i, err))
		}
		for _, ch := range chunks {
			jobs = append(jobs, job{clause: i, chunk: ch, source: c})
		}
	}

	verdicts := make([]Verdict, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.policy.Concurrency))
	for i, j := range jobs {
		g.Go(func() error {
			pred, err := a.classifier.Classify(gctx, j.chunk.Text)
			if err != nil {
				return contract.Fail("classify", contract.ErrClassification,
					fmt.Errorf("clause %d chunk %d: %w", j.clause, j.chunk.Index, err))
			}
			verdicts[i] = a.verdict(j, pred)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{Verdicts: verdicts, policy: a.policy}, nil
}

func (a *Assessor) verdict(j job, pred Prediction) Verdict {
	label := a.policy.Label(pred)
	explanation := explainModel
	if pred.Label == a.policy.RiskyLabel && label == LabelSafe {
		explanation += explainOverride
	}
	return Verdict{
		ClauseText:  j.chunk.Text,
		Page:        j.source.Page,
		Label:       label,
		Score:       pred.Score,
		Explanation: explanation,
		RawLabel:    pred.Label,
		Clause:      j.clause,
		Chunk:       j.chunk.Index,
		Kind:        j.source.Kind,
	}
}
