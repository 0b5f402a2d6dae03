// Package contract holds the document model of a lease contract and the
// pattern-based passes over its text: normalization, clause segmentation
// and key-fact extraction. Nothing in this package calls a model.
package contract

import (
	"encoding/json"
	"fmt"
)

// PageText is the plain text of one physical page, numbered from 1.
type PageText struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

type ClauseKind int

const (
	KindPreamble ClauseKind = iota + 1
	KindParty
	KindSection
	KindSubClause
)

var kindNames = map[ClauseKind]string{
	KindPreamble:  "preamble",
	KindParty:     "party",
	KindSection:   "section",
	KindSubClause: "sub_clause",
}

func (k ClauseKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ClauseKind(%d)", int(k))
}

func (k ClauseKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ClauseKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for kind, name := range kindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown clause kind %q", s)
}

// Clause is one extracted unit of contract text. Page always refers to
// the page the clause was found on; clauses never span pages.
type Clause struct {
	Text         string     `json:"text"`
	Page         int        `json:"page"`
	Kind         ClauseKind `json:"kind"`
	SectionTitle string     `json:"section_title,omitempty"`
}

// Fact is a labelled key fact ready for display.
type Fact struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// KeyFacts are the structured fields pulled out of the whole document.
// An empty field means its pattern did not match.
type KeyFacts struct {
	Parties       string `json:"parties,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Term          string `json:"term,omitempty"`
	Consideration string `json:"consideration,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
}

// Facts returns the populated fields in display order.
func (k KeyFacts) Facts() []Fact {
	all := []Fact{
		{Label: "Parties", Value: k.Parties},
		{Label: "Subject Land", Value: k.Subject},
		{Label: "Lease Term", Value: k.Term},
		{Label: "Consideration", Value: k.Consideration},
		{Label: "Purpose", Value: k.Purpose},
	}
	facts := make([]Fact, 0, len(all))
	for _, f := range all {
		if f.Value != "" {
			facts = append(facts, f)
		}
	}
	return facts
}

func (k KeyFacts) Empty() bool {
	return len(k.Facts()) == 0
}

// JoinPages concatenates page texts in order, one page per line block.
func JoinPages(pages []PageText) string {
	var size int
	for _, p := range pages {
		size += len(p.Text) + 1
	}
	buf := make([]byte, 0, size)
	for i, p := range pages {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, p.Text...)
	}
	return string(buf)
}
