// Package chunker cuts text into overlapping windows measured in model
// tokens. Tokenization is delegated to the model that consumes the chunks.
package chunker

import (
	"context"
	"fmt"
)

const (
	DefaultWindowSize = 512
	DefaultOverlap    = 50
)

// Token is one model token. ID is zero for tokenizers without a vocabulary.
// Start and End are byte offsets into the tokenized text when the
// tokenizer records them.
type Token struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`
}

// Tokenizer is owned by the model the chunks feed.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]Token, error)
	Detokenize(ctx context.Context, tokens []Token) (string, error)
}

type Options struct {
	WindowSize int `json:"window_size" mapstructure:"window_size"`
	Overlap    int `json:"overlap" mapstructure:"overlap"`
}

func DefaultOptions() Options {
	return Options{WindowSize: DefaultWindowSize, Overlap: DefaultOverlap}
}

func (o Options) Validate() error {
	if o.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", o.WindowSize)
	}
	if o.Overlap < 0 || o.Overlap >= o.WindowSize {
		return fmt.Errorf("overlap must be in [0, %d), got %d", o.WindowSize, o.Overlap)
	}
	return nil
}

// Chunk is one window. Clause is the index of the source clause in the
// segmenter output, or -1 when the chunk was cut from whole-document text.
type Chunk struct {
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	Index      int    `json:"index"`
	Offset     int    `json:"offset"`
	Clause     int    `json:"clause"`
}

type Chunker struct {
	tokenizer Tokenizer
	opts      Options
}

func New(tok Tokenizer, opts Options) (*Chunker, error) {
	if tok == nil {
		return nil, fmt.Errorf("chunker: tokenizer is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	return &Chunker{tokenizer: tok, opts: opts}, nil
}

// Chunk splits whole-document text.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	return c.ChunkClause(ctx, text, -1)
}

// ChunkClause splits the text of one clause. The result depends only on
// the text and the options, so repeated calls return identical chunks.
func (c *Chunker) ChunkClause(ctx context.Context, text string, clause int) ([]Chunk, error) {
	tokens, err := c.tokenizer.Tokenize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	windows := Windows(len(tokens), c.opts.WindowSize, c.opts.Overlap)
	chunks := make([]Chunk, 0, len(windows))
	for i, w := range windows {
		part := tokens[w[0]:w[1]]
		s, err := c.tokenizer.Detokenize(ctx, part)
		if err != nil {
			return nil, fmt.Errorf("detokenize window %d: %w", i, err)
		}
		chunks = append(chunks, Chunk{
			Text:       s,
			TokenCount: len(part),
			Index:      i,
			Offset:     w[0],
			Clause:     clause,
		})
	}
	return chunks, nil
}

// Windows returns the [start, end) token ranges for total tokens. Windows
// start every size-overlap tokens and the last one ends at total, so the
// summed lengths minus the overlaps equal total.
func Windows(total, size, overlap int) [][2]int {
	if total <= 0 || size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}
	step := size - overlap
	var out [][2]int
	for start := 0; ; start += step {
		end := min(start+size, total)
		out = append(out, [2]int{start, end})
		if end >= total {
			break
		}
	}
	return out
}
