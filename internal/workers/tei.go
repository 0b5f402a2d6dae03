package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ericksa/contractlens/internal/chunker"
)

// TEITokenizer uses the /tokenize and /decode endpoints of a
// text-embeddings-inference server running the same model that consumes
// the chunks, so window sizes are counted in that model's tokens.
type TEITokenizer struct {
	baseURL    string
	httpClient *http.Client
}

func NewTEITokenizer(baseURL string, timeout time.Duration) *TEITokenizer {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &TEITokenizer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

type teiToken struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Special bool   `json:"special"`
}

func (t *TEITokenizer) Tokenize(ctx context.Context, text string) ([]chunker.Token, error) {
	req := map[string]any{"inputs": text, "add_special_tokens": false}
	var out [][]teiToken
	if err := postJSON(ctx, t.httpClient, t.baseURL+"/tokenize", "", "TEI", req, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	tokens := make([]chunker.Token, 0, len(out[0]))
	for _, tk := range out[0] {
		if tk.Special {
			continue
		}
		tokens = append(tokens, chunker.Token{ID: tk.ID, Text: tk.Text})
	}
	return tokens, nil
}

func (t *TEITokenizer) Detokenize(ctx context.Context, tokens []chunker.Token) (string, error) {
	if len(tokens) == 0 {
		return "", nil
	}
	ids := make([]int, len(tokens))
	for i, tk := range tokens {
		ids[i] = tk.ID
	}
	req := map[string]any{"ids": ids, "skip_special_tokens": true}
	var raw json.RawMessage
	if err := postJSON(ctx, t.httpClient, t.baseURL+"/decode", "", "TEI", req, &raw); err != nil {
		return "", err
	}

	var batch []string
	if err := json.Unmarshal(raw, &batch); err == nil {
		if len(batch) == 0 {
			return "", nil
		}
		return batch[0], nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return "", fmt.Errorf("decode TEI response: %w", err)
	}
	return single, nil
}

// Health checks that the server answers.
func (t *TEITokenizer) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TEI health: status %d", resp.StatusCode)
	}
	return nil
}
