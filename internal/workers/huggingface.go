package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ericksa/contractlens/internal/risk"
)

const DefaultInferenceURL = "https://api-inference.huggingface.co/models"

// HuggingFaceWorker talks to the Hugging Face Inference API, or to any
// server exposing the same /models/{model} pipeline endpoints.
type HuggingFaceWorker struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func NewHuggingFaceWorker(baseURL, apiToken string, timeout time.Duration) *HuggingFaceWorker {
	if baseURL == "" {
		baseURL = DefaultInferenceURL
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &HuggingFaceWorker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		httpClient: newHTTPClient(timeout),
	}
}

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

func (w *HuggingFaceWorker) inference(ctx context.Context, model string, req hfRequest, out any) error {
	if model == "" {
		return fmt.Errorf("model name is required")
	}
	if req.Options == nil {
		req.Options = map[string]any{"wait_for_model": true}
	}
	return postJSON(ctx, w.httpClient, w.baseURL+"/"+model, w.apiToken, "huggingface", req, out)
}

// HFClassifier runs a text-classification model.
type HFClassifier struct {
	worker *HuggingFaceWorker
	model  string
}

func (w *HuggingFaceWorker) Classifier(model string) *HFClassifier {
	return &HFClassifier{worker: w, model: model}
}

// Classify returns the highest scoring label. The API answers either a
// flat list of labels or a list per input; both are accepted.
func (c *HFClassifier) Classify(ctx context.Context, text string) (risk.Prediction, error) {
	var raw json.RawMessage
	if err := c.worker.inference(ctx, c.model, hfRequest{Inputs: text}, &raw); err != nil {
		return risk.Prediction{}, err
	}

	var preds []risk.Prediction
	var nested [][]risk.Prediction
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		preds = nested[0]
	} else if err := json.Unmarshal(raw, &preds); err != nil {
		return risk.Prediction{}, fmt.Errorf("decode classification: %w", err)
	}
	if len(preds) == 0 {
		return risk.Prediction{}, fmt.Errorf("classifier %s returned no labels", c.model)
	}

	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, nil
}

// HFSummarizer runs a summarization model.
type HFSummarizer struct {
	worker *HuggingFaceWorker
	model  string
}

func (w *HuggingFaceWorker) Summarizer(model string) *HFSummarizer {
	return &HFSummarizer{worker: w, model: model}
}

func (s *HFSummarizer) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	req := hfRequest{
		Inputs: text,
		Parameters: map[string]any{
			"min_length": minLength,
			"max_length": maxLength,
			"do_sample":  false,
		},
	}
	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := s.worker.inference(ctx, s.model, req, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("summarizer %s returned no summary", s.model)
	}
	return out[0].SummaryText, nil
}
