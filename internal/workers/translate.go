package workers

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// LibreTranslator calls a LibreTranslate compatible /translate endpoint.
type LibreTranslator struct {
	baseURL    string
	apiKey     string
	source     string
	httpClient *http.Client
}

func NewLibreTranslator(baseURL, apiKey, source string, timeout time.Duration) *LibreTranslator {
	if source == "" {
		source = "en"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &LibreTranslator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		source:     source,
		httpClient: newHTTPClient(timeout),
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

func (t *LibreTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	req := translateRequest{Q: text, Source: t.source, Target: lang, Format: "text", APIKey: t.apiKey}
	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := postJSON(ctx, t.httpClient, t.baseURL+"/translate", "", "translate", req, &out); err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}
