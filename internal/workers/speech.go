package workers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultTTSURL = "https://translate.google.com"
	ttsMaxChars   = 100
)

// GoogleTTS fetches MP3 speech from the translate_tts endpoint. The
// endpoint limits each request to 100 characters, so text is sent in
// pieces and the MP3 frames are concatenated.
type GoogleTTS struct {
	baseURL    string
	httpClient *http.Client
}

func NewGoogleTTS(baseURL string, timeout time.Duration) *GoogleTTS {
	if baseURL == "" {
		baseURL = DefaultTTSURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GoogleTTS{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	pieces := splitSpeech(text, ttsMaxChars)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("no text to speak")
	}

	var audio bytes.Buffer
	for i, piece := range pieces {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("client", "tw-ob")
		q.Set("tl", lang)
		q.Set("q", piece)
		q.Set("total", strconv.Itoa(len(pieces)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(piece)))

		httpReq, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/translate_tts?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := g.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("tts error: piece %d: %s", i, string(b))
		}
		_, err = io.Copy(&audio, resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	return audio.Bytes(), nil
}

// splitSpeech breaks text on whitespace into pieces of at most limit
// runes. A single word longer than limit is cut.
func splitSpeech(text string, limit int) []string {
	var pieces []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			pieces = append(pieces, string(cur))
			cur = cur[:0]
		}
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			pieces = append(pieces, string(w[:limit]))
			w = w[limit:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > limit {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()
	return pieces
}
