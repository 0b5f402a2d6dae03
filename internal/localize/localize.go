// Package localize translates summaries into Indian languages and reads
// them aloud. Language support is checked before any service is called.
package localize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ericksa/contractlens/internal/contract"
)

const DefaultLanguage = "hi"

var TranslationLanguages = map[string]string{
	"as": "Assamese",
	"bn": "Bengali",
	"gu": "Gujarati",
	"hi": "Hindi",
	"kn": "Kannada",
	"ml": "Malayalam",
	"mr": "Marathi",
	"ne": "Nepali",
	"or": "Odia",
	"pa": "Punjabi",
	"sa": "Sanskrit",
	"ta": "Tamil",
	"te": "Telugu",
	"ur": "Urdu",
}

var SpeechLanguages = map[string]bool{
	"hi": true, "bn": true, "ta": true, "te": true, "mr": true,
	"gu": true, "pa": true, "ur": true, "kn": true, "ml": true,
}

type Translator interface {
	Translate(ctx context.Context, text, lang string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// ArtifactStore keeps generated audio and returns where it can be fetched.
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Speech bool   `json:"speech"`
}

// Languages lists the translation languages sorted by code.
func Languages() []Language {
	out := make([]Language, 0, len(TranslationLanguages))
	for code, name := range TranslationLanguages {
		out = append(out, Language{Code: code, Name: name, Speech: SpeechLanguages[code]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

type Service struct {
	translator  Translator
	synthesizer Synthesizer
	store       ArtifactStore
	now         func() time.Time
}

func NewService(t Translator, s Synthesizer, store ArtifactStore) *Service {
	return &Service{translator: t, synthesizer: s, store: store, now: time.Now}
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

func (s *Service) Translate(ctx context.Context, text, lang string) (string, error) {
	lang = normalizeLang(lang)
	if _, ok := TranslationLanguages[lang]; !ok {
		return "", contract.Fail("translate", contract.ErrUnsupportedLanguage, fmt.Errorf("language %q", lang))
	}
	if s.translator == nil {
		return "", contract.Fail("translate", contract.ErrTranslation, fmt.Errorf("no translator configured"))
	}
	out, err := s.translator.Translate(ctx, text, lang)
	if err != nil {
		return "", contract.Fail("translate", contract.ErrTranslation, err)
	}
	return out, nil
}

// Audio is synthesized speech and, when a store is configured, its
// stored location.
type Audio struct {
	Lang     string `json:"lang"`
	Data     []byte `json:"-"`
	Location string `json:"location,omitempty"`
}

func (s *Service) Speak(ctx context.Context, text, lang string) (Audio, error) {
	lang = normalizeLang(lang)
	if !SpeechLanguages[lang] {
		return Audio{}, contract.Fail("speak", contract.ErrUnsupportedLanguage, fmt.Errorf("language %q", lang))
	}
	if s.synthesizer == nil {
		return Audio{}, contract.Fail("speak", contract.ErrSynthesis, fmt.Errorf("no synthesizer configured"))
	}
	data, err := s.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		return Audio{}, contract.Fail("speak", contract.ErrSynthesis, err)
	}

	audio := Audio{Lang: lang, Data: data}
	if s.store != nil {
		name := fmt.Sprintf("summary-%s-%d.mp3", lang, s.now().UnixNano())
		loc, err := s.store.Put(ctx, name, data, "audio/mpeg")
		if err != nil {
			return Audio{}, contract.Fail("store audio", contract.ErrSynthesis, err)
		}
		audio.Location = loc
	}
	return audio, nil
}

type Spoken struct {
	Text  string `json:"translated_summary"`
	Audio Audio  `json:"audio"`
}

// TranslateAndSpeak translates text and reads the translation aloud. Both
// language sets are checked before either service is called.
func (s *Service) TranslateAndSpeak(ctx context.Context, text, lang string) (Spoken, error) {
	lang = normalizeLang(lang)
	if _, ok := TranslationLanguages[lang]; !ok {
		return Spoken{}, contract.Fail("translate", contract.ErrUnsupportedLanguage, fmt.Errorf("language %q", lang))
	}
	if !SpeechLanguages[lang] {
		return Spoken{}, contract.Fail("speak", contract.ErrUnsupportedLanguage, fmt.Errorf("language %q", lang))
	}
	translated, err := s.Translate(ctx, text, lang)
	if err != nil {
		return Spoken{}, err
	}
	audio, err := s.Speak(ctx, translated, lang)
	if err != nil {
		return Spoken{}, err
	}
	return Spoken{Text: translated, Audio: audio}, nil
}
