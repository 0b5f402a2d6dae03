// Package app builds the analysis pipeline and the localization service
// from configuration. The gateway, the MCP server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ericksa/contractlens/internal/audit"
	"github.com/ericksa/contractlens/internal/chunker"
	"github.com/ericksa/contractlens/internal/config"
	"github.com/ericksa/contractlens/internal/localize"
	"github.com/ericksa/contractlens/internal/pipeline"
	"github.com/ericksa/contractlens/internal/risk"
	"github.com/ericksa/contractlens/internal/summary"
	"github.com/ericksa/contractlens/internal/workers"
)

const tokenizerHealthTimeout = 5 * time.Second

type App struct {
	Analyzer  *pipeline.Analyzer
	Localizer *localize.Service
	Auditor   *audit.Auditor
}

func New(cfg *config.Config) (*App, error) {
	// Each model gets windows counted in its own tokens.
	riskChunker, err := newChunker(cfg.Tokenizer.Classifier, cfg.Chunking, cfg.Models.Timeout)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	summaryChunker, err := newChunker(cfg.Tokenizer.Summarizer, cfg.Chunking, cfg.Models.Timeout)
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}

	hf := workers.NewHuggingFaceWorker(cfg.Models.Endpoint, cfg.Models.APIToken, cfg.Models.Timeout)
	assessor := risk.NewAssessor(riskChunker, hf.Classifier(cfg.Models.Classifier), cfg.Risk)
	composer := summary.NewComposer(summaryChunker, hf.Summarizer(cfg.Models.Summarizer), cfg.Summary)

	aud, err := newAuditor(cfg.Audit)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg.Storage)
	if err != nil {
		aud.Close()
		return nil, err
	}

	translator := workers.NewLibreTranslator(cfg.Translation.Endpoint, cfg.Translation.APIKey, cfg.Translation.Source, cfg.Models.Timeout)
	tts := workers.NewGoogleTTS(cfg.Speech.Endpoint, cfg.Models.Timeout)

	return &App{
		Analyzer:  pipeline.New(workers.DocumentPages{}, assessor, composer, aud),
		Localizer: localize.NewService(translator, tts, store),
		Auditor:   aud,
	}, nil
}

func (a *App) Close() error {
	return a.Auditor.Close()
}

// Translate, Speak and TranslateAndSpeak call the localizer and record the
// call in the audit log.
func (a *App) Translate(ctx context.Context, text, lang string) (string, error) {
	started := time.Now()
	out, err := a.Localizer.Translate(ctx, text, lang)
	a.record(ctx, "translate", lang, started, err)
	return out, err
}

func (a *App) Speak(ctx context.Context, text, lang string) (localize.Audio, error) {
	started := time.Now()
	out, err := a.Localizer.Speak(ctx, text, lang)
	a.record(ctx, "speak", lang, started, err)
	return out, err
}

func (a *App) TranslateAndSpeak(ctx context.Context, text, lang string) (localize.Spoken, error) {
	started := time.Now()
	out, err := a.Localizer.TranslateAndSpeak(ctx, text, lang)
	a.record(ctx, "translate_and_speak", lang, started, err)
	return out, err
}

func (a *App) record(ctx context.Context, op, lang string, started time.Time, err error) {
	e := audit.Entry{
		Operation: op,
		Document:  "lang:" + lang,
		Duration:  time.Since(started).Milliseconds(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	a.Auditor.Log(context.WithoutCancel(ctx), e)
}

func newChunker(cfg config.TokenizerConfig, opts chunker.Options, timeout time.Duration) (*chunker.Chunker, error) {
	tok, err := newTokenizer(cfg, timeout)
	if err != nil {
		return nil, err
	}
	ch, err := chunker.New(tok, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}
	return ch, nil
}

func newTokenizer(cfg config.TokenizerConfig, timeout time.Duration) (chunker.Tokenizer, error) {
	switch cfg.Backend {
	case "", "basic":
		return chunker.NewBasicTokenizer(cfg.Lowercase), nil
	case "tei":
		tei := workers.NewTEITokenizer(cfg.Endpoint, timeout)
		ctx, cancel := context.WithTimeout(context.Background(), tokenizerHealthTimeout)
		defer cancel()
		if err := tei.Health(ctx); err != nil {
			log.Printf("Warning: tokenizer at %s is not ready: %v", cfg.Endpoint, err)
		}
		return tei, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer backend: %q", cfg.Backend)
	}
}

func newAuditor(cfg config.AuditConfig) (*audit.Auditor, error) {
	if cfg.Driver == "sqlite3" && cfg.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit dir: %w", err)
		}
	}
	return audit.Open(cfg.Driver, cfg.DSN)
}

func newStore(cfg config.StorageConfig) (localize.ArtifactStore, error) {
	switch cfg.Backend {
	case "", "file":
		return workers.NewFileStore(cfg.Dir), nil
	case "minio":
		return workers.NewMinIOStore(workers.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			Prefix:    cfg.MinIO.Prefix,
			UseSSL:    cfg.MinIO.UseSSL,
			URLExpiry: cfg.MinIO.URLExpiry,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}
