// Package mcp exposes contract analysis, translation and speech as MCP
// tools over the streamable HTTP transport.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ericksa/contractlens/internal/localize"
	"github.com/ericksa/contractlens/internal/pipeline"
	"github.com/ericksa/contractlens/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Analyzer interface {
	AnalyzeFile(ctx context.Context, path, name string) (*pipeline.Result, error)
}

type Localizer interface {
	Translate(ctx context.Context, text, lang string) (string, error)
	Speak(ctx context.Context, text, lang string) (localize.Audio, error)
}

type Handler struct {
	baseDir   string
	analyzer  Analyzer
	localizer Localizer
	server    *mcp.Server
	http      http.Handler
}

type AnalyzeInput struct {
	Path   string `json:"path" jsonschema:"path of a PDF, HTML or text contract readable by the server"`
	Format string `json:"format,omitempty" jsonschema:"json (default) or md"`
}

type TextInput struct {
	Text string `json:"text" jsonschema:"text to process"`
	Lang string `json:"lang,omitempty" jsonschema:"ISO 639-1 language code, hi when empty"`
}

type NoInput struct{}

// NewHandler builds the MCP server. When baseDir is set, analyze_contract
// only opens files below it and resolves relative paths against it.
func NewHandler(analyzer Analyzer, localizer Localizer, baseDir string) *Handler {
	if baseDir != "" {
		baseDir = realPath(filepath.Clean(baseDir))
	}
	h := &Handler{baseDir: baseDir, analyzer: analyzer, localizer: localizer}
	h.initMCPServer()
	h.http = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return h.server }, nil)
	return h
}

func (h *Handler) Server() *mcp.Server {
	return h.server
}

func (h *Handler) initMCPServer() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "contractlens",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_contract",
		Description: "Segment a lease contract into clauses, classify clause risk and summarize key facts",
	}, h.analyzeContract)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "translate",
		Description: "Translate text into a supported Indian language",
	}, h.translate)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "speak",
		Description: "Synthesize speech for text and return where the MP3 was stored",
	}, h.speak)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "languages",
		Description: "List translation languages and whether speech is available for each",
	}, h.languages)

	h.server = server
}

func (h *Handler) analyzeContract(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, any, error) {
	path, err := h.confine(in.Path)
	if err != nil {
		return errorResult(err), nil, nil
	}
	res, err := h.analyzer.AnalyzeFile(ctx, path, "")
	if err != nil {
		return errorResult(err), nil, nil
	}
	if strings.EqualFold(in.Format, "md") {
		return textResult(report.Markdown(res)), nil, nil
	}
	return jsonResult(res)
}

func (h *Handler) confine(p string) (string, error) {
	if h.baseDir == "" {
		return p, nil
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(h.baseDir, full)
	}
	full = realPath(filepath.Clean(full))
	rel, err := filepath.Rel(h.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside %s", p, h.baseDir)
	}
	return full, nil
}

// realPath resolves symlinks for paths that exist.
func realPath(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}

func (h *Handler) translate(ctx context.Context, _ *mcp.CallToolRequest, in TextInput) (*mcp.CallToolResult, any, error) {
	out, err := h.localizer.Translate(ctx, in.Text, in.Lang)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(out), nil, nil
}

func (h *Handler) speak(ctx context.Context, _ *mcp.CallToolRequest, in TextInput) (*mcp.CallToolResult, any, error) {
	audio, err := h.localizer.Speak(ctx, in.Text, in.Lang)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(audio)
}

func (h *Handler) languages(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(localize.Languages())
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.http.ServeHTTP(w, r)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(b)), nil, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
