package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ericksa/contractlens/internal/audit"
	"github.com/ericksa/contractlens/internal/config"
	"github.com/ericksa/contractlens/internal/contract"
	"github.com/ericksa/contractlens/internal/localize"
	"github.com/ericksa/contractlens/internal/middleware"
	"github.com/ericksa/contractlens/internal/pipeline"
	"github.com/ericksa/contractlens/internal/report"
	"github.com/gorilla/mux"
)

type analyzer interface {
	AnalyzeFile(ctx context.Context, path, name string) (*pipeline.Result, error)
}

type speaker interface {
	TranslateAndSpeak(ctx context.Context, text, lang string) (localize.Spoken, error)
}

type gateway struct {
	analyzer  analyzer
	localizer speaker
	auditor   *audit.Auditor
	maxUpload int64
}

func newRouter(gw *gateway, cfg *config.Config, mcpHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	middleware.Register(router, cfg.Auth.Token, cfg.Server.AllowedOrigins)

	// MCP endpoint
	router.PathPrefix("/mcp").Handler(mcpHandler)

	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/languages", languagesHandler).Methods("GET")
	router.HandleFunc("/analyze", gw.analyzeHandler).Methods("POST")
	router.HandleFunc("/translate_and_speak", gw.translateAndSpeakHandler).Methods("POST")
	router.HandleFunc("/audit", gw.auditHandler).Methods("GET")

	// Configuration API
	router.PathPrefix("/configure").Handler(config.NewConfigAPI(cfg).Router())
	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func languagesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"default":   localize.DefaultLanguage,
		"languages": localize.Languages(),
	})
}

var uploadTypes = map[string]bool{".pdf": true, ".txt": true, ".html": true, ".htm": true}

func (gw *gateway) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, gw.maxUpload)
	if err := r.ParseMultipartForm(gw.maxUpload); err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("contract")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "missing form file \"contract\"")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadTypes[ext] {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q, expected .pdf, .html or .txt", ext))
		return
	}

	tmp, err := os.CreateTemp("", "contract-*"+ext)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(tmp.Name())
	_, err = io.Copy(tmp, file)
	tmp.Close()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := gw.analyzer.AnalyzeFile(r.Context(), tmp.Name(), filepath.Base(header.Filename))
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "html":
		page, err := report.HTML(res)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	case "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(report.Markdown(res)))
	default:
		writeJSON(w, http.StatusOK, analyzeResponse(res))
	}
}

// analyzeResponse is the /analyze JSON body. summary is the rendered text;
// structured holds its parts.
func analyzeResponse(res *pipeline.Result) map[string]interface{} {
	return map[string]interface{}{
		"id":         res.ID,
		"document":   res.Document,
		"outcome":    res.Outcome,
		"message":    res.Message,
		"pages":      res.Pages,
		"summary":    res.Summary.String(),
		"structured": res.Summary,
		"risks":      res.Risks,
		"clauses":    res.Clauses,
		"facts":      res.Facts,
	}
}

type translateRequest struct {
	Summary string `json:"summary"`
	Lang    string `json:"lang"`
}

type translateResponse struct {
	TranslatedSummary string `json:"translated_summary"`
	AudioFile         string `json:"audio_file"`
}

func (gw *gateway) translateAndSpeakHandler(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if strings.TrimSpace(req.Summary) == "" {
		writeMessage(w, http.StatusBadRequest, "summary is required")
		return
	}

	spoken, err := gw.localizer.TranslateAndSpeak(r.Context(), req.Summary, req.Lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{
		TranslatedSummary: spoken.Text,
		AudioFile:         spoken.Audio.Location,
	})
}

func (gw *gateway) auditHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := gw.auditor.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// statusFor maps component error kinds to HTTP status codes.
func statusFor(err error) int {
	for _, kind := range []error{contract.ErrExtraction, contract.ErrEmptyInput, contract.ErrUnsupportedLanguage} {
		if errors.Is(err, kind) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Request failed: %v", err)
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
