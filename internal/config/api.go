package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/mux"
)

const redacted = "***"

// ConfigAPI provides HTTP endpoints to view and validate configuration.
// Secrets are never returned.
type ConfigAPI struct {
	cfg    *Config
	mu     sync.RWMutex
	router *mux.Router
	load   func() (*Config, error)
}

func NewConfigAPI(cfg *Config) *ConfigAPI {
	api := &ConfigAPI{
		cfg:    cfg,
		router: mux.NewRouter(),
		load:   Load,
	}
	api.routes()
	return api
}

func (api *ConfigAPI) Router() *mux.Router {
	return api.router
}

func (api *ConfigAPI) routes() {
	api.router.HandleFunc("/configure", api.getConfig).Methods("GET")
	api.router.HandleFunc("/configure/", api.getConfig).Methods("GET")
	api.router.HandleFunc("/configure/reload", api.reloadConfig).Methods("POST")
	api.router.HandleFunc("/configure/validate", api.validateConfig).Methods("POST")
	api.router.HandleFunc("/configure/{section}", api.getSection).Methods("GET")
}

func (api *ConfigAPI) getConfig(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	defer api.mu.RUnlock()
	writeJSON(w, api.safeConfigCopy())
}

// reloadConfig re-reads the file and environment. Components built from
// the old values keep them until the process restarts.
func (api *ConfigAPI) reloadConfig(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()
	reloadedCfg, err := api.load()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to reload config: %v", err), http.StatusInternalServerError)
		return
	}
	if err := reloadedCfg.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	*api.cfg = *reloadedCfg
	writeJSON(w, api.safeConfigCopy())
}

func (api *ConfigAPI) validateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid config payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid configuration: %v", err), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"valid": true, "message": "configuration is valid"})
}

func (api *ConfigAPI) getSection(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	defer api.mu.RUnlock()

	safe := api.safeConfigCopy()
	section := mux.Vars(r)["section"]
	var out interface{}

	switch section {
	case "server":
		out = safe.Server
	case "models":
		out = safe.Models
	case "tokenizer":
		out = safe.Tokenizer
	case "chunking":
		out = safe.Chunking
	case "risk":
		out = safe.Risk
	case "summary":
		out = safe.Summary
	case "translation":
		out = safe.Translation
	case "speech":
		out = safe.Speech
	case "storage":
		out = safe.Storage
	case "audit":
		out = safe.Audit
	case "mcp":
		out = safe.MCP
	default:
		http.Error(w, fmt.Sprintf("unknown section: %s", section), http.StatusNotFound)
		return
	}
	writeJSON(w, out)
}

func (api *ConfigAPI) safeConfigCopy() *Config {
	c := *api.cfg
	for _, s := range []*string{
		&c.Auth.Token,
		&c.Models.APIToken,
		&c.Translation.APIKey,
		&c.Storage.MinIO.AccessKey,
		&c.Storage.MinIO.SecretKey,
	} {
		if *s != "" {
			*s = redacted
		}
	}
	if c.Audit.Driver == "postgres" {
		c.Audit.DSN = redactDSN(c.Audit.DSN)
	}
	return &c
}

// redactDSN masks the password of a URL-style connection string.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
