package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inDir runs Load from an empty directory so no stray config.yaml or .env
// is picked up.
func inDir(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("HOME", dir)
}

func TestLoad_Defaults(t *testing.T) {
	inDir(t, nil)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Server.Timeout)
	assert.Equal(t, "distilbert-base-uncased", cfg.Models.Classifier)
	assert.Equal(t, "facebook/bart-large-cnn", cfg.Models.Summarizer)
	assert.Equal(t, 512, cfg.Chunking.WindowSize)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "LABEL_1", cfg.Risk.RiskyLabel)
	assert.Equal(t, 0.85, cfg.Risk.SafeThreshold)
	assert.Equal(t, 500, cfg.Summary.WordBudget)
	assert.Equal(t, "basic", cfg.Tokenizer.Classifier.Backend)
	assert.True(t, cfg.Tokenizer.Classifier.Lowercase)
	assert.Equal(t, "basic", cfg.Tokenizer.Summarizer.Backend)
	assert.False(t, cfg.Tokenizer.Summarizer.Lowercase)
	assert.Empty(t, cfg.MCP.BaseDir)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.False(t, strings.HasPrefix(cfg.Storage.Dir, "~"))
	assert.Equal(t, 24*time.Hour, cfg.Storage.MinIO.URLExpiry)
}

func TestLoad_FileAndEnv(t *testing.T) {
	inDir(t, map[string]string{
		"config.yaml": "server:\n  addr: \":9090\"\nchunking:\n  window_size: 256\n  overlap: 32\naudit:\n  dsn: \":memory:\"\n",
		".env":        "CONTRACTLENS_MODELS_API_TOKEN=hf_from_dotenv\n",
	})
	t.Setenv("CONTRACTLENS_RISK_SAFE_THRESHOLD", "0.9")
	t.Cleanup(func() { os.Unsetenv("CONTRACTLENS_MODELS_API_TOKEN") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 256, cfg.Chunking.WindowSize)
	assert.Equal(t, 32, cfg.Chunking.Overlap)
	assert.Equal(t, 0.9, cfg.Risk.SafeThreshold)
	assert.Equal(t, "hf_from_dotenv", cfg.Models.APIToken)
	assert.Equal(t, ":memory:", cfg.Audit.DSN)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	inDir(t, nil)
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server address cannot be empty"},
		{"overlap too big", func(c *Config) { c.Chunking.Overlap = c.Chunking.WindowSize }, "invalid chunking"},
		{"tokenizer backend", func(c *Config) { c.Tokenizer.Classifier.Backend = "sentencepiece" }, "classifier tokenizer: unknown backend"},
		{"tei endpoint", func(c *Config) {
			c.Tokenizer.Summarizer.Backend = "tei"
			c.Tokenizer.Summarizer.Endpoint = ""
		}, "summarizer tokenizer: endpoint cannot be empty"},
		{"threshold", func(c *Config) { c.Risk.RiskyThreshold = 1.5 }, "risk thresholds"},
		{"concurrency", func(c *Config) { c.Risk.Concurrency = 0 }, "risk concurrency"},
		{"summary bounds", func(c *Config) { c.Summary.FinalMax = 10 }, "summary final_min"},
		{"bucket", func(c *Config) {
			c.Storage.Backend = "minio"
			c.Storage.MinIO.Bucket = "Bad_Bucket"
		}, "invalid minio bucket name"},
		{"storage backend", func(c *Config) { c.Storage.Backend = "s3" }, "unknown storage backend"},
		{"audit driver", func(c *Config) { c.Audit.Driver = "mysql" }, "unknown audit driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfigAPI_RedactsSecrets(t *testing.T) {
	cfg := validConfig(t)
	cfg.Models.APIToken = "hf_secret"
	cfg.Auth.Token = "gateway"
	api := NewConfigAPI(cfg)

	req := httptest.NewRequest("GET", "/configure", nil)
	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hf_secret")
	assert.NotContains(t, w.Body.String(), "minioadmin")

	var got Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, redacted, got.Models.APIToken)
	assert.Equal(t, redacted, got.Auth.Token)
	assert.Equal(t, "hf_secret", cfg.Models.APIToken)
}

func TestConfigAPI_Section(t *testing.T) {
	api := NewConfigAPI(validConfig(t))

	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest("GET", "/configure/risk", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"risky_label":"LABEL_1"`)

	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest("GET", "/configure/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigAPI_Validate(t *testing.T) {
	cfg := validConfig(t)
	api := NewConfigAPI(cfg)

	body, _ := json.Marshal(cfg)
	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest("POST", "/configure/validate", strings.NewReader(string(body))))
	assert.Equal(t, http.StatusOK, w.Code)

	bad := *cfg
	bad.Server.Addr = ""
	body, _ = json.Marshal(bad)
	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, httptest.NewRequest("POST", "/configure/validate", strings.NewReader(string(body))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://audit:%2A%2A%2A@db:5432/lens?sslmode=disable",
		redactDSN("postgres://audit:hunter2@db:5432/lens?sslmode=disable"))
	assert.Equal(t, "postgres://db/lens", redactDSN("postgres://db/lens"))
	assert.Equal(t, "host=db user=audit", redactDSN("host=db user=audit"))
}
