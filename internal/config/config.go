package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ericksa/contractlens/internal/chunker"
	"github.com/ericksa/contractlens/internal/risk"
	"github.com/ericksa/contractlens/internal/summary"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config mirrors config.yaml. Every key can be overridden from the
// environment as CONTRACTLENS_<SECTION>_<KEY>, e.g.
// CONTRACTLENS_MODELS_API_TOKEN.
type Config struct {
	Server      ServerConfig      `json:"server" mapstructure:"server"`
	Auth        AuthConfig        `json:"auth" mapstructure:"auth"`
	Models      ModelsConfig      `json:"models" mapstructure:"models"`
	Tokenizer   TokenizersConfig  `json:"tokenizer" mapstructure:"tokenizer"`
	Chunking    chunker.Options   `json:"chunking" mapstructure:"chunking"`
	Risk        risk.Policy       `json:"risk" mapstructure:"risk"`
	Summary     summary.Options   `json:"summary" mapstructure:"summary"`
	Translation TranslationConfig `json:"translation" mapstructure:"translation"`
	Speech      SpeechConfig      `json:"speech" mapstructure:"speech"`
	Storage     StorageConfig     `json:"storage" mapstructure:"storage"`
	Audit       AuditConfig       `json:"audit" mapstructure:"audit"`
	MCP         MCPConfig         `json:"mcp" mapstructure:"mcp"`
}

type ServerConfig struct {
	Addr           string        `json:"addr" mapstructure:"addr"`
	Timeout        time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxUploadSize  int64         `json:"max_upload_size" mapstructure:"max_upload_size"`
	AllowedOrigins []string      `json:"allowed_origins" mapstructure:"allowed_origins"`
}

// AuthConfig holds the bearer token for the gateway. An empty token turns
// authentication off.
type AuthConfig struct {
	Token string `json:"token" mapstructure:"token"`
}

// ModelsConfig points at a Hugging Face style inference endpoint.
type ModelsConfig struct {
	Endpoint   string        `json:"endpoint" mapstructure:"endpoint"`
	APIToken   string        `json:"api_token" mapstructure:"api_token"`
	Classifier string        `json:"classifier" mapstructure:"classifier"`
	Summarizer string        `json:"summarizer" mapstructure:"summarizer"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
}

// TokenizersConfig gives each model the tokenizer it was trained with. The
// risk classifier is uncased, the summarizer is cased.
type TokenizersConfig struct {
	Classifier TokenizerConfig `json:"classifier" mapstructure:"classifier"`
	Summarizer TokenizerConfig `json:"summarizer" mapstructure:"summarizer"`
}

// TokenizerConfig selects the tokenizer used for chunk windows: "basic"
// counts words and punctuation locally, "tei" asks a text-embeddings-inference
// server for model tokens.
type TokenizerConfig struct {
	Backend   string `json:"backend" mapstructure:"backend"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	Lowercase bool   `json:"lowercase" mapstructure:"lowercase"`
}

// MCPConfig restricts the files the analyze_contract tool may open. An
// empty BaseDir allows any path readable by the server.
type MCPConfig struct {
	BaseDir string `json:"base_dir" mapstructure:"base_dir"`
}

type TranslationConfig struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Source   string `json:"source" mapstructure:"source"`
}

type SpeechConfig struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
}

// StorageConfig selects where generated audio goes: "file" or "minio".
type StorageConfig struct {
	Backend string      `json:"backend" mapstructure:"backend"`
	Dir     string      `json:"dir" mapstructure:"dir"`
	MinIO   MinIOConfig `json:"minio" mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string        `json:"endpoint" mapstructure:"endpoint"`
	AccessKey string        `json:"access_key" mapstructure:"access_key"`
	SecretKey string        `json:"secret_key" mapstructure:"secret_key"`
	UseSSL    bool          `json:"use_ssl" mapstructure:"use_ssl"`
	Bucket    string        `json:"bucket" mapstructure:"bucket"`
	Prefix    string        `json:"prefix" mapstructure:"prefix"`
	URLExpiry time.Duration `json:"url_expiry" mapstructure:"url_expiry"`
}

// AuditConfig selects the audit database. Driver is "sqlite3" (DSN is a
// file path or ":memory:") or "postgres" (DSN is a connection URL).
type AuditConfig struct {
	Driver string `json:"driver" mapstructure:"driver"`
	DSN    string `json:"dsn" mapstructure:"dsn"`
}

// Load loads the configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// Load .env first (ignore error if not present)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.contractlens")
	v.SetEnvPrefix("CONTRACTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("No config file found, using defaults")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Storage.Dir = resolvePath(cfg.Storage.Dir)
	if cfg.MCP.BaseDir != "" {
		cfg.MCP.BaseDir = resolvePath(cfg.MCP.BaseDir)
	}
	if cfg.Audit.Driver == "sqlite3" && cfg.Audit.DSN != ":memory:" {
		cfg.Audit.DSN = resolvePath(cfg.Audit.DSN)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", "5m")
	v.SetDefault("server.max_upload_size", 32<<20)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("auth.token", "")

	v.SetDefault("models.endpoint", "https://api-inference.huggingface.co/models")
	v.SetDefault("models.api_token", "")
	v.SetDefault("models.classifier", "distilbert-base-uncased")
	v.SetDefault("models.summarizer", "facebook/bart-large-cnn")
	v.SetDefault("models.timeout", "300s")

	v.SetDefault("tokenizer.classifier.backend", "basic")
	v.SetDefault("tokenizer.classifier.endpoint", "http://localhost:8081")
	v.SetDefault("tokenizer.classifier.lowercase", true)
	v.SetDefault("tokenizer.summarizer.backend", "basic")
	v.SetDefault("tokenizer.summarizer.endpoint", "http://localhost:8082")
	v.SetDefault("tokenizer.summarizer.lowercase", false)

	v.SetDefault("mcp.base_dir", "")

	chunking := chunker.DefaultOptions()
	v.SetDefault("chunking.window_size", chunking.WindowSize)
	v.SetDefault("chunking.overlap", chunking.Overlap)

	policy := risk.DefaultPolicy()
	v.SetDefault("risk.risky_label", policy.RiskyLabel)
	v.SetDefault("risk.risky_threshold", policy.RiskyThreshold)
	v.SetDefault("risk.safe_threshold", policy.SafeThreshold)
	v.SetDefault("risk.concurrency", 4)

	sum := summary.DefaultOptions()
	v.SetDefault("summary.word_budget", sum.WordBudget)
	v.SetDefault("summary.final_min", sum.FinalMin)
	v.SetDefault("summary.final_max", sum.FinalMax)

	v.SetDefault("translation.endpoint", "http://localhost:5000")
	v.SetDefault("translation.api_key", "")
	v.SetDefault("translation.source", "en")

	v.SetDefault("speech.endpoint", "https://translate.google.com")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", "~/.contractlens/audio")
	v.SetDefault("storage.minio.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.minio.access_key", "minioadmin")
	v.SetDefault("storage.minio.secret_key", "minioadmin")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.bucket", "contractlens-audio")
	v.SetDefault("storage.minio.prefix", "speech")
	v.SetDefault("storage.minio.url_expiry", "24h")

	v.SetDefault("audit.driver", "sqlite3")
	v.SetDefault("audit.dsn", "~/.contractlens/audit.db")
}

// resolvePath resolves ~ to home directory and cleans the path
func resolvePath(p string) string {
	if p == "" {
		return p
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}
