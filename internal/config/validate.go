package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address cannot be empty")
	}
	if _, err := net.ResolveTCPAddr("tcp", c.Server.Addr); err != nil {
		return fmt.Errorf("invalid server address: %v", err)
	}
	if c.Server.MaxUploadSize <= 0 {
		return errors.New("server max_upload_size must be positive")
	}

	if c.Models.Endpoint == "" {
		return errors.New("models endpoint cannot be empty")
	}
	if c.Models.Classifier == "" || c.Models.Summarizer == "" {
		return errors.New("models classifier and summarizer must be set")
	}

	if err := c.Tokenizer.Classifier.validate(); err != nil {
		return fmt.Errorf("classifier tokenizer: %w", err)
	}
	if err := c.Tokenizer.Summarizer.validate(); err != nil {
		return fmt.Errorf("summarizer tokenizer: %w", err)
	}

	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("invalid chunking: %w", err)
	}

	if c.Risk.RiskyLabel == "" {
		return errors.New("risk risky_label cannot be empty")
	}
	if !inUnit(c.Risk.RiskyThreshold) || !inUnit(c.Risk.SafeThreshold) {
		return errors.New("risk thresholds must be between 0 and 1")
	}
	if c.Risk.Concurrency < 1 {
		return errors.New("risk concurrency must be at least 1")
	}

	if c.Summary.FinalMin <= 0 || c.Summary.FinalMax < c.Summary.FinalMin {
		return errors.New("summary final_min must be positive and not above final_max")
	}
	if c.Summary.WordBudget <= 0 {
		return errors.New("summary word_budget must be positive")
	}

	if c.Translation.Endpoint == "" {
		return errors.New("translation endpoint cannot be empty")
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.Dir == "" {
			return errors.New("storage dir cannot be empty when backend is file")
		}
	case "minio":
		m := c.Storage.MinIO
		if m.Endpoint == "" {
			return errors.New("minio endpoint cannot be empty when backend is minio")
		}
		if m.AccessKey == "" || m.SecretKey == "" {
			return errors.New("minio credentials cannot be empty when backend is minio")
		}
		if !isValidBucketName(m.Bucket) {
			return fmt.Errorf("invalid minio bucket name: %s", m.Bucket)
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	switch c.Audit.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unknown audit driver: %q", c.Audit.Driver)
	}
	if c.Audit.DSN == "" {
		return errors.New("audit dsn cannot be empty")
	}
	return nil
}

func inUnit(f float64) bool {
	return f >= 0 && f <= 1
}

// isValidBucketName checks if a bucket name is valid according to MinIO/S3 rules
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return bucketNameRe.MatchString(name)
}

func (t TokenizerConfig) validate() error {
	switch t.Backend {
	case "basic":
	case "tei":
		if t.Endpoint == "" {
			return errors.New("endpoint cannot be empty when backend is tei")
		}
	default:
		return fmt.Errorf("unknown backend: %q", t.Backend)
	}
	return nil
}
