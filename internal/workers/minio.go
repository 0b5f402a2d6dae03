package workers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOConfig struct {
	Endpoint  string        `json:"endpoint"`
	AccessKey string        `json:"access_key"`
	SecretKey string        `json:"secret_key"`
	Bucket    string        `json:"bucket"`
	Prefix    string        `json:"prefix"`
	UseSSL    bool          `json:"use_ssl"`
	URLExpiry time.Duration `json:"url_expiry"`
}

// MinIOStore keeps generated artifacts in an S3 compatible bucket and
// hands out presigned download URLs.
type MinIOStore struct {
	client *minio.Client
	cfg    MinIOConfig

	mu          sync.Mutex
	bucketReady bool
}

func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &MinIOStore{client: minioClient, cfg: cfg}, nil
}

// ensureBucket checks for the bucket, creating it if needed. Only success
// is remembered; a failed check is retried by the next call.
func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	s.bucketReady = true
	return nil
}

func (s *MinIOStore) objectName(name string) string {
	return path.Join(s.cfg.Prefix, path.Base(name))
}

// Put uploads data and returns a presigned GET URL, or bucket/object when
// presigning is disabled.
func (s *MinIOStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	object := s.objectName(name)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload: %w", err)
	}
	if s.cfg.URLExpiry <= 0 {
		return s.cfg.Bucket + "/" + object, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, object, s.cfg.URLExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate URL: %w", err)
	}
	return u.String(), nil
}

// FileStore writes artifacts into a local directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}
