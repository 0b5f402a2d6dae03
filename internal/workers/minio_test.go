package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeS3(t *testing.T, heads *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["location"]; ok {
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`))
			return
		}
		if r.Method == http.MethodHead {
			heads.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMinIOStore_BucketCheckRetriedAfterFailure(t *testing.T) {
	var heads atomic.Int32
	srv := fakeS3(t, &heads)

	store, err := NewMinIOStore(MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "contractlens-audio",
	})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.ensureBucket(cancelled)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check bucket")

	require.NoError(t, store.ensureBucket(context.Background()))
	require.NoError(t, store.ensureBucket(context.Background()))
	assert.Equal(t, int32(1), heads.Load())
}
