package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) config.StorageConfig {
	return config.StorageConfig{
		Endpoint:          endpoint,
		Bucket:            "return-evidence",
		AccessKey:         "access",
		SecretKey:         "secret",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewS3EvidenceStorage_Validation(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig("localhost:9000")
	cfg.Bucket = ""
	_, err := NewS3EvidenceStorage(ctx, cfg)
	assert.ErrorContains(t, err, "bucket is required")

	cfg = testConfig("localhost:9000")
	cfg.SecretKey = ""
	_, err = NewS3EvidenceStorage(ctx, cfg)
	assert.ErrorContains(t, err, "secret key")

	_, err = NewS3EvidenceStorage(ctx, testConfig("http://"))
	assert.ErrorContains(t, err, "invalid storage endpoint")
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("minio:9000", false)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", got)

	got, err = normalizeEndpoint("s3.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com", got)

	got, err = normalizeEndpoint("", true)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestS3EvidenceStorage_PresignedURLs(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3EvidenceStorage(ctx, testConfig("localhost:9000"))
	require.NoError(t, err)
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	t.Run("upload", func(t *testing.T) {
		raw, expiresAt, err := s.GenerateUploadURL(ctx, "returns/o-1/a.jpg", "image/jpeg", 5*time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.Equal(t, "/return-evidence/returns/o-1/a.jpg", u.Path)
		assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
		assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
		assert.Equal(t, fixed.Add(5*time.Minute), expiresAt)
	})

	t.Run("download uses default expiry", func(t *testing.T) {
		raw, expiresAt, err := s.GenerateDownloadURL(ctx, "returns/o-1/a.jpg", 0)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
		assert.Equal(t, fixed.Add(10*time.Minute), expiresAt)
	})

	t.Run("empty key", func(t *testing.T) {
		_, _, err := s.GenerateUploadURL(ctx, "", "image/png", time.Minute)
		assert.ErrorIs(t, err, errEmptyKey)
		_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.ErrorIs(t, err, errEmptyKey)
	})
}

// fakeS3 answers HeadBucket with 404 until CreateBucket is called.
type fakeS3 struct {
	mu      sync.Mutex
	created bool
	calls   []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+strings.TrimSuffix(r.URL.Path, "/"))

	switch r.Method {
	case http.MethodHead:
		if !f.created {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		f.created = true
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3EvidenceStorage_EnsureBucket(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s, err := NewS3EvidenceStorage(ctx, testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.EnsureBucket(ctx))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{
		"HEAD /return-evidence",
		"PUT /return-evidence",
		"HEAD /return-evidence",
	}, fake.calls)
}
