package s3

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_syncer/internal/domain"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		header: r.Header.Clone(),
		body:   body,
	})
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newTestStore(t *testing.T, handler http.Handler, publicACL bool) *BlobStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := New(context.Background(), Config{
		Bucket:          "media",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		PublicACL:       publicACL,
		UsePathStyle:    true,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return store
}

func TestPutAndMakePublic(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake, true)
	payload := []byte("jpeg bytes")

	err := store.Put(context.Background(), "news_images/a.jpg", bytes.NewReader(payload), int64(len(payload)),
		"image/jpeg", map[string]string{"source-id": "news_0"})
	require.NoError(t, err)
	require.NoError(t, store.MakePublic(context.Background(), "news_images/a.jpg"))

	require.Len(t, fake.requests, 2)

	put := fake.requests[0]
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/media/news_images/a.jpg", put.path)
	assert.Equal(t, payload, put.body)
	assert.Equal(t, "image/jpeg", put.header.Get("Content-Type"))
	assert.Equal(t, "news_0", put.header.Get("X-Amz-Meta-Source-Id"))

	acl := fake.requests[1]
	assert.Equal(t, http.MethodPut, acl.method)
	assert.Contains(t, acl.query, "acl")
	assert.Equal(t, "public-read", acl.header.Get("X-Amz-Acl"))
}

func TestMakePublicDisabled(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake, false)

	require.NoError(t, store.MakePublic(context.Background(), "news_images/a.jpg"))
	assert.Empty(t, fake.requests)
}

func TestPutFailureIsStoreError(t *testing.T) {
	store := newTestStore(t, &fakeS3{status: http.StatusForbidden}, true)

	err := store.Put(context.Background(), "k", bytes.NewReader([]byte("x")), 1, "image/png", nil)
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestPublicURL(t *testing.T) {
	store := &BlobStore{bucket: "media", region: "eu-central-1"}
	assert.Equal(t, "https://media.s3.eu-central-1.amazonaws.com/news_images/a.jpg", store.PublicURL("news_images/a.jpg"))

	store.publicBase = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/news_images/a.jpg", store.PublicURL("news_images/a.jpg"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Region: "auto"}, slog.Default())
	assert.ErrorIs(t, err, domain.ErrInit)
}
