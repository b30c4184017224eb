package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_syncer/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		PageTimeout:  2 * time.Second,
		ImageTimeout: 2 * time.Second,
		MaxAttempts:  1,
	}
}

func TestClient_PageSendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := New(testConfig(), testLogger())
	body, err := c.Page(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestClient_PageNon2xxIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(), testLogger())
	_, err := c.Page(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

func TestClient_PageTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.PageTimeout = 100 * time.Millisecond
	c := New(cfg, testLogger())

	_, err := c.Page(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestClient_InsecureSkipVerifyAcceptsSelfSigned(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	strict := New(testConfig(), testLogger())
	_, err := strict.Page(context.Background(), srv.URL)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.InsecureSkipVerify = true
	relaxed := New(cfg, testLogger())
	body, err := relaxed.Page(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("third time"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxAttempts = 3
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	c := New(cfg, testLogger())

	body, err := c.Page(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "third time", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DownloadStreamsBody(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 64<<10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	c := New(testConfig(), testLogger())
	var buf bytes.Buffer
	n, err := c.Download(context.Background(), srv.URL, &buf)

	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
}

func TestClient_DownloadNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(testConfig(), testLogger())
	var buf bytes.Buffer
	_, err := c.Download(context.Background(), srv.URL, &buf)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
	assert.Zero(t, buf.Len())
}
