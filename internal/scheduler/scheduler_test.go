package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_syncer/internal/domain"
)

type fakeSyncer struct {
	name  string
	err   error
	block bool
	mu    sync.Mutex
	calls int
}

func (f *fakeSyncer) Name() string       { return f.name }
func (f *fakeSyncer) Collection() string { return f.name }

func (f *fakeSyncer) Sync(ctx context.Context) (*domain.SyncStats, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return &domain.SyncStats{Errors: 1}, ctx.Err()
	}
	if f.err != nil {
		return &domain.SyncStats{Errors: 1}, f.err
	}
	return &domain.SyncStats{Collection: f.name, Published: 3}, nil
}

func (f *fakeSyncer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLocker struct {
	held     map[string]bool
	released []string
	err      error
}

func (l *fakeLocker) Acquire(_ context.Context, name string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.held[name] {
		return nil, fmt.Errorf("locked: %s", name)
	}
	return func(context.Context) error {
		l.released = append(l.released, name)
		return nil
	}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_FailureDoesNotBlockOthers(t *testing.T) {
	news := &fakeSyncer{name: "news", err: domain.ErrStore}
	announcements := &fakeSyncer{name: "announcements"}

	err := NewScheduler([]Syncer{news, announcements}, 0, time.Minute, nil, discard()).RunOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "news")
	assert.Equal(t, 1, news.Calls())
	assert.Equal(t, 1, announcements.Calls())
}

func TestRunOnce_TimeoutIsPerContentType(t *testing.T) {
	news := &fakeSyncer{name: "news", block: true}
	announcements := &fakeSyncer{name: "announcements"}

	err := NewScheduler([]Syncer{news, announcements}, 0, 50*time.Millisecond, nil, discard()).RunOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "news")
	assert.NotContains(t, err.Error(), "announcements")
	assert.Equal(t, 1, news.Calls())
	assert.Equal(t, 1, announcements.Calls())
}

func TestRunOnce_AllSucceed(t *testing.T) {
	news := &fakeSyncer{name: "news"}
	announcements := &fakeSyncer{name: "announcements"}

	err := NewScheduler([]Syncer{news, announcements}, 0, 0, nil, discard()).RunOnce(context.Background())

	assert.NoError(t, err)
}

func TestRunOnce_LockedCollectionIsSkipped(t *testing.T) {
	news := &fakeSyncer{name: "news"}
	announcements := &fakeSyncer{name: "announcements"}
	locker := &fakeLocker{held: map[string]bool{"news": true}}

	err := NewScheduler([]Syncer{news, announcements}, 0, 0, locker, discard()).RunOnce(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, news.Calls())
	assert.Equal(t, 1, announcements.Calls())
	assert.Equal(t, []string{"announcements"}, locker.released)
}

func TestRunOnce_CancelledContext(t *testing.T) {
	news := &fakeSyncer{name: "news"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewScheduler([]Syncer{news}, 0, 0, nil, discard()).RunOnce(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, news.Calls())
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	news := &fakeSyncer{name: "news"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- NewScheduler([]Syncer{news}, 10*time.Millisecond, 0, nil, discard()).Start(ctx)
	}()

	assert.Eventually(t, func() bool { return news.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
