package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"news_syncer/internal/domain"
	"news_syncer/internal/service/mocks"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, NormalizeTitle("Launch Event "), NormalizeTitle("launch event"))
	assert.Equal(t, "bahar şenliği", NormalizeTitle("\t Bahar Şenliği\n"))
	assert.NotEqual(t, NormalizeTitle("launch  event"), NormalizeTitle("launch event"))
}

func TestDedupGate_Check(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		published  []domain.Record
		storeErr   error
		candidates []domain.Candidate
		wantStatus domain.Status
		wantNew    bool
		wantCount  int
	}{
		{
			name:       "all titles published",
			published:  []domain.Record{{Title: "Launch Event"}, {Title: "Second"}},
			candidates: []domain.Candidate{{Title: "launch event "}, {Title: "SECOND"}},
			wantStatus: domain.StatusOK,
		},
		{
			name:       "one new title",
			published:  []domain.Record{{Title: "Launch Event"}},
			candidates: []domain.Candidate{{Title: "Launch Event"}, {Title: "Fresh"}},
			wantStatus: domain.StatusOK,
			wantNew:    true,
			wantCount:  1,
		},
		{
			name:       "empty collection",
			candidates: []domain.Candidate{{Title: "Fresh"}},
			wantStatus: domain.StatusOK,
			wantNew:    true,
			wantCount:  1,
		},
		{
			name:       "no candidates",
			published:  []domain.Record{{Title: "Launch Event"}},
			wantStatus: domain.StatusOK,
		},
		{
			name:       "store unreachable",
			storeErr:   errors.Join(domain.ErrStore, errors.New("dial tcp: timeout")),
			candidates: []domain.Candidate{{Title: "Launch Event"}, {Title: "Second"}},
			wantStatus: domain.StatusFallback,
			wantNew:    true,
			wantCount:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockCollectionStore(ctrl)
			store.EXPECT().Records(ctx, "news").Return(tt.published, tt.storeErr)

			res := NewDedupGate(store, logger).Check(ctx, "news", tt.candidates)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantNew, res.Value.HasNew)
			assert.Equal(t, tt.wantCount, res.Value.NewCount)
			if tt.storeErr != nil {
				assert.ErrorIs(t, res.Err, domain.ErrStore)
			}
		})
	}
}

func TestGateDecision_Published(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCollectionStore(ctrl)
	store.EXPECT().Records(ctx, "news").Return([]domain.Record{
		{Title: "Tam Başlık", Link: "https://www.thk.edu.tr/haber/1", Summary: "first"},
		{Title: "Kısa Başlık", Link: "https://www.thk.edu.tr/haber/2", Summary: "second"},
	}, nil)

	res := NewDedupGate(store, slog.New(slog.NewTextHandler(io.Discard, nil))).Check(ctx, "news", []domain.Candidate{
		{Title: "Liste Başlığı", Link: "https://www.thk.edu.tr/haber/1"},
	})
	require.Equal(t, domain.StatusOK, res.Status)
	assert.True(t, res.Value.HasNew)
	assert.Equal(t, 1, res.Value.NewCount)

	// A retitled item keeps its link but is new, so it must not be carried over.
	_, ok := res.Value.Published(domain.Candidate{Title: "Liste Başlığı", Link: "https://www.thk.edu.tr/haber/1"})
	assert.False(t, ok)

	rec, ok := res.Value.Published(domain.Candidate{Title: " kısa başlık", Link: "https://elsewhere"})
	require.True(t, ok)
	assert.Equal(t, "second", rec.Summary)

	_, ok = res.Value.Published(domain.Candidate{Title: "Yok", Link: "https://none"})
	assert.False(t, ok)
}
