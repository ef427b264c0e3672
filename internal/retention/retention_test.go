package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
	"github.com/hamed0406/uptimatum/internal/repo/memory"
)

func TestSweep_DeletesOnlyRecordsPastHorizon(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	p := domain.Page{Slug: "p", Name: "P"}
	_ = s.CreatePage(ctx, &p)
	e := domain.Endpoint{PageID: p.ID, Name: "e", URL: "https://example.com", Active: true}
	_ = s.CreateEndpoint(ctx, &e)

	now := time.Date(2025, 8, 18, 2, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		now.AddDate(0, 0, -45),
		now.AddDate(0, 0, -30).Add(-time.Second),
		now.AddDate(0, 0, -30).Add(time.Second),
		now.Add(-time.Hour),
	}
	for _, at := range stamps {
		at := at
		err := s.WithLatest(ctx, e.ID, func(tx repo.CheckTx) error {
			return tx.Insert(ctx, &domain.CheckRecord{EndpointID: e.ID, Status: domain.StatusUp, CheckedAt: at})
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	core, logs := observer.New(zap.InfoLevel)
	sw := NewSweeper(s, 30, zap.New(core))
	sw.Now = func() time.Time { return now }

	n, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 deleted, got %d", n)
	}
	hist, _ := s.History(ctx, e.ID, 0)
	if len(hist) != 2 {
		t.Fatalf("want 2 remaining, got %d", len(hist))
	}
	for _, r := range hist {
		if r.CheckedAt.Before(sw.Cutoff()) {
			t.Fatalf("record older than horizon survived: %v", r.CheckedAt)
		}
	}
	if logs.FilterMessage("retention_sweep").Len() != 1 {
		t.Fatalf("expected a retention_sweep log entry")
	}
}

type brokenStore struct{ repo.CheckStore }

func (brokenStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, errors.New("db down")
}

func TestSweep_ReturnsStoreError(t *testing.T) {
	sw := NewSweeper(brokenStore{}, 0, nil)
	if sw.Days != DefaultDays {
		t.Fatalf("want default days, got %d", sw.Days)
	}
	if _, err := sw.Sweep(context.Background()); err == nil {
		t.Fatalf("want error from broken store")
	}
}
