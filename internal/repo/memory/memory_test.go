package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
)

func seed(t *testing.T, s *Store) (domain.Page, domain.Endpoint) {
	t.Helper()
	ctx := context.Background()
	p := domain.Page{Slug: "demo", Name: "Demo"}
	require.NoError(t, s.CreatePage(ctx, &p))
	e := domain.Endpoint{PageID: p.ID, Name: "site", URL: "https://example.com", Method: "GET", Interval: 30, Timeout: 10, Active: true}
	require.NoError(t, s.CreateEndpoint(ctx, &e))
	return p, e
}

func insert(t *testing.T, s *Store, id domain.EndpointID, status domain.CheckStatus, at time.Time) {
	t.Helper()
	err := s.WithLatest(context.Background(), id, func(tx repo.CheckTx) error {
		return tx.Insert(context.Background(), &domain.CheckRecord{EndpointID: id, Status: status, CheckedAt: at})
	})
	require.NoError(t, err)
}

func TestMemoryStore_Pages(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, _ := seed(t, s)
	require.NotZero(t, p.ID)

	dup := domain.Page{Slug: "demo", Name: "Other"}
	require.ErrorIs(t, s.CreatePage(ctx, &dup), repo.ErrConflict)

	got, err := s.PageBySlug(ctx, "demo")
	require.NoError(t, err)
	require.Equal(t, "Demo", got.Name)

	got.Name = "Renamed"
	require.NoError(t, s.UpdatePage(ctx, got))
	pages, err := s.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "Renamed", pages[0].Name)

	_, err = s.PageBySlug(ctx, "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestMemoryStore_ListActiveAndCascade(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, e := seed(t, s)
	inactive := domain.Endpoint{PageID: p.ID, Name: "off", URL: "https://off.example.com", Active: false}
	require.NoError(t, s.CreateEndpoint(ctx, &inactive))

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, e.ID, active[0].ID)

	all, err := s.EndpointsByPage(ctx, p.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	insert(t, s, e.ID, domain.StatusUp, time.Now())
	require.NoError(t, s.DeleteEndpoint(ctx, e.ID))
	hist, err := s.History(ctx, e.ID, 10)
	require.NoError(t, err)
	require.Empty(t, hist)
}

func TestMemoryStore_DeleteEndpointDropsWriteLock(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, e := seed(t, s)

	insert(t, s, e.ID, domain.StatusUp, time.Now())
	s.lockMu.Lock()
	require.Contains(t, s.locks, e.ID)
	s.lockMu.Unlock()

	require.NoError(t, s.DeleteEndpoint(ctx, e.ID))
	s.lockMu.Lock()
	require.NotContains(t, s.locks, e.ID)
	s.lockMu.Unlock()

	err := s.WithLatest(ctx, e.ID, func(tx repo.CheckTx) error { return nil })
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestMemoryStore_WithLatestSkipsWhenLocked(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, e := seed(t, s)

	inner := make(chan error, 1)
	err := s.WithLatest(ctx, e.ID, func(tx repo.CheckTx) error {
		inner <- s.WithLatest(ctx, e.ID, func(repo.CheckTx) error { return nil })
		return nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, <-inner, repo.ErrBusy)
}

func TestMemoryStore_WithLatestRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, e := seed(t, s)

	boom := errors.New("boom")
	err := s.WithLatest(ctx, e.ID, func(tx repo.CheckTx) error {
		require.NoError(t, tx.Insert(ctx, &domain.CheckRecord{EndpointID: e.ID, Status: domain.StatusUp, CheckedAt: time.Now()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	hist, err := s.History(ctx, e.ID, 0)
	require.NoError(t, err)
	require.Empty(t, hist)

	require.ErrorIs(t, s.WithLatest(ctx, 9999, func(repo.CheckTx) error { return nil }), repo.ErrNotFound)
}

func TestMemoryStore_LatestAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, e := seed(t, s)
	t0 := time.Now().UTC().Add(-time.Minute)
	insert(t, s, e.ID, domain.StatusUp, t0)
	insert(t, s, e.ID, domain.StatusDown, t0.Add(10*time.Second))

	err := s.WithLatest(ctx, e.ID, func(tx repo.CheckTx) error {
		latest, err := tx.Latest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		require.Equal(t, domain.StatusDown, latest.Status)
		latest.CheckedAt = t0.Add(12 * time.Second)
		return tx.Update(ctx, latest)
	})
	require.NoError(t, err)

	latest, err := s.LatestByEndpoint(ctx, []domain.EndpointID{e.ID})
	require.NoError(t, err)
	require.True(t, latest[e.ID].CheckedAt.Equal(t0.Add(12*time.Second)))

	hist, err := s.History(ctx, e.ID, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
}

func TestMemoryStore_RetentionAndCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, e := seed(t, s)
	now := time.Now().UTC()
	insert(t, s, e.ID, domain.StatusUp, now.Add(-31*24*time.Hour))
	insert(t, s, e.ID, domain.StatusUp, now.Add(-2*time.Hour))
	insert(t, s, e.ID, domain.StatusDown, now.Add(-time.Hour))

	n, err := s.DeleteOlderThan(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	c, err := s.CountSince(ctx, []domain.EndpointID{e.ID}, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, repo.UptimeCount{Total: 2, Up: 1}, c)

	recent, err := s.Since(ctx, []domain.EndpointID{e.ID}, now.Add(-90*time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, domain.StatusDown, recent[0].Status)
}

func TestMemoryStore_Incidents(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, _ := seed(t, s)

	inc := domain.Incident{PageID: p.ID, Title: "API slow", Status: domain.IncidentInvestigating}
	require.NoError(t, s.CreateIncident(ctx, &inc))

	got, err := s.Incident(ctx, inc.ID)
	require.NoError(t, err)
	got.SetStatus(domain.IncidentResolved, time.Now())
	require.NoError(t, s.UpdateIncident(ctx, got))

	list, err := s.ListIncidents(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ResolvedAt)

	require.NoError(t, s.DeleteIncident(ctx, inc.ID))
	require.ErrorIs(t, s.DeleteIncident(ctx, inc.ID), repo.ErrNotFound)
}
