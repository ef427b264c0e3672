package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/uptimatum/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrBusy is returned when another writer currently holds the
	// endpoint's check-history lock. Nothing was written.
	ErrBusy = errors.New("check history locked by another writer")
)

// Ports (interfaces); the memory and postgres adapters implement all of them.

// EndpointRegistry is the checker's read-only view of monitored endpoints.
type EndpointRegistry interface {
	ListActive(ctx context.Context) ([]domain.Endpoint, error)
}

// CheckTx is the scope of one writer invocation. Everything done through it
// commits or rolls back as a unit.
type CheckTx interface {
	// Latest returns the most recent record for the endpoint, or nil when
	// the endpoint has no history yet.
	Latest(ctx context.Context) (*domain.CheckRecord, error)
	Insert(ctx context.Context, rec *domain.CheckRecord) error
	Update(ctx context.Context, rec *domain.CheckRecord) error
}

// CheckStore is the check-history store.
type CheckStore interface {
	// WithLatest runs fn inside one transaction holding a non-blocking
	// exclusive lock on the endpoint's history. If the lock is already held
	// it returns ErrBusy without calling fn. An error from fn rolls back.
	WithLatest(ctx context.Context, id domain.EndpointID, fn func(tx CheckTx) error) error
	// DeleteOlderThan removes records recorded before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryReader serves the read-side collaborators (API, badge, dashboard).
type HistoryReader interface {
	History(ctx context.Context, id domain.EndpointID, limit int) ([]domain.CheckRecord, error)
	LatestByEndpoint(ctx context.Context, ids []domain.EndpointID) (map[domain.EndpointID]domain.CheckRecord, error)
	Since(ctx context.Context, ids []domain.EndpointID, since time.Time) ([]domain.CheckRecord, error)
	CountSince(ctx context.Context, ids []domain.EndpointID, since time.Time) (UptimeCount, error)
}

type UptimeCount struct {
	Total int
	Up    int
}

type PageStore interface {
	CreatePage(ctx context.Context, p *domain.Page) error
	ListPages(ctx context.Context) ([]domain.Page, error)
	PageBySlug(ctx context.Context, slug string) (*domain.Page, error)
	UpdatePage(ctx context.Context, p *domain.Page) error
}

type EndpointStore interface {
	EndpointRegistry
	CreateEndpoint(ctx context.Context, e *domain.Endpoint) error
	DeleteEndpoint(ctx context.Context, id domain.EndpointID) error
	EndpointsByPage(ctx context.Context, id domain.PageID, activeOnly bool) ([]domain.Endpoint, error)
}

type IncidentStore interface {
	CreateIncident(ctx context.Context, i *domain.Incident) error
	ListIncidents(ctx context.Context, page domain.PageID) ([]domain.Incident, error)
	Incident(ctx context.Context, id domain.IncidentID) (*domain.Incident, error)
	UpdateIncident(ctx context.Context, i *domain.Incident) error
	DeleteIncident(ctx context.Context, id domain.IncidentID) error
}

// Store is everything the API server needs.
type Store interface {
	PageStore
	EndpointStore
	IncidentStore
	HistoryReader
	CheckStore
}
