package postgres

import (
	"context"
	"fmt"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
)

const endpointColumns = `id, page_id, name, url, method, interval_seconds, timeout_seconds, active, created_at`

// ---- EndpointStore ----

func (s *Store) CreateEndpoint(ctx context.Context, e *domain.Endpoint) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO endpoints (page_id, name, url, method, interval_seconds, timeout_seconds, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		int64(e.PageID), e.Name, e.URL, e.Method, e.Interval, e.Timeout, e.Active,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert endpoint: %w", classify(err))
	}
	return nil
}

// DeleteEndpoint removes the endpoint; its checks go with it via ON DELETE CASCADE.
func (s *Store) DeleteEndpoint(ctx context.Context, id domain.EndpointID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM endpoints WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete endpoint %d: %w", id, repo.ErrNotFound)
	}
	return nil
}

func (s *Store) ListActive(ctx context.Context) ([]domain.Endpoint, error) {
	return s.queryEndpoints(ctx,
		`SELECT `+endpointColumns+` FROM endpoints WHERE active ORDER BY id`)
}

func (s *Store) EndpointsByPage(ctx context.Context, id domain.PageID, activeOnly bool) ([]domain.Endpoint, error) {
	return s.queryEndpoints(ctx,
		`SELECT `+endpointColumns+`
		   FROM endpoints
		  WHERE page_id = $1 AND (active OR NOT $2)
		  ORDER BY id`, int64(id), activeOnly)
}

func (s *Store) queryEndpoints(ctx context.Context, q string, args ...any) ([]domain.Endpoint, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	var out []domain.Endpoint
	for rows.Next() {
		var e domain.Endpoint
		if err := rows.Scan(&e.ID, &e.PageID, &e.Name, &e.URL, &e.Method,
			&e.Interval, &e.Timeout, &e.Active, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
