package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
)

const incidentColumns = `id, page_id, title, description, status, created_at, updated_at, resolved_at`

// ---- IncidentStore ----

func (s *Store) CreateIncident(ctx context.Context, i *domain.Incident) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO incidents (page_id, title, description, status, resolved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		int64(i.PageID), i.Title, i.Description, string(i.Status), i.ResolvedAt,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", classify(err))
	}
	return nil
}

func (s *Store) ListIncidents(ctx context.Context, page domain.PageID) ([]domain.Incident, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE page_id = $1 ORDER BY created_at DESC, id DESC`,
		int64(page))
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (s *Store) Incident(ctx context.Context, id domain.IncidentID) (*domain.Incident, error) {
	inc, err := scanIncident(s.db.QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, int64(id)))
	if err != nil {
		return nil, fmt.Errorf("incident %d: %w", id, notFound(err))
	}
	return &inc, nil
}

func (s *Store) UpdateIncident(ctx context.Context, i *domain.Incident) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE incidents
		    SET title = $2, description = $3, status = $4, updated_at = $5, resolved_at = $6
		  WHERE id = $1`,
		int64(i.ID), i.Title, i.Description, string(i.Status), i.UpdatedAt, i.ResolvedAt)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update incident %d: %w", i.ID, repo.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteIncident(ctx context.Context, id domain.IncidentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete incident %d: %w", id, repo.ErrNotFound)
	}
	return nil
}

func scanIncident(row rowScanner) (domain.Incident, error) {
	var (
		inc        domain.Incident
		desc       sql.NullString
		status     string
		resolvedAt sql.NullTime
	)
	if err := row.Scan(&inc.ID, &inc.PageID, &inc.Title, &desc, &status,
		&inc.CreatedAt, &inc.UpdatedAt, &resolvedAt); err != nil {
		return inc, err
	}
	inc.Description = nullString(desc)
	inc.Status = domain.IncidentStatus(status)
	inc.ResolvedAt = nullTime(resolvedAt)
	return inc, nil
}
