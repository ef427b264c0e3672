package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
)

// classify maps constraint violations onto repo sentinels.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, repo.ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, repo.ErrNotFound)
		}
	}
	return err
}

// ---- PageStore ----

func (s *Store) CreatePage(ctx context.Context, p *domain.Page) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO pages (slug, name) VALUES ($1, $2) RETURNING id, created_at`,
		p.Slug, p.Name,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert page: %w", classify(err))
	}
	return nil
}

func (s *Store) ListPages(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, slug, name, created_at FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var out []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) PageBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	var p domain.Page
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, name, created_at FROM pages WHERE slug = $1`, slug,
	).Scan(&p.ID, &p.Slug, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("page %q: %w", slug, notFound(err))
	}
	return &p, nil
}

func (s *Store) UpdatePage(ctx context.Context, p *domain.Page) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pages SET slug = $2, name = $3 WHERE id = $1`, int64(p.ID), p.Slug, p.Name)
	if err != nil {
		return fmt.Errorf("update page: %w", classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update page %d: %w", p.ID, repo.ErrNotFound)
	}
	return nil
}
