package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
)

// The endpoint row is the per-endpoint write guard: it exists before the
// first check row does, and NO KEY UPDATE does not conflict with the key
// share lock taken by the checks foreign key.
const (
	lockEndpointSQL = `SELECT id FROM endpoints WHERE id = $1 FOR NO KEY UPDATE SKIP LOCKED`

	endpointExistsSQL = `SELECT EXISTS (SELECT 1 FROM endpoints WHERE id = $1)`

	latestCheckSQL = `
SELECT id, endpoint_id, status, response_time, status_code, error, checked_at
  FROM checks
 WHERE endpoint_id = $1
 ORDER BY checked_at DESC, id DESC
 LIMIT 1
   FOR UPDATE`

	insertCheckSQL = `
INSERT INTO checks (endpoint_id, status, response_time, status_code, error, checked_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	updateCheckSQL = `
UPDATE checks
   SET status = $2, response_time = $3, status_code = $4, error = $5, checked_at = $6
 WHERE id = $1`

	deleteOldChecksSQL = `DELETE FROM checks WHERE checked_at < $1`

	checkColumns = `id, endpoint_id, status, response_time, status_code, error, checked_at`
)

// ---- CheckStore ----

func (s *Store) WithLatest(ctx context.Context, id domain.EndpointID, fn func(tx repo.CheckTx) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, lockEndpointSQL, int64(id)).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx, endpointExistsSQL, int64(id)).Scan(&exists); err != nil {
				return fmt.Errorf("endpoint exists: %w", err)
			}
			if !exists {
				return repo.ErrNotFound
			}
			return repo.ErrBusy
		}
		if err != nil {
			return fmt.Errorf("lock endpoint: %w", err)
		}
		return fn(&checkTx{tx: tx, endpoint: id})
	})
}

type checkTx struct {
	tx       *sql.Tx
	endpoint domain.EndpointID
}

func (c *checkTx) Latest(ctx context.Context) (*domain.CheckRecord, error) {
	rec, err := scanCheck(c.tx.QueryRowContext(ctx, latestCheckSQL, int64(c.endpoint)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest check: %w", err)
	}
	return &rec, nil
}

func (c *checkTx) Insert(ctx context.Context, rec *domain.CheckRecord) error {
	err := c.tx.QueryRowContext(ctx, insertCheckSQL,
		int64(rec.EndpointID), string(rec.Status), rec.ResponseTimeMS, rec.StatusCode, rec.Error, rec.CheckedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

func (c *checkTx) Update(ctx context.Context, rec *domain.CheckRecord) error {
	res, err := c.tx.ExecContext(ctx, updateCheckSQL,
		rec.ID, string(rec.Status), rec.ResponseTimeMS, rec.StatusCode, rec.Error, rec.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return fmt.Errorf("update check %d: %w", rec.ID, repo.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, deleteOldChecksSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old checks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ---- HistoryReader ----

func (s *Store) History(ctx context.Context, id domain.EndpointID, limit int) ([]domain.CheckRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkColumns+`
		   FROM checks
		  WHERE endpoint_id = $1
		  ORDER BY checked_at DESC, id DESC
		  LIMIT $2`, int64(id), limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return collectChecks(rows)
}

func (s *Store) LatestByEndpoint(ctx context.Context, ids []domain.EndpointID) (map[domain.EndpointID]domain.CheckRecord, error) {
	out := make(map[domain.EndpointID]domain.CheckRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT ON (endpoint_id) `+checkColumns+`
		   FROM checks
		  WHERE endpoint_id = ANY($1)
		  ORDER BY endpoint_id, checked_at DESC, id DESC`, int64s(ids))
	if err != nil {
		return nil, fmt.Errorf("latest by endpoint: %w", err)
	}
	recs, err := collectChecks(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		out[r.EndpointID] = r
	}
	return out, nil
}

func (s *Store) Since(ctx context.Context, ids []domain.EndpointID, since time.Time) ([]domain.CheckRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkColumns+`
		   FROM checks
		  WHERE endpoint_id = ANY($1) AND checked_at >= $2
		  ORDER BY checked_at DESC, id DESC`, int64s(ids), since)
	if err != nil {
		return nil, fmt.Errorf("checks since: %w", err)
	}
	return collectChecks(rows)
}

func (s *Store) CountSince(ctx context.Context, ids []domain.EndpointID, since time.Time) (repo.UptimeCount, error) {
	var c repo.UptimeCount
	if len(ids) == 0 {
		return c, nil
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)::int,
		        COUNT(*) FILTER (WHERE status = 'up')::int
		   FROM checks
		  WHERE endpoint_id = ANY($1) AND checked_at > $2`, int64s(ids), since).Scan(&c.Total, &c.Up)
	if err != nil {
		return c, fmt.Errorf("count since: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (domain.CheckRecord, error) {
	var (
		rec        domain.CheckRecord
		endpointID int64
		status     string
		respTime   sql.NullInt32
		code       sql.NullInt32
		errText    sql.NullString
	)
	if err := row.Scan(&rec.ID, &endpointID, &status, &respTime, &code, &errText, &rec.CheckedAt); err != nil {
		return rec, err
	}
	rec.EndpointID = domain.EndpointID(endpointID)
	rec.Status = domain.CheckStatus(status)
	rec.ResponseTimeMS = nullInt(respTime)
	rec.StatusCode = nullInt(code)
	rec.Error = nullString(errText)
	return rec, nil
}

func collectChecks(rows *sql.Rows) ([]domain.CheckRecord, error) {
	defer rows.Close()
	var out []domain.CheckRecord
	for rows.Next() {
		rec, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func int64s(ids []domain.EndpointID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
