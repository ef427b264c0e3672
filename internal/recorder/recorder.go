// Package recorder turns probe outcomes into check-history rows using the
// coalesce-or-append protocol: a new row for the first check, for every
// status transition and once the latest row is older than the threshold;
// otherwise the latest row is refreshed in place.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
)

// DefaultThreshold is how long a row may be coalesced before a heartbeat row
// is appended.
const DefaultThreshold = 5 * time.Second

type Decision string

const (
	DecisionAppend Decision = "append"
	DecisionUpdate Decision = "update"
	// DecisionStale means the result is older than the latest row it would
	// coalesce into; nothing is written.
	DecisionStale Decision = "stale"
)

// Outcome describes what a Record call wrote.
type Outcome struct {
	Decision Decision
	Record   domain.CheckRecord
	// Previous is the latest row before this write, nil on first check.
	Previous *domain.CheckRecord
}

// Transition reports whether the write recorded a status change against an
// existing history.
func (o Outcome) Transition() bool {
	return o.Previous != nil && o.Previous.Status != o.Record.Status
}

// Decide applies the write rule to the endpoint's latest row.
func Decide(latest *domain.CheckRecord, status domain.CheckStatus, now time.Time, threshold time.Duration) Decision {
	switch {
	case latest == nil:
		return DecisionAppend
	case latest.Status != status:
		return DecisionAppend
	case now.Before(latest.CheckedAt):
		return DecisionStale
	case now.Sub(latest.CheckedAt) > threshold:
		return DecisionAppend
	default:
		return DecisionUpdate
	}
}

type Writer struct {
	Store     repo.CheckStore
	Threshold time.Duration
}

func NewWriter(store repo.CheckStore, threshold time.Duration) *Writer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Writer{Store: store, Threshold: threshold}
}

// Record writes at most one insert or one update for res inside a single
// store transaction. A same-status result older than the latest row is
// dropped so the row's checked_at never moves backwards. On error nothing is
// committed; repo.ErrBusy means a concurrent writer held the endpoint's lock.
func (w *Writer) Record(ctx context.Context, res domain.CheckResult) (Outcome, error) {
	if !res.Status.Valid() {
		return Outcome{}, fmt.Errorf("record endpoint %d: invalid status %q", res.EndpointID, res.Status)
	}
	if res.CheckedAt.IsZero() {
		res.CheckedAt = time.Now().UTC()
	}

	var out Outcome
	err := w.Store.WithLatest(ctx, res.EndpointID, func(tx repo.CheckTx) error {
		latest, err := tx.Latest(ctx)
		if err != nil {
			return fmt.Errorf("select latest: %w", err)
		}

		out = Outcome{Decision: Decide(latest, res.Status, res.CheckedAt, w.Threshold)}
		if latest != nil {
			prev := *latest
			out.Previous = &prev
		}

		switch out.Decision {
		case DecisionStale:
			out.Record = *latest
			return nil
		case DecisionUpdate:
			latest.Apply(res)
			if err := tx.Update(ctx, latest); err != nil {
				return fmt.Errorf("update check %d: %w", latest.ID, err)
			}
			out.Record = *latest
			return nil
		}

		rec := domain.NewRecord(res)
		if err := tx.Insert(ctx, rec); err != nil {
			return fmt.Errorf("insert check: %w", err)
		}
		out.Record = *rec
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("record endpoint %d: %w", res.EndpointID, err)
	}
	return out, nil
}
