package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/uptimatum/internal/domain"
	"github.com/hamed0406/uptimatum/internal/repo"
)

// Store keeps everything in process memory. The per-endpoint write locks give
// the same skip-if-locked behaviour as the postgres store, which is only
// sufficient for a single checker instance.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	pages     map[domain.PageID]*domain.Page
	endpoints map[domain.EndpointID]*domain.Endpoint
	incidents map[domain.IncidentID]*domain.Incident
	checks    map[domain.EndpointID][]*domain.CheckRecord

	lockMu sync.Mutex
	locks  map[domain.EndpointID]*sync.Mutex
}

func New() *Store {
	return &Store{
		pages:     make(map[domain.PageID]*domain.Page),
		endpoints: make(map[domain.EndpointID]*domain.Endpoint),
		incidents: make(map[domain.IncidentID]*domain.Incident),
		checks:    make(map[domain.EndpointID][]*domain.CheckRecord),
		locks:     make(map[domain.EndpointID]*sync.Mutex),
	}
}

// nextID must be called with mu held for writing.
func (m *Store) nextID() int64 {
	m.seq++
	return m.seq
}

// ---- PageStore ----

func (m *Store) CreatePage(ctx context.Context, p *domain.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.pages {
		if existing.Slug == p.Slug {
			return repo.ErrConflict
		}
	}
	p.ID = domain.PageID(m.nextID())
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	m.pages[p.ID] = &cp
	return nil
}

func (m *Store) ListPages(ctx context.Context) ([]domain.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Page, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) PageBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pages {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *Store) UpdatePage(ctx context.Context, p *domain.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.pages[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for id, existing := range m.pages {
		if id != p.ID && existing.Slug == p.Slug {
			return repo.ErrConflict
		}
	}
	cur.Slug, cur.Name = p.Slug, p.Name
	return nil
}

// ---- EndpointStore ----

func (m *Store) CreateEndpoint(ctx context.Context, e *domain.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[e.PageID]; !ok {
		return repo.ErrNotFound
	}
	e.ID = domain.EndpointID(m.nextID())
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	cp := *e
	m.endpoints[e.ID] = &cp
	return nil
}

// DeleteEndpoint removes the endpoint, its check history and its write lock.
func (m *Store) DeleteEndpoint(ctx context.Context, id domain.EndpointID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.endpoints[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.endpoints, id)
	delete(m.checks, id)

	m.lockMu.Lock()
	delete(m.locks, id)
	m.lockMu.Unlock()
	return nil
}

func (m *Store) ListActive(ctx context.Context) ([]domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterEndpoints(func(e *domain.Endpoint) bool { return e.Active }), nil
}

func (m *Store) EndpointsByPage(ctx context.Context, id domain.PageID, activeOnly bool) ([]domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterEndpoints(func(e *domain.Endpoint) bool {
		return e.PageID == id && (e.Active || !activeOnly)
	}), nil
}

func (m *Store) filterEndpoints(keep func(*domain.Endpoint) bool) []domain.Endpoint {
	out := make([]domain.Endpoint, 0, len(m.endpoints))
	for _, e := range m.endpoints {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- IncidentStore ----

func (m *Store) CreateIncident(ctx context.Context, i *domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[i.PageID]; !ok {
		return repo.ErrNotFound
	}
	now := time.Now().UTC()
	i.ID = domain.IncidentID(m.nextID())
	i.CreatedAt, i.UpdatedAt = now, now
	cp := *i
	m.incidents[i.ID] = &cp
	return nil
}

func (m *Store) ListIncidents(ctx context.Context, page domain.PageID) ([]domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Incident
	for _, i := range m.incidents {
		if i.PageID == page {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (m *Store) Incident(ctx context.Context, id domain.IncidentID) (*domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.incidents[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *Store) UpdateIncident(ctx context.Context, i *domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.incidents[i.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *i
	m.incidents[i.ID] = &cp
	return nil
}

func (m *Store) DeleteIncident(ctx context.Context, id domain.IncidentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.incidents[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.incidents, id)
	return nil
}

// ---- CheckStore ----

func (m *Store) endpointLock(id domain.EndpointID) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *Store) WithLatest(ctx context.Context, id domain.EndpointID, fn func(tx repo.CheckTx) error) error {
	m.mu.RLock()
	_, ok := m.endpoints[id]
	m.mu.RUnlock()
	if !ok {
		return repo.ErrNotFound
	}

	l := m.endpointLock(id)
	if !l.TryLock() {
		return repo.ErrBusy
	}
	defer l.Unlock()

	tx := &checkTx{store: m, endpoint: id}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// checkTx stages writes and applies them on commit, so a failing fn leaves
// the history untouched.
type checkTx struct {
	store    *Store
	endpoint domain.EndpointID
	inserts  []*domain.CheckRecord
	updates  []*domain.CheckRecord
}

func (tx *checkTx) Latest(ctx context.Context) (*domain.CheckRecord, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	latest := latestOf(tx.store.checks[tx.endpoint])
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// Insert reserves the row id immediately; like a database sequence, ids of
// rolled back inserts are not reused.
func (tx *checkTx) Insert(ctx context.Context, rec *domain.CheckRecord) error {
	tx.store.mu.Lock()
	rec.ID = tx.store.nextID()
	tx.store.mu.Unlock()
	cp := *rec
	tx.inserts = append(tx.inserts, &cp)
	return nil
}

func (tx *checkTx) Update(ctx context.Context, rec *domain.CheckRecord) error {
	cp := *rec
	tx.updates = append(tx.updates, &cp)
	return nil
}

func (tx *checkTx) commit() error {
	m := tx.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.endpoints[tx.endpoint]; !ok {
		return repo.ErrNotFound
	}
	rows := m.checks[tx.endpoint]
	byID := make(map[int64]*domain.CheckRecord, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	for _, u := range tx.updates {
		if _, ok := byID[u.ID]; !ok {
			return repo.ErrNotFound
		}
	}
	for _, u := range tx.updates {
		*byID[u.ID] = *u
	}
	rows = append(rows, tx.inserts...)
	m.checks[tx.endpoint] = rows
	return nil
}

func (m *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rows := range m.checks {
		kept := rows[:0]
		for _, r := range rows {
			if r.CheckedAt.Before(cutoff) {
				n++
				continue
			}
			kept = append(kept, r)
		}
		m.checks[id] = kept
	}
	return n, nil
}

// ---- HistoryReader ----

func (m *Store) History(ctx context.Context, id domain.EndpointID, limit int) ([]domain.CheckRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := copyRecords(m.checks[id])
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) LatestByEndpoint(ctx context.Context, ids []domain.EndpointID) (map[domain.EndpointID]domain.CheckRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[domain.EndpointID]domain.CheckRecord, len(ids))
	for _, id := range ids {
		if r := latestOf(m.checks[id]); r != nil {
			out[id] = *r
		}
	}
	return out, nil
}

func (m *Store) Since(ctx context.Context, ids []domain.EndpointID, since time.Time) ([]domain.CheckRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.CheckRecord
	for _, id := range ids {
		for _, r := range m.checks[id] {
			if !r.CheckedAt.Before(since) {
				out = append(out, *r)
			}
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *Store) CountSince(ctx context.Context, ids []domain.EndpointID, since time.Time) (repo.UptimeCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var c repo.UptimeCount
	for _, id := range ids {
		for _, r := range m.checks[id] {
			if !r.CheckedAt.After(since) {
				continue
			}
			c.Total++
			if r.Status == domain.StatusUp {
				c.Up++
			}
		}
	}
	return c, nil
}

func latestOf(rows []*domain.CheckRecord) *domain.CheckRecord {
	var latest *domain.CheckRecord
	for _, r := range rows {
		if latest == nil || r.CheckedAt.After(latest.CheckedAt) ||
			(r.CheckedAt.Equal(latest.CheckedAt) && r.ID > latest.ID) {
			latest = r
		}
	}
	return latest
}

func copyRecords(rows []*domain.CheckRecord) []domain.CheckRecord {
	out := make([]domain.CheckRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out
}

func sortNewestFirst(rows []domain.CheckRecord) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CheckedAt.Equal(rows[j].CheckedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CheckedAt.After(rows[j].CheckedAt)
	})
}
