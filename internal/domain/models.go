package domain

import "time"

type PageID int64

type EndpointID int64

type IncidentID int64

type Page struct {
	ID        PageID    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Endpoint is a monitored target. The checker only reads it; Interval is
// stored but every endpoint is probed on the global tick.
type Endpoint struct {
	ID        EndpointID `json:"id"`
	PageID    PageID     `json:"page_id"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Method    string     `json:"method"`
	Interval  int        `json:"interval"` // seconds
	Timeout   int        `json:"timeout"`  // seconds
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

const (
	DefaultMethod   = "GET"
	DefaultInterval = 30
	DefaultTimeout  = 10
)

// TimeoutDuration converts the per-endpoint timeout to a duration, falling
// back to DefaultTimeout for non-positive values.
func (e Endpoint) TimeoutDuration() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(e.Timeout) * time.Second
}

type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentInvestigating, IncidentIdentified, IncidentMonitoring, IncidentResolved:
		return true
	}
	return false
}

type Incident struct {
	ID          IncidentID     `json:"id"`
	PageID      PageID         `json:"page_id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Status      IncidentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ResolvedAt  *time.Time     `json:"resolved_at"`
}

// SetStatus applies a status change: resolving stamps ResolvedAt once, any
// other status clears it.
func (i *Incident) SetStatus(s IncidentStatus, now time.Time) {
	i.Status = s
	if s == IncidentResolved {
		if i.ResolvedAt == nil {
			t := now
			i.ResolvedAt = &t
		}
		return
	}
	i.ResolvedAt = nil
}
