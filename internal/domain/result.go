package domain

import "time"

type CheckStatus string

const (
	StatusUp       CheckStatus = "up"
	StatusDown     CheckStatus = "down"
	StatusDegraded CheckStatus = "degraded"
)

func (s CheckStatus) Valid() bool {
	return s == StatusUp || s == StatusDown || s == StatusDegraded
}

// CheckResult is the outcome of one probe attempt. It is never persisted
// as-is; the recorder turns it into a CheckRecord insert or update.
type CheckResult struct {
	EndpointID     EndpointID  `json:"endpoint_id"`
	Status         CheckStatus `json:"status"`
	ResponseTimeMS int         `json:"response_time"`
	StatusCode     *int        `json:"status_code"` // nil on transport failure
	Error          *string     `json:"error"`       // set only on failure
	CheckedAt      time.Time   `json:"checked_at"`
}

// CheckRecord is one row of check history.
type CheckRecord struct {
	ID             int64       `json:"id"`
	EndpointID     EndpointID  `json:"endpoint_id"`
	Status         CheckStatus `json:"status"`
	ResponseTimeMS *int        `json:"response_time"` // pointer to allow nil
	StatusCode     *int        `json:"status_code"`
	Error          *string     `json:"error"`
	CheckedAt      time.Time   `json:"checked_at"`
}

// Apply copies the measured fields of r onto the record, as done when a
// record is coalesced in place.
func (c *CheckRecord) Apply(r CheckResult) {
	ms := r.ResponseTimeMS
	c.Status = r.Status
	c.ResponseTimeMS = &ms
	c.StatusCode = r.StatusCode
	c.Error = r.Error
	c.CheckedAt = r.CheckedAt
}

// NewRecord builds the row appended for r.
func NewRecord(r CheckResult) *CheckRecord {
	rec := &CheckRecord{EndpointID: r.EndpointID}
	rec.Apply(r)
	return rec
}

// Uptime returns the percentage of up checks; 100 when there are none.
func Uptime(total, up int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(up) / float64(total) * 100
}
