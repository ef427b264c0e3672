package probe

import (
	"context"

	"github.com/hamed0406/uptimatum/internal/domain"
)

// Checker performs a single probe of an endpoint. Outcomes are data: a
// down or degraded endpoint is reported through the result, never as an error.
type Checker interface {
	Check(ctx context.Context, ep domain.Endpoint) domain.CheckResult
}

// Classify maps a completed HTTP response code to a check status.
func Classify(statusCode int) domain.CheckStatus {
	if statusCode >= 200 && statusCode < 400 {
		return domain.StatusUp
	}
	return domain.StatusDegraded
}
