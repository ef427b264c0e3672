package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/uptimatum/internal/domain"
)

// maxDrain bounds how much of a response body is read so keep-alive
// connections can be reused.
const maxDrain = 64 << 10

type HTTPChecker struct {
	Client *http.Client
	Now    func() time.Time
}

// NewHTTPChecker returns a checker without a client-level timeout; every
// probe is bounded by its endpoint's own timeout instead.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{},
		Now:    time.Now,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, ep domain.Endpoint) domain.CheckResult {
	now := h.Now
	if now == nil {
		now = time.Now
	}
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = domain.DefaultMethod
	}

	ctx, cancel := context.WithTimeout(ctx, ep.TimeoutDuration())
	defer cancel()

	start := time.Now()
	out := domain.CheckResult{EndpointID: ep.ID, CheckedAt: now().UTC()}

	req, err := http.NewRequestWithContext(ctx, method, ep.URL, nil)
	if err != nil {
		return down(out, start, err)
	}
	req.Header.Set("User-Agent", "uptimatum-checker/1.0")

	resp, err := h.Client.Do(req)
	if err != nil {
		return down(out, start, err)
	}
	out.ResponseTimeMS = int(time.Since(start).Milliseconds())
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	resp.Body.Close()

	code := resp.StatusCode
	out.StatusCode = &code
	out.Status = Classify(code)
	return out
}

func down(out domain.CheckResult, start time.Time, err error) domain.CheckResult {
	msg := err.Error()
	out.ResponseTimeMS = int(time.Since(start).Milliseconds())
	out.Status = domain.StatusDown
	out.Error = &msg
	return out
}
