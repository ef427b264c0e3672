package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hamed0406/uptimatum/internal/domain"
)

var badgeColors = map[domain.CheckStatus]string{
	domain.StatusUp:       "#4ade80",
	domain.StatusDegraded: "#fbbf24",
	domain.StatusDown:     "#f87171",
}

const badgeTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="160" height="20">
  <rect width="60" height="20" fill="#555"/>
  <rect x="60" width="50" height="20" fill="%s"/>
  <rect x="110" width="50" height="20" fill="#555"/>
  <text x="30" y="14" fill="#fff" font-family="Arial" font-size="11" text-anchor="middle">status</text>
  <text x="85" y="14" fill="#fff" font-family="Arial" font-size="11" text-anchor="middle">%s</text>
  <text x="135" y="14" fill="#fff" font-family="Arial" font-size="11" text-anchor="middle">%.1f%%</text>
</svg>`

func renderBadge(status domain.CheckStatus, uptime float64) string {
	color, ok := badgeColors[status]
	if !ok {
		color = badgeColors[domain.StatusDown]
	}
	return fmt.Sprintf(badgeTemplate, color, strings.ToUpper(string(status)), uptime)
}

// pageStatus is down when any endpoint's latest record is down, up otherwise.
func pageStatus(latest map[domain.EndpointID]domain.CheckRecord) domain.CheckStatus {
	for _, rec := range latest {
		if rec.Status == domain.StatusDown {
			return domain.StatusDown
		}
	}
	return domain.StatusUp
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := s.Store.PageBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.storeError(w, r, err, "page")
		return
	}
	eps, err := s.Store.EndpointsByPage(ctx, page.ID, true)
	if err != nil {
		s.storeError(w, r, err, "endpoint")
		return
	}

	status, uptime := domain.StatusUp, 100.0
	if len(eps) > 0 {
		ids := endpointIDs(eps)
		latest, err := s.Store.LatestByEndpoint(ctx, ids)
		if err != nil {
			s.storeError(w, r, err, "check")
			return
		}
		c, err := s.Store.CountSince(ctx, ids, s.Now().UTC().Add(-24*time.Hour))
		if err != nil {
			s.storeError(w, r, err, "check")
			return
		}
		status, uptime = pageStatus(latest), domain.Uptime(c.Total, c.Up)
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache, max-age=0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderBadge(status, uptime)))
}
