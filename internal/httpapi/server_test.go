package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hamed0406/uptimatum/internal/domain"
)

func TestIsValidHTTPURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://EXAMPLE.com", true},
		{"ftp://x", false},
		{"", false},
		{"https://", false},
	}
	for _, c := range cases {
		if got := isValidHTTPURL(c.in); got != c.want {
			t.Fatalf("isValidHTTPURL(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizeHTTPURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://EXAMPLE.com/", "https://example.com"},
		{"http://example.com:80", "http://example.com"},
		{"https://example.com:443/", "https://example.com"},
		{"https://example.com/p/", "https://example.com/p/"},
	}
	for _, c := range cases {
		if got := normalizeHTTPURL(c.in); got != c.want {
			t.Fatalf("normalizeHTTPURL(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestIsValidSlug(t *testing.T) {
	for in, want := range map[string]bool{
		"demo":       true,
		"prod-api-2": true,
		"Demo":       false,
		"-demo":      false,
		"demo--x":    false,
		"":           false,
		"with space": false,
	} {
		if got := isValidSlug(in); got != want {
			t.Fatalf("isValidSlug(%q)=%v want %v", in, got, want)
		}
	}
}

func TestRenderBadge(t *testing.T) {
	svg := renderBadge(domain.StatusDown, 99.95)
	if !strings.Contains(svg, "#f87171") || !strings.Contains(svg, ">DOWN<") || !strings.Contains(svg, ">100.0%<") {
		t.Fatalf("unexpected badge: %s", svg)
	}
	svg = renderBadge(domain.StatusUp, 75)
	if !strings.Contains(svg, "#4ade80") || !strings.Contains(svg, ">75.0%<") {
		t.Fatalf("unexpected badge: %s", svg)
	}
}

func TestPageStatus(t *testing.T) {
	latest := map[domain.EndpointID]domain.CheckRecord{
		1: {Status: domain.StatusUp},
		2: {Status: domain.StatusDegraded},
	}
	if got := pageStatus(latest); got != domain.StatusUp {
		t.Fatalf("degraded alone should not mark page down, got %s", got)
	}
	latest[3] = domain.CheckRecord{Status: domain.StatusDown}
	if got := pageStatus(latest); got != domain.StatusDown {
		t.Fatalf("want down, got %s", got)
	}
}

func TestCORS_PreflightAllowsPatch(t *testing.T) {
	h := corsHandler([]string{"https://status.example.com"})(http.NotFoundHandler())
	for _, m := range []string{http.MethodPatch, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(http.MethodOptions, "/api/pages/demo", nil)
		req.Header.Set("Origin", "https://status.example.com")
		req.Header.Set("Access-Control-Request-Method", m)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, m) {
			t.Fatalf("preflight for %s: allow-methods=%q", m, got)
		}
	}
}
