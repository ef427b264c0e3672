package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimatum/internal/domain"
)

type pagePayload struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// endpointStatus is an endpoint as shown on a status page.
type endpointStatus struct {
	domain.Endpoint
	Latest *domain.CheckRecord `json:"latest"`
	Uptime string              `json:"uptime"`
}

type pageDetail struct {
	domain.Page
	Endpoints []endpointStatus `json:"endpoints"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.Store.ListPages(r.Context())
	if err != nil {
		s.storeError(w, r, err, "page")
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var p pagePayload
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || !isValidSlug(p.Slug) {
		writeError(w, http.StatusBadRequest, "name and a lowercase slug are required")
		return
	}

	page := domain.Page{Name: p.Name, Slug: p.Slug}
	if err := s.Store.CreatePage(r.Context(), &page); err != nil {
		s.storeError(w, r, err, "page")
		return
	}
	s.Logger.Info("page_created", zap.String("slug", page.Slug))
	writeJSON(w, http.StatusCreated, page)
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.Store.PageBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.storeError(w, r, err, "page")
		return
	}
	var p pagePayload
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		page.Name = name
	}
	if p.Slug != "" {
		if !isValidSlug(p.Slug) {
			writeError(w, http.StatusBadRequest, "invalid slug")
			return
		}
		page.Slug = p.Slug
	}
	if err := s.Store.UpdatePage(r.Context(), page); err != nil {
		s.storeError(w, r, err, "page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
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
	latest, err := s.Store.LatestByEndpoint(ctx, endpointIDs(eps))
	if err != nil {
		s.storeError(w, r, err, "check")
		return
	}

	since := s.Now().UTC().Add(-24 * time.Hour)
	out := pageDetail{Page: *page, Endpoints: make([]endpointStatus, 0, len(eps))}
	for _, ep := range eps {
		c, err := s.Store.CountSince(ctx, []domain.EndpointID{ep.ID}, since)
		if err != nil {
			s.storeError(w, r, err, "check")
			return
		}
		st := endpointStatus{
			Endpoint: ep,
			Uptime:   strconv.FormatFloat(domain.Uptime(c.Total, c.Up), 'f', 2, 64),
		}
		if rec, ok := latest[ep.ID]; ok {
			st.Latest = &rec
		}
		out.Endpoints = append(out.Endpoints, st)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hours, err := strconv.Atoi(r.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		hours = 24
	}
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
	if len(eps) == 0 {
		writeJSON(w, http.StatusOK, []domain.CheckRecord{})
		return
	}
	since := s.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	checks, err := s.Store.Since(ctx, endpointIDs(eps), since)
	if err != nil {
		s.storeError(w, r, err, "check")
		return
	}
	if checks == nil {
		checks = []domain.CheckRecord{}
	}
	writeJSON(w, http.StatusOK, checks)
}

func endpointIDs(eps []domain.Endpoint) []domain.EndpointID {
	ids := make([]domain.EndpointID, len(eps))
	for i, e := range eps {
		ids[i] = e.ID
	}
	return ids
}
