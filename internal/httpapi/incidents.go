package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hamed0406/uptimatum/internal/domain"
)

type incidentPayload struct {
	PageID      int64                 `json:"page_id"`
	Title       string                `json:"title"`
	Description *string               `json:"description"`
	Status      domain.IncidentStatus `json:"status"`
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	pageID, ok := parseID(r.URL.Query().Get("page_id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "page_id is required")
		return
	}
	list, err := s.Store.ListIncidents(r.Context(), domain.PageID(pageID))
	if err != nil {
		s.storeError(w, r, err, "incident")
		return
	}
	if list == nil {
		list = []domain.Incident{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var p incidentPayload
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	title := strings.TrimSpace(p.Title)
	if p.PageID <= 0 || title == "" {
		writeError(w, http.StatusBadRequest, "page_id and title are required")
		return
	}
	if p.Status == "" {
		p.Status = domain.IncidentInvestigating
	}
	if !p.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	inc := domain.Incident{PageID: domain.PageID(p.PageID), Title: title, Description: emptyToNil(p.Description)}
	inc.SetStatus(p.Status, s.Now().UTC())
	if err := s.Store.CreateIncident(r.Context(), &inc); err != nil {
		s.storeError(w, r, err, "page")
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p incidentPayload
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if p.Status != "" && !p.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	inc, err := s.Store.Incident(r.Context(), domain.IncidentID(id))
	if err != nil {
		s.storeError(w, r, err, "incident")
		return
	}
	now := s.Now().UTC()
	if t := strings.TrimSpace(p.Title); t != "" {
		inc.Title = t
	}
	if p.Description != nil {
		inc.Description = emptyToNil(p.Description)
	}
	if p.Status != "" {
		inc.SetStatus(p.Status, now)
	}
	inc.UpdatedAt = now
	if err := s.Store.UpdateIncident(r.Context(), inc); err != nil {
		s.storeError(w, r, err, "incident")
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleDeleteIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.Store.DeleteIncident(r.Context(), domain.IncidentID(id)); err != nil {
		s.storeError(w, r, err, "incident")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
