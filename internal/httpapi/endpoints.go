package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimatum/internal/domain"
)

const historyLimit = 100

type endpointPayload struct {
	PageID   int64  `json:"page_id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Method   string `json:"method"`
	Interval *int   `json:"interval"`
	Timeout  *int   `json:"timeout"`
	Active   *bool  `json:"active"`
}

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// endpoint validates the payload and applies defaults.
func (p endpointPayload) endpoint() (domain.Endpoint, string) {
	e := domain.Endpoint{
		PageID:   domain.PageID(p.PageID),
		Name:     strings.TrimSpace(p.Name),
		Method:   strings.ToUpper(strings.TrimSpace(p.Method)),
		Interval: domain.DefaultInterval,
		Timeout:  domain.DefaultTimeout,
		Active:   true,
	}
	if p.PageID <= 0 {
		return e, "page_id is required"
	}
	if e.Name == "" {
		return e, "name is required"
	}
	if !isValidHTTPURL(p.URL) {
		return e, "url must be an absolute http(s) URL"
	}
	e.URL = normalizeHTTPURL(p.URL)
	if e.Method == "" {
		e.Method = domain.DefaultMethod
	}
	if !allowedMethods[e.Method] {
		return e, "unsupported method"
	}
	if p.Interval != nil {
		e.Interval = *p.Interval
	}
	if p.Timeout != nil {
		e.Timeout = *p.Timeout
	}
	if e.Interval <= 0 || e.Timeout <= 0 {
		return e, "interval and timeout must be positive"
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	return e, ""
}

func (s *Server) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var p endpointPayload
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	e, problem := p.endpoint()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	if err := s.Store.CreateEndpoint(r.Context(), &e); err != nil {
		s.storeError(w, r, err, "page")
		return
	}
	s.Logger.Info("endpoint_created",
		zap.Int64("endpoint_id", int64(e.ID)),
		zap.Int64("page_id", int64(e.PageID)),
		zap.String("url", e.URL),
	)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	hist, err := s.Store.History(r.Context(), domain.EndpointID(id), historyLimit)
	if err != nil {
		s.storeError(w, r, err, "endpoint")
		return
	}
	if hist == nil {
		hist = []domain.CheckRecord{}
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.Store.DeleteEndpoint(r.Context(), domain.EndpointID(id)); err != nil {
		s.storeError(w, r, err, "endpoint")
		return
	}
	s.Logger.Info("endpoint_deleted", zap.Int64("endpoint_id", id))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
