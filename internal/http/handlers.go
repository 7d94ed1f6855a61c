package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
)

type pageData struct {
	services.BoardView
	Params  ViewParams
	PrevURL string
	NextURL string
	Refresh string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.templates == nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	p := ParseViewParams(r.URL.Query())
	bv, err := s.board.MonthView(ctx, p.Location, p.View, p.Force)
	if err != nil {
		s.writeLocationError(w, r, err, false)
		return
	}

	p.Location = bv.Location.ID
	p.View = bv.Date
	prev, next := p, p
	prev.View = bv.Date.Prev()
	next.View = bv.Date.Next()
	data := pageData{
		BoardView: bv,
		Params:    p,
		PrevURL:   "/?" + prev.Query(),
		NextURL:   "/?" + next.Query(),
		Refresh:   "/?" + p.Query() + "&refresh=1",
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		applog.LogError(ctx, applog.FromContext(ctx), "Index template execution failed", err, applog.OpRender,
			applog.NewFields().With("template", "index.html"))
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleMonthJSON(w http.ResponseWriter, r *http.Request) {
	p := ParseViewParams(r.URL.Query())
	bv, err := s.board.MonthView(r.Context(), p.Location, p.View, p.Force)
	if err != nil {
		s.writeLocationError(w, r, err, true)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, bv)
}

type refreshResponse struct {
	Status     string           `json:"status"`
	Location   string           `json:"location"`
	DataSet    core.DataSetName `json:"dataset"`
	State      services.State   `json:"state,omitempty"`
	Records    int              `json:"records,omitempty"`
	CapturedAt *time.Time       `json:"captured_at,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// handleRefresh queues a refresh when a broker is configured and otherwise
// forces a load in process.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc, err := s.board.Location(r.PathValue("id"))
	if err != nil {
		s.writeLocationError(w, r, err, true)
		return
	}
	resp := refreshResponse{Location: loc.ID, DataSet: loc.DataSet}

	if s.publisher != nil {
		if err := s.publisher.PublishRefresh(ctx, loc.DataSet); err != nil {
			applog.LogError(ctx, applog.FromContext(ctx), "Refresh publish failed", err, applog.OpRefresh,
				applog.NewFields().WithDataSet(loc.DataSet.String(), "").With(applog.FieldLocation, loc.ID))
			resp.Status = "unavailable"
			resp.Error = "refresh queue unavailable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Status = "queued"
		writeJSON(w, http.StatusAccepted, resp)
		return
	}

	res, err := s.board.Refresh(ctx, loc.ID)
	resp.State = res.State
	resp.Records = len(res.Records)
	if !res.CapturedAt.IsZero() {
		resp.CapturedAt = &res.CapturedAt
	}
	if err != nil || res.State != services.StateFetchSucceeded {
		resp.Status = "failed"
		resp.Error = "could not fetch the latest data"
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	resp.Status = "refreshed"
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"templates": "ok", "locations": "ok"}
	status, code := "ready", http.StatusOK
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if len(s.board.Locations()) == 0 {
		checks["locations"] = "failed: no locations configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":         status,
		"checks":         checks,
		"active_clients": s.limiter.ActiveClients(),
	})
}

func (s *Server) writeLocationError(w http.ResponseWriter, r *http.Request, err error, asJSON bool) {
	code := http.StatusInternalServerError
	if errors.Is(err, core.ErrUnknownLocation) {
		code = http.StatusNotFound
	}
	if asJSON {
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
