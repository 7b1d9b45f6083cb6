package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"reelsync/internal/logging"
	"reelsync/internal/movie"
	"reelsync/internal/selector"
)

type selectionBody struct {
	Name string          `json:"name"`
	Year json.RawMessage `json:"year"`
	Key  string          `json:"key"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Runs: len(s.registry.Sessions())})
}

func (s *Server) handleRuns(w http.ResponseWriter, _ *http.Request) {
	sessions := s.registry.Sessions()
	resp := RunsResponse{Runs: make([]RunSummary, 0, len(sessions))}
	for _, session := range sessions {
		resp.Runs = append(resp.Runs, RunSummary{Name: session.Name(), Pending: session.Len()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelections(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, SelectionsResponse{Run: session.Name(), Pending: session.Pending()})
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	id, body, ok := s.decodeSelection(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(body.Key) == "" {
		s.writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if err := session.Resolve(id, body.Key); err != nil {
		s.writeSelectionError(w, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("selection chosen via api",
		logging.String(logging.FieldRun, session.Name()),
		logging.Movie(id),
		logging.String("key", body.Key))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	id, _, ok := s.decodeSelection(w, r)
	if !ok {
		return
	}
	if err := session.Skip(id); err != nil {
		s.writeSelectionError(w, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("selection skipped via api",
		logging.String(logging.FieldRun, session.Name()),
		logging.Movie(id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*selector.Session, bool) {
	run := chi.URLParam(r, "run")
	session, ok := s.registry.Get(run)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return session, true
}

func (s *Server) decodeSelection(w http.ResponseWriter, r *http.Request) (movie.Identity, selectionBody, bool) {
	var body selectionBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return movie.Identity{}, body, false
	}
	year, err := movie.DecodeYear(body.Year)
	id := movie.Identity{Name: body.Name, Year: year}
	if err != nil || !id.Valid() {
		s.writeError(w, http.StatusBadRequest, "name and year are required")
		return movie.Identity{}, body, false
	}
	return id, body, true
}

func (s *Server) writeSelectionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, selector.ErrNoPendingRequest):
		s.writeError(w, http.StatusNotFound, "no pending selection")
	case errors.Is(err, selector.ErrInvalidChoice):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
