package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gpuviz/pkg/buildinfo"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/errors"
	"github.com/matzehuels/gpuviz/pkg/graph"
	"github.com/matzehuels/gpuviz/pkg/pipeline"
	"github.com/matzehuels/gpuviz/pkg/session"
)

// diagramRequest is the body of the stateless diagram and render endpoints.
type diagramRequest struct {
	Hierarchy *hierarchy.Cluster `json:"hierarchy"`
	pipeline.Options
}

type createSessionRequest struct {
	Hierarchy  *hierarchy.Cluster `json:"hierarchy"`
	TTLSeconds int                `json:"ttl_seconds,omitempty"`
}

// sessionResponse is a session without its hierarchy.
type sessionResponse struct {
	ID          string    `json:"id"`
	HierarchyID string    `json:"hierarchy_id"`
	Collapsed   []string  `json:"collapsed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		HierarchyID: s.HierarchyID,
		Collapsed:   s.Collapsed,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

// =============================================================================
// Stateless endpoints
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"agent":   buildinfo.UserAgent(),
	})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, hierarchy.Sample())
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.runner.Diagram(r.Context(), req.Hierarchy, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.render(w, r, req.Hierarchy, req.Options)
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ttl := s.cfg.SessionTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	sess, err := session.Create(r.Context(), s.sessions, req.Hierarchy, ttl)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := session.Load(r.Context(), s.sessions, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := session.Remove(r.Context(), s.sessions, chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionDiagram(w http.ResponseWriter, r *http.Request) {
	sess, err := session.Load(r.Context(), s.sessions, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSessionDiagram(w, r, sess)
}

func (s *Server) handleSessionRender(w http.ResponseWriter, r *http.Request) {
	sess, err := session.Load(r.Context(), s.sessions, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.render(w, r, sess.Hierarchy, pipeline.Options{Collapsed: sess.Collapsed})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, err := session.Toggle(r.Context(), s.sessions,
		chi.URLParam(r, "sessionID"), chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSessionDiagram(w, r, sess)
}

func (s *Server) writeSessionDiagram(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	d, err := s.runner.Diagram(r.Context(), sess.Hierarchy, pipeline.Options{Collapsed: sess.Collapsed})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionDiagram{Session: newSessionResponse(sess), Diagram: d})
}

type sessionDiagram struct {
	Session sessionResponse `json:"session"`
	Diagram *graph.Diagram  `json:"diagram"`
}

// =============================================================================
// Helpers
// =============================================================================

// render writes one artifact with its content type.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c *hierarchy.Cluster, opts pipeline.Options) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{format}
	res, err := s.runner.Compute(r.Context(), c, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("ETag", `"`+res.DiagramHash+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// decode reads a size-limited JSON body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
