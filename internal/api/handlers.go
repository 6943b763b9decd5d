package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/quickpanel/internal/audit"
	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/router"
)

// maxBodyBytes bounds request bodies; dialog options are small.
const maxBodyBytes = 1 << 20

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	list := s.dialogs.List()
	pending := 0
	for _, info := range list {
		if info.Queue != nil {
			pending += len(info.Queue.Pending)
		}
	}
	_, keyedIn := s.session.Token()

	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Dialogs:       len(list),
		Pending:       pending,
		KeyedIn:       keyedIn,
	})
}

// handleListDialogs handles GET /dialogs.
func (s *Server) handleListDialogs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, DialogsResponse{Dialogs: s.dialogs.List()})
}

// handleGetDialog handles GET /dialogs/{name}.
func (s *Server) handleGetDialog(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, ok := s.dialogs.Describe(name)
	if !ok {
		s.writeNotFound(w, name)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// handleShow handles POST /dialogs/{name}/show. The optional body is the
// options object itself.
func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var opts dialog.Options
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &opts); err != nil {
			s.writeError(w, http.StatusBadRequest, "body must be a JSON object")
			return
		}
	}

	s.command(w, name, "show", func() error { return s.dialogs.Show(name, opts) })
}

// handleHide handles POST /dialogs/{name}/hide.
func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.command(w, name, "hide", func() error { return s.dialogs.Hide(name) })
}

// handleClose handles POST /dialogs/{name}/close.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.command(w, name, "close", func() error { return s.dialogs.Close(name) })
}

// handleClosed handles POST /dialogs/{name}/closed, the renderer reporting
// that the user dismissed the window.
func (s *Server) handleClosed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.command(w, name, "closed", func() error { return s.dialogs.Dismissed(name) })
}

func (s *Server) command(w http.ResponseWriter, name, action string, run func() error) {
	if err := run(); err != nil {
		switch {
		case errors.Is(err, router.ErrUnknownDialog):
			s.writeNotFound(w, name)
		case errors.Is(err, router.ErrNotDismissable):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.logger.Error("dialog command failed", "dialog", name, "action", action, "error", err)
			s.writeError(w, http.StatusInternalServerError, "dialog command failed")
		}
		return
	}

	info, known := s.dialogs.Describe(name)
	respondJSON(w, http.StatusAccepted, CommandResponse{
		Dialog: name,
		Action: action,
		Known:  known,
		Queued: known && action == "show" && info.Kind == router.KindSequential,
	})
}

// handleGetSession handles GET /session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	_, keyedIn := s.session.Token()
	respondJSON(w, http.StatusOK, SessionResponse{KeyedIn: keyedIn})
}

// handlePutSession handles PUT /session. This mirrors the externally owned
// token; use POST /session/keyout to also clear pending queues.
func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.session.SetToken(req.Token)
	_, keyedIn := s.session.Token()
	respondJSON(w, http.StatusOK, SessionResponse{KeyedIn: keyedIn})
}

// handleKeyOut handles POST /session/keyout.
func (s *Server) handleKeyOut(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, KeyOutResponse{KeyedOut: s.session.KeyOut()})
}

// handleLog handles GET /log?limit=N&dialog=name.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		s.writeError(w, http.StatusServiceUnavailable, "dialog log is not enabled")
		return
	}

	filter := audit.Filter{Dialog: r.URL.Query().Get("dialog")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	entries, err := s.log.Recent(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to read dialog log", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read dialog log")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	respondJSON(w, http.StatusOK, LogResponse{Entries: entries})
}

func (s *Server) writeNotFound(w http.ResponseWriter, name string) {
	resp := ErrorResponse{Error: "unknown dialog " + strconv.Quote(name)}
	if suggestion, ok := s.dialogs.Suggest(name); ok {
		resp.Suggestion = suggestion
	}
	respondJSON(w, http.StatusNotFound, resp)
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

