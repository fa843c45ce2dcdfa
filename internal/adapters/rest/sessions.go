package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/services"
)

// sessionView is the JSON form of a session snapshot.
type sessionView struct {
	ID        string              `json:"id"`
	State     domain.SessionState `json:"state"`
	TimeRange domain.TimeRange    `json:"timeRange,omitempty"`
	Error     string              `json:"error,omitempty"`
	Result    *rankingView        `json:"result,omitempty"`
}

func newSessionView(s services.Snapshot) sessionView {
	v := sessionView{ID: s.ID, State: s.State, TimeRange: s.TimeRange, Error: s.Error}
	if s.Result != nil {
		rv := newRankingView(*s.Result)
		v.Result = &rv
	}
	return v
}

type callbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
	// Error is the provider's error parameter, e.g. "access_denied".
	Error string `json:"error"`
}

type selectTimeRangeRequest struct {
	TimeRange string `json:"timeRange" validate:"required,timerange"`
}

// StartSession handles POST /sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, newSessionView(h.deps.Sessions.Start()))
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Sessions.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(snap))
}

// EndSession handles DELETE /sessions/{id}
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sessions.End(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Login handles POST /sessions/{id}/login and returns the consent URL.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.deps.Sessions.BeginAuth(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": authURL})
}

// Callback handles POST /sessions/{id}/callback
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req callbackRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	var err error
	if req.Error != "" {
		err = h.deps.Sessions.FailAuth(id, req.Error)
	} else {
		err = h.deps.Sessions.CompleteAuth(r.Context(), id, req.Code, req.State)
	}
	if errors.Is(err, services.ErrSessionNotFound) {
		h.writeError(w, r, err)
		return
	}
	if err != nil {
		logAuthFailure(h, r, id, err)
	}

	// failures are reported through the session's error code
	h.respondSnapshot(w, r, id, http.StatusOK)
}

// SelectTimeRange handles POST /sessions/{id}/rank. Ranking runs in the
// background; clients poll GET /sessions/{id}.
func (h *Handler) SelectTimeRange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req selectTimeRangeRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if err := h.deps.Sessions.SelectTimeRange(id, domain.TimeRange(req.TimeRange)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondSnapshot(w, r, id, http.StatusAccepted)
}

// ChangeTimeRange handles POST /sessions/{id}/time-range
func (h *Handler) ChangeTimeRange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Sessions.ChangeTimeRange(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondSnapshot(w, r, id, http.StatusOK)
}

// Restart handles POST /sessions/{id}/restart
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Sessions.Restart(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondSnapshot(w, r, id, http.StatusOK)
}

// Share handles GET /sessions/{id}/share?act=
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	text, err := h.deps.Sessions.ShareText(chi.URLParam(r, "id"), r.URL.Query().Get("act"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) respondSnapshot(w http.ResponseWriter, r *http.Request, id string, status int) {
	snap, err := h.deps.Sessions.Snapshot(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, newSessionView(snap))
}

func logAuthFailure(h *Handler, r *http.Request, id string, err error) {
	h.logger.Info().
		Err(err).
		Str("session_id", id).
		Str("request_id", r.Header.Get(requestIDHeader)).
		Msg("sign-in did not complete")
}
