package rest

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dullmace/faux-must-see/internal/core/services"
)

type createPlaylistRequest struct {
	Act string `json:"act" validate:"required"`
}

// CreatePlaylist handles POST /sessions/{id}/playlist
func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// 1. Decode Request
	var req createPlaylistRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	// 2. Resolve the act against the session's results
	result, err := h.deps.Sessions.Result(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sc, ok := result.Find(req.Act)
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: %q", services.ErrActNotFound, req.Act))
		return
	}
	token, err := h.deps.Sessions.Token(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// 3. Call Service
	playlist, err := h.deps.Curator.CreateForAct(r.Context(), token, sc)
	if err != nil && playlist.ID == "" {
		h.writeError(w, r, err)
		return
	}
	if err != nil {
		// created but not filled; report the playlist with a warning
		h.logger.Warn().Err(err).Str("playlist_id", playlist.ID).Msg("playlist created without tracks")
	}

	// 4. Respond
	status := http.StatusCreated
	if playlist.Existing {
		status = http.StatusOK
	}
	writeJSON(w, status, playlist)
}
