package rest

import (
	"errors"
	"net/http"
)

type exchangeRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// ExchangeCode handles POST /api/callback for clients that run the consent
// redirect themselves and only need the server to hold the client secret.
func (h *Handler) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := h.decode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Code == "" {
		badRequest(w, errors.New("authorization code is required"))
		return
	}
	if h.deps.Auth == nil || !h.deps.Auth.Configured() {
		h.logger.Error().Msg("oauth client credentials are not configured")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "server configuration error", Code: "server_configuration"})
		return
	}

	token, err := h.deps.Auth.Exchange(r.Context(), req.Code)
	if err != nil {
		h.logger.Warn().Err(err).Msg("token exchange failed")
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "token exchange failed", Code: "exchange_failed"})
		return
	}
	writeJSON(w, http.StatusOK, token)
}
