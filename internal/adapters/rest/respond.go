package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/core/services"
	"github.com/dullmace/faux-must-see/internal/worker"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service and adapter errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("request_id", r.Header.Get(requestIDHeader)).Str("path", r.URL.Path).Msg("request failed")
		if code == "internal" {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, services.ErrActNotFound):
		return http.StatusNotFound, "act_not_found"
	case errors.Is(err, services.ErrRankingInProgress):
		return http.StatusConflict, "ranking_in_progress"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, services.ErrNoResults):
		return http.StatusConflict, "no_results"
	case errors.Is(err, services.ErrStateMismatch):
		return http.StatusBadRequest, "state_mismatch"
	case errors.Is(err, domain.ErrInvalidTimeRange):
		return http.StatusBadRequest, "invalid_time_range"
	case errors.Is(err, ports.ErrMissingCredentials):
		return http.StatusInternalServerError, "server_configuration"
	case errors.Is(err, services.ErrAuthFailed), ports.IsUnauthorized(err):
		return http.StatusUnauthorized, "auth_failed"
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
		return http.StatusServiceUnavailable, "busy"
	case errors.Is(err, ports.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	}
	var ue *ports.UpstreamError
	if errors.As(err, &ue) {
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal"
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("timerange", func(fl validator.FieldLevel) bool {
		return domain.TimeRange(fl.Field().String()).Valid()
	})
	return v
}

// decode reads a JSON body into dst and validates it. An empty body decodes
// to the zero value before validation.
func (h *Handler) decode(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
			}
			return fmt.Errorf("invalid request: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
