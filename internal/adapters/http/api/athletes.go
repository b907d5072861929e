package api

import (
	"errors"
	"net/http"

	"github.com/okian/talentcheck/internal/adapters/consent"
	service "github.com/okian/talentcheck/internal/app"
	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/pkg/logger"
)

// AthletesHandler serves per-athlete routes.
type AthletesHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAthletesHandler creates a new athletes handler.
func NewAthletesHandler(deps Dependencies, l logger.Logger) *AthletesHandler {
	return &AthletesHandler{deps: deps, logger: l}
}

type historyResponse struct {
	AthleteID string              `json:"athlete_id"`
	Count     int                 `json:"count"`
	Results   []assessment.Result `json:"results"`
}

type consentRequest struct {
	Granted *bool `json:"granted"`
}

// HandleHistory handles GET /athletes/{id}/assessments requests.
func (h *AthletesHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	id := r.PathValue("id")
	results, err := h.deps.History(r.Context(), id)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	if results == nil {
		results = []assessment.Result{}
	}
	writeJSON(w, http.StatusOK, historyResponse{AthleteID: id, Count: len(results), Results: results})
}

// HandleConsent handles PUT /athletes/{id}/consent requests.
func (h *AthletesHandler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_consent"
	var req consentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Granted == nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("missing granted")))
		return
	}
	grant, err := h.deps.SetConsent(r.Context(), r.PathValue("id"), *req.Granted)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, grant)
}

func (h *AthletesHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, consent.ErrInvalidAthlete):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrapKind(op, ErrUnavailable, nil))
	default:
		h.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
