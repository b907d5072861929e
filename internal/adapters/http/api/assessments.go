package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/talentcheck/internal/adapters/repository"
	service "github.com/okian/talentcheck/internal/app"
	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/internal/pipeline"
	"github.com/okian/talentcheck/pkg/logger"
)

// AssessmentsHandler serves submission and verdict routes.
type AssessmentsHandler struct {
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps Dependencies, l logger.Logger) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps, logger: l, now: time.Now}
}

type submitResponse struct {
	Status       string `json:"status"`
	RunID        string `json:"run_id,omitempty"`
	AssessmentID string `json:"assessment_id"`
	Duplicate    bool   `json:"duplicate"`
}

type batchRequest struct {
	Submissions []model.Submission `json:"submissions"`
}

type batchItemResponse struct {
	Index        int                `json:"index"`
	AssessmentID string             `json:"assessment_id"`
	Status       string             `json:"status"`
	Result       *assessment.Result `json:"result,omitempty"`
	Error        string             `json:"error,omitempty"`
}

type batchResponse struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Items     []batchItemResponse `json:"items"`
}

// normalize fills fields a client may leave out.
func (h *AssessmentsHandler) normalize(sub *model.Submission) {
	if strings.TrimSpace(sub.Record.AthleteID) == "" {
		sub.Record.AthleteID = sub.Athlete.ID
	}
	if sub.Record.SubmittedAt.IsZero() {
		sub.Record.SubmittedAt = h.now().UTC()
	}
}

// HandleSubmit handles POST /assessments requests.
func (h *AssessmentsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_assessment"
	var sub model.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	h.normalize(&sub)

	runID, err := h.deps.Submit(r.Context(), sub)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, submitResponse{Status: "accepted", RunID: runID, AssessmentID: sub.Record.ID})
	case errors.Is(err, service.ErrDuplicate):
		writeJSON(w, http.StatusOK, submitResponse{Status: "duplicate", AssessmentID: sub.Record.ID, Duplicate: true})
	case errors.Is(err, pipeline.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, nil))
	default:
		h.serverError(w, r, op, err)
	}
}

// HandleBatch handles POST /assessments/batch requests. The call blocks
// until every submission has been processed.
func (h *AssessmentsHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_batch"
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	switch n := len(req.Submissions); {
	case n == 0:
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, errors.New("no submissions")))
		return
	case n > maxBatchSize:
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, fmt.Errorf("batch of %d exceeds the limit of %d", n, maxBatchSize)))
		return
	}
	for i := range req.Submissions {
		h.normalize(&req.Submissions[i])
	}

	items, err := h.deps.ProcessBatch(r.Context(), req.Submissions)
	if err != nil {
		h.serverError(w, r, op, err)
		return
	}

	resp := batchResponse{Total: len(items), Items: make([]batchItemResponse, 0, len(items))}
	for _, it := range items {
		out := batchItemResponse{
			Index:        it.Index,
			AssessmentID: req.Submissions[it.Index].Record.ID,
			Status:       "ok",
		}
		if it.Result.RunID != "" {
			res := it.Result
			out.Result = &res
		}
		if it.Err != nil {
			out.Status = "failed"
			out.Error = it.Err.Error()
		} else {
			resp.Succeeded++
		}
		resp.Items = append(resp.Items, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleVerdict handles GET /assessments/{id} requests.
func (h *AssessmentsHandler) HandleVerdict(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_verdict"
	id := r.PathValue("id")
	res, err := h.deps.Verdict(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("assessment %q not found", id))
	default:
		h.serverError(w, r, op, err)
	}
}

// HandleProgress handles GET /assessments/{id}/progress requests.
func (h *AssessmentsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, ok := h.deps.Progress(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("no progress for assessment %q", id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AssessmentsHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, service.ErrNotStarted) {
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrapKind(op, ErrUnavailable, nil))
		return
	}
	h.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", nil)
}
