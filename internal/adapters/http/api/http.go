// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/talentcheck/internal/adapters/consent"
	"github.com/okian/talentcheck/internal/adapters/progress"
	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/internal/pipeline"
	"github.com/okian/talentcheck/pkg/logger"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service.
type Dependencies interface {
	// Submit queues an assessment and returns its run id.
	Submit(ctx context.Context, sub model.Submission) (string, error)
	ProcessBatch(ctx context.Context, subs []model.Submission) ([]pipeline.BatchItem, error)

	Verdict(ctx context.Context, assessmentID string) (assessment.Result, error)
	History(ctx context.Context, athleteID string) ([]assessment.Result, error)
	Progress(ctx context.Context, assessmentID string) (progress.Progress, bool)

	SetConsent(ctx context.Context, athleteID string, granted bool) (consent.Grant, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	assessmentsHandler *AssessmentsHandler
	athletesHandler    *AthletesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, l logger.Logger) *Server {
	if l == nil {
		l = logger.Nop()
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		assessmentsHandler: NewAssessmentsHandler(deps, l),
		athletesHandler:    NewAthletesHandler(deps, l),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	a := s.assessmentsHandler
	mux.HandleFunc("POST /assessments", MetricsMiddleware(a.HandleSubmit, "assessments"))
	mux.HandleFunc("POST /assessments/batch", MetricsMiddleware(a.HandleBatch, "assessments_batch"))
	mux.HandleFunc("GET /assessments/{id}", MetricsMiddleware(a.HandleVerdict, "assessment"))
	mux.HandleFunc("GET /assessments/{id}/progress", MetricsMiddleware(a.HandleProgress, "assessment_progress"))

	mux.HandleFunc("GET /athletes/{id}/assessments", MetricsMiddleware(s.athletesHandler.HandleHistory, "athlete_history"))
	mux.HandleFunc("PUT /athletes/{id}/consent", MetricsMiddleware(s.athletesHandler.HandleConsent, "athlete_consent"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads one JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("decode body: trailing data")
	}
	return nil
}
