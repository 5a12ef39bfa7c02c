package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/streaks/internal/constants"
	apperrors "github.com/julianstephens/streaks/internal/errors"
	"github.com/julianstephens/streaks/internal/stats"
	"github.com/julianstephens/streaks/internal/tracker"
)

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	Service  *tracker.Service
	GridRows int
	log      *log.Logger
}

func NewHandler(svc *tracker.Service, gridRows int, l *log.Logger) *Handler {
	if gridRows < 1 {
		gridRows = constants.DefaultGridRows
	}
	return &Handler{Service: svc, GridRows: gridRows, log: l}
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.Service.Goals(r.Context())
	if err != nil {
		h.fail(w, "Failed to list goals", err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, "Invalid goal", err)
		return
	}

	id, err := h.Service.AddGoal(r.Context(), in)
	if err != nil {
		h.fail(w, "Failed to create goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get goal", err)
		return
	}
	writeJSON(w, http.StatusOK, detail.Goal)
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req UpdateGoalRequest
	if !decode(w, r, &req) {
		return
	}
	changes, err := req.changes()
	if err != nil {
		h.fail(w, "Invalid goal update", err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Service.UpdateGoal(r.Context(), id, changes); err != nil {
		h.fail(w, "Failed to update goal", err)
		return
	}

	detail, err := h.Service.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get goal", err)
		return
	}
	writeJSON(w, http.StatusOK, detail.Goal)
}

// DeleteGoal is idempotent: deleting an unknown goal is a 204 as well.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.Events(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to list events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// AddEvent answers 201 when the event was stored and 200 when the
// daily-frequency guard skipped it.
func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var req AddEventRequest
	if !decode(w, r, &req) {
		return
	}

	ev, recorded, err := h.Service.AddEvent(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		h.fail(w, "Failed to add event", err)
		return
	}
	if !recorded {
		writeJSON(w, http.StatusOK, AddEventResponse{Recorded: false})
		return
	}
	writeJSON(w, http.StatusCreated, AddEventResponse{Recorded: true, Event: &ev})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	points, err := intParam(r, "points", 0)
	if err != nil {
		h.fail(w, "Invalid query", err)
		return
	}

	detail, err := h.Service.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get stats", err)
		return
	}

	now := h.Service.Now()
	agg := stats.Compute(detail.Events, now)
	writeJSON(w, http.StatusOK, StatsResponse{
		Aggregates:        agg,
		Benchmark:         detail.Goal.Benchmark,
		BenchmarkProgress: stats.BenchmarkProgress(agg.NetScore, detail.Goal.Benchmark),
		Week:              stats.Week(detail.Events, now),
		Progress:          stats.Progress(detail.Events, points),
	})
}

func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	rows, err := intParam(r, "rows", h.GridRows)
	if err != nil {
		h.fail(w, "Invalid query", err)
		return
	}
	if rows < 1 || rows > constants.MaxGridRows {
		h.fail(w, "Invalid query", apperrors.NewValidation("rows", fmt.Sprintf("must be between 1 and %d", constants.MaxGridRows)))
		return
	}

	detail, err := h.Service.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to build grid", err)
		return
	}
	writeJSON(w, http.StatusOK, stats.BuildGrid(detail.Goal.CreatedAt, detail.Events, rows, h.Service.Now()))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidation(name, "must be an integer")
	}
	return n, nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// fail maps domain errors to a status code.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(message, "err", err)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
