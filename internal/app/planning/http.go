// Package planning exposes planning runs and assignment queries over HTTP.
package planning

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
	"workshop-planner/internal/repository"
	"workshop-planner/internal/scheduler"
)

type Runner interface {
	Run(ctx context.Context, date time.Time, cleanFirst bool) (domain.PlanningResult, error)
}

type Store interface {
	ListByPlanDate(ctx context.Context, planDate time.Time) ([]domain.Assignment, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]domain.Assignment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AssignmentStatus) (domain.Assignment, error)
}

// Check is a readiness probe of one dependency.
type Check func(ctx context.Context) error

type Handler struct {
	runner     Runner
	store      Store
	checks     map[string]Check
	cleanFirst bool
	loc        *time.Location
	now        func() time.Time
	log        *logger.Logger
}

func NewHandler(runner Runner, store Store, cleanFirst bool, loc *time.Location, checks map[string]Check, lg *logger.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if lg == nil {
		lg = logger.Discard()
	}
	return &Handler{
		runner:     runner,
		store:      store,
		checks:     checks,
		cleanFirst: cleanFirst,
		loc:        loc,
		now:        time.Now,
		log:        lg,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/planning", h.RunPlanning)
		r.Get("/planning/{date}", h.GetPlan)
		r.Get("/employees/{id}/assignments", h.EmployeeAssignments)
		r.Patch("/assignments/{id}", h.UpdateAssignment)
	})
	return r
}

func (h *Handler) RunPlanning(w http.ResponseWriter, r *http.Request) {
	var req domain.RunPlanningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	date := h.now().In(h.loc)
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date, h.loc)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	clean := h.cleanFirst
	if req.CleanFirst != nil {
		clean = *req.CleanFirst
	}

	res, err := h.runner.Run(r.Context(), date, clean)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(chi.URLParam(r, "date"), h.loc)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
		return
	}
	as, err := h.store.ListByPlanDate(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan_date":   date.Format(domain.DateLayout),
		"count":       len(as),
		"assignments": nonNil(as),
	})
}

func (h *Handler) EmployeeAssignments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	today := domain.DateOf(h.now().In(h.loc))
	from, err := dateParam(r, "from", today, h.loc)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	to, err := dateParam(r, "to", from.AddDate(0, 0, 7), h.loc)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if to.Before(from) {
		writeProblem(w, http.StatusBadRequest, "bad_request", "to must not be before from")
		return
	}
	as, err := h.store.ListByEmployee(r.Context(), id, from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"employee_id": id,
		"from":        from.Format(domain.DateLayout),
		"to":          to.Format(domain.DateLayout),
		"assignments": nonNil(as),
	})
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "assignment id must be a UUID")
		return
	}
	var req domain.UpdateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	next, err := domain.ParseAssignmentStatus(req.Status)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a, err := h.store.UpdateStatus(r.Context(), id, next)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "dependencies": deps})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var inf *scheduler.InfeasibleError
	switch {
	case errors.As(err, &inf):
		writeProblem(w, http.StatusUnprocessableEntity, "infeasible", err.Error())
	case errors.Is(err, scheduler.ErrRunInProgress):
		writeProblem(w, http.StatusConflict, "run_in_progress", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, scheduler.ErrStorage):
		writeProblem(w, http.StatusInternalServerError, "storage_error", err.Error())
	default:
		h.log.Error("request_failed", err, nil)
		writeProblem(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Info("http_request", map[string]any{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

func dateParam(r *http.Request, key string, def time.Time, loc *time.Location) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	d, err := domain.ParseDate(v, loc)
	if err != nil {
		return time.Time{}, errors.New(key + " must be YYYY-MM-DD")
	}
	return d, nil
}

func nonNil(as []domain.Assignment) []domain.Assignment {
	if as == nil {
		return []domain.Assignment{}
	}
	return as
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem writes a simplified RFC 7807 body.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}
