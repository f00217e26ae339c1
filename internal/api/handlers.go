package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/adveralabs/adpilot/internal/allocator"
	"github.com/adveralabs/adpilot/internal/audit"
	"github.com/adveralabs/adpilot/internal/optimizer"
	"github.com/adveralabs/adpilot/internal/pkg/httputil"
	"github.com/adveralabs/adpilot/internal/signals"
)

// ReportLister reads persisted cycle reports. Optional; endpoints answer 404
// when no store is configured.
type ReportLister interface {
	ListReports(ctx context.Context, accountID string, limit int) ([]optimizer.CycleReport, error)
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	engine  *optimizer.Engine
	reports ReportLister
	version string
}

// NewHandlers creates the handler set.
func NewHandlers(engine *optimizer.Engine) *Handlers {
	return &Handlers{engine: engine, version: "1.0.0"}
}

// WithReports enables the cycle-report history endpoint.
func (h *Handlers) WithReports(store ReportLister) { h.reports = store }

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status":  "healthy",
		"service": "adpilot",
		"version": h.version,
	})
}

// AllocateBudget runs one allocation pass over caller-supplied arms without
// touching any platform.
func (h *Handlers) AllocateBudget(w http.ResponseWriter, r *http.Request) {
	var req allocator.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	for _, arm := range req.Arms {
		if err := arm.Validate(); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	}

	resp, err := h.engine.Allocator().Allocate(req)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, resp)
}

// OptimizeOnce runs a full optimization cycle: fetch, allocate, apply.
func (h *Handlers) OptimizeOnce(w http.ResponseWriter, r *http.Request) {
	var req optimizer.CycleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	report, err := h.engine.RunCycle(r.Context(), req)
	if errors.Is(err, optimizer.ErrAccountBusy) {
		httputil.Error(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, report)
}

// FetchArms pulls normalized arms from the configured platforms without
// allocating.
func (h *Handlers) FetchArms(w http.ResponseWriter, r *http.Request) {
	var req optimizer.CycleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	arms, err := h.engine.FetchArms(r.Context(), req)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, map[string]any{"arms": arms, "count": len(arms)})
}

// AuditROI runs the tracking and configuration audit over supplied arms.
func (h *Handlers) AuditROI(w http.ResponseWriter, r *http.Request) {
	var req audit.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	httputil.OK(w, audit.Run(req))
}

// GenerateSignals classifies business events into platform conversion
// signals.
func (h *Handlers) GenerateSignals(w http.ResponseWriter, r *http.Request) {
	var req signals.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	httputil.OK(w, signals.Generate(req))
}

// Performances exposes the allocator's learned per-arm state.
func (h *Handlers) Performances(w http.ResponseWriter, r *http.Request) {
	perfs := h.engine.Allocator().Performances()
	httputil.OK(w, map[string]any{"performances": perfs, "count": len(perfs)})
}

// ResetPerformance clears the allocator's learned state.
func (h *Handlers) ResetPerformance(w http.ResponseWriter, r *http.Request) {
	h.engine.Allocator().ResetPerformance()
	httputil.OK(w, map[string]string{"status": "reset"})
}

// ListReports returns persisted cycle reports for an account, newest first.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		httputil.NotFound(w, "cycle report history is not configured")
		return
	}
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		httputil.BadRequest(w, "account_id is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := h.reports.ListReports(r.Context(), accountID, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"reports": reports, "count": len(reports)})
}
