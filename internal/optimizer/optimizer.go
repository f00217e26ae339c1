// Package optimizer runs the budget optimization cycle: fetch insights from
// every configured platform, allocate the daily budget across the combined
// arm set, and push the new budgets back. A cycle is never aborted by a
// single-arm or single-platform failure; the report carries per-arm outcomes.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/adveralabs/adpilot/internal/allocator"
	"github.com/adveralabs/adpilot/internal/domain"
	"github.com/adveralabs/adpilot/internal/oracle"
	"github.com/adveralabs/adpilot/internal/pkg/acctlock"
	"github.com/adveralabs/adpilot/internal/pkg/logger"
	"github.com/adveralabs/adpilot/internal/platform"
)

// ErrAccountBusy is returned when a cycle for the account is already
// running. Callers retry on their own cadence; requests are not queued.
var ErrAccountBusy = errors.New("optimizer: cycle already running for account")

// CycleStatus summarizes how a cycle ended.
type CycleStatus string

const (
	StatusSuccess   CycleStatus = "success"
	StatusPartial   CycleStatus = "partial"
	StatusNoData    CycleStatus = "no_data"
	StatusCancelled CycleStatus = "cancelled"
)

// Per-arm apply outcomes.
const (
	ApplySuccess = "success"
	ApplyPending = "pending"
	ApplyError   = "error"
)

// CycleRequest describes one optimization cycle for one account.
type CycleRequest struct {
	AccountID        string            `json:"account_id"`
	TotalBudget      float64           `json:"total_budget"`
	SocialAccountRef string            `json:"social_account_ref,omitempty"`
	SearchAccountRef string            `json:"search_account_ref,omitempty"`
	Window           domain.TimeWindow `json:"time_window"`
	Level            domain.Level      `json:"level,omitempty"`
	Goal             domain.Goal       `json:"optimization_goal"`
	Strategy         domain.Strategy   `json:"strategy"`
	MinConversions   int               `json:"min_conversions,omitempty"`
	MaxChangeRatio   float64           `json:"max_change_ratio,omitempty"`
}

// ApplyResult is the outcome of one budget write.
type ApplyResult struct {
	ArmID     string          `json:"arm_id"`
	Platform  domain.Platform `json:"platform"`
	NewBudget float64         `json:"new_budget"`
	Outcome   string          `json:"outcome"`
	Error     string          `json:"error,omitempty"`
}

// CycleReport is the structured result of one cycle.
type CycleReport struct {
	ID            string                 `json:"id"`
	AccountID     string                 `json:"account_id"`
	Status        CycleStatus            `json:"status"`
	ArmsProcessed int                    `json:"arms_processed"`
	Allocations   []allocator.Allocation `json:"allocations,omitempty"`
	ApplyResults  []ApplyResult          `json:"apply_results,omitempty"`
	Updated       int                    `json:"updated"`
	Failed        int                    `json:"failed"`
	Pending       int                    `json:"pending"`
	Timestamp     time.Time              `json:"timestamp"`
}

// ReportStore persists cycle reports for later inspection. Optional.
type ReportStore interface {
	SaveReport(ctx context.Context, report *CycleReport) error
}

// Engine wires adapters, the allocator, the optional oracle, and the
// per-account lock registry into the cycle loop.
type Engine struct {
	adapters map[domain.Platform]platform.Adapter
	alloc    *allocator.Allocator
	oracle   oracle.Oracle
	locks    acctlock.Registry
	store    ReportStore
}

// New creates an Engine. Adapters are keyed by their platform; passing two
// adapters for the same platform keeps the last one.
func New(alloc *allocator.Allocator, locks acctlock.Registry, adapters ...platform.Adapter) *Engine {
	byPlatform := make(map[domain.Platform]platform.Adapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	return &Engine{
		adapters: byPlatform,
		alloc:    alloc,
		locks:    locks,
	}
}

// UseOracle enables the intelligent allocation path.
func (e *Engine) UseOracle(o oracle.Oracle) { e.oracle = o }

// UseStore enables cycle-report persistence.
func (e *Engine) UseStore(s ReportStore) { e.store = s }

// Allocator exposes the engine's allocator for inspection endpoints.
func (e *Engine) Allocator() *allocator.Allocator { return e.alloc }

// RunCycle executes one optimization cycle. It holds the account's lease for
// the duration; a concurrent cycle for the same account gets ErrAccountBusy.
func (e *Engine) RunCycle(ctx context.Context, req CycleRequest) (*CycleReport, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("optimizer: missing account_id")
	}
	if req.TotalBudget <= 0 {
		return nil, fmt.Errorf("optimizer: total_budget must be positive")
	}

	lease, ok, err := e.locks.TryAcquire(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("optimizer: acquiring account lease: %w", err)
	}
	if !ok {
		return nil, ErrAccountBusy
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("releasing account lease failed", "account_id", req.AccountID, "error", err.Error())
		}
	}()

	report := &CycleReport{
		ID:        uuid.NewString(),
		AccountID: req.AccountID,
		Timestamp: time.Now().UTC(),
	}

	arms := e.fetchArms(ctx, req)
	report.ArmsProcessed = len(arms)
	if len(arms) == 0 {
		report.Status = StatusNoData
		logger.Info("cycle finished with no data", "account_id", req.AccountID, "cycle_id", report.ID)
		return report, nil
	}

	allocation, err := e.allocate(ctx, req, arms)
	if err != nil {
		return nil, fmt.Errorf("optimizer: allocation failed: %w", err)
	}
	report.Allocations = allocation.Allocations

	report.ApplyResults = e.apply(ctx, allocation.Allocations)
	for _, r := range report.ApplyResults {
		switch r.Outcome {
		case ApplySuccess:
			report.Updated++
		case ApplyPending:
			report.Pending++
		default:
			report.Failed++
		}
	}

	switch {
	case ctx.Err() != nil:
		report.Status = StatusCancelled
	case report.Failed > 0 || report.Pending > 0:
		report.Status = StatusPartial
	default:
		report.Status = StatusSuccess
	}

	logger.Info("cycle finished",
		"account_id", req.AccountID,
		"cycle_id", report.ID,
		"status", string(report.Status),
		"arms", report.ArmsProcessed,
		"updated", report.Updated,
		"failed", report.Failed,
		"pending", report.Pending)

	if e.store != nil {
		if err := e.store.SaveReport(context.WithoutCancel(ctx), report); err != nil {
			logger.Warn("saving cycle report failed", "cycle_id", report.ID, "error", err.Error())
		}
	}
	return report, nil
}

// FetchArms pulls and normalizes insights from every configured platform
// without allocating or applying anything.
func (e *Engine) FetchArms(ctx context.Context, req CycleRequest) ([]domain.Arm, error) {
	if req.AccountID == "" {
		return nil, fmt.Errorf("optimizer: missing account_id")
	}
	return e.fetchArms(ctx, req), nil
}

// fetchArms fans out one fetch per configured adapter. Per-platform failures
// are logged and the cycle continues with whatever arms were collected.
func (e *Engine) fetchArms(ctx context.Context, req CycleRequest) []domain.Arm {
	level := req.Level
	if level == "" {
		level = domain.LevelCampaign
	}

	refs := map[domain.Platform]string{
		domain.PlatformSocial: req.SocialAccountRef,
		domain.PlatformSearch: req.SearchAccountRef,
	}

	var mu sync.Mutex
	var arms []domain.Arm

	g, gctx := errgroup.WithContext(ctx)
	for plat, adapter := range e.adapters {
		ref := refs[plat]
		if ref == "" {
			continue
		}
		adapter := adapter
		plat := plat
		g.Go(func() error {
			fetched, err := adapter.FetchInsights(gctx, ref, req.Window, level)
			if err != nil {
				logger.Warn("insights fetch failed",
					"platform", string(plat),
					"account_ref", ref,
					"kind", string(platform.KindOf(err)),
					"error", err.Error())
				return nil
			}
			mu.Lock()
			arms = append(arms, fetched...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return arms
}

// allocate runs the requested strategy. The intelligent path consults the
// oracle and falls back to the deterministic proportional allocation when
// the oracle is unavailable or its answer cannot be validated.
func (e *Engine) allocate(ctx context.Context, req CycleRequest, arms []domain.Arm) (*allocator.Response, error) {
	allocReq := allocator.Request{
		Arms:           arms,
		TotalBudget:    req.TotalBudget,
		MinConversions: req.MinConversions,
		MaxChangeRatio: req.MaxChangeRatio,
		Goal:           req.Goal,
		Strategy:       req.Strategy,
	}

	if req.Strategy == domain.StrategyIntelligent {
		if e.oracle != nil {
			resp, err := e.oracle.Allocate(ctx, allocReq)
			if err == nil {
				return resp, nil
			}
			logger.Warn("oracle allocation failed, falling back to proportional",
				"account_id", req.AccountID, "error", err.Error())
		}
		allocReq.Strategy = domain.StrategyProportional
	}
	return e.alloc.Allocate(allocReq)
}

// apply fans out one budget write per allocation and collects per-arm
// outcomes. Results keep the allocation order.
func (e *Engine) apply(ctx context.Context, allocations []allocator.Allocation) []ApplyResult {
	results := make([]ApplyResult, len(allocations))

	g, gctx := errgroup.WithContext(ctx)
	for i, alloc := range allocations {
		i, alloc := i, alloc
		results[i] = ApplyResult{
			ArmID:     alloc.ArmID,
			Platform:  alloc.Platform,
			NewBudget: alloc.NewBudget,
		}
		adapter, ok := e.adapters[alloc.Platform]
		if !ok {
			results[i].Outcome = ApplyError
			results[i].Error = fmt.Sprintf("no adapter configured for platform %s", alloc.Platform)
			continue
		}
		g.Go(func() error {
			err := adapter.UpdateBudget(gctx, alloc.ArmID, alloc.NewBudget)
			switch {
			case err == nil:
				results[i].Outcome = ApplySuccess
			case platform.IsPending(err):
				results[i].Outcome = ApplyPending
				results[i].Error = err.Error()
			default:
				results[i].Outcome = ApplyError
				results[i].Error = err.Error()
				logger.Warn("budget apply failed",
					"arm_id", alloc.ArmID,
					"platform", string(alloc.Platform),
					"kind", string(platform.KindOf(err)),
					"error", err.Error())
			}
			return nil
		})
	}
	g.Wait()
	return results
}
