// Package allocator distributes a fixed daily budget across arms. It offers
// four multi-armed bandit strategies (epsilon-greedy, UCB1, Thompson
// sampling, and an adaptive meta-policy that switches on data volume) plus a
// deterministic score-proportional fallback with change-ratio clamping.
//
// The only mutable state is the per-arm performance map, updated with an
// exponential moving average each cycle and guarded by a reader/writer lock
// so inspection endpoints can read it while cycles run.
package allocator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/adveralabs/adpilot/internal/domain"
)

// Request carries everything needed for one allocation pass.
type Request struct {
	Arms           []domain.Arm    `json:"arms"`
	TotalBudget    float64         `json:"total_budget"`
	MinConversions int             `json:"min_conversions"`
	// MaxChangeRatio caps per-arm budget moves on the proportional path.
	// Zero means unset and falls back to DefaultMaxChangeRatio; a true
	// freeze is not representable through this field.
	MaxChangeRatio float64 `json:"max_change_ratio"`
	Goal           domain.Goal     `json:"optimization_goal"`
	Strategy       domain.Strategy `json:"strategy"`

	// Epsilon overrides the epsilon-greedy exploration rate when > 0.
	Epsilon float64 `json:"epsilon,omitempty"`
	// Confidence overrides the UCB exploration constant when > 0.
	Confidence float64 `json:"confidence,omitempty"`
}

// Allocation is the budget decision for one arm.
type Allocation struct {
	ArmID            string          `json:"arm_id"`
	Platform         domain.Platform `json:"platform"`
	CurrentBudget    float64         `json:"current_budget"`
	NewBudget        float64         `json:"new_budget"`
	ChangePercentage float64         `json:"change_percentage"`
	Score            float64         `json:"score"`
	Reason           string          `json:"reason"`
}

// Response is the full allocation result.
type Response struct {
	Allocations         []Allocation      `json:"allocations"`
	TotalAllocated      float64           `json:"total_allocated"`
	ExpectedImprovement map[string]string `json:"expected_improvement,omitempty"`
	Recommendations     []string          `json:"recommendations,omitempty"`
}

// Defaults applied when a request leaves the knobs unset.
const (
	DefaultMinConversions = 10
	DefaultMaxChangeRatio = 0.3
	DefaultEpsilon        = 0.1
	DefaultUCBConfidence  = 2.0
)

// Allocator owns the bandit learning state. It is safe for concurrent use.
type Allocator struct {
	mu   sync.RWMutex
	perf map[string]*ArmPerformance

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an Allocator with a time-based random source.
func New() *Allocator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates an Allocator with a fixed random seed. Identical seeds
// and inputs produce identical allocations, which is what tests rely on.
func NewWithSeed(seed int64) *Allocator {
	return &Allocator{
		perf: make(map[string]*ArmPerformance),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Allocate dispatches to the strategy named in the request. The intelligent
// strategy is handled upstream by the oracle; when it reaches the allocator
// it resolves to the proportional fallback.
func (al *Allocator) Allocate(req Request) (*Response, error) {
	if len(req.Arms) == 0 {
		return nil, fmt.Errorf("allocator: no arms to allocate")
	}
	if req.TotalBudget <= 0 {
		return nil, fmt.Errorf("allocator: total budget must be positive, got %v", req.TotalBudget)
	}
	if req.MaxChangeRatio < 0 || req.MaxChangeRatio > 1 {
		return nil, fmt.Errorf("allocator: max change ratio %v out of [0,1]", req.MaxChangeRatio)
	}
	for _, arm := range req.Arms {
		if err := arm.Validate(); err != nil {
			return nil, fmt.Errorf("allocator: %w", err)
		}
	}
	if req.MinConversions == 0 {
		req.MinConversions = DefaultMinConversions
	}
	if req.MaxChangeRatio == 0 {
		req.MaxChangeRatio = DefaultMaxChangeRatio
	}
	if req.Goal == "" {
		req.Goal = domain.GoalROAS
	}

	switch req.Strategy {
	case domain.StrategyEpsilonGreedy, domain.StrategyUCB, domain.StrategyThompson, domain.StrategyAdaptive:
		budgets := al.allocateWithStrategy(req)
		return banditResponse(req, budgets), nil
	default:
		return al.Proportional(req), nil
	}
}

func (al *Allocator) allocateWithStrategy(req Request) map[string]float64 {
	switch req.Strategy {
	case domain.StrategyEpsilonGreedy:
		eps := req.Epsilon
		if eps <= 0 {
			eps = DefaultEpsilon
		}
		return al.epsilonGreedy(req.Arms, req.TotalBudget, eps, req.Goal)
	case domain.StrategyThompson:
		return al.thompson(req.Arms, req.TotalBudget, req.Goal)
	case domain.StrategyAdaptive:
		return al.adaptive(req.Arms, req.TotalBudget, req.Goal)
	default:
		conf := req.Confidence
		if conf <= 0 {
			conf = DefaultUCBConfidence
		}
		return al.ucb(req.Arms, req.TotalBudget, req.Goal, conf)
	}
}

// banditResponse maps a strategy's budget vector onto per-arm allocations.
// Bandit paths skip the change-ratio clamp; exploration needs full-budget
// jumps.
func banditResponse(req Request, budgets map[string]float64) *Response {
	allocations := make([]Allocation, 0, len(req.Arms))
	total := 0.0
	for _, arm := range req.Arms {
		newBudget := budgets[arm.ID]
		current := arm.CurrentBudget()
		changePct := 0.0
		if current > 0 {
			changePct = (newBudget - current) / current * 100
		}
		allocations = append(allocations, Allocation{
			ArmID:            arm.ID,
			Platform:         arm.Platform,
			CurrentBudget:    current,
			NewBudget:        newBudget,
			ChangePercentage: changePct,
			Reason:           fmt.Sprintf("allocated using %s strategy", req.Strategy),
		})
		total += newBudget
	}
	return &Response{
		Allocations:    allocations,
		TotalAllocated: total,
		ExpectedImprovement: map[string]string{
			"method":                string(req.Strategy),
			"estimated_improvement": "5-20%",
		},
		Recommendations: []string{
			fmt.Sprintf("using %s strategy for budget allocation", req.Strategy),
			"monitor performance for 3-5 days before the next optimization",
		},
	}
}

func (al *Allocator) randFloat() float64 {
	al.rngMu.Lock()
	defer al.rngMu.Unlock()
	return al.rng.Float64()
}

func (al *Allocator) randIntn(n int) int {
	al.rngMu.Lock()
	defer al.rngMu.Unlock()
	return al.rng.Intn(n)
}
