package allocator

import (
	"math"

	"github.com/adveralabs/adpilot/internal/domain"
	"github.com/adveralabs/adpilot/internal/scoring"
)

// Learning-state constants: EMA learning rate and the z value for the 95%
// confidence interval.
const (
	learningRate = 0.1
	zScore95     = 1.96
)

// ArmPerformance is the bandit learning state for one arm. It lives only in
// process memory; ResetPerformance clears it.
type ArmPerformance struct {
	ArmID              string          `json:"arm_id"`
	Platform           domain.Platform `json:"platform"`
	MeanReward         float64         `json:"mean_reward"`
	Variance           float64         `json:"variance"`
	Pulls              int             `json:"pulls"`
	ConfidenceInterval float64         `json:"confidence_interval"`
}

// StandardError is sqrt(variance/pulls), +Inf for an arm never pulled.
func (p ArmPerformance) StandardError() float64 {
	if p.Pulls == 0 {
		return math.Inf(1)
	}
	if p.Variance <= 0 {
		return 0
	}
	return math.Sqrt(p.Variance / float64(p.Pulls))
}

// UpdatePerformance folds one observed reward into the arm's learning state
// and returns a copy of the updated record. New arms are seeded with the
// observation itself; existing arms move by an exponential moving average
// with an incremental variance update.
func (al *Allocator) UpdatePerformance(arm domain.Arm, goal domain.Goal) ArmPerformance {
	reward := scoring.Reward(arm, goal)

	al.mu.Lock()
	defer al.mu.Unlock()

	perf, ok := al.perf[arm.ID]
	if !ok {
		perf = &ArmPerformance{
			ArmID:      arm.ID,
			Platform:   arm.Platform,
			MeanReward: reward,
			Pulls:      1,
		}
		al.perf[arm.ID] = perf
		return *perf
	}

	oldMean := perf.MeanReward
	newMean := oldMean + learningRate*(reward-oldMean)
	if perf.Pulls > 1 {
		perf.Variance = (perf.Variance*float64(perf.Pulls-1) + (reward-oldMean)*(reward-newMean)) / float64(perf.Pulls)
	}
	perf.MeanReward = newMean
	perf.Pulls++
	if perf.Pulls > 1 {
		perf.ConfidenceInterval = zScore95 * perf.StandardError()
	}
	return *perf
}

// Performance returns a copy of the learning state for one arm.
func (al *Allocator) Performance(armID string) (ArmPerformance, bool) {
	al.mu.RLock()
	defer al.mu.RUnlock()
	perf, ok := al.perf[armID]
	if !ok {
		return ArmPerformance{}, false
	}
	return *perf, true
}

// Performances returns a snapshot of all learning state, for inspection
// endpoints.
func (al *Allocator) Performances() []ArmPerformance {
	al.mu.RLock()
	defer al.mu.RUnlock()
	out := make([]ArmPerformance, 0, len(al.perf))
	for _, p := range al.perf {
		out = append(out, *p)
	}
	return out
}

// ResetPerformance discards all learning state. Operators call this after
// restructuring an account or to bound memory when arm cardinality grows
// without limit.
func (al *Allocator) ResetPerformance() {
	al.mu.Lock()
	defer al.mu.Unlock()
	al.perf = make(map[string]*ArmPerformance)
}

// updateAll refreshes learning state for every arm in a cycle and returns
// the updated records keyed by arm id.
func (al *Allocator) updateAll(arms []domain.Arm, goal domain.Goal) map[string]ArmPerformance {
	out := make(map[string]ArmPerformance, len(arms))
	for _, arm := range arms {
		out[arm.ID] = al.UpdatePerformance(arm, goal)
	}
	return out
}
