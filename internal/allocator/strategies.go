package allocator

import (
	"math"

	"github.com/adveralabs/adpilot/internal/domain"
)

// thompsonRewardCap normalizes mean rewards into [0,1] for the Beta posterior.
// Rewards above the cap saturate.
const thompsonRewardCap = 10.0

// epsilonGreedy explores with probability epsilon by handing one uniformly
// chosen arm an equal slice, and otherwise gives the whole budget to the arm
// with the best mean reward.
func (al *Allocator) epsilonGreedy(arms []domain.Arm, totalBudget, epsilon float64, goal domain.Goal) map[string]float64 {
	performances := al.updateAll(arms, goal)

	if al.randFloat() < epsilon {
		selected := arms[al.randIntn(len(arms))]
		return map[string]float64{selected.ID: totalBudget / float64(len(arms))}
	}

	bestID := arms[0].ID
	bestMean := math.Inf(-1)
	for _, arm := range arms {
		if perf := performances[arm.ID]; perf.MeanReward > bestMean {
			bestMean = perf.MeanReward
			bestID = arm.ID
		}
	}
	return map[string]float64{bestID: totalBudget}
}

// ucb allocates proportionally to upper confidence bounds
// mean + c*sqrt(ln(N)/pulls). N is the sum of observed conversions across
// the input arms, standing in for historical plays. Arms never pulled score
// +Inf and split the budget equally among themselves.
func (al *Allocator) ucb(arms []domain.Arm, totalBudget float64, goal domain.Goal, confidence float64) map[string]float64 {
	totalPulls := 0
	for _, arm := range arms {
		totalPulls += arm.Conversions
	}
	if totalPulls == 0 {
		totalPulls = 1
	}

	performances := al.updateAll(arms, goal)

	scores := make(map[string]float64, len(arms))
	var coldArms []string
	for _, arm := range arms {
		perf := performances[arm.ID]
		if perf.Pulls == 0 {
			scores[arm.ID] = math.Inf(1)
			coldArms = append(coldArms, arm.ID)
			continue
		}
		bonus := confidence * math.Sqrt(math.Log(float64(totalPulls))/float64(perf.Pulls))
		scores[arm.ID] = perf.MeanReward + bonus
	}

	// Cold arms dominate every finite score: split the budget equally
	// between them and starve the rest for this cycle.
	if len(coldArms) > 0 {
		out := make(map[string]float64, len(coldArms))
		for _, id := range coldArms {
			out[id] = totalBudget / float64(len(coldArms))
		}
		return out
	}

	totalScore := 0.0
	for _, s := range scores {
		totalScore += s
	}
	if totalScore == 0 {
		return equalSplit(arms, totalBudget)
	}

	out := make(map[string]float64, len(arms))
	for _, arm := range arms {
		out[arm.ID] = totalBudget * scores[arm.ID] / totalScore
	}
	return out
}

// thompson samples each arm's posterior and allocates proportionally to the
// samples. The mean reward is normalized by thompsonRewardCap and treated as
// a Beta success rate.
func (al *Allocator) thompson(arms []domain.Arm, totalBudget float64, goal domain.Goal) map[string]float64 {
	performances := al.updateAll(arms, goal)

	samples := make(map[string]float64, len(arms))
	for _, arm := range arms {
		perf := performances[arm.ID]
		if perf.Pulls == 0 {
			samples[arm.ID] = al.randFloat()
			continue
		}
		rate := math.Min(perf.MeanReward/thompsonRewardCap, 1)
		if rate < 0 {
			rate = 0
		}
		successes := int(rate * float64(perf.Pulls))
		failures := perf.Pulls - successes
		samples[arm.ID] = al.sampleBeta(float64(successes+1), float64(failures+1))
	}

	totalSample := 0.0
	for _, s := range samples {
		totalSample += s
	}
	if totalSample == 0 {
		return equalSplit(arms, totalBudget)
	}

	out := make(map[string]float64, len(arms))
	for _, arm := range arms {
		out[arm.ID] = totalBudget * samples[arm.ID] / totalSample
	}
	return out
}

// adaptive switches strategy on data volume: sparse accounts explore hard
// with epsilon-greedy, mid-volume accounts use UCB, and data-rich accounts
// get Thompson sampling.
func (al *Allocator) adaptive(arms []domain.Arm, totalBudget float64, goal domain.Goal) map[string]float64 {
	totalConversions := 0
	for _, arm := range arms {
		totalConversions += arm.Conversions
	}
	avg := float64(totalConversions) / float64(len(arms))

	switch {
	case avg < 10:
		return al.epsilonGreedy(arms, totalBudget, 0.3, goal)
	case avg < 50:
		return al.ucb(arms, totalBudget, goal, DefaultUCBConfidence)
	default:
		return al.thompson(arms, totalBudget, goal)
	}
}

func equalSplit(arms []domain.Arm, totalBudget float64) map[string]float64 {
	out := make(map[string]float64, len(arms))
	per := totalBudget / float64(len(arms))
	for _, arm := range arms {
		out[arm.ID] = per
	}
	return out
}

// sampleBeta draws from Beta(a, b) as Ga/(Ga+Gb) with gamma variates.
// Both shapes are >= 1 here (posterior counts plus one).
func (al *Allocator) sampleBeta(a, b float64) float64 {
	x := al.sampleGamma(a)
	y := al.sampleGamma(b)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) using Marsaglia-Tsang squeeze
// rejection, valid for shape >= 1.
func (al *Allocator) sampleGamma(shape float64) float64 {
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = al.randNorm()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := al.randFloat()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

func (al *Allocator) randNorm() float64 {
	al.rngMu.Lock()
	defer al.rngMu.Unlock()
	return al.rng.NormFloat64()
}
