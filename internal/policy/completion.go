package policy

import (
	"github.com/verithos/policyforge-backend/internal/types"
)

// CompletionPct returns round(100 * |completed| / StepCount). The stored
// column is always recomputed from the completed set, never trusted.
func CompletionPct(completed map[int]bool) int {
	n := 0
	for step, ok := range completed {
		if ok && step >= 1 && step <= types.StepCount {
			n++
		}
	}
	return (100*n + types.StepCount/2) / types.StepCount
}

// StatusFor derives the lifecycle status from the completed set. Published
// is an explicit user action layered on top of completed: it is preserved
// only while the policy remains complete, and is never reached by
// derivation alone.
func StatusFor(completed map[int]bool, current types.PolicyStatus) types.PolicyStatus {
	n := 0
	for step, ok := range completed {
		if ok && step >= 1 && step <= types.StepCount {
			n++
		}
	}
	switch {
	case n == 0:
		return types.PolicyStatusDraft
	case n < types.StepCount:
		return types.PolicyStatusInProgress
	default:
		if current == types.PolicyStatusPublished {
			return types.PolicyStatusPublished
		}
		return types.PolicyStatusCompleted
	}
}

// IsStepAccessible reports whether a step may be opened: step 1 always, and
// any step whose predecessor or itself is already completed. Completed steps
// stay editable; the wizard is accessible one step ahead of the furthest
// completed one.
func IsStepAccessible(completed map[int]bool, step int) bool {
	if step < 1 || step > types.StepCount {
		return false
	}
	if step == 1 {
		return true
	}
	return completed[step] || completed[step-1]
}

// AccessibleSteps returns the accessibility map for all steps.
func AccessibleSteps(completed map[int]bool) map[int]bool {
	out := make(map[int]bool, types.StepCount)
	for step := 1; step <= types.StepCount; step++ {
		out[step] = IsStepAccessible(completed, step)
	}
	return out
}

// Recompute refreshes the derived completion percentage and status on the
// aggregate from its completed set. It is called after every mutation,
// including ones that remove step data, so the status also moves downward
// consistently.
func Recompute(p *types.Policy) error {
	completed, err := p.CompletedSet()
	if err != nil {
		return err
	}
	p.CompletionPct = CompletionPct(completed)
	p.Status = StatusFor(completed, p.Status)
	return nil
}
