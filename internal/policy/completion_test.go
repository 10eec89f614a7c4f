package policy

import (
	"testing"

	"github.com/verithos/policyforge-backend/internal/types"
)

func setOf(steps ...int) map[int]bool {
	out := map[int]bool{}
	for _, s := range steps {
		out[s] = true
	}
	return out
}

func TestCompletionPct(t *testing.T) {
	cases := []struct {
		steps []int
		want  int
	}{
		{nil, 0},
		{[]int{1}, 8},
		{[]int{1, 2, 3}, 25},
		{[]int{1, 2, 3, 4, 5, 6}, 50},
		{[]int{1, 2, 3, 4, 5, 6, 7}, 58},
		{[]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, 92},
		{[]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, 100},
	}
	for _, tc := range cases {
		if got := CompletionPct(setOf(tc.steps...)); got != tc.want {
			t.Fatalf("pct(%v) = %d, want %d", tc.steps, got, tc.want)
		}
	}
	// Out-of-range members never count.
	if got := CompletionPct(setOf(0, 13, 99)); got != 0 {
		t.Fatalf("out-of-range pct = %d, want 0", got)
	}
}

func TestCompletionMonotonicity(t *testing.T) {
	completed := map[int]bool{}
	last := 0
	for step := 1; step <= types.StepCount; step++ {
		completed[step] = true
		pct := CompletionPct(completed)
		if pct < last {
			t.Fatalf("pct decreased at step %d: %d < %d", step, pct, last)
		}
		last = pct
	}
	if last != 100 {
		t.Fatalf("final pct = %d, want 100", last)
	}
}

func TestStatusFor(t *testing.T) {
	if got := StatusFor(setOf(), types.PolicyStatusDraft); got != types.PolicyStatusDraft {
		t.Fatalf("empty set: %s", got)
	}
	if got := StatusFor(setOf(1), types.PolicyStatusDraft); got != types.PolicyStatusInProgress {
		t.Fatalf("one step: %s", got)
	}
	all := setOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	if got := StatusFor(all, types.PolicyStatusInProgress); got != types.PolicyStatusCompleted {
		t.Fatalf("all steps: %s", got)
	}
	// Published survives only while complete.
	if got := StatusFor(all, types.PolicyStatusPublished); got != types.PolicyStatusPublished {
		t.Fatalf("published complete: %s", got)
	}
	partial := setOf(1, 2, 3)
	if got := StatusFor(partial, types.PolicyStatusPublished); got != types.PolicyStatusInProgress {
		t.Fatalf("published demoted: %s", got)
	}
	// Published is never reached by derivation from completed/in-progress.
	if got := StatusFor(all, types.PolicyStatusCompleted); got != types.PolicyStatusCompleted {
		t.Fatalf("completed stays completed: %s", got)
	}
}

func TestIsStepAccessible(t *testing.T) {
	completed := setOf()
	if !IsStepAccessible(completed, 1) {
		t.Fatal("step 1 must always be accessible")
	}
	for step := 2; step <= types.StepCount; step++ {
		if IsStepAccessible(completed, step) {
			t.Fatalf("step %d accessible on empty policy", step)
		}
	}

	completed = setOf(1, 2, 3)
	for step := 1; step <= 4; step++ {
		if !IsStepAccessible(completed, step) {
			t.Fatalf("step %d should be accessible", step)
		}
	}
	if IsStepAccessible(completed, 5) {
		t.Fatal("step 5 should be locked one past the frontier")
	}

	// A completed step deep in the wizard stays editable even with gaps.
	completed = setOf(1, 7)
	if !IsStepAccessible(completed, 7) || !IsStepAccessible(completed, 8) {
		t.Fatal("completed step and its successor should be accessible")
	}
	if IsStepAccessible(completed, 6) {
		t.Fatal("step 6 has no completed neighbor behind it")
	}

	if IsStepAccessible(completed, 0) || IsStepAccessible(completed, 13) {
		t.Fatal("out-of-range steps are never accessible")
	}
}

func TestRecompute(t *testing.T) {
	p := &types.Policy{Status: types.PolicyStatusDraft}
	if err := p.SetCompleted(setOf(1, 2)); err != nil {
		t.Fatal(err)
	}
	if err := Recompute(p); err != nil {
		t.Fatal(err)
	}
	if p.CompletionPct != 17 || p.Status != types.PolicyStatusInProgress {
		t.Fatalf("after recompute: pct=%d status=%s", p.CompletionPct, p.Status)
	}

	if err := p.SetCompleted(setOf()); err != nil {
		t.Fatal(err)
	}
	if err := Recompute(p); err != nil {
		t.Fatal(err)
	}
	if p.CompletionPct != 0 || p.Status != types.PolicyStatusDraft {
		t.Fatalf("after clearing: pct=%d status=%s", p.CompletionPct, p.Status)
	}
}
