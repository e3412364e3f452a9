package pricing

import (
	"strings"
	"testing"
)

func testPolicy() DiscountPolicy {
	return DiscountPolicy{GradeA: {100, 90, 80, 70, 60, 50}}
}

func TestInterpolateRate_ClampsAtBoundaries(t *testing.T) {
	policy := testPolicy()

	for _, qty := range []int{-5, 0, 1} {
		if got := InterpolateRate(policy, GradeA, qty); got != 100 {
			t.Fatalf("InterpolateRate(qty=%d) = %v, want 100", qty, got)
		}
	}
	for _, qty := range []int{1000, 5000} {
		if got := InterpolateRate(policy, GradeA, qty); got != 50 {
			t.Fatalf("InterpolateRate(qty=%d) = %v, want 50", qty, got)
		}
	}
}

func TestInterpolateRate_Midpoints(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		qty  int
		want float64
	}{
		{10, 90},
		{30, 85},
		{50, 80},
		{75, 75},
		{300, 65},
		{750, 55},
		{2, 98.9},
		{11, 89.8},
	}

	for _, tt := range tests {
		if got := InterpolateRate(policy, GradeA, tt.qty); got != tt.want {
			t.Fatalf("InterpolateRate(qty=%d) = %v, want %v", tt.qty, got, tt.want)
		}
	}
}

func TestInterpolateRate_MissingGradeIsFullRate(t *testing.T) {
	if got := InterpolateRate(DiscountPolicy{}, GradeA, 10); got != 100 {
		t.Fatalf("empty policy rate = %v, want 100", got)
	}
	if got := InterpolateRate(nil, GradeC, 10); got != 100 {
		t.Fatalf("nil policy rate = %v, want 100", got)
	}
	if got := InterpolateRate(DiscountPolicy{GradeA: {}}, GradeA, 10); got != 100 {
		t.Fatalf("empty curve rate = %v, want 100", got)
	}
}

func TestInterpolateRate_ShortCurve(t *testing.T) {
	policy := DiscountPolicy{GradeB: {100, 80}}

	if got := InterpolateRate(policy, GradeB, 5000); got != 80 {
		t.Fatalf("beyond short curve = %v, want 80", got)
	}
	if got := InterpolateRate(policy, GradeB, 4); got != 93.3 {
		t.Fatalf("within short curve = %v, want 93.3", got)
	}
	if got := InterpolateRate(DiscountPolicy{GradeB: {88}}, GradeB, 40); got != 88 {
		t.Fatalf("single point curve = %v, want 88", got)
	}
}

func TestInterpolateRate_NonMonotonicCurveStillInterpolates(t *testing.T) {
	policy := DiscountPolicy{GradeA: {80, 100, 80, 70, 60, 50}}

	if got := InterpolateRate(policy, GradeA, 5); got != 88.9 {
		t.Fatalf("rising segment rate = %v, want 88.9", got)
	}
}

func TestDefaultDiscountPolicyIsValid(t *testing.T) {
	if err := DefaultDiscountPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	policy := DiscountPolicy{
		GradeA:               {100, 90, 95, 70, 60, 50},
		GradeB:               {100, 90},
		GradeC:               {100, 90, 80, 70, 60, -1},
		DifficultyGrade("X"): {100, 90, 80, 70, 60, 50},
	}

	err := policy.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"grade A: rate at qty 50 (95) exceeds rate at qty 10 (90)",
		"grade B: expected 6 rates, got 2",
		"grade C: rate at qty 1000 must be between 0 and 100",
		`grade "X": unknown difficulty grade`,
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got: %s", want, msg)
		}
	}
}

func TestParseDiscountPolicy(t *testing.T) {
	policy, err := ParseDiscountPolicy([]byte(`{"A":[100,90,80,70,60,50],"F":[100,100,99,98,97,96]}`))
	if err != nil {
		t.Fatalf("ParseDiscountPolicy: %v", err)
	}
	if got := InterpolateRate(policy, GradeA, 30); got != 85 {
		t.Fatalf("parsed policy rate = %v, want 85", got)
	}

	empty, err := ParseDiscountPolicy(nil)
	if err != nil {
		t.Fatalf("ParseDiscountPolicy(nil): %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty policy, got %+v", empty)
	}

	if _, err := ParseDiscountPolicy([]byte(`{"A":`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClone_DoesNotShareCurves(t *testing.T) {
	policy := DefaultDiscountPolicy()
	clone := policy.Clone()
	clone[GradeA][0] = 1

	if policy[GradeA][0] != 100 {
		t.Fatalf("clone mutated source policy")
	}
}
