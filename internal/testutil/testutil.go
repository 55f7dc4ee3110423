// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common numeric test helpers to reduce code
// duplication across test files.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks that got is within tol of want.
func AssertInDelta(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("value = %v, want %v ± %v", got, want, tol)
	}
}

// AssertProbabilityVector checks the simplex invariant: all entries
// non-negative and summing to 1 within tol.
func AssertProbabilityVector(t *testing.T, v []float64, tol float64) {
	t.Helper()
	sum := 0.0
	for i, p := range v {
		if p < 0 || math.IsNaN(p) {
			t.Errorf("entry %d = %v, want non-negative", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > tol {
		t.Errorf("vector sums to %v, want 1 ± %v", sum, tol)
	}
}
