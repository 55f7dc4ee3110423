// Package propensity turns dihedral samples into conformational state
// propensities. Each sample yields a Bayesian posterior over the states
// (per-state density times the state's training prior, normalized), a
// subsample aggregates per-sample posteriors into one propensity vector on
// the simplex, and a variability score measures how much the per-sample
// posteriors disagree within the subsample.
package propensity

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/constava/internal/csmodel"
	"github.com/banshee-data/constava/internal/ensemble"
)

// Engine evaluates propensities against one shared read-only model. It is
// safe for concurrent use.
type Engine struct {
	model csmodel.Model

	// fallbacks counts queries where every state density underflowed to
	// zero and the uniform distribution was substituted. Never an error;
	// surfaced at debug verbosity by the caller.
	fallbacks atomic.Int64
}

// NewEngine wraps a fitted model.
func NewEngine(model csmodel.Model) *Engine {
	return &Engine{model: model}
}

// Model returns the wrapped model.
func (e *Engine) Model() csmodel.Model { return e.model }

// Fallbacks reports how many degenerate-density fallbacks occurred so far.
func (e *Engine) Fallbacks() int64 { return e.fallbacks.Load() }

// Sample computes the posterior state propensities for a single (phi, psi)
// observation. The result is non-negative and sums to 1. When the point is
// so far from all training data that every weighted density is numerically
// zero, the uniform distribution is returned instead of dividing by zero.
func (e *Engine) Sample(s ensemble.DihedralSample) []float64 {
	dens := e.model.Densities(s.Phi, s.Psi)
	priors := e.model.Priors()

	post := make([]float64, len(dens))
	for i := range post {
		post[i] = dens[i] * priors[i]
	}
	total := floats.Sum(post)
	if total <= 0 || math.IsNaN(total) {
		e.fallbacks.Add(1)
		uniform := 1.0 / float64(len(post))
		for i := range post {
			post[i] = uniform
		}
		return post
	}
	floats.Scale(1/total, post)
	return post
}

// Aggregate reduces the subsample given by idx (observation indices into
// series) to one propensity vector and a variability score.
//
// The propensity vector is the arithmetic mean of the per-sample posteriors,
// renormalized to absorb floating-point drift. The variability score is the
// root-mean-square fluctuation of the per-sample posteriors around that
// mean: zero when every sample yields an identical posterior, growing as
// the samples' state assignments diverge, and defined for any subsample of
// size >= 1 (a single sample trivially scores zero).
func (e *Engine) Aggregate(series ensemble.AngleSeries, idx []int) ([]float64, float64) {
	vectors := make([][]float64, len(idx))
	for i, j := range idx {
		vectors[i] = e.Sample(series[j])
	}
	mean := MeanVector(vectors)
	return mean, Variability(vectors, mean)
}

// MeanVector averages propensity vectors on the simplex and renormalizes.
func MeanVector(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		floats.Add(mean, v)
	}
	floats.Scale(1/float64(len(vectors)), mean)
	// Renormalize: averaging already sums to ~1, this absorbs drift.
	if total := floats.Sum(mean); total > 0 {
		floats.Scale(1/total, mean)
	}
	return mean
}

// Variability is the RMSF of the vectors around mean:
// sqrt(mean_i sum_s (v[i][s]-mean[s])^2). Identical vectors score exactly
// zero: the mean carries rounding from summation and renormalization, so the
// identity case is detected before any deviation is computed.
func Variability(vectors [][]float64, mean []float64) float64 {
	if len(vectors) == 0 || allIdentical(vectors) {
		return 0
	}
	var acc float64
	for _, v := range vectors {
		for s := range v {
			d := v[s] - mean[s]
			acc += d * d
		}
	}
	return math.Sqrt(acc / float64(len(vectors)))
}

func allIdentical(vectors [][]float64) bool {
	first := vectors[0]
	for _, v := range vectors[1:] {
		for s := range v {
			if v[s] != first[s] {
				return false
			}
		}
	}
	return true
}
