package propensity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/constava/internal/csmodel"
	"github.com/banshee-data/constava/internal/ensemble"
)

func fitTestModel(t *testing.T) csmodel.Model {
	t.Helper()
	labels := []csmodel.StateLabel{"Alpha", "Beta"}
	data := csmodel.TrainingData{
		"Alpha": {{Phi: -1.1, Psi: -0.75}, {Phi: -1.0, Psi: -0.80}, {Phi: -1.05, Psi: -0.78}},
		"Beta":  {{Phi: -2.1, Psi: 2.4}, {Phi: -2.0, Psi: 2.3}, {Phi: -2.15, Psi: 2.45}},
	}
	m, err := csmodel.FitKDE(labels, data, csmodel.DefaultBandwidth)
	require.NoError(t, err)
	return m
}

func assertSimplex(t *testing.T, v []float64) {
	t.Helper()
	sum := 0.0
	for _, p := range v {
		require.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestSampleIsPosterior(t *testing.T) {
	e := NewEngine(fitTestModel(t))

	inAlpha := e.Sample(ensemble.DihedralSample{Phi: -1.05, Psi: -0.78})
	assertSimplex(t, inAlpha)
	assert.Greater(t, inAlpha[0], 0.99)

	inBeta := e.Sample(ensemble.DihedralSample{Phi: -2.05, Psi: 2.4})
	assertSimplex(t, inBeta)
	assert.Greater(t, inBeta[1], 0.99)
}

func TestSampleUniformFallback(t *testing.T) {
	// With a very narrow kernel the density underflows to exactly zero a
	// couple of radians away from the training clusters.
	labels := []csmodel.StateLabel{"Alpha", "Beta"}
	data := csmodel.TrainingData{
		"Alpha": {{Phi: -1.05, Psi: -0.78}},
		"Beta":  {{Phi: -2.1, Psi: 2.4}},
	}
	m, err := csmodel.FitKDE(labels, data, 0.02)
	require.NoError(t, err)
	e := NewEngine(m)

	far := e.Sample(ensemble.DihedralSample{Phi: 1.5, Psi: -2.8})
	assertSimplex(t, far)
	assert.InDelta(t, 0.5, far[0], 1e-12)
	assert.InDelta(t, 0.5, far[1], 1e-12)
	assert.Equal(t, int64(1), e.Fallbacks())

	// A query on top of a cluster does not fall back.
	near := e.Sample(ensemble.DihedralSample{Phi: -1.05, Psi: -0.78})
	assert.Greater(t, near[0], 0.99)
	assert.Equal(t, int64(1), e.Fallbacks())
}

func TestAggregateIdenticalSamples(t *testing.T) {
	e := NewEngine(fitTestModel(t))
	series := make(ensemble.AngleSeries, 10)
	for i := range series {
		series[i] = ensemble.DihedralSample{Phi: -1.05, Psi: -0.78}
	}
	idx := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	mean, v := e.Aggregate(series, idx)
	assertSimplex(t, mean)
	assert.Equal(t, 0.0, v, "identical samples must have zero variability")
	assert.Greater(t, mean[0], 0.99)
}

func TestAggregateMixedSamplesPositiveVariability(t *testing.T) {
	e := NewEngine(fitTestModel(t))
	series := ensemble.AngleSeries{
		{Phi: -1.05, Psi: -0.78}, // alpha
		{Phi: -2.05, Psi: 2.4},   // beta
	}
	mean, v := e.Aggregate(series, []int{0, 1})
	assertSimplex(t, mean)
	assert.Greater(t, v, 0.0)
	assert.InDelta(t, 0.5, mean[0], 0.02)
}

func TestAggregateSingleSample(t *testing.T) {
	e := NewEngine(fitTestModel(t))
	series := ensemble.AngleSeries{{Phi: -1.05, Psi: -0.78}}
	mean, v := e.Aggregate(series, []int{0})
	assertSimplex(t, mean)
	assert.Equal(t, 0.0, v)
}

func TestMeanVectorRenormalizes(t *testing.T) {
	// Vectors with small drift away from exact sums of 1.
	vectors := [][]float64{
		{0.6, 0.4000001},
		{0.2, 0.7999999},
	}
	mean := MeanVector(vectors)
	assertSimplex(t, mean)
	assert.InDelta(t, 0.4, mean[0], 1e-6)
}

func TestVariabilityExactZeroDespiteMeanDrift(t *testing.T) {
	// Averaging plus renormalization rounds the mean away from the input
	// vector by an ulp or two; the score must still be exactly zero when
	// every input vector is the same.
	v := []float64{1.0 / 3.0, 1.0 / 7.0, 1 - 1.0/3.0 - 1.0/7.0}
	vectors := [][]float64{v, v, v, v, v}

	mean := MeanVector(vectors)
	assertSimplex(t, mean)
	assert.Equal(t, 0.0, Variability(vectors, mean))
}

func TestVariabilityProperties(t *testing.T) {
	identical := [][]float64{{0.7, 0.3}, {0.7, 0.3}, {0.7, 0.3}}
	assert.Equal(t, 0.0, Variability(identical, MeanVector(identical)))

	spread := [][]float64{{1, 0}, {0, 1}}
	v := Variability(spread, MeanVector(spread))
	// Each vector is at distance sqrt(0.5) from the mean (0.5, 0.5).
	assert.InDelta(t, math.Sqrt(0.5), v, 1e-12)

	mild := [][]float64{{0.6, 0.4}, {0.4, 0.6}}
	assert.Less(t, Variability(mild, MeanVector(mild)), v,
		"variability must grow with disagreement")
}
