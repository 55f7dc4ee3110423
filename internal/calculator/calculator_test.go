package calculator

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/constava/internal/csmodel"
	"github.com/banshee-data/constava/internal/ensemble"
	"github.com/banshee-data/constava/internal/results"
	"github.com/banshee-data/constava/internal/subsample"
	"github.com/banshee-data/constava/internal/testutil"
)

// defaultModel fits the KDE model from the bundled training data once.
var defaultModel = func() csmodel.Model {
	m, err := csmodel.FitDefault(csmodel.KindKDE, 0, 0)
	if err != nil {
		panic(err)
	}
	return m
}()

func helixResidue(position, observations int) ensemble.Residue {
	series := make(ensemble.AngleSeries, observations)
	for i := range series {
		series[i] = ensemble.DihedralSample{Phi: -1.05, Psi: -0.79}
	}
	return ensemble.Residue{Name: "ALA", Position: position, Angles: series}
}

func coreHelixIndex(t *testing.T, labels []csmodel.StateLabel) int {
	t.Helper()
	for i, l := range labels {
		if l == "Core Helix" {
			return i
		}
	}
	t.Fatal("Core Helix not among model labels")
	return -1
}

func TestCalculateNoSpecs(t *testing.T) {
	ens := ensemble.New(helixResidue(1, 10))
	_, err := Calculate(defaultModel, ens, nil, Options{})
	require.ErrorIs(t, err, ErrNoSpecs)
}

func TestWindowOnSteadyHelix(t *testing.T) {
	// 100 identical observations inside the Core Helix cluster under a
	// width-5 window: 96 windows, Core Helix dominant, zero variability.
	ens := ensemble.New(helixResidue(42, 100))
	specs := []subsample.Spec{subsample.Window(5, false)}

	sets, err := Calculate(defaultModel, ens, specs, Options{Workers: 4})
	require.NoError(t, err)
	require.Len(t, sets, 1)

	set := sets[0]
	assert.Equal(t, "window/5/", set.Method)
	require.Len(t, set.Entries, 1)

	e := set.Entries[0]
	assert.Equal(t, results.StatusOK, e.Status)
	assert.Equal(t, 42, e.ResIndex)
	assert.Equal(t, -1, e.SeriesIndex)
	testutil.AssertProbabilityVector(t, e.Propensities, 1e-6)
	assert.Greater(t, e.Propensities[coreHelixIndex(t, set.StateLabels)], 0.9)
	testutil.AssertInDelta(t, e.Variability, 0, 1e-9)
}

func TestWindowSeriesCount(t *testing.T) {
	ens := ensemble.New(helixResidue(42, 100))
	specs := []subsample.Spec{subsample.Window(5, true)}

	sets, err := Calculate(defaultModel, ens, specs, Options{Workers: 2})
	require.NoError(t, err)
	require.Len(t, sets[0].Entries, 96)
	for i, e := range sets[0].Entries {
		assert.Equal(t, i, e.SeriesIndex)
		assert.Equal(t, results.StatusOK, e.Status)
		testutil.AssertProbabilityVector(t, e.Propensities, 1e-6)
	}
}

func TestShortSeriesIsMarkedNotFatal(t *testing.T) {
	// 3 observations under a width-5 window: marked, run continues.
	ens := ensemble.New(helixResidue(7, 3), helixResidue(8, 10))
	specs := []subsample.Spec{subsample.Window(5, false)}

	sets, err := Calculate(defaultModel, ens, specs, Options{})
	require.NoError(t, err)
	require.Len(t, sets[0].Entries, 2)

	short := sets[0].Entries[0]
	assert.Equal(t, 7, short.ResIndex)
	assert.Equal(t, results.StatusInsufficientData, short.Status)
	assert.Nil(t, short.Propensities)

	long := sets[0].Entries[1]
	assert.Equal(t, results.StatusOK, long.Status)
}

func TestBootstrapReproducible(t *testing.T) {
	// Mixed conformations so bootstrap draws actually matter.
	series := make(ensemble.AngleSeries, 0, 40)
	for i := 0; i < 20; i++ {
		series = append(series,
			ensemble.DihedralSample{Phi: -1.05, Psi: -0.79},
			ensemble.DihedralSample{Phi: -2.1, Psi: 2.36},
		)
	}
	ens := ensemble.New(
		ensemble.Residue{Name: "VAL", Position: 1, Angles: series},
		ensemble.Residue{Name: "LEU", Position: 2, Angles: series},
	)
	specs := []subsample.Spec{subsample.Bootstrap(10, 500, false)}
	opts := Options{Seed: 42, Seeded: true, Workers: 8}

	first, err := Calculate(defaultModel, ens, specs, opts)
	require.NoError(t, err)
	second, err := Calculate(defaultModel, ens, specs, opts)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different results (-first +second):\n%s", diff)
	}
	assert.Equal(t, "bootstrap/10/500/42/", first[0].Method)

	// A different seed shifts the draws and, with mixed conformations, the
	// aggregated numbers.
	third, err := Calculate(defaultModel, ens, specs, Options{Seed: 43, Seeded: true})
	require.NoError(t, err)
	assert.False(t, cmp.Equal(first[0].Entries, third[0].Entries),
		"different seeds should change bootstrap aggregates")
}

func TestBootstrapVariabilityPositiveForMixedSeries(t *testing.T) {
	series := make(ensemble.AngleSeries, 0, 30)
	for i := 0; i < 15; i++ {
		series = append(series,
			ensemble.DihedralSample{Phi: -1.05, Psi: -0.79},
			ensemble.DihedralSample{Phi: -2.1, Psi: 2.36},
		)
	}
	ens := ensemble.New(ensemble.Residue{Name: "VAL", Position: 9, Angles: series})

	sets, err := Calculate(defaultModel, ens, []subsample.Spec{subsample.Bootstrap(5, 100, false)}, Options{Seed: 1, Seeded: true})
	require.NoError(t, err)
	e := sets[0].Entries[0]
	assert.Greater(t, e.Variability, 0.0)
	testutil.AssertProbabilityVector(t, e.Propensities, 1e-6)
}

func TestMultipleSpecsIndependentSets(t *testing.T) {
	ens := ensemble.New(helixResidue(1, 30))
	specs := []subsample.Spec{
		subsample.Window(5, false),
		subsample.Window(10, false),
		subsample.Bootstrap(3, 50, false),
	}
	sets, err := Calculate(defaultModel, ens, specs, Options{Seed: 5, Seeded: true})
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, "window/5/", sets[0].Method)
	assert.Equal(t, "window/10/", sets[1].Method)
	assert.Equal(t, "bootstrap/3/50/5/", sets[2].Method)
	for _, set := range sets {
		require.Len(t, set.Entries, 1)
		assert.Equal(t, results.StatusOK, set.Entries[0].Status)
	}
}

func TestEndToEndCSVByteIdentical(t *testing.T) {
	// Full pipeline determinism: two seeded runs render byte-identical CSV.
	series := make(ensemble.AngleSeries, 0, 40)
	for i := 0; i < 20; i++ {
		series = append(series,
			ensemble.DihedralSample{Phi: -1.05, Psi: -0.79},
			ensemble.DihedralSample{Phi: -1.31, Psi: 2.43},
		)
	}
	ens := ensemble.New(ensemble.Residue{Name: "SER", Position: 3, Angles: series})
	specs := []subsample.Spec{subsample.Bootstrap(10, 500, false)}

	render := func() []byte {
		sets, err := Calculate(defaultModel, ens, specs, Options{Seed: 42, Seeded: true})
		require.NoError(t, err)
		results.RoundAll(sets, 4)
		var buf bytes.Buffer
		require.NoError(t, results.WriteCSV(&buf, sets, 4))
		return buf.Bytes()
	}

	if !bytes.Equal(render(), render()) {
		t.Error("seeded bootstrap runs must render byte-identical output")
	}
}
