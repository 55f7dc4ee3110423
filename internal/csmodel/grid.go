package csmodel

import (
	"math"

	"github.com/banshee-data/constava/internal/torus"
)

// Grid approximates the KDE surface with an n×n table of densities
// precomputed at cell centers over the torus. Queries interpolate bilinearly
// between the four neighbouring nodes, wrapping across the ±pi seam, so
// evaluation cost is O(1) regardless of training-set size. Values converge
// to the exact KDE result as the resolution grows.
type Grid struct {
	labels []StateLabel
	priors []float64
	n      int           // nodes per axis
	values [][][]float64 // [state][phiNode][psiNode], density (not log)
}

// FitGrid fits a KDE to the training data and tabulates it on a periodic
// grid of roughly gridPoints nodes in total (isqrt(gridPoints) per axis).
func FitGrid(labels []StateLabel, data TrainingData, bandwidth float64, gridPoints int) (*Grid, error) {
	kde, err := FitKDE(labels, data, bandwidth)
	if err != nil {
		return nil, err
	}
	n := int(math.Sqrt(float64(gridPoints)))
	if n < 2 {
		return nil, &FitError{Reason: "grid needs at least 4 grid points"}
	}

	values := make([][][]float64, len(labels))
	for s := range values {
		values[s] = make([][]float64, n)
		for i := range values[s] {
			values[s][i] = make([]float64, n)
		}
	}
	for i := 0; i < n; i++ {
		phi := torus.NodeAngle(i, n)
		for j := 0; j < n; j++ {
			psi := torus.NodeAngle(j, n)
			dens := kde.Densities(phi, psi)
			for s := range values {
				values[s][i][j] = dens[s]
			}
		}
	}
	return &Grid{
		labels: kde.labels,
		priors: kde.priors,
		n:      n,
		values: values,
	}, nil
}

func (m *Grid) Kind() string { return KindGrid }

func (m *Grid) Labels() []StateLabel { return m.labels }

func (m *Grid) Priors() []float64 { return m.priors }

// Resolution returns the number of grid nodes per axis.
func (m *Grid) Resolution() int { return m.n }

// Densities interpolates the per-state densities at (phi, psi). Bilinear
// blending of non-negative node values keeps the result non-negative.
func (m *Grid) Densities(phi, psi float64) []float64 {
	out := make([]float64, len(m.labels))
	for s, grid := range m.values {
		out[s] = torus.BilinearPeriodic(grid, phi, psi)
	}
	return out
}
