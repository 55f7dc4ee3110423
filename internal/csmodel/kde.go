package csmodel

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/constava/internal/ensemble"
	"github.com/banshee-data/constava/internal/torus"
)

// KDE is the exact kernel-density representation: each state keeps its raw
// training samples and density queries sum an isotropic Gaussian kernel over
// them, using the circular distance on the (phi, psi) torus. Evaluation is
// linear in the number of training points per state: slow but exact, and
// the reference the grid representation is measured against.
type KDE struct {
	labels    []StateLabel
	priors    []float64
	bandwidth float64
	samples   []ensemble.AngleSeries // aligned with labels
	kernel    distuv.Normal
}

// FitKDE fits the kernel-density model. Every label must have at least one
// training sample in radian range or a *FitError is returned.
func FitKDE(labels []StateLabel, data TrainingData, bandwidth float64) (*KDE, error) {
	priors, err := validateTraining(labels, data)
	if err != nil {
		return nil, err
	}
	if bandwidth <= 0 {
		return nil, &FitError{Reason: "bandwidth must be positive"}
	}
	samples := make([]ensemble.AngleSeries, len(labels))
	for i, label := range labels {
		samples[i] = append(ensemble.AngleSeries(nil), data[label]...)
	}
	return &KDE{
		labels:    append([]StateLabel(nil), labels...),
		priors:    priors,
		bandwidth: bandwidth,
		samples:   samples,
		kernel:    distuv.Normal{Mu: 0, Sigma: bandwidth},
	}, nil
}

func (m *KDE) Kind() string { return KindKDE }

func (m *KDE) Labels() []StateLabel { return m.labels }

func (m *KDE) Priors() []float64 { return m.priors }

// Bandwidth returns the kernel bandwidth in radians.
func (m *KDE) Bandwidth() float64 { return m.bandwidth }

// Densities evaluates the per-state kernel densities at (phi, psi).
func (m *KDE) Densities(phi, psi float64) []float64 {
	out := make([]float64, len(m.labels))
	for i, series := range m.samples {
		var sum float64
		for _, s := range series {
			dp := torus.Delta(phi, s.Phi)
			ds := torus.Delta(psi, s.Psi)
			sum += m.kernel.Prob(dp) * m.kernel.Prob(ds)
		}
		out[i] = sum / float64(len(series))
	}
	return out
}

// trainingSamples exposes the stored samples for persistence.
func (m *KDE) trainingSamples() []ensemble.AngleSeries { return m.samples }
