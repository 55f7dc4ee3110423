// Package csmodel implements the probabilistic models of protein
// conformational states. A model maps each named state to a probability
// density over the (phi, psi) torus plus a prior weight estimated from the
// training-set frequencies. Two interchangeable representations exist: an
// exact kernel density estimate (KDE) and a precomputed grid that
// approximates the KDE surface with periodic bilinear interpolation.
package csmodel

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/constava/internal/ensemble"
)

// StateLabel names one conformational state. The set of labels is closed for
// the lifetime of a model.
type StateLabel string

// DefaultStateLabels is the canonical six-state decomposition of backbone
// conformational space.
var DefaultStateLabels = []StateLabel{
	"Core Helix",
	"Surrounding Helix",
	"Core Sheet",
	"Surrounding Sheet",
	"Turn",
	"Other",
}

// Model kinds.
const (
	KindKDE  = "kde"
	KindGrid = "grid"
)

// DefaultBandwidth is the isotropic Gaussian kernel bandwidth in radians.
const DefaultBandwidth = 0.13

// DefaultGridPoints is the target total number of grid nodes for the grid
// representation; the per-axis resolution is isqrt(DefaultGridPoints).
const DefaultGridPoints = 10000

// Model is the shared contract of the KDE and grid representations. Models
// are immutable after fitting and safe for concurrent readers.
type Model interface {
	// Kind returns KindKDE or KindGrid.
	Kind() string
	// Labels returns the ordered state labels.
	Labels() []StateLabel
	// Priors returns the per-state prior weights, aligned with Labels and
	// summing to 1.
	Priors() []float64
	// Densities evaluates every per-state density at (phi, psi) radians.
	// Values are non-negative and finite; alignment matches Labels.
	Densities(phi, psi float64) []float64
}

// TrainingData maps each state to its training samples, in radians.
type TrainingData map[StateLabel]ensemble.AngleSeries

// FitError is the fatal error raised when a model cannot be fitted, e.g.
// because a configured state has no training samples. It aborts the run
// before any residue is processed.
type FitError struct {
	State  StateLabel
	Reason string
}

func (e *FitError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("cannot fit state model %q: %s", e.State, e.Reason)
	}
	return fmt.Sprintf("cannot fit state models: %s", e.Reason)
}

// validateTraining checks that every configured label has at least one
// in-range sample and returns the prior weights.
func validateTraining(labels []StateLabel, data TrainingData) ([]float64, error) {
	if len(labels) == 0 {
		return nil, &FitError{Reason: "no state labels configured"}
	}
	total := 0
	for _, label := range labels {
		series, ok := data[label]
		if !ok || len(series) == 0 {
			return nil, &FitError{State: label, Reason: "no training samples"}
		}
		if err := ensemble.CheckRadianRange(series); err != nil {
			return nil, &FitError{State: label, Reason: err.Error()}
		}
		total += len(series)
	}
	priors := make([]float64, len(labels))
	for i, label := range labels {
		priors[i] = float64(len(data[label])) / float64(total)
	}
	return priors, nil
}

// ParseTrainingJSON reads training data of the form
// {"State": [[phi, psi], ...], ...}. Label order in the file is preserved so
// that fitted models list states the way the dataset defines them. When
// degrees is set the samples are converted to radians during ingestion.
func ParseTrainingJSON(r io.Reader, degrees bool) ([]StateLabel, TrainingData, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("read training data: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("read training data: expected top-level object, got %v", tok)
	}

	var labels []StateLabel
	data := make(TrainingData)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("read training data: %w", err)
		}
		label := StateLabel(tok.(string))

		var pairs [][2]float64
		if err := dec.Decode(&pairs); err != nil {
			return nil, nil, fmt.Errorf("read training data for %q: %w", label, err)
		}
		series := make(ensemble.AngleSeries, len(pairs))
		for i, p := range pairs {
			series[i] = ensemble.DihedralSample{Phi: p[0], Psi: p[1]}
		}
		if degrees {
			series = ensemble.DegreesToRadians(series)
		}
		labels = append(labels, label)
		data[label] = series
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("read training data: %w", err)
	}
	return labels, data, nil
}

// Fit builds a model of the requested kind from training data. The kind is
// KindKDE or KindGrid; bandwidth and gridPoints fall back to the defaults
// when zero.
func Fit(kind string, labels []StateLabel, data TrainingData, bandwidth float64, gridPoints int) (Model, error) {
	if bandwidth == 0 {
		bandwidth = DefaultBandwidth
	}
	if gridPoints == 0 {
		gridPoints = DefaultGridPoints
	}
	switch kind {
	case KindKDE:
		return FitKDE(labels, data, bandwidth)
	case KindGrid:
		return FitGrid(labels, data, bandwidth, gridPoints)
	default:
		return nil, &FitError{Reason: fmt.Sprintf("unknown model kind %q", kind)}
	}
}
