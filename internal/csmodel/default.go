package csmodel

import (
	"bytes"
	_ "embed"
	"fmt"
)

// csdataJSON is the bundled training dataset: (phi, psi) samples in radians
// for the six default conformational states, clustered around the canonical
// Ramachandran regions.
//
//go:embed data/csdata.json
var csdataJSON []byte

// DefaultTrainingData returns the bundled six-state training dataset.
func DefaultTrainingData() ([]StateLabel, TrainingData, error) {
	labels, data, err := ParseTrainingJSON(bytes.NewReader(csdataJSON), false)
	if err != nil {
		return nil, nil, fmt.Errorf("bundled training data: %w", err)
	}
	return labels, data, nil
}

// FitDefault fits a model of the given kind from the bundled dataset.
func FitDefault(kind string, bandwidth float64, gridPoints int) (Model, error) {
	labels, data, err := DefaultTrainingData()
	if err != nil {
		return nil, err
	}
	return Fit(kind, labels, data, bandwidth, gridPoints)
}
