package csmodel

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/constava/internal/ensemble"
)

// Models are persisted as plain JSON so that a fitted model survives library
// upgrades: a reloaded KDE model is bit-for-bit equivalent (same samples,
// same bandwidth), a reloaded grid model functionally equivalent (same node
// values). No binary compatibility is promised; models can always be
// re-derived from raw training data.

type modelJSON struct {
	Kind      string                  `json:"kind"`
	Labels    []StateLabel            `json:"labels"`
	Priors    []float64               `json:"priors"`
	Bandwidth float64                 `json:"bandwidth,omitempty"`
	Samples   map[string][][2]float64 `json:"samples,omitempty"`
	GridSize  int                     `json:"grid_size,omitempty"`
	Grid      [][][]float64           `json:"grid,omitempty"`
}

// WriteModel serializes a fitted model to JSON.
func WriteModel(w io.Writer, m Model) error {
	doc := modelJSON{
		Kind:   m.Kind(),
		Labels: m.Labels(),
		Priors: m.Priors(),
	}
	switch mm := m.(type) {
	case *KDE:
		doc.Bandwidth = mm.bandwidth
		doc.Samples = make(map[string][][2]float64, len(mm.labels))
		for i, label := range mm.labels {
			pairs := make([][2]float64, len(mm.samples[i]))
			for j, s := range mm.samples[i] {
				pairs[j] = [2]float64{s.Phi, s.Psi}
			}
			doc.Samples[string(label)] = pairs
		}
	case *Grid:
		doc.GridSize = mm.n
		doc.Grid = mm.values
	default:
		return fmt.Errorf("write model: unsupported model type %T", m)
	}
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// ReadModel deserializes a model previously written by WriteModel.
func ReadModel(r io.Reader) (Model, error) {
	var doc modelJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	switch doc.Kind {
	case KindKDE:
		data := make(TrainingData, len(doc.Labels))
		for _, label := range doc.Labels {
			pairs, ok := doc.Samples[string(label)]
			if !ok {
				return nil, fmt.Errorf("read model: state %q missing samples", label)
			}
			series := make(ensemble.AngleSeries, len(pairs))
			for i, p := range pairs {
				series[i] = ensemble.DihedralSample{Phi: p[0], Psi: p[1]}
			}
			data[label] = series
		}
		return FitKDE(doc.Labels, data, doc.Bandwidth)
	case KindGrid:
		if len(doc.Grid) != len(doc.Labels) {
			return nil, fmt.Errorf("read model: %d grids for %d states", len(doc.Grid), len(doc.Labels))
		}
		for s := range doc.Grid {
			if len(doc.Grid[s]) != doc.GridSize {
				return nil, fmt.Errorf("read model: state %q grid is %dx?, want %d per axis",
					doc.Labels[s], len(doc.Grid[s]), doc.GridSize)
			}
			for _, row := range doc.Grid[s] {
				if len(row) != doc.GridSize {
					return nil, fmt.Errorf("read model: state %q grid row size %d, want %d",
						doc.Labels[s], len(row), doc.GridSize)
				}
			}
		}
		return &Grid{
			labels: doc.Labels,
			priors: doc.Priors,
			n:      doc.GridSize,
			values: doc.Grid,
		}, nil
	default:
		return nil, fmt.Errorf("read model: unknown model kind %q", doc.Kind)
	}
}
