// Package results collects per-residue propensity records and writes them
// out. No numerical work happens here beyond rounding: upstream failures
// (too few observations for a window) surface as explicit status markers on
// the record, never as missing rows.
package results

import (
	"math"

	"github.com/banshee-data/constava/internal/csmodel"
)

// DefaultPrecision is the number of decimals kept in output values.
const DefaultPrecision = 4

// Status marks whether a record carries values.
type Status string

const (
	// StatusOK is a normal record.
	StatusOK Status = "ok"
	// StatusInsufficientData marks a (residue, spec) pair whose series is
	// shorter than the requested window. The run continues.
	StatusInsufficientData Status = "insufficient_observations"
)

// Entry is one output record: a residue under one subsampling method,
// either averaged (SeriesIndex == -1) or one element of a series.
type Entry struct {
	ResIndex     int
	ResName      string
	SeriesIndex  int // -1 for averaged records
	Propensities []float64
	Variability  float64
	Status       Status
}

// Set groups the entries produced by one subsampling method.
type Set struct {
	Method      string
	StateLabels []csmodel.StateLabel
	Entries     []Entry
}

// Add appends an entry.
func (s *Set) Add(e Entry) {
	s.Entries = append(s.Entries, e)
}

// Round truncates all numeric values in the set to the given number of
// decimals. Precision <= 0 falls back to DefaultPrecision.
func (s *Set) Round(precision int) {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	scale := math.Pow(10, float64(precision))
	for i := range s.Entries {
		e := &s.Entries[i]
		for j, p := range e.Propensities {
			e.Propensities[j] = math.Round(p*scale) / scale
		}
		e.Variability = math.Round(e.Variability*scale) / scale
	}
}

// RoundAll rounds every set.
func RoundAll(sets []*Set, precision int) {
	for _, s := range sets {
		s.Round(precision)
	}
}
