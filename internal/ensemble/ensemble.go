// Package ensemble holds the data carriers for a protein conformational
// ensemble: per-residue ordered series of (phi, psi) backbone dihedral
// samples. The carriers are read-only to the inference code; readers build
// them once and nothing mutates them afterwards.
package ensemble

import (
	"fmt"
	"math"
	"sort"
)

// DihedralSample is one (phi, psi) observation in radians, range (-pi, pi].
type DihedralSample struct {
	Phi float64
	Psi float64
}

// AngleSeries is the ordered sequence of dihedral samples for one residue.
// Index order is observation order (trajectory frames or NMR models) and is
// meaningful: window subsampling slices consecutive entries.
type AngleSeries []DihedralSample

// Residue pairs a residue identity with its angle series.
type Residue struct {
	Name     string // three-letter residue name, e.g. "ALA"
	Position int    // sequence position
	Angles   AngleSeries
}

var aminoAcids3to1 = map[string]string{
	"ALA": "A", "CYS": "C", "ASP": "D", "GLU": "E", "PHE": "F",
	"GLY": "G", "HIS": "H", "ILE": "I", "LYS": "K", "LEU": "L",
	"MET": "M", "ASN": "N", "PRO": "P", "GLN": "Q", "ARG": "R",
	"SER": "S", "THR": "T", "VAL": "V", "TRP": "W", "TYR": "Y",
}

// ShortName returns the one-letter residue code, or "X" when unknown.
func (r Residue) ShortName() string {
	if s, ok := aminoAcids3to1[r.Name]; ok {
		return s
	}
	return "X"
}

// Ensemble is the full per-protein collection of residues, ordered by
// sequence position.
type Ensemble struct {
	residues []Residue
}

// New builds an ensemble from the given residues, sorted by position.
func New(residues ...Residue) *Ensemble {
	e := &Ensemble{residues: append([]Residue(nil), residues...)}
	sort.SliceStable(e.residues, func(i, j int) bool {
		return e.residues[i].Position < e.residues[j].Position
	})
	return e
}

// Residues returns the residues in sequence order. The returned slice is
// shared; callers must not modify it.
func (e *Ensemble) Residues() []Residue { return e.residues }

// Len returns the number of residues with data.
func (e *Ensemble) Len() int { return len(e.residues) }

// RangeError reports dihedral values outside the radian range [-pi, pi],
// usually a sign that degree input was not flagged as such.
type RangeError struct {
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("dihedrals outside the range [-pi, pi]: [%.3f, %.3f]", e.Min, e.Max)
}

// CheckRadianRange validates that all samples are plausible radian values.
// Values outside [-pi, pi] are an error; the caller decides whether a
// suspiciously narrow spread warrants a double-conversion warning.
func CheckRadianRange(series AngleSeries) error {
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		vmin = math.Min(vmin, math.Min(s.Phi, s.Psi))
		vmax = math.Max(vmax, math.Max(s.Phi, s.Psi))
	}
	if len(series) == 0 {
		return nil
	}
	if vmin < -math.Pi || vmax > math.Pi {
		return &RangeError{Min: vmin, Max: vmax}
	}
	return nil
}

// SuspiciouslySmall reports whether every sample fits inside the range a
// radian series would occupy after a second degrees-to-radians conversion.
func SuspiciouslySmall(series AngleSeries) bool {
	if len(series) == 0 {
		return false
	}
	limit := math.Pi * math.Pi / 180
	for _, s := range series {
		if math.Abs(s.Phi) > limit || math.Abs(s.Psi) > limit {
			return false
		}
	}
	return true
}

// DegreesToRadians converts a series recorded in degrees. Conversion happens
// once at ingestion; everything downstream operates in radians.
func DegreesToRadians(series AngleSeries) AngleSeries {
	out := make(AngleSeries, len(series))
	for i, s := range series {
		out[i] = DihedralSample{
			Phi: s.Phi * math.Pi / 180,
			Psi: s.Psi * math.Pi / 180,
		}
	}
	return out
}
