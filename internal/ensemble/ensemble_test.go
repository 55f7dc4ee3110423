package ensemble

import (
	"math"
	"testing"
)

func TestNewSortsByPosition(t *testing.T) {
	e := New(
		Residue{Name: "GLY", Position: 12},
		Residue{Name: "ALA", Position: 3},
		Residue{Name: "SER", Position: 7},
	)
	got := e.Residues()
	if got[0].Position != 3 || got[1].Position != 7 || got[2].Position != 12 {
		t.Errorf("residues not sorted by position: %+v", got)
	}
	if e.Len() != 3 {
		t.Errorf("Len = %d, want 3", e.Len())
	}
}

func TestShortName(t *testing.T) {
	if got := (Residue{Name: "TRP"}).ShortName(); got != "W" {
		t.Errorf("ShortName(TRP) = %q, want W", got)
	}
	if got := (Residue{Name: "UNK"}).ShortName(); got != "X" {
		t.Errorf("ShortName(UNK) = %q, want X", got)
	}
}

func TestCheckRadianRange(t *testing.T) {
	ok := AngleSeries{{Phi: -3.1, Psi: 3.14}, {Phi: 0, Psi: 0}}
	if err := CheckRadianRange(ok); err != nil {
		t.Errorf("unexpected error for in-range series: %v", err)
	}

	bad := AngleSeries{{Phi: -120, Psi: 135}}
	err := CheckRadianRange(bad)
	if err == nil {
		t.Fatal("expected range error for degree-valued series")
	}
	rerr, isRange := err.(*RangeError)
	if !isRange {
		t.Fatalf("error type = %T, want *RangeError", err)
	}
	if rerr.Min != -120 || rerr.Max != 135 {
		t.Errorf("range error bounds = [%v, %v], want [-120, 135]", rerr.Min, rerr.Max)
	}

	if err := CheckRadianRange(nil); err != nil {
		t.Errorf("empty series should pass: %v", err)
	}
}

func TestSuspiciouslySmall(t *testing.T) {
	twice := AngleSeries{{Phi: -0.018, Psi: 0.02}} // radians converted twice
	if !SuspiciouslySmall(twice) {
		t.Error("expected twice-converted series to be flagged")
	}
	normal := AngleSeries{{Phi: -1.1, Psi: 2.3}}
	if SuspiciouslySmall(normal) {
		t.Error("normal radian series wrongly flagged")
	}
}

func TestDegreesToRadians(t *testing.T) {
	in := AngleSeries{{Phi: -63, Psi: -43}, {Phi: 180, Psi: -180}}
	out := DegreesToRadians(in)
	if math.Abs(out[0].Phi+63*math.Pi/180) > 1e-12 {
		t.Errorf("phi conversion wrong: %v", out[0].Phi)
	}
	if math.Abs(out[1].Phi-math.Pi) > 1e-12 || math.Abs(out[1].Psi+math.Pi) > 1e-12 {
		t.Errorf("edge conversion wrong: %+v", out[1])
	}
	// input untouched
	if in[0].Phi != -63 {
		t.Error("DegreesToRadians mutated its input")
	}
}
