package torus

import (
	"math"
	"testing"
)

func TestWrap(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"identity", 1.2, 1.2},
		{"just above pi", math.Pi + 0.1, -math.Pi + 0.1},
		{"just below -pi", -math.Pi - 0.1, math.Pi - 0.1},
		{"full turn", 2 * math.Pi, 0},
		{"pi stays pi", math.Pi, math.Pi},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Wrap(tc.in)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Wrap(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestWrapRange(t *testing.T) {
	for a := -20.0; a <= 20.0; a += 0.37 {
		got := Wrap(a)
		if got <= -math.Pi || got > math.Pi {
			t.Fatalf("Wrap(%v) = %v outside (-pi, pi]", a, got)
		}
	}
}

func TestDeltaAcrossSeam(t *testing.T) {
	// 170° and -170° are 20° apart across the seam, not 340°.
	a := 170 * math.Pi / 180
	b := -170 * math.Pi / 180
	got := Delta(a, b)
	want := -20 * math.Pi / 180
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Delta = %v, want %v", got, want)
	}
}

func TestDist(t *testing.T) {
	got := Dist(math.Pi-0.05, 0, -math.Pi+0.05, 0)
	if math.Abs(got-0.1) > 1e-12 {
		t.Errorf("Dist across seam = %v, want 0.1", got)
	}
}

func TestBilinearPeriodicConstant(t *testing.T) {
	n := 8
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		for j := range values[i] {
			values[i][j] = 3.5
		}
	}
	for phi := -math.Pi + 0.01; phi < math.Pi; phi += 0.71 {
		for psi := -math.Pi + 0.01; psi < math.Pi; psi += 0.53 {
			got := BilinearPeriodic(values, phi, psi)
			if math.Abs(got-3.5) > 1e-12 {
				t.Fatalf("constant grid interpolates to %v at (%v, %v)", got, phi, psi)
			}
		}
	}
}

func TestBilinearPeriodicExactAtNodes(t *testing.T) {
	n := 16
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		for j := range values[i] {
			values[i][j] = float64(i*n + j)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			got := BilinearPeriodic(values, NodeAngle(i, n), NodeAngle(j, n))
			want := values[i][j]
			if math.Abs(got-want) > 1e-9 {
				t.Fatalf("node (%d,%d): got %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestBilinearPeriodicWrapsSeam(t *testing.T) {
	// Two nodes only: interpolation halfway between node 1 and node 0
	// (crossing the seam) must blend both values.
	values := [][]float64{{1, 1}, {3, 3}}
	// Midpoint between NodeAngle(1,2)=pi/2 and NodeAngle(0,2)+2pi=-pi/2+2pi,
	// i.e. at the seam pi.
	got := BilinearPeriodic(values, math.Pi, 0)
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("seam midpoint = %v, want 2.0", got)
	}
}
