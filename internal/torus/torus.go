// Package torus provides wrap-aware arithmetic on the 2-D torus spanned by
// the backbone dihedral angles (phi, psi). Both the kernel density models
// and the grid interpolation share these helpers so the periodic seam at
// ±pi is handled in exactly one place.
package torus

import "math"

// Wrap maps an angle in radians onto the canonical interval (-pi, pi].
func Wrap(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Delta returns the wrapped difference a-b in (-pi, pi].
func Delta(a, b float64) float64 {
	return Wrap(a - b)
}

// Dist returns the circular distance between two points on the torus.
func Dist(phiA, psiA, phiB, psiB float64) float64 {
	dp := Delta(phiA, phiB)
	ds := Delta(psiA, psiB)
	return math.Hypot(dp, ds)
}

// NodeAngle returns the angle of grid node i on an n-node circular axis.
// Nodes sit at cell centers so that node 0 and node n-1 are distinct points
// and interpolation wraps across the ±pi seam.
func NodeAngle(i, n int) float64 {
	step := 2 * math.Pi / float64(n)
	return -math.Pi + (float64(i)+0.5)*step
}

// BilinearPeriodic interpolates values on an n×n periodic grid at (phi, psi).
// values is indexed [phiNode][psiNode] with nodes at NodeAngle positions.
func BilinearPeriodic(values [][]float64, phi, psi float64) float64 {
	n := len(values)
	step := 2 * math.Pi / float64(n)

	// Continuous node coordinates; node i sits at -pi + (i+0.5)*step.
	u := (Wrap(phi) + math.Pi) / step
	v := (Wrap(psi) + math.Pi) / step
	u -= 0.5
	v -= 0.5

	i0 := int(math.Floor(u))
	j0 := int(math.Floor(v))
	tu := u - float64(i0)
	tv := v - float64(j0)

	i0 = ((i0 % n) + n) % n
	j0 = ((j0 % n) + n) % n
	i1 := (i0 + 1) % n
	j1 := (j0 + 1) % n

	return values[i0][j0]*(1-tu)*(1-tv) +
		values[i1][j0]*tu*(1-tv) +
		values[i0][j1]*(1-tu)*tv +
		values[i1][j1]*tu*tv
}
