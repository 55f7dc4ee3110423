// Package subsample generates resampled views of a residue's angle series.
// Two policies exist: a deterministic sliding window over consecutive
// observations, and bootstrap draws with replacement from an explicit seeded
// generator. The generator is a single stream per run, consumed in
// residue/spec processing order; that ordering is part of the
// reproducibility contract, so callers must request index sets in a
// deterministic order before fanning work out to goroutines.
package subsample

import (
	"fmt"
	"math/rand"
)

// Subsampling policy kinds.
const (
	KindWindow    = "window"
	KindBootstrap = "bootstrap"
)

// DefaultReplicates is the bootstrap replicate count when unspecified.
const DefaultReplicates = 500

// Spec describes one subsampling policy. Size is the window width W or the
// bootstrap sample size B; Replicates only applies to bootstrap. When Series
// is set, per-subsample results are reported individually instead of being
// averaged.
type Spec struct {
	Kind       string
	Size       int
	Replicates int
	Series     bool
}

// Window returns a window spec of width w.
func Window(w int, series bool) Spec {
	return Spec{Kind: KindWindow, Size: w, Series: series}
}

// Bootstrap returns a bootstrap spec of sample size b with r replicates.
func Bootstrap(b, r int, series bool) Spec {
	if r <= 0 {
		r = DefaultReplicates
	}
	return Spec{Kind: KindBootstrap, Size: b, Replicates: r, Series: series}
}

// Label is the method tag used in output records, e.g. "window/5/",
// "window_series/5/" or "bootstrap/10/500/42/". Bootstrap labels carry the
// run seed so records from differently seeded runs are distinguishable;
// unseeded runs omit the seed segment entirely.
func (s Spec) Label(seed int64, seeded bool) string {
	switch s.Kind {
	case KindWindow:
		if s.Series {
			return fmt.Sprintf("window_series/%d/", s.Size)
		}
		return fmt.Sprintf("window/%d/", s.Size)
	case KindBootstrap:
		base := fmt.Sprintf("bootstrap/%d/%d/", s.Size, s.Replicates)
		if seeded {
			base += fmt.Sprintf("%d/", seed)
		}
		if s.Series {
			return "series_" + base
		}
		return base
	default:
		return s.Kind
	}
}

// Subsampler owns the run's random stream. It is not safe for concurrent
// use; draw all index sets sequentially, then fan out.
type Subsampler struct {
	rng *rand.Rand
}

// New creates a subsampler with its own generator seeded once for the run.
func New(seed int64) *Subsampler {
	return &Subsampler{rng: rand.New(rand.NewSource(seed))}
}

// Subsets produces the index sets for one (series, spec) pair. Each subset
// lists observation indices into a series of length seriesLen. A window spec
// with Size > seriesLen yields zero subsets; the caller reports the residue
// as having insufficient observations rather than failing.
func (ss *Subsampler) Subsets(seriesLen int, spec Spec) [][]int {
	switch spec.Kind {
	case KindWindow:
		return windows(seriesLen, spec.Size)
	case KindBootstrap:
		return ss.bootstrap(seriesLen, spec.Size, spec.Replicates)
	default:
		return nil
	}
}

// windows yields the seriesLen-W+1 contiguous index runs of width W.
func windows(seriesLen, w int) [][]int {
	if w <= 0 || w > seriesLen {
		return nil
	}
	out := make([][]int, 0, seriesLen-w+1)
	for start := 0; start+w <= seriesLen; start++ {
		idx := make([]int, w)
		for k := range idx {
			idx[k] = start + k
		}
		out = append(out, idx)
	}
	return out
}

// bootstrap yields r subsets of b indices drawn uniformly with replacement.
// Draw order is replicate-major so the stream layout is stable.
func (ss *Subsampler) bootstrap(seriesLen, b, r int) [][]int {
	if b <= 0 || seriesLen <= 0 {
		return nil
	}
	out := make([][]int, r)
	for i := range out {
		idx := make([]int, b)
		for k := range idx {
			idx[k] = ss.rng.Intn(seriesLen)
		}
		out[i] = idx
	}
	return out
}
