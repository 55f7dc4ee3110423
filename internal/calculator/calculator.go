// Package calculator runs the propensity/variability inference for every
// residue of an ensemble under every requested subsampling spec.
//
// The work is embarrassingly parallel across (residue, spec) pairs: the
// fitted model is shared read-only and each pair writes into its own result
// slot. The one serialization point is the bootstrap random stream, so all
// index sets are drawn sequentially (residues outer, specs inner) before any
// work is fanned out to the pool. Re-running with the same seed and the same
// spec list reproduces results exactly; changing the spec list shifts every
// downstream draw.
package calculator

import (
	"errors"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/constava/internal/csmodel"
	"github.com/banshee-data/constava/internal/ensemble"
	"github.com/banshee-data/constava/internal/monitoring"
	"github.com/banshee-data/constava/internal/propensity"
	"github.com/banshee-data/constava/internal/results"
	"github.com/banshee-data/constava/internal/subsample"
)

// ErrNoSpecs is returned when a run is requested without any subsampling
// specs.
var ErrNoSpecs = errors.New("no subsampling specs given")

// Options configure one run.
type Options struct {
	// Seed for the bootstrap stream. Seeded records whether it was set
	// explicitly; unseeded runs omit the seed from bootstrap method labels.
	Seed   int64
	Seeded bool

	// Workers bounds the pool size; 0 means runtime.NumCPU().
	Workers int
}

// job is one (residue, spec) unit with its pre-drawn index sets.
type job struct {
	resIdx  int
	specIdx int
	subsets [][]int
}

// Calculate evaluates every residue under every spec and returns one result
// set per spec, entries in residue order. Residues with too few
// observations for a window spec are marked, not skipped.
func Calculate(model csmodel.Model, ens *ensemble.Ensemble, specs []subsample.Spec, opts Options) ([]*results.Set, error) {
	if len(specs) == 0 {
		return nil, ErrNoSpecs
	}

	residues := ens.Residues()
	engine := propensity.NewEngine(model)
	sampler := subsample.New(opts.Seed)

	// Draw all index sets up front, on a single goroutine, in processing
	// order. This pins the random stream layout regardless of pool size.
	jobs := make([]job, 0, len(residues)*len(specs))
	for r := range residues {
		for s, spec := range specs {
			jobs = append(jobs, job{
				resIdx:  r,
				specIdx: s,
				subsets: sampler.Subsets(len(residues[r].Angles), spec),
			})
		}
	}

	// slots[spec][residue] holds that pair's entries.
	slots := make([][][]results.Entry, len(specs))
	for s := range slots {
		slots[s] = make([][]results.Entry, len(residues))
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobCh := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				slots[j.specIdx][j.resIdx] = runJob(engine, residues[j.resIdx], specs[j.specIdx], j.subsets)
			}
		}()
	}
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()

	if n := engine.Fallbacks(); n > 0 {
		monitoring.Debugf("%d density queries fell back to the uniform distribution", n)
	}

	sets := make([]*results.Set, len(specs))
	for s, spec := range specs {
		set := &results.Set{
			Method:      spec.Label(opts.Seed, opts.Seeded),
			StateLabels: model.Labels(),
		}
		for r := range residues {
			set.Entries = append(set.Entries, slots[s][r]...)
		}
		sets[s] = set
	}
	return sets, nil
}

// runJob computes the entries for one (residue, spec) pair.
func runJob(engine *propensity.Engine, res ensemble.Residue, spec subsample.Spec, subsets [][]int) []results.Entry {
	if len(subsets) == 0 {
		monitoring.Infof("residue %s%d: %d observations, too few for %s",
			res.Name, res.Position, len(res.Angles), spec.Kind)
		return []results.Entry{{
			ResIndex:    res.Position,
			ResName:     res.Name,
			SeriesIndex: -1,
			Status:      results.StatusInsufficientData,
		}}
	}

	vectors := make([][]float64, len(subsets))
	scores := make([]float64, len(subsets))
	for i, idx := range subsets {
		vectors[i], scores[i] = engine.Aggregate(res.Angles, idx)
	}

	if spec.Series {
		entries := make([]results.Entry, len(subsets))
		for i := range subsets {
			entries[i] = results.Entry{
				ResIndex:     res.Position,
				ResName:      res.Name,
				SeriesIndex:  i,
				Propensities: vectors[i],
				Variability:  scores[i],
				Status:       results.StatusOK,
			}
		}
		return entries
	}

	return []results.Entry{{
		ResIndex:     res.Position,
		ResName:      res.Name,
		SeriesIndex:  -1,
		Propensities: propensity.MeanVector(vectors),
		Variability:  stat.Mean(scores, nil),
		Status:       results.StatusOK,
	}}
}
