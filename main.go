// Command constava computes conformational state propensities and the
// conformational state variability of a protein ensemble from backbone
// dihedral angles.
//
// Typical use:
//
//	constava -i dihedrals.csv -o out.csv --window 5 --bootstrap 10 --seed 42
//
// Without --load-model or --training-data the six-state model is fitted
// from the bundled training set.
package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/constava/internal/calculator"
	"github.com/banshee-data/constava/internal/csmodel"
	"github.com/banshee-data/constava/internal/ensio"
	"github.com/banshee-data/constava/internal/monitoring"
	"github.com/banshee-data/constava/internal/results"
	"github.com/banshee-data/constava/internal/subsample"
)

// intsFlag collects repeated or comma-separated integer flag values.
type intsFlag []int

func (f *intsFlag) String() string {
	parts := make([]string, len(*f))
	for i, v := range *f {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (f *intsFlag) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		*f = append(*f, v)
	}
	return nil
}

// stringsFlag collects repeated string flag values.
type stringsFlag []string

func (f *stringsFlag) String() string { return strings.Join(*f, ",") }

func (f *stringsFlag) Set(s string) error {
	*f = append(*f, s)
	return nil
}

var (
	inputFiles   stringsFlag
	outputFile   = flag.String("o", "", "Output file")
	inputFormat  = flag.String("input-format", "auto", "Format of input files: auto, csv, xvg")
	outputFormat = flag.String("output-format", "auto", "Format of output file: auto, csv, tsv, json")
	inputDegrees = flag.Bool("input-degrees", false, "Input angles are in degrees instead of radians")

	modelKind       = flag.String("model", csmodel.KindKDE, "Probabilistic state model: kde (exact) or grid (fast approximation)")
	loadModel       = flag.String("load-model", "", "Load a fitted model from the given JSON file")
	dumpModel       = flag.String("dump-model", "", "Write the fitted model to the given JSON file")
	trainingData    = flag.String("training-data", "", "Fit the state models to the given training data JSON instead of the bundled set")
	trainingDegrees = flag.Bool("training-degrees", false, "Training data angles are in degrees instead of radians")
	kdeBandwidth    = flag.Float64("kde-bandwidth", csmodel.DefaultBandwidth, "Bandwidth of the Gaussian kernel density estimator (radians)")
	gridPoints      = flag.Int("grid-points", csmodel.DefaultGridPoints, "Total number of grid points for the grid model")

	windows          intsFlag
	windowSeries     intsFlag
	bootstraps       intsFlag
	bootstrapSamples = flag.Int("bootstrap-samples", subsample.DefaultReplicates, "Number of replicates per bootstrap run")
	seed             = flag.Int64("seed", 0, "Random seed for bootstrap sampling (default: time-based)")

	precision = flag.Int("precision", results.DefaultPrecision, "Number of decimals in output values")
	resultsDB = flag.String("results-db", "", "Also archive results into the given SQLite database")
	verbose   = flag.Int("v", 0, "Verbosity: 0 warnings, 1 info, 2 debug")
	workers   = flag.Int("workers", 0, "Worker pool size (default: number of CPUs)")
)

func init() {
	flag.Var(&inputFiles, "i", "Input file with dihedral angles (repeatable)")
	flag.Var(&windows, "window", "Sliding-window inference with the given width (repeatable)")
	flag.Var(&windowSeries, "window-series", "Like --window but report every window instead of the average (repeatable)")
	flag.Var(&bootstraps, "bootstrap", "Bootstrap inference with the given sample size (repeatable; default 3 and 25 when no method is given)")
}

func main() {
	flag.Parse()
	monitoring.SetVerbosity(*verbose)

	if len(inputFiles) > 0 && *outputFile == "" {
		log.Fatal("missing argument: -o output file")
	}
	if len(inputFiles) == 0 && *outputFile != "" {
		log.Fatal("missing argument: -i input file")
	}
	if len(inputFiles) == 0 && *trainingData == "" && *dumpModel == "" {
		log.Fatal("nothing to do: provide input and output files, or fit a model with --training-data/--dump-model")
	}

	model := buildModel()
	if *dumpModel != "" {
		f, err := os.Create(*dumpModel)
		if err != nil {
			log.Fatalf("failed to create model file: %v", err)
		}
		if err := csmodel.WriteModel(f, model); err != nil {
			log.Fatalf("failed to write model: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("failed to write model: %v", err)
		}
		monitoring.Infof("wrote %s model to %s", model.Kind(), *dumpModel)
	}
	if len(inputFiles) == 0 {
		return // fit-only invocation
	}

	ens, err := ensio.Read(inputFiles, *inputFormat, *inputDegrees)
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}
	monitoring.Infof("read %d residues from %d file(s)", ens.Len(), len(inputFiles))

	specs := buildSpecs()
	opts := calculator.Options{Workers: *workers}
	opts.Seed, opts.Seeded = resolveSeed()

	sets, err := calculator.Calculate(model, ens, specs, opts)
	if err != nil {
		log.Fatalf("calculation failed: %v", err)
	}
	results.RoundAll(sets, *precision)

	format := *outputFormat
	if format == "" || format == "auto" {
		format = results.FormatFromPath(*outputFile)
	}
	out, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	if err := results.Write(out, format, sets, *precision); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
	monitoring.Infof("wrote %s results to %s", format, *outputFile)

	if *resultsDB != "" {
		archive(sets, opts)
	}
}

// buildSpecs assembles the subsampling specs in flag order: windows,
// window series, bootstraps. Without any method flags the default is a
// bootstrap run with sizes 3 and 25.
func buildSpecs() []subsample.Spec {
	var specs []subsample.Spec
	for _, w := range windows {
		specs = append(specs, subsample.Window(w, false))
	}
	for _, w := range windowSeries {
		specs = append(specs, subsample.Window(w, true))
	}
	sizes := []int(bootstraps)
	if len(specs) == 0 && len(sizes) == 0 {
		sizes = []int{3, 25}
	}
	for _, b := range sizes {
		specs = append(specs, subsample.Bootstrap(b, *bootstrapSamples, false))
	}
	return specs
}

// resolveSeed returns the bootstrap seed and whether it was set explicitly.
func resolveSeed() (int64, bool) {
	seeded := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seeded = true
		}
	})
	if seeded {
		return *seed, true
	}
	return time.Now().UnixNano(), false
}
