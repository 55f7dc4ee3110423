// Command ramachandran renders the density surface of each conformational
// state as a Ramachandran heat map. It fits (or loads) the same state model
// the propensity calculator uses and writes one PNG per state.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/constava/internal/csmodel"
	"github.com/banshee-data/constava/internal/torus"
)

var (
	outputDir       = flag.String("o", "plots", "Directory for the generated PNG files")
	loadModel       = flag.String("load-model", "", "Load a fitted model from the given JSON file")
	trainingData    = flag.String("training-data", "", "Fit the model to the given training data JSON instead of the bundled set")
	trainingDegrees = flag.Bool("training-degrees", false, "Training data angles are in degrees instead of radians")
	bandwidth       = flag.Float64("kde-bandwidth", csmodel.DefaultBandwidth, "Bandwidth of the Gaussian kernel density estimator (radians)")
	resolution      = flag.Int("resolution", 120, "Number of cells per axis in the rendered map")
)

// densityGrid exposes one state's density surface to the heat map plotter.
// Cells are centered the same way the grid model centers its nodes.
type densityGrid struct {
	model csmodel.Model
	state int
	n     int
}

func (g densityGrid) Dims() (int, int) { return g.n, g.n }

func (g densityGrid) X(c int) float64 { return torus.NodeAngle(c, g.n) }

func (g densityGrid) Y(r int) float64 { return torus.NodeAngle(r, g.n) }

func (g densityGrid) Z(c, r int) float64 {
	d := g.model.Densities(torus.NodeAngle(c, g.n), torus.NodeAngle(r, g.n))
	return d[g.state]
}

func main() {
	flag.Parse()

	model, err := buildModel()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	for i, label := range model.Labels() {
		file := filepath.Join(*outputDir, fileName(string(label)))
		if err := renderState(model, i, string(label), file); err != nil {
			log.Fatalf("state %q: %v", label, err)
		}
		fmt.Printf("wrote %s\n", file)
	}
}

func buildModel() (csmodel.Model, error) {
	if *loadModel != "" {
		f, err := os.Open(*loadModel)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return csmodel.ReadModel(f)
	}

	var (
		labels []csmodel.StateLabel
		data   csmodel.TrainingData
		err    error
	)
	if *trainingData != "" {
		f, openErr := os.Open(*trainingData)
		if openErr != nil {
			return nil, openErr
		}
		defer f.Close()
		labels, data, err = csmodel.ParseTrainingJSON(f, *trainingDegrees)
	} else {
		labels, data, err = csmodel.DefaultTrainingData()
	}
	if err != nil {
		return nil, err
	}
	return csmodel.Fit(csmodel.KindKDE, labels, data, *bandwidth, 0)
}

func renderState(model csmodel.Model, state int, label, file string) error {
	grid := densityGrid{model: model, state: state, n: *resolution}
	heat := plotter.NewHeatMap(grid, palette.Heat(16, 1))

	p := plot.New()
	p.Title.Text = label
	p.X.Label.Text = "phi (rad)"
	p.Y.Label.Text = "psi (rad)"
	p.Add(heat)

	return p.Save(6*vg.Inch, 6*vg.Inch, file)
}

// fileName derives a filesystem-friendly PNG name from a state label.
func fileName(label string) string {
	s := strings.ToLower(label)
	s = strings.ReplaceAll(s, " ", "_")
	return s + ".png"
}
