// Command propensity-report turns a propensity results CSV into a
// self-contained HTML page with a stacked per-residue propensity chart and a
// conformational state variability chart.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var (
	inputFile  = flag.String("i", "", "Results CSV produced by constava")
	outputFile = flag.String("o", "report.html", "Output HTML file")
	method     = flag.String("method", "", "Method label to plot (default: first method in the file)")
)

// resultRow is one parsed averaged record from the results CSV.
type resultRow struct {
	method       string
	resIndex     int
	resName      string
	propensities []float64
	variability  float64
}

func main() {
	flag.Parse()
	if *inputFile == "" {
		log.Fatal("missing argument: -i results CSV")
	}

	states, rows, err := readResults(*inputFile)
	if err != nil {
		log.Fatalf("failed to read results: %v", err)
	}
	rows = filterMethod(rows, *method)
	if len(rows) == 0 {
		log.Fatalf("no averaged records for method %q in %s", *method, *inputFile)
	}

	page := components.NewPage()
	page.PageTitle = "Conformational State Propensities"
	page.AddCharts(propensityChart(states, rows), variabilityChart(rows))

	out, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	if err := page.Render(out); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("failed to write report: %v", err)
	}
	fmt.Printf("wrote %s (%d residues, method %s)\n", *outputFile, len(rows), rows[0].method)
}

// readResults parses the CSV written by the calculator. Series records and
// records without propensities (insufficient observations) are skipped; the
// chart plots the per-residue averages only.
func readResults(path string) ([]string, []resultRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 1 {
		return nil, nil, fmt.Errorf("%s: empty results file", path)
	}

	header := records[0]
	// Method, SeriesIndex, ResIndex, ResName, <states...>, Variability, Status
	if len(header) < 7 {
		return nil, nil, fmt.Errorf("%s: unrecognized results header", path)
	}
	states := header[4 : len(header)-2]

	var rows []resultRow
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, nil, fmt.Errorf("%s: ragged record %q", path, rec)
		}
		if rec[1] != "" || rec[len(rec)-1] != "ok" {
			continue
		}
		resIndex, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: bad residue index %q", path, rec[2])
		}
		row := resultRow{method: rec[0], resIndex: resIndex, resName: rec[3]}
		for _, cell := range rec[4 : len(rec)-2] {
			p, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: bad propensity %q", path, cell)
			}
			row.propensities = append(row.propensities, p)
		}
		if row.variability, err = strconv.ParseFloat(rec[len(rec)-2], 64); err != nil {
			return nil, nil, fmt.Errorf("%s: bad variability %q", path, rec[len(rec)-2])
		}
		rows = append(rows, row)
	}
	return states, rows, nil
}

func filterMethod(rows []resultRow, method string) []resultRow {
	if len(rows) == 0 {
		return nil
	}
	if method == "" {
		method = rows[0].method
	}
	var kept []resultRow
	for _, row := range rows {
		if row.method == method {
			kept = append(kept, row)
		}
	}
	return kept
}

func residueLabels(rows []resultRow) []string {
	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = fmt.Sprintf("%s%d", row.resName, row.resIndex)
	}
	return labels
}

func propensityChart(states []string, rows []resultRow) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Conformational State Propensities", Subtitle: fmt.Sprintf("method %s", rows[0].method)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Propensity"}),
	)

	bar.SetXAxis(residueLabels(rows))
	for s, state := range states {
		data := make([]opts.BarData, len(rows))
		for i, row := range rows {
			data[i] = opts.BarData{Value: row.propensities[s]}
		}
		bar.AddSeries(state, data, charts.WithBarChartOpts(opts.BarChart{Stack: "propensity"}))
	}
	return bar
}

func variabilityChart(rows []resultRow) *charts.Bar {
	data := make([]opts.BarData, len(rows))
	for i, row := range rows {
		data[i] = opts.BarData{Value: row.variability}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Conformational State Variability"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Variability"}),
	)
	bar.SetXAxis(residueLabels(rows))
	bar.AddSeries("variability", data)
	return bar
}
