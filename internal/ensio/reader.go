// Package ensio reads dihedral-angle input files into ensemble carriers.
// Two formats are supported: the dihedral CSV layout
// (#Frame,ResIndex,ResName,Phi[rad],Psi[rad]) and the per-residue
// ramaPhiPsi<RES><N>.xvg files written by GROMACS' `gmx chi -rama`.
package ensio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/banshee-data/constava/internal/ensemble"
	"github.com/banshee-data/constava/internal/monitoring"
)

// Input formats.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXVG  = "xvg"
)

// FormatError reports input that does not match any known file structure.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized input file %s: %s", e.Path, e.Reason)
}

var xvgNameRE = regexp.MustCompile(`^ramaPhiPsi([A-Z][A-Z0-9][A-Z0-9])([0-9]+)\.xvg$`)

// DetectFormat inspects the input paths and picks csv or xvg.
func DetectFormat(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no input files")
	}
	allXvg := true
	for _, p := range paths {
		if !xvgNameRE.MatchString(filepath.Base(p)) {
			allXvg = false
			break
		}
	}
	if allXvg {
		return FormatXVG, nil
	}
	if csvHeaderOK(paths[0]) {
		return FormatCSV, nil
	}
	return "", &FormatError{Path: paths[0], Reason: "neither a dihedral CSV nor a gmx chi rama file"}
}

// Read loads all input files in the given format ("auto" detects) and
// returns the assembled ensemble in radians.
func Read(paths []string, format string, degrees bool) (*ensemble.Ensemble, error) {
	if format == "" || format == FormatAuto {
		detected, err := DetectFormat(paths)
		if err != nil {
			return nil, err
		}
		format = detected
		monitoring.Debugf("detected input format %q", format)
	}
	switch format {
	case FormatCSV:
		return ReadCSV(paths, degrees)
	case FormatXVG:
		return ReadGmxChi(paths, degrees)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

func csvHeaderOK(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	cols := strings.Split(strings.TrimSpace(line), ",")
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[strings.TrimSpace(c)] = true
	}
	return have["#Frame"] && have["ResIndex"] && have["ResName"] &&
		(have["Phi[rad]"] || have["Phi[deg]"]) &&
		(have["Psi[rad]"] || have["Psi[deg]"])
}

// ReadCSV reads one or more dihedral CSV files. Rows are grouped per
// (ResIndex, ResName) preserving frame order; multiple files concatenate
// observations (e.g. several trajectory chunks).
func ReadCSV(paths []string, degrees bool) (*ensemble.Ensemble, error) {
	unit := "rad"
	if degrees {
		unit = "deg"
	}
	phiCol := fmt.Sprintf("Phi[%s]", unit)
	psiCol := fmt.Sprintf("Psi[%s]", unit)

	type key struct {
		index int
		name  string
	}
	series := make(map[key]ensemble.AngleSeries)
	var order []key

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		r := csv.NewReader(f)
		r.TrimLeadingSpace = true

		header, err := r.Read()
		if err != nil {
			f.Close()
			return nil, &FormatError{Path: path, Reason: "cannot read header"}
		}
		col := make(map[string]int, len(header))
		for i, name := range header {
			col[strings.TrimSpace(name)] = i
		}
		for _, want := range []string{"ResIndex", "ResName", phiCol, psiCol} {
			if _, ok := col[want]; !ok {
				f.Close()
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("missing column %q", want)}
			}
		}

		rows, err := r.ReadAll()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for _, row := range rows {
			resIdx, err := strconv.Atoi(strings.TrimSpace(row[col["ResIndex"]]))
			if err != nil {
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("bad ResIndex %q", row[col["ResIndex"]])}
			}
			phi, err := strconv.ParseFloat(strings.TrimSpace(row[col[phiCol]]), 64)
			if err != nil {
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("bad %s %q", phiCol, row[col[phiCol]])}
			}
			psi, err := strconv.ParseFloat(strings.TrimSpace(row[col[psiCol]]), 64)
			if err != nil {
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("bad %s %q", psiCol, row[col[psiCol]])}
			}
			k := key{index: resIdx, name: strings.TrimSpace(row[col["ResName"]])}
			if _, seen := series[k]; !seen {
				order = append(order, k)
			}
			series[k] = append(series[k], ensemble.DihedralSample{Phi: phi, Psi: psi})
		}
	}

	residues := make([]ensemble.Residue, 0, len(order))
	for _, k := range order {
		angles := series[k]
		if degrees {
			angles = ensemble.DegreesToRadians(angles)
		}
		if err := validateSeries(k.name, k.index, angles); err != nil {
			return nil, err
		}
		residues = append(residues, ensemble.Residue{Name: k.name, Position: k.index, Angles: angles})
	}
	return ensemble.New(residues...), nil
}

// ReadGmxChi reads one ramaPhiPsi<RES><N>.xvg file per residue; comment
// lines starting with '#' or '@' are skipped and the first two columns are
// (phi, psi).
func ReadGmxChi(paths []string, degrees bool) (*ensemble.Ensemble, error) {
	residues := make([]ensemble.Residue, 0, len(paths))
	for _, path := range paths {
		m := xvgNameRE.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			return nil, &FormatError{Path: path, Reason: "filename does not match ramaPhiPsi<RES><N>.xvg"}
		}
		name := m[1]
		position, _ := strconv.Atoi(m[2])

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		var angles ensemble.AngleSeries
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "@") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				f.Close()
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("data line with %d columns", len(fields))}
			}
			phi, errPhi := strconv.ParseFloat(fields[0], 64)
			psi, errPsi := strconv.ParseFloat(fields[1], 64)
			if errPhi != nil || errPsi != nil {
				f.Close()
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("bad data line %q", line)}
			}
			angles = append(angles, ensemble.DihedralSample{Phi: phi, Psi: psi})
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		f.Close()

		if degrees {
			angles = ensemble.DegreesToRadians(angles)
		}
		if err := validateSeries(name, position, angles); err != nil {
			return nil, err
		}
		residues = append(residues, ensemble.Residue{Name: name, Position: position, Angles: angles})
	}
	return ensemble.New(residues...), nil
}

func validateSeries(name string, position int, angles ensemble.AngleSeries) error {
	if err := ensemble.CheckRadianRange(angles); err != nil {
		return fmt.Errorf("residue %s%d: %w", name, position, err)
	}
	if ensemble.SuspiciouslySmall(angles) {
		monitoring.Logf("warning: residue %s%d dihedrals are very small; check that degrees were converted to radians only once", name, position)
	}
	return nil
}
