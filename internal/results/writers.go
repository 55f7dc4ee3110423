package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/constava/internal/version"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

// FormatFromPath picks an output format from the file extension; csv is the
// default for unknown extensions.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".tsv":
		return FormatTSV
	default:
		return FormatCSV
	}
}

// Write emits all sets in the named format.
func Write(w io.Writer, format string, sets []*Set, precision int) error {
	switch format {
	case FormatCSV:
		return writeSeparated(w, sets, precision, ',')
	case FormatTSV:
		return writeSeparated(w, sets, precision, '\t')
	case FormatJSON:
		return WriteJSON(w, sets, precision)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteCSV emits comma-separated records, one row per entry. The header
// lists the state labels of the first set; all sets of one run share labels.
func WriteCSV(w io.Writer, sets []*Set, precision int) error {
	return writeSeparated(w, sets, precision, ',')
}

// WriteTSV is WriteCSV with tab separators.
func WriteTSV(w io.Writer, sets []*Set, precision int) error {
	return writeSeparated(w, sets, precision, '\t')
}

func writeSeparated(w io.Writer, sets []*Set, precision int, sep rune) error {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep

	if len(sets) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"#Method", "SeriesIndex", "ResIndex", "ResName"}
	for _, label := range sets[0].StateLabels {
		header = append(header, string(label))
	}
	header = append(header, "Variability", "Status")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, set := range sets {
		for _, e := range set.Entries {
			row := make([]string, 0, len(header))
			row = append(row, set.Method)
			if e.SeriesIndex >= 0 {
				row = append(row, strconv.Itoa(e.SeriesIndex))
			} else {
				row = append(row, "")
			}
			row = append(row, strconv.Itoa(e.ResIndex), e.ResName)
			if e.Status == StatusOK {
				for _, p := range e.Propensities {
					row = append(row, strconv.FormatFloat(p, 'f', precision, 64))
				}
				row = append(row, strconv.FormatFloat(e.Variability, 'f', precision, 64))
			} else {
				for range set.StateLabels {
					row = append(row, "")
				}
				row = append(row, "")
			}
			row = append(row, string(e.Status))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRecord struct {
	Method       string             `json:"method"`
	SeriesIndex  *int               `json:"series_index"`
	ResIndex     int                `json:"res_index"`
	ResName      string             `json:"res_name"`
	Propensities map[string]float64 `json:"propensities,omitempty"`
	Variability  *float64           `json:"variability,omitempty"`
	Status       Status             `json:"status"`
}

type jsonDocument struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	Created string       `json:"created"`
	States  []string     `json:"states"`
	Results []jsonRecord `json:"results"`
}

// WriteJSON emits one flat JSON document with run metadata and all records.
func WriteJSON(w io.Writer, sets []*Set, precision int) error {
	doc := jsonDocument{
		Tool:    version.Name,
		Version: version.Version,
		Created: time.Now().Format(time.RFC3339),
	}
	if len(sets) > 0 {
		for _, label := range sets[0].StateLabels {
			doc.States = append(doc.States, string(label))
		}
	}
	for _, set := range sets {
		for _, e := range set.Entries {
			rec := jsonRecord{
				Method:   set.Method,
				ResIndex: e.ResIndex,
				ResName:  e.ResName,
				Status:   e.Status,
			}
			if e.SeriesIndex >= 0 {
				idx := e.SeriesIndex
				rec.SeriesIndex = &idx
			}
			if e.Status == StatusOK {
				rec.Propensities = make(map[string]float64, len(e.Propensities))
				for i, p := range e.Propensities {
					rec.Propensities[string(set.StateLabels[i])] = p
				}
				v := e.Variability
				rec.Variability = &v
			}
			doc.Results = append(doc.Results, rec)
		}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}
