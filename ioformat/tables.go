package ioformat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/phase"
)

// psdRow is the CSV row shape of a PSD file: one header line, then
// (diameter, cumulative volume fraction) pairs.
type psdRow struct {
	DiameterUm           float64 `csv:"diameter_um"`
	CumulativeVolumeFrac float64 `csv:"cumulative_volume_fraction"`
}

// ReadPSD parses a PSD CSV at path and validates that the cumulative
// column is non-decreasing and terminates at 1.0.
func ReadPSD(path string) ([]mixspec.PSDPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: %w", err)
	}
	defer f.Close()

	var rows []psdRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, &InputFormatError{Path: path, Line: 1, Msg: err.Error()}
	}
	if len(rows) == 0 {
		return nil, &InputFormatError{Path: path, Line: 1, Msg: "no PSD rows"}
	}

	out := make([]mixspec.PSDPoint, len(rows))
	prev := -1.0
	for i, r := range rows {
		if r.CumulativeVolumeFrac < prev {
			return nil, &InputFormatError{Path: path, Line: i + 2,
				Msg: fmt.Sprintf("cumulative volume fraction %v decreases from %v", r.CumulativeVolumeFrac, prev)}
		}
		prev = r.CumulativeVolumeFrac
		out[i] = mixspec.PSDPoint{DiameterUm: r.DiameterUm, CumulativeVolumeFrac: r.CumulativeVolumeFrac}
	}
	if last := out[len(out)-1].CumulativeVolumeFrac; last < 1.0-1e-9 || last > 1.0+1e-9 {
		return nil, &InputFormatError{Path: path, Line: len(rows) + 1,
			Msg: fmt.Sprintf("last cumulative volume fraction = %v, want 1.0", last)}
	}
	return out, nil
}

// WritePSD writes points to path as a PSD CSV.
func WritePSD(path string, points []mixspec.PSDPoint) error {
	rows := make([]psdRow, len(points))
	for i, p := range points {
		rows[i] = psdRow{DiameterUm: p.DiameterUm, CumulativeVolumeFrac: p.CumulativeVolumeFrac}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioformat: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("ioformat: writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadCorrelation parses a two-point correlation kernel file: one header
// line holding the integer extent R, then R+1 rows "r S(r)" for r = 0..R.
// Rows may separate fields with commas or whitespace.
func ReadCorrelation(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	if !sc.Scan() {
		return nil, &InputFormatError{Path: path, Line: 1, Msg: "empty correlation file"}
	}
	line++
	extent, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || extent < 0 {
		return nil, &InputFormatError{Path: path, Line: line, Msg: "bad extent " + sc.Text()}
	}

	out := make([]float64, 0, extent+1)
	for r := 0; r <= extent; r++ {
		if !sc.Scan() {
			return nil, &InputFormatError{Path: path, Line: line, Msg: "truncated correlation table"}
		}
		line++
		fields := splitFields(sc.Text())
		if len(fields) != 2 {
			return nil, &InputFormatError{Path: path, Line: line, Msg: "want \"r S(r)\", got " + sc.Text()}
		}
		gotR, err := strconv.Atoi(fields[0])
		if err != nil || gotR != r {
			return nil, &InputFormatError{Path: path, Line: line, Msg: fmt.Sprintf("want radius %d, got %s", r, fields[0])}
		}
		s, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &InputFormatError{Path: path, Line: line, Msg: "bad S(r) " + fields[1]}
		}
		out = append(out, s)
	}
	return out, nil
}

func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// pfcOrder fixes the six-line row order of a statistics/PFC file.
var pfcOrder = [6]phase.Phase{phase.C3S, phase.C2S, phase.C3A, phase.C4AF, phase.K2SO4, phase.NA2SO4}

// PFCRow pairs one clinker phase with its measured volume and surface
// fractions from an SEM reference cement.
type PFCRow struct {
	Phase           phase.Phase
	VolumeFraction  float64
	SurfaceFraction float64
}

// ReadPFC parses a statistics file: six lines, each
// "volume_fraction surface_fraction", in the fixed order C3S, C2S, C3A,
// C4AF, K2SO4, NA2SO4.
func ReadPFC(path string) ([6]PFCRow, error) {
	var out [6]PFCRow
	f, err := os.Open(path)
	if err != nil {
		return out, fmt.Errorf("ioformat: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for i := 0; i < 6; i++ {
		if !sc.Scan() {
			return out, &InputFormatError{Path: path, Line: line, Msg: "truncated statistics file, want 6 rows"}
		}
		line++
		fields := splitFields(sc.Text())
		if len(fields) != 2 {
			return out, &InputFormatError{Path: path, Line: line, Msg: "want \"volume_fraction surface_fraction\""}
		}
		vf, err1 := strconv.ParseFloat(fields[0], 64)
		sf, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return out, &InputFormatError{Path: path, Line: line, Msg: "bad fraction in " + sc.Text()}
		}
		out[i] = PFCRow{Phase: pfcOrder[i], VolumeFraction: vf, SurfaceFraction: sf}
	}
	return out, nil
}
