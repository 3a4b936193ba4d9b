// Package ioformat reads and writes the external file formats the engine
// exchanges with its collaborators: the microstructure image file, PSD
// tables, correlation kernels, clinker statistics, and the key-value
// parameter file.
package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
)

// CurrentImageVersion is stamped into every written image header. Files at
// this version (and any versioned file) store phase IDs z-fastest; only
// headerless legacy files use the old x-fastest order.
const CurrentImageVersion = 7.0

// legacy (headerless) files are always a 100^3 cube at 1.0 um/voxel.
const (
	legacySize         = 100
	legacyResolutionUm = 1.0
)

// InputFormatError reports a malformed input file together with the line it
// was detected on.
type InputFormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("ioformat: %s:%d: %s", e.Path, e.Line, e.Msg)
}

// PhaseMap is a read-only copy of a lattice state at a given cycle, the
// unit of exchange with renderers and other downstream consumers.
type PhaseMap struct {
	X, Y, Z      int
	ResolutionUm float64
	Cycle        int
	Voxels       []phase.Phase // z-fastest flat order
}

// Snapshot copies the lattice into a PhaseMap tagged with the given cycle.
func Snapshot(lat *lattice.Lattice, cycle int) PhaseMap {
	return PhaseMap{
		X: lat.X, Y: lat.Y, Z: lat.Z,
		ResolutionUm: lat.ResolutionUm(),
		Cycle:        cycle,
		Voxels:       append([]phase.Phase(nil), lat.Raw()...),
	}
}

// WriteImage writes pm to w in the versioned image format. Phase IDs are
// always written z-fastest, whatever order the file they came from used.
func WriteImage(w io.Writer, pm PhaseMap) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Version: %.1f\n", CurrentImageVersion)
	fmt.Fprintf(bw, "X_Size: %d\n", pm.X)
	fmt.Fprintf(bw, "Y_Size: %d\n", pm.Y)
	fmt.Fprintf(bw, "Z_Size: %d\n", pm.Z)
	fmt.Fprintf(bw, "Image_Resolution: %.4f\n", pm.ResolutionUm)
	for _, p := range pm.Voxels {
		if _, err := fmt.Fprintf(bw, "%d\n", int(p)); err != nil {
			return fmt.Errorf("ioformat: writing image: %w", err)
		}
	}
	return bw.Flush()
}

// WriteImageFile writes pm to path.
func WriteImageFile(path string, pm PhaseMap) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioformat: %w", err)
	}
	defer f.Close()
	if err := WriteImage(f, pm); err != nil {
		return err
	}
	return f.Close()
}

// ReadImage parses a microstructure image from r into a fresh lattice. Path
// is used only for error reporting. A header beginning with "Version:"
// selects the current z-fastest layout; any other first line means a legacy
// headerless 100^3 file whose IDs are read directly, x-fastest.
func ReadImage(r io.Reader, path string) (*lattice.Lattice, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0

	next := func() (string, bool) {
		for sc.Scan() {
			line++
			s := strings.TrimSpace(sc.Text())
			if s != "" {
				return s, true
			}
		}
		return "", false
	}

	first, ok := next()
	if !ok {
		return nil, &InputFormatError{Path: path, Line: line, Msg: "empty image file"}
	}

	if !strings.HasPrefix(first, "Version:") {
		return readLegacyImage(first, next, path, &line)
	}

	x, y, z := 0, 0, 0
	res := 0.0
	for {
		s, ok := next()
		if !ok {
			return nil, &InputFormatError{Path: path, Line: line, Msg: "truncated header"}
		}
		key, val, found := strings.Cut(s, ":")
		if !found {
			// First data line: header is complete.
			return readVersionedBody(s, next, path, &line, x, y, z, res)
		}
		val = strings.TrimSpace(val)
		switch key {
		case "X_Size":
			x = mustAtoi(val)
		case "Y_Size":
			y = mustAtoi(val)
		case "Z_Size":
			z = mustAtoi(val)
		case "Image_Size":
			x, y, z = mustAtoi(val), mustAtoi(val), mustAtoi(val)
		case "Image_Resolution":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, &InputFormatError{Path: path, Line: line, Msg: "bad Image_Resolution: " + val}
			}
			res = f
		default:
			return nil, &InputFormatError{Path: path, Line: line, Msg: "unknown header key " + key}
		}
	}
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// readVersionedBody fills a lattice in z-fastest order, starting from the
// first data line already consumed by the header loop.
func readVersionedBody(firstData string, next func() (string, bool), path string, line *int, x, y, z int, res float64) (*lattice.Lattice, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, &InputFormatError{Path: path, Line: *line, Msg: "header missing lattice dimensions"}
	}
	if res <= 0 {
		res = legacyResolutionUm
	}
	lat := lattice.New(x, y, z, res)

	s := firstData
	for i := 0; i < x; i++ {
		for j := 0; j < y; j++ {
			for k := 0; k < z; k++ {
				if i+j+k > 0 {
					var ok bool
					s, ok = next()
					if !ok {
						return nil, &InputFormatError{Path: path, Line: *line, Msg: "truncated image body"}
					}
				}
				p, err := parsePhaseID(s)
				if err != nil {
					return nil, &InputFormatError{Path: path, Line: *line, Msg: err.Error()}
				}
				lat.Set(i, j, k, p)
			}
		}
	}
	return lat, nil
}

// readLegacyImage handles headerless pre-v3 files: a 100^3 cube at 1.0
// um/voxel whose phase IDs begin on the first line, in the historical
// x-fastest order.
func readLegacyImage(firstData string, next func() (string, bool), path string, line *int) (*lattice.Lattice, error) {
	lat := lattice.New(legacySize, legacySize, legacySize, legacyResolutionUm)

	s := firstData
	for k := 0; k < legacySize; k++ {
		for j := 0; j < legacySize; j++ {
			for i := 0; i < legacySize; i++ {
				if i+j+k > 0 {
					var ok bool
					s, ok = next()
					if !ok {
						return nil, &InputFormatError{Path: path, Line: *line, Msg: "truncated legacy image body"}
					}
				}
				p, err := parsePhaseID(s)
				if err != nil {
					return nil, &InputFormatError{Path: path, Line: *line, Msg: err.Error()}
				}
				lat.Set(i, j, k, p)
			}
		}
	}
	return lat, nil
}

func parsePhaseID(s string) (phase.Phase, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad phase id %q", s)
	}
	if n < 0 || n >= int(phase.NumPhases) {
		return 0, fmt.Errorf("phase id %d outside catalogue", n)
	}
	return phase.Phase(n), nil
}

// ReadImageFile parses the microstructure image at path.
func ReadImageFile(path string) (*lattice.Lattice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: %w", err)
	}
	defer f.Close()
	return ReadImage(f, path)
}
