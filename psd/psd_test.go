package psd

import (
	"errors"
	"math"
	"testing"

	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/rng"
)

func monodisperse(diameterUm float64) []mixspec.PSDPoint {
	return []mixspec.PSDPoint{{DiameterUm: diameterUm, CumulativeVolumeFrac: 1.0}}
}

func TestNewRejectsTooFineDistribution(t *testing.T) {
	_, err := New(monodisperse(0.01), 1.0) // 0.005 voxel radius at 1 µm/voxel
	if !errors.Is(err, ErrPSDTooSmall) {
		t.Fatalf("New() = %v, want ErrPSDTooSmall", err)
	}
}

func TestNewRejectsNonTerminatingCurve(t *testing.T) {
	pts := []mixspec.PSDPoint{
		{DiameterUm: 1, CumulativeVolumeFrac: 0.5},
		{DiameterUm: 10, CumulativeVolumeFrac: 0.9},
	}
	if _, err := New(pts, 1.0); err == nil {
		t.Fatal("New() = nil, want error for curve not ending at 1.0")
	}
}

func TestSampleRadiusVoxelsMonodisperse(t *testing.T) {
	s, err := New(monodisperse(20), 1.0)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	for _, u := range []float64{0.01, 0.5, 0.999} {
		r := s.SampleRadiusVoxels(u, 1.0)
		if r != 10 {
			t.Errorf("SampleRadiusVoxels(%v) = %d, want 10", u, r)
		}
	}
}

func TestSampleHistogramConvergesToDistribution(t *testing.T) {
	pts := []mixspec.PSDPoint{
		{DiameterUm: 2, CumulativeVolumeFrac: 0.5},
		{DiameterUm: 20, CumulativeVolumeFrac: 1.0},
	}
	s, err := New(pts, 1.0)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	source := rng.New(-777)
	const n = 200000
	radii := s.Sample(source, 1.0, n)
	small := 0
	for _, r := range radii {
		if r <= 5 { // radius for diameters in the lower half of the curve
			small++
		}
	}
	frac := float64(small) / float64(n)
	if math.Abs(frac-0.5) > 0.02 {
		t.Fatalf("fraction of small radii = %v, want close to 0.5", frac)
	}
}

func TestMedianInterpolatesHalfwayPoint(t *testing.T) {
	pts := []mixspec.PSDPoint{
		{DiameterUm: 2, CumulativeVolumeFrac: 0.0},
		{DiameterUm: 10, CumulativeVolumeFrac: 1.0},
	}
	s, err := New(pts, 1.0)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if got := s.Median(); math.Abs(got-6) > 1e-9 {
		t.Errorf("Median() = %v, want 6", got)
	}
}

func TestMinRadiusVoxelsReflectsFinestBin(t *testing.T) {
	s, err := New(monodisperse(4), 1.0) // r=2 voxels
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if got := s.MinRadiusVoxels(); got != 2 {
		t.Errorf("MinRadiusVoxels() = %d, want 2", got)
	}
}
