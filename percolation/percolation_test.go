package percolation

import (
	"testing"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
)

func TestPercolatesAllPorosity(t *testing.T) {
	lat := lattice.New(10, 10, 10, 1.0)
	lat.Fill(phase.POROSITY)
	target := map[phase.Phase]bool{phase.POROSITY: true}
	if !Percolates(lat, target) {
		t.Fatal("Percolates() = false for an all-porosity lattice, want true")
	}
}

func TestPercolatesBlockedBySolidSlab(t *testing.T) {
	lat := lattice.New(10, 10, 10, 1.0)
	lat.Fill(phase.POROSITY)
	for x := 0; x < lat.X; x++ {
		for y := 0; y < lat.Y; y++ {
			lat.Set(x, y, 5, phase.C3S)
		}
	}
	target := map[phase.Phase]bool{phase.POROSITY: true}
	if Percolates(lat, target) {
		t.Fatal("Percolates() = true across a full solid slab at z=5, want false")
	}
}

func TestSurfaceAreaCountsExposedFaces(t *testing.T) {
	lat := lattice.New(5, 5, 5, 1.0)
	lat.Fill(phase.POROSITY)
	lat.Set(2, 2, 2, phase.C3S)
	if got := SurfaceAreaVoxels(lat); got != 6 {
		t.Fatalf("SurfaceAreaVoxels() = %d, want 6 for an isolated solid voxel", got)
	}
}

func TestPoreSizeDistributionNonEmpty(t *testing.T) {
	lat := lattice.New(12, 12, 12, 1.0)
	lat.Fill(phase.POROSITY)
	h := PoreSizeDistribution(lat, 1)
	if len(h.Counts) == 0 {
		t.Fatal("PoreSizeDistribution() returned an empty histogram for an all-porosity lattice")
	}
	if h.Mean <= 0 {
		t.Fatalf("PoreSizeDistribution().Mean = %v, want > 0", h.Mean)
	}
}

func TestPhaseFraction(t *testing.T) {
	lat := lattice.New(10, 10, 10, 1.0)
	lat.Fill(phase.POROSITY)
	for i := 0; i < 100; i++ {
		lat.Set(i/10, i%10, 0, phase.C3S)
	}
	if got := PhaseFraction(lat, phase.C3S); got < 0.09 || got > 0.11 {
		t.Fatalf("PhaseFraction(C3S) = %v, want ~0.1", got)
	}
}
