package aggregate

import (
	"testing"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

func TestPackPlacesCoarseAndFineAndMarksITZ(t *testing.T) {
	lat := lattice.New(40, 40, 40, 1000.0) // mm/voxel scale, 1 mm/voxel
	gradings := []mixspec.AggregateGrading{
		{DiameterUm: 12000, VolumeFraction: 0.3, Coarse: true},
		{DiameterUm: 4000, VolumeFraction: 0.15, Coarse: false},
	}
	res, err := Pack(lat, gradings, Options{}, rng.New(-21))
	if err != nil {
		t.Fatalf("Pack() = %v", err)
	}
	if res.CoarsePlaced == 0 {
		t.Error("Pack() placed no coarse aggregate")
	}
	if res.FinePlaced == 0 {
		t.Error("Pack() placed no fine aggregate")
	}
	if lat.CountPhase(phase.ITZ) == 0 {
		t.Error("Pack() marked no ITZ voxels")
	}
	if lat.CountPhase(phase.COARSEAGG) == 0 {
		t.Error("Pack() left no COARSEAGG voxels on the lattice")
	}
}

func TestPackDefaultsITZThickness(t *testing.T) {
	lat := lattice.New(20, 20, 20, 1000.0)
	gradings := []mixspec.AggregateGrading{
		{DiameterUm: 8000, VolumeFraction: 0.25, Coarse: true},
	}
	if _, err := Pack(lat, gradings, Options{ITZThicknessVox: 0}, rng.New(-22)); err != nil {
		t.Fatalf("Pack() = %v", err)
	}
	if lat.CountPhase(phase.ITZ) == 0 {
		t.Error("Pack() with default ITZ thickness marked no ITZ voxels")
	}
}
