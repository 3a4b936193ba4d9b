package particle

import (
	"testing"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

func monodispersePSD(diameterUm float64) []mixspec.PSDPoint {
	return []mixspec.PSDPoint{{DiameterUm: diameterUm, CumulativeVolumeFrac: 1.0}}
}

func TestPlaceReachesTargetVolumeFraction(t *testing.T) {
	lat := lattice.New(40, 40, 40, 1.0)
	world := NewWorld()
	req := Request{
		Kind:             KindCement,
		PSD:              monodispersePSD(6), // r=3 voxels
		TargetVolumeFrac: 0.2,
		MonoPhase:        phase.C3S,
		IsMonophase:      true,
	}
	res, err := Place(lat, world, req, Options{}, rng.New(-1))
	if err != nil {
		t.Fatalf("Place() = %v", err)
	}
	if res.Placed == 0 {
		t.Fatal("Place() placed 0 particles")
	}
	frac := float64(res.AchievedVolume) / float64(lat.Len())
	if frac < 0.1 {
		t.Fatalf("achieved volume fraction %.4f, want at least 0.1", frac)
	}
}

func TestPlaceNoOverlap(t *testing.T) {
	lat := lattice.New(30, 30, 30, 1.0)
	world := NewWorld()
	req := Request{
		Kind:             KindCement,
		PSD:              monodispersePSD(4),
		TargetVolumeFrac: 0.15,
		MonoPhase:        phase.C3S,
		IsMonophase:      true,
	}
	if _, err := Place(lat, world, req, Options{}, rng.New(-2)); err != nil {
		t.Fatalf("Place() = %v", err)
	}
	// Every solid voxel must belong to exactly one particle id.
	seen := map[int32]int{}
	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if p.IsSolid() {
			id := lat.GetParticleID(x, y, z)
			if id < 0 {
				t.Fatalf("solid voxel (%d,%d,%d) has no particle id", x, y, z)
			}
			seen[id]++
		}
	})
	if len(seen) == 0 {
		t.Fatal("no solid voxels recorded a particle id")
	}
}

func TestPlaceRealShapesNoOverlap(t *testing.T) {
	lat := lattice.New(30, 30, 30, 1.0)
	world := NewWorld()
	req := Request{
		Kind:             KindCement,
		Shape:            ShapeReal,
		PSD:              monodispersePSD(8), // r=4 voxels
		TargetVolumeFrac: 0.12,
		MonoPhase:        phase.C3S,
		IsMonophase:      true,
	}
	res, err := Place(lat, world, req, Options{}, rng.New(-8))
	if err != nil {
		t.Fatalf("Place() = %v", err)
	}
	if res.Placed == 0 {
		t.Fatal("Place() placed 0 real-shape particles")
	}
	// Every solid voxel belongs to exactly one particle, and at least one
	// grain must be non-spherical: its footprint smaller than the full
	// digital sphere of its nominal radius.
	solid := 0
	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if !p.IsSolid() {
			return
		}
		solid++
		if lat.GetParticleID(x, y, z) < 0 {
			t.Fatalf("solid voxel (%d,%d,%d) has no particle id", x, y, z)
		}
	})
	if solid != res.AchievedVolume {
		t.Fatalf("painted %d solid voxels, placer reported %d", solid, res.AchievedVolume)
	}
	if solid >= res.Placed*sphereVolume(4) {
		t.Errorf("total footprint %d voxels over %d particles is not smaller than full spheres", solid, res.Placed)
	}
}

func TestRealFootprintDigitizesWithinBounds(t *testing.T) {
	source := rng.New(-9)
	for i := 0; i < 20; i++ {
		fp := realFootprint(4, 0, source)
		if len(fp.offsets) == 0 {
			t.Fatal("real footprint digitized to nothing")
		}
		if len(fp.offsets) > sphereVolume(4) {
			t.Fatalf("mask of %d voxels exceeds its bounding sphere (%d)", len(fp.offsets), sphereVolume(4))
		}
		for _, o := range fp.offsets {
			for axis := 0; axis < 3; axis++ {
				if o[axis] < -4 || o[axis] > 4 {
					t.Fatalf("offset %v escapes the nominal radius", o)
				}
			}
		}
	}
}

func TestPlaceInfeasibleForImpossibleFraction(t *testing.T) {
	lat := lattice.New(8, 8, 8, 1.0)
	world := NewWorld()
	req := Request{
		Kind:             KindCement,
		PSD:              monodispersePSD(10), // r=5, far too large relative to the 8^3 lattice
		TargetVolumeFrac: 0.9,
		MonoPhase:        phase.C3S,
		IsMonophase:      true,
	}
	_, err := Place(lat, world, req, Options{}, rng.New(-3))
	if err == nil {
		t.Fatal("Place() = nil, want ErrPackingInfeasible for an unreachable target")
	}
	var infeasible *ErrPackingInfeasible
	if !asPackingInfeasible(err, &infeasible) {
		t.Fatalf("Place() error = %v, want *ErrPackingInfeasible", err)
	}
}

func asPackingInfeasible(err error, target **ErrPackingInfeasible) bool {
	e, ok := err.(*ErrPackingInfeasible)
	if ok {
		*target = e
	}
	return ok
}

func TestValidateOptionsRejectsOutOfRangeIntensity(t *testing.T) {
	opt := Options{Dispersity: mixspec.DispersityFlocculated, FlocculationIntensity: 1.5}
	if err := ValidateOptions(opt); err == nil {
		t.Fatal("ValidateOptions() = nil, want error for intensity > 1")
	}
}
