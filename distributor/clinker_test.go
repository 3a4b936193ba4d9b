package distributor

import (
	"errors"
	"testing"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/particle"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

func candidateCube(n int) []Candidate {
	out := make([]Candidate, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				out = append(out, Candidate{x, y, z})
			}
		}
	}
	return out
}

func TestDistributeClinkerMatchesVolumeFractions(t *testing.T) {
	lat := lattice.New(16, 16, 16, 1.0)
	candidates := candidateCube(16)
	req := ClinkerRequest{
		Phases: []ClinkerPhase{
			{Phase: phase.C3S, VolumeFraction: 0.6, Correlation: []float64{1, 0.5, 0.2}},
			{Phase: phase.C2S, VolumeFraction: 0.4, Correlation: []float64{1, 0.3, 0.1}},
		},
		Tolerance: 0.5, // loose tolerance; this test checks volume fraction exactness, not convergence
		MaxSweeps: 50,
	}
	res, err := DistributeClinker(lat, candidates, req, rng.New(-7))
	if err != nil && !errors.Is(err, ErrDistributionConverge) {
		t.Fatalf("DistributeClinker() = %v", err)
	}
	_ = res

	counts := map[phase.Phase]int{}
	for _, c := range candidates {
		counts[lat.At(c.x, c.y, c.z)]++
	}
	total := len(candidates)
	gotC3S := float64(counts[phase.C3S]) / float64(total)
	gotC2S := float64(counts[phase.C2S]) / float64(total)
	if gotC3S < 0.59 || gotC3S > 0.61 {
		t.Errorf("C3S volume fraction = %.4f, want ~0.6", gotC3S)
	}
	if gotC2S < 0.39 || gotC2S > 0.41 {
		t.Errorf("C2S volume fraction = %.4f, want ~0.4", gotC2S)
	}
}

func TestDistributeClinkerRejectsOversubscribedFractions(t *testing.T) {
	lat := lattice.New(8, 8, 8, 1.0)
	candidates := candidateCube(8)
	req := ClinkerRequest{
		Phases: []ClinkerPhase{
			{Phase: phase.C3S, VolumeFraction: 0.7},
			{Phase: phase.C2S, VolumeFraction: 0.7},
		},
		Tolerance: 0.1,
	}
	if _, err := DistributeClinker(lat, candidates, req, rng.New(-8)); err == nil {
		t.Fatal("DistributeClinker() = nil, want error for fractions summing above 1.0")
	}
}

func TestDistributeSulfatesPlacesEachCarrier(t *testing.T) {
	lat := lattice.New(20, 20, 20, 1.0)
	world := particle.NewWorld()
	fractions := []mixspec.SulfateFraction{
		{Phase: phase.GYPSUM, MassFrac: 0.05, PSD: []mixspec.PSDPoint{{DiameterUm: 6, CumulativeVolumeFrac: 1.0}}},
	}
	if err := DistributeSulfates(lat, world, fractions, lat.Len(), rng.New(-9)); err != nil {
		t.Fatalf("DistributeSulfates() = %v", err)
	}
	if lat.CountPhase(phase.GYPSUM) == 0 {
		t.Fatal("DistributeSulfates() placed no GYPSUM voxels")
	}
}
