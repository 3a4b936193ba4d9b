package distributor

import (
	"testing"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

func flyAshCandidateCube(n int, particlesOf int) []FlyAshCandidate {
	var out []FlyAshCandidate
	id := int32(0)
	count := 0
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				out = append(out, FlyAshCandidate{x, y, z, id})
				count++
				if count >= particlesOf {
					count = 0
					id++
				}
			}
		}
	}
	return out
}

func TestDistributeFlyAshPerParticleKeepsParticlesMonophase(t *testing.T) {
	lat := lattice.New(10, 10, 10, 1.0)
	candidates := flyAshCandidateCube(10, 8)
	comp := mixspec.FlyAshComposition{
		Mode: mixspec.FlyAshPerParticle,
		ASG:  0.5, CAS2: 0.3, Inert: 0.2,
	}
	if err := DistributeFlyAsh(lat, candidates, comp, rng.New(-11)); err != nil {
		t.Fatalf("DistributeFlyAsh() = %v", err)
	}
	byParticle := map[int32]phase.Phase{}
	for _, c := range candidates {
		got := lat.At(c.X, c.Y, c.Z)
		if want, seen := byParticle[c.ParticleID]; seen {
			if got != want {
				t.Fatalf("particle %d has mixed phases %v and %v", c.ParticleID, want, got)
			}
		} else {
			byParticle[c.ParticleID] = got
		}
	}
}

func TestDistributeFlyAshPerVoxelHonorsTargetCounts(t *testing.T) {
	lat := lattice.New(10, 10, 10, 1.0)
	candidates := flyAshCandidateCube(10, 1)
	comp := mixspec.FlyAshComposition{
		Mode: mixspec.FlyAshPerVoxel,
		ASG:  1.0,
	}
	if err := DistributeFlyAsh(lat, candidates, comp, rng.New(-12)); err != nil {
		t.Fatalf("DistributeFlyAsh() = %v", err)
	}
	for _, c := range candidates {
		if got := lat.At(c.X, c.Y, c.Z); got != phase.ASG {
			t.Fatalf("voxel (%d,%d,%d) = %v, want ASG", c.X, c.Y, c.Z, got)
		}
	}
}
