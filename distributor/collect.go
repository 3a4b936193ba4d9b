package distributor

import (
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
)

// CollectClinkerCandidates gathers every lattice voxel currently holding
// the placer's placeholder phase for cement particles. These are the voxels
// the annealing pass is allowed to repaint; sulfate carriers and SCMs carry
// their own phases and are never collected here.
func CollectClinkerCandidates(lat *lattice.Lattice, placeholder phase.Phase) []Candidate {
	var out []Candidate
	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if p == placeholder {
			out = append(out, Candidate{x, y, z})
		}
	})
	return out
}

// CollectFlyAshCandidates gathers every FLYASH voxel together with the id
// of the particle it belongs to, so per-particle assignment can give all
// voxels of one particle the same phase draw.
func CollectFlyAshCandidates(lat *lattice.Lattice) []FlyAshCandidate {
	var out []FlyAshCandidate
	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if p == phase.FLYASH {
			out = append(out, FlyAshCandidate{X: x, Y: y, Z: z, ParticleID: lat.GetParticleID(x, y, z)})
		}
	})
	return out
}
