package hydration

import (
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

// sulfateBudget sums the still-soluble-in-solution sulfate carriers
// (gypsum, hemihydrate, anhydrite diffusion markers) tracked in budget.
func sulfateBudget(budget *speciesBudget) int {
	return budget.get(phase.DIFFGYP) + budget.get(phase.DIFFHEM) + budget.get(phase.DIFFANH)
}

// runSulfateStarvation converts ettringite to monosulfate once the
// sulfate-carrier budget falls to SulfateStarvationThreshold or below: solid
// ETTR is no longer stable and
// gradually decays to AFM, mirroring the catalogue's own ETTR reaction
// product.
func runSulfateStarvation(staged *lattice.Lattice, budget *speciesBudget, params Params, source *rng.Source) {
	if sulfateBudget(budget) > params.SulfateStarvationThreshold {
		return
	}
	if params.ETTRToAFMProb <= 0 {
		return
	}
	staged.ForEach(func(x, y, z int, p phase.Phase) {
		if p != phase.ETTR {
			return
		}
		if source.Float64() < params.ETTRToAFMProb {
			staged.Set(x, y, z, phase.AFM)
		}
	})
}

// runCSHDensification models CSH gel maturation: mature gel gradually
// densifies by consuming adjacent
// porosity, capped at CSHMaxDensityClass. The per-voxel age/density byte
// lattice already tracks (lattice.CSHAge) is reused as the density class.
func runCSHDensification(staged *lattice.Lattice, params Params, source *rng.Source) {
	if params.CSHDensifyProb <= 0 {
		return
	}
	ageField := staged.CSHAge()
	candidates := shuffledVoxels(staged, source, func(p phase.Phase) bool {
		return p == phase.CSH || p == phase.POZZCSH || p == phase.SLAGCSH
	})
	for _, c := range candidates {
		idx := voxelIndex(staged, c.x, c.y, c.z)
		if ageField[idx] >= params.CSHMaxDensityClass {
			continue
		}
		if source.Float64() >= params.CSHDensifyProb {
			continue
		}
		p := staged.At(c.x, c.y, c.z)
		for _, n := range staged.Neighbor6Coords(c.x, c.y, c.z) {
			if staged.At(n[0], n[1], n[2]) != phase.POROSITY {
				continue
			}
			staged.Set(n[0], n[1], n[2], p)
			ageField[idx]++
			break
		}
	}
}
