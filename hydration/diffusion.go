package hydration

import (
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

// runDiffusion performs one random-walk step for every diffusion-marker
// voxel present at the start of the pass: moves into
// POROSITY are accepted, moves into solids are rejected, moves into another
// marker of the same species coalesce with probability CoalesceProb. Ages
// are incremented and markers that reach DiffusionLifetimeMax are forced to
// deposit as their equilibrium solid.
func runDiffusion(staged *lattice.Lattice, budget *speciesBudget, ages []uint16, params Params, source *rng.Source, cycle int) error {
	markers := shuffledVoxels(staged, source, func(p phase.Phase) bool {
		return phase.Get(p).IsDiffusing
	})

	for _, c := range markers {
		p := staged.At(c.x, c.y, c.z)
		if !phase.Get(p).IsDiffusing {
			continue // already consumed earlier in this pass
		}
		idx := voxelIndex(staged, c.x, c.y, c.z)
		age := ages[idx] + 1

		dirs := [6]lattice.Direction{lattice.PlusX, lattice.MinusX, lattice.PlusY, lattice.MinusY, lattice.PlusZ, lattice.MinusZ}
		d := dirs[source.Intn(6)]
		nx, ny, nz := staged.Neighbor6(c.x, c.y, c.z, d)
		np := staged.At(nx, ny, nz)
		nIdx := voxelIndex(staged, nx, ny, nz)

		switch {
		case np == phase.POROSITY:
			staged.Set(c.x, c.y, c.z, phase.POROSITY)
			staged.Set(nx, ny, nz, p)
			ages[nIdx] = age
			if age >= uint16(params.DiffusionLifetimeMax) {
				if err := depositInPlace(staged, budget, ages, nx, ny, nz, p, cycle); err != nil {
					return err
				}
			}
			continue
		case np == p:
			if source.Float64() < params.CoalesceProb {
				if err := coalesce(staged, budget, ages, c.x, c.y, c.z, nx, ny, nz, p, source, cycle); err != nil {
					return err
				}
				continue
			}
		}
		// Rejected move (solid, or same-species bounce): stay in place, age
		// still accrues.
		ages[idx] = age
		if age >= uint16(params.DiffusionLifetimeMax) {
			if err := depositInPlace(staged, budget, ages, c.x, c.y, c.z, p, cycle); err != nil {
				return err
			}
		}
	}
	return nil
}

// depositInPlace converts an expired (or forcibly deposited) diffusion
// marker into its equilibrium solid at its own voxel — always valid since
// that voxel is the marker's own footprint. The stale age cell needs no
// reset; age is meaningful only while the voxel holds a marker, and every
// marker arrival rewrites it.
func depositInPlace(staged *lattice.Lattice, budget *speciesBudget, ages []uint16, x, y, z int, species phase.Phase, cycle int) error {
	staged.Set(x, y, z, phase.Get(species).EquilibriumSolid)
	return budget.decrement(species, cycle)
}

// coalesce combines two adjacent same-species markers into one voxel of
// their equilibrium solid, returning the other voxel to POROSITY.
func coalesce(staged *lattice.Lattice, budget *speciesBudget, ages []uint16, x1, y1, z1, x2, y2, z2 int, species phase.Phase, source *rng.Source, cycle int) error {
	staged.Set(x1, y1, z1, phase.Get(species).EquilibriumSolid)
	staged.Set(x2, y2, z2, phase.POROSITY)

	if err := budget.decrement(species, cycle); err != nil {
		return err
	}
	if err := budget.decrement(species, cycle); err != nil {
		return err
	}
	return nil
}
