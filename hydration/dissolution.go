package hydration

import (
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

// voxelCoord is a flat lattice coordinate used by the shuffled per-cycle
// voxel walks.
type voxelCoord struct{ x, y, z int }

// voxelIndex computes the flat buffer offset of (x,y,z), matching
// lattice's own formula.
// The hydration engine needs this to key its diffusion-age ledger, which
// lattice itself has no reason to expose.
func voxelIndex(lat *lattice.Lattice, x, y, z int) int {
	return ((x*lat.Y)+y)*lat.Z + z
}

// shuffledVoxels collects every voxel whose phase satisfies keep, in a
// random order derived from source, deterministic given the seed.
func shuffledVoxels(lat *lattice.Lattice, source *rng.Source, keep func(phase.Phase) bool) []voxelCoord {
	var out []voxelCoord
	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if keep(p) {
			out = append(out, voxelCoord{x, y, z})
		}
	})
	source.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// exposed reports whether (x,y,z) has at least one 6-neighbor that is
// POROSITY or a diffusion marker.
func exposed(lat *lattice.Lattice, x, y, z int) bool {
	for _, n := range lat.Neighbor6Coords(x, y, z) {
		np := lat.At(n[0], n[1], n[2])
		if np == phase.POROSITY || phase.Get(np).IsDiffusing {
			return true
		}
	}
	return false
}

// dissolutionEvent tracks one committed dissolution, for heat accounting.
type dissolutionEvent struct {
	reactant phase.Phase
	units    int // reactant voxels consumed, always 1 per event
}

// runDissolution walks every soluble, exposed solid voxel in shuffled order
// and, with probability pdiss, converts it (and the neighboring porosity
// sites its products need) into diffusion markers per the catalogue
// stoichiometry. It returns the dissolution events
// committed this cycle for heat-of-reaction accounting.
func runDissolution(staged *lattice.Lattice, budget *speciesBudget, ages []uint16, params Params, source *rng.Source, cycle int) ([]dissolutionEvent, error) {
	candidates := shuffledVoxels(staged, source, func(p phase.Phase) bool {
		return phase.Get(p).IsSoluble
	})

	var events []dissolutionEvent
	for _, c := range candidates {
		p := staged.At(c.x, c.y, c.z)
		props := phase.Get(p)
		if !props.IsSoluble {
			continue // already converted earlier this pass
		}
		if !exposed(staged, c.x, c.y, c.z) {
			continue
		}
		prob := pdiss(p, params, cycle)
		if source.Float64() >= prob {
			continue
		}

		if len(props.ReactionProducts) == 0 {
			// Soluble with no tracked diffusion species (e.g. alkali
			// sulfates): dissolves straight into solution.
			staged.Set(c.x, c.y, c.z, phase.POROSITY)
			staged.SetParticleID(c.x, c.y, c.z, -1)
			events = append(events, dissolutionEvent{reactant: p, units: 1})
			continue
		}

		totalUnits := 0
		for _, rp := range props.ReactionProducts {
			totalUnits += rp.Count
		}
		needed := totalUnits - 1
		sites := findPorositySites(staged, c.x, c.y, c.z, needed, source)
		if len(sites) < needed {
			continue // insufficient room this cycle; try again next cycle
		}

		products := flattenProducts(props.ReactionProducts)
		staged.Set(c.x, c.y, c.z, products[0])
		depositDiffusionMarker(staged, budget, ages, c.x, c.y, c.z, products[0])
		for i, s := range sites {
			staged.Set(s.x, s.y, s.z, products[i+1])
			depositDiffusionMarker(staged, budget, ages, s.x, s.y, s.z, products[i+1])
		}
		events = append(events, dissolutionEvent{reactant: p, units: 1})
	}
	return events, nil
}

// pdiss computes the per-cycle dissolution probability for phase p, applying
// the SCM rate penalty to pozzolanic phases.
func pdiss(p phase.Phase, params Params, cycle int) float64 {
	base := params.DissolutionProb[p]
	if phase.Get(p).IsSCM {
		base *= params.SCMRateMultiplier
	}
	return base
}

// flattenProducts expands a ReactionProduct list into one phase per unit,
// e.g. [{DIFFCSH,2},{DIFFCH,1}] -> [DIFFCSH, DIFFCSH, DIFFCH].
func flattenProducts(rps []phase.ReactionProduct) []phase.Phase {
	var out []phase.Phase
	for _, rp := range rps {
		for i := 0; i < rp.Count; i++ {
			out = append(out, rp.Product)
		}
	}
	return out
}

// depositDiffusionMarker records a freshly created diffusion-marker voxel
// in the budget and age ledger; non-diffusing products (e.g. FH3, which
// precipitates directly as a stable solid) are left as-is.
func depositDiffusionMarker(staged *lattice.Lattice, budget *speciesBudget, ages []uint16, x, y, z int, p phase.Phase) {
	if !phase.Get(p).IsDiffusing {
		return
	}
	budget.increment(p)
	ages[voxelIndex(staged, x, y, z)] = 0
}

// findPorositySites searches the 26-neighborhood of (x,y,z) for up to n
// distinct POROSITY voxels, returning as many as it can find.
func findPorositySites(lat *lattice.Lattice, x, y, z, n int, source *rng.Source) []voxelCoord {
	if n <= 0 {
		return nil
	}
	neighbors := lat.Neighbor26Coords(x, y, z)
	order := make([]int, len(neighbors))
	for i := range order {
		order[i] = i
	}
	source.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var out []voxelCoord
	for _, i := range order {
		if len(out) >= n {
			break
		}
		nc := neighbors[i]
		if lat.At(nc[0], nc[1], nc[2]) == phase.POROSITY {
			out = append(out, voxelCoord{nc[0], nc[1], nc[2]})
		}
	}
	return out
}
