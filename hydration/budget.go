package hydration

import "github.com/jwbullard/vcctl/phase"

// speciesBudget holds the running diffusing-voxel count for each diffusion-
// marker phase, which must equal the actual count of marker voxels on the
// lattice at all times. It is a plain value so a cycle can stage a copy on
// the stack and commit it by assignment.
type speciesBudget struct {
	counts [phase.NumPhases]int
}

func (b *speciesBudget) increment(p phase.Phase) {
	b.counts[p]++
}

// decrement reduces the budget for p by one, returning a BudgetUnderflow if
// it would go negative.
func (b *speciesBudget) decrement(p phase.Phase, cycle int) error {
	if b.counts[p] <= 0 {
		return &BudgetUnderflow{Cycle: cycle, Species: p.String()}
	}
	b.counts[p]--
	return nil
}

func (b *speciesBudget) get(p phase.Phase) int {
	return b.counts[p]
}

// recountFromLattice rebuilds the budget from an authoritative lattice scan
// — used at engine construction.
func recountFromLattice(counts [phase.NumPhases]int) speciesBudget {
	var b speciesBudget
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		if phase.Get(p).IsDiffusing {
			b.counts[p] = counts[p]
		}
	}
	return b
}
