package hydration

import "fmt"

// StoichiometryUnderflow is fatal: a reaction tried to
// consume a reactant voxel the ledger says does not exist. It indicates a
// catalogue/ledger desync, a programming error rather than a recoverable
// condition.
type StoichiometryUnderflow struct {
	Cycle int
	Phase string
}

func (e *StoichiometryUnderflow) Error() string {
	return fmt.Sprintf("hydration: stoichiometry underflow at cycle %d for phase %s", e.Cycle, e.Phase)
}

// BudgetUnderflow is fatal: the diffusing-species budget for
// a species went negative.
type BudgetUnderflow struct {
	Cycle   int
	Species string
}

func (e *BudgetUnderflow) Error() string {
	return fmt.Sprintf("hydration: species budget underflow at cycle %d for %s", e.Cycle, e.Species)
}

// Cancelled reports a clean return due to cooperative cancellation observed
// at a cycle boundary.
type Cancelled struct {
	Cycle int
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("hydration: cancelled at cycle boundary %d", e.Cycle)
}
