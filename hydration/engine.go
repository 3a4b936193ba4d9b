// Package hydration implements the per-cycle hydration state machine:
// dissolution, diffusion, reaction/nucleation, pozzolanic reactions,
// shrinkage/self-desiccation accounting, percolation-check and time-advance
// triggers, all staged in a reusable scratch lattice and committed only at
// the cycle boundary, so a fatal error never leaves partial mutation
// visible.
package hydration

import (
	"math"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/percolation"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
	"github.com/jwbullard/vcctl/timetemp"
)

// Engine owns the lattice, the diffusing-species budget, and every piece of
// cycle-local bookkeeping: the state of the simulation is the lattice plus
// the diffusing-species budget. The engine is the sole owner of the
// lattice; collaborators only ever see it through Snapshot.
type Engine struct {
	lat    *lattice.Lattice
	source *rng.Source
	params Params
	budget speciesBudget
	ages   []uint16 // per-voxel marker age; meaningful only while the voxel holds a diffusion marker
	mapper *timetemp.Mapper

	// Scratch state for the stage-then-commit cycle, allocated once at
	// construction and reused every cycle, so no lattice-sized buffer is
	// allocated per cycle; each stage's shuffled walk order and the small
	// event and site lists are still allocated fresh.
	scratch     *lattice.Lattice
	scratchAges []uint16

	cycle int

	initialCementVoxels int
	waterBudgetVoxels   float64
	waterConsumedVoxels float64
	emptiedVoxels       float64
	shrinkageCoeff      float64 // fractional volume of reacted solid lost to chemical shrinkage

	lastPorosityPercolates bool
	percolationCheckedOnce bool
}

// NewEngine constructs an Engine over lat, which it takes ownership of.
// waterBudgetVoxels is the initial free-water volume (in voxel units)
// derived from the mix's water/binder ratio; it bounds how much reaction
// product can form before self-desiccation begins converting POROSITY to
// EMPTYP.
func NewEngine(lat *lattice.Lattice, source *rng.Source, params Params, waterBudgetVoxels float64) *Engine {
	counts := lat.Counts()
	e := &Engine{
		lat:                 lat,
		source:              source,
		params:              params,
		budget:              recountFromLattice(counts),
		ages:                make([]uint16, lat.Len()),
		scratch:             lat.Clone(),
		scratchAges:         make([]uint16, lat.Len()),
		initialCementVoxels: cementVoxels(counts),
		waterBudgetVoxels:   waterBudgetVoxels,
		shrinkageCoeff:      0.25,
	}
	return e
}

// WithTimeMapper attaches a time/temperature mapper; cycles
// advance it automatically if set.
func (e *Engine) WithTimeMapper(m *timetemp.Mapper) *Engine {
	e.mapper = m
	return e
}

func cementVoxels(counts [phase.NumPhases]int) int {
	n := 0
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		if phase.Get(p).IsClinker {
			n += counts[p]
		}
	}
	return n
}

// Cycle returns the number of cycles executed so far.
func (e *Engine) Cycle() int { return e.cycle }

// Snapshot exposes a read-only accessor: callers must
// not retain a mutable reference. It returns the live lattice pointer
// because this engine is single-threaded and synchronous; concurrent
// callers must not invoke Step concurrently with reading it.
func (e *Engine) Snapshot() *lattice.Lattice { return e.lat }

// AlphaHydration returns the current degree of hydration: 1 minus the
// fraction of initial clinker volume still unreacted.
func (e *Engine) AlphaHydration() float64 {
	if e.initialCementVoxels == 0 {
		return 0
	}
	counts := e.lat.Counts()
	remaining := cementVoxels(counts)
	return 1.0 - float64(remaining)/float64(e.initialCementVoxels)
}

// CycleResult summarizes one executed cycle.
type CycleResult struct {
	Cycle              int
	AlphaHydration     float64
	HeatReleasedKJ     float64
	CumulativeHeatKJ   float64
	PhysicalTimeHours  float64
	TemperatureK       float64
	PercolationChecked bool
	PorosityPercolates bool
}

// Step runs exactly one cycle: dissolution, diffusion, reaction/
// nucleation, pozzolanic handling folded into dissolution, shrinkage
// accounting, optional percolation check, and time advance. Mutations are
// staged in the engine's reusable scratch lattice (allocated once at
// construction) and committed only if the whole cycle completes without a
// fatal error.
func (e *Engine) Step(percolationStride int) (CycleResult, error) {
	staged := e.scratch
	staged.CopyFrom(e.lat)
	copy(e.scratchAges, e.ages)
	stagedAges := e.scratchAges
	stagedBudget := e.budget

	cycle := e.cycle + 1
	heatKJ := 0.0

	reactedDissolution, err := runDissolution(staged, &stagedBudget, stagedAges, e.params, e.source, cycle)
	if err != nil {
		return CycleResult{}, err
	}
	heatKJ += dissolutionHeatKJ(staged, reactedDissolution)

	if err := runDiffusion(staged, &stagedBudget, stagedAges, e.params, e.source, cycle); err != nil {
		return CycleResult{}, err
	}

	reactedUnits, err := runReactionAndNucleation(staged, &stagedBudget, stagedAges, e.params, e.source, cycle)
	if err != nil {
		return CycleResult{}, err
	}

	runSulfateStarvation(staged, &stagedBudget, e.params, e.source)
	runCSHDensification(staged, e.params, e.source)

	// A ledger/catalogue desync is unrecoverable; verify before committing
	// so the live lattice never sees the inconsistent state.
	if err := verifyBudget(staged, &stagedBudget, cycle); err != nil {
		return CycleResult{}, err
	}

	e.applyShrinkage(staged, float64(len(reactedDissolution)+reactedUnits))

	// Commit: copy the scratch back and swap the age buffers.
	e.lat.CopyFrom(staged)
	e.budget = stagedBudget
	e.ages, e.scratchAges = e.scratchAges, e.ages
	e.cycle = cycle

	result := CycleResult{Cycle: cycle, AlphaHydration: e.AlphaHydration()}

	if percolationStride > 0 && cycle%percolationStride == 0 {
		target := map[phase.Phase]bool{phase.POROSITY: true}
		result.PorosityPercolates = percolation.Percolates(e.lat, target)
		result.PercolationChecked = true
		e.lastPorosityPercolates = result.PorosityPercolates
		e.percolationCheckedOnce = true
	}

	if e.mapper != nil {
		e.mapper.Step(cycle, heatKJ*1000.0)
		result.PhysicalTimeHours = e.mapper.PhysicalTimeHours()
		result.TemperatureK = e.mapper.TemperatureK()
		result.CumulativeHeatKJ = e.mapper.CumulativeHeatJ() / 1000.0
	}
	result.HeatReleasedKJ = heatKJ

	return result, nil
}

// verifyBudget checks that every species counter matches the actual number
// of its markers on the staged lattice.
func verifyBudget(staged *lattice.Lattice, budget *speciesBudget, cycle int) error {
	counts := staged.Counts()
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		if phase.Get(p).IsDiffusing && budget.get(p) != counts[p] {
			return &StoichiometryUnderflow{Cycle: cycle, Phase: p.String()}
		}
	}
	return nil
}

// applyShrinkage accounts for chemical shrinkage: reacted solid consumes water
// in proportion to shrinkageCoeff; once cumulative consumption exceeds the
// water budget, the incremental excess converts POROSITY voxels to EMPTYP
// (self-desiccation).
func (e *Engine) applyShrinkage(staged *lattice.Lattice, reactedUnitsThisCycle float64) {
	e.waterConsumedVoxels += reactedUnitsThisCycle * e.shrinkageCoeff
	excess := e.waterConsumedVoxels - e.waterBudgetVoxels
	if excess <= e.emptiedVoxels {
		return
	}
	toEmpty := int(math.Round(excess - e.emptiedVoxels))
	if toEmpty <= 0 {
		return
	}
	converted := 0
	staged.ForEach(func(x, y, z int, p phase.Phase) {
		if converted >= toEmpty || p != phase.POROSITY {
			return
		}
		staged.Set(x, y, z, phase.EMPTYP)
		converted++
	})
	e.emptiedVoxels += float64(converted)
}

// RunOptions bounds a multi-cycle Run call with termination conditions:
// a max cycle count, a target degree of hydration, or a max
// physical time, whichever comes first. Cancel is polled between cycles
// only.
type RunOptions struct {
	MaxCycles         int
	AlphaMax          float64
	MaxTimeHours      float64
	PercolationStride int
	Cancel            func() bool
	OnCycle           func(CycleResult)
}

// Run executes cycles until a RunOptions termination condition is met or
// Cancel reports true, returning the results of every executed cycle.
func (e *Engine) Run(opts RunOptions) ([]CycleResult, error) {
	var results []CycleResult
	for {
		if opts.Cancel != nil && opts.Cancel() {
			return results, &Cancelled{Cycle: e.cycle}
		}
		if opts.MaxCycles > 0 && e.cycle >= opts.MaxCycles {
			return results, nil
		}
		if opts.AlphaMax > 0 && e.AlphaHydration() >= opts.AlphaMax {
			return results, nil
		}
		if opts.MaxTimeHours > 0 && e.mapper != nil && e.mapper.PhysicalTimeHours() >= opts.MaxTimeHours {
			return results, nil
		}

		res, err := e.Step(opts.PercolationStride)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if opts.OnCycle != nil {
			opts.OnCycle(res)
		}
	}
}
