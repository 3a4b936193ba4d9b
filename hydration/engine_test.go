package hydration

import (
	"errors"
	"testing"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
	"github.com/jwbullard/vcctl/timetemp"
)

// pasteLattice builds a small lattice with a centered C3S block surrounded
// by water-filled porosity.
func pasteLattice(n, blockHalf int) *lattice.Lattice {
	lat := lattice.New(n, n, n, 1.0)
	c := n / 2
	for x := c - blockHalf; x <= c+blockHalf; x++ {
		for y := c - blockHalf; y <= c+blockHalf; y++ {
			for z := c - blockHalf; z <= c+blockHalf; z++ {
				lat.Set(x, y, z, phase.C3S)
			}
		}
	}
	return lat
}

func fastParams() Params {
	p := DefaultParams()
	p.DissolutionProb[phase.C3S] = 0.2
	p.DiffusionLifetimeMax = 4
	return p
}

func TestPhaseCountConservation(t *testing.T) {
	lat := pasteLattice(12, 2)
	e := NewEngine(lat, rng.New(-11), fastParams(), 1e9)
	for i := 0; i < 10; i++ {
		if _, err := e.Step(0); err != nil {
			t.Fatalf("Step() = %v", err)
		}
		counts := e.Snapshot().Counts()
		total := 0
		for _, c := range counts {
			total += c
		}
		if total != lat.Len() {
			t.Fatalf("cycle %d: phase counts sum to %d, want %d", i+1, total, lat.Len())
		}
	}
}

func TestSpeciesBudgetMatchesLattice(t *testing.T) {
	lat := pasteLattice(12, 2)
	e := NewEngine(lat, rng.New(-12), fastParams(), 1e9)
	for i := 0; i < 15; i++ {
		if _, err := e.Step(0); err != nil {
			t.Fatalf("Step() = %v", err)
		}
		counts := e.Snapshot().Counts()
		for p := phase.Phase(0); p < phase.NumPhases; p++ {
			if !phase.Get(p).IsDiffusing {
				continue
			}
			if got, want := e.budget.get(p), counts[p]; got != want {
				t.Fatalf("cycle %d: budget[%s] = %d, lattice holds %d markers", i+1, p, got, want)
			}
		}
	}
}

func TestMonotoneHydration(t *testing.T) {
	lat := pasteLattice(14, 3)
	e := NewEngine(lat, rng.New(-13), fastParams(), 1e9)
	prev := e.Snapshot().CountPhase(phase.C3S)
	for i := 0; i < 20; i++ {
		if _, err := e.Step(0); err != nil {
			t.Fatalf("Step() = %v", err)
		}
		cur := e.Snapshot().CountPhase(phase.C3S)
		if cur > prev {
			t.Fatalf("cycle %d: anhydrous C3S count rose from %d to %d", i+1, prev, cur)
		}
		prev = cur
	}
	if e.AlphaHydration() <= 0 {
		t.Error("no hydration occurred over 20 cycles at an elevated dissolution rate")
	}
}

func TestDeterminismAcrossRuns(t *testing.T) {
	run := func() *lattice.Lattice {
		lat := pasteLattice(12, 2)
		e := NewEngine(lat, rng.New(-1234), fastParams(), 1e9)
		for i := 0; i < 10; i++ {
			if _, err := e.Step(3); err != nil {
				t.Fatalf("Step() = %v", err)
			}
		}
		return e.Snapshot()
	}
	a, b := run(), run()
	for i, p := range a.Raw() {
		if p != b.Raw()[i] {
			t.Fatalf("voxel %d differs between identically-seeded runs: %v vs %v", i, p, b.Raw()[i])
		}
	}
}

func TestRunStopsAtAlphaMax(t *testing.T) {
	lat := pasteLattice(12, 2)
	e := NewEngine(lat, rng.New(-14), fastParams(), 1e9)
	results, err := e.Run(RunOptions{MaxCycles: 500, AlphaMax: 0.3})
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Run() executed no cycles")
	}
	if e.AlphaHydration() < 0.3 {
		t.Fatalf("Run() stopped at alpha %.3f without hitting MaxCycles", e.AlphaHydration())
	}
}

func TestRunHonorsCancel(t *testing.T) {
	lat := pasteLattice(12, 2)
	e := NewEngine(lat, rng.New(-15), fastParams(), 1e9)
	calls := 0
	results, err := e.Run(RunOptions{
		MaxCycles: 100,
		Cancel: func() bool {
			calls++
			return calls > 3
		},
	})
	var cancelled *Cancelled
	if !errors.As(err, &cancelled) {
		t.Fatalf("Run() = %v, want *Cancelled", err)
	}
	if len(results) != 3 {
		t.Fatalf("Run() returned %d results, want 3 cycles before the cancel", len(results))
	}
	if cancelled.Cycle != 3 {
		t.Errorf("cancelled at cycle %d, want 3", cancelled.Cycle)
	}
}

func TestShrinkageConvertsPorosityToEmpty(t *testing.T) {
	lat := pasteLattice(12, 3)
	// Tiny water budget: the first committed dissolutions already overdraw
	// it, so self-desiccation must appear quickly.
	e := NewEngine(lat, rng.New(-16), fastParams(), 2.0)
	for i := 0; i < 25; i++ {
		if _, err := e.Step(0); err != nil {
			t.Fatalf("Step() = %v", err)
		}
	}
	if e.Snapshot().CountPhase(phase.EMPTYP) == 0 {
		t.Error("no EMPTYP voxels after overdrawing a 2-voxel water budget")
	}
}

func TestStepAdvancesTimeMapper(t *testing.T) {
	lat := pasteLattice(12, 2)
	m := timetemp.New(timetemp.Isothermal, 298.15)
	m.Beta = 0.001
	e := NewEngine(lat, rng.New(-17), fastParams(), 1e9).WithTimeMapper(m)

	res1, err := e.Step(0)
	if err != nil {
		t.Fatalf("Step() = %v", err)
	}
	res2, err := e.Step(0)
	if err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if res2.PhysicalTimeHours <= res1.PhysicalTimeHours {
		t.Errorf("physical time did not advance: %v then %v", res1.PhysicalTimeHours, res2.PhysicalTimeHours)
	}
	if res1.TemperatureK != 298.15 {
		t.Errorf("isothermal temperature drifted to %v", res1.TemperatureK)
	}
}

func TestPorosityPercolationIsMonotone(t *testing.T) {
	// Dense paste with a fast-depositing product load: porosity may stop
	// percolating as hydrates fill the pore network, but once lost at a
	// checked cycle it must never come back at a later one.
	lat := pasteLattice(12, 4)
	p := fastParams()
	p.DissolutionProb[phase.C3S] = 0.4
	p.DiffusionLifetimeMax = 2
	e := NewEngine(lat, rng.New(-18), p, 1e9)

	results, err := e.Run(RunOptions{MaxCycles: 40, PercolationStride: 2})
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	checked := 0
	lost := false
	for _, res := range results {
		if !res.PercolationChecked {
			continue
		}
		checked++
		if lost && res.PorosityPercolates {
			t.Fatalf("cycle %d: porosity percolates again after failing at an earlier checked cycle", res.Cycle)
		}
		if !res.PorosityPercolates {
			lost = true
		}
	}
	if checked == 0 {
		t.Fatal("no percolation checks ran despite a stride of 2")
	}
}

func TestBudgetUnderflowIsFatal(t *testing.T) {
	b := &speciesBudget{}
	err := b.decrement(phase.DIFFCSH, 7)
	var underflow *BudgetUnderflow
	if !errors.As(err, &underflow) {
		t.Fatalf("decrement on empty budget = %v, want *BudgetUnderflow", err)
	}
	if underflow.Cycle != 7 {
		t.Errorf("underflow cycle = %d, want 7", underflow.Cycle)
	}
}
