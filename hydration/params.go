package hydration

import "github.com/jwbullard/vcctl/phase"

// Params bundles the parameter-file-driven knobs that govern dissolution,
// diffusion, reaction, and nucleation rates. ioformat loads them from the
// external parameter file; hydration consumes them.
type Params struct {
	// DissolutionProb gives the per-cycle dissolution probability for each
	// soluble phase once it is exposed. The engine scales it only by
	// SCMRateMultiplier for SCM phases; it has no pH or cycle dependence.
	DissolutionProb map[phase.Phase]float64

	// SCMRateMultiplier scales the dissolution probability of SCM phases
	// (SLAG, ASG, AMSIL, CACO3), which react "typically much lower" than
	// clinker.
	SCMRateMultiplier float64

	// DiffusionLifetimeMax is Lmax: the maximum number of random-walk steps
	// a diffusion marker survives before forced deposition.
	DiffusionLifetimeMax int

	// CoalesceProb is pnuc: the probability that two same-species diffusion
	// markers moving into each other coalesce rather than bounce.
	CoalesceProb float64

	// NucleationProb gives the per-cycle homogeneous-nucleation probability
	// for each diffusing species, applied only to markers that have survived
	// at least NucleationMinAge cycles.
	NucleationProb map[phase.Phase]float64
	// NucleationMinAge is the minimum marker age before nucleation applies.
	NucleationMinAge int

	// DepositSearchRadius is read from the parameter file but not used by
	// the engine: an expired marker deposits at its own voxel, and reaction
	// products search only the 26-neighborhood.
	DepositSearchRadius int

	// CSHDensifyProb is the per-cycle probability a CSH voxel densifies one
	// class.
	CSHDensifyProb float64
	// CSHMaxDensityClass caps the CSH age/density byte.
	CSHMaxDensityClass uint8

	// SulfateStarvationThreshold: once the soluble-sulfate species budget
	// (DIFFGYP+DIFFHEM+DIFFANH) falls at or below this count, ETTR converts
	// to AFM.
	SulfateStarvationThreshold int
	// ETTRToAFMProb is the per-cycle conversion probability once starved.
	ETTRToAFMProb float64
}

// DefaultParams returns defaults sized so plain clinker dissolves over
// several hundred cycles with SCMs an order of magnitude slower.
func DefaultParams() Params {
	return Params{
		DissolutionProb: map[phase.Phase]float64{
			phase.C3S:       0.006,
			phase.C2S:       0.0015,
			phase.C3A:       0.02,
			phase.OC3A:      0.02,
			phase.C4AF:      0.004,
			phase.GYPSUM:    0.05,
			phase.HEMIHYD:   0.08,
			phase.ANHYDRITE: 0.02,
			phase.SLAG:      0.0008,
			phase.ASG:       0.0006,
			phase.AMSIL:     0.0006,
			phase.CACO3:     0.0004,
		},
		SCMRateMultiplier:    1.0, // already baked into the per-phase table above
		DiffusionLifetimeMax: 12,
		CoalesceProb:         0.3,
		NucleationMinAge:     3,
		NucleationProb: map[phase.Phase]float64{
			phase.DIFFCSH:   0.15,
			phase.DIFFCH:    0.2,
			phase.DIFFETTR:  0.25,
			phase.DIFFAFM:   0.2,
			phase.DIFFC3A:   0.15,
			phase.DIFFC4A:   0.15,
			phase.DIFFFH3:   0.15,
			phase.DIFFSLAG:  0.1,
			phase.DIFFAS:    0.1,
			phase.DIFFCACO3: 0.1,
		},
		DepositSearchRadius:        2,
		CSHDensifyProb:             0.01,
		CSHMaxDensityClass:         3,
		SulfateStarvationThreshold: 2,
		ETTRToAFMProb:              0.05,
	}
}
