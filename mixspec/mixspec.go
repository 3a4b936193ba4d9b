// Package mixspec defines the MixSpec value object: the complete,
// immutable-once-placement-begins description of a cementitious mixture
// that the placer and distributor consume to build the initial lattice.
package mixspec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jwbullard/vcctl/phase"
)

// PSDPoint is one row of a particle-size distribution: a diameter in
// micrometers paired with the cumulative volume fraction at or below it.
type PSDPoint struct {
	DiameterUm           float64 `yaml:"diameter_um"`
	CumulativeVolumeFrac float64 `yaml:"cumulative_volume_fraction"`
}

// Dispersity selects the mutually exclusive placement directive: particles
// are packed as-is, flocculated, or held apart by an exclusion halo.
type Dispersity string

const (
	DispersityNone        Dispersity = "none"
	DispersityFlocculated Dispersity = "flocculated"
	DispersityDispersed1  Dispersity = "dispersed1" // 1-voxel halo
	DispersityDispersed2  Dispersity = "dispersed2" // 2-voxel halo
)

// FlyAshMode selects between the two fly-ash phase-assignment strategies.
type FlyAshMode string

const (
	FlyAshPerParticle FlyAshMode = "per_particle"
	FlyAshPerVoxel    FlyAshMode = "per_voxel"
)

// ClinkerFraction pairs a clinker phase with its target volume fraction and
// the two-point correlation kernel measured for it from an SEM reference
// cement.
type ClinkerFraction struct {
	Phase          phase.Phase `yaml:"-"`
	PhaseName      string      `yaml:"phase"`
	VolumeFraction float64     `yaml:"volume_fraction"`
	Correlation    []float64   `yaml:"correlation,omitempty"` // S(r), r=0..len-1
}

// SulfateFraction pairs a sulfate-carrier phase with its mass fraction and
// its own PSD. Sulfates are placed as separate particles that never swap
// with clinker.
type SulfateFraction struct {
	Phase     phase.Phase `yaml:"-"`
	PhaseName string      `yaml:"phase"`
	MassFrac  float64     `yaml:"mass_fraction"`
	PSD       []PSDPoint  `yaml:"psd"`
}

// SCMFraction describes an optional supplementary cementitious material:
// its own PSD and its target volume fraction of the total solid.
type SCMFraction struct {
	Phase          phase.Phase `yaml:"-"`
	PhaseName      string      `yaml:"phase"`
	VolumeFraction float64     `yaml:"volume_fraction"`
	PSD            []PSDPoint  `yaml:"psd"`
}

// FlyAshComposition gives the multinomial phase weights used to assign (or
// sample per-voxel) the chemical identity of fly-ash particles.
// CACL2 from the historical catalogue has no analogue in this phase
// enumeration; FREELIME is used in its place.
type FlyAshComposition struct {
	Mode      FlyAshMode `yaml:"mode"`
	ASG       float64    `yaml:"asg"`
	CAS2      float64    `yaml:"cas2"`
	C3A       float64    `yaml:"c3a"`
	FreeLime  float64    `yaml:"free_lime"`
	AMSil     float64    `yaml:"amsil"`
	Anhydrite float64    `yaml:"anhydrite"`
	Inert     float64    `yaml:"inert"`
}

// AggregateGrading is one sieve-size class of a concrete-scale aggregate
// packing request.
type AggregateGrading struct {
	DiameterUm     float64 `yaml:"diameter_um"`
	VolumeFraction float64 `yaml:"volume_fraction"`
	Coarse         bool    `yaml:"coarse"`
}

// MixSpec is the complete description of a mixture handed to the placer and
// distributor. It is read from YAML and is immutable once placement
// begins.
type MixSpec struct {
	Name string `yaml:"name"`

	X, Y, Z      int     `yaml:"-"`
	SystemSize   int     `yaml:"system_size"` // cube edge in voxels; Load sets X=Y=Z=SystemSize when positive
	ResolutionUm float64 `yaml:"resolution_um"`

	CementPSD []PSDPoint `yaml:"cement_psd"`

	ClinkerFractions []ClinkerFraction `yaml:"clinker_fractions"`
	SulfateFractions []SulfateFraction `yaml:"sulfate_fractions"`
	SCMFractions     []SCMFraction     `yaml:"scm_fractions"`
	FlyAsh           FlyAshComposition `yaml:"fly_ash"`

	WaterBinderRatio float64 `yaml:"water_binder_ratio"`

	Dispersity            Dispersity `yaml:"dispersity"`
	FlocculationIntensity float64    `yaml:"flocculation_intensity"` // f in [0,1]

	// RealShapes selects real-shape cement particles (digitized masks from
	// the shape catalogue) instead of digital spheres.
	RealShapes bool `yaml:"real_shapes"`

	Aggregates []AggregateGrading `yaml:"aggregates,omitempty"`

	Seed int32 `yaml:"seed"`
}

// Load reads and validates a MixSpec from a YAML file at path.
func Load(path string) (*MixSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mixspec: read %s: %w", path, err)
	}
	var m MixSpec
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("mixspec: parse %s: %w", path, err)
	}
	if err := m.resolvePhaseNames(); err != nil {
		return nil, fmt.Errorf("mixspec: %s: %w", path, err)
	}
	if m.SystemSize > 0 {
		m.X, m.Y, m.Z = m.SystemSize, m.SystemSize, m.SystemSize
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mixspec: %s: %w", path, err)
	}
	return &m, nil
}

// Save writes m to path as YAML.
func Save(path string, m *MixSpec) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("mixspec: marshal: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("mixspec: write %s: %w", path, err)
	}
	return nil
}

var phaseByName = func() map[string]phase.Phase {
	m := make(map[string]phase.Phase, phase.NumPhases)
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		m[phase.Get(p).Name] = p
	}
	return m
}()

func lookupPhase(name string) (phase.Phase, error) {
	p, ok := phaseByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown phase name %q", name)
	}
	return p, nil
}

// resolvePhaseNames fills in the unexported Phase field of every fraction
// entry from its YAML-supplied name.
func (m *MixSpec) resolvePhaseNames() error {
	for i := range m.ClinkerFractions {
		p, err := lookupPhase(m.ClinkerFractions[i].PhaseName)
		if err != nil {
			return fmt.Errorf("clinker_fractions[%d]: %w", i, err)
		}
		m.ClinkerFractions[i].Phase = p
	}
	for i := range m.SulfateFractions {
		p, err := lookupPhase(m.SulfateFractions[i].PhaseName)
		if err != nil {
			return fmt.Errorf("sulfate_fractions[%d]: %w", i, err)
		}
		m.SulfateFractions[i].Phase = p
	}
	for i := range m.SCMFractions {
		p, err := lookupPhase(m.SCMFractions[i].PhaseName)
		if err != nil {
			return fmt.Errorf("scm_fractions[%d]: %w", i, err)
		}
		m.SCMFractions[i].Phase = p
	}
	return nil
}

// Validate checks internal consistency of the mix specification: positive
// dimensions, a terminating PSD, and volume fractions that do not exceed
// unity. It does not check chemical plausibility beyond that.
func (m *MixSpec) Validate() error {
	if m.X <= 0 || m.Y <= 0 || m.Z <= 0 {
		return fmt.Errorf("system dimensions must be positive, got (%d,%d,%d)", m.X, m.Y, m.Z)
	}
	if m.ResolutionUm <= 0 {
		return fmt.Errorf("resolution_um must be positive, got %v", m.ResolutionUm)
	}
	if err := validatePSD(m.CementPSD); err != nil {
		return fmt.Errorf("cement_psd: %w", err)
	}
	total := 0.0
	for _, cf := range m.ClinkerFractions {
		if cf.VolumeFraction < 0 {
			return fmt.Errorf("clinker_fractions: %s has negative volume fraction", cf.PhaseName)
		}
		total += cf.VolumeFraction
	}
	if total > 1.0+1e-9 {
		return fmt.Errorf("clinker_fractions: volume fractions sum to %.4f, exceeds 1.0", total)
	}
	for i, sf := range m.SulfateFractions {
		if err := validatePSD(sf.PSD); err != nil {
			return fmt.Errorf("sulfate_fractions[%d] (%s): %w", i, sf.PhaseName, err)
		}
	}
	for i, scm := range m.SCMFractions {
		if err := validatePSD(scm.PSD); err != nil {
			return fmt.Errorf("scm_fractions[%d] (%s): %w", i, scm.PhaseName, err)
		}
	}
	if m.Dispersity == DispersityFlocculated && (m.FlocculationIntensity < 0 || m.FlocculationIntensity > 1) {
		return fmt.Errorf("flocculation_intensity must be in [0,1], got %v", m.FlocculationIntensity)
	}
	if m.WaterBinderRatio <= 0 {
		return fmt.Errorf("water_binder_ratio must be positive, got %v", m.WaterBinderRatio)
	}
	return nil
}

func validatePSD(pts []PSDPoint) error {
	if len(pts) == 0 {
		return nil
	}
	prev := -1.0
	for i, p := range pts {
		if p.CumulativeVolumeFrac < prev {
			return fmt.Errorf("row %d: cumulative volume fraction %v decreases from %v", i, p.CumulativeVolumeFrac, prev)
		}
		prev = p.CumulativeVolumeFrac
	}
	last := pts[len(pts)-1].CumulativeVolumeFrac
	if last < 1.0-1e-9 || last > 1.0+1e-9 {
		return fmt.Errorf("last cumulative volume fraction = %v, want 1.0", last)
	}
	return nil
}
