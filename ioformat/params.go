package ioformat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jwbullard/vcctl/hydration"
	"github.com/jwbullard/vcctl/phase"
)

// ParameterSet is the decoded contents of a key-value parameter file: the
// kinetic knobs the hydration engine consumes plus the time/temperature
// mapping constants.
type ParameterSet struct {
	Hydration hydration.Params

	// TimeBeta is the parabolic cycle-to-time rate constant.
	TimeBeta float64
	// ActivationEnergyKJMol is Ea for the parabolic law's Arrhenius factor.
	ActivationEnergyKJMol float64
	// ReferenceTempC is the reference (and isothermal hold) temperature.
	ReferenceTempC float64
}

// DefaultParameterSet returns the built-in kinetics and a conventional
// parabolic mapping at 25 C.
func DefaultParameterSet() ParameterSet {
	return ParameterSet{
		Hydration:             hydration.DefaultParams(),
		TimeBeta:              0.00035,
		ActivationEnergyKJMol: 40.0,
		ReferenceTempC:        25.0,
	}
}

// nucleationMarker maps an equilibrium-solid name (the name a parameter
// file uses in a pnuc key) to its diffusing-marker phase.
func nucleationMarker(solidName string) (phase.Phase, bool) {
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		props := phase.Get(p)
		if props.IsDiffusing && props.EquilibriumSolid.String() == solidName {
			return p, true
		}
	}
	return 0, false
}

// ReadParams parses the key-value parameter file at path, overriding the
// defaults key by key. Lines are "key value"; blank lines and lines
// starting with '#' are skipped. Recognized keys:
//
//	pdiss.<PHASE>                per-cycle dissolution probability
//	pnuc.<SOLID>                 nucleation probability for the species
//	                             depositing as SOLID (e.g. pnuc.CSH)
//	diffusion_lifetime           Lmax random-walk steps
//	coalesce_prob                same-species coalescence probability
//	nucleation_min_age           minimum marker age before nucleation
//	deposit_search_radius        deposit search radius (stored; not used by the engine)
//	scm_rate_multiplier          SCM dissolution scaling
//	csh_densify_prob             per-cycle CSH densification probability
//	csh_max_density              CSH density-byte cap
//	sulfate_starvation_threshold budget level triggering ETTR->AFM
//	ettr_to_afm_prob             per-cycle ETTR->AFM conversion probability
//	time_beta                    parabolic time-mapping constant
//	activation_energy            Ea (kJ/mol) for the time mapping
//	reference_temperature        reference temperature in Celsius
func ReadParams(path string) (ParameterSet, error) {
	ps := DefaultParameterSet()

	f, err := os.Open(path)
	if err != nil {
		return ps, fmt.Errorf("ioformat: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		fields := strings.Fields(s)
		if len(fields) != 2 {
			return ps, &InputFormatError{Path: path, Line: line, Msg: "want \"key value\", got " + s}
		}
		key, raw := fields[0], fields[1]
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ps, &InputFormatError{Path: path, Line: line, Msg: "bad value " + raw}
		}

		switch {
		case strings.HasPrefix(key, "pdiss."):
			name := strings.TrimPrefix(key, "pdiss.")
			p, ok := phaseByName(name)
			if !ok {
				return ps, &InputFormatError{Path: path, Line: line, Msg: "unknown phase " + name}
			}
			ps.Hydration.DissolutionProb[p] = val
		case strings.HasPrefix(key, "pnuc."):
			name := strings.TrimPrefix(key, "pnuc.")
			p, ok := nucleationMarker(name)
			if !ok {
				return ps, &InputFormatError{Path: path, Line: line, Msg: "no diffusing species deposits as " + name}
			}
			ps.Hydration.NucleationProb[p] = val
		case key == "diffusion_lifetime":
			ps.Hydration.DiffusionLifetimeMax = int(val)
		case key == "coalesce_prob":
			ps.Hydration.CoalesceProb = val
		case key == "nucleation_min_age":
			ps.Hydration.NucleationMinAge = int(val)
		case key == "deposit_search_radius":
			ps.Hydration.DepositSearchRadius = int(val)
		case key == "scm_rate_multiplier":
			ps.Hydration.SCMRateMultiplier = val
		case key == "csh_densify_prob":
			ps.Hydration.CSHDensifyProb = val
		case key == "csh_max_density":
			ps.Hydration.CSHMaxDensityClass = uint8(val)
		case key == "sulfate_starvation_threshold":
			ps.Hydration.SulfateStarvationThreshold = int(val)
		case key == "ettr_to_afm_prob":
			ps.Hydration.ETTRToAFMProb = val
		case key == "time_beta":
			ps.TimeBeta = val
		case key == "activation_energy":
			ps.ActivationEnergyKJMol = val
		case key == "reference_temperature":
			ps.ReferenceTempC = val
		default:
			return ps, &InputFormatError{Path: path, Line: line, Msg: "unknown key " + key}
		}
	}
	return ps, nil
}

func phaseByName(name string) (phase.Phase, bool) {
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		if phase.Get(p).Name == name {
			return p, true
		}
	}
	return 0, false
}
