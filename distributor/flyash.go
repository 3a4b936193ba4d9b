package distributor

import (
	"fmt"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

// flyAshOutcome names one multinomial outcome phase and its target share.
type flyAshOutcome struct {
	phase  phase.Phase
	weight float64
}

// outcomes converts a FlyAshComposition's named weights into a normalized
// multinomial over phases. INERT stands in for the historical catalogue's
// "nothing reacts" outcome.
func outcomes(c mixspec.FlyAshComposition) []flyAshOutcome {
	raw := []flyAshOutcome{
		{phase.ASG, c.ASG},
		{phase.CAS2, c.CAS2},
		{phase.C3A, c.C3A},
		{phase.FREELIME, c.FreeLime},
		{phase.AMSIL, c.AMSil},
		{phase.ANHYDRITE, c.Anhydrite},
		{phase.INERT, c.Inert},
	}
	total := 0.0
	for _, o := range raw {
		total += o.weight
	}
	if total <= 0 {
		return nil
	}
	out := make([]flyAshOutcome, 0, len(raw))
	for _, o := range raw {
		if o.weight > 0 {
			out = append(out, flyAshOutcome{o.phase, o.weight / total})
		}
	}
	return out
}

// flyAshSampler draws from the multinomial while enforcing per-phase target
// counts: a proposal that would overshoot its target is resampled.
type flyAshSampler struct {
	outcomes []flyAshOutcome
	target   map[phase.Phase]int
	count    map[phase.Phase]int
}

func newFlyAshSampler(c mixspec.FlyAshComposition, totalVoxels int) *flyAshSampler {
	out := outcomes(c)
	s := &flyAshSampler{
		outcomes: out,
		target:   make(map[phase.Phase]int, len(out)),
		count:    make(map[phase.Phase]int, len(out)),
	}
	for _, o := range out {
		s.target[o.phase] = int(o.weight*float64(totalVoxels) + 0.5)
	}
	return s
}

// draw samples one phase from the multinomial, resampling up to
// maxResamples times whenever the pick has already hit its target; if no
// attempt lands on a phase below its target, it hands out the
// least-saturated phase.
func (s *flyAshSampler) draw(source *rng.Source) phase.Phase {
	if len(s.outcomes) == 0 {
		return phase.INERT
	}
	const maxResamples = 8
	for attempt := 0; attempt < maxResamples; attempt++ {
		u := source.Float64()
		cum := 0.0
		for _, o := range s.outcomes {
			cum += o.weight
			if u <= cum {
				if s.count[o.phase] < s.target[o.phase] {
					s.count[o.phase]++
					return o.phase
				}
				break
			}
		}
	}
	// Every attempt overshot; hand out the phase furthest below its target.
	best := s.outcomes[0].phase
	bestSlack := -1 << 62
	for _, o := range s.outcomes {
		slack := s.target[o.phase] - s.count[o.phase]
		if slack > bestSlack {
			bestSlack = slack
			best = o.phase
		}
	}
	s.count[best]++
	return best
}

// FlyAshCandidate is one lattice voxel belonging to an unpainted fly-ash
// particle, tagged with the particle id it belongs to (per-particle mode
// needs to assign one phase to every voxel sharing an id).
type FlyAshCandidate struct {
	X, Y, Z    int
	ParticleID int32
}

// DistributeFlyAsh paints the fly-ash candidate voxels left by the placer:
// in PerParticle mode every voxel of a given particle gets
// the same phase draw; in PerVoxel mode each voxel draws independently.
func DistributeFlyAsh(lat *lattice.Lattice, candidates []FlyAshCandidate, comp mixspec.FlyAshComposition, source *rng.Source) error {
	if len(candidates) == 0 {
		return nil
	}
	sampler := newFlyAshSampler(comp, len(candidates))

	switch comp.Mode {
	case mixspec.FlyAshPerVoxel:
		for _, c := range candidates {
			lat.Set(c.X, c.Y, c.Z, sampler.draw(source))
		}
	case mixspec.FlyAshPerParticle, "":
		byParticle := make(map[int32][]FlyAshCandidate)
		order := make([]int32, 0)
		for _, c := range candidates {
			if _, seen := byParticle[c.ParticleID]; !seen {
				order = append(order, c.ParticleID)
			}
			byParticle[c.ParticleID] = append(byParticle[c.ParticleID], c)
		}
		for _, id := range order {
			p := sampler.draw(source)
			for _, c := range byParticle[id] {
				lat.Set(c.X, c.Y, c.Z, p)
			}
		}
	default:
		return fmt.Errorf("distributor: unknown fly-ash mode %q", comp.Mode)
	}
	return nil
}
