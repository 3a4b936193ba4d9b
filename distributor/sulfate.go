package distributor

import (
	"fmt"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/particle"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

// DistributeSulfates places each requested sulfate carrier as its own
// particle population, using its own PSD. Sulfate particles are placed
// monophase and never swap with clinker: the placer already
// paints them, so this is a thin driver that runs one placement
// pass per carrier.
func DistributeSulfates(lat *lattice.Lattice, world *particle.World, fractions []mixspec.SulfateFraction, totalSolidVoxels int, source *rng.Source) error {
	for _, sf := range fractions {
		if sf.MassFrac <= 0 {
			continue
		}
		density := phase.Get(sf.Phase).DensityMgM3
		if density <= 0 {
			return fmt.Errorf("distributor: sulfate phase %s has no catalogue density", sf.Phase)
		}
		targetVolumeFrac := sf.MassFrac * referenceDensity / density * float64(totalSolidVoxels) / float64(lat.Len())
		req := particle.Request{
			Kind:             particle.KindSulfate,
			PSD:              sf.PSD,
			TargetVolumeFrac: targetVolumeFrac,
			MonoPhase:        sf.Phase,
			IsMonophase:      true,
		}
		if _, err := particle.Place(lat, world, req, particle.Options{}, source); err != nil {
			return fmt.Errorf("distributor: placing sulfate carrier %s: %w", sf.Phase, err)
		}
	}
	return nil
}

// referenceDensity is the nominal cement clinker density (Mg/m^3) used to
// convert a sulfate mass fraction (measured against total cementitious
// mass) into an approximate volume fraction of the whole lattice.
const referenceDensity = 3.15
