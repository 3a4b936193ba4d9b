// Package aggregate implements the aggregate packer: it places
// graded coarse and fine aggregate into a concrete-scale lattice using the
// same largest-first placement machinery as the particle package, then
// marks the interfacial transition zone (ITZ) around every aggregate voxel.
package aggregate

import (
	"fmt"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/particle"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
)

// Options controls one aggregate-packing pass.
type Options struct {
	// ITZThicknessVox is the halo radius, in aggregate-lattice voxels, marked
	// ITZ around every aggregate voxel. Defaults to 1 if zero.
	ITZThicknessVox int
}

// Result summarizes a packing pass across every grading population.
type Result struct {
	CoarsePlaced int
	FinePlaced   int
	ITZVoxels    int
}

// Pack places every grading in gradings into lat, largest sieve class first
// within each of the (up to two) coarse and (up to two) fine populations,
// then marks ITZ voxels. It reuses particle.Place verbatim: at the concrete
// scale an aggregate "particle" is placed exactly like a cement grain, just
// against a coarser lattice with its own resolution. The binder lattice
// at sub-mm resolution is a separate scale, linked only through the ITZ
// mapping, and is not produced here.
func Pack(lat *lattice.Lattice, gradings []mixspec.AggregateGrading, opt Options, source *rng.Source) (Result, error) {
	if opt.ITZThicknessVox <= 0 {
		opt.ITZThicknessVox = 1
	}
	world := particle.NewWorld()

	coarse, fine := splitGradings(gradings)
	var res Result

	if len(coarse) > 0 {
		n, err := placeGrading(lat, world, coarse, phase.COARSEAGG, particle.KindAggregate, source)
		if err != nil {
			return res, fmt.Errorf("aggregate: coarse placement: %w", err)
		}
		res.CoarsePlaced = n
	}
	if len(fine) > 0 {
		n, err := placeGrading(lat, world, fine, phase.FINEAGG, particle.KindAggregate, source)
		if err != nil {
			return res, fmt.Errorf("aggregate: fine placement: %w", err)
		}
		res.FinePlaced = n
	}

	res.ITZVoxels = markITZ(lat, opt.ITZThicknessVox)
	return res, nil
}

func splitGradings(gradings []mixspec.AggregateGrading) (coarse, fine []mixspec.AggregateGrading) {
	for _, g := range gradings {
		if g.Coarse {
			coarse = append(coarse, g)
		} else {
			fine = append(fine, g)
		}
	}
	return coarse, fine
}

// placeGrading converts a grading table into a single placement request
// (one PSD built from the sieve-class rows) and runs the shared largest-
// first placer against it, painting every placed voxel with mono.
func placeGrading(lat *lattice.Lattice, world *particle.World, gradings []mixspec.AggregateGrading, mono phase.Phase, kind particle.Kind, source *rng.Source) (int, error) {
	pts := make([]mixspec.PSDPoint, len(gradings))
	target := 0.0
	for _, g := range gradings {
		target += g.VolumeFraction
	}
	// Each row's cumulative fraction is the share of the population's volume
	// retained at or below its diameter, so the largest class ends at 1.0.
	for i, g := range gradings {
		cum := 0.0
		for _, o := range gradings {
			if o.DiameterUm <= g.DiameterUm {
				cum += o.VolumeFraction
			}
		}
		pts[i] = mixspec.PSDPoint{DiameterUm: g.DiameterUm, CumulativeVolumeFrac: cum / target}
	}
	req := particle.Request{
		Kind:             kind,
		PSD:              pts,
		TargetVolumeFrac: target,
		MonoPhase:        mono,
		IsMonophase:      true,
	}
	res, err := particle.Place(lat, world, req, particle.Options{}, source)
	if err != nil {
		return res.Placed, err
	}
	return res.Placed, nil
}

// markITZ paints every porosity voxel within radius vox of an aggregate
// voxel's 26-neighborhood as ITZ.
func markITZ(lat *lattice.Lattice, radiusVox int) int {
	n := 0
	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if p != phase.POROSITY {
			return
		}
		if withinAggregateHalo(lat, x, y, z, radiusVox) {
			lat.Set(x, y, z, phase.ITZ)
			n++
		}
	})
	return n
}

func withinAggregateHalo(lat *lattice.Lattice, x, y, z, radius int) bool {
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				nx := wrap(x+dx, lat.X)
				ny := wrap(y+dy, lat.Y)
				nz := wrap(z+dz, lat.Z)
				if isAggregate(lat.At(nx, ny, nz)) {
					return true
				}
			}
		}
	}
	return false
}

func isAggregate(p phase.Phase) bool {
	return p == phase.COARSEAGG || p == phase.FINEAGG || p == phase.INERTAGG
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
