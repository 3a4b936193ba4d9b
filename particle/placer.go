// Package particle implements the particle placer: largest-
// first insertion of spherical or real-shape particles into the lattice,
// with optional flocculation or dispersion, backed by an ECS world
// (mlange-42/ark) for particle bookkeeping that the sulfate distributor
// later consumes and the driver drops.
package particle

import (
	"fmt"
	"sort"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/psd"
	"github.com/jwbullard/vcctl/rng"
)

// ErrPackingInfeasible is returned when, after every particle has used its
// retry budget, the placed volume is below 90% of the target solid volume.
type ErrPackingInfeasible struct {
	RequestedFraction float64
	AchievedFraction  float64
}

func (e *ErrPackingInfeasible) Error() string {
	return fmt.Sprintf("particle: packing infeasible, requested solid fraction %.4f, achieved %.4f",
		e.RequestedFraction, e.AchievedFraction)
}

// retriesPerParticle bounds how many candidate centers are tried before a
// particle is abandoned and placement moves to the next (smaller) one.
const retriesPerParticle = 200

// Request describes one population of particles to place: a PSD, a target
// solid volume fraction of the lattice, a mixture role, a particle shape,
// and a phase to paint. Monophase populations keep MonoPhase as their final
// identity; other populations use it as a placeholder the distributor
// repaints, which also keeps their footprint solid so later particles
// cannot land on it.
type Request struct {
	Kind             Kind
	Shape            Shape
	PSD              []mixspec.PSDPoint
	TargetVolumeFrac float64
	MonoPhase        phase.Phase
	IsMonophase      bool
}

// Options controls the placement pass.
type Options struct {
	Dispersity            mixspec.Dispersity
	FlocculationIntensity float64
}

// Result summarizes one placement pass.
type Result struct {
	Placed          int
	AchievedVolume  int
	RequestedVolume int
}

// Place inserts particles for req into lat, using source for all random
// draws, and records each particle in world. Particles are placed
// largest-first, so smaller particles can fill interstices later.
func Place(lat *lattice.Lattice, world *World, req Request, opt Options, source *rng.Source) (Result, error) {
	sampler, err := psd.New(req.PSD, lat.ResolutionUm())
	if err != nil {
		return Result{}, err
	}

	totalVoxels := lat.Len()
	targetVoxels := int(req.TargetVolumeFrac*float64(totalVoxels) + 0.5)

	haloVox := 0
	switch opt.Dispersity {
	case mixspec.DispersityDispersed1:
		haloVox = 1
	case mixspec.DispersityDispersed2:
		haloVox = 2
	}

	var radii []int
	placedVoxels := 0
	for placedVoxels < targetVoxels {
		r := sampler.SampleRadiusVoxels(source.Float64(), lat.ResolutionUm())
		radii = append(radii, r)
		vol := sphereVolume(r)
		if req.Shape == ShapeReal {
			vol = int(realShapeFill*float64(vol) + 0.5)
		}
		placedVoxels += vol
	}
	// Largest-first: sort descending so small particles are placed last and
	// can fill interstices.
	sort.Sort(sort.Reverse(sort.IntSlice(radii)))

	res := Result{RequestedVolume: targetVoxels}

	for _, r := range radii {
		// A particle wider than the lattice would overlap its own periodic
		// image, so it cannot be placed.
		if span := 2*r + 1; span > lat.X || span > lat.Y || span > lat.Z {
			continue
		}
		fp := newFootprint(req.Shape, r, haloVox, source)
		center, ok := tryPlace(lat, fp, source)
		if !ok {
			continue
		}
		ident := Identity{MonoPhase: req.MonoPhase, IsMonophase: req.IsMonophase}
		entity := world.SpawnEntity(center, Geometry{RadiusVox: r, Shape: req.Shape}, ident, Role{Kind: req.Kind})
		_, _, identPtr, _ := world.Get(entity)
		markFootprint(lat, center, fp.offsets, req.MonoPhase, identPtr.ID)
		res.Placed++
		res.AchievedVolume += len(fp.offsets)
	}

	if opt.Dispersity == mixspec.DispersityFlocculated && opt.FlocculationIntensity > 0 {
		flocculate(lat, world, opt.FlocculationIntensity, source)
	}

	if float64(res.AchievedVolume) < 0.9*float64(targetVoxels) {
		return res, &ErrPackingInfeasible{
			RequestedFraction: req.TargetVolumeFrac,
			AchievedFraction:  float64(res.AchievedVolume) / float64(totalVoxels),
		}
	}
	return res, nil
}

// sphereVolume returns the number of voxels within radius r of a digital
// sphere center (a coarse count, refined by the actual paint pass).
func sphereVolume(r int) int {
	n := 0
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz <= r*r {
					n++
				}
			}
		}
	}
	return n
}

// tryPlace proposes random centers until the particle's halo mask (the
// footprint itself when no dispersion halo is requested) lands entirely on
// POROSITY, or the retry budget is exhausted.
func tryPlace(lat *lattice.Lattice, fp footprint, source *rng.Source) (Center, bool) {
	for attempt := 0; attempt < retriesPerParticle; attempt++ {
		c := Center{
			X: source.Intn(lat.X),
			Y: source.Intn(lat.Y),
			Z: source.Intn(lat.Z),
		}
		if fitsMask(lat, c, fp.halo) {
			return c, true
		}
	}
	return Center{}, false
}

// fitsMask reports whether every voxel of the mask, translated to c, is
// currently POROSITY, honoring periodic wrap.
func fitsMask(lat *lattice.Lattice, c Center, offsets [][3]int) bool {
	for _, o := range offsets {
		x := wrapCoord(c.X+o[0], lat.X)
		y := wrapCoord(c.Y+o[1], lat.Y)
		z := wrapCoord(c.Z+o[2], lat.Z)
		if lat.At(x, y, z) != phase.POROSITY {
			return false
		}
	}
	return true
}

// markFootprint paints every voxel of the mask, translated to c, with the
// particle's phase and records its id.
func markFootprint(lat *lattice.Lattice, c Center, offsets [][3]int, p phase.Phase, id int32) {
	for _, o := range offsets {
		x := wrapCoord(c.X+o[0], lat.X)
		y := wrapCoord(c.Y+o[1], lat.Y)
		z := wrapCoord(c.Z+o[2], lat.Z)
		lat.Set(x, y, z, p)
		lat.SetParticleID(x, y, z, id)
	}
}

// fits reports whether every voxel of the digital sphere of radius r around
// c is currently POROSITY, honoring periodic wrap.
func fits(lat *lattice.Lattice, c Center, r int) bool {
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz > r*r {
					continue
				}
				x := wrapCoord(c.X+dx, lat.X)
				y := wrapCoord(c.Y+dy, lat.Y)
				z := wrapCoord(c.Z+dz, lat.Z)
				if lat.At(x, y, z) != phase.POROSITY {
					return false
				}
			}
		}
	}
	return true
}

// markParticleVoxels paints every voxel of the particle with its monophase
// chemical identity and records the particle id.
func markParticleVoxels(lat *lattice.Lattice, c Center, r int, p phase.Phase, id int32) {
	forEachSphereVoxel(lat, c, r, func(x, y, z int) {
		lat.Set(x, y, z, p)
		lat.SetParticleID(x, y, z, id)
	})
}

func forEachSphereVoxel(lat *lattice.Lattice, c Center, r int, fn func(x, y, z int)) {
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz > r*r {
					continue
				}
				fn(wrapCoord(c.X+dx, lat.X), wrapCoord(c.Y+dy, lat.Y), wrapCoord(c.Z+dz, lat.Z))
			}
		}
	}
}

func wrapCoord(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// flocculate relocates a bounded fraction of small particles adjacent to
// randomly chosen large particles. "Small" and "large" are
// defined relative to the median radius among placed particles; a particle
// qualifies as a flocculation candidate only if it currently has no solid
// neighbor within its own radius-plus-one halo.
func flocculate(lat *lattice.Lattice, world *World, intensity float64, source *rng.Source) {
	type rec struct {
		e     Entity
		c     Center
		r     int
		shape Shape
	}
	var all []rec
	world.Each(func(e Entity, c *Center, g *Geometry, id *Identity, r *Role) {
		all = append(all, rec{e: e, c: *c, r: g.RadiusVox, shape: g.Shape})
	})
	if len(all) < 2 {
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].r < all[j].r })
	median := all[len(all)/2].r

	var small, large []rec
	for _, p := range all {
		if p.r < median {
			small = append(small, p)
		} else {
			large = append(large, p)
		}
	}
	if len(small) == 0 || len(large) == 0 {
		return
	}

	maxRelocations := int(intensity*float64(len(small)) + 0.5)
	for i := 0; i < maxRelocations; i++ {
		sp := small[source.Intn(len(small))]
		if sp.shape != ShapeSphere {
			// Relocating a real-shape grain would need its original mask to
			// erase it exactly; only spherical particles flocculate.
			continue
		}
		if !isolated(lat, sp.c, sp.r) {
			continue
		}
		target := large[source.Intn(len(large))]
		candidate := Center{
			X: wrapCoord(target.c.X+target.r+sp.r+1, lat.X),
			Y: target.c.Y,
			Z: target.c.Z,
		}
		if !fits(lat, candidate, sp.r) {
			continue
		}
		eraseSphere(lat, sp.c, sp.r)
		c, _, ident, _ := world.Get(sp.e)
		*c = candidate
		markParticleVoxels(lat, candidate, sp.r, ident.MonoPhase, ident.ID)
	}
}

// isolated reports whether no solid voxel exists within one voxel of the
// sphere's surface, the flocculation candidacy test.
func isolated(lat *lattice.Lattice, c Center, r int) bool {
	return fits(lat, c, r+1)
}

// eraseSphere resets a particle's footprint back to porosity ahead of a
// flocculation relocation.
func eraseSphere(lat *lattice.Lattice, c Center, r int) {
	forEachSphereVoxel(lat, c, r, func(x, y, z int) {
		lat.Set(x, y, z, phase.POROSITY)
		lat.SetParticleID(x, y, z, -1)
	})
}

// ValidateOptions checks that Options does not request an out-of-range
// flocculation intensity. Flocculation and dispersion cannot both be
// requested since Dispersity holds a single value.
func ValidateOptions(opt Options) error {
	if opt.Dispersity == mixspec.DispersityFlocculated && (opt.FlocculationIntensity < 0 || opt.FlocculationIntensity > 1) {
		return fmt.Errorf("particle: flocculation intensity must be in [0,1]")
	}
	return nil
}
