// Package lattice owns the 3-D voxel grid: a single contiguous buffer
// indexed by explicit arithmetic, no nested arrays and no pointer chasing,
// with periodic (toroidal) neighbor access on all three axes.
package lattice

import "github.com/jwbullard/vcctl/phase"

// Direction enumerates the six face-neighbor offsets.
type Direction int

const (
	PlusX Direction = iota
	MinusX
	PlusY
	MinusY
	PlusZ
	MinusZ
)

// Lattice owns the voxel buffer and its co-allocated auxiliary fields. It
// is created once at placement time and mutated in place by placement,
// distribution, and every hydration cycle.
type Lattice struct {
	X, Y, Z int
	voxels  []phase.Phase

	resolutionUm float64 // micrometers per voxel, reporting only

	// Auxiliary fields, lazily allocated on first request.
	particleID []int32 // -1 = unassigned
	cshAge     []uint8
	solubleCnt []uint8
}

// New allocates a lattice of the given dimensions, filled with POROSITY.
func New(x, y, z int, resolutionUm float64) *Lattice {
	if x <= 0 || y <= 0 || z <= 0 {
		panic("lattice: dimensions must be positive")
	}
	l := &Lattice{
		X: x, Y: y, Z: z,
		voxels:       make([]phase.Phase, x*y*z),
		resolutionUm: resolutionUm,
	}
	return l
}

// ResolutionUm returns the lattice's reporting-only resolution in
// micrometers per voxel. Algorithms never consult this value; only I/O and
// reporting do.
func (l *Lattice) ResolutionUm() float64 { return l.resolutionUm }

// idx computes the flat buffer offset for (x,y,z), which callers must
// already have wrapped into range — out-of-range indices are a programming
// error, not a recoverable condition.
func (l *Lattice) idx(x, y, z int) int {
	return ((x*l.Y)+y)*l.Z + z
}

// At returns the phase at (x,y,z).
func (l *Lattice) At(x, y, z int) phase.Phase {
	return l.voxels[l.idx(x, y, z)]
}

// Set stores phase p at (x,y,z).
func (l *Lattice) Set(x, y, z int, p phase.Phase) {
	l.voxels[l.idx(x, y, z)] = p
}

// Fill initializes every voxel to p.
func (l *Lattice) Fill(p phase.Phase) {
	for i := range l.voxels {
		l.voxels[i] = p
	}
}

// wrap folds v into [0, n) under periodic boundary conditions.
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Neighbor6 returns the toroidal coordinate of the face-neighbor of (x,y,z)
// in direction d.
func (l *Lattice) Neighbor6(x, y, z int, d Direction) (int, int, int) {
	switch d {
	case PlusX:
		return wrap(x+1, l.X), y, z
	case MinusX:
		return wrap(x-1, l.X), y, z
	case PlusY:
		return x, wrap(y+1, l.Y), z
	case MinusY:
		return x, wrap(y-1, l.Y), z
	case PlusZ:
		return x, y, wrap(z+1, l.Z)
	case MinusZ:
		return x, y, wrap(z-1, l.Z)
	}
	panic("lattice: invalid direction")
}

// Neighbor6Coords returns the six face-neighbor coordinates of (x,y,z) in a
// fixed order (+x,-x,+y,-y,+z,-z).
func (l *Lattice) Neighbor6Coords(x, y, z int) [6][3]int {
	var out [6][3]int
	for i, d := range [6]Direction{PlusX, MinusX, PlusY, MinusY, PlusZ, MinusZ} {
		nx, ny, nz := l.Neighbor6(x, y, z, d)
		out[i] = [3]int{nx, ny, nz}
	}
	return out
}

// Neighbor26Coords returns the 26 von-Neumann-excluded (i.e. Moore minus
// center) neighbor coordinates of (x,y,z), periodic on all axes.
func (l *Lattice) Neighbor26Coords(x, y, z int) [26][3]int {
	var out [26][3]int
	i := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out[i] = [3]int{wrap(x+dx, l.X), wrap(y+dy, l.Y), wrap(z+dz, l.Z)}
				i++
			}
		}
	}
	return out
}

// ParticleID lazily allocates and returns the particle-id field, with -1
// meaning "no particle" for every voxel not yet assigned.
func (l *Lattice) ParticleID() []int32 {
	if l.particleID == nil {
		l.particleID = make([]int32, len(l.voxels))
		for i := range l.particleID {
			l.particleID[i] = -1
		}
	}
	return l.particleID
}

// SetParticleID stores id at (x,y,z) in the lazily-allocated particle-id
// field.
func (l *Lattice) SetParticleID(x, y, z int, id int32) {
	l.ParticleID()[l.idx(x, y, z)] = id
}

// GetParticleID returns the particle id at (x,y,z), or -1 if unassigned or
// the field was never materialized.
func (l *Lattice) GetParticleID(x, y, z int) int32 {
	if l.particleID == nil {
		return -1
	}
	return l.particleID[l.idx(x, y, z)]
}

// CSHAge lazily allocates and returns the per-voxel CSH age/density byte
// field.
func (l *Lattice) CSHAge() []uint8 {
	if l.cshAge == nil {
		l.cshAge = make([]uint8, len(l.voxels))
	}
	return l.cshAge
}

// SolubleCount lazily allocates and returns the per-voxel fly-ash partial-
// dissolution soluble-count field.
func (l *Lattice) SolubleCount() []uint8 {
	if l.solubleCnt == nil {
		l.solubleCnt = make([]uint8, len(l.voxels))
	}
	return l.solubleCnt
}

// CountPhase returns the number of voxels currently holding phase p.
func (l *Lattice) CountPhase(p phase.Phase) int {
	n := 0
	for _, v := range l.voxels {
		if v == p {
			n++
		}
	}
	return n
}

// Counts returns the count of every phase in the catalogue, indexed by
// Phase. The sum of all entries always equals X*Y*Z.
func (l *Lattice) Counts() [phase.NumPhases]int {
	var counts [phase.NumPhases]int
	for _, v := range l.voxels {
		counts[v]++
	}
	return counts
}

// Len returns the total voxel count X*Y*Z.
func (l *Lattice) Len() int { return len(l.voxels) }

// ForEach calls fn once for every voxel coordinate, in z-fastest, then y,
// then x order, the convention current image files use.
func (l *Lattice) ForEach(fn func(x, y, z int, p phase.Phase)) {
	for x := 0; x < l.X; x++ {
		for y := 0; y < l.Y; y++ {
			for z := 0; z < l.Z; z++ {
				fn(x, y, z, l.voxels[l.idx(x, y, z)])
			}
		}
	}
}

// Raw returns the underlying voxel buffer in the z-fastest flat order used
// by the image file format. Callers must treat it as a read-only snapshot
// and not retain a mutable reference beyond a single read.
func (l *Lattice) Raw() []phase.Phase {
	return l.voxels
}

// Clone returns a deep copy of the lattice, including any materialized
// auxiliary fields. Used to stage mutations that must be committed or
// discarded atomically at a cycle boundary.
func (l *Lattice) Clone() *Lattice {
	out := &Lattice{
		X: l.X, Y: l.Y, Z: l.Z,
		resolutionUm: l.resolutionUm,
		voxels:       append([]phase.Phase(nil), l.voxels...),
	}
	if l.particleID != nil {
		out.particleID = append([]int32(nil), l.particleID...)
	}
	if l.cshAge != nil {
		out.cshAge = append([]uint8(nil), l.cshAge...)
	}
	if l.solubleCnt != nil {
		out.solubleCnt = append([]uint8(nil), l.solubleCnt...)
	}
	return out
}

// CopyFrom overwrites l's contents with src's, which must have identical
// dimensions. This backs the stage-then-commit pattern at cycle boundaries.
func (l *Lattice) CopyFrom(src *Lattice) {
	if l.X != src.X || l.Y != src.Y || l.Z != src.Z {
		panic("lattice: CopyFrom dimension mismatch")
	}
	copy(l.voxels, src.voxels)
	if src.particleID != nil {
		copy(l.ParticleID(), src.particleID)
	}
	if src.cshAge != nil {
		copy(l.CSHAge(), src.cshAge)
	}
	if src.solubleCnt != nil {
		copy(l.SolubleCount(), src.solubleCnt)
	}
}
