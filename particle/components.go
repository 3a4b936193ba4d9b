package particle

import "github.com/jwbullard/vcctl/phase"

// Center is the voxel-space center of a particle.
type Center struct {
	X, Y, Z int
}

// Geometry holds a particle's placement radius and shape.
type Geometry struct {
	RadiusVox int
	Shape     Shape
}

// Shape selects the voxel mask used to test and paint a particle.
type Shape uint8

const (
	ShapeSphere Shape = iota
	ShapeReal         // rotated/shifted mask from a catalogue
)

// Identity records the phase a particle was painted with, whether that
// phase is final or a placeholder for the distributor, and the particle-map
// id recorded in the lattice's particle-id field.
type Identity struct {
	ID          int32
	MonoPhase   phase.Phase
	IsMonophase bool
}

// Kind distinguishes the mixture role a particle plays, since the placer
// handles cement, sulfate-carrier, and SCM particles with different PSDs
// but identical placement machinery.
type Kind uint8

const (
	KindCement Kind = iota
	KindSulfate
	KindSCM
	KindFlyAsh
	KindAggregate
)

// Role tags an entity with its mixture Kind.
type Role struct {
	Kind Kind
}
