package particle

import "github.com/mlange-42/ark/ecs"

// World owns the entity-component bookkeeping for particles during
// placement and distribution: particle records are created by the placer
// and dropped by the driver once the initial microstructure is fully
// painted.
type World struct {
	world *ecs.World

	mapper *ecs.Map4[Center, Geometry, Identity, Role]
	filter *ecs.Filter4[Center, Geometry, Identity, Role]

	nextID int32
}

// NewWorld creates an empty particle bookkeeping world.
func NewWorld() *World {
	w := ecs.NewWorld()
	return &World{
		world:  w,
		mapper: ecs.NewMap4[Center, Geometry, Identity, Role](w),
		filter: ecs.NewFilter4[Center, Geometry, Identity, Role](w),
	}
}

// Entity is an opaque handle to a particle record.
type Entity = ecs.Entity

// SpawnEntity creates a new particle entity and returns its ECS handle, for
// callers that need to mutate it in place afterward (e.g. the flocculation
// pass relocating a particle's Center). The Identity.ID field is assigned
// here, overwriting whatever the caller supplied.
func (w *World) SpawnEntity(center Center, geom Geometry, ident Identity, role Role) Entity {
	ident.ID = w.nextID
	w.nextID++
	return w.mapper.NewEntity(&center, &geom, &ident, &role)
}

// Get returns the four components of entity e.
func (w *World) Get(e Entity) (*Center, *Geometry, *Identity, *Role) {
	return w.mapper.Get(e)
}

// Each calls fn once per particle entity currently alive in the world. It is
// safe to mutate Center through the returned pointer; it is not safe to
// spawn or remove entities from within fn.
func (w *World) Each(fn func(e Entity, c *Center, g *Geometry, id *Identity, r *Role)) {
	query := w.filter.Query()
	for query.Next() {
		c, g, id, r := query.Get()
		fn(query.Entity(), c, g, id, r)
	}
}

// Remove deletes a particle entity. Used by the driver once the
// particle map has been fully painted into the lattice's particle-id field
// and the particle record is no longer needed.
func (w *World) Remove(e Entity) {
	w.world.RemoveEntity(e)
}

// Count returns the number of live particle entities.
func (w *World) Count() int {
	n := 0
	query := w.filter.Query()
	for query.Next() {
		n++
	}
	return n
}
