package particle

import "github.com/jwbullard/vcctl/rng"

// realShapeAxes is the catalogue of digitized real particle shapes, each
// entry the principal half-axis ratios of a grain relative to its nominal
// (bounding-sphere) radius. The catalogue spans the blocky-to-platy range
// observed in milled clinker.
var realShapeAxes = [][3]float64{
	{1.00, 0.82, 0.64},
	{1.00, 0.90, 0.45},
	{1.00, 0.70, 0.70},
	{1.00, 0.95, 0.80},
	{1.00, 0.60, 0.55},
}

// realShapeFill is the mean volume of a catalogue shape relative to its
// bounding sphere, used to size the placement batch before the individual
// masks are digitized.
const realShapeFill = 0.50

// axisPerms enumerates the six axis permutations; combined with per-axis
// sign flips they give the 48 grid-aligned orientations a digitized mask
// can take.
var axisPerms = [6][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// footprint is the digitized voxel mask of one particle: the offsets it
// occupies relative to its center, plus the expanded mask used for the
// dispersion halo test. The two share one slice when no halo is requested.
type footprint struct {
	offsets [][3]int
	halo    [][3]int
}

// newFootprint builds the mask for one particle of the given shape and
// radius. Sphere masks are deterministic; real-shape masks draw a catalogue
// entry, one of the 48 grid orientations, and a sub-voxel shift from
// source, so the same nominal radius yields differently-digitized grains.
func newFootprint(shape Shape, r, haloVox int, source *rng.Source) footprint {
	if shape == ShapeReal {
		return realFootprint(r, haloVox, source)
	}
	fp := footprint{offsets: sphereOffsets(r)}
	if haloVox > 0 {
		fp.halo = sphereOffsets(r + haloVox)
	} else {
		fp.halo = fp.offsets
	}
	return fp
}

func sphereOffsets(r int) [][3]int {
	var out [][3]int
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz <= r*r {
					out = append(out, [3]int{dx, dy, dz})
				}
			}
		}
	}
	return out
}

// realFootprint digitizes one catalogue shape at radius r under a random
// orientation and sub-voxel shift. The same draw is reused for the halo
// mask so the dispersion test sees the same grain, just dilated.
func realFootprint(r, haloVox int, source *rng.Source) footprint {
	axes := realShapeAxes[source.Intn(len(realShapeAxes))]
	perm := axisPerms[source.Intn(len(axisPerms))]
	var sign [3]float64
	for i := range sign {
		if source.Float64() < 0.5 {
			sign[i] = -1
		} else {
			sign[i] = 1
		}
	}
	var shift [3]float64
	for i := range shift {
		shift[i] = source.Float64() - 0.5
	}

	fp := footprint{offsets: digitizeShape(axes, perm, sign, shift, r)}
	if haloVox > 0 {
		fp.halo = digitizeShape(axes, perm, sign, shift, r+haloVox)
	} else {
		fp.halo = fp.offsets
	}
	return fp
}

// digitizeShape rasterizes an ellipsoidal catalogue shape: a voxel offset
// is part of the mask when its coordinates, rotated into the shape's
// principal frame and shifted, fall inside the scaled half-axes. A shape
// that digitizes to nothing at small r degenerates to the single center
// voxel.
func digitizeShape(axes [3]float64, perm [3]int, sign [3]float64, shift [3]float64, r int) [][3]int {
	var out [][3]int
	fr := float64(r)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				v := [3]float64{float64(dx), float64(dy), float64(dz)}
				q := [3]float64{sign[0] * v[perm[0]], sign[1] * v[perm[1]], sign[2] * v[perm[2]]}
				s := 0.0
				for i := 0; i < 3; i++ {
					d := (q[i] - shift[i]) / (axes[i] * fr)
					s += d * d
				}
				if s <= 1.0 {
					out = append(out, [3]int{dx, dy, dz})
				}
			}
		}
	}
	if len(out) == 0 {
		out = append(out, [3]int{0, 0, 0})
	}
	return out
}
