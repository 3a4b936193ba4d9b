// Package percolation implements percolation and pore-structure metrics:
// a flood-fill percolation test from one lattice face to its
// opposite, the Dale-Ritter inscribed-sphere pore-size distribution, and
// exposed-solid surface area.
package percolation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
)

// Percolates runs an iterative, 6-connected flood fill seeded from every
// voxel in the target-phase set on the z=0 face, periodic in x and y, open
// in z. It reports whether the fill reaches any voxel on the
// z=Z-1 face.
func Percolates(lat *lattice.Lattice, target map[phase.Phase]bool) bool {
	visited := make([]bool, lat.Len())
	type coord struct{ x, y, z int }
	var stack []coord

	for x := 0; x < lat.X; x++ {
		for y := 0; y < lat.Y; y++ {
			if target[lat.At(x, y, 0)] {
				stack = append(stack, coord{x, y, 0})
			}
		}
	}

	idx := func(x, y, z int) int { return ((x*lat.Y)+y)*lat.Z + z }
	wrap := func(v, n int) int {
		v %= n
		if v < 0 {
			v += n
		}
		return v
	}

	reached := false
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i := idx(c.x, c.y, c.z)
		if visited[i] {
			continue
		}
		visited[i] = true
		if c.z == lat.Z-1 {
			reached = true
		}
		neighbors := make([]coord, 0, 6)
		neighbors = append(neighbors,
			coord{wrap(c.x+1, lat.X), c.y, c.z},
			coord{wrap(c.x-1, lat.X), c.y, c.z},
			coord{c.x, wrap(c.y+1, lat.Y), c.z},
			coord{c.x, wrap(c.y-1, lat.Y), c.z},
		)
		// z is open (not periodic): only step +/-1 when in range.
		if c.z+1 < lat.Z {
			neighbors = append(neighbors, coord{c.x, c.y, c.z + 1})
		}
		if c.z-1 >= 0 {
			neighbors = append(neighbors, coord{c.x, c.y, c.z - 1})
		}
		for _, n := range neighbors {
			if !visited[idx(n.x, n.y, n.z)] && target[lat.At(n.x, n.y, n.z)] {
				stack = append(stack, n)
			}
		}
	}
	return reached
}

// PoreSizeDistribution computes the Dale-Ritter inscribed-sphere pore size
// at every porosity voxel: the largest radius r such that some sphere of
// radius r, centered within r voxels of the query voxel, lies wholly in
// porosity. Returns a histogram of radii with the given bin width.
func PoreSizeDistribution(lat *lattice.Lattice, binWidth int) Histogram {
	if binWidth <= 0 {
		binWidth = 1
	}
	maxR := maxSearchRadius(lat)
	radii := make([]float64, 0, lat.Len())

	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if p != phase.POROSITY {
			return
		}
		radii = append(radii, float64(largestInscribedSphere(lat, x, y, z, maxR)))
	})

	return buildHistogram(radii, binWidth)
}

// maxSearchRadius bounds the inscribed-sphere search at half the smallest
// lattice dimension; no periodic pore can usefully exceed that.
func maxSearchRadius(lat *lattice.Lattice) int {
	m := lat.X
	if lat.Y < m {
		m = lat.Y
	}
	if lat.Z < m {
		m = lat.Z
	}
	return m / 2
}

// largestInscribedSphere finds the largest r such that a sphere of radius r
// centered at some point within r voxels of (x,y,z) is wholly porosity. It
// searches candidate centers on a coarse local grid and grows r greedily,
// which is the standard cheap approximation to the full Dale-Ritter method.
func largestInscribedSphere(lat *lattice.Lattice, x, y, z, maxR int) int {
	best := 0
	for r := 1; r <= maxR; r++ {
		if !sphereCenteredNearIsPorosity(lat, x, y, z, r) {
			break
		}
		best = r
	}
	return best
}

// sphereCenteredNearIsPorosity reports whether some center within r voxels
// of (x,y,z) supports a radius-r all-porosity sphere. Candidate centers are
// the query voxel itself and its 6 face-neighbors at distance r, which is
// sufficient to detect growth along the locally least-constrained axis.
func sphereCenteredNearIsPorosity(lat *lattice.Lattice, x, y, z, r int) bool {
	candidates := [][3]int{
		{x, y, z},
		{x + r, y, z}, {x - r, y, z},
		{x, y + r, z}, {x, y - r, z},
		{x, y, z + r}, {x, y, z - r},
	}
	for _, c := range candidates {
		if sphereIsPorosity(lat, c[0], c[1], c[2], r) {
			return true
		}
	}
	return false
}

func sphereIsPorosity(lat *lattice.Lattice, cx, cy, cz, r int) bool {
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if dx*dx+dy*dy+dz*dz > r*r {
					continue
				}
				x := wrapCoord(cx+dx, lat.X)
				y := wrapCoord(cy+dy, lat.Y)
				z := wrapCoord(cz+dz, lat.Z)
				if lat.At(x, y, z) != phase.POROSITY {
					return false
				}
			}
		}
	}
	return true
}

func wrapCoord(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// Histogram is a bucketed count-and-summary-statistics report over an
// inscribed-radius (or other non-negative) sample set.
type Histogram struct {
	BinWidth int
	Counts   []int // Counts[i] = number of samples in [i*BinWidth, (i+1)*BinWidth)
	Mean     float64
	StdDev   float64
}

func buildHistogram(samples []float64, binWidth int) Histogram {
	h := Histogram{BinWidth: binWidth}
	if len(samples) == 0 {
		return h
	}
	maxV := 0.0
	for _, s := range samples {
		if s > maxV {
			maxV = s
		}
	}
	nbins := int(maxV)/binWidth + 1
	h.Counts = make([]int, nbins)
	for _, s := range samples {
		bin := int(s) / binWidth
		h.Counts[bin]++
	}
	h.Mean = stat.Mean(samples, nil)
	h.StdDev = stat.StdDev(samples, nil)
	return h
}

// SurfaceAreaVoxels counts exposed-solid faces: a solid voxel contributes
// one unit of surface area for each of its 6-neighbors that is porosity
// .
func SurfaceAreaVoxels(lat *lattice.Lattice) int {
	area := 0
	lat.ForEach(func(x, y, z int, p phase.Phase) {
		if !p.IsSolid() {
			return
		}
		for _, n := range lat.Neighbor6Coords(x, y, z) {
			if lat.At(n[0], n[1], n[2]) == phase.POROSITY {
				area++
			}
		}
	})
	return area
}

// PhaseFraction returns the fraction of the lattice's voxels holding p.
func PhaseFraction(lat *lattice.Lattice, p phase.Phase) float64 {
	return float64(lat.CountPhase(p)) / float64(lat.Len())
}
