// Package psd implements the particle-size-distribution sampler:
// inverse-CDF sampling of integer voxel radii from a finite,
// monotone cumulative-volume-fraction curve.
package psd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/rng"
)

// ErrPSDTooSmall is returned when the finest bin diameter maps to a radius
// under 1 voxel at the requested resolution.
var ErrPSDTooSmall = errors.New("psd: finest bin underflows voxel resolution")

// Sampler draws integer voxel radii whose volume-weighted histogram
// converges to the supplied distribution as sample count grows.
type Sampler struct {
	diametersUm []float64
	cumulative  []float64 // same length, strictly non-decreasing, last = 1.0
	minRadius   int
}

// New builds a Sampler from a sorted PSD and the lattice resolution in
// micrometers per voxel. It fails with ErrPSDTooSmall if the smallest
// non-zero bin diameter rounds to a sub-voxel radius.
func New(points []mixspec.PSDPoint, resolutionUm float64) (*Sampler, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("psd: empty distribution")
	}
	if resolutionUm <= 0 {
		return nil, fmt.Errorf("psd: resolution must be positive, got %v", resolutionUm)
	}
	sorted := append([]mixspec.PSDPoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DiameterUm < sorted[j].DiameterUm })

	s := &Sampler{}
	prev := -1.0
	for _, p := range sorted {
		if p.CumulativeVolumeFrac < prev {
			return nil, fmt.Errorf("psd: cumulative volume fraction decreases at diameter %v", p.DiameterUm)
		}
		prev = p.CumulativeVolumeFrac
		s.diametersUm = append(s.diametersUm, p.DiameterUm)
		s.cumulative = append(s.cumulative, p.CumulativeVolumeFrac)
	}
	if last := s.cumulative[len(s.cumulative)-1]; last < 1.0-1e-9 || last > 1.0+1e-9 {
		return nil, fmt.Errorf("psd: last cumulative volume fraction = %v, want 1.0", last)
	}

	smallestRadiusVox := s.diametersUm[0] / 2.0 / resolutionUm
	s.minRadius = int(smallestRadiusVox + 0.5)
	if s.minRadius < 1 {
		return nil, ErrPSDTooSmall
	}
	return s, nil
}

// SampleRadiusVoxels draws one particle radius in voxels, using u (a draw
// from rng.Source.Float64, uniform in (0,1)) as the inverse-CDF input.
func (s *Sampler) SampleRadiusVoxels(u float64, resolutionUm float64) int {
	diameterUm := s.invertCDF(u)
	r := int(diameterUm/2.0/resolutionUm + 0.5)
	if r < 1 {
		r = 1
	}
	return r
}

// Sample draws n radii using source as the entropy stream.
func (s *Sampler) Sample(source *rng.Source, resolutionUm float64, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = s.SampleRadiusVoxels(source.Float64(), resolutionUm)
	}
	return out
}

// invertCDF performs piecewise-linear inverse-CDF interpolation: given a
// cumulative volume fraction u in (0,1), returns the corresponding particle
// diameter in micrometers.
func (s *Sampler) invertCDF(u float64) float64 {
	if u <= s.cumulative[0] {
		return s.diametersUm[0]
	}
	i := sort.Search(len(s.cumulative), func(i int) bool { return s.cumulative[i] >= u })
	if i <= 0 {
		return s.diametersUm[0]
	}
	if i >= len(s.cumulative) {
		return s.diametersUm[len(s.diametersUm)-1]
	}
	lo, hi := s.cumulative[i-1], s.cumulative[i]
	if hi == lo {
		return s.diametersUm[i]
	}
	t := (u - lo) / (hi - lo)
	return s.diametersUm[i-1] + t*(s.diametersUm[i]-s.diametersUm[i-1])
}

// MinRadiusVoxels returns the smallest radius (in voxels) this sampler can
// produce, i.e. the radius the finest PSD bin rounds to.
func (s *Sampler) MinRadiusVoxels() int { return s.minRadius }

// defaultMedianDiameterUm is returned by Median when the supplied curve
// does not reach a cumulative volume fraction of 0.5 (i.e. it is not
// normalised below the median). Two historical implementations of this
// lookup disagreed on that case, one returning this default, the other
// returning -1; callers depend on the default, so Median adopts it.
const defaultMedianDiameterUm = 10.0

// Median returns the diameter in micrometers at which the cumulative
// volume fraction first reaches 0.5, or defaultMedianDiameterUm if the
// curve never reaches it.
func (s *Sampler) Median() float64 {
	if s.cumulative[0] >= 0.5 {
		return s.diametersUm[0]
	}
	for i := 1; i < len(s.cumulative); i++ {
		if s.cumulative[i] >= 0.5 {
			lo, hi := s.cumulative[i-1], s.cumulative[i]
			if hi == lo {
				return s.diametersUm[i]
			}
			t := (0.5 - lo) / (hi - lo)
			return s.diametersUm[i-1] + t*(s.diametersUm[i]-s.diametersUm[i-1])
		}
	}
	return defaultMedianDiameterUm
}
