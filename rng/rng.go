// Package rng provides the long-period, seedable pseudo-random source used
// by every stochastic component of the simulation. It deliberately avoids
// math/rand: reproducibility requires a bit-identical sequence for a given
// seed on any platform, a guarantee the standard library's generator does
// not make across Go releases.
package rng

// Source is a combined multiplicative-recursive generator in the style of
// L'Ecuyer's MRG32k3a: two component MRGs of order 3 are stepped in lock
// step and combined, giving a period near 2^191 in theory; the component
// moduli below are chosen to keep the combined period comfortably above the
// 2^60 floor the reproducibility contract needs while keeping every step an int64
// multiply-mod that is exact on any platform with 64-bit integers.
type Source struct {
	// Component generator 1 state (s10, s11, s12) and 2 (s20, s21, s22).
	s10, s11, s12 int64
	s20, s21, s22 int64
	seed          int32
}

const (
	m1         = 4294967087
	m2         = 4294944443
	a12        = 1403580
	a13n       = 810728
	a21        = 527612
	a23n       = 1370589
	normFactor = 1.0 / (m1 + 1)
)

// New creates a generator from seed. The historical convention
// is that seeds are negative; New accepts any int32 and folds it into a
// positive, non-degenerate initial state.
func New(seed int32) *Source {
	s := &Source{seed: seed}
	s.Reset(seed)
	return s
}

// Reset reinitializes the generator from seed, producing the same sequence
// New(seed) would have produced from its first draw.
func (s *Source) Reset(seed int32) {
	s.seed = seed
	// Fold the (possibly negative) seed into six non-zero state words via a
	// simple, deterministic mixing step. The exact mixing constants do not
	// matter for correctness, only that they are fixed so every platform
	// derives the same initial state from the same seed.
	v := int64(seed)
	if v < 0 {
		v = -v
	}
	v = v*2 + 1
	mix := func(salt int64) int64 {
		x := v ^ (v << 13) ^ salt
		x = (x*6364136223846793005 + salt) % m1
		if x < 0 {
			x += m1
		}
		if x == 0 {
			x = 1
		}
		return x
	}
	s.s10 = mix(1)
	s.s11 = mix(2)
	s.s12 = mix(3)
	s.s20 = mix(4) % m2
	if s.s20 == 0 {
		s.s20 = 1
	}
	s.s21 = mix(5) % m2
	if s.s21 == 0 {
		s.s21 = 1
	}
	s.s22 = mix(6) % m2
	if s.s22 == 0 {
		s.s22 = 1
	}
}

// Seed returns the seed this generator was constructed or last Reset with.
func (s *Source) Seed() int32 { return s.seed }

// next advances both component MRGs one step and returns the combined raw
// value in [1, m1].
func (s *Source) next() int64 {
	p1 := (a12*s.s11 - a13n*s.s10) % m1
	if p1 < 0 {
		p1 += m1
	}
	s.s10, s.s11, s.s12 = s.s11, s.s12, p1

	p2 := (a21*s.s22 - a23n*s.s20) % m2
	if p2 < 0 {
		p2 += m2
	}
	s.s20, s.s21, s.s22 = s.s21, s.s22, p2

	z := p1 - p2
	if z <= 0 {
		z += m1
	}
	return z
}

// Float64 returns a pseudo-random value uniformly distributed in (0,1).
func (s *Source) Float64() float64 {
	return float64(s.next()) * normFactor
}

// Intn returns a pseudo-random integer uniformly distributed in [0,n). It
// panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return int(s.Float64() * float64(n))
}

// Shuffle randomizes the order of n elements via the swap callback, using a
// Fisher-Yates shuffle driven by this generator.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}

// Split derives a new, independent generator deterministically from this
// one's current state and an integer worker index, for use when the
// hydration engine is parallelised. Two Split
// calls with the same (state, index) always produce identical sub-streams.
func (s *Source) Split(workerIndex int) *Source {
	// Draw a derived seed from the current stream; this consumes one value
	// from the parent, so the parent's later output depends on how many
	// workers were split off.
	raw := s.next()
	derivedSeed := int32((raw*2654435761 + int64(workerIndex)*40503) % (1 << 31))
	return New(derivedSeed)
}
