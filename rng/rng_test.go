package rng

import "testing"

func TestFloat64Range(t *testing.T) {
	s := New(-1234)
	for i := 0; i < 100000; i++ {
		v := s.Float64()
		if v <= 0 || v >= 1 {
			t.Fatalf("Float64() = %v, want in (0,1)", v)
		}
	}
}

func TestIntnRange(t *testing.T) {
	s := New(-42)
	for i := 0; i < 10000; i++ {
		v := s.Intn(7)
		if v < 0 || v >= 7 {
			t.Fatalf("Intn(7) = %d, want in [0,7)", v)
		}
	}
}

func TestDeterministicBySeed(t *testing.T) {
	a := New(-1234)
	b := New(-1234)
	for i := 0; i < 1000; i++ {
		va, vb := a.Float64(), b.Float64()
		if va != vb {
			t.Fatalf("draw %d diverged: %v != %v", i, va, vb)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(-1)
	b := New(-2)
	same := true
	for i := 0; i < 16; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("two distinct seeds produced identical sequences")
	}
}

func TestResetReproducesSequence(t *testing.T) {
	s := New(-99)
	first := make([]float64, 10)
	for i := range first {
		first[i] = s.Float64()
	}
	s.Reset(-99)
	for i := range first {
		if v := s.Float64(); v != first[i] {
			t.Fatalf("after Reset, draw %d = %v, want %v", i, v, first[i])
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	s := New(-7)
	n := 50
	vals := make([]int, n)
	for i := range vals {
		vals[i] = i
	}
	s.Shuffle(n, func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })

	seen := make([]bool, n)
	for _, v := range vals {
		if v < 0 || v >= n || seen[v] {
			t.Fatalf("Shuffle produced a non-permutation: %v", vals)
		}
		seen[v] = true
	}
}

func TestSplitDeterministic(t *testing.T) {
	parent1 := New(-5)
	parent2 := New(-5)

	child1 := parent1.Split(3)
	child2 := parent2.Split(3)

	for i := 0; i < 100; i++ {
		if child1.Float64() != child2.Float64() {
			t.Fatalf("Split(3) from identical parents diverged at draw %d", i)
		}
	}
}

func TestSplitDifferentWorkersDiverge(t *testing.T) {
	parent := New(-5)
	// Split mutates the parent stream, so derive both children from fresh,
	// identically-seeded parents to isolate the worker-index effect.
	c1 := New(-5).Split(1)
	c2 := New(-5).Split(2)
	_ = parent
	same := true
	for i := 0; i < 16; i++ {
		if c1.Float64() != c2.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("Split with different worker indices produced identical sequences")
	}
}
