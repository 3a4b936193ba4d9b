package phase

import "testing"

func TestCatalogueComplete(t *testing.T) {
	for p := Phase(0); p < NumPhases; p++ {
		props := Get(p)
		if props.Name == "" {
			t.Fatalf("phase %d has no catalogue row", p)
		}
	}
}

func TestClinkerPhasesSoluble(t *testing.T) {
	for _, p := range []Phase{C3S, C2S, C3A, OC3A, C4AF} {
		props := Get(p)
		if !props.IsClinker {
			t.Errorf("%v: expected IsClinker", p)
		}
		if !props.IsSoluble {
			t.Errorf("%v: expected IsSoluble", p)
		}
		if len(props.ReactionProducts) == 0 {
			t.Errorf("%v: expected at least one reaction product", p)
		}
	}
}

func TestC3SStoichiometry(t *testing.T) {
	products := Get(C3S).ReactionProducts
	var sawCSH, sawCH bool
	for _, rp := range products {
		switch rp.Product {
		case DIFFCSH:
			sawCSH = true
			if rp.Count != 2 {
				t.Errorf("C3S -> DIFFCSH count = %d, want 2", rp.Count)
			}
		case DIFFCH:
			sawCH = true
		}
	}
	if !sawCSH || !sawCH {
		t.Errorf("C3S dissolution should yield both DIFFCSH and DIFFCH, got %+v", products)
	}
}

func TestDiffusingMarkersHaveEquilibriumSolid(t *testing.T) {
	diffusing := []Phase{
		DIFFCSH, DIFFCH, DIFFETTR, DIFFAFM, DIFFC3A, DIFFC4A, DIFFFH3,
		DIFFGYP, DIFFANH, DIFFHEM, DIFFCAS2, DIFFSLAG, DIFFAS, DIFFCACO3,
	}
	for _, p := range diffusing {
		props := Get(p)
		if !props.IsDiffusing {
			t.Errorf("%v: expected IsDiffusing", p)
		}
		if props.EquilibriumSolid == POROSITY {
			t.Errorf("%v: expected a non-porosity equilibrium solid", p)
		}
	}
}

func TestIsSolid(t *testing.T) {
	if POROSITY.IsSolid() {
		t.Error("POROSITY should not be solid")
	}
	if EMPTYP.IsSolid() {
		t.Error("EMPTYP should not be solid")
	}
	if DIFFCSH.IsSolid() {
		t.Error("DIFFCSH (diffusion marker) should not be solid")
	}
	if !C3S.IsSolid() {
		t.Error("C3S should be solid")
	}
	if !CSH.IsSolid() {
		t.Error("CSH should be solid")
	}
}

func TestStringUnknown(t *testing.T) {
	if got := NumPhases.String(); got != "UNKNOWN" {
		t.Errorf("String() for out-of-range phase = %q, want UNKNOWN", got)
	}
}
