// Package phase defines the closed chemical-phase catalogue shared by every
// other component: the lattice stores phase IDs, the distributor paints
// them, and the hydration engine consumes their reaction stoichiometry.
package phase

// Phase identifies the chemical or pseudo-chemical nature of a voxel. The
// enumeration is closed: every value must have a corresponding row in the
// Properties table below, keyed by its integer representation.
type Phase uint8

const (
	POROSITY Phase = iota
	EMPTYP         // dried/self-desiccated porosity

	// Anhydrous clinker phases.
	C3S
	C2S
	C3A
	OC3A // orthorhombic C3A
	C4AF

	// Sulfate carriers.
	GYPSUM
	HEMIHYD
	ANHYDRITE
	K2SO4
	NA2SO4

	// Supplementary cementitious materials.
	SLAG
	FLYASH
	ASG
	CAS2
	AMSIL
	SFUME
	CACO3
	FREELIME

	// Hydration products.
	CSH
	POZZCSH
	SLAGCSH
	CH
	ETTR
	AFM
	AFMC
	STRAT
	C3AH6
	FH3
	FRIEDEL
	BRUCITE
	MS

	// Diffusing-species markers, one per soluble species.
	DIFFCSH
	DIFFCH
	DIFFETTR
	DIFFAFM
	DIFFC3A
	DIFFC4A
	DIFFFH3
	DIFFGYP
	DIFFANH
	DIFFHEM
	DIFFCAS2
	DIFFSLAG
	DIFFAS
	DIFFCACO3

	// Aggregate and inert classes.
	INERTAGG
	COARSEAGG
	FINEAGG
	ITZ
	INERT

	NumPhases
)

// ReactionProduct is one term of a dissolution/precipitation stoichiometry:
// N voxels of the reactant emit Count voxels of Product.
type ReactionProduct struct {
	Product Phase
	Count   int
}

// Properties is the immutable per-phase row of the catalogue.
type Properties struct {
	Name                string
	DensityMgM3         float64 // Mg/m^3
	MolarMassGMol       float64 // g/mol
	IsClinker           bool
	IsSoluble           bool
	IsDiffusing         bool
	IsSCM               bool
	EquilibriumSolid    Phase             // what a diffusing marker deposits as at expiry
	ReactionProducts    []ReactionProduct // dissolution stoichiometry, empty if none
	ActivationEnergy    float64           // kJ/mol, 0 if not thermally activated
	HeatOfReactionKJMol float64           // kJ released per mole dissolved, 0 if not exothermic
	Color               [3]uint8          // RGB rendering palette
}

// table is keyed by Phase and is the sole source of per-phase data for the
// lifetime of the process.
var table [NumPhases]Properties

func init() {
	table[POROSITY] = Properties{Name: "POROSITY", Color: [3]uint8{0, 0, 0}}
	table[EMPTYP] = Properties{Name: "EMPTYP", Color: [3]uint8{40, 40, 40}}

	table[C3S] = Properties{
		Name: "C3S", DensityMgM3: 3.21, MolarMassGMol: 228.32,
		IsClinker: true, IsSoluble: true, ActivationEnergy: 41.8,
		ReactionProducts:    []ReactionProduct{{DIFFCSH, 2}, {DIFFCH, 1}},
		HeatOfReactionKJMol: 517.0,
		Color:               [3]uint8{75, 75, 200},
	}
	table[C2S] = Properties{
		Name: "C2S", DensityMgM3: 3.28, MolarMassGMol: 172.24,
		IsClinker: true, IsSoluble: true, ActivationEnergy: 41.8,
		ReactionProducts:    []ReactionProduct{{DIFFCSH, 2}},
		HeatOfReactionKJMol: 262.0,
		Color:               [3]uint8{100, 100, 230},
	}
	table[C3A] = Properties{
		Name: "C3A", DensityMgM3: 3.03, MolarMassGMol: 270.20,
		IsClinker: true, IsSoluble: true, ActivationEnergy: 54.0,
		ReactionProducts:    []ReactionProduct{{DIFFC3A, 1}},
		HeatOfReactionKJMol: 1144.0,
		Color:               [3]uint8{200, 120, 50},
	}
	table[OC3A] = Properties{
		Name: "OC3A", DensityMgM3: 3.03, MolarMassGMol: 270.20,
		IsClinker: true, IsSoluble: true, ActivationEnergy: 54.0,
		ReactionProducts:    []ReactionProduct{{DIFFC3A, 1}},
		HeatOfReactionKJMol: 1144.0,
		Color:               [3]uint8{210, 140, 60},
	}
	table[C4AF] = Properties{
		Name: "C4AF", DensityMgM3: 3.73, MolarMassGMol: 485.96,
		IsClinker: true, IsSoluble: true, ActivationEnergy: 30.0,
		ReactionProducts:    []ReactionProduct{{DIFFC4A, 1}, {FH3, 1}},
		HeatOfReactionKJMol: 418.0,
		Color:               [3]uint8{90, 60, 30},
	}

	table[GYPSUM] = Properties{
		Name: "GYPSUM", DensityMgM3: 2.32, MolarMassGMol: 172.17,
		IsSoluble: true, ReactionProducts: []ReactionProduct{{DIFFGYP, 1}},
		Color: [3]uint8{230, 230, 150},
	}
	table[HEMIHYD] = Properties{
		Name: "HEMIHYD", DensityMgM3: 2.74, MolarMassGMol: 145.15,
		IsSoluble: true, ReactionProducts: []ReactionProduct{{DIFFHEM, 1}},
		Color: [3]uint8{240, 220, 160},
	}
	table[ANHYDRITE] = Properties{
		Name: "ANHYDRITE", DensityMgM3: 2.97, MolarMassGMol: 136.14,
		IsSoluble: true, ReactionProducts: []ReactionProduct{{DIFFANH, 1}},
		Color: [3]uint8{220, 210, 170},
	}
	table[K2SO4] = Properties{
		Name: "K2SO4", DensityMgM3: 2.66, MolarMassGMol: 174.26,
		IsSoluble: true, Color: [3]uint8{200, 200, 255},
	}
	table[NA2SO4] = Properties{
		Name: "NA2SO4", DensityMgM3: 2.68, MolarMassGMol: 142.04,
		IsSoluble: true, Color: [3]uint8{180, 220, 255},
	}

	table[SLAG] = Properties{
		Name: "SLAG", DensityMgM3: 2.90, MolarMassGMol: 400.0,
		IsSCM: true, IsSoluble: true, ActivationEnergy: 60.0,
		ReactionProducts: []ReactionProduct{{DIFFSLAG, 1}},
		Color:            [3]uint8{150, 150, 150},
	}
	table[FLYASH] = Properties{Name: "FLYASH", DensityMgM3: 2.3, IsSCM: true, Color: [3]uint8{170, 160, 120}}
	table[ASG] = Properties{
		Name: "ASG", DensityMgM3: 2.35, MolarMassGMol: 60.0,
		IsSCM: true, IsSoluble: true, ActivationEnergy: 70.0,
		ReactionProducts: []ReactionProduct{{DIFFAS, 1}},
		Color:            [3]uint8{160, 150, 110},
	}
	table[CAS2] = Properties{Name: "CAS2", DensityMgM3: 2.77, IsSCM: true, Color: [3]uint8{150, 140, 100}}
	table[AMSIL] = Properties{
		Name: "AMSIL", DensityMgM3: 2.2, MolarMassGMol: 60.08,
		IsSCM: true, IsSoluble: true, ActivationEnergy: 70.0,
		ReactionProducts: []ReactionProduct{{DIFFAS, 1}},
		Color:            [3]uint8{190, 190, 190},
	}
	table[SFUME] = Properties{Name: "SFUME", DensityMgM3: 2.2, IsSCM: true, Color: [3]uint8{210, 210, 210}}
	table[CACO3] = Properties{
		Name: "CACO3", DensityMgM3: 2.71, MolarMassGMol: 100.09,
		IsSCM: true, IsSoluble: true, ActivationEnergy: 35.0,
		ReactionProducts: []ReactionProduct{{DIFFCACO3, 1}},
		Color:            [3]uint8{235, 235, 210},
	}
	table[FREELIME] = Properties{Name: "FREELIME", DensityMgM3: 3.35, IsSoluble: true, Color: [3]uint8{255, 255, 200}}

	table[CSH] = Properties{Name: "CSH", DensityMgM3: 2.12, MolarMassGMol: 227.19, Color: [3]uint8{100, 180, 100}}
	table[POZZCSH] = Properties{Name: "POZZCSH", DensityMgM3: 2.12, MolarMassGMol: 227.19, Color: [3]uint8{90, 200, 130}}
	table[SLAGCSH] = Properties{Name: "SLAGCSH", DensityMgM3: 2.12, MolarMassGMol: 227.19, Color: [3]uint8{80, 190, 160}}
	table[CH] = Properties{Name: "CH", DensityMgM3: 2.24, MolarMassGMol: 74.09, Color: [3]uint8{220, 220, 220}}
	table[ETTR] = Properties{
		Name: "ETTR", DensityMgM3: 1.75, MolarMassGMol: 1255.1,
		ReactionProducts: []ReactionProduct{{AFM, 1}}, Color: [3]uint8{255, 255, 120},
	}
	table[AFM] = Properties{Name: "AFM", DensityMgM3: 1.99, MolarMassGMol: 622.5, Color: [3]uint8{255, 200, 80}}
	table[AFMC] = Properties{Name: "AFMC", DensityMgM3: 2.17, MolarMassGMol: 568.4, Color: [3]uint8{255, 180, 60}}
	table[STRAT] = Properties{Name: "STRAT", DensityMgM3: 2.0, MolarMassGMol: 500.0, Color: [3]uint8{180, 230, 150}}
	table[C3AH6] = Properties{Name: "C3AH6", DensityMgM3: 2.52, MolarMassGMol: 378.3, Color: [3]uint8{200, 160, 220}}
	table[FH3] = Properties{Name: "FH3", DensityMgM3: 3.0, MolarMassGMol: 213.7, Color: [3]uint8{120, 90, 60}}
	table[FRIEDEL] = Properties{Name: "FRIEDEL", DensityMgM3: 1.9, MolarMassGMol: 561.3, Color: [3]uint8{220, 170, 200}}
	table[BRUCITE] = Properties{Name: "BRUCITE", DensityMgM3: 2.39, MolarMassGMol: 58.3, Color: [3]uint8{230, 230, 255}}
	table[MS] = Properties{Name: "MS", DensityMgM3: 2.7, MolarMassGMol: 120.0, Color: [3]uint8{140, 210, 190}}

	diffusing := []struct {
		p   Phase
		eq  Phase
		col [3]uint8
	}{
		{DIFFCSH, CSH, [3]uint8{150, 220, 150}},
		{DIFFCH, CH, [3]uint8{235, 235, 235}},
		{DIFFETTR, ETTR, [3]uint8{255, 255, 170}},
		{DIFFAFM, AFM, [3]uint8{255, 215, 130}},
		{DIFFC3A, C3AH6, [3]uint8{220, 180, 235}},
		{DIFFC4A, FH3, [3]uint8{150, 120, 90}},
		{DIFFFH3, FH3, [3]uint8{150, 120, 90}},
		{DIFFGYP, GYPSUM, [3]uint8{240, 240, 180}},
		{DIFFANH, ANHYDRITE, [3]uint8{230, 225, 190}},
		{DIFFHEM, HEMIHYD, [3]uint8{245, 230, 185}},
		{DIFFCAS2, CAS2, [3]uint8{170, 160, 120}},
		{DIFFSLAG, SLAGCSH, [3]uint8{110, 200, 180}},
		{DIFFAS, POZZCSH, [3]uint8{110, 210, 150}},
		{DIFFCACO3, CACO3, [3]uint8{240, 240, 215}},
	}
	for _, d := range diffusing {
		table[d.p] = Properties{
			Name: d.eq.String() + "_DIFF", IsDiffusing: true,
			EquilibriumSolid: d.eq, Color: d.col,
		}
	}

	table[INERTAGG] = Properties{Name: "INERTAGG", DensityMgM3: 2.65, Color: [3]uint8{130, 130, 130}}
	table[COARSEAGG] = Properties{Name: "COARSEAGG", DensityMgM3: 2.65, Color: [3]uint8{110, 110, 110}}
	table[FINEAGG] = Properties{Name: "FINEAGG", DensityMgM3: 2.65, Color: [3]uint8{160, 160, 160}}
	table[ITZ] = Properties{Name: "ITZ", Color: [3]uint8{0, 0, 0}}
	table[INERT] = Properties{Name: "INERT", DensityMgM3: 2.65, Color: [3]uint8{60, 60, 60}}

	for p := Phase(0); p < NumPhases; p++ {
		if table[p].Name == "" {
			panic("phase: catalogue row missing for phase id " + itoa(int(p)))
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Get returns the catalogue row for p. Callers must pass a value in
// [0, NumPhases); the catalogue is closed and does not validate further.
func Get(p Phase) Properties { return table[p] }

func (p Phase) String() string {
	if p >= NumPhases {
		return "UNKNOWN"
	}
	return table[p].Name
}

// IsSolid reports whether p occupies volume as a stable or anhydrous solid
// (i.e. neither porosity nor a transient diffusion marker).
func (p Phase) IsSolid() bool {
	return p != POROSITY && p != EMPTYP && !table[p].IsDiffusing
}
