package hydration

import (
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
)

// voxelVolumeCm3 converts the lattice's micron resolution into a per-voxel
// volume in cm^3, the unit phase.Properties density/molar mass are
// expressed in (Mg/m^3 == g/cm^3).
func voxelVolumeCm3(resolutionUm float64) float64 {
	cm := resolutionUm * 1e-4
	return cm * cm * cm
}

// dissolutionHeatKJ converts the reactant voxels consumed this cycle into
// released heat using each phase's molar heat of reaction, the source term
// of the time/temperature mapper's heat balance.
func dissolutionHeatKJ(lat *lattice.Lattice, events []dissolutionEvent) float64 {
	voxelCm3 := voxelVolumeCm3(lat.ResolutionUm())
	total := 0.0
	for _, e := range events {
		props := phase.Get(e.reactant)
		if props.HeatOfReactionKJMol <= 0 || props.MolarMassGMol <= 0 {
			continue
		}
		massG := float64(e.units) * voxelCm3 * props.DensityMgM3
		moles := massG / props.MolarMassGMol
		total += moles * props.HeatOfReactionKJMol
	}
	return total
}
