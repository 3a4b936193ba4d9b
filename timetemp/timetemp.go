// Package timetemp implements the time/temperature mapper: it
// turns discrete hydration cycles into physical time and couples an
// adiabatic/isothermal heat balance driven by the reaction ledger.
package timetemp

import "math"

// Regime selects which heat-balance mode Step runs.
type Regime int

const (
	// Isothermal holds temperature fixed at the reference value; the ODE
	// step is skipped entirely.
	Isothermal Regime = iota
	// Adiabatic runs the ODE with zero heat-transfer coefficient (h=0), so
	// all reaction heat accumulates as temperature rise.
	Adiabatic
	// Coupled runs the full first-order ODE against an ambient profile.
	Coupled
)

// AmbientPoint is one row of the ambient temperature profile: (time in
// hours, temperature in Kelvin).
type AmbientPoint struct {
	TimeHours float64
	TempK     float64
}

// gasConstant is R in kJ/(mol*K).
const gasConstant = 8.314e-3

// Mapper carries the cycle->time mapping parameters and running physical
// clock/temperature state.
type Mapper struct {
	Regime Regime

	// Beta is the parabolic time-mapping rate constant in
	// t = beta * n^2 * exp[-Ea/R (1/T - 1/Tref)].
	Beta float64
	// ActivationEnergyKJMol is Ea for the parabolic cycle->time law.
	ActivationEnergyKJMol float64
	// ReferenceTempK is Tref in the parabolic law and the fixed temperature
	// held under Isothermal.
	ReferenceTempK float64

	// Ambient is the ambient-temperature profile used by Coupled; ignored
	// under Isothermal and Adiabatic.
	Ambient []AmbientPoint

	// HeatTransferCoeffWPerK is h, the lumped heat-transfer coefficient to
	// ambient (W/K). Forced to 0 under Adiabatic regardless of the field's
	// value.
	HeatTransferCoeffWPerK float64
	// HeatCapacityJPerK is C, the specimen's lumped heat capacity (J/K).
	HeatCapacityJPerK float64

	// running state
	physicalTimeHours float64
	temperatureK      float64
	cumulativeHeatJ   float64
}

// New creates a Mapper starting at initialTempK with zero elapsed time and
// zero cumulative heat.
func New(regime Regime, initialTempK float64) *Mapper {
	return &Mapper{Regime: regime, temperatureK: initialTempK, ReferenceTempK: initialTempK}
}

// PhysicalTimeHours returns the current mapped physical time.
func (m *Mapper) PhysicalTimeHours() float64 { return m.physicalTimeHours }

// TemperatureK returns the current specimen temperature.
func (m *Mapper) TemperatureK() float64 { return m.temperatureK }

// CumulativeHeatJ returns total heat released so far.
func (m *Mapper) CumulativeHeatJ() float64 { return m.cumulativeHeatJ }

// DeltaTHours computes the physical-time increment the parabolic law
// assigns to cycle n at the current temperature.
func (m *Mapper) DeltaTHours(n int) float64 {
	if n <= 0 {
		n = 1
	}
	tPrev := m.parabolicTime(n - 1)
	tNext := m.parabolicTime(n)
	return tNext - tPrev
}

func (m *Mapper) parabolicTime(n int) float64 {
	if m.Beta <= 0 {
		return float64(n)
	}
	arrhenius := 1.0
	if m.ActivationEnergyKJMol > 0 && m.ReferenceTempK > 0 && m.temperatureK > 0 {
		arrhenius = math.Exp(-m.ActivationEnergyKJMol / gasConstant * (1/m.temperatureK - 1/m.ReferenceTempK))
	}
	return m.Beta * float64(n) * float64(n) * arrhenius
}

// Step advances the mapper by one cycle: it computes Δt from the parabolic
// law, accumulates heatReleasedJ into the running total, and (outside
// Isothermal) integrates one backward-Euler step of the lumped heat
// balance h*(T-Tinf) = Qdot - C*dT/dt, which stays stable however large
// h*dt/C is.
func (m *Mapper) Step(n int, heatReleasedJ float64) {
	dtHours := m.DeltaTHours(n)
	m.physicalTimeHours += dtHours
	m.cumulativeHeatJ += heatReleasedJ

	if m.Regime == Isothermal || m.HeatCapacityJPerK <= 0 || dtHours <= 0 {
		return
	}

	dtSeconds := dtHours * 3600.0
	qDotW := heatReleasedJ / dtSeconds

	h := m.HeatTransferCoeffWPerK
	if m.Regime == Adiabatic {
		h = 0
	}
	tInf := m.ambientAt(m.physicalTimeHours)

	c := m.HeatCapacityJPerK
	m.temperatureK = (c*m.temperatureK + dtSeconds*(qDotW+h*tInf)) / (c + h*dtSeconds)
}

// ambientAt linearly interpolates the ambient profile at the given physical
// time, or returns ReferenceTempK if no profile was supplied.
func (m *Mapper) ambientAt(timeHours float64) float64 {
	if len(m.Ambient) == 0 {
		return m.ReferenceTempK
	}
	if timeHours <= m.Ambient[0].TimeHours {
		return m.Ambient[0].TempK
	}
	last := m.Ambient[len(m.Ambient)-1]
	if timeHours >= last.TimeHours {
		return last.TempK
	}
	for i := 1; i < len(m.Ambient); i++ {
		if timeHours <= m.Ambient[i].TimeHours {
			lo, hi := m.Ambient[i-1], m.Ambient[i]
			t := (timeHours - lo.TimeHours) / (hi.TimeHours - lo.TimeHours)
			return lo.TempK + t*(hi.TempK-lo.TempK)
		}
	}
	return last.TempK
}
