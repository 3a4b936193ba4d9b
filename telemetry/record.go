package telemetry

import (
	"github.com/jwbullard/vcctl/hydration"
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
)

// CycleRecord is one row of telemetry.csv: the per-cycle simulation state
// a downstream analysis reads as a time series.
type CycleRecord struct {
	Cycle              int     `csv:"cycle"`
	TimeHours          float64 `csv:"time_h"`
	TemperatureC       float64 `csv:"temperature_c"`
	Alpha              float64 `csv:"alpha"`
	HeatKJ             float64 `csv:"heat_kj"`
	CumulativeHeatKJ   float64 `csv:"cumulative_heat_kj"`
	PorosityFrac       float64 `csv:"porosity_frac"`
	EmptyPorosityFrac  float64 `csv:"empty_porosity_frac"`
	CSHFrac            float64 `csv:"csh_frac"`
	CHFrac             float64 `csv:"ch_frac"`
	EttrFrac           float64 `csv:"ettr_frac"`
	AFMFrac            float64 `csv:"afm_frac"`
	PercolationChecked bool    `csv:"percolation_checked"`
	PorosityPercolates bool    `csv:"porosity_percolates"`
}

// NewCycleRecord assembles a CycleRecord from an executed cycle's result
// and the committed lattice state.
func NewCycleRecord(lat *lattice.Lattice, res hydration.CycleResult) CycleRecord {
	counts := lat.Counts()
	total := float64(lat.Len())
	frac := func(p phase.Phase) float64 { return float64(counts[p]) / total }

	return CycleRecord{
		Cycle:              res.Cycle,
		TimeHours:          res.PhysicalTimeHours,
		TemperatureC:       res.TemperatureK - 273.15,
		Alpha:              res.AlphaHydration,
		HeatKJ:             res.HeatReleasedKJ,
		CumulativeHeatKJ:   res.CumulativeHeatKJ,
		PorosityFrac:       frac(phase.POROSITY),
		EmptyPorosityFrac:  frac(phase.EMPTYP),
		CSHFrac:            frac(phase.CSH) + frac(phase.POZZCSH) + frac(phase.SLAGCSH),
		CHFrac:             frac(phase.CH),
		EttrFrac:           frac(phase.ETTR),
		AFMFrac:            frac(phase.AFM),
		PercolationChecked: res.PercolationChecked,
		PorosityPercolates: res.PorosityPercolates,
	}
}

// RunSummary is the end-of-run report written as JSON next to the CSV
// series.
type RunSummary struct {
	Cycles           int                `json:"cycles"`
	PhysicalTimeH    float64            `json:"physical_time_h"`
	FinalAlpha       float64            `json:"final_alpha"`
	TotalHeatKJ      float64            `json:"total_heat_kj"`
	PeakTemperatureC float64            `json:"peak_temperature_c"`
	PhaseFractions   map[string]float64 `json:"phase_fractions"`
}

// NewRunSummary condenses the full cycle series and final lattice into a
// RunSummary. Phases with zero final count are omitted from the fraction
// map.
func NewRunSummary(lat *lattice.Lattice, records []CycleRecord) RunSummary {
	s := RunSummary{PhaseFractions: make(map[string]float64)}
	for _, r := range records {
		if r.TemperatureC > s.PeakTemperatureC {
			s.PeakTemperatureC = r.TemperatureC
		}
	}
	if n := len(records); n > 0 {
		last := records[n-1]
		s.Cycles = last.Cycle
		s.PhysicalTimeH = last.TimeHours
		s.FinalAlpha = last.Alpha
		s.TotalHeatKJ = last.CumulativeHeatKJ
	}
	counts := lat.Counts()
	total := float64(lat.Len())
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		if counts[p] > 0 {
			s.PhaseFractions[p.String()] = float64(counts[p]) / total
		}
	}
	return s
}
