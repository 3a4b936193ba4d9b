package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwbullard/vcctl/hydration"
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/phase"
)

func TestWriteCycleHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager() = %v", err)
	}

	if err := om.WriteCycle(CycleRecord{Cycle: 1, Alpha: 0.1}); err != nil {
		t.Fatalf("WriteCycle() = %v", err)
	}
	if err := om.WriteCycle(CycleRecord{Cycle: 2, Alpha: 0.2}); err != nil {
		t.Fatalf("WriteCycle() = %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "cycle,") {
		t.Errorf("header = %q, want it to start with \"cycle,\"", lines[0])
	}
	if strings.HasPrefix(lines[2], "cycle,") {
		t.Error("header repeated on subsequent writes")
	}
}

func TestNilManagerIsNoOp(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager(\"\") = %v", err)
	}
	if om != nil {
		t.Fatal("NewOutputManager(\"\") should disable output by returning nil")
	}
	if err := om.WriteCycle(CycleRecord{}); err != nil {
		t.Errorf("nil WriteCycle() = %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
}

func TestRunSummary(t *testing.T) {
	lat := lattice.New(4, 4, 4, 1.0)
	for x := 0; x < 4; x++ {
		lat.Set(x, 0, 0, phase.CSH)
	}

	records := []CycleRecord{
		{Cycle: 1, Alpha: 0.1, TemperatureC: 25, CumulativeHeatKJ: 1.5, TimeHours: 0.5},
		{Cycle: 2, Alpha: 0.3, TemperatureC: 40, CumulativeHeatKJ: 3.0, TimeHours: 2.0},
		{Cycle: 3, Alpha: 0.4, TemperatureC: 35, CumulativeHeatKJ: 4.0, TimeHours: 4.5},
	}
	s := NewRunSummary(lat, records)

	if s.Cycles != 3 || s.FinalAlpha != 0.4 || s.TotalHeatKJ != 4.0 {
		t.Errorf("summary = %+v, want final cycle 3, alpha 0.4, heat 4.0", s)
	}
	if s.PeakTemperatureC != 40 {
		t.Errorf("peak temperature = %v, want 40", s.PeakTemperatureC)
	}
	if got := s.PhaseFractions["CSH"]; got != 4.0/64.0 {
		t.Errorf("CSH fraction = %v, want %v", got, 4.0/64.0)
	}
	if _, present := s.PhaseFractions["ETTR"]; present {
		t.Error("zero-count phase should be omitted from the fraction map")
	}

	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()
	if err := om.WriteSummary(s); err != nil {
		t.Fatalf("WriteSummary() = %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var back RunSummary
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("summary.json does not parse: %v", err)
	}
	if back.FinalAlpha != s.FinalAlpha {
		t.Errorf("round-tripped alpha = %v, want %v", back.FinalAlpha, s.FinalAlpha)
	}
}

func TestNewCycleRecordFractions(t *testing.T) {
	lat := lattice.New(4, 4, 4, 1.0)
	lat.Set(0, 0, 0, phase.CSH)
	lat.Set(1, 0, 0, phase.POZZCSH)
	lat.Set(2, 0, 0, phase.CH)

	rec := NewCycleRecord(lat, hydration.CycleResult{Cycle: 5, AlphaHydration: 0.2, TemperatureK: 298.15})
	if rec.Cycle != 5 {
		t.Errorf("cycle = %d, want 5", rec.Cycle)
	}
	if got := rec.CSHFrac; got != 2.0/64.0 {
		t.Errorf("CSH fraction = %v, want %v (CSH variants summed)", got, 2.0/64.0)
	}
	if got := rec.TemperatureC; got < 24.99 || got > 25.01 {
		t.Errorf("temperature = %v C, want 25", got)
	}
}
