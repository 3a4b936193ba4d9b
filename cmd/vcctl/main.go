// Command vcctl drives the microstructure and hydration kernel headlessly:
// it loads a mix specification, builds the initial microstructure, runs the
// hydration engine to a termination condition, and writes telemetry and
// microstructure images along the way.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/jwbullard/vcctl/aggregate"
	"github.com/jwbullard/vcctl/config"
	"github.com/jwbullard/vcctl/distributor"
	"github.com/jwbullard/vcctl/hydration"
	"github.com/jwbullard/vcctl/ioformat"
	"github.com/jwbullard/vcctl/lattice"
	"github.com/jwbullard/vcctl/mixspec"
	"github.com/jwbullard/vcctl/particle"
	"github.com/jwbullard/vcctl/percolation"
	"github.com/jwbullard/vcctl/phase"
	"github.com/jwbullard/vcctl/rng"
	"github.com/jwbullard/vcctl/telemetry"
	"github.com/jwbullard/vcctl/timetemp"
)

const progName = "vcctl"

var (
	configPath  = flag.String("config", "", "Harness config YAML (embedded defaults if empty)")
	mixPath     = flag.String("mixspec", "", "Mix specification YAML (required)")
	paramsPath  = flag.String("params", "", "Kinetics parameter file (built-in defaults if empty)")
	seedFlag    = flag.Int("seed", 0, "RNG seed, a negative integer (0 = use mixspec/config seed)")
	maxCycles   = flag.Int("max-cycles", 0, "Stop after N cycles (0 = config default)")
	alphaMax    = flag.Float64("alpha-max", 0, "Stop at this degree of hydration (0 = config default)")
	maxTime     = flag.Float64("max-time", 0, "Stop after this many physical hours (0 = config default)")
	outDir      = flag.String("out", "", "Output directory (config default if empty)")
	logInterval = flag.Int("log", 10, "Print progress every N cycles (0 = disabled)")
	logFile     = flag.String("logfile", "", "Write logs to file instead of stdout")
	perfLog     = flag.Bool("perf", false, "Log wall-clock time per cycle")
	percStride  = flag.Int("percolation-stride", 0, "Run the percolation scan every N cycles (0 = config default)")
	snapStride  = flag.Int("snapshot-stride", 0, "Write a microstructure image every N cycles (0 = config default)")
	headless    = flag.Bool("headless", true, "Suppress interactive output; run straight through")
	adiabatic   = flag.Bool("adiabatic", false, "Run the heat balance adiabatically instead of isothermally")
	logWriter   *os.File
)

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR in %s: %s\n", progName, fmt.Sprintf(format, args...))
	os.Exit(1)
}

func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "WARNING in %s: %s\n", progName, fmt.Sprintf(format, args...))
}

func logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
		return
	}
	if !*headless || *logInterval > 0 {
		fmt.Println(msg)
	}
}

func main() {
	flag.Parse()

	if *mixPath == "" {
		fail("-mixspec is required")
	}
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			fail("opening log file: %v", err)
		}
		defer f.Close()
		logWriter = f
	}

	if err := config.Init(*configPath); err != nil {
		fail("%v", err)
	}
	cfg := config.Cfg()

	mix, err := mixspec.Load(*mixPath)
	if err != nil {
		fail("%v", err)
	}

	seed := int32(*seedFlag)
	if seed == 0 {
		seed = mix.Seed
	}
	if seed == 0 {
		seed = cfg.Harness.DefaultSeed
	}
	source := rng.New(seed)

	params := ioformat.DefaultParameterSet()
	params.ReferenceTempC = cfg.ReferenceTemperatureC
	if *paramsPath != "" {
		params, err = ioformat.ReadParams(*paramsPath)
		if err != nil {
			fail("%v", err)
		}
	}

	dir := *outDir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		fail("%v", err)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		warn("could not write run provenance: %v", err)
	}

	logf("building %dx%dx%d microstructure for %q (seed %d)", mix.X, mix.Y, mix.Z, mix.Name, seed)
	lat, err := buildMicrostructure(mix, source)
	if err != nil {
		fail("%v", err)
	}
	if out != nil {
		if err := ioformat.WriteImageFile(filepath.Join(out.Dir(), "initial.img"), ioformat.Snapshot(lat, 0)); err != nil {
			warn("could not write initial image: %v", err)
		}
	}

	if len(mix.Aggregates) > 0 {
		if err := packAggregates(mix, out, source); err != nil {
			fail("%v", err)
		}
	}

	runHydration(lat, mix, cfg, params, source, out)
}

// cementSolidFraction converts a water/binder mass ratio into the solid
// volume fraction of the paste, using a nominal binder density of 3.15
// Mg/m^3 against water at 1.0.
func cementSolidFraction(waterBinder float64) float64 {
	binderVol := 1.0 / 3.15
	return binderVol / (binderVol + waterBinder)
}

// buildMicrostructure runs placement and distribution: cement particles
// first (painted with a C3S placeholder the annealer repaints), then
// sulfate carriers and SCMs, then clinker annealing and fly-ash assignment.
func buildMicrostructure(mix *mixspec.MixSpec, source *rng.Source) (*lattice.Lattice, error) {
	lat := lattice.New(mix.X, mix.Y, mix.Z, mix.ResolutionUm)
	world := particle.NewWorld()

	opt := particle.Options{Dispersity: mix.Dispersity, FlocculationIntensity: mix.FlocculationIntensity}
	if err := particle.ValidateOptions(opt); err != nil {
		return nil, err
	}

	solidFrac := cementSolidFraction(mix.WaterBinderRatio)
	scmShare := 0.0
	for _, scm := range mix.SCMFractions {
		scmShare += scm.VolumeFraction
	}

	cementShape := particle.ShapeSphere
	if mix.RealShapes {
		cementShape = particle.ShapeReal
	}
	cementReq := particle.Request{
		Kind:             particle.KindCement,
		Shape:            cementShape,
		PSD:              mix.CementPSD,
		TargetVolumeFrac: solidFrac * (1.0 - scmShare),
		MonoPhase:        phase.C3S,
		IsMonophase:      false,
	}
	if _, err := particle.Place(lat, world, cementReq, opt, source); err != nil {
		return nil, err
	}

	totalSolid := 0
	counts := lat.Counts()
	for p := phase.Phase(0); p < phase.NumPhases; p++ {
		if p.IsSolid() {
			totalSolid += counts[p]
		}
	}
	if err := distributor.DistributeSulfates(lat, world, mix.SulfateFractions, totalSolid, source); err != nil {
		return nil, err
	}

	for _, scm := range mix.SCMFractions {
		req := particle.Request{
			Kind:             particle.KindSCM,
			PSD:              scm.PSD,
			TargetVolumeFrac: solidFrac * scm.VolumeFraction,
			MonoPhase:        scm.Phase,
			IsMonophase:      scm.Phase != phase.FLYASH,
		}
		if scm.Phase == phase.FLYASH {
			req.Kind = particle.KindFlyAsh
		}
		if _, err := particle.Place(lat, world, req, opt, source); err != nil {
			return nil, err
		}
	}

	if len(mix.ClinkerFractions) > 0 {
		candidates := distributor.CollectClinkerCandidates(lat, phase.C3S)
		req := distributor.ClinkerRequest{Tolerance: 0.05}
		for _, cf := range mix.ClinkerFractions {
			req.Phases = append(req.Phases, distributor.ClinkerPhase{
				Phase:          cf.Phase,
				VolumeFraction: cf.VolumeFraction,
				Correlation:    cf.Correlation,
			})
		}
		if _, err := distributor.DistributeClinker(lat, candidates, req, source); err != nil {
			if !errors.Is(err, distributor.ErrDistributionConverge) {
				return nil, err
			}
			warn("%v", err)
		}
	}

	if flyAsh := distributor.CollectFlyAshCandidates(lat); len(flyAsh) > 0 {
		if err := distributor.DistributeFlyAsh(lat, flyAsh, mix.FlyAsh, source); err != nil {
			return nil, err
		}
	}

	// Placement and distribution are done; drop the particle records so
	// only the lattice's particle-id field survives.
	var done []particle.Entity
	world.Each(func(e particle.Entity, _ *particle.Center, _ *particle.Geometry, _ *particle.Identity, _ *particle.Role) {
		done = append(done, e)
	})
	for _, e := range done {
		world.Remove(e)
	}

	return lat, nil
}

// packAggregates builds the concrete-scale lattice (1 mm/voxel) alongside
// the binder lattice and writes its image; the two scales are linked only
// through the ITZ marking.
func packAggregates(mix *mixspec.MixSpec, out *telemetry.OutputManager, source *rng.Source) error {
	const mmPerVoxelUm = 1000.0
	agg := lattice.New(mix.X, mix.Y, mix.Z, mmPerVoxelUm)
	res, err := aggregate.Pack(agg, mix.Aggregates, aggregate.Options{}, source)
	if err != nil {
		return err
	}
	logf("aggregate lattice: %d coarse, %d fine particles, %d ITZ voxels",
		res.CoarsePlaced, res.FinePlaced, res.ITZVoxels)
	if out != nil {
		return ioformat.WriteImageFile(filepath.Join(out.Dir(), "aggregate.img"), ioformat.Snapshot(agg, 0))
	}
	return nil
}

func runHydration(lat *lattice.Lattice, mix *mixspec.MixSpec, cfg *config.Config, params ioformat.ParameterSet, source *rng.Source, out *telemetry.OutputManager) {
	regime := timetemp.Isothermal
	if *adiabatic {
		regime = timetemp.Adiabatic
	}
	mapper := timetemp.New(regime, params.ReferenceTempC+273.15)
	mapper.Beta = params.TimeBeta
	mapper.ActivationEnergyKJMol = params.ActivationEnergyKJMol
	if regime == timetemp.Adiabatic {
		// Lumped heat capacity of the specimen: voxel volume times a
		// nominal paste volumetric heat capacity of ~2.0 MJ/(m^3 K).
		voxelM3 := mix.ResolutionUm * mix.ResolutionUm * mix.ResolutionUm * 1e-18
		mapper.HeatCapacityJPerK = 2.0e6 * voxelM3 * float64(lat.Len())
	}

	waterBudget := float64(lat.CountPhase(phase.POROSITY))
	engine := hydration.NewEngine(lat, source, params.Hydration, waterBudget).WithTimeMapper(mapper)

	var cancelled atomic.Bool
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		<-interrupts
		cancelled.Store(true)
	}()

	stride := *percStride
	if stride == 0 {
		stride = cfg.Harness.PercolationStride
	}
	snapshots := *snapStride
	if snapshots == 0 {
		snapshots = cfg.Harness.SnapshotStride
	}

	opts := hydration.RunOptions{
		MaxCycles:         cfg.Harness.MaxCycles,
		AlphaMax:          cfg.Harness.AlphaMax,
		MaxTimeHours:      cfg.Harness.MaxTimeHours,
		PercolationStride: stride,
		Cancel:            cancelled.Load,
	}
	if *maxCycles > 0 {
		opts.MaxCycles = *maxCycles
	}
	if *alphaMax > 0 {
		opts.AlphaMax = *alphaMax
	}
	if *maxTime > 0 {
		opts.MaxTimeHours = *maxTime
	}

	var records []telemetry.CycleRecord
	cycleStart := time.Now()
	opts.OnCycle = func(res hydration.CycleResult) {
		rec := telemetry.NewCycleRecord(engine.Snapshot(), res)
		records = append(records, rec)
		if err := out.WriteCycle(rec); err != nil {
			warn("telemetry write failed: %v", err)
		}
		if *perfLog {
			logf("cycle %d took %v", res.Cycle, time.Since(cycleStart))
		}
		cycleStart = time.Now()
		if *logInterval > 0 && res.Cycle%*logInterval == 0 {
			logf("cycle %d: alpha=%.3f t=%.1fh T=%.1fC", res.Cycle, res.AlphaHydration,
				res.PhysicalTimeHours, res.TemperatureK-273.15)
		}
		if out != nil && snapshots > 0 && res.Cycle%snapshots == 0 {
			name := fmt.Sprintf("cycle_%05d.img", res.Cycle)
			if err := ioformat.WriteImageFile(filepath.Join(out.Dir(), name), ioformat.Snapshot(engine.Snapshot(), res.Cycle)); err != nil {
				warn("snapshot write failed: %v", err)
			}
		}
	}

	_, err := engine.Run(opts)
	var cancelErr *hydration.Cancelled
	switch {
	case err == nil:
	case errors.As(err, &cancelErr):
		warn("%v, writing partial state", cancelErr)
	default:
		fail("%v", err)
	}

	if out != nil {
		if err := ioformat.WriteImageFile(filepath.Join(out.Dir(), "final.img"), ioformat.Snapshot(engine.Snapshot(), engine.Cycle())); err != nil {
			warn("could not write final image: %v", err)
		}
		if err := out.WriteSummary(telemetry.NewRunSummary(engine.Snapshot(), records)); err != nil {
			warn("could not write summary: %v", err)
		}
	}

	porosityPercolates := percolation.Percolates(engine.Snapshot(), map[phase.Phase]bool{phase.POROSITY: true})
	logf("done: %d cycles, alpha=%.3f, t=%.1fh, porosity percolates=%v",
		engine.Cycle(), engine.AlphaHydration(), mapper.PhysicalTimeHours(), porosityPercolates)
}
