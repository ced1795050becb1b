package engine

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"bandsim/internal/params"
	"bandsim/internal/scenario"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, scenarioName string, years int) Config {
	t.Helper()
	sc, err := scenario.Builtin(scenarioName)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenarioName, err)
	}
	return Config{
		Scenario: sc,
		Params:   params.Default(),
		Years:    years,
		NumBands: 30,
		Seed:     42,
		Logger:   quietLogger(),
	}
}

func TestNewSimulationRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t, "poverty_point", 100)

	bad := cfg
	bad.Years = 0
	if _, err := NewSimulation(bad); err == nil {
		t.Fatal("expected error for zero years")
	}

	bad = cfg
	bad.NumBands = 0
	if _, err := NewSimulation(bad); err == nil {
		t.Fatal("expected error for zero bands")
	}

	bad = cfg
	bad.FixedSigma = 1.5
	if _, err := NewSimulation(bad); err == nil {
		t.Fatal("expected error for sigma above 1")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig(t, "poverty_point", 80)

	run := func() []YearState {
		sim, err := NewSimulation(cfg)
		if err != nil {
			t.Fatalf("NewSimulation: %v", err)
		}
		sim.Run()
		return sim.States()
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical seeds produced different year series")
	}
}

func TestStateStaysBounded(t *testing.T) {
	cfg := testConfig(t, "high_uncertainty", 120)
	sim, err := NewSimulation(cfg)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}

	p := cfg.Params
	for i := 0; i < cfg.Years; i++ {
		sim.StepYear()
		for _, b := range sim.Bands() {
			if b.Resources < 0 || b.Resources > 1 {
				t.Fatalf("year %d: band %d resources %v out of [0, 1]", sim.Year(), b.ID, b.Resources)
			}
			if b.Size < p.Demography.MinBandSize || b.Size > p.Demography.MaxBandSize {
				t.Fatalf("year %d: band %d size %d outside [%d, %d]",
					sim.Year(), b.ID, b.Size, p.Demography.MinBandSize, p.Demography.MaxBandSize)
			}
			if b.Prestige < 0 {
				t.Fatalf("year %d: band %d negative prestige %v", sim.Year(), b.ID, b.Prestige)
			}
		}
		if extinct, _ := sim.Extinct(); extinct {
			break
		}
	}
}

func TestMonumentNeverDecreases(t *testing.T) {
	cfg := testConfig(t, "critical_threshold", 100)
	sim, err := NewSimulation(cfg)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	sim.Run()

	prev := 0.0
	for _, st := range sim.States() {
		if st.MonumentVolume < prev {
			t.Fatalf("year %d: monument shrank from %v to %v", st.Year, prev, st.MonumentVolume)
		}
		prev = st.MonumentVolume
	}
}

// The calibrated baseline regime over the full run length: effective σ in
// its moderate-uncertainty window, independence dominant at the end, and
// occasional aggregation leaving a visible monument record.
func TestPovertyPointBaseline(t *testing.T) {
	cfg := testConfig(t, "poverty_point", 500)
	sim, err := NewSimulation(cfg)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	sim.Run()

	if extinct, year := sim.Extinct(); extinct {
		t.Fatalf("baseline regime went extinct in year %d", year)
	}

	sum := sim.Results().Summary
	if sum.MeanSigma < 0.15 || sum.MeanSigma > 0.25 {
		t.Fatalf("mean sigma %v outside the calibrated window [0.15, 0.25]", sum.MeanSigma)
	}
	if sum.FinalAggregatorShare >= 0.2 {
		t.Fatalf("final independent share %v, want above 0.8", 1-sum.FinalAggregatorShare)
	}
	if sum.MeanPopulation <= 0 {
		t.Fatalf("mean population %v not positive", sum.MeanPopulation)
	}
	// Occasional aggregation still leaves a material record.
	if sum.FinalMonument <= 0 {
		t.Fatalf("no monument record after %d years", len(sim.States()))
	}
}

// Pinning σ at opposite extremes must flip the dominant strategy. This is
// the phase transition the model exists to produce.
func TestPhaseTransitionExists(t *testing.T) {
	meanShare := func(sigma float64) float64 {
		cfg := testConfig(t, "poverty_point", 60)
		cfg.Scenario = scenario.ForTargetSigma(sigma)
		cfg.FixedSigma = sigma
		sim, err := NewSimulation(cfg)
		if err != nil {
			t.Fatalf("NewSimulation: %v", err)
		}
		sim.Run()

		total, n := 0.0, 0
		for _, st := range sim.States() {
			if st.Bands == 0 {
				continue
			}
			total += st.AggregatorShare
			n++
		}
		if n == 0 {
			t.Fatal("no years with live bands")
		}
		return total / float64(n)
	}

	calm := meanShare(0.15)
	volatile := meanShare(0.85)
	if calm > 0.3 {
		t.Fatalf("calm regime: aggregator share %v, want < 0.3", calm)
	}
	if volatile < 0.5 {
		t.Fatalf("volatile regime: aggregator share %v, want > 0.5", volatile)
	}
}

func TestReplicatesAreReproducible(t *testing.T) {
	cfg := testConfig(t, "low_uncertainty", 40)

	a, err := RunReplicates(cfg, 4)
	if err != nil {
		t.Fatalf("RunReplicates: %v", err)
	}
	b, err := RunReplicates(cfg, 4)
	if err != nil {
		t.Fatalf("RunReplicates: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("replicate batches with the same base seed differ")
	}

	// Distinct replicates must have distinct streams.
	if reflect.DeepEqual(a[0].Years, a[1].Years) {
		t.Fatal("replicates 0 and 1 produced identical year series")
	}
}

func TestSweepCoversGrid(t *testing.T) {
	cells, err := RunSweep(SweepConfig{
		Params:       params.Default(),
		SigmaMin:     0.2,
		SigmaMax:     0.8,
		SigmaSteps:   3,
		Axis:         AxisEpsilon,
		AxisMin:      0.1,
		AxisMax:      0.5,
		AxisSteps:    2,
		YearsPerCell: 25,
		Replicates:   2,
		NumBands:     12,
		Seed:         7,
		Logger:       quietLogger(),
	})
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if len(cells) != 6 {
		t.Fatalf("cells: got %d want 6", len(cells))
	}

	first, last := cells[0], cells[len(cells)-1]
	if first.Sigma != 0.2 || first.Axis != 0.1 {
		t.Fatalf("first cell at (%v, %v), want (0.2, 0.1)", first.Sigma, first.Axis)
	}
	if last.Sigma != 0.8 || last.Axis != 0.5 {
		t.Fatalf("last cell at (%v, %v), want (0.8, 0.5)", last.Sigma, last.Axis)
	}
	for _, c := range cells {
		if c.Dominant == "" {
			t.Fatalf("cell (%v, %v) has no dominance label", c.Sigma, c.Axis)
		}
	}
}

func TestSweepRejectsBadGrid(t *testing.T) {
	_, err := RunSweep(SweepConfig{
		Params:     params.Default(),
		SigmaSteps: 1,
		AxisSteps:  3,
		Axis:       AxisEpsilon,
	})
	if err == nil {
		t.Fatal("expected error for single-step axis")
	}
}
