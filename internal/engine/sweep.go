package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"bandsim/internal/params"
	"bandsim/internal/scenario"
)

// SweepConfig describes a two-dimensional phase-space sweep over regional
// uncertainty σ and one second axis.
type SweepConfig struct {
	Params params.Set

	SigmaMin   float64
	SigmaMax   float64
	SigmaSteps int

	// Axis selects the second dimension: ecotone advantage ε or the
	// signaling cost component.
	Axis      SweepAxis
	AxisMin   float64
	AxisMax   float64
	AxisSteps int

	YearsPerCell int
	Replicates   int
	NumBands     int
	Seed         int64

	Logger *slog.Logger
}

// SweepAxis names the second sweep dimension.
type SweepAxis string

const (
	AxisEpsilon    SweepAxis = "epsilon"
	AxisSignalCost SweepAxis = "signal_cost"
)

// SweepCell is one grid point's outcome, averaged over replicates.
type SweepCell struct {
	Sigma float64 `json:"sigma"`
	Axis  float64 `json:"axis"`

	MeanAggregatorShare float64 `json:"mean_aggregator_share"`
	StdAggregatorShare  float64 `json:"std_aggregator_share"`
	Dominant            string  `json:"dominant"`
	CriticalSigma       float64 `json:"critical_sigma"`
	Extinctions         int     `json:"extinctions"`
}

// RunSweep evaluates the full grid, cells in parallel. Every run pins σ to
// its grid value, so the map has exact coordinates rather than emergent
// estimates.
func RunSweep(cfg SweepConfig) ([]SweepCell, error) {
	if cfg.SigmaSteps < 2 || cfg.AxisSteps < 2 {
		return nil, fmt.Errorf("engine: sweep needs at least 2 steps per axis, got %d×%d",
			cfg.SigmaSteps, cfg.AxisSteps)
	}
	if cfg.Axis != AxisEpsilon && cfg.Axis != AxisSignalCost {
		return nil, fmt.Errorf("engine: unknown sweep axis %q", cfg.Axis)
	}
	if cfg.YearsPerCell <= 0 || cfg.Replicates <= 0 || cfg.NumBands <= 0 {
		return nil, fmt.Errorf("engine: sweep years/replicates/bands must be positive")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	cells := make([]SweepCell, cfg.SigmaSteps*cfg.AxisSteps)
	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for i := 0; i < cfg.SigmaSteps; i++ {
		for j := 0; j < cfg.AxisSteps; j++ {
			wg.Add(1)
			go func(i, j int) {
				defer wg.Done()
				sigma := lerp(cfg.SigmaMin, cfg.SigmaMax, i, cfg.SigmaSteps)
				axis := lerp(cfg.AxisMin, cfg.AxisMax, j, cfg.AxisSteps)

				cell, err := runCell(cfg, sigma, axis, int64(i*cfg.AxisSteps+j), log)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				cells[i*cfg.AxisSteps+j] = cell
			}(i, j)
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return cells, nil
}

func runCell(cfg SweepConfig, sigma, axis float64, cellIndex int64, log *slog.Logger) (SweepCell, error) {
	p := cfg.Params
	sc := scenario.ForTargetSigma(sigma)

	switch cfg.Axis {
	case AxisEpsilon:
		sc.Epsilon = axis
	case AxisSignalCost:
		p.Costs.Signal = axis
	}

	runCfg := Config{
		Scenario:   sc,
		Params:     p,
		Years:      cfg.YearsPerCell,
		NumBands:   cfg.NumBands,
		Seed:       cfg.Seed + cellIndex*replicateSeedStride*1000,
		FixedSigma: sigma,
		Logger:     log.With("sigma", sigma, "axis", axis),
	}

	results, err := RunReplicates(runCfg, cfg.Replicates)
	if err != nil {
		return SweepCell{}, err
	}
	stats := Aggregate(results)

	return SweepCell{
		Sigma:               sigma,
		Axis:                axis,
		MeanAggregatorShare: stats.MeanFinalAggregatorShare,
		StdAggregatorShare:  stats.StdFinalAggregatorShare,
		Dominant:            stats.Dominant,
		CriticalSigma:       p.CriticalSigma(sc.Epsilon, float64(p.Cooperation.OptimalN)),
		Extinctions:         stats.Extinctions,
	}, nil
}

// lerp places step i of n evenly across [lo, hi], endpoints included.
func lerp(lo, hi float64, i, n int) float64 {
	return lo + (hi-lo)*float64(i)/float64(n-1)
}
