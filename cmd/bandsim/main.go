// Command bandsim runs the band aggregation simulation for one scenario and
// writes the results to SQLite, a compressed run archive, and CSV.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"bandsim/internal/engine"
	"bandsim/internal/params"
	"bandsim/internal/persistence"
	"bandsim/internal/persistence/archive"
	"bandsim/internal/scenario"
)

func main() {
	var (
		scenarioName = flag.String("scenario", "poverty_point", "built-in scenario name")
		scenarioFile = flag.String("scenario-file", "", "YAML scenario file (overrides -scenario)")
		years        = flag.Int("years", 500, "years to simulate")
		bands        = flag.Int("bands", 30, "initial band count")
		replicates   = flag.Int("replicates", 10, "independent replicates")
		seed         = flag.Int64("seed", 42, "base RNG seed")
		dbPath       = flag.String("db", "data/runs.db", "SQLite database path")
		outDir       = flag.String("out", "data", "output directory for archive and CSV")
		verbose      = flag.Bool("v", false, "debug logging")
		listOnly     = flag.Bool("list", false, "list built-in scenarios and exit")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *listOnly {
		for _, name := range scenario.Names() {
			fmt.Println(name)
		}
		return
	}

	var sc scenario.Scenario
	var err error
	if *scenarioFile != "" {
		sc, err = scenario.Load(*scenarioFile)
	} else {
		sc, err = scenario.Builtin(*scenarioName)
	}
	if err != nil {
		slog.Error("scenario", "error", err)
		os.Exit(1)
	}

	cfg := engine.Config{
		Scenario: sc,
		Params:   params.Default(),
		Years:    *years,
		NumBands: *bands,
		Seed:     *seed,
		Logger:   logger,
	}

	slog.Info("starting run",
		"scenario", sc.Name,
		"epsilon", sc.Epsilon,
		"years", *years,
		"bands", *bands,
		"replicates", *replicates,
		"seed", *seed,
	)

	start := time.Now()
	results, err := engine.RunReplicates(cfg, *replicates)
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
	stats := engine.Aggregate(results)
	slog.Info("run complete",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"dominant", stats.Dominant,
	)

	os.MkdirAll(*outDir, 0755)
	os.MkdirAll(filepath.Dir(*dbPath), 0755)

	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	for i, r := range results {
		id, err := db.SaveRun(r)
		if err != nil {
			slog.Error("save replicate", "replicate", i, "error", err)
			os.Exit(1)
		}
		slog.Debug("replicate saved", "replicate", i, "run_id", id)
	}

	rec := archive.NewRecord(sc.Name, *seed, results)
	archivePath := filepath.Join(*outDir, fmt.Sprintf("%s_%s.json.zst", sc.Name, rec.ID[:8]))
	if err := archive.Write(archivePath, rec); err != nil {
		slog.Error("write archive", "error", err)
		os.Exit(1)
	}
	csvPath := filepath.Join(*outDir, fmt.Sprintf("%s_%s.csv", sc.Name, rec.ID[:8]))
	if err := archive.WriteYearsCSV(csvPath, results[0].Years); err != nil {
		slog.Error("write csv", "error", err)
		os.Exit(1)
	}
	slog.Info("artifacts written", "archive", archivePath, "csv", csvPath)

	printSummary(sc, results, stats)
}

func printSummary(sc scenario.Scenario, results []engine.Results, stats engine.ReplicateStats) {
	first := results[0].Summary

	fmt.Printf("\n%s: %s\n", sc.Name, sc.Description)
	fmt.Printf("  mean sigma            %.3f (expected %.2f-%.2f)\n",
		stats.MeanSigma, sc.ExpectedSigmaLow, sc.ExpectedSigmaHigh)
	fmt.Printf("  critical sigma        %.3f (analytic)\n", first.CriticalSigma)
	fmt.Printf("  aggregator share      %.3f ± %.3f (final, %d replicates)\n",
		stats.MeanFinalAggregatorShare, stats.StdFinalAggregatorShare, stats.Replicates)
	fmt.Printf("  dominant strategy     %s\n", stats.Dominant)
	fmt.Printf("  mean population       %s\n", humanize.CommafWithDigits(first.MeanPopulation, 0))
	fmt.Printf("  mean gathering        %.1f bands, %s people\n",
		first.MeanAggregationSize, humanize.CommafWithDigits(first.MeanHeadcount, 0))
	fmt.Printf("  monument volume       %.2f (replicate 0)\n", first.FinalMonument)
	fmt.Printf("  exotic goods          %d (replicate 0)\n", first.FinalExotics)
	if stats.Extinctions > 0 {
		fmt.Printf("  extinctions           %d of %d replicates\n", stats.Extinctions, stats.Replicates)
	}
}
