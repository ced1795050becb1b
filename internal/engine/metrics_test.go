package engine

import (
	"math"
	"testing"

	"bandsim/internal/params"
)

func TestSummarizeExcludesBurnIn(t *testing.T) {
	states := []YearState{
		{Year: 1, Sigma: 0.9, AggregatorShare: 1.0, Population: 100},
		{Year: 2, Sigma: 0.9, AggregatorShare: 1.0, Population: 100},
		{Year: 3, Sigma: 0.2, AggregatorShare: 0.1, Population: 500,
			Attendance: 4, Headcount: 90, MonumentVolume: 2.5, ExoticsTotal: 3},
		{Year: 4, Sigma: 0.2, AggregatorShare: 0.1, Population: 500},
	}

	sum := Summarize(states, params.Default(), 0.35, 2)
	if math.Abs(sum.MeanSigma-0.2) > 1e-12 {
		t.Fatalf("mean sigma: got %v want 0.2", sum.MeanSigma)
	}
	if math.Abs(sum.MeanAggregatorShare-0.1) > 1e-12 {
		t.Fatalf("mean share: got %v want 0.1", sum.MeanAggregatorShare)
	}
	if sum.MeanAggregationSize != 4 || sum.MeanHeadcount != 90 {
		t.Fatalf("gathering size: got %v bands, %v people", sum.MeanAggregationSize, sum.MeanHeadcount)
	}
	if sum.FinalMonument != 2.5 || sum.FinalExotics != 3 {
		t.Fatalf("final ledgers: monument %v exotics %d", sum.FinalMonument, sum.FinalExotics)
	}
	if sum.Dominant != "independence" {
		t.Fatalf("dominant: got %q want independence", sum.Dominant)
	}
}

func TestSummarizeShortRun(t *testing.T) {
	states := []YearState{
		{Year: 1, Sigma: 0.5, AggregatorShare: 0.5, Population: 200},
	}
	// Burn-in longer than the run falls back to the full series.
	sum := Summarize(states, params.Default(), 0.35, 100)
	if sum.MeanSigma != 0.5 {
		t.Fatalf("mean sigma: got %v want 0.5", sum.MeanSigma)
	}
	if sum.Dominant != "mixed" {
		t.Fatalf("dominant: got %q want mixed", sum.Dominant)
	}
}

func TestAggregateDominance(t *testing.T) {
	results := []Results{
		{Summary: Summary{FinalAggregatorShare: 0.8, MeanSigma: 0.6}},
		{Summary: Summary{FinalAggregatorShare: 0.9, MeanSigma: 0.6}, ExtinctionYear: 40},
	}
	stats := Aggregate(results)
	if stats.Replicates != 2 {
		t.Fatalf("replicates: got %d want 2", stats.Replicates)
	}
	if stats.Dominant != "aggregation" {
		t.Fatalf("dominant: got %q want aggregation", stats.Dominant)
	}
	if stats.Extinctions != 1 {
		t.Fatalf("extinctions: got %d want 1", stats.Extinctions)
	}
	if math.Abs(stats.MeanFinalAggregatorShare-0.85) > 1e-12 {
		t.Fatalf("mean share: got %v want 0.85", stats.MeanFinalAggregatorShare)
	}
}
