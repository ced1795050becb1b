package archive

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"bandsim/internal/engine"
)

// WriteYearsCSV exports a year series for plotting and external analysis.
func WriteYearsCSV(path string, states []engine.YearState) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"year", "sigma", "shortfall_active", "shortfall_magnitude",
		"bands", "population", "mean_band_size", "aggregator_share",
		"attendance", "headcount", "mean_resources", "mean_prestige",
		"mean_fitness_agg", "mean_fitness_ind",
		"monument_volume", "exotics_total", "obligation_ties",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	for _, st := range states {
		row := []string{
			strconv.Itoa(st.Year),
			fmtFloat(st.Sigma),
			strconv.FormatBool(st.ShortfallActive),
			fmtFloat(st.ShortfallMagnitude),
			strconv.Itoa(st.Bands),
			strconv.Itoa(st.Population),
			fmtFloat(st.MeanBandSize),
			fmtFloat(st.AggregatorShare),
			strconv.Itoa(st.Attendance),
			strconv.Itoa(st.Headcount),
			fmtFloat(st.MeanResources),
			fmtFloat(st.MeanPrestige),
			fmtFloat(st.MeanFitnessAgg),
			fmtFloat(st.MeanFitnessInd),
			fmtFloat(st.MonumentVolume),
			strconv.Itoa(st.ExoticsTotal),
			strconv.Itoa(st.ObligationTies),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return f.Close()
}

// WriteSweepCSV exports a phase-space grid, one row per cell.
func WriteSweepCSV(path string, cells []engine.SweepCell) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"sigma", "axis", "mean_aggregator_share", "std_aggregator_share",
		"dominant", "critical_sigma", "extinctions",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	for _, c := range cells {
		row := []string{
			fmtFloat(c.Sigma),
			fmtFloat(c.Axis),
			fmtFloat(c.MeanAggregatorShare),
			fmtFloat(c.StdAggregatorShare),
			c.Dominant,
			fmtFloat(c.CriticalSigma),
			strconv.Itoa(c.Extinctions),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return f.Close()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
