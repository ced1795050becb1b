package engine

import (
	"bandsim/internal/bands"
	"bandsim/internal/params"
)

// YearState is the per-year snapshot recorded after demography. Field names
// are stable: persistence and the run archive serialize this struct.
type YearState struct {
	Year int `json:"year" db:"year"`

	Sigma              float64 `json:"sigma" db:"sigma"`
	ShortfallActive    bool    `json:"shortfall_active" db:"shortfall_active"`
	ShortfallMagnitude float64 `json:"shortfall_magnitude" db:"shortfall_magnitude"`

	Bands           int     `json:"bands" db:"bands"`
	Population      int     `json:"population" db:"population"`
	MeanBandSize    float64 `json:"mean_band_size" db:"mean_band_size"`
	AggregatorShare float64 `json:"aggregator_share" db:"aggregator_share"`

	Attendance int `json:"attendance" db:"attendance"`
	Headcount  int `json:"headcount" db:"headcount"`

	MeanResources  float64 `json:"mean_resources" db:"mean_resources"`
	MeanPrestige   float64 `json:"mean_prestige" db:"mean_prestige"`
	MeanFitnessAgg float64 `json:"mean_fitness_agg" db:"mean_fitness_agg"`
	MeanFitnessInd float64 `json:"mean_fitness_ind" db:"mean_fitness_ind"`
	MonumentVolume float64 `json:"monument_volume" db:"monument_volume"`
	ExoticsTotal   int     `json:"exotics_total" db:"exotics_total"`
	ObligationTies int     `json:"obligation_ties" db:"obligation_ties"`
}

// record appends this year's snapshot.
func (s *Simulation) record(sigma float64) {
	st := YearState{
		Year:            s.year,
		Sigma:           sigma,
		ShortfallActive: s.env.Shortfall.Active,
		Bands:           len(s.arena),
		Attendance:      s.site.Attendance(),
		Headcount:       s.site.Headcount(),
		MonumentVolume:  s.site.Monument(),
		ExoticsTotal:    s.site.Exotics(),
	}
	if st.ShortfallActive {
		st.ShortfallMagnitude = s.env.Shortfall.Magnitude
	}

	aggregators, independents := 0, 0
	for _, b := range s.arena {
		st.Population += b.Size
		st.MeanResources += b.Resources
		st.MeanPrestige += b.Prestige
		st.ObligationTies += len(b.Obligations)

		fitness := 0.0
		if len(b.FitnessHistory) > 0 {
			fitness = b.FitnessHistory[len(b.FitnessHistory)-1]
		}
		if b.Strategy == bands.Aggregator {
			aggregators++
			st.MeanFitnessAgg += fitness
		} else {
			independents++
			st.MeanFitnessInd += fitness
		}
	}
	if n := float64(len(s.arena)); n > 0 {
		st.MeanBandSize = float64(st.Population) / n
		st.AggregatorShare = float64(aggregators) / n
		st.MeanResources /= n
		st.MeanPrestige /= n
	}
	if aggregators > 0 {
		st.MeanFitnessAgg /= float64(aggregators)
	}
	if independents > 0 {
		st.MeanFitnessInd /= float64(independents)
	}

	s.states = append(s.states, st)
}

// Summary condenses a run into the quantities the phase-space analysis cares
// about. All means exclude the burn-in years.
type Summary struct {
	MeanSigma            float64 `json:"mean_sigma"`
	MeanAggregatorShare  float64 `json:"mean_aggregator_share"`
	FinalAggregatorShare float64 `json:"final_aggregator_share"`
	MeanAggregationSize  float64 `json:"mean_aggregation_size"` // bands per gathering
	MeanHeadcount        float64 `json:"mean_headcount"`        // people per gathering
	MeanPopulation       float64 `json:"mean_population"`
	FinalMonument        float64 `json:"final_monument"`
	FinalExotics         int     `json:"final_exotics"`
	ShortfallYears       int     `json:"shortfall_years"`

	// CriticalSigma is the closed-form threshold at this run's epsilon and
	// the observed mean gathering size, for comparison with the emergent
	// transition.
	CriticalSigma float64 `json:"critical_sigma"`

	Dominant string `json:"dominant"` // "aggregation", "independence", or "mixed"
}

// Results bundles everything one run produced.
type Results struct {
	ScenarioName   string      `json:"scenario"`
	Seed           int64       `json:"seed"`
	Years          []YearState `json:"years"`
	ExtinctionYear int         `json:"extinction_year,omitempty"`
	Summary        Summary     `json:"summary"`
}

// Results summarizes the completed run.
func (s *Simulation) Results() Results {
	return Results{
		ScenarioName:   s.cfg.Scenario.Name,
		Seed:           s.cfg.Seed,
		Years:          s.states,
		ExtinctionYear: s.extinctionYear,
		Summary: Summarize(s.states, s.p, s.site.EcotoneAdvantage,
			s.p.BurnIn),
	}
}

// Summarize computes post-burn-in run statistics. Runs shorter than the
// burn-in are summarized over whatever years exist.
func Summarize(states []YearState, p params.Set, epsilon float64, burnIn int) Summary {
	var sum Summary
	if len(states) == 0 {
		return sum
	}

	start := burnIn
	if start >= len(states) {
		start = 0
	}
	window := states[start:]

	gatherings := 0
	for _, st := range window {
		sum.MeanSigma += st.Sigma
		sum.MeanAggregatorShare += st.AggregatorShare
		sum.MeanPopulation += float64(st.Population)
		if st.ShortfallActive {
			sum.ShortfallYears++
		}
		if st.Attendance > 0 {
			sum.MeanAggregationSize += float64(st.Attendance)
			sum.MeanHeadcount += float64(st.Headcount)
			gatherings++
		}
	}
	n := float64(len(window))
	sum.MeanSigma /= n
	sum.MeanAggregatorShare /= n
	sum.MeanPopulation /= n
	if gatherings > 0 {
		sum.MeanAggregationSize /= float64(gatherings)
		sum.MeanHeadcount /= float64(gatherings)
	}

	last := states[len(states)-1]
	sum.FinalAggregatorShare = last.AggregatorShare
	sum.FinalMonument = last.MonumentVolume
	sum.FinalExotics = last.ExoticsTotal

	sizeForThreshold := sum.MeanAggregationSize
	if sizeForThreshold < 1 {
		sizeForThreshold = float64(p.Cooperation.OptimalN)
	}
	sum.CriticalSigma = p.CriticalSigma(epsilon, sizeForThreshold)

	switch {
	case sum.FinalAggregatorShare >= 0.6:
		sum.Dominant = "aggregation"
	case sum.FinalAggregatorShare <= 0.4:
		sum.Dominant = "independence"
	default:
		sum.Dominant = "mixed"
	}
	return sum
}
