// Package engine drives the annual simulation cycle: environment advance,
// the four seasonal phases, demography, and per-year state recording.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"bandsim/internal/bands"
	"bandsim/internal/environ"
	"bandsim/internal/params"
	"bandsim/internal/scenario"
	"bandsim/internal/social"
)

// defaultExpectedN seeds the first year's attendance expectation, before any
// aggregation has been observed.
const defaultExpectedN = 5

// initialAggregatorShare is the probability a band starts as an aggregator.
const initialAggregatorShare = 0.4

// obligationFade is the annual baseline decay of unreinforced ties.
const obligationFade = 0.98

// Config describes one simulation run.
type Config struct {
	Scenario scenario.Scenario
	Params   params.Set

	Years    int
	NumBands int
	Seed     int64

	// FixedSigma, when positive, pins the regional uncertainty to a constant
	// instead of the environment's emergent estimate. Phase-space sweeps use
	// this to place runs at exact grid coordinates.
	FixedSigma float64

	Logger *slog.Logger
}

// Simulation holds the full mutable state of one run. Not safe for
// concurrent use; replicates each get their own Simulation.
type Simulation struct {
	cfg Config
	p   params.Set

	env   *environ.Environment
	field *environ.Field
	site  *social.AggregationSite

	// arena keeps bands in stable insertion order; removal compacts it.
	arena []*bands.Band
	byID  map[bands.BandID]*bands.Band

	nextID bands.BandID
	rng    *rand.Rand
	log    *slog.Logger

	year           int
	lastAttendance int

	states         []YearState
	extinctionYear int
}

// NewSimulation validates the configuration and builds the initial
// population: bands scattered over the region with a mixed strategy split,
// and the aggregation site at the regional ecotone.
func NewSimulation(cfg Config) (*Simulation, error) {
	if cfg.Years <= 0 {
		return nil, fmt.Errorf("engine: years %d must be positive", cfg.Years)
	}
	if cfg.NumBands <= 0 {
		return nil, fmt.Errorf("engine: band count %d must be positive", cfg.NumBands)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scenario.Validate(); err != nil {
		return nil, err
	}
	if cfg.FixedSigma < 0 || cfg.FixedSigma > 1 {
		return nil, fmt.Errorf("engine: fixed sigma %.3f must be in [0, 1]", cfg.FixedSigma)
	}

	env, err := environ.New(cfg.Scenario.Environment)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	p := cfg.Params

	s := &Simulation{
		cfg:   cfg,
		p:     p,
		env:   env,
		field: environ.NewField(cfg.Seed, p.RegionSize),
		site: social.NewSite("regional ecotone", p.RegionSize/2, p.RegionSize/2,
			cfg.Scenario.Epsilon),
		byID: make(map[bands.BandID]*bands.Band),
		rng:  rng,
		log:  log,
	}

	for i := 0; i < cfg.NumBands; i++ {
		s.nextID++
		strategy := bands.Independent
		if rng.Float64() < initialAggregatorShare {
			strategy = bands.Aggregator
		}
		size := p.Demography.InitialSize + rng.Intn(11) - 5
		if size < p.Demography.MinBandSize {
			size = p.Demography.MinBandSize
		}
		b := bands.New(s.nextID, size,
			rng.Float64()*p.RegionSize, rng.Float64()*p.RegionSize,
			environ.Zone(rng.Intn(int(environ.NumZones))),
			strategy, 0.4+0.2*rng.Float64())
		s.arena = append(s.arena, b)
		s.byID[b.ID] = b
	}

	return s, nil
}

// Sigma returns the regional uncertainty in effect this year.
func (s *Simulation) Sigma() float64 {
	if s.cfg.FixedSigma > 0 {
		return s.cfg.FixedSigma
	}
	return s.env.EffectiveSigma()
}

// Year returns the number of completed years.
func (s *Simulation) Year() int { return s.year }

// Bands returns the live bands in arena order.
func (s *Simulation) Bands() []*bands.Band { return s.arena }

// Site returns the aggregation site.
func (s *Simulation) Site() *social.AggregationSite { return s.site }

// Extinct reports whether the population has died out, and in which year.
func (s *Simulation) Extinct() (bool, int) {
	return s.extinctionYear > 0, s.extinctionYear
}

// States returns the recorded per-year states.
func (s *Simulation) States() []YearState { return s.states }

// StepYear runs one full annual cycle. The four phases execute in strict
// order; decisions inside a phase read only state frozen before the phase
// started, so processing order within a phase cannot change the outcome.
func (s *Simulation) StepYear() {
	if s.extinctionYear > 0 {
		return
	}

	s.year++
	s.env.AdvanceYear(s.rng)

	wasActive := s.env.Shortfall.Active
	s.env.MaybeTriggerShortfall(s.rng)
	if !wasActive && s.env.Shortfall.Active {
		s.log.Debug("shortfall begins",
			"year", s.year,
			"magnitude", s.env.Shortfall.Magnitude,
			"duration", s.env.Shortfall.YearsRemaining)
	}

	sigma := s.Sigma()

	s.springPhase()
	s.summerPhase(sigma)
	s.fallPhase()
	s.winterPhase(sigma)

	s.applyDemography()
	s.record(sigma)

	if len(s.arena) == 0 {
		s.extinctionYear = s.year
		s.log.Warn("population extinct", "year", s.year)
	}
}

// Run executes the configured number of years, stopping early on extinction.
func (s *Simulation) Run() {
	for i := 0; i < s.cfg.Years; i++ {
		s.StepYear()
		if s.extinctionYear > 0 {
			return
		}
	}
}

// sortedPartnerIDs returns a band's live partners in ascending ID order so
// aid draws are reproducible.
func (s *Simulation) sortedPartnerIDs(b *bands.Band) []bands.BandID {
	ids := make([]bands.BandID, 0, len(b.Obligations))
	for id := range b.Obligations {
		if _, alive := s.byID[id]; alive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
