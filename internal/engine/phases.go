package engine

import (
	"bandsim/internal/bands"
)

// The annual cycle runs in four strictly ordered phases. Month groups follow
// the seasonal productivity curves: spring 3-5, summer 6-8, fall 9-11,
// winter 12-2.

var (
	springMonths = []int{3, 4, 5}
	summerMonths = []int{6, 7, 8}
	fallMonths   = []int{9, 10, 11}
)

// homeHarvest is one phase's harvest from a band's home zone: the mean
// realized productivity over the phase months, modulated by the local
// richness surface.
func (s *Simulation) homeHarvest(b *bands.Band, months []int) float64 {
	sum := 0.0
	for _, m := range months {
		sum += s.env.Productivity(b.HomeZone, m)
	}
	mean := sum / float64(len(months))
	return mean * s.field.Richness(b.HomeZone, b.HomeX, b.HomeY) * s.p.HarvestScale
}

// siteHarvest is an aggregator's summer harvest at the site: the mean across
// all zones (multi-zone access is the point of the ecotone), with the
// shortfall reduction softened by epsilon.
func (s *Simulation) siteHarvest() float64 {
	sum := 0.0
	for _, m := range summerMonths {
		sum += s.env.BufferedMeanProductivity(m, s.site.EcotoneAdvantage)
	}
	return sum / float64(len(summerMonths)) * s.p.HarvestScale
}

// springPhase: every band forages its home zone. Bands still on the
// aggregator strategy forage at reduced efficiency, an advance cost of the
// coming trip.
func (s *Simulation) springPhase() {
	for _, b := range s.arena {
		harvest := s.homeHarvest(b, springMonths)
		if b.Strategy == bands.Aggregator {
			harvest *= 1.0 - s.p.Costs.Opportunity
		}
		b.Forage(harvest, s.p)
	}
}

// summerPhase runs the annual strategy decision and the aggregation itself:
// travel, pooled harvest, monument investment and obligation formation. All
// decisions read last year's attendance, so the order bands decide in does
// not matter.
func (s *Simulation) summerPhase(sigma float64) {
	expectedN := float64(s.lastAttendance)
	if s.year == 1 {
		expectedN = defaultExpectedN
	}

	s.site.ResetYear()
	epsilon := s.site.EcotoneAdvantage

	for _, b := range s.arena {
		b.Strategy = b.DecideStrategy(expectedN, sigma, epsilon, s.p, s.rng)
	}

	siteHarvest := s.siteHarvest()
	for _, b := range s.arena {
		if b.Strategy != bands.Aggregator {
			b.Forage(s.homeHarvest(b, summerMonths), s.p)
			continue
		}

		travel := b.TravelCost(s.site.X, s.site.Y, s.p.TravelPerKm)
		if limit := b.Resources * 0.3; travel > limit {
			travel = limit
		}
		b.Forage(siteHarvest-travel, s.p)

		s.site.Attend(b)
		if inv := b.InvestMonument(s.p, s.rng); inv > 0 {
			s.site.ReceiveInvestment(inv)
		}
	}

	s.formObligations()
	s.lastAttendance = s.site.Attendance()
}

// formObligations strengthens ties between co-present bands. One draw per
// unordered pair, forming both directions together, so connectivity does not
// depend on attendee order.
func (s *Simulation) formObligations() {
	attendees := s.site.Attendees()
	for i := 0; i < len(attendees); i++ {
		for j := i + 1; j < len(attendees); j++ {
			if s.rng.Float64() >= s.p.Cooperation.FormationProb {
				continue
			}
			a, b := s.byID[attendees[i]], s.byID[attendees[j]]
			a.FormObligation(b.ID)
			b.FormObligation(a.ID)
		}
	}
}

// fallPhase: everyone forages home (mast season carries the fall curve);
// aggregators additionally work the site's exchange networks for exotics.
func (s *Simulation) fallPhase() {
	for _, b := range s.arena {
		b.Forage(s.homeHarvest(b, fallMonths), s.p)
	}
	for _, id := range s.site.Attendees() {
		if b := s.byID[id]; b.AcquireExotic(s.rng) {
			s.site.RecordExotic()
		}
	}
}

// winterPhase: no foraging, only consumption, aid, mortality, and the
// demographic bookkeeping that closes the year. Only aggregators can call on
// their network, and only while a shortfall is running; aid is invoked
// before mortality so it can actually avert deaths.
func (s *Simulation) winterPhase(sigma float64) {
	epsilon := s.site.EcotoneAdvantage

	// Aid draws against every partner's pre-winter stores. A live read would
	// make aid depend on how many partners already consumed or received aid
	// this phase, i.e. on arena iteration order.
	stores := make(map[bands.BandID]float64, len(s.arena))
	for _, b := range s.arena {
		stores[b.ID] = b.Resources
	}
	storesOf := func(id bands.BandID) float64 { return stores[id] }

	for _, b := range s.arena {
		b.Forage(0, s.p) // winter draws down stores

		if sf := s.env.Shortfall; sf.Active {
			if b.Strategy == bands.Aggregator {
				if need := s.p.Demography.NeedThreshold - b.Resources; need > 0 {
					aid := b.InvokeObligations(need, storesOf, s.sortedPartnerIDs(b))
					if aid > 0 {
						b.Resources += aid
					}
				}
				b.SufferShortfall(s.p.Vulnerability.AlphaAggregator,
					sigma*(1.0-epsilon), sf.Magnitude, s.rng)
			} else {
				b.SufferShortfall(s.p.Vulnerability.BetaIndependent,
					sigma, sf.Magnitude, s.rng)
			}
		}
		b.SufferNeed(s.p, s.rng)

		var fitness float64
		if b.Strategy == bands.Aggregator {
			fitness = s.p.AggregatorFitness(sigma, epsilon, float64(max(s.lastAttendance, 1)))
			b.LastAggregated = true
		} else {
			fitness = s.p.IndependentFitness(sigma)
			b.LastAggregated = false
		}
		b.RecordFitness(fitness)
		b.Reproduce(fitness, s.p, s.rng)

		b.DecayObligations(obligationFade)
		b.EndYear()
	}
}
