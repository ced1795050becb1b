package engine

import (
	"math"

	"bandsim/internal/bands"
)

// applyDemography enforces the band size bounds after the winter phase:
// bands that shrank below the minimum merge into their nearest neighbor,
// bands that grew past the maximum fission into two. IDs are never reused,
// so obligation keys stay unambiguous.
func (s *Simulation) applyDemography() {
	s.mergeSmall()
	s.fissionLarge()
}

func (s *Simulation) mergeSmall() {
	for _, b := range s.arena {
		if b.Size >= s.p.Demography.MinBandSize {
			continue
		}

		host := s.nearest(b)
		if host != nil && b.Size > 0 {
			host.Size += b.Size
			host.Resources = weightedResources(host, b)
			host.Prestige += b.Prestige * 0.5
			s.log.Debug("band merged",
				"year", s.year, "band", uint64(b.ID), "into", uint64(host.ID), "size", b.Size)
		}
		s.remove(b.ID)
	}
	s.compact()
}

func (s *Simulation) fissionLarge() {
	// Fission appends to the arena; iterate over the current length only.
	n := len(s.arena)
	for i := 0; i < n; i++ {
		parent := s.arena[i]
		if parent.Size <= s.p.Demography.MaxBandSize {
			continue
		}

		half := parent.Size / 2
		parent.Size -= half
		parent.Resources *= 0.5
		parent.Prestige *= 0.5

		s.nextID++
		daughter := bands.New(s.nextID, half,
			s.offsetCoord(parent.HomeX), s.offsetCoord(parent.HomeY),
			parent.HomeZone, parent.Strategy, parent.Resources)
		daughter.LastAggregated = parent.LastAggregated

		s.arena = append(s.arena, daughter)
		s.byID[daughter.ID] = daughter
		s.log.Debug("band fissioned",
			"year", s.year, "band", uint64(parent.ID), "daughter", uint64(daughter.ID), "size", half)
	}
}

// nearest returns the closest other live band with room to absorb members,
// or nil when none exists.
func (s *Simulation) nearest(b *bands.Band) *bands.Band {
	var best *bands.Band
	bestDist := math.MaxFloat64
	for _, other := range s.arena {
		if other.ID == b.ID || other.Size == 0 {
			continue
		}
		dx, dy := other.HomeX-b.HomeX, other.HomeY-b.HomeY
		if d := dx*dx + dy*dy; d < bestDist {
			bestDist = d
			best = other
		}
	}
	return best
}

// remove marks a band dead and severs every tie pointing at it.
func (s *Simulation) remove(id bands.BandID) {
	b, ok := s.byID[id]
	if !ok {
		return
	}
	b.Size = 0
	delete(s.byID, id)
	for _, other := range s.arena {
		other.DropPartner(id)
	}
}

// compact drops dead bands from the arena, preserving order.
func (s *Simulation) compact() {
	live := s.arena[:0]
	for _, b := range s.arena {
		if _, ok := s.byID[b.ID]; ok && b.Size > 0 {
			live = append(live, b)
		} else {
			delete(s.byID, b.ID)
		}
	}
	s.arena = live
}

// offsetCoord jitters a daughter band's home a short distance from the
// parent, clamped to the region.
func (s *Simulation) offsetCoord(x float64) float64 {
	x += (s.rng.Float64() - 0.5) * 20.0
	if x < 0 {
		return 0
	}
	if x > s.p.RegionSize {
		return s.p.RegionSize
	}
	return x
}

// weightedResources averages two bands' stores by headcount.
func weightedResources(host, absorbed *bands.Band) float64 {
	total := float64(host.Size + absorbed.Size)
	if total == 0 {
		return host.Resources
	}
	// host.Size already includes the absorbed members by the time this runs.
	hostShare := float64(host.Size-absorbed.Size) * host.Resources
	absorbedShare := float64(absorbed.Size) * absorbed.Resources
	w := (hostShare + absorbedShare) / float64(host.Size)
	if w > 1 {
		return 1
	}
	if w < 0 {
		return 0
	}
	return w
}
