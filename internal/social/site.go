// Package social holds the shared structures bands interact through: the
// aggregation site and its cumulative ledgers.
package social

import "bandsim/internal/bands"

// AggregationSite is the single shared gathering place. Its monument and
// exotic ledgers only ever accumulate; attendance resets each year. All
// mutations are additive, so the order bands are processed in within a phase
// cannot change the totals.
type AggregationSite struct {
	Name string
	X, Y float64

	// EcotoneAdvantage is ε: the fractional reduction in uncertainty from
	// multi-zone access at this location. Fixed for the run.
	EcotoneAdvantage float64

	monument float64
	exotics  int

	attendees []bands.BandID
	attending map[bands.BandID]bool
	headcount int
}

// NewSite creates the aggregation site at a location with a fixed ε.
func NewSite(name string, x, y, epsilon float64) *AggregationSite {
	return &AggregationSite{
		Name:             name,
		X:                x,
		Y:                y,
		EcotoneAdvantage: epsilon,
		attending:        make(map[bands.BandID]bool),
	}
}

// ResetYear clears attendance for a new aggregation season.
func (s *AggregationSite) ResetYear() {
	s.attendees = s.attendees[:0]
	clear(s.attending)
	s.headcount = 0
}

// Attend registers a band for this year's aggregation. Idempotent.
func (s *AggregationSite) Attend(b *bands.Band) {
	if s.attending[b.ID] {
		return
	}
	s.attending[b.ID] = true
	s.attendees = append(s.attendees, b.ID)
	s.headcount += b.Size
}

// ReceiveInvestment adds a band's contribution to the monument ledger.
func (s *AggregationSite) ReceiveInvestment(amount float64) {
	if amount > 0 {
		s.monument += amount
	}
}

// RecordExotic counts one exotic good acquired through the site's networks.
func (s *AggregationSite) RecordExotic() {
	s.exotics++
}

// Attendance returns the number of bands present this year.
func (s *AggregationSite) Attendance() int {
	return len(s.attendees)
}

// Attendees returns this year's attendee IDs in arrival order.
func (s *AggregationSite) Attendees() []bands.BandID {
	return s.attendees
}

// Headcount returns the number of individuals present this year.
func (s *AggregationSite) Headcount() int {
	return s.headcount
}

// Monument returns the cumulative monument investment.
func (s *AggregationSite) Monument() float64 {
	return s.monument
}

// Exotics returns the cumulative exotic-goods count.
func (s *AggregationSite) Exotics() int {
	return s.exotics
}
