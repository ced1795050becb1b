// Package bands implements the band agent: a small mobile foraging group
// that chooses each year between traveling to the shared aggregation site
// and staying dispersed.
package bands

import (
	"math"
	"math/rand"

	"bandsim/internal/environ"
	"bandsim/internal/params"
)

// BandID is a stable identifier. IDs are never reused within a run, so
// obligation keys stay unambiguous across merges and fissions.
type BandID uint64

// Strategy is the band's current stance toward aggregation.
type Strategy uint8

const (
	Aggregator Strategy = iota
	Independent
)

// String returns the strategy name.
func (s Strategy) String() string {
	if s == Aggregator {
		return "aggregator"
	}
	return "independent"
}

// investThreshold is the minimum resource level below which a band will not
// divert anything into monument building or exotics.
const investThreshold = 0.3

// fitnessHistoryCap bounds the rolling history behind the memory effect.
const fitnessHistoryCap = 20

// Band holds all per-band state. Mutated only by its own phase updates and
// the controller's demographic step.
type Band struct {
	ID       BandID
	Size     int
	HomeX    float64
	HomeY    float64
	HomeZone environ.Zone
	Strategy Strategy

	Resources float64 // bounded [0, 1]
	Prestige  float64 // non-negative, decays when uninvested

	MonumentTotal float64 // cumulative contribution over the band's life
	Exotics       int

	// Outgoing obligation weights keyed by partner band.
	Obligations map[BandID]float64

	// Rolling realized-fitness history and last year's choice, for the
	// memory effect in the strategy decision.
	FitnessHistory []float64
	LastAggregated bool

	invested bool // monument or exotic investment happened this year
}

// New creates a band with bounded initial state.
func New(id BandID, size int, x, y float64, zone environ.Zone, strategy Strategy, resources float64) *Band {
	return &Band{
		ID:          id,
		Size:        size,
		HomeX:       x,
		HomeY:       y,
		HomeZone:    zone,
		Strategy:    strategy,
		Resources:   clamp01(resources),
		Obligations: make(map[BandID]float64),
	}
}

// DecideStrategy runs the annual softmax decision. expectedN is the
// anticipated aggregation size (clamped to ≥ 1 to keep ln defined), sigma the
// regional uncertainty and epsilon the site's ecotone advantage. The draw is
// intentionally probabilistic: temperature τ keeps individual bands from
// switching in lockstep, which is what produces gradual phase transitions.
func (b *Band) DecideStrategy(expectedN, sigma, epsilon float64, p params.Set, rng *rand.Rand) Strategy {
	if expectedN < 1 {
		expectedN = 1
	}

	diff := p.AggregatorFitness(sigma, epsilon, expectedN) - p.IndependentFitness(sigma)
	diff += b.memoryBonus(p)

	pAgg := 1.0 / (1.0 + math.Exp(-p.Cooperation.Temperature*diff))
	if rng.Float64() < pAgg {
		return Aggregator
	}
	return Independent
}

// memoryBonus nudges the decision toward or away from last year's choice
// depending on whether recent fitness beat the band's running average.
func (b *Band) memoryBonus(p params.Set) float64 {
	w := p.Cooperation.MemoryWindow
	if len(b.FitnessHistory) < w {
		return 0
	}
	recent := mean(b.FitnessHistory[len(b.FitnessHistory)-w:])
	longTerm := mean(b.FitnessHistory)

	improving := recent > longTerm
	if b.LastAggregated == improving {
		return p.Cooperation.MemoryBonus
	}
	return -p.Cooperation.MemoryBonus
}

// RecordFitness appends to the rolling history.
func (b *Band) RecordFitness(w float64) {
	b.FitnessHistory = append(b.FitnessHistory, w)
	if len(b.FitnessHistory) > fitnessHistoryCap {
		b.FitnessHistory = b.FitnessHistory[1:]
	}
}

// TravelCost is the resource cost of moving to (x, y) from home.
func (b *Band) TravelCost(x, y, costPerKm float64) float64 {
	dx, dy := x-b.HomeX, y-b.HomeY
	return math.Sqrt(dx*dx+dy*dy) * costPerKm
}

// Forage adds a harvest net of consumption and clamps resources.
func (b *Band) Forage(harvest float64, p params.Set) {
	b.Resources = clamp01(b.Resources + harvest - float64(b.Size)*p.Consumption)
}

// InvestMonument diverts a stochastic fraction of resources into monument
// construction and converts part of it into prestige. Returns the amount
// invested, zero when the band is too poor.
func (b *Band) InvestMonument(p params.Set, rng *rand.Rand) float64 {
	if b.Resources < investThreshold {
		return 0
	}
	base := float64(b.Size) * p.Costs.Signal * b.Resources * 0.01
	investment := base * (0.8 + 0.4*rng.Float64())

	b.Resources = clamp01(b.Resources - investment)
	b.MonumentTotal += investment
	b.Prestige += investment * 0.1
	b.invested = true
	return investment
}

// AcquireExotic attempts to obtain one exotic good. The chance rises with
// prestige (saturating) and with the size of the obligation network.
func (b *Band) AcquireExotic(rng *rand.Rand) bool {
	const cost = 0.1
	if b.Resources < cost+0.2 {
		return false
	}
	pAcquire := 0.3*(1.0+b.Prestige/(1.0+b.Prestige)) + 0.02*float64(min(len(b.Obligations), 5))
	if rng.Float64() >= pAcquire {
		return false
	}
	b.Exotics++
	b.Resources = clamp01(b.Resources - cost)
	b.Prestige += 0.15
	b.invested = true
	return true
}

// EndYear applies prestige decay for bands that invested nothing and resets
// the annual flags.
func (b *Band) EndYear() {
	if !b.invested {
		b.Prestige *= 0.98
	}
	b.invested = false
}

// Reproduce applies births and baseline deaths for the year. Births scale
// with realized fitness and resource holdings. Size may reach zero; removal
// is the controller's job.
func (b *Band) Reproduce(fitness float64, p params.Set, rng *rand.Rand) (births, deaths int) {
	birthP := clamp01(p.Demography.BirthRate * fitness * (0.5 + b.Resources))
	births = binomial(b.Size, birthP, rng)
	deaths = binomial(b.Size, clamp01(p.Demography.DeathRate), rng)
	b.Size += births - deaths
	if b.Size < 0 {
		b.Size = 0
	}
	return births, deaths
}

// SufferShortfall applies shortfall mortality with the band's
// strategy-specific vulnerability. Severity scales with both the prevailing
// uncertainty and the depth of the active episode.
func (b *Band) SufferShortfall(vulnerability, sigma, magnitude float64, rng *rand.Rand) int {
	deaths := binomial(b.Size, clamp01(vulnerability*sigma*magnitude), rng)
	b.Size -= deaths
	if b.Size < 0 {
		b.Size = 0
	}
	return deaths
}

// SufferNeed applies resource-deficit mortality: bands entering winter below
// the need threshold lose members in proportion to the deficit.
func (b *Band) SufferNeed(p params.Set, rng *rand.Rand) int {
	deficit := p.Demography.NeedThreshold - b.Resources
	if deficit <= 0 {
		return 0
	}
	deaths := binomial(b.Size, clamp01(deficit*p.Demography.MortalityRate), rng)
	b.Size -= deaths
	if b.Size < 0 {
		b.Size = 0
	}
	return deaths
}

// binomial draws the number of successes in n Bernoulli trials. Sampled
// trial by trial so RNG consumption stays deterministic and obvious.
func binomial(n int, p float64, rng *rand.Rand) int {
	if n <= 0 || p <= 0 {
		return 0
	}
	k := 0
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			k++
		}
	}
	return k
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
