// Package params holds the immutable parameter set and the analytic fitness
// functions shared by the decision logic and the phase-space analysis.
package params

import (
	"fmt"
	"math"
)

// Costs are the per-year costs of the aggregation strategy, each expressed as
// a fraction of resources.
type Costs struct {
	Travel      float64 // travel to the aggregation site
	Signal      float64 // monument/exotic investment rate
	Opportunity float64 // foregone foraging while preparing to travel
}

// Total returns the combined cost of the aggregation strategy.
func (c Costs) Total() float64 {
	return c.Travel + c.Signal + c.Opportunity
}

// Vulnerability holds the strategy-specific shortfall exposure coefficients.
type Vulnerability struct {
	AlphaAggregator float64 // buffered by the ecotone and risk pooling
	BetaIndependent float64 // exposed, single-zone
}

// Cooperation holds the coefficients of the cooperation benefit f(n) and the
// reciprocal-aid and reproduction terms.
type Cooperation struct {
	Benefit       float64 // b: log-scale returns to aggregation size
	OptimalN      int     // n*: size at which crowding starts to bite
	Crowding      float64 // c: quadratic crowding penalty above n*
	ReciprocalB   float64 // fitness bonus from the obligation network
	RIndependent  float64 // reproductive advantage of staying dispersed
	Temperature   float64 // softmax temperature of the strategy decision
	MemoryBonus   float64 // hysteresis nudge from recent experience
	MemoryWindow  int     // years of fitness history behind the nudge
	FormationProb float64 // per-pair obligation formation probability
}

// Demography bounds band sizes and sets the baseline vital rates.
type Demography struct {
	MinBandSize   int
	MaxBandSize   int
	InitialSize   int
	BirthRate     float64 // per capita, annual
	DeathRate     float64 // per capita, annual, outside shortfalls
	MortalityRate float64 // scale of resource-deficit winter mortality
	NeedThreshold float64 // resources below this drive winter mortality
}

// Set is the complete, process-wide read-only parameter bundle. Construct it
// once, validate it, and pass it by value into every component.
type Set struct {
	Costs         Costs
	Vulnerability Vulnerability
	Cooperation   Cooperation
	Demography    Demography

	RegionSize   float64 // km, bands and the site live in [0, RegionSize]²
	TravelPerKm  float64 // resource cost per km of travel
	Consumption  float64 // per capita resource consumption per phase
	HarvestScale float64 // converts zone productivity into band resources
	BurnIn       int     // years excluded from summary statistics
}

// Default returns the calibrated baseline parameter set.
func Default() Set {
	return Set{
		Costs: Costs{
			Travel:      0.12,
			Signal:      0.18,
			Opportunity: 0.12,
		},
		Vulnerability: Vulnerability{
			AlphaAggregator: 0.40,
			BetaIndependent: 0.75,
		},
		Cooperation: Cooperation{
			Benefit:       0.08,
			OptimalN:      25,
			Crowding:      0.015,
			ReciprocalB:   0.05,
			RIndependent:  1.10,
			Temperature:   10.0,
			MemoryBonus:   0.05,
			MemoryWindow:  5,
			FormationProb: 0.25,
		},
		Demography: Demography{
			MinBandSize:   5,
			MaxBandSize:   50,
			InitialSize:   25,
			BirthRate:     0.03,
			DeathRate:     0.02,
			MortalityRate: 0.25,
			NeedThreshold: 0.25,
		},
		RegionSize:   500.0,
		TravelPerKm:  0.0005,
		Consumption:  0.003,
		HarvestScale: 0.30,
		BurnIn:       100,
	}
}

// Validate rejects parameter sets that would corrupt a run. Called at
// scenario construction, before any simulation step.
func (p Set) Validate() error {
	if p.Costs.Total() >= 1.0 {
		return fmt.Errorf("params: total aggregation cost %.3f must be < 1", p.Costs.Total())
	}
	if p.Cooperation.OptimalN <= 0 {
		return fmt.Errorf("params: optimal aggregation size %d must be positive", p.Cooperation.OptimalN)
	}
	if p.Cooperation.Temperature <= 0 {
		return fmt.Errorf("params: decision temperature %.2f must be positive", p.Cooperation.Temperature)
	}
	if p.Demography.MinBandSize <= 0 {
		return fmt.Errorf("params: min band size %d must be positive", p.Demography.MinBandSize)
	}
	if p.Demography.MinBandSize > p.Demography.MaxBandSize {
		return fmt.Errorf("params: min band size %d exceeds max %d",
			p.Demography.MinBandSize, p.Demography.MaxBandSize)
	}
	if p.RegionSize <= 0 {
		return fmt.Errorf("params: region size %.1f must be positive", p.RegionSize)
	}
	return nil
}

// CooperationBenefit computes f(n) = 1 + b·ln(n) − c·max(0, n−n*)², floored
// at 1.0. Callers clamp n to ≥ 1 before estimating, but guard anyway.
func (p Set) CooperationBenefit(n float64) float64 {
	if n <= 1 {
		return 1.0
	}
	benefit := 1.0 + p.Cooperation.Benefit*math.Log(n)
	if over := n - float64(p.Cooperation.OptimalN); over > 0 {
		benefit -= p.Cooperation.Crowding * over * over
	}
	if benefit < 1.0 {
		return 1.0
	}
	return benefit
}

// AggregatorFitness computes W_agg = (1−C)(1−α·σ_eff)·f(n)·(1+B_recip),
// where σ_eff = σ(1−ε) is the buffered uncertainty at the site.
func (p Set) AggregatorFitness(sigma, epsilon, n float64) float64 {
	sigmaEff := sigma * (1.0 - epsilon)
	w := (1.0 - p.Costs.Total()) *
		(1.0 - p.Vulnerability.AlphaAggregator*sigmaEff) *
		p.CooperationBenefit(n) *
		(1.0 + p.Cooperation.ReciprocalB)
	if w < 0 {
		return 0
	}
	return w
}

// IndependentFitness computes W_ind = R_ind(1−β·σ).
func (p Set) IndependentFitness(sigma float64) float64 {
	w := p.Cooperation.RIndependent * (1.0 - p.Vulnerability.BetaIndependent*sigma)
	if w < 0 {
		return 0
	}
	return w
}

// CriticalSigma returns the closed-form threshold σ* above which aggregation
// is expected to dominate, for ecotone advantage ε and aggregation size n:
//
//	σ* = (R_ind − A) / (R_ind·β − A·α(1−ε)),  A = (1−C)·f(n)·(1+B_recip)
//
// Returns 0 when aggregation dominates at any σ, 1 when it never does. The
// emergent simulation threshold sits somewhat above this value; the offset is
// an empirical property of decision stochasticity and hysteresis.
func (p Set) CriticalSigma(epsilon, n float64) float64 {
	a := (1.0 - p.Costs.Total()) * p.CooperationBenefit(n) * (1.0 + p.Cooperation.ReciprocalB)
	alphaEff := p.Vulnerability.AlphaAggregator * (1.0 - epsilon)
	denom := p.Cooperation.RIndependent*p.Vulnerability.BetaIndependent - a*alphaEff
	if denom <= 0 {
		return 0
	}
	num := p.Cooperation.RIndependent - a
	if num <= 0 {
		return 0
	}
	star := num / denom
	if star > 1 {
		return 1
	}
	return star
}
