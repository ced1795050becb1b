package environ

import (
	"fmt"
	"math"
	"math/rand"
)

// ShortfallConfig controls the multi-year productivity collapse process.
type ShortfallConfig struct {
	MeanInterval  float64 `yaml:"mean_interval"`  // mean years between events
	MagnitudeMean float64 `yaml:"magnitude_mean"` // mean depth of the collapse
	MagnitudeStd  float64 `yaml:"magnitude_std"`
	DurationScale float64 `yaml:"duration_scale"` // duration = max(1, ⌊1+mag·scale⌋)
}

// Shortfall is the current shortfall episode. Magnitude is drawn once when
// the episode starts and is fixed for its entire duration.
type Shortfall struct {
	Active         bool
	Magnitude      float64
	YearsRemaining int
}

// Config bundles everything the environment needs for a run.
type Config struct {
	Zones [NumZones]ZoneConfig

	// Correlation between zone shocks. Symmetric, implicit 1.0 diagonal;
	// negative entries are the portfolio effect behind ecotone buffering.
	Correlation [NumZones][NumZones]float64

	Shortfall ShortfallConfig
}

// Environment produces per-zone realized productivity year by year. All
// randomness flows through the *rand.Rand handed to the advance methods, so a
// replicate's draws are reproducible.
type Environment struct {
	cfg  Config
	chol [NumZones][NumZones]float64 // lower-triangular factor of the covariance

	Year      int
	Shortfall Shortfall

	shock [NumZones]float64 // this year's correlated productivity deviations

	// Rolling record of pre-shortfall annual means, for the σ estimator.
	annualMeans []float64
}

// New validates the configuration and prepares the shock distribution. The
// covariance matrix must be positive definite; a scenario that is not is
// rejected here, before any simulation step runs.
func New(cfg Config) (*Environment, error) {
	for z := Zone(0); z < NumZones; z++ {
		if cfg.Zones[z].Base < 0 {
			return nil, fmt.Errorf("environ: zone %s base productivity %.3f is negative",
				z, cfg.Zones[z].Base)
		}
		if cfg.Zones[z].Variability < 0 {
			return nil, fmt.Errorf("environ: zone %s variability %.3f is negative",
				z, cfg.Zones[z].Variability)
		}
	}
	if cfg.Shortfall.MeanInterval <= 0 {
		return nil, fmt.Errorf("environ: shortfall mean interval %.2f must be positive",
			cfg.Shortfall.MeanInterval)
	}

	cov := covariance(cfg)
	chol, err := cholesky(cov)
	if err != nil {
		return nil, err
	}

	return &Environment{cfg: cfg, chol: chol}, nil
}

// covariance scales the pairwise correlations by the zone variabilities.
func covariance(cfg Config) [NumZones][NumZones]float64 {
	var cov [NumZones][NumZones]float64
	for i := Zone(0); i < NumZones; i++ {
		for j := Zone(0); j < NumZones; j++ {
			corr := 1.0
			if i != j {
				corr = cfg.Correlation[i][j]
			}
			cov[i][j] = corr * cfg.Zones[i].Variability * cfg.Zones[j].Variability
		}
	}
	return cov
}

// cholesky factors a symmetric matrix into its lower-triangular root.
// Fails when the matrix is not positive definite.
func cholesky(cov [NumZones][NumZones]float64) ([NumZones][NumZones]float64, error) {
	var l [NumZones][NumZones]float64
	for i := 0; i < int(NumZones); i++ {
		for j := 0; j <= i; j++ {
			sum := cov[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return l, fmt.Errorf("environ: zone covariance matrix is not positive definite (pivot %d)", i)
				}
				l[i][j] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, nil
}

// AdvanceYear draws the correlated annual shocks for a new year and records
// the pre-shortfall annual mean used by the σ estimator.
func (e *Environment) AdvanceYear(rng *rand.Rand) {
	e.Year++

	var normals [NumZones]float64
	for i := range normals {
		normals[i] = rng.NormFloat64()
	}
	for i := Zone(0); i < NumZones; i++ {
		s := 0.0
		for j := Zone(0); j <= i; j++ {
			s += e.chol[i][j] * normals[j]
		}
		e.shock[i] = s
	}

	mean := 0.0
	for month := 1; month <= 12; month++ {
		for z := Zone(0); z < NumZones; z++ {
			mean += e.unbuffered(z, month)
		}
	}
	mean /= 12 * float64(NumZones)
	e.annualMeans = append(e.annualMeans, mean)
	if len(e.annualMeans) > 10 {
		e.annualMeans = e.annualMeans[1:]
	}
}

// MaybeTriggerShortfall advances the shortfall process by one year: an active
// episode runs down its counter, otherwise a new one starts with probability
// 1/mean_interval. Magnitude is drawn once per episode and clipped to
// [0.2, 0.9]; duration grows with magnitude.
func (e *Environment) MaybeTriggerShortfall(rng *rand.Rand) {
	if e.Shortfall.Active {
		e.Shortfall.YearsRemaining--
		if e.Shortfall.YearsRemaining <= 0 {
			e.Shortfall = Shortfall{}
		}
		return
	}

	if rng.Float64() >= 1.0/e.cfg.Shortfall.MeanInterval {
		return
	}

	mag := e.cfg.Shortfall.MagnitudeMean + rng.NormFloat64()*e.cfg.Shortfall.MagnitudeStd
	mag = clamp(mag, 0.2, 0.9)
	e.Shortfall = Shortfall{
		Active:         true,
		Magnitude:      mag,
		YearsRemaining: ShortfallDuration(mag, e.cfg.Shortfall.DurationScale),
	}
}

// ShortfallDuration maps an episode magnitude to its duration in years:
// max(1, ⌊1 + magnitude·scale⌋).
func ShortfallDuration(magnitude, scale float64) int {
	d := int(math.Floor(1 + magnitude*scale))
	if d < 1 {
		return 1
	}
	return d
}

// unbuffered is seasonal productivity plus this year's shock, before the
// shortfall multiplier. Never negative.
func (e *Environment) unbuffered(z Zone, month int) float64 {
	p := e.cfg.Zones[z].Seasonal(month) + e.shock[z]
	if p < 0 {
		return 0
	}
	return p
}

// Productivity returns the realized productivity of a zone for a month,
// including the active shortfall reduction.
func (e *Environment) Productivity(z Zone, month int) float64 {
	p := e.unbuffered(z, month)
	if e.Shortfall.Active {
		p *= 1.0 - e.Shortfall.Magnitude
	}
	return p
}

// BufferedMeanProductivity averages productivity across all zones with the
// shortfall reduction softened by the ecotone advantage epsilon. Multi-zone
// access at the site means a collapse never bites at full depth there.
func (e *Environment) BufferedMeanProductivity(month int, epsilon float64) float64 {
	sum := 0.0
	for z := Zone(0); z < NumZones; z++ {
		p := e.unbuffered(z, month)
		if e.Shortfall.Active {
			p *= 1.0 - e.Shortfall.Magnitude*(1.0-epsilon)
		}
		sum += p
	}
	return sum / float64(NumZones)
}

// MeanProductivity averages realized productivity across all zones.
func (e *Environment) MeanProductivity(month int) float64 {
	sum := 0.0
	for z := Zone(0); z < NumZones; z++ {
		sum += e.Productivity(z, month)
	}
	return sum / float64(NumZones)
}

// EffectiveSigma estimates the regional uncertainty σ. The dominant term
// comes from the scenario's shortfall statistics; the rest from the realized
// coefficient of variation of pre-shortfall productivity. Shortfall years are
// excluded from the variance term because the shortfall process already
// enters through the first term.
func (e *Environment) EffectiveSigma() float64 {
	base := 5.0 * e.cfg.Shortfall.MagnitudeMean / e.cfg.Shortfall.MeanInterval

	sigma := base
	if len(e.annualMeans) >= 5 {
		mean, sd := meanStd(e.annualMeans)
		if mean > 0 {
			sigma = 0.7*base + 0.3*(1.5*sd/mean)
		}
	}
	return clamp(sigma, 0, 1)
}

func meanStd(xs []float64) (mean, sd float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		sd += (x - mean) * (x - mean)
	}
	sd = math.Sqrt(sd / float64(len(xs)))
	return mean, sd
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
