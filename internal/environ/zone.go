// Package environ models the regional resource environment: a small fixed
// set of ecological zones with seasonal cycles, correlated inter-annual
// shocks, and multi-year shortfall episodes.
package environ

import "math"

// Zone identifies one of the resource categories bands forage from.
type Zone int

const (
	Aquatic Zone = iota // fish and waterfowl, floodplain and bayou
	Terrestrial         // deer and small game, upland forest
	Mast                // nuts, strongly seasonal and highly variable
	Wetland             // mixed backswamp resources
	NumZones
)

// String returns the zone name.
func (z Zone) String() string {
	switch z {
	case Aquatic:
		return "aquatic"
	case Terrestrial:
		return "terrestrial"
	case Mast:
		return "mast"
	case Wetland:
		return "wetland"
	}
	return "unknown"
}

// ZoneConfig describes one zone's productivity regime. Phase is the offset of
// the seasonal sine in months; the productivity peak lands three months after
// it. Variability is the standard deviation of the annual shock.
type ZoneConfig struct {
	Base        float64 `yaml:"base"`
	Amplitude   float64 `yaml:"amplitude"`
	Phase       float64 `yaml:"phase"`
	Variability float64 `yaml:"variability"`
}

// Seasonal returns the deterministic seasonal productivity for a month in
// 1..12, before annual shocks and shortfalls: base + amp·sin(2π(m−phase)/12),
// floored at zero.
func (zc ZoneConfig) Seasonal(month int) float64 {
	p := zc.Base + zc.Amplitude*math.Sin(2*math.Pi*(float64(month)-zc.Phase)/12)
	if p < 0 {
		return 0
	}
	return p
}
