package environ

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Field is a static spatial richness surface per zone. It modulates how much
// of a zone's regional productivity a band can actually reach from its home
// range, so two bands with the same home zone still differ a little.
type Field struct {
	noise      [NumZones]opensimplex.Noise
	regionSize float64
}

// NewField builds one noise layer per zone, offset seeds so the layers are
// independent.
func NewField(seed int64, regionSize float64) *Field {
	f := &Field{regionSize: regionSize}
	for z := Zone(0); z < NumZones; z++ {
		f.noise[z] = opensimplex.NewNormalized(seed + int64(z))
	}
	return f
}

// Richness returns a multiplier in [0.8, 1.2] for a zone at a location.
func (f *Field) Richness(z Zone, x, y float64) float64 {
	n := octaveNoise(f.noise[z], x/f.regionSize, y/f.regionSize, 2, 3.0, 0.5)
	return 0.8 + 0.4*n
}

// octaveNoise layers multiple frequencies of simplex noise.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
