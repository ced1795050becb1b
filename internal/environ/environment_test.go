package environ

import (
	"math"
	"math/rand"
	"testing"
)

func testConfig() Config {
	cfg := Config{
		Zones: [NumZones]ZoneConfig{
			Aquatic:     {Base: 0.70, Amplitude: 0.25, Phase: 3, Variability: 0.15},
			Terrestrial: {Base: 0.60, Amplitude: 0.20, Phase: 7, Variability: 0.12},
			Mast:        {Base: 0.50, Amplitude: 0.50, Phase: 7, Variability: 0.30},
			Wetland:     {Base: 0.65, Amplitude: 0.10, Phase: 6, Variability: 0.10},
		},
		Shortfall: ShortfallConfig{
			MeanInterval:  10,
			MagnitudeMean: 0.45,
			MagnitudeStd:  0.15,
			DurationScale: 2.5,
		},
	}
	cfg.Correlation[Aquatic][Terrestrial] = -0.35
	cfg.Correlation[Terrestrial][Aquatic] = -0.35
	cfg.Correlation[Aquatic][Mast] = 0.05
	cfg.Correlation[Mast][Aquatic] = 0.05
	cfg.Correlation[Terrestrial][Mast] = 0.15
	cfg.Correlation[Mast][Terrestrial] = 0.15
	return cfg
}

func TestNewRejectsNonPositiveDefiniteCovariance(t *testing.T) {
	cfg := testConfig()
	// A perfectly anti-correlated triple cannot form a valid covariance.
	for _, pair := range [][2]Zone{
		{Aquatic, Terrestrial}, {Terrestrial, Mast}, {Aquatic, Mast},
	} {
		cfg.Correlation[pair[0]][pair[1]] = -1.0
		cfg.Correlation[pair[1]][pair[0]] = -1.0
	}
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected configuration error for invalid covariance")
	}
}

func TestNewRejectsNegativeBase(t *testing.T) {
	cfg := testConfig()
	cfg.Zones[Mast].Base = -0.1
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected configuration error for negative base productivity")
	}
}

func TestProductivityNeverNegative(t *testing.T) {
	env, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rng := rand.New(rand.NewSource(7))
	for year := 0; year < 200; year++ {
		env.AdvanceYear(rng)
		env.MaybeTriggerShortfall(rng)
		for month := 1; month <= 12; month++ {
			for z := Zone(0); z < NumZones; z++ {
				if p := env.Productivity(z, month); p < 0 {
					t.Fatalf("year %d month %d zone %s: productivity %v < 0", year, month, z, p)
				}
			}
		}
	}
}

func TestShortfallDurationLaw(t *testing.T) {
	// Literal regression on duration = max(1, ⌊1 + mag·2.5⌋).
	cases := []struct {
		magnitude float64
		want      int
	}{
		{0.2, 1},
		{0.5, 2},
		{0.8, 3},
	}
	for _, tc := range cases {
		if got := ShortfallDuration(tc.magnitude, 2.5); got != tc.want {
			t.Fatalf("duration(%.1f): got %d want %d", tc.magnitude, got, tc.want)
		}
	}
}

func TestShortfallMagnitudeFixedForEpisode(t *testing.T) {
	env, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rng := rand.New(rand.NewSource(3))

	for year := 0; year < 500; year++ {
		env.AdvanceYear(rng)
		env.MaybeTriggerShortfall(rng)
		if !env.Shortfall.Active {
			continue
		}
		mag := env.Shortfall.Magnitude
		if mag < 0.2 || mag > 0.9 {
			t.Fatalf("magnitude %v outside [0.2, 0.9]", mag)
		}
		// Magnitude must not change while the episode runs down.
		for env.Shortfall.Active {
			if env.Shortfall.Magnitude != mag {
				t.Fatalf("magnitude drifted mid-episode: %v != %v", env.Shortfall.Magnitude, mag)
			}
			env.AdvanceYear(rng)
			env.MaybeTriggerShortfall(rng)
			year++
		}
		return
	}
	t.Fatalf("no shortfall triggered in 500 years at interval 10")
}

func TestEffectiveSigmaTracksShortfallStatistics(t *testing.T) {
	env, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rng := rand.New(rand.NewSource(11))
	for year := 0; year < 100; year++ {
		env.AdvanceYear(rng)
	}
	sigma := env.EffectiveSigma()
	// Base component is 5·0.45/10 = 0.225; the CV term moves it modestly.
	if sigma < 0.1 || sigma > 0.4 {
		t.Fatalf("effective σ %v outside plausible band for this scenario", sigma)
	}
}

func TestDeterministicShocks(t *testing.T) {
	run := func() []float64 {
		env, err := New(testConfig())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		rng := rand.New(rand.NewSource(99))
		var out []float64
		for year := 0; year < 50; year++ {
			env.AdvanceYear(rng)
			env.MaybeTriggerShortfall(rng)
			out = append(out, env.MeanProductivity(6))
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("year %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestFieldRichnessBounded(t *testing.T) {
	f := NewField(42, 500)
	for i := 0; i < 100; i++ {
		x, y := float64(i*5), float64((i*37)%500)
		for z := Zone(0); z < NumZones; z++ {
			r := f.Richness(z, x, y)
			if r < 0.8-1e-9 || r > 1.2+1e-9 {
				t.Fatalf("richness %v outside [0.8, 1.2]", r)
			}
			if math.IsNaN(r) {
				t.Fatalf("richness NaN at (%v, %v)", x, y)
			}
		}
	}
}
