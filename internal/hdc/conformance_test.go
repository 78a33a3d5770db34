package hdc

import "testing"

func TestConformanceAllStrategies(t *testing.T) {
	registry := DefaultRegistry(7)
	geometries := map[StrategyID]Geometry{
		StrategyDense:   {Dimensions: 4096},
		StrategySparse:  {Dimensions: 1 << 16, Density: 32},
		StrategyBipolar: {Dimensions: 4096},
	}

	for _, report := range CheckRegistry(registry, geometries) {
		if !report.Passed() {
			t.Errorf("%s failed conformance:", report.Strategy)
			for _, v := range report.Violations {
				t.Errorf("  %s", v)
			}
		}
		if report.Checked == 0 {
			t.Errorf("%s: no checks ran", report.Strategy)
		}
	}
}

func TestConformanceInvalidGeometryIsViolation(t *testing.T) {
	cases := []struct {
		name     string
		strategy Strategy
		geometry Geometry
	}{
		{"sparse without density", NewSparseStrategy(7), Geometry{Dimensions: 4096}},
		{"sparse density above dimensions", NewSparseStrategy(7), Geometry{Dimensions: 16, Density: 32}},
		{"dense zero dimensions", NewDenseStrategy(7), Geometry{}},
		{"bipolar negative dimensions", NewBipolarStrategy(7), Geometry{Dimensions: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := CheckConformance(tc.strategy, tc.geometry)
			if report.Passed() {
				t.Fatal("conformance passed an unusable geometry")
			}
			if len(report.Violations) != 1 {
				t.Errorf("want exactly the geometry violation, got %v", report.Violations)
			}
		})
	}
}

func TestConformanceCatchesBrokenProfile(t *testing.T) {
	// A dense strategy claiming a zero random baseline must fail the
	// baseline sampling check.
	s := &liarStrategy{DenseStrategy: NewDenseStrategy(7)}
	report := CheckConformance(s, Geometry{Dimensions: 4096})
	if report.Passed() {
		t.Error("conformance accepted a strategy with a false baseline profile")
	}
}

// liarStrategy misreports its random baseline.
type liarStrategy struct {
	*DenseStrategy
}

func (s *liarStrategy) Profile() Profile {
	p := s.DenseStrategy.Profile()
	p.RandomBaseline = 0.0
	p.BaselineTolerance = 0.01
	return p
}
