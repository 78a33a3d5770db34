package hdc

import (
	"fmt"
	"math"
)

// =============================================================================
// CONFORMANCE CHECKER
// =============================================================================

// Report is the outcome of exercising a strategy against the algebra
// contract. A failed property never aborts the run: the checker enumerates
// every violation it finds so one run reports the full defect list. Reports
// gate strategy admission and testing only, never query execution.
type Report struct {
	Strategy   StrategyID
	Geometry   Geometry
	Checked    int
	Violations []string
}

// Passed reports whether every checked property held.
func (r *Report) Passed() bool { return len(r.Violations) == 0 }

func (r *Report) String() string {
	if r.Passed() {
		return fmt.Sprintf("%s %s: %d properties checked, all passed", r.Strategy, r.Geometry, r.Checked)
	}
	out := fmt.Sprintf("%s %s: %d properties checked, %d violated:", r.Strategy, r.Geometry, r.Checked, len(r.Violations))
	for _, v := range r.Violations {
		out += "\n  - " + v
	}
	return out
}

func (r *Report) check(ok bool, format string, args ...any) {
	r.Checked++
	if !ok {
		r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
	}
}

// ConformanceSamples controls how many random draws the statistical checks
// use. Raising it tightens the baseline estimate at linear cost.
const ConformanceSamples = 64

// CheckConformance exercises a strategy against the full contract at the
// given geometry and returns the enumerated result. Constants (random
// baseline, recovery threshold, tolerances) come from the strategy's own
// Profile, so a lossy substrate is checked against its own guarantees.
func CheckConformance(s Strategy, g Geometry) *Report {
	r := &Report{Strategy: s.ID(), Geometry: g}

	// A user-supplied geometry the strategy cannot use is a violation to
	// enumerate, not a programmer bug to panic over.
	if err := GeometryError(s.ID(), g); err != nil {
		r.check(false, "unusable geometry %s: %v", g, err)
		return r
	}

	p := s.Profile()

	a := s.NewFromName("conformance-a", g, ScopeEntity)
	b := s.NewFromName("conformance-b", g, ScopeEntity)
	c := s.NewFromName("conformance-c", g, ScopeEntity)

	// Similarity: reflexive, symmetric, bounded.
	r.check(s.Similarity(a, a) == 1, "similarity(a,a) = %v, want 1", s.Similarity(a, a))
	r.check(s.Similarity(a, b) == s.Similarity(b, a),
		"similarity not symmetric: %v vs %v", s.Similarity(a, b), s.Similarity(b, a))
	for _, pair := range [][2]*Vector{{a, b}, {a, c}, {b, c}} {
		sim := s.Similarity(pair[0], pair[1])
		r.check(sim >= 0 && sim <= 1, "similarity out of [0,1]: %v", sim)
	}

	// Bind: commutative and associative up to the recovery threshold.
	ab, ba := s.Bind(a, b), s.Bind(b, a)
	r.check(s.Similarity(ab, ba) >= p.RecoveryThreshold,
		"bind not commutative: sim(bind(a,b), bind(b,a)) = %v", s.Similarity(ab, ba))
	left, right := s.Bind(s.Bind(a, b), c), s.Bind(a, s.Bind(b, c))
	r.check(s.Similarity(left, right) >= p.RecoveryThreshold,
		"bind not associative: sim = %v", s.Similarity(left, right))

	// Bind output must be dissimilar to both inputs, up to the strategy's
	// declared separation bound.
	r.check(s.Similarity(ab, a) <= p.BindSeparation, "bind(a,b) too similar to a: %v", s.Similarity(ab, a))
	r.check(s.Similarity(ab, b) <= p.BindSeparation, "bind(a,b) too similar to b: %v", s.Similarity(ab, b))

	// Unbind recovery: bind(bind(a,b),b) ≈ a at the declared threshold.
	recovered := s.Unbind(s.Bind(a, b), b)
	r.check(s.Similarity(recovered, a) >= p.RecoveryThreshold,
		"recovery similarity %v below declared threshold %v", s.Similarity(recovered, a), p.RecoveryThreshold)

	// Deterministic naming and scope isolation.
	again := s.NewFromName("conformance-a", g, ScopeEntity)
	r.check(s.Equal(a, again), "createFromName not deterministic for identical inputs")
	other := s.NewFromName("conformance-a", g, ScopeOperator)
	r.check(!s.Equal(a, other), "createFromName ignores scope: entity and operator vectors equal")

	// Immutability: operations must not mutate their operands.
	aCopy := s.Clone(a)
	s.Bind(a, b)
	s.Bundle([]*Vector{a, b, c}, nil)
	s.Similarity(a, b)
	r.check(s.Equal(a, aCopy), "algebra operations mutated an operand in place")

	// Serialize round-trip.
	sv, err := s.Serialize(a)
	if err != nil {
		r.check(false, "serialize failed: %v", err)
	} else {
		back, err := s.Deserialize(sv)
		if err != nil {
			r.check(false, "deserialize failed: %v", err)
		} else {
			r.check(s.Equal(a, back), "serialize/deserialize round-trip not equal")
		}
	}

	// Random baseline: mean pairwise similarity of independent draws stays
	// within declared tolerance of the declared baseline.
	samples := make([]*Vector, ConformanceSamples)
	for i := range samples {
		samples[i] = s.NewRandom(g)
	}
	var sum float64
	var n int
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < i+4 && j < len(samples); j++ {
			sum += s.Similarity(samples[i], samples[j])
			n++
		}
	}
	mean := sum / float64(n)
	r.check(math.Abs(mean-p.RandomBaseline) <= p.BaselineTolerance,
		"random similarity baseline %v outside %v ± %v", mean, p.RandomBaseline, p.BaselineTolerance)

	// Bundle retrievability: a small bundle stays more similar to each
	// constituent than the random baseline.
	bundle := s.Bundle([]*Vector{a, b, c}, samples[0])
	for name, v := range map[string]*Vector{"a": a, "b": b, "c": c} {
		sim := s.Similarity(bundle, v)
		r.check(sim > p.RandomBaseline+p.BaselineTolerance,
			"bundle lost constituent %s: similarity %v not above baseline %v", name, sim, p.RandomBaseline)
	}

	return r
}

// CheckRegistry runs CheckConformance for every registered strategy at its
// given geometry and returns the reports keyed by strategy tag.
func CheckRegistry(r *Registry, geometries map[StrategyID]Geometry) []*Report {
	var reports []*Report
	for _, id := range r.IDs() {
		s, err := r.Strategy(id)
		if err != nil {
			continue
		}
		g, ok := geometries[id]
		if !ok {
			continue
		}
		reports = append(reports, CheckConformance(s, g))
	}
	return reports
}
