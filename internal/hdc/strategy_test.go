package hdc

import (
	"testing"
)

func testGeometry(id StrategyID) Geometry {
	switch id {
	case StrategySparse:
		return Geometry{Dimensions: 1 << 16, Density: 32}
	default:
		return Geometry{Dimensions: 4096}
	}
}

func allStrategies(t *testing.T) []Strategy {
	t.Helper()
	registry := DefaultRegistry(7)
	strategies := make([]Strategy, 0, 3)
	for _, id := range registry.IDs() {
		s, err := registry.Strategy(id)
		if err != nil {
			t.Fatalf("registry missing %s: %v", id, err)
		}
		strategies = append(strategies, s)
	}
	return strategies
}

func TestBindAlgebraLaws(t *testing.T) {
	for _, s := range allStrategies(t) {
		t.Run(string(s.ID()), func(t *testing.T) {
			g := testGeometry(s.ID())
			a := s.NewFromName("alpha", g, ScopeEntity)
			b := s.NewFromName("beta", g, ScopeEntity)
			c := s.NewFromName("gamma", g, ScopeEntity)

			if !s.Equal(s.Bind(a, b), s.Bind(b, a)) {
				t.Error("bind is not commutative")
			}
			left := s.Bind(s.Bind(a, b), c)
			right := s.Bind(a, s.Bind(b, c))
			if !s.Equal(left, right) {
				t.Error("bind is not associative")
			}

			recovered := s.Unbind(s.Bind(a, b), b)
			if sim := s.Similarity(recovered, a); sim < s.Profile().RecoveryThreshold {
				t.Errorf("unbind recovery similarity = %.4f, want >= %.4f", sim, s.Profile().RecoveryThreshold)
			}

			// Bind output must be separated from both operands.
			ab := s.Bind(a, b)
			if sim := s.Similarity(ab, a); sim > s.Profile().BindSeparation {
				t.Errorf("bind output too similar to operand: %.4f > %.4f", sim, s.Profile().BindSeparation)
			}
		})
	}
}

func TestSimilarityContract(t *testing.T) {
	for _, s := range allStrategies(t) {
		t.Run(string(s.ID()), func(t *testing.T) {
			g := testGeometry(s.ID())
			a := s.NewRandom(g)
			b := s.NewRandom(g)

			if got := s.Similarity(a, a); got != 1 {
				t.Errorf("Similarity(a, a) = %v, want 1", got)
			}
			if s.Similarity(a, b) != s.Similarity(b, a) {
				t.Error("similarity is not symmetric")
			}
			if sim := s.Similarity(a, b); sim < 0 || sim > 1 {
				t.Errorf("similarity %v out of [0,1]", sim)
			}
			if !IsOrthogonal(s, a, b, -1) {
				t.Errorf("independent random vectors not orthogonal: sim=%.4f baseline=%.4f",
					s.Similarity(a, b), s.Profile().RandomBaseline)
			}
		})
	}
}

func TestNamingDeterminism(t *testing.T) {
	for _, s := range allStrategies(t) {
		t.Run(string(s.ID()), func(t *testing.T) {
			g := testGeometry(s.ID())
			first := s.NewFromName("Paris", g, ScopeEntity)
			second := s.NewFromName("Paris", g, ScopeEntity)
			if !s.Equal(first, second) {
				t.Error("identical (name, geometry, scope) produced different vectors")
			}

			asOperator := s.NewFromName("Paris", g, ScopeOperator)
			if s.Equal(first, asOperator) {
				t.Error("scopes do not isolate namespaces")
			}
			if !IsOrthogonal(s, first, asOperator, -1) {
				t.Error("cross-scope vectors should look unrelated")
			}
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	registry := DefaultRegistry(7)
	for _, s := range allStrategies(t) {
		t.Run(string(s.ID()), func(t *testing.T) {
			g := testGeometry(s.ID())
			original := s.Bind(s.NewFromName("a", g, ScopeEntity), s.NewFromName("b", g, ScopeEntity))

			sv, err := s.Serialize(original)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			if sv.Version != SerializedVersion {
				t.Errorf("serialized version = %d, want %d", sv.Version, SerializedVersion)
			}

			restored, err := registry.Deserialize(sv)
			if err != nil {
				t.Fatalf("deserialize: %v", err)
			}
			if !s.Equal(original, restored) {
				t.Error("round trip changed the vector")
			}
		})
	}
}

func TestOperandMismatchPanics(t *testing.T) {
	registry := DefaultRegistry(7)
	dense, _ := registry.Strategy(StrategyDense)
	bipolar, _ := registry.Strategy(StrategyBipolar)
	g := Geometry{Dimensions: 4096}

	t.Run("strategy mismatch", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on cross-strategy bind")
			}
		}()
		dense.Bind(dense.NewRandom(g), bipolar.NewRandom(g))
	})

	t.Run("geometry mismatch", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on cross-geometry bind")
			}
		}()
		dense.Bind(dense.NewRandom(g), dense.NewRandom(Geometry{Dimensions: 2048}))
	})
}

func TestTopKSimilar(t *testing.T) {
	registry := DefaultRegistry(7)
	s, _ := registry.Strategy(StrategyDense)
	g := testGeometry(StrategyDense)

	vocab := []NamedVector{
		{Name: "berlin", Vector: s.NewFromName("berlin", g, ScopeEntity)},
		{Name: "paris", Vector: s.NewFromName("paris", g, ScopeEntity)},
		{Name: "tokyo", Vector: s.NewFromName("tokyo", g, ScopeEntity)},
	}
	query := s.NewFromName("paris", g, ScopeEntity)

	matches := TopKSimilar(s, query, vocab, 2)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Name != "paris" || matches[0].Similarity != 1 {
		t.Errorf("best match = %+v, want paris at 1.0", matches[0])
	}
	if matches[1].Similarity > matches[0].Similarity {
		t.Error("matches not sorted by similarity")
	}

	if got := TopKSimilar(s, query, nil, 2); got != nil {
		t.Errorf("empty vocabulary should yield nil, got %v", got)
	}
	if got := TopKSimilar(s, query, vocab, 0); got != nil {
		t.Errorf("k=0 should yield nil, got %v", got)
	}
}

func TestRegistryUnknownStrategy(t *testing.T) {
	registry := DefaultRegistry(7)
	if _, err := registry.Strategy("fourier"); err == nil {
		t.Error("expected error for unknown strategy")
	}

	ids := registry.IDs()
	want := []StrategyID{StrategyBipolar, StrategyDense, StrategySparse}
	if len(ids) != len(want) {
		t.Fatalf("got %d strategies, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestBindAllFoldsLeftToRight(t *testing.T) {
	registry := DefaultRegistry(7)
	s, _ := registry.Strategy(StrategyDense)
	g := testGeometry(StrategyDense)

	a := s.NewFromName("a", g, ScopeEntity)
	b := s.NewFromName("b", g, ScopeEntity)
	c := s.NewFromName("c", g, ScopeEntity)

	manual := s.Bind(s.Bind(a, b), c)
	if !s.Equal(BindAll(s, a, b, c), manual) {
		t.Error("BindAll disagrees with manual fold")
	}
	if !s.Equal(BindAll(s, a), a) {
		t.Error("BindAll of one vector should be that vector")
	}
}
