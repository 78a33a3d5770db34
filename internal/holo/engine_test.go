package holo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteFastPathExactFact(t *testing.T) {
	store := newTestKB(t)
	store.Assert("capitalOf", "Paris", "France")
	store.Assert("capitalOf", "Berlin", "Germany")
	store.Assert("capitalOf", "Madrid", "Spain")
	engine := NewEngine(store, NewRuleStore(), NewOperatorMeta(), nil, nil, DefaultEngineConfig())

	st := Statement{Operator: "capitalOf", Args: []Term{Hole("X"), Known("France")}}
	result := engine.Execute(context.Background(), st, Options{})

	require.True(t, result.Success)
	assert.Equal(t, 1.0, result.Confidence)
	assert.False(t, result.Ambiguous)
	require.Len(t, result.AllResults, 1)

	binding := result.Bindings["X"]
	assert.Equal(t, "Paris", binding.Answer)
	assert.Equal(t, MethodIndexExact, binding.Method)
	assert.Equal(t, []string{"fact: capitalOf(Paris, France)"}, binding.Steps)
}

func TestExecuteGroundedStatement(t *testing.T) {
	store := newTestKB(t)
	store.Assert("capitalOf", "Paris", "France")
	engine := NewEngine(store, NewRuleStore(), NewOperatorMeta(), nil, nil, DefaultEngineConfig())

	t.Run("holds", func(t *testing.T) {
		result := engine.Execute(context.Background(), grounded("capitalOf", "Paris", "France"), Options{})
		require.True(t, result.Success)
		assert.Equal(t, 1.0, result.Confidence)
		require.Len(t, result.AllResults, 1)
		assert.Equal(t, MethodIndexExact, result.AllResults[0].Method)
	})

	t.Run("does not hold", func(t *testing.T) {
		result := engine.Execute(context.Background(), grounded("capitalOf", "Berlin", "France"), Options{})
		assert.False(t, result.Success)
		assert.Equal(t, "statement not provable", result.Reason)
	})
}

func TestExecuteTooManyHoles(t *testing.T) {
	store := newTestKB(t)
	engine := NewEngine(store, NewRuleStore(), NewOperatorMeta(), nil, nil, DefaultEngineConfig())

	st := Statement{Operator: "related", Args: []Term{Hole("A"), Hole("B"), Hole("C"), Hole("D")}}
	result := engine.Execute(context.Background(), st, Options{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "maximum is 3")
	assert.Empty(t, result.AllResults)
}

func TestExecuteSymbolicOnlyDelegation(t *testing.T) {
	store := newTestKB(t)
	store.Assert("ancestorOf", "alice", "bob")
	store.Assert("ancestorOf", "bob", "carol")
	ops := NewOperatorMeta()
	ops.MarkTransitive("ancestorOf")

	querier := &stubQuerier{result: &Result{
		Success: true,
		AllResults: []ResultEntry{
			entry("X", "bob", 1, MethodSymbolicFallback, "fact: ancestorOf(alice, bob)"),
			entry("X", "carol", 1, MethodSymbolicFallback, "derived: ancestorOf(alice, carol)"),
		},
	}}
	engine := NewEngine(store, NewRuleStore(), ops, nil, querier, DefaultEngineConfig())

	st := Statement{Operator: "ancestorOf", Args: []Term{Known("alice"), Hole("X")}}
	result := engine.Execute(context.Background(), st, Options{})

	require.True(t, result.Success)
	assert.Equal(t, 1, querier.calls)
	assert.Len(t, result.AllResults, 2)

	answers := map[string]bool{}
	for _, e := range result.AllResults {
		answers[e.Bindings["X"].Answer] = true
	}
	// The derived closure answer is present even though no explicit fact
	// carries it; flat unbind could never produce it.
	assert.True(t, answers["carol"])
	assert.True(t, answers["bob"])
}

func TestExecuteSymbolicOnlyWithoutQuerier(t *testing.T) {
	store := newTestKB(t)
	ops := NewOperatorMeta()
	ops.MarkTransitive("ancestorOf")
	engine := NewEngine(store, NewRuleStore(), ops, nil, nil, DefaultEngineConfig())

	st := Statement{Operator: "ancestorOf", Args: []Term{Known("alice"), Hole("X")}}
	result := engine.Execute(context.Background(), st, Options{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Reason, "symbolic engine")
}

func TestExecuteMultiHoleValidation(t *testing.T) {
	store := newTestKB(t)
	store.Assert("livesIn", "alice", "paris")
	store.Assert("livesIn", "bob", "berlin")
	engine := NewEngine(store, NewRuleStore(), NewOperatorMeta(), nil, nil, DefaultEngineConfig())

	st := Statement{Operator: "livesIn", Args: []Term{Hole("Who"), Hole("Where")}}
	result := engine.Execute(context.Background(), st, Options{})

	require.True(t, result.Success)
	// Four cartesian combinations, two survive exact validation.
	require.Len(t, result.AllResults, 2)

	for _, e := range result.AllResults {
		who, where := e.Bindings["Who"].Answer, e.Bindings["Where"].Answer
		valid := (who == "alice" && where == "paris") || (who == "bob" && where == "berlin")
		assert.True(t, valid, "cross combination %s/%s survived validation", who, where)
	}
}

func TestExecuteDerivedSkipsFastPath(t *testing.T) {
	store := newTestKB(t)
	store.Assert("flies", "sparrow")
	store.Assert("isA", "tweety", "sparrow")
	rules := NewRuleStore()
	ops := NewOperatorMeta()
	ops.MarkInheritable("flies")

	// The prover accepts both the explicit and the inherited grounding.
	prover := &stubProver{proofs: map[string]*Proof{
		"flies(tweety)": {Valid: true, Steps: []string{"fact: isA(tweety, sparrow)", "derived: flies(tweety)"}},
	}}
	engine := NewEngine(store, rules, ops, prover, nil, DefaultEngineConfig())

	t.Run("explicit grounding validates from the index", func(t *testing.T) {
		st := Statement{Operator: "flies", Args: []Term{Hole("X")}}
		result := engine.Execute(context.Background(), st, Options{})
		require.True(t, result.Success)
		assert.Equal(t, "sparrow", result.Bindings["X"].Answer)
	})

	t.Run("inherited grounding needs a proof", func(t *testing.T) {
		result := engine.Execute(context.Background(), grounded("flies", "tweety"), Options{})
		require.True(t, result.Success)
		assert.Equal(t, MethodSymbolicProof, result.AllResults[0].Method)
	})
}

func TestExecuteNoResults(t *testing.T) {
	store := newTestKB(t)
	store.Assert("capitalOf", "Paris", "France")
	engine := NewEngine(store, NewRuleStore(), NewOperatorMeta(), nil, nil, DefaultEngineConfig())

	st := Statement{Operator: "capitalOf", Args: []Term{Hole("X"), Known("Atlantis")}}
	result := engine.Execute(context.Background(), st, Options{})
	assert.False(t, result.Success)
	assert.Equal(t, "no results", result.Reason)
}

func TestExecuteRespectsMaxResults(t *testing.T) {
	store := newTestKB(t)
	store.Assert("memberOf", "a", "club")
	store.Assert("memberOf", "b", "club")
	store.Assert("memberOf", "c", "club")
	engine := NewEngine(store, NewRuleStore(), NewOperatorMeta(), nil, nil, DefaultEngineConfig())

	// memberOf is derived (membership), so this exercises the candidate
	// pipeline rather than the fast path.
	st := Statement{Operator: "memberOf", Args: []Term{Hole("X"), Known("club")}}
	result := engine.Execute(context.Background(), st, Options{MaxResults: 2})
	require.True(t, result.Success)
	assert.Len(t, result.AllResults, 2)
}
