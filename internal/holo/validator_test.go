package holo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holograph/internal/hdc"
	"holograph/internal/kb"
)

// stubProver answers from a fixed table and records invocations.
type stubProver struct {
	proofs map[string]*Proof
	err    error
	calls  int
}

func (p *stubProver) Prove(ctx context.Context, st Statement, maxDepth int) (*Proof, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if proof, ok := p.proofs[st.String()]; ok {
		return proof, nil
	}
	return &Proof{Valid: false}, nil
}

func newTestKB(t *testing.T) *kb.ComponentKB {
	t.Helper()
	s, err := hdc.DefaultRegistry(7).Strategy(hdc.StrategyDense)
	require.NoError(t, err)
	return kb.New(s, hdc.Geometry{Dimensions: 2048})
}

func grounded(operator string, args ...string) Statement {
	st := Statement{Operator: operator}
	for _, a := range args {
		st.Args = append(st.Args, Known(a))
	}
	return st
}

func TestValidateExactFactSkipsProver(t *testing.T) {
	store := newTestKB(t)
	store.Assert("capitalOf", "Paris", "France")
	prover := &stubProver{}
	v := NewValidator(store, prover, DefaultValidatorConfig())

	steps, method, ok := v.Validate(context.Background(), grounded("capitalOf", "Paris", "France"))
	require.True(t, ok)
	assert.Equal(t, MethodIndexExact, method)
	assert.Equal(t, []string{"fact: capitalOf(Paris, France)"}, steps)
	assert.Zero(t, prover.calls, "explicit facts must not reach the prover")
}

func TestValidateDelegatesToProver(t *testing.T) {
	store := newTestKB(t)
	st := grounded("grandparentOf", "alice", "carol")
	prover := &stubProver{proofs: map[string]*Proof{
		st.String(): {Valid: true, Steps: []string{"fact: parentOf(alice, bob)", "fact: parentOf(bob, carol)", "rule gp: grandparentOf(alice, carol)"}},
	}}
	v := NewValidator(store, prover, DefaultValidatorConfig())

	steps, method, ok := v.Validate(context.Background(), st)
	require.True(t, ok)
	assert.Equal(t, MethodSymbolicProof, method)
	assert.Len(t, steps, 3)
	assert.Equal(t, 1, prover.calls)
}

func TestValidateProverFailureDropsCandidate(t *testing.T) {
	store := newTestKB(t)
	st := grounded("grandparentOf", "alice", "nobody")

	t.Run("invalid proof", func(t *testing.T) {
		v := NewValidator(store, &stubProver{}, DefaultValidatorConfig())
		_, _, ok := v.Validate(context.Background(), st)
		assert.False(t, ok)
	})

	t.Run("prover error", func(t *testing.T) {
		v := NewValidator(store, &stubProver{err: errors.New("boom")}, DefaultValidatorConfig())
		_, _, ok := v.Validate(context.Background(), st)
		assert.False(t, ok, "a prover error is an unproven candidate, never a query failure")
	})

	t.Run("nil prover", func(t *testing.T) {
		v := NewValidator(store, nil, DefaultValidatorConfig())
		_, _, ok := v.Validate(context.Background(), st)
		assert.False(t, ok)
	})
}

func TestValidateStrictProofs(t *testing.T) {
	store := newTestKB(t)
	st := grounded("grandparentOf", "alice", "carol")
	cfg := DefaultValidatorConfig()
	cfg.StrictProofs = true

	t.Run("rejects proof without steps", func(t *testing.T) {
		prover := &stubProver{proofs: map[string]*Proof{st.String(): {Valid: true}}}
		v := NewValidator(store, prover, cfg)
		_, _, ok := v.Validate(context.Background(), st)
		assert.False(t, ok)
	})

	t.Run("accepts structurally sound proof", func(t *testing.T) {
		prover := &stubProver{proofs: map[string]*Proof{
			st.String(): {Valid: true, Steps: []string{"derived: grandparentOf(alice, carol)"}},
		}}
		v := NewValidator(store, prover, cfg)
		_, method, ok := v.Validate(context.Background(), st)
		require.True(t, ok)
		assert.Equal(t, MethodSymbolicProof, method)
	})
}

func TestCheckProofObject(t *testing.T) {
	st := grounded("flies", "sparrow")
	cases := []struct {
		name  string
		proof *Proof
		want  bool
	}{
		{"nil proof", nil, false},
		{"no steps", &Proof{Valid: true}, false},
		{"blank step", &Proof{Valid: true, Steps: []string{"fact: x", "   "}}, false},
		{"conclusion missing operator", &Proof{Valid: true, Steps: []string{"derived: swims(sparrow)"}}, false},
		{"well formed", &Proof{Valid: true, Steps: []string{"fact: isA(sparrow, bird)", "derived: flies(sparrow)"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckProofObject(st, tc.proof))
		})
	}
}
