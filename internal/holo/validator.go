package holo

import (
	"context"
	"strings"
	"time"

	"holograph/internal/kb"
	"holograph/internal/logging"
)

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidatorConfig bounds proof delegation. Exceeding the budget aborts that
// one candidate's validation - treated as not proven - never the query.
type ValidatorConfig struct {
	MaxDepth     int
	ProofTimeout time.Duration
	// StrictProofs additionally requires the returned proof object to pass
	// an independent structural validation pass.
	StrictProofs bool
}

// DefaultValidatorConfig returns the standard proof budget.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxDepth:     12,
		ProofTimeout: 2 * time.Second,
	}
}

// Validator confirms that grounded candidate statements are actually true:
// the exact-fact index first (cheap, certain), then delegation to the
// symbolic prover under the configured budget.
type Validator struct {
	kb     *kb.ComponentKB
	prover Prover
	cfg    ValidatorConfig
}

// NewValidator builds a validator. prover may be nil, in which case only
// explicit facts validate.
func NewValidator(store *kb.ComponentKB, prover Prover, cfg ValidatorConfig) *Validator {
	return &Validator{kb: store, prover: prover, cfg: cfg}
}

// Validate checks one grounded statement. A false return simply drops the
// candidate; it is never a fatal condition for the query.
func (v *Validator) Validate(ctx context.Context, st Statement) (steps []string, method Method, ok bool) {
	if fact, found := v.kb.Exists(st.Operator, st.GroundArgs()); found {
		return []string{"fact: " + fact.String()}, MethodIndexExact, true
	}
	if v.prover == nil {
		return nil, "", false
	}

	proofCtx, cancel := context.WithTimeout(ctx, v.cfg.ProofTimeout)
	defer cancel()

	proof, err := v.prover.Prove(proofCtx, st, v.cfg.MaxDepth)
	if err != nil {
		// Timeout or prover failure: the candidate is unproven, not an error.
		logging.Symbolic("proof of %s aborted: %v", st, err)
		return nil, "", false
	}
	if !proof.Valid {
		return nil, "", false
	}
	if v.cfg.StrictProofs && !CheckProofObject(st, proof) {
		logging.Symbolic("proof of %s rejected by strict validation", st)
		return nil, "", false
	}
	return proof.Steps, MethodSymbolicProof, true
}

// CheckProofObject is the independent machine-checkable validation pass used
// in strict mode: the proof must be non-empty, every step well-formed, and
// the conclusion step must mention the statement's operator.
func CheckProofObject(st Statement, proof *Proof) bool {
	if proof == nil || len(proof.Steps) == 0 {
		return false
	}
	for _, step := range proof.Steps {
		if strings.TrimSpace(step) == "" {
			return false
		}
	}
	conclusion := proof.Steps[len(proof.Steps)-1]
	return strings.Contains(conclusion, st.Operator)
}
