package holo

import (
	"context"
	"fmt"

	"holograph/internal/kb"
	"holograph/internal/logging"
)

// =============================================================================
// QUERY ENGINE
// =============================================================================

// EngineConfig bounds and wires the pipeline.
type EngineConfig struct {
	MaxHoles  int
	Generator GeneratorConfig
	Validator ValidatorConfig
	Policy    SupplementPolicy
	// AmbiguityGap: when the two best entries score within this gap, the
	// result is flagged ambiguous.
	AmbiguityGap      float64
	DefaultMaxResults int
}

// DefaultEngineConfig returns the standard pipeline bounds.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxHoles:          3,
		Generator:         DefaultGeneratorConfig(),
		Validator:         DefaultValidatorConfig(),
		Policy:            SupplementOnEmpty,
		AmbiguityGap:      0.05,
		DefaultMaxResults: 25,
	}
}

// Engine is the holographic-first query executor. All state it consults
// (KB, vocabulary, rule set) is resident in memory; no query operation
// blocks on external I/O.
type Engine struct {
	kb         *kb.ComponentKB
	classifier *Classifier
	generator  *Generator
	validator  *Validator
	merger     *Merger
	querier    SymbolicQuerier
	cfg        EngineConfig
}

// NewEngine wires the pipeline. prover and querier are the symbolic
// collaborators; either may be nil, degrading to pure index/vector behavior.
func NewEngine(store *kb.ComponentKB, rules *RuleStore, ops *OperatorMeta, prover Prover, querier SymbolicQuerier, cfg EngineConfig) *Engine {
	return &Engine{
		kb:         store,
		classifier: NewClassifier(rules, ops),
		generator:  NewGenerator(store, cfg.Generator),
		validator:  NewValidator(store, prover, cfg.Validator),
		merger:     NewMerger(querier, cfg.Policy),
		querier:    querier,
		cfg:        cfg,
	}
}

// Classifier exposes the engine's classifier for inspection surfaces.
func (e *Engine) Classifier() *Classifier { return e.classifier }

// Execute runs one query statement through the pipeline and returns the
// merged, ranked answer. Structured failures (too many holes, no results)
// come back as values; Execute never panics on query shape.
func (e *Engine) Execute(ctx context.Context, st Statement, opts Options) *Result {
	if opts.MaxResults <= 0 {
		opts.MaxResults = e.cfg.DefaultMaxResults
	}

	holes := st.HolePositions()
	if len(holes) > e.cfg.MaxHoles {
		return &Result{
			Success: false,
			Reason:  fmt.Sprintf("query has %d holes, maximum is %d", len(holes), e.cfg.MaxHoles),
		}
	}

	cls := e.classifier.Classify(st.Operator, holes, st.KnownPositions())
	logging.Query("execute %s: category=%s symbolicOnly=%v unbind=%v fastPath=%v",
		st, cls.Category, cls.SymbolicOnly, cls.UnbindAllowed, cls.FastPathAllowed)

	if len(holes) == 0 {
		return e.executeGrounded(ctx, st)
	}
	if cls.SymbolicOnly {
		return e.executeSymbolicOnly(ctx, st, opts)
	}

	// Exact index fast path: sound only for single-hole non-derived
	// queries, and bypasses vector math entirely.
	if cls.FastPathAllowed && len(holes) == 1 {
		if entries := e.generator.FastPath(st, holes[0]); len(entries) > 0 {
			if opts.MaxResults > 0 && len(entries) > opts.MaxResults {
				entries = entries[:opts.MaxResults]
			}
			return e.finish(entries, nil)
		}
	}

	// Approximate retrieval: per-hole candidates, bounded combination,
	// exact validation.
	perHole := make(map[int][]Candidate, len(holes))
	for _, hole := range holes {
		perHole[hole] = e.generator.HoleCandidates(st, hole, cls)
	}
	groundings := CombineCandidates(holes, perHole, e.cfg.Generator.TopNPerHole, e.cfg.Generator.MaxCombinations)

	var validated []ResultEntry
	for _, grounding := range groundings {
		grounded := st.Ground(grounding.Values)
		steps, method, ok := e.validator.Validate(ctx, grounded)
		if !ok {
			continue
		}
		validated = append(validated, e.entryFor(st, grounding, steps, method))
	}
	logging.Query("%s: %d groundings, %d validated", st, len(groundings), len(validated))

	entries, equivalenceReport := e.merger.Merge(ctx, st, validated, opts)
	return e.finish(entries, equivalenceReport)
}

// executeGrounded handles the zero-hole case: direct lookup, then proof.
func (e *Engine) executeGrounded(ctx context.Context, st Statement) *Result {
	steps, method, ok := e.validator.Validate(ctx, st)
	if !ok {
		return &Result{Success: false, Reason: "statement not provable", Confidence: 0}
	}
	entry := ResultEntry{Bindings: map[string]Binding{}, Score: 1, Method: method, Steps: steps}
	return &Result{
		Success:    true,
		Bindings:   entry.Bindings,
		Confidence: 1,
		AllResults: []ResultEntry{entry},
	}
}

// executeSymbolicOnly delegates the whole query to the symbolic engine; no
// HDC candidates are ever produced for these categories.
func (e *Engine) executeSymbolicOnly(ctx context.Context, st Statement, opts Options) *Result {
	if e.querier == nil {
		return &Result{Success: false, Reason: "query requires the symbolic engine, which is not configured"}
	}
	symbolic, err := e.querier.Query(ctx, st, opts)
	if err != nil {
		return &Result{Success: false, Reason: fmt.Sprintf("symbolic query failed: %v", err)}
	}
	entries := make([]ResultEntry, 0, len(symbolic.AllResults))
	for _, entry := range symbolic.AllResults {
		if entry.Method == "" {
			entry.Method = MethodSymbolicFallback
		}
		entries = append(entries, entry)
	}
	sortEntries(entries)
	if opts.MaxResults > 0 && len(entries) > opts.MaxResults {
		entries = entries[:opts.MaxResults]
	}
	return e.finish(entries, nil)
}

func (e *Engine) entryFor(st Statement, grounding Grounding, steps []string, method Method) ResultEntry {
	bindings := make(map[string]Binding, len(grounding.Values))
	for slot, value := range grounding.Values {
		bindings[st.Args[slot].Var] = Binding{
			Answer:     value,
			Similarity: grounding.Score,
			Method:     grounding.Methods[slot],
			Steps:      steps,
		}
	}
	score := grounding.Score
	if method == MethodSymbolicProof {
		// A validated proof outranks the approximate similarity estimate.
		score = 1
	}
	return ResultEntry{Bindings: bindings, Score: score, Method: method, Steps: steps}
}

// finish assembles the Result envelope from the ranked entries.
func (e *Engine) finish(entries []ResultEntry, equivalenceReport *EquivalenceReport) *Result {
	if len(entries) == 0 {
		return &Result{Success: false, Reason: "no results", Equivalence: equivalenceReport}
	}
	best := entries[0]
	ambiguous := len(entries) > 1 && best.Score-entries[1].Score < e.cfg.AmbiguityGap
	return &Result{
		Success:     true,
		Bindings:    best.Bindings,
		Confidence:  best.Score,
		Ambiguous:   ambiguous,
		AllResults:  entries,
		Equivalence: equivalenceReport,
	}
}
