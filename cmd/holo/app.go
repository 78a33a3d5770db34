package main

import (
	"context"
	"fmt"
	"hash/fnv"

	"holograph/internal/hdc"
	"holograph/internal/holo"
	"holograph/internal/kb"
	"holograph/internal/store"
	"holograph/internal/symbolic"
)

// app wires one session's state: the KB, rule store and operator metadata
// hydrated from SQLite, plus the query and symbolic engines over them.
type app struct {
	store    *store.Store
	kb       *kb.ComponentKB
	rules    *holo.RuleStore
	ops      *holo.OperatorMeta
	sym      *symbolic.Engine
	engine   *holo.Engine
	strategy hdc.Strategy
	geometry hdc.Geometry
}

// openApp loads the named session and builds the engine stack. A missing
// session starts empty; a session saved under a different strategy or
// geometry is rejected rather than silently re-encoded into nonsense.
func openApp(ctx context.Context) (*app, error) {
	registry := hdc.DefaultRegistry(seedFromString(cfg.HDC.Seed))
	strategy, err := registry.Strategy(hdc.StrategyID(cfg.HDC.Strategy))
	if err != nil {
		return nil, err
	}
	geometry := hdc.Geometry{Dimensions: cfg.HDC.Dimensions, Density: cfg.HDC.Density}

	db, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return nil, err
	}

	a := &app{
		store:    db,
		kb:       kb.New(strategy, geometry),
		rules:    holo.NewRuleStore(),
		ops:      holo.NewOperatorMeta(),
		strategy: strategy,
		geometry: geometry,
	}

	if state, loadErr := db.LoadSession(ctx, sessionName); loadErr == nil {
		if state.Session.Strategy != string(strategy.ID()) || state.Session.Dimensions != geometry.Dimensions {
			db.Close()
			return nil, fmt.Errorf("session %q was saved with strategy %s/%d dims, config wants %s/%d",
				sessionName, state.Session.Strategy, state.Session.Dimensions, strategy.ID(), geometry.Dimensions)
		}
		if err := a.hydrate(state); err != nil {
			db.Close()
			return nil, err
		}
	}

	a.sym = symbolic.NewEngine(a.kb, a.rules, a.ops, symbolic.Config{EvalTimeout: cfg.GetEvalTimeout()})
	a.engine = holo.NewEngine(a.kb, a.rules, a.ops, a.sym, a.sym, engineConfig())
	return a, nil
}

func (a *app) hydrate(state *store.SessionState) error {
	for _, f := range state.Facts {
		if _, err := a.kb.Restore(f.ID, f.Operator, f.Args, f.Source, f.Proof); err != nil {
			return fmt.Errorf("restore session %q: %w", sessionName, err)
		}
	}
	for _, r := range state.Rules {
		a.rules.Add(holo.Rule{Name: r.Name, Conclusion: r.Conclusion, Premises: r.Premises, Source: r.Source})
	}
	for _, m := range state.Meta {
		switch m.Kind {
		case "transitive":
			a.ops.MarkTransitive(m.Operator)
		case "graph":
			a.ops.MarkGraph(m.Operator)
		case "inheritable":
			a.ops.MarkInheritable(m.Operator)
		case "meta":
			a.ops.MarkMeta(m.Operator)
		}
	}
	return nil
}

// save persists the current session state.
func (a *app) save(ctx context.Context) error {
	facts := make([]store.FactRecord, 0, a.kb.Size())
	for _, f := range a.kb.Facts() {
		facts = append(facts, store.FactRecord{
			ID:       f.ID,
			Operator: f.Operator,
			Args:     f.Args,
			Source:   f.Source,
			Proof:    f.Proof,
		})
	}
	rules := make([]store.RuleRecord, 0)
	for _, r := range a.rules.Rules() {
		rules = append(rules, store.RuleRecord{Name: r.Name, Conclusion: r.Conclusion, Premises: r.Premises, Source: r.Source})
	}
	var meta []store.MetaRecord
	for _, op := range a.ops.TransitiveOperators() {
		meta = append(meta, store.MetaRecord{Operator: op, Kind: "transitive"})
	}
	for op := range a.ops.GraphOperators() {
		meta = append(meta, store.MetaRecord{Operator: op, Kind: "graph"})
	}
	for _, op := range a.ops.InheritableOperators() {
		meta = append(meta, store.MetaRecord{Operator: op, Kind: "inheritable"})
	}
	for _, op := range a.ops.MetaOperators() {
		meta = append(meta, store.MetaRecord{Operator: op, Kind: "meta"})
	}

	return a.store.SaveSession(ctx, store.Session{
		Name:       sessionName,
		Strategy:   string(a.strategy.ID()),
		Dimensions: a.geometry.Dimensions,
		Density:    a.geometry.Density,
	}, facts, rules, meta)
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func engineConfig() holo.EngineConfig {
	ecfg := holo.DefaultEngineConfig()
	ecfg.MaxHoles = cfg.Query.MaxHoles
	ecfg.Generator.MaxCandidatesPerHole = cfg.Query.MaxCandidatesPerHole
	ecfg.Generator.TopNPerHole = cfg.Query.TopNPerHole
	ecfg.Generator.MaxCombinations = cfg.Query.MaxCombinations
	ecfg.Generator.MinSimilarityMargin = cfg.Query.MinSimilarityMargin
	ecfg.Validator.MaxDepth = cfg.Symbolic.MaxDepth
	ecfg.Validator.ProofTimeout = cfg.GetProofTimeout()
	ecfg.Validator.StrictProofs = cfg.Symbolic.StrictProofs
	ecfg.Policy = holo.SupplementPolicy(cfg.Query.SupplementPolicy)
	ecfg.AmbiguityGap = cfg.Query.AmbiguityGap
	ecfg.DefaultMaxResults = cfg.Query.MaxResults
	return ecfg
}

// seedFromString folds the configured seed namespace into the registry seed.
func seedFromString(s string) uint64 {
	if s == "" {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
