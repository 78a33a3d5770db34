// Package symbolic wraps the Google Mangle Datalog engine as the exact
// reasoning collaborator of the holographic pipeline: proof validation for
// grounded statements and fallback query answering for symbolic-only
// categories.
package symbolic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"holograph/internal/holo"
	"holograph/internal/kb"
	"holograph/internal/logging"
)

// =============================================================================
// MANGLE-BACKED SYMBOLIC ENGINE
// =============================================================================

// Config bounds program evaluation.
type Config struct {
	EvalTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{EvalTimeout: 10 * time.Second}
}

// Engine renders the KB's facts, the learned rules, and the closure axioms
// implied by operator metadata into one Mangle program, evaluates it to a
// fixpoint, and answers against the resulting fact store. The evaluated
// store is a cache keyed on the (kb, rules, metadata) version triple.
type Engine struct {
	kb    *kb.ComponentKB
	rules *holo.RuleStore
	ops   *holo.OperatorMeta
	cfg   Config

	mu        sync.Mutex
	store     factstore.FactStore
	predIndex map[string]ast.PredicateSym
	kbVer     uint64
	ruleVer   uint64
	opsVer    uint64
}

var (
	_ holo.Prover          = (*Engine)(nil)
	_ holo.SymbolicQuerier = (*Engine)(nil)
)

// NewEngine builds a symbolic engine over the shared KB, rule store and
// operator metadata.
func NewEngine(store *kb.ComponentKB, rules *holo.RuleStore, ops *holo.OperatorMeta, cfg Config) *Engine {
	return &Engine{kb: store, rules: rules, ops: ops, cfg: cfg}
}

// Prove validates a grounded statement: the program is evaluated to fixpoint
// and the statement's atom must be present in the derived store. The depth
// budget bounds the proof-trail reconstruction; wall-clock is bounded by ctx
// and the engine's own evaluation timeout.
func (e *Engine) Prove(ctx context.Context, st holo.Statement, maxDepth int) (*holo.Proof, error) {
	if !st.Grounded() {
		return nil, fmt.Errorf("symbolic: cannot prove non-grounded statement %s", st)
	}
	if maxDepth <= 0 {
		return nil, fmt.Errorf("symbolic: proof depth budget exhausted for %s", st)
	}
	store, predIndex, err := e.evaluated(ctx)
	if err != nil {
		return nil, err
	}

	sym, ok := predIndex[st.Operator]
	if !ok {
		return &holo.Proof{Valid: false}, nil
	}
	args := st.GroundArgs()
	if sym.Arity != len(args) {
		return &holo.Proof{Valid: false}, nil
	}

	found, err := e.scanMatch(ctx, store, sym, args)
	if err != nil {
		return nil, err
	}
	if !found {
		return &holo.Proof{Valid: false}, nil
	}
	return &holo.Proof{Valid: true, Steps: e.proofSteps(st, maxDepth)}, nil
}

// Query answers a statement with holes from the evaluated store. Entries come
// back deterministically ordered by grounding key; the caller ranks and
// truncates.
func (e *Engine) Query(ctx context.Context, st holo.Statement, opts holo.Options) (*holo.Result, error) {
	store, predIndex, err := e.evaluated(ctx)
	if err != nil {
		return nil, err
	}

	sym, ok := predIndex[st.Operator]
	if !ok || sym.Arity != len(st.Args) {
		return &holo.Result{Success: false, Reason: "no facts for operator " + st.Operator}, nil
	}

	knowns := st.Knowns()
	holes := st.HolePositions()

	seen := make(map[string]bool)
	var entries []holo.ResultEntry
	err = e.scan(ctx, store, sym, func(atom ast.Atom) error {
		values := make(map[int]string, len(holes))
		if !atomMatches(atom, knowns, holes, values) {
			return nil
		}
		grounded := st.Ground(values)
		entry := holo.ResultEntry{
			Bindings: make(map[string]holo.Binding, len(holes)),
			Score:    1,
			Method:   holo.MethodSymbolicFallback,
			Steps:    e.proofSteps(grounded, 1),
		}
		for _, hole := range holes {
			entry.Bindings[st.Args[hole].Var] = holo.Binding{
				Answer:     values[hole],
				Similarity: 1,
				Method:     holo.MethodSymbolicFallback,
				Steps:      entry.Steps,
			}
		}
		key := entry.GroundingKey()
		if !seen[key] {
			seen[key] = true
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].GroundingKey() < entries[j].GroundingKey()
	})
	if opts.MaxResults > 0 && len(entries) > opts.MaxResults {
		entries = entries[:opts.MaxResults]
	}
	logging.Symbolic("query %s: %d symbolic answers", st, len(entries))

	result := &holo.Result{Success: len(entries) > 0, AllResults: entries}
	if !result.Success {
		result.Reason = "no symbolic answers"
	} else {
		result.Bindings = entries[0].Bindings
		result.Confidence = entries[0].Score
	}
	return result, nil
}

// =============================================================================
// PROGRAM CONSTRUCTION AND EVALUATION
// =============================================================================

// evaluated returns the fixpoint store, rebuilding when any input version
// moved.
func (e *Engine) evaluated(ctx context.Context) (factstore.FactStore, map[string]ast.PredicateSym, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kbVer, ruleVer, opsVer := e.kb.Version(), e.rules.Version(), e.ops.Version()
	if e.store != nil && kbVer == e.kbVer && ruleVer == e.ruleVer && opsVer == e.opsVer {
		return e.store, e.predIndex, nil
	}

	timer := logging.StartTimer(logging.CategorySymbolic, "evaluate program")
	defer timer.Stop()

	text, skipped := e.programText()
	if skipped > 0 {
		logging.Symbolic("program build skipped %d facts with non-identifier operators", skipped)
	}
	unit, err := parse.Unit(strings.NewReader(text))
	if err != nil {
		return nil, nil, fmt.Errorf("parse program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("analyze program: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()

	evalCtx := ctx
	if e.cfg.EvalTimeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, e.cfg.EvalTimeout)
		defer cancel()
	}
	errChan := make(chan error, 1)
	go func() {
		_, evalErr := mengine.EvalProgramWithStats(programInfo, store)
		errChan <- evalErr
	}()
	select {
	case evalErr := <-errChan:
		if evalErr != nil {
			return nil, nil, fmt.Errorf("evaluate program: %w", evalErr)
		}
	case <-evalCtx.Done():
		return nil, nil, fmt.Errorf("program evaluation timed out: %w", evalCtx.Err())
	}

	predIndex := make(map[string]ast.PredicateSym, len(programInfo.Decls))
	for sym := range programInfo.Decls {
		predIndex[sym.Symbol] = sym
	}

	e.store = store
	e.predIndex = predIndex
	e.kbVer, e.ruleVer, e.opsVer = kbVer, ruleVer, opsVer
	logging.Symbolic("program evaluated: %d predicates, %d facts",
		len(predIndex), store.EstimateFactCount())
	return e.store, e.predIndex, nil
}

// programText renders the full Mangle program: one clause per explicit fact,
// the learned rule sources, a closure rule per transitive operator and an
// isA-propagation rule per inheritable operator.
func (e *Engine) programText() (string, int) {
	var b strings.Builder
	skipped := 0
	for _, f := range e.kb.Facts() {
		if !isIdentifier(f.Operator) {
			skipped++
			continue
		}
		b.WriteString(renderAtom(f.Operator, f.Args))
		b.WriteString(".\n")
	}
	for _, r := range e.rules.Rules() {
		source := strings.TrimSpace(r.Source)
		if source == "" {
			continue
		}
		b.WriteString(source)
		if !strings.HasSuffix(source, ".") {
			b.WriteByte('.')
		}
		b.WriteByte('\n')
	}
	for _, op := range e.ops.TransitiveOperators() {
		if isIdentifier(op) {
			fmt.Fprintf(&b, "%s(X, Z) :- %s(X, Y), %s(Y, Z).\n", op, op, op)
		}
	}
	for _, op := range e.ops.InheritableOperators() {
		if isIdentifier(op) {
			fmt.Fprintf(&b, "%s(X, V) :- isA(X, Y), %s(Y, V).\n", op, op)
		}
	}
	return b.String(), skipped
}

// renderAtom produces Mangle notation for one fact. Arguments beginning with
// "/" pass through as name constants; everything else is a quoted string.
func renderAtom(operator string, args []string) string {
	rendered := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "/") {
			rendered[i] = a
		} else {
			rendered[i] = fmt.Sprintf("%q", a)
		}
	}
	return fmt.Sprintf("%s(%s)", operator, strings.Join(rendered, ", "))
}

// =============================================================================
// STORE SCANNING
// =============================================================================

// scan iterates every derived fact of one predicate, honoring ctx.
func (e *Engine) scan(ctx context.Context, store factstore.FactStore, sym ast.PredicateSym, cb func(ast.Atom) error) error {
	return store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return cb(atom)
	})
}

func (e *Engine) scanMatch(ctx context.Context, store factstore.FactStore, sym ast.PredicateSym, args []string) (bool, error) {
	knowns := make(map[int]string, len(args))
	for i, a := range args {
		knowns[i] = a
	}
	found := false
	err := e.scan(ctx, store, sym, func(atom ast.Atom) error {
		if atomMatches(atom, knowns, nil, nil) {
			found = true
		}
		return nil
	})
	return found, err
}

// atomMatches checks the known slots against the atom and, when it matches,
// fills hole slot values into out.
func atomMatches(atom ast.Atom, knowns map[int]string, holes []int, out map[int]string) bool {
	for slot, want := range knowns {
		if slot >= len(atom.Args) {
			return false
		}
		got, ok := termValue(atom.Args[slot])
		if !ok || got != want {
			return false
		}
	}
	for _, hole := range holes {
		if hole >= len(atom.Args) {
			return false
		}
		value, ok := termValue(atom.Args[hole])
		if !ok {
			return false
		}
		out[hole] = value
	}
	return true
}

func termValue(term ast.BaseTerm) (string, bool) {
	constant, ok := term.(ast.Constant)
	if !ok {
		return "", false
	}
	switch constant.Type {
	case ast.StringType, ast.NameType:
		return constant.Symbol, true
	default:
		return constant.String(), true
	}
}

// =============================================================================
// PROOF TRAILS
// =============================================================================

// proofSteps reconstructs a human-readable trail for a statement known to
// hold. Explicit facts get a one-step trail; derived statements list the
// rules and axioms that can conclude the operator, capped by the depth
// budget, closing with the derived atom itself.
func (e *Engine) proofSteps(st holo.Statement, maxDepth int) []string {
	if fact, ok := e.kb.Exists(st.Operator, st.GroundArgs()); ok {
		return []string{"fact: " + fact.String()}
	}

	var steps []string
	for _, r := range e.rules.Rules() {
		if r.Conclusion != st.Operator {
			continue
		}
		steps = append(steps, fmt.Sprintf("rule %s: %s :- %s", r.Name, r.Conclusion, strings.Join(r.Premises, ", ")))
		if len(steps) >= maxDepth {
			break
		}
	}
	if e.ops.IsTransitive(st.Operator) {
		steps = append(steps, fmt.Sprintf("axiom: transitive closure over %s edges", st.Operator))
	}
	if e.ops.IsInheritable(st.Operator) {
		steps = append(steps, fmt.Sprintf("axiom: %s inherited through isA", st.Operator))
	}
	steps = append(steps, "derived: "+st.String())
	return steps
}

// isIdentifier reports whether s is a valid Mangle predicate identifier:
// [a-z_][a-zA-Z0-9_]*.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !((c >= 'a' && c <= 'z') || c == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
