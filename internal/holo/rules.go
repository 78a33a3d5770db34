package holo

import (
	"sort"
	"sync"
)

// =============================================================================
// RULE STORE AND OPERATOR METADATA
// =============================================================================

// Rule is one learned inference rule. Conclusion is the head operator;
// Premises are the body operators; Source carries the rule text handed to
// the symbolic engine.
type Rule struct {
	Name       string
	Conclusion string
	Premises   []string
	Source     string
}

// RuleStore owns the learned rules. Every mutation bumps the version
// counter; the classifier's conclusion-operator cache keys off it, so the
// cache is never silently stale and never recomputed per call.
type RuleStore struct {
	mu      sync.RWMutex
	rules   []Rule
	version uint64
}

// NewRuleStore returns an empty rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

// Add registers a rule.
func (rs *RuleStore) Add(rule Rule) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.rules = append(rs.rules, rule)
	rs.version++
}

// Rules returns a snapshot of all rules.
func (rs *RuleStore) Rules() []Rule {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]Rule(nil), rs.rules...)
}

// Version is the monotonic mutation counter.
func (rs *RuleStore) Version() uint64 {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.version
}

// ConclusionOperators returns the set of operators concluded by at least one
// rule. Callers cache the result against Version.
func (rs *RuleStore) ConclusionOperators() map[string]bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	ops := make(map[string]bool, len(rs.rules))
	for _, r := range rs.rules {
		ops[r.Conclusion] = true
	}
	return ops
}

// OperatorMeta is the static operator metadata the classifier reads:
// non-factual meta operators, quantifiers, transitive-closure operators,
// graph-wrapped operators, inheritable properties and derived-membership
// relations. Graph registrations are versioned separately because only the
// graph set participates in the classifier cache alongside rules.
type OperatorMeta struct {
	mu           sync.RWMutex
	meta         map[string]bool
	quantifier   map[string]bool
	transitive   map[string]bool
	graph        map[string]bool
	inheritable  map[string]bool
	membership   map[string]bool
	assignment   map[string]bool
	graphVersion uint64
	version      uint64
}

// builtinMeta is the always-registered non-factual operator set. Every
// OperatorMeta starts with it, so persistence layers store only the marks
// made on top of it.
var builtinMeta = map[string]bool{
	"explain":      true,
	"why":          true,
	"provable":     true,
	"searchPlan":   true,
	"verifyPlan":   true,
	"extractTuple": true,
	"tupleOf":      true,
}

// NewOperatorMeta returns operator metadata preloaded with the built-in
// non-factual operator sets.
func NewOperatorMeta() *OperatorMeta {
	meta := make(map[string]bool, len(builtinMeta))
	for op := range builtinMeta {
		meta[op] = true
	}
	return &OperatorMeta{
		meta: meta,
		quantifier: map[string]bool{
			"exists": true,
			"forall": true,
		},
		transitive:  make(map[string]bool),
		graph:       make(map[string]bool),
		inheritable: make(map[string]bool),
		membership: map[string]bool{
			"isA":      true,
			"memberOf": true,
		},
		assignment: map[string]bool{
			"hasValue":  true,
			"attribute": true,
		},
	}
}

// MarkTransitive declares an operator's truth as the transitive closure over
// explicit edges. Unbind can only ever recover explicit bound facts, so
// these operators route to the symbolic engine.
func (om *OperatorMeta) MarkTransitive(op string) {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.transitive[op] = true
	om.version++
}

// MarkGraph declares an operator as wrapped in a structural graph encoding
// (a record nested inside another bind). Flat unbind does not apply.
func (om *OperatorMeta) MarkGraph(op string) {
	om.mu.Lock()
	defer om.mu.Unlock()
	if !om.graph[op] {
		om.graph[op] = true
		om.graphVersion++
		om.version++
	}
}

// MarkInheritable declares an operator an inheritable property: answers may
// be derived through a hierarchy rather than explicitly bound.
func (om *OperatorMeta) MarkInheritable(op string) {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.inheritable[op] = true
	om.version++
}

// MarkMeta declares an operator inherently non-factual.
func (om *OperatorMeta) MarkMeta(op string) {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.meta[op] = true
	om.version++
}

func (om *OperatorMeta) IsMeta(op string) bool {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.meta[op]
}

func (om *OperatorMeta) IsQuantifier(op string) bool {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.quantifier[op]
}

func (om *OperatorMeta) IsTransitive(op string) bool {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.transitive[op]
}

func (om *OperatorMeta) IsInheritable(op string) bool {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.inheritable[op]
}

func (om *OperatorMeta) IsMembership(op string) bool {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.membership[op]
}

func (om *OperatorMeta) IsAssignment(op string) bool {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.assignment[op]
}

// Version is the monotonic counter of all metadata mutations. The symbolic
// program cache keys off it.
func (om *OperatorMeta) Version() uint64 {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.version
}

// GraphVersion is the monotonic counter of graph-operator registrations.
func (om *OperatorMeta) GraphVersion() uint64 {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return om.graphVersion
}

// GraphOperators snapshots the graph-wrapped operator set.
func (om *OperatorMeta) GraphOperators() map[string]bool {
	om.mu.RLock()
	defer om.mu.RUnlock()
	out := make(map[string]bool, len(om.graph))
	for op := range om.graph {
		out[op] = true
	}
	return out
}

// TransitiveOperators lists marked transitive operators, sorted.
func (om *OperatorMeta) TransitiveOperators() []string {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return sortedKeys(om.transitive)
}

// InheritableOperators lists marked inheritable operators, sorted.
func (om *OperatorMeta) InheritableOperators() []string {
	om.mu.RLock()
	defer om.mu.RUnlock()
	return sortedKeys(om.inheritable)
}

// MetaOperators lists operators marked meta beyond the built-in set, sorted.
// The built-ins are excluded because every OperatorMeta already carries them;
// only the session's own marks need persisting and replaying.
func (om *OperatorMeta) MetaOperators() []string {
	om.mu.RLock()
	defer om.mu.RUnlock()
	marked := make(map[string]bool, len(om.meta))
	for op := range om.meta {
		if !builtinMeta[op] {
			marked[op] = true
		}
	}
	return sortedKeys(marked)
}

func sortedKeys(set map[string]bool) []string {
	ops := make([]string, 0, len(set))
	for op := range set {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
