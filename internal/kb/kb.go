// Package kb implements ComponentKB, the indexed fact store behind the
// holographic query engine. Facts are exclusively owned by the KB; the
// bundled knowledge-base vector and the vocabulary snapshot are derived,
// recomputable caches invalidated by an explicit version counter.
package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"holograph/internal/hdc"
	"holograph/internal/logging"
)

// Fact is one asserted record: operator, ordered arguments, its encoded
// vector, and side metadata.
type Fact struct {
	ID       string
	Operator string
	Args     []string
	Vector   *hdc.Vector
	Source   string   // "asserted", "session", ...
	Proof    []string // proof annotations carried from ingestion
}

// String renders the fact in operator(arg, ...) form.
func (f *Fact) String() string {
	out := f.Operator + "("
	for i, a := range f.Args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out + ")"
}

// Key is the grounding key: operator plus all arguments, used for exact
// existence checks and result deduplication.
func (f *Fact) Key() string {
	return groundingKey(f.Operator, f.Args)
}

func groundingKey(operator string, args []string) string {
	key := operator
	for _, a := range args {
		key += "\x1f" + a
	}
	return key
}

// ComponentKB holds the asserted facts plus exact indexes by operator and by
// first/second argument. All mutating operations bump Version; the bundle
// and vocabulary caches compare their last-seen version against it and
// rebuild from scratch when stale. Correctness never depends on incremental
// maintenance: a rebuild is always a full re-derivation.
type ComponentKB struct {
	mu       sync.RWMutex
	strategy hdc.Strategy
	geometry hdc.Geometry

	facts      []*Fact
	byKey      map[string]*Fact
	byOperator map[string][]*Fact
	byArg0     map[string][]*Fact
	byArg1     map[string][]*Fact

	version uint64

	bundle        *hdc.Vector
	bundleVersion uint64

	vocab        []hdc.NamedVector
	vocabByName  map[string]*hdc.Vector
	vocabVersion uint64
}

// New creates an empty ComponentKB over the given strategy and geometry.
func New(strategy hdc.Strategy, geometry hdc.Geometry) *ComponentKB {
	return &ComponentKB{
		strategy:   strategy,
		geometry:   geometry,
		byKey:      make(map[string]*Fact),
		byOperator: make(map[string][]*Fact),
		byArg0:     make(map[string][]*Fact),
		byArg1:     make(map[string][]*Fact),
	}
}

// Strategy returns the numeric strategy the KB encodes with.
func (kb *ComponentKB) Strategy() hdc.Strategy { return kb.strategy }

// Geometry returns the vector geometry the KB encodes with.
func (kb *ComponentKB) Geometry() hdc.Geometry { return kb.geometry }

// Assert adds a fact, encoding its record vector. Re-asserting an identical
// grounding is a no-op returning the existing fact.
func (kb *ComponentKB) Assert(operator string, args ...string) *Fact {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	key := groundingKey(operator, args)
	if existing, ok := kb.byKey[key]; ok {
		return existing
	}

	fact := &Fact{
		ID:       uuid.NewString(),
		Operator: operator,
		Args:     append([]string(nil), args...),
		Vector:   EncodeFact(kb.strategy, kb.geometry, operator, args),
		Source:   "asserted",
	}
	kb.insertLocked(fact)
	logging.KB("asserted %s", fact)
	return fact
}

// Restore adds a fact with a pre-built identity and metadata (session load).
// The record vector is always re-derived from the encoding, never trusted
// from storage.
func (kb *ComponentKB) Restore(id, operator string, args []string, source string, proof []string) (*Fact, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	key := groundingKey(operator, args)
	if _, ok := kb.byKey[key]; ok {
		return nil, fmt.Errorf("kb: duplicate fact %s on restore", key)
	}
	if id == "" {
		id = uuid.NewString()
	}
	fact := &Fact{
		ID:       id,
		Operator: operator,
		Args:     append([]string(nil), args...),
		Vector:   EncodeFact(kb.strategy, kb.geometry, operator, args),
		Source:   source,
		Proof:    append([]string(nil), proof...),
	}
	kb.insertLocked(fact)
	return fact, nil
}

func (kb *ComponentKB) insertLocked(fact *Fact) {
	kb.facts = append(kb.facts, fact)
	kb.byKey[fact.Key()] = fact
	kb.byOperator[fact.Operator] = append(kb.byOperator[fact.Operator], fact)
	if len(fact.Args) > 0 {
		kb.byArg0[fact.Args[0]] = append(kb.byArg0[fact.Args[0]], fact)
	}
	if len(fact.Args) > 1 {
		kb.byArg1[fact.Args[1]] = append(kb.byArg1[fact.Args[1]], fact)
	}
	kb.version++
}

// Version is the monotonic mutation counter. Caches key off it.
func (kb *ComponentKB) Version() uint64 {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.version
}

// Size returns the number of asserted facts.
func (kb *ComponentKB) Size() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.facts)
}

// Facts returns a snapshot of all fact records.
func (kb *ComponentKB) Facts() []*Fact {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]*Fact(nil), kb.facts...)
}

// FindByOperator returns every fact with the given operator.
func (kb *ComponentKB) FindByOperator(name string) []*Fact {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]*Fact(nil), kb.byOperator[name]...)
}

// FindByArg0 returns every fact whose first argument equals value.
func (kb *ComponentKB) FindByArg0(value string) []*Fact {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]*Fact(nil), kb.byArg0[value]...)
}

// FindByArg1 returns every fact whose second argument equals value.
func (kb *ComponentKB) FindByArg1(value string) []*Fact {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]*Fact(nil), kb.byArg1[value]...)
}

// Exists is the exact existence check: operator plus full argument equality.
func (kb *ComponentKB) Exists(operator string, args []string) (*Fact, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	fact, ok := kb.byKey[groundingKey(operator, args)]
	return fact, ok
}

// Operators lists distinct operator names in sorted order.
func (kb *ComponentKB) Operators() []string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	ops := make([]string, 0, len(kb.byOperator))
	for op := range kb.byOperator {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// OperatorCounts returns fact counts per operator, for stats surfaces.
func (kb *ComponentKB) OperatorCounts() map[string]int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	counts := make(map[string]int, len(kb.byOperator))
	for op, facts := range kb.byOperator {
		counts[op] = len(facts)
	}
	return counts
}

// BundleVector returns the superposition of every record vector. It is a
// cache rebuilt in full whenever the KB version moved; the fact list is
// always the source of truth.
func (kb *ComponentKB) BundleVector() *hdc.Vector {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if kb.bundle != nil && kb.bundleVersion == kb.version {
		return kb.bundle
	}

	timer := logging.StartTimer(logging.CategoryKB, "rebuild bundle")
	defer timer.Stop()

	if len(kb.facts) == 0 {
		kb.bundle = kb.strategy.NewZero(kb.geometry)
	} else {
		records := make([]*hdc.Vector, len(kb.facts))
		for i, f := range kb.facts {
			records[i] = f.Vector
		}
		tie := kb.strategy.NewFromName("kb-bundle-tiebreak", kb.geometry, hdc.ScopeContext)
		kb.bundle = kb.strategy.Bundle(records, tie)
	}
	kb.bundleVersion = kb.version
	logging.KB("bundle rebuilt over %d records (version %d)", len(kb.facts), kb.version)
	return kb.bundle
}

// Vocabulary returns the named-vector snapshot of every distinct argument
// value, rebuilt when stale. The snapshot is sorted by name so scans and
// top-k ties are deterministic.
func (kb *ComponentKB) Vocabulary() []hdc.NamedVector {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.refreshVocabLocked()
	return kb.vocab
}

// EntityVector resolves one vocabulary term to its vector, if present.
func (kb *ComponentKB) EntityVector(name string) (*hdc.Vector, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.refreshVocabLocked()
	v, ok := kb.vocabByName[name]
	return v, ok
}

func (kb *ComponentKB) refreshVocabLocked() {
	if kb.vocabByName != nil && kb.vocabVersion == kb.version {
		return
	}
	seen := make(map[string]struct{})
	for _, f := range kb.facts {
		for _, arg := range f.Args {
			seen[arg] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	kb.vocab = make([]hdc.NamedVector, len(names))
	kb.vocabByName = make(map[string]*hdc.Vector, len(names))
	for i, name := range names {
		v := hdc.EntityVector(kb.strategy, name, kb.geometry)
		kb.vocab[i] = hdc.NamedVector{Name: name, Vector: v}
		kb.vocabByName[name] = v
	}
	kb.vocabVersion = kb.version
	logging.KB("vocabulary rebuilt: %d terms (version %d)", len(names), kb.version)
}
