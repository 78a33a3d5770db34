// Package holo implements the holographic-first query execution pipeline:
// classification, approximate candidate retrieval over the HDC knowledge
// base, bounded combination, exact symbolic validation, and merging with the
// authoritative symbolic result set.
//
// Execution is single-threaded and run-to-completion per query. Engine-local
// caches are invalidated by monotonic version counters; the only
// cancellation mechanism is the per-candidate proof budget.
package holo

import (
	"context"
	"sort"
	"strings"
)

// Term is one argument of a statement: either a known value or a hole (an
// unbound query variable).
type Term struct {
	Value string // known value, empty for holes
	Var   string // variable name, set for holes
	Hole  bool
}

// Known builds a bound argument term.
func Known(value string) Term { return Term{Value: value} }

// Hole builds an unbound argument term with a variable name.
func Hole(name string) Term { return Term{Var: name, Hole: true} }

// Statement is an operator applied to an ordered argument list. A query
// statement has zero or more holes; zero holes means direct lookup.
type Statement struct {
	Operator string
	Args     []Term
}

func (st Statement) String() string {
	var b strings.Builder
	b.WriteString(st.Operator)
	b.WriteByte('(')
	for i, t := range st.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if t.Hole {
			b.WriteByte('?')
			b.WriteString(t.Var)
		} else {
			b.WriteString(t.Value)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// HolePositions lists the argument slots occupied by holes, in order.
func (st Statement) HolePositions() []int {
	var holes []int
	for i, t := range st.Args {
		if t.Hole {
			holes = append(holes, i)
		}
	}
	return holes
}

// KnownPositions lists the bound argument slots, in order.
func (st Statement) KnownPositions() []int {
	var knowns []int
	for i, t := range st.Args {
		if !t.Hole {
			knowns = append(knowns, i)
		}
	}
	return knowns
}

// Knowns returns slot -> value for every bound argument.
func (st Statement) Knowns() map[int]string {
	knowns := make(map[int]string)
	for i, t := range st.Args {
		if !t.Hole {
			knowns[i] = t.Value
		}
	}
	return knowns
}

// Grounded reports whether the statement has no holes.
func (st Statement) Grounded() bool {
	for _, t := range st.Args {
		if t.Hole {
			return false
		}
	}
	return true
}

// GroundArgs returns the argument values of a grounded statement.
func (st Statement) GroundArgs() []string {
	args := make([]string, len(st.Args))
	for i, t := range st.Args {
		args[i] = t.Value
	}
	return args
}

// Ground substitutes hole fillers by slot and returns the grounded
// statement. Slots absent from values keep their holes.
func (st Statement) Ground(values map[int]string) Statement {
	out := Statement{Operator: st.Operator, Args: make([]Term, len(st.Args))}
	copy(out.Args, st.Args)
	for slot, value := range values {
		if slot >= 0 && slot < len(out.Args) {
			out.Args[slot] = Term{Value: value}
		}
	}
	return out
}

// =============================================================================
// RETRIEVAL METHODS AND PRIORITIES
// =============================================================================

// Method tags how an answer (or candidate) was obtained.
type Method string

const (
	MethodIndexExact       Method = "index_exact"        // exact index fast path
	MethodSymbolicProof    Method = "symbolic_proof"     // validated by the proof engine
	MethodSymbolicFallback Method = "symbolic_fallback"  // supplemented by symbolic query
	MethodHDCDecode        Method = "hdc_decode"         // vector unbind over a bounded domain
	MethodHDCVocabulary    Method = "hdc_vocabulary"     // vector unbind over the full vocabulary
)

// methodPriority is the fixed ordering table used by the result merger.
func methodPriority(m Method) int {
	switch m {
	case MethodIndexExact:
		return 4
	case MethodSymbolicProof:
		return 3
	case MethodSymbolicFallback:
		return 2
	case MethodHDCDecode:
		return 1
	case MethodHDCVocabulary:
		return 0
	default:
		return -1
	}
}

// Candidate is a proposed filler for one hole.
type Candidate struct {
	Name       string
	Similarity float64 // confidence in [0,1]
	Witnesses  int     // index support, 0 when purely vector-derived
	Method     Method
}

// Binding is one resolved hole in a result.
type Binding struct {
	Answer     string   `json:"answer"`
	Similarity float64  `json:"similarity"`
	Method     Method   `json:"method"`
	Steps      []string `json:"steps,omitempty"`
}

// ResultEntry is one complete grounding with its score and proof trail.
type ResultEntry struct {
	Bindings map[string]Binding `json:"bindings"`
	Score    float64            `json:"score"`
	Method   Method             `json:"method"`
	Steps    []string           `json:"steps,omitempty"`
}

// GroundingKey identifies the entry's answer tuple independent of method or
// score, for deduplication and the equivalence metric.
func (e ResultEntry) GroundingKey() string {
	names := make([]string, 0, len(e.Bindings))
	for name := range e.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(e.Bindings[name].Answer)
	}
	return b.String()
}

// Result is the engine's answer shape.
type Result struct {
	Success     bool               `json:"success"`
	Reason      string             `json:"reason,omitempty"`
	Bindings    map[string]Binding `json:"bindings,omitempty"`
	Confidence  float64            `json:"confidence"`
	Ambiguous   bool               `json:"ambiguous"`
	AllResults  []ResultEntry      `json:"all_results,omitempty"`
	Equivalence *EquivalenceReport `json:"equivalence,omitempty"`
}

// EquivalenceReport records whether the HDC-validated grounding-key set
// matched the symbolic one. Observability only, never correctness-gating.
type EquivalenceReport struct {
	HDCKeys      []string `json:"hdc_keys"`
	SymbolicKeys []string `json:"symbolic_keys"`
	Equal        bool     `json:"equal"`
}

// Options are per-query execution options.
type Options struct {
	MaxResults int
}

// =============================================================================
// EXTERNAL COLLABORATORS
// =============================================================================

// Proof is the symbolic engine's answer for a grounded statement.
type Proof struct {
	Valid bool
	Steps []string
}

// Prover is the symbolic proof collaborator: backward-chaining validation of
// a grounded statement under a depth budget. The caller bounds wall-clock
// time through ctx.
type Prover interface {
	Prove(ctx context.Context, st Statement, maxDepth int) (*Proof, error)
}

// SymbolicQuerier is the symbolic fallback query collaborator, answering
// statements with holes in the engine's own result shape.
type SymbolicQuerier interface {
	Query(ctx context.Context, st Statement, opts Options) (*Result, error)
}
