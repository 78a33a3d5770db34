package holo

import (
	"sync"

	"holograph/internal/logging"
)

// =============================================================================
// QUERY CLASSIFIER
// =============================================================================

// Category is the classifier's verdict on a query's operator shape.
type Category string

const (
	CategoryMeta           Category = "meta"
	CategoryQuantifier     Category = "quantifier"
	CategoryTransitive     Category = "transitive"
	CategoryDerived        Category = "derived"
	CategoryFact           Category = "fact"
	CategoryAssignmentFact Category = "assignment_fact"
	CategoryGraphFact      Category = "graph_fact"
	CategoryOther          Category = "other"
)

// Classification decides which retrieval paths are sound for a query.
type Classification struct {
	Category        Category
	SymbolicOnly    bool
	UnbindAllowed   bool
	FastPathAllowed bool
}

// Classifier is a pure function over static operator metadata: the
// rule-conclusion set and the graph-operator set are cached snapshots,
// invalidated exactly when the rule version or graph version moved. It
// never inspects vector contents.
type Classifier struct {
	rules *RuleStore
	ops   *OperatorMeta

	mu             sync.Mutex
	cachedRuleVer  uint64
	cachedGraphVer uint64
	conclusionOps  map[string]bool
	graphOps       map[string]bool
	cachePopulated bool
}

// NewClassifier builds a classifier over a rule store and operator metadata.
func NewClassifier(rules *RuleStore, ops *OperatorMeta) *Classifier {
	return &Classifier{rules: rules, ops: ops}
}

func (c *Classifier) snapshots() (map[string]bool, map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ruleVer, graphVer := c.rules.Version(), c.ops.GraphVersion()
	if !c.cachePopulated || ruleVer != c.cachedRuleVer || graphVer != c.cachedGraphVer {
		c.conclusionOps = c.rules.ConclusionOperators()
		c.graphOps = c.ops.GraphOperators()
		c.cachedRuleVer, c.cachedGraphVer = ruleVer, graphVer
		c.cachePopulated = true
		logging.Query("classifier cache refreshed: %d rule conclusions, %d graph operators",
			len(c.conclusionOps), len(c.graphOps))
	}
	return c.conclusionOps, c.graphOps
}

// Classify inspects the operator and the hole/known layout and returns the
// sound retrieval paths, applying the rules in strict priority order.
func (c *Classifier) Classify(operator string, holes, knowns []int) Classification {
	conclusionOps, graphOps := c.snapshots()

	// 1. Inherently non-factual operators: no vector path at all.
	if c.ops.IsMeta(operator) {
		return Classification{Category: CategoryMeta, SymbolicOnly: true}
	}

	// 2. Quantified goals: unbind cannot represent a quantifier.
	if c.ops.IsQuantifier(operator) {
		return Classification{Category: CategoryQuantifier, SymbolicOnly: true}
	}

	// 3. Transitive closures: unbind only recovers explicit bound facts,
	// never derived chains.
	if c.ops.IsTransitive(operator) {
		return Classification{Category: CategoryTransitive, SymbolicOnly: true}
	}

	// 4. Graph-wrapped records veto flat unbind; the later paths may still
	// apply.
	graphWrapped := graphOps[operator]

	// 5. Derived operators: a true answer may not be an explicit bound
	// fact, so the exact index fast path is never sound.
	if c.ops.IsInheritable(operator) || c.ops.IsMembership(operator) || conclusionOps[operator] {
		return Classification{
			Category:      CategoryDerived,
			UnbindAllowed: !graphWrapped,
		}
	}

	// 6. Exactly one hole and none of the above: explicit facts are the
	// whole truth, the exact index fast path applies.
	if len(holes) == 1 {
		cat := CategoryFact
		switch {
		case graphWrapped:
			cat = CategoryGraphFact
		case c.ops.IsAssignment(operator):
			cat = CategoryAssignmentFact
		}
		return Classification{
			Category:        cat,
			UnbindAllowed:   !graphWrapped,
			FastPathAllowed: true,
		}
	}

	// 7. Default permissive path.
	return Classification{
		Category:      CategoryOther,
		UnbindAllowed: !graphWrapped,
	}
}
