package holo

import (
	"sort"

	"holograph/internal/hdc"
	"holograph/internal/kb"
	"holograph/internal/logging"
)

// =============================================================================
// CANDIDATE GENERATOR
// =============================================================================

// GeneratorConfig bounds the candidate search space. The three caps (holes,
// per-hole candidates, combinations) exist to keep worst-case latency
// predictable against adversarial or highly ambiguous queries.
type GeneratorConfig struct {
	MaxCandidatesPerHole int
	TopNPerHole          int
	MaxCombinations      int
	// MinSimilarityMargin is added to the strategy's random baseline to form
	// the similarity floor for vocabulary-scan candidates.
	MinSimilarityMargin float64
}

// DefaultGeneratorConfig returns the standard bounds.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxCandidatesPerHole: 32,
		TopNPerHole:          8,
		MaxCombinations:      256,
		MinSimilarityMargin:  0.05,
	}
}

// Generator produces ranked per-hole filler candidates from the knowledge
// base, via exact index lookup, vector unbinding, or vocabulary search.
type Generator struct {
	kb  *kb.ComponentKB
	cfg GeneratorConfig
}

// NewGenerator builds a generator over a KB.
func NewGenerator(store *kb.ComponentKB, cfg GeneratorConfig) *Generator {
	return &Generator{kb: store, cfg: cfg}
}

// FastPath answers a single-hole query from the exact index: every fact
// matching the operator and all known arguments contributes its hole-slot
// value with maximal confidence and a one-fact proof trail. No vector math,
// no approximation.
func (g *Generator) FastPath(st Statement, hole int) []ResultEntry {
	knowns := st.Knowns()
	varName := st.Args[hole].Var

	witnesses := make(map[string]*kb.Fact)
	counts := make(map[string]int)
	for _, fact := range g.kb.FindByOperator(st.Operator) {
		if len(fact.Args) != len(st.Args) || !factMatchesKnowns(fact, knowns) {
			continue
		}
		value := fact.Args[hole]
		counts[value]++
		if _, ok := witnesses[value]; !ok {
			witnesses[value] = fact
		}
	}

	entries := make([]ResultEntry, 0, len(witnesses))
	for value, fact := range witnesses {
		entries = append(entries, ResultEntry{
			Bindings: map[string]Binding{varName: {
				Answer:     value,
				Similarity: 1,
				Method:     MethodIndexExact,
				Steps:      []string{"fact: " + fact.String()},
			}},
			Score:  1,
			Method: MethodIndexExact,
			Steps:  []string{"fact: " + fact.String()},
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].GroundingKey() < entries[j].GroundingKey()
	})
	logging.QueryDebug("fast path %s hole %d: %d exact answers", st.Operator, hole, len(entries))
	return entries
}

// HoleCandidates produces the ranked candidate list for one hole of a
// multi-path query. When unbinding is allowed, the partial query vector is
// unbound from the KB bundle and resolved against, in preference order: the
// strategy's native decode over a bounded domain, similarity scoring over
// the bounded domain, then a capped full-vocabulary scan. When unbinding is
// disallowed the bounded index domain alone supplies candidates.
func (g *Generator) HoleCandidates(st Statement, hole int, cls Classification) []Candidate {
	domain, counts := g.boundedDomain(st, hole)

	if !cls.UnbindAllowed {
		return g.domainOnlyCandidates(domain, counts)
	}

	strategy := g.kb.Strategy()
	geometry := g.kb.Geometry()

	partial := kb.EncodePartial(strategy, geometry, st.Operator, st.Knowns())
	approx := strategy.Unbind(g.kb.BundleVector(), partial)
	approx = strategy.Unbind(approx, hdc.PositionVector(strategy, hole, geometry))

	// (a) Strategy-native decode, constrained to the bounded domain.
	if decoder, ok := strategy.(hdc.Decoder); ok && len(domain) > 0 {
		matches := decoder.DecodeCandidates(approx, domain, g.cfg.MaxCandidatesPerHole)
		return g.matchesToCandidates(matches, counts, MethodHDCDecode)
	}

	// (b) Similarity scoring against the index-slice domain: precise,
	// bounded cost.
	if len(domain) > 0 {
		matches := hdc.TopKSimilar(strategy, approx, domain, g.cfg.MaxCandidatesPerHole)
		return g.matchesToCandidates(matches, counts, MethodHDCDecode)
	}

	// (c) Full-vocabulary fallback: capped count plus a similarity floor.
	floor := strategy.Profile().RandomBaseline + g.cfg.MinSimilarityMargin
	matches := hdc.TopKSimilar(strategy, approx, g.kb.Vocabulary(), g.cfg.MaxCandidatesPerHole)
	filtered := matches[:0]
	for _, m := range matches {
		if m.Similarity >= floor {
			filtered = append(filtered, m)
		}
	}
	logging.QueryDebug("vocabulary fallback %s hole %d: %d of %d above floor %.3f",
		st.Operator, hole, len(filtered), len(matches), floor)
	return g.matchesToCandidates(filtered, counts, MethodHDCVocabulary)
}

func (g *Generator) matchesToCandidates(matches []hdc.Match, counts map[string]int, method Method) []Candidate {
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, Candidate{
			Name:       m.Name,
			Similarity: m.Similarity,
			Witnesses:  counts[m.Name],
			Method:     method,
		})
	}
	return out
}

// domainOnlyCandidates enumerates the index slice without vector scoring;
// every value is witnessed by at least one explicit fact, so provenance is
// an exact index hit and the validator settles truth.
func (g *Generator) domainOnlyCandidates(domain []hdc.NamedVector, counts map[string]int) []Candidate {
	out := make([]Candidate, 0, len(domain))
	for _, nv := range domain {
		out = append(out, Candidate{
			Name:       nv.Name,
			Similarity: 1,
			Witnesses:  counts[nv.Name],
			Method:     MethodIndexExact,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Witnesses != out[j].Witnesses {
			return out[i].Witnesses > out[j].Witnesses
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > g.cfg.MaxCandidatesPerHole {
		out = out[:g.cfg.MaxCandidatesPerHole]
	}
	return out
}

// boundedDomain derives the hole's candidate domain from an index slice
// consistent with the knowns: the distinct values appearing at the hole
// position among facts that match the operator and every known argument.
// An empty result means no usable slice; callers fall through to the
// vocabulary.
func (g *Generator) boundedDomain(st Statement, hole int) ([]hdc.NamedVector, map[string]int) {
	knowns := st.Knowns()
	counts := make(map[string]int)
	for _, fact := range g.kb.FindByOperator(st.Operator) {
		if len(fact.Args) != len(st.Args) || hole >= len(fact.Args) {
			continue
		}
		if !factMatchesKnowns(fact, knowns) {
			continue
		}
		counts[fact.Args[hole]]++
	}
	if len(counts) == 0 {
		return nil, counts
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	strategy, geometry := g.kb.Strategy(), g.kb.Geometry()
	domain := make([]hdc.NamedVector, len(names))
	for i, name := range names {
		domain[i] = hdc.NamedVector{Name: name, Vector: hdc.EntityVector(strategy, name, geometry)}
	}
	return domain, counts
}

func factMatchesKnowns(fact *kb.Fact, knowns map[int]string) bool {
	for slot, value := range knowns {
		if slot >= len(fact.Args) || fact.Args[slot] != value {
			return false
		}
	}
	return true
}
