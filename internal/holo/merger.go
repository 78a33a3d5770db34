package holo

import (
	"context"
	"sort"

	"holograph/internal/logging"
)

// =============================================================================
// RESULT MERGER
// =============================================================================

// SupplementPolicy controls when the external symbolic query engine is
// consulted on top of the HDC pipeline.
type SupplementPolicy string

const (
	SupplementNever   SupplementPolicy = "never"
	SupplementOnEmpty SupplementPolicy = "on_empty"
	SupplementAlways  SupplementPolicy = "always"
)

// Merger reconciles validated HDC results with the authoritative symbolic
// result set, ranks, deduplicates, and truncates.
type Merger struct {
	querier SymbolicQuerier
	policy  SupplementPolicy
}

// NewMerger builds a merger. querier may be nil, which disables
// supplementation regardless of policy.
func NewMerger(querier SymbolicQuerier, policy SupplementPolicy) *Merger {
	return &Merger{querier: querier, policy: policy}
}

// Merge combines the validated HDC entries with symbolic supplementation per
// policy. A symbolic entry replaces an HDC entry with the same grounding key
// when the HDC entry lacks a proof trail or the symbolic method outranks it;
// symbolic-only groundings are appended. The equivalence report compares the
// two grounding-key sets for observability only.
func (m *Merger) Merge(ctx context.Context, st Statement, validated []ResultEntry, opts Options) ([]ResultEntry, *EquivalenceReport) {
	merged := make(map[string]ResultEntry, len(validated))
	hdcKeys := make([]string, 0, len(validated))
	for _, e := range validated {
		key := e.GroundingKey()
		if _, dup := merged[key]; !dup {
			hdcKeys = append(hdcKeys, key)
		}
		merged[key] = pickBetter(merged[key], e)
	}

	// The equivalence metric only exists when the symbolic set was computed.
	var report *EquivalenceReport
	if m.shouldSupplement(len(validated)) {
		symbolicKeys := m.supplement(ctx, st, opts, merged)
		report = equivalence(hdcKeys, symbolicKeys)
	}

	entries := make([]ResultEntry, 0, len(merged))
	for _, e := range merged {
		entries = append(entries, e)
	}
	sortEntries(entries)
	if opts.MaxResults > 0 && len(entries) > opts.MaxResults {
		entries = entries[:opts.MaxResults]
	}
	return entries, report
}

func (m *Merger) shouldSupplement(validatedCount int) bool {
	if m.querier == nil {
		return false
	}
	switch m.policy {
	case SupplementAlways:
		return true
	case SupplementOnEmpty:
		return validatedCount == 0
	default:
		return false
	}
}

// supplement queries the symbolic engine and folds its entries into merged,
// returning the symbolic grounding keys seen.
func (m *Merger) supplement(ctx context.Context, st Statement, opts Options, merged map[string]ResultEntry) []string {
	symbolic, err := m.querier.Query(ctx, st, opts)
	if err != nil || symbolic == nil {
		logging.Symbolic("symbolic supplementation failed: %v", err)
		return nil
	}

	keys := make([]string, 0, len(symbolic.AllResults))
	for _, e := range symbolic.AllResults {
		if e.Method == "" {
			e.Method = MethodSymbolicFallback
		}
		key := e.GroundingKey()
		keys = append(keys, key)

		existing, present := merged[key]
		switch {
		case !present:
			merged[key] = e
		case len(existing.Steps) == 0:
			// The HDC entry never earned a proof trail; the symbolic answer
			// is authoritative.
			merged[key] = e
		case methodPriority(e.Method) > methodPriority(existing.Method):
			merged[key] = e
		}
	}
	return keys
}

func pickBetter(existing, candidate ResultEntry) ResultEntry {
	if existing.Bindings == nil {
		return candidate
	}
	if methodPriority(candidate.Method) > methodPriority(existing.Method) {
		return candidate
	}
	if methodPriority(candidate.Method) == methodPriority(existing.Method) && candidate.Score > existing.Score {
		return candidate
	}
	return existing
}

// sortEntries applies the final ordering: method priority, then score
// descending, then grounding key for determinism.
func sortEntries(entries []ResultEntry) {
	sort.Slice(entries, func(i, j int) bool {
		pi, pj := methodPriority(entries[i].Method), methodPriority(entries[j].Method)
		if pi != pj {
			return pi > pj
		}
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].GroundingKey() < entries[j].GroundingKey()
	})
}

func equivalence(hdcKeys, symbolicKeys []string) *EquivalenceReport {
	sort.Strings(hdcKeys)
	sort.Strings(symbolicKeys)
	equal := len(hdcKeys) == len(symbolicKeys)
	if equal {
		for i := range hdcKeys {
			if hdcKeys[i] != symbolicKeys[i] {
				equal = false
				break
			}
		}
	}
	return &EquivalenceReport{HDCKeys: hdcKeys, SymbolicKeys: symbolicKeys, Equal: equal}
}
