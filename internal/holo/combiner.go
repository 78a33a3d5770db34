package holo

import (
	"sort"

	"holograph/internal/logging"
)

// =============================================================================
// CANDIDATE COMBINER
// =============================================================================

// Grounding is one complete multi-hole filler assignment with its combined
// score: the mean of the per-hole similarities.
type Grounding struct {
	Values  map[int]string
	Score   float64
	Methods map[int]Method
}

// CombineCandidates forms complete groundings across holes via bounded
// cartesian product. Each hole contributes at most topN candidates and the
// total number of combinations never exceeds maxCombinations; both bounds
// trim the lowest-scored tail first.
func CombineCandidates(holes []int, perHole map[int][]Candidate, topN, maxCombinations int) []Grounding {
	if len(holes) == 0 || topN <= 0 || maxCombinations <= 0 {
		return nil
	}

	sliced := make(map[int][]Candidate, len(holes))
	for _, hole := range holes {
		candidates := perHole[hole]
		if len(candidates) == 0 {
			// A hole with no candidates means no complete grounding exists.
			return nil
		}
		ordered := append([]Candidate(nil), candidates...)
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].Similarity != ordered[j].Similarity {
				return ordered[i].Similarity > ordered[j].Similarity
			}
			return ordered[i].Name < ordered[j].Name
		})
		if len(ordered) > topN {
			ordered = ordered[:topN]
		}
		sliced[hole] = ordered
	}

	groundings := []Grounding{{Values: map[int]string{}, Methods: map[int]Method{}}}
	for _, hole := range holes {
		next := make([]Grounding, 0, len(groundings)*len(sliced[hole]))
		for _, base := range groundings {
			for _, c := range sliced[hole] {
				values := make(map[int]string, len(base.Values)+1)
				for k, v := range base.Values {
					values[k] = v
				}
				values[hole] = c.Name
				methods := make(map[int]Method, len(base.Methods)+1)
				for k, v := range base.Methods {
					methods[k] = v
				}
				methods[hole] = c.Method
				next = append(next, Grounding{
					Values:  values,
					Score:   base.Score + c.Similarity,
					Methods: methods,
				})
				if len(next) >= maxCombinations {
					break
				}
			}
			if len(next) >= maxCombinations {
				break
			}
		}
		groundings = next
	}

	for i := range groundings {
		groundings[i].Score /= float64(len(holes))
	}
	sort.Slice(groundings, func(i, j int) bool {
		return groundings[i].Score > groundings[j].Score
	})
	logging.QueryDebug("combined %d holes into %d groundings (topN=%d, cap=%d)",
		len(holes), len(groundings), topN, maxCombinations)
	return groundings
}
