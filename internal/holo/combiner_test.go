package holo

import (
	"testing"
)

func TestCombineCandidatesCartesian(t *testing.T) {
	perHole := map[int][]Candidate{
		0: {
			{Name: "alice", Similarity: 0.9, Method: MethodHDCDecode},
			{Name: "bob", Similarity: 0.7, Method: MethodHDCDecode},
		},
		1: {
			{Name: "paris", Similarity: 0.8, Method: MethodHDCDecode},
			{Name: "berlin", Similarity: 0.6, Method: MethodHDCDecode},
		},
	}

	groundings := CombineCandidates([]int{0, 1}, perHole, 8, 256)
	if len(groundings) != 4 {
		t.Fatalf("got %d groundings, want 4", len(groundings))
	}

	best := groundings[0]
	if best.Values[0] != "alice" || best.Values[1] != "paris" {
		t.Errorf("best grounding = %v, want alice/paris", best.Values)
	}
	wantScore := (0.9 + 0.8) / 2
	if best.Score != wantScore {
		t.Errorf("best score = %v, want %v", best.Score, wantScore)
	}
	if best.Methods[0] != MethodHDCDecode {
		t.Errorf("method lost in combination: %v", best.Methods)
	}

	for i := 1; i < len(groundings); i++ {
		if groundings[i].Score > groundings[i-1].Score {
			t.Error("groundings not sorted by score descending")
		}
	}
}

func TestCombineCandidatesTopNTrimsTail(t *testing.T) {
	perHole := map[int][]Candidate{
		0: {
			{Name: "low", Similarity: 0.2},
			{Name: "high", Similarity: 0.9},
			{Name: "mid", Similarity: 0.5},
		},
	}
	groundings := CombineCandidates([]int{0}, perHole, 2, 256)
	if len(groundings) != 2 {
		t.Fatalf("got %d groundings, want 2", len(groundings))
	}
	if groundings[0].Values[0] != "high" || groundings[1].Values[0] != "mid" {
		t.Errorf("topN kept the wrong candidates: %v then %v", groundings[0].Values, groundings[1].Values)
	}
}

func TestCombineCandidatesCombinationCap(t *testing.T) {
	many := make([]Candidate, 10)
	for i := range many {
		many[i] = Candidate{Name: string(rune('a' + i)), Similarity: float64(10-i) / 10}
	}
	perHole := map[int][]Candidate{0: many, 1: many}

	groundings := CombineCandidates([]int{0, 1}, perHole, 10, 7)
	if len(groundings) > 7 {
		t.Errorf("got %d groundings, cap is 7", len(groundings))
	}
}

func TestCombineCandidatesEmptyHole(t *testing.T) {
	perHole := map[int][]Candidate{
		0: {{Name: "alice", Similarity: 0.9}},
		1: {},
	}
	if got := CombineCandidates([]int{0, 1}, perHole, 8, 256); got != nil {
		t.Errorf("a hole with no candidates must yield no groundings, got %v", got)
	}
	if got := CombineCandidates(nil, nil, 8, 256); got != nil {
		t.Errorf("no holes must yield nil, got %v", got)
	}
}

func TestCombineCandidatesTieBreaksOnName(t *testing.T) {
	perHole := map[int][]Candidate{
		0: {
			{Name: "zeta", Similarity: 0.5},
			{Name: "alpha", Similarity: 0.5},
		},
	}
	groundings := CombineCandidates([]int{0}, perHole, 1, 256)
	if len(groundings) != 1 || groundings[0].Values[0] != "alpha" {
		t.Errorf("tie should break to the lexicographically smaller name, got %v", groundings)
	}
}
