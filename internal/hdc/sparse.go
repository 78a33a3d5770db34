package hdc

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// SPARSE STRATEGY - polynomial exponent sets
// =============================================================================

// SparseStrategy represents a vector as a sorted set of active exponents (a
// sparse polynomial over GF(2)). Bind is symmetric difference, similarity is
// Jaccard overlap. Bind output is capped at a maximum density, which makes
// deep bind chains lossy: the declared recovery threshold is below 1.
//
// Geometry.Dimensions is the exponent universe; Geometry.Density is the
// number of active exponents in generated atom vectors.
type SparseStrategy struct {
	mu  sync.Mutex
	rng splitmix64
}

// NewSparseStrategy returns a sparse strategy with a seeded random stream.
func NewSparseStrategy(seed uint64) *SparseStrategy {
	return &SparseStrategy{rng: splitmix64{state: seed ^ 0x8cb92ba72f3d8dd7}}
}

func (s *SparseStrategy) ID() StrategyID { return StrategySparse }

func (s *SparseStrategy) Profile() Profile {
	return Profile{
		RandomBaseline:      0.01,
		BaselineTolerance:   0.02,
		RecoveryThreshold:   0.90,
		OrthogonalityMargin: 0.04,
		BindSeparation:      0.60,
	}
}

func sparsePayload(v *Vector) []uint32 { return v.payload.([]uint32) }

func (s *SparseStrategy) newVector(g Geometry, exps []uint32) *Vector {
	return &Vector{strategy: StrategySparse, geometry: g, payload: exps}
}

func checkSparseGeometry(g Geometry) {
	if err := GeometryError(StrategySparse, g); err != nil {
		panic(fmt.Sprintf("hdc: invalid sparse geometry %s: %v", g, err))
	}
}

// maxSparseDensity bounds bind/bundle output size. Chosen so a single bind
// of two atom vectors (≤ 2×Density exponents) is never trimmed; only longer
// chains and large bundles lose information.
func maxSparseDensity(g Geometry) int {
	return 8 * g.Density
}

// trimSparse drops the highest exponents above the density cap. The rule is
// arbitrary but must be deterministic so equal inputs stay equal.
func trimSparse(exps []uint32, g Geometry) []uint32 {
	if limit := maxSparseDensity(g); len(exps) > limit {
		return exps[:limit]
	}
	return exps
}

func (s *SparseStrategy) sampleExponents(rng *splitmix64, g Geometry) []uint32 {
	seen := make(map[uint32]struct{}, g.Density)
	exps := make([]uint32, 0, g.Density)
	for len(exps) < g.Density {
		e := uint32(rng.nextBelow(uint64(g.Dimensions)))
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		exps = append(exps, e)
	}
	sort.Slice(exps, func(i, j int) bool { return exps[i] < exps[j] })
	return exps
}

func (s *SparseStrategy) NewZero(g Geometry) *Vector {
	checkSparseGeometry(g)
	return s.newVector(g, []uint32{})
}

func (s *SparseStrategy) NewRandom(g Geometry) *Vector {
	checkSparseGeometry(g)
	s.mu.Lock()
	exps := s.sampleExponents(&s.rng, g)
	s.mu.Unlock()
	return s.newVector(g, exps)
}

func (s *SparseStrategy) NewFromName(name string, g Geometry, scope string) *Vector {
	checkSparseGeometry(g)
	rng := splitmix64{state: nameSeed(StrategySparse, name, g, scope)}
	return s.newVector(g, s.sampleExponents(&rng, g))
}

// symmetricDifference merges two sorted exponent sets, keeping exponents
// present in exactly one of them.
func symmetricDifference(a, b []uint32) []uint32 {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func (s *SparseStrategy) Bind(a, b *Vector) *Vector {
	checkOperands(StrategySparse, a, b)
	return s.newVector(a.geometry, trimSparse(symmetricDifference(sparsePayload(a), sparsePayload(b)), a.geometry))
}

func (s *SparseStrategy) Unbind(composite, known *Vector) *Vector {
	// Symmetric difference is self-inverse; cancellation is exact unless the
	// composite was trimmed at the density cap.
	return s.Bind(composite, known)
}

func (s *SparseStrategy) Bundle(vectors []*Vector, tieBreaker *Vector) *Vector {
	if len(vectors) == 0 {
		panic("hdc: sparse bundle requires at least one vector")
	}
	checkOperands(StrategySparse, vectors...)
	g := vectors[0].geometry

	// Union keeps every constituent recognizable by Jaccard overlap.
	// The tie-breaker is unused: union has no tie positions.
	_ = tieBreaker
	seen := make(map[uint32]struct{})
	for _, v := range vectors {
		for _, e := range sparsePayload(v) {
			seen[e] = struct{}{}
		}
	}
	union := make([]uint32, 0, len(seen))
	for e := range seen {
		union = append(union, e)
	}
	sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })
	return s.newVector(g, trimSparse(union, g))
}

func sparseOverlap(a, b []uint32) int {
	overlap := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			overlap++
			i++
			j++
		}
	}
	return overlap
}

func (s *SparseStrategy) Similarity(a, b *Vector) float64 {
	checkOperands(StrategySparse, a, b)
	pa, pb := sparsePayload(a), sparsePayload(b)
	if len(pa) == 0 && len(pb) == 0 {
		return 1
	}
	overlap := sparseOverlap(pa, pb)
	unionSize := len(pa) + len(pb) - overlap
	if unionSize == 0 {
		return 1
	}
	return float64(overlap) / float64(unionSize)
}

func (s *SparseStrategy) Clone(v *Vector) *Vector {
	checkOperands(StrategySparse, v)
	exps := make([]uint32, len(sparsePayload(v)))
	copy(exps, sparsePayload(v))
	return s.newVector(v.geometry, exps)
}

func (s *SparseStrategy) Equal(a, b *Vector) bool {
	checkOperands(StrategySparse, a, b)
	pa, pb := sparsePayload(a), sparsePayload(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

func (s *SparseStrategy) Serialize(v *Vector) (*SerializedVector, error) {
	checkOperands(StrategySparse, v)
	exps := sparsePayload(v)
	buf := make([]byte, 4*len(exps))
	for i, e := range exps {
		binary.LittleEndian.PutUint32(buf[4*i:], e)
	}
	return &SerializedVector{
		StrategyID: StrategySparse,
		Geometry:   v.geometry,
		Version:    SerializedVersion,
		Data:       buf,
	}, nil
}

func (s *SparseStrategy) Deserialize(sv *SerializedVector) (*Vector, error) {
	if sv.StrategyID != StrategySparse {
		return nil, fmt.Errorf("hdc: sparse deserialize given %q payload", sv.StrategyID)
	}
	if sv.Version != SerializedVersion {
		return nil, fmt.Errorf("hdc: unsupported serialized version %d", sv.Version)
	}
	if sv.Geometry.Dimensions <= 0 || sv.Geometry.Density <= 0 || len(sv.Data)%4 != 0 {
		return nil, fmt.Errorf("hdc: malformed sparse payload for geometry %s", sv.Geometry)
	}
	exps := make([]uint32, len(sv.Data)/4)
	prev := int64(-1)
	for i := range exps {
		exps[i] = binary.LittleEndian.Uint32(sv.Data[4*i:])
		if int64(exps[i]) <= prev || exps[i] >= uint32(sv.Geometry.Dimensions) {
			return nil, fmt.Errorf("hdc: sparse exponents not sorted-unique within geometry %s", sv.Geometry)
		}
		prev = int64(exps[i])
	}
	return s.newVector(sv.Geometry, exps), nil
}

// DecodeCandidates resolves an approximate filler against a bounded named
// domain by direct exponent overlap. This is the sparse strategy's native
// decode routine: no generic vocabulary scan, just sorted-set walks.
func (s *SparseStrategy) DecodeCandidates(approx *Vector, domain []NamedVector, limit int) []Match {
	checkOperands(StrategySparse, approx)
	if limit <= 0 || len(domain) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(domain))
	for _, nv := range domain {
		matches = append(matches, Match{Name: nv.Name, Similarity: s.Similarity(approx, nv.Vector)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Name < matches[j].Name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
