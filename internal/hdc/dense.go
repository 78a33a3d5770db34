package hdc

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sync"
)

// =============================================================================
// DENSE STRATEGY - bitpacked binary hypervectors
// =============================================================================

// DenseStrategy stores vectors as bitpacked []uint64. Bind is XOR, which is
// self-inverse, commutative and associative, so unbind cancels exactly.
// Similarity is 1 - normalizedHamming: two independent random vectors agree
// on about half their bits, putting the random baseline at 0.5.
type DenseStrategy struct {
	mu  sync.Mutex
	rng splitmix64
}

// NewDenseStrategy returns a dense strategy whose NewRandom stream is seeded
// for reproducibility.
func NewDenseStrategy(seed uint64) *DenseStrategy {
	return &DenseStrategy{rng: splitmix64{state: seed ^ 0xd1b54a32d192ed03}}
}

func (s *DenseStrategy) ID() StrategyID { return StrategyDense }

func (s *DenseStrategy) Profile() Profile {
	return Profile{
		RandomBaseline:      0.5,
		BaselineTolerance:   0.05,
		RecoveryThreshold:   1.0,
		OrthogonalityMargin: 0.05,
		BindSeparation:      0.58,
	}
}

func denseWords(dims int) int { return (dims + 63) / 64 }

// zeroDensePadding clears the unused high bits of the final word so that
// popcount and equality never see garbage.
func zeroDensePadding(data []uint64, dims int) {
	if rem := dims % 64; rem != 0 {
		data[len(data)-1] &= (uint64(1) << uint(rem)) - 1
	}
}

func densePayload(v *Vector) []uint64 { return v.payload.([]uint64) }

func (s *DenseStrategy) newVector(g Geometry, data []uint64) *Vector {
	return &Vector{strategy: StrategyDense, geometry: g, payload: data}
}

func checkDenseGeometry(g Geometry) {
	if g.Dimensions <= 0 {
		panic(fmt.Sprintf("hdc: dense geometry requires positive dimensions, got %d", g.Dimensions))
	}
}

func (s *DenseStrategy) NewZero(g Geometry) *Vector {
	checkDenseGeometry(g)
	return s.newVector(g, make([]uint64, denseWords(g.Dimensions)))
}

func (s *DenseStrategy) NewRandom(g Geometry) *Vector {
	checkDenseGeometry(g)
	data := make([]uint64, denseWords(g.Dimensions))
	s.mu.Lock()
	for i := range data {
		data[i] = s.rng.next()
	}
	s.mu.Unlock()
	zeroDensePadding(data, g.Dimensions)
	return s.newVector(g, data)
}

func (s *DenseStrategy) NewFromName(name string, g Geometry, scope string) *Vector {
	checkDenseGeometry(g)
	rng := splitmix64{state: nameSeed(StrategyDense, name, g, scope)}
	data := make([]uint64, denseWords(g.Dimensions))
	for i := range data {
		data[i] = rng.next()
	}
	zeroDensePadding(data, g.Dimensions)
	return s.newVector(g, data)
}

func (s *DenseStrategy) Bind(a, b *Vector) *Vector {
	checkOperands(StrategyDense, a, b)
	pa, pb := densePayload(a), densePayload(b)
	out := make([]uint64, len(pa))
	for i := range pa {
		out[i] = pa[i] ^ pb[i]
	}
	return s.newVector(a.geometry, out)
}

func (s *DenseStrategy) Unbind(composite, known *Vector) *Vector {
	// XOR is its own inverse.
	return s.Bind(composite, known)
}

func (s *DenseStrategy) Bundle(vectors []*Vector, tieBreaker *Vector) *Vector {
	if len(vectors) == 0 {
		panic("hdc: dense bundle requires at least one vector")
	}
	checkOperands(StrategyDense, vectors...)
	g := vectors[0].geometry
	if tieBreaker != nil {
		checkOperands(StrategyDense, vectors[0], tieBreaker)
	}

	// Majority vote per bit. Ties (possible only for even bundle sizes)
	// follow the tie-breaker vector's bit when provided, else stay zero.
	dims := g.Dimensions
	counts := make([]int, dims)
	for _, v := range vectors {
		data := densePayload(v)
		for i := 0; i < dims; i++ {
			if data[i/64]&(uint64(1)<<uint(i%64)) != 0 {
				counts[i]++
			}
		}
	}

	out := make([]uint64, denseWords(dims))
	half := len(vectors)
	for i := 0; i < dims; i++ {
		set := 2*counts[i] > half
		if 2*counts[i] == half && tieBreaker != nil {
			set = densePayload(tieBreaker)[i/64]&(uint64(1)<<uint(i%64)) != 0
		}
		if set {
			out[i/64] |= uint64(1) << uint(i%64)
		}
	}
	return s.newVector(g, out)
}

func (s *DenseStrategy) Similarity(a, b *Vector) float64 {
	checkOperands(StrategyDense, a, b)
	pa, pb := densePayload(a), densePayload(b)
	hamming := 0
	for i := range pa {
		hamming += bits.OnesCount64(pa[i] ^ pb[i])
	}
	return 1 - float64(hamming)/float64(a.geometry.Dimensions)
}

func (s *DenseStrategy) Clone(v *Vector) *Vector {
	checkOperands(StrategyDense, v)
	data := make([]uint64, len(densePayload(v)))
	copy(data, densePayload(v))
	return s.newVector(v.geometry, data)
}

func (s *DenseStrategy) Equal(a, b *Vector) bool {
	checkOperands(StrategyDense, a, b)
	pa, pb := densePayload(a), densePayload(b)
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

func (s *DenseStrategy) Serialize(v *Vector) (*SerializedVector, error) {
	checkOperands(StrategyDense, v)
	data := densePayload(v)
	buf := make([]byte, 8*len(data))
	for i, w := range data {
		binary.LittleEndian.PutUint64(buf[8*i:], w)
	}
	return &SerializedVector{
		StrategyID: StrategyDense,
		Geometry:   v.geometry,
		Version:    SerializedVersion,
		Data:       buf,
	}, nil
}

func (s *DenseStrategy) Deserialize(sv *SerializedVector) (*Vector, error) {
	if sv.StrategyID != StrategyDense {
		return nil, fmt.Errorf("hdc: dense deserialize given %q payload", sv.StrategyID)
	}
	if sv.Version != SerializedVersion {
		return nil, fmt.Errorf("hdc: unsupported serialized version %d", sv.Version)
	}
	words := denseWords(sv.Geometry.Dimensions)
	if sv.Geometry.Dimensions <= 0 || len(sv.Data) != 8*words {
		return nil, fmt.Errorf("hdc: dense payload length %d does not match geometry %s", len(sv.Data), sv.Geometry)
	}
	data := make([]uint64, words)
	for i := range data {
		data[i] = binary.LittleEndian.Uint64(sv.Data[8*i:])
	}
	zeroDensePadding(data, sv.Geometry.Dimensions)
	return s.newVector(sv.Geometry, data), nil
}
