package hdc

import (
	"fmt"
	"sync"
)

// =============================================================================
// BIPOLAR STRATEGY - bounded-byte ±1 vectors
// =============================================================================

// BipolarStrategy stores vectors as one signed byte per dimension, each
// either +1 or -1. Bind is the elementwise product: every element is its own
// multiplicative inverse, so bind cancels exactly. Similarity is the cosine
// mapped affinely onto [0,1], which for ±1 elements equals the fraction of
// agreeing positions; the random baseline is 0.5.
type BipolarStrategy struct {
	mu  sync.Mutex
	rng splitmix64
}

// NewBipolarStrategy returns a bipolar strategy with a seeded random stream.
func NewBipolarStrategy(seed uint64) *BipolarStrategy {
	return &BipolarStrategy{rng: splitmix64{state: seed ^ 0x2545f4914f6cdd1d}}
}

func (s *BipolarStrategy) ID() StrategyID { return StrategyBipolar }

func (s *BipolarStrategy) Profile() Profile {
	return Profile{
		RandomBaseline:      0.5,
		BaselineTolerance:   0.05,
		RecoveryThreshold:   1.0,
		OrthogonalityMargin: 0.05,
		BindSeparation:      0.58,
	}
}

func bipolarPayload(v *Vector) []int8 { return v.payload.([]int8) }

func (s *BipolarStrategy) newVector(g Geometry, data []int8) *Vector {
	return &Vector{strategy: StrategyBipolar, geometry: g, payload: data}
}

func checkBipolarGeometry(g Geometry) {
	if g.Dimensions <= 0 {
		panic(fmt.Sprintf("hdc: bipolar geometry requires positive dimensions, got %d", g.Dimensions))
	}
}

func (s *BipolarStrategy) fill(rng *splitmix64, dims int) []int8 {
	data := make([]int8, dims)
	var word uint64
	for i := range data {
		if i%64 == 0 {
			word = rng.next()
		}
		if word&1 != 0 {
			data[i] = 1
		} else {
			data[i] = -1
		}
		word >>= 1
	}
	return data
}

func (s *BipolarStrategy) NewZero(g Geometry) *Vector {
	checkBipolarGeometry(g)
	// The multiplicative identity: all ones.
	data := make([]int8, g.Dimensions)
	for i := range data {
		data[i] = 1
	}
	return s.newVector(g, data)
}

func (s *BipolarStrategy) NewRandom(g Geometry) *Vector {
	checkBipolarGeometry(g)
	s.mu.Lock()
	data := s.fill(&s.rng, g.Dimensions)
	s.mu.Unlock()
	return s.newVector(g, data)
}

func (s *BipolarStrategy) NewFromName(name string, g Geometry, scope string) *Vector {
	checkBipolarGeometry(g)
	rng := splitmix64{state: nameSeed(StrategyBipolar, name, g, scope)}
	return s.newVector(g, s.fill(&rng, g.Dimensions))
}

func (s *BipolarStrategy) Bind(a, b *Vector) *Vector {
	checkOperands(StrategyBipolar, a, b)
	pa, pb := bipolarPayload(a), bipolarPayload(b)
	out := make([]int8, len(pa))
	for i := range pa {
		out[i] = pa[i] * pb[i]
	}
	return s.newVector(a.geometry, out)
}

func (s *BipolarStrategy) Unbind(composite, known *Vector) *Vector {
	// Elementwise product of ±1 is self-inverse.
	return s.Bind(composite, known)
}

func (s *BipolarStrategy) Bundle(vectors []*Vector, tieBreaker *Vector) *Vector {
	if len(vectors) == 0 {
		panic("hdc: bipolar bundle requires at least one vector")
	}
	checkOperands(StrategyBipolar, vectors...)
	g := vectors[0].geometry
	if tieBreaker != nil {
		checkOperands(StrategyBipolar, vectors[0], tieBreaker)
	}

	out := make([]int8, g.Dimensions)
	for i := range out {
		sum := 0
		for _, v := range vectors {
			sum += int(bipolarPayload(v)[i])
		}
		switch {
		case sum > 0:
			out[i] = 1
		case sum < 0:
			out[i] = -1
		case tieBreaker != nil:
			out[i] = bipolarPayload(tieBreaker)[i]
		default:
			out[i] = 1
		}
	}
	return s.newVector(g, out)
}

func (s *BipolarStrategy) Similarity(a, b *Vector) float64 {
	checkOperands(StrategyBipolar, a, b)
	pa, pb := bipolarPayload(a), bipolarPayload(b)
	dot := 0
	for i := range pa {
		dot += int(pa[i]) * int(pb[i])
	}
	cosine := float64(dot) / float64(a.geometry.Dimensions)
	return (cosine + 1) / 2
}

func (s *BipolarStrategy) Clone(v *Vector) *Vector {
	checkOperands(StrategyBipolar, v)
	data := make([]int8, len(bipolarPayload(v)))
	copy(data, bipolarPayload(v))
	return s.newVector(v.geometry, data)
}

func (s *BipolarStrategy) Equal(a, b *Vector) bool {
	checkOperands(StrategyBipolar, a, b)
	pa, pb := bipolarPayload(a), bipolarPayload(b)
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

func (s *BipolarStrategy) Serialize(v *Vector) (*SerializedVector, error) {
	checkOperands(StrategyBipolar, v)
	data := bipolarPayload(v)
	buf := make([]byte, len(data))
	for i, e := range data {
		if e > 0 {
			buf[i] = 1
		}
	}
	return &SerializedVector{
		StrategyID: StrategyBipolar,
		Geometry:   v.geometry,
		Version:    SerializedVersion,
		Data:       buf,
	}, nil
}

func (s *BipolarStrategy) Deserialize(sv *SerializedVector) (*Vector, error) {
	if sv.StrategyID != StrategyBipolar {
		return nil, fmt.Errorf("hdc: bipolar deserialize given %q payload", sv.StrategyID)
	}
	if sv.Version != SerializedVersion {
		return nil, fmt.Errorf("hdc: unsupported serialized version %d", sv.Version)
	}
	if sv.Geometry.Dimensions <= 0 || len(sv.Data) != sv.Geometry.Dimensions {
		return nil, fmt.Errorf("hdc: bipolar payload length %d does not match geometry %s", len(sv.Data), sv.Geometry)
	}
	data := make([]int8, len(sv.Data))
	for i, b := range sv.Data {
		switch b {
		case 0:
			data[i] = -1
		case 1:
			data[i] = 1
		default:
			return nil, fmt.Errorf("hdc: bipolar payload byte %d out of range", b)
		}
	}
	return s.newVector(sv.Geometry, data), nil
}
