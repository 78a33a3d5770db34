// Package hdc implements the hyperdimensional vector algebra used to encode
// knowledge-base facts holographically. Concepts become high-dimensional
// vectors; facts are algebraic combinations (bind) of those vectors; a whole
// knowledge base is a superposition (bundle) of fact vectors.
//
// The numeric substrate is pluggable: every vector carries an explicit
// strategy tag and geometry, and all operations dispatch through the Strategy
// interface. Vectors from different strategies or geometries must never be
// combined; doing so is a programmer error and panics.
package hdc

import (
	"fmt"
	"sort"
)

// StrategyID identifies a numeric substrate.
type StrategyID string

const (
	StrategyDense   StrategyID = "dense"   // bitpacked binary, XOR bind
	StrategySparse  StrategyID = "sparse"  // exponent set, symmetric-difference bind
	StrategyBipolar StrategyID = "bipolar" // bounded-byte ±1, product bind
)

// SerializedVersion is the wire version for SerializedVector payloads.
const SerializedVersion = 1

// Geometry describes a vector's size parameters. Dimensions is the vector
// dimension; Density is the number of active exponents for the sparse
// strategy (ignored by dense and bipolar).
type Geometry struct {
	Dimensions int `json:"dimensions" yaml:"dimensions"`
	Density    int `json:"density,omitempty" yaml:"density,omitempty"`
}

func (g Geometry) String() string {
	if g.Density > 0 {
		return fmt.Sprintf("%dd/%dk", g.Dimensions, g.Density)
	}
	return fmt.Sprintf("%dd", g.Dimensions)
}

// GeometryError reports why g is unusable for the given strategy, nil when it
// is fine. Algebra operations still panic on bad geometry (programmer bug);
// this is the value-returning form for callers validating external input,
// such as the conformance checker receiving a user-configured geometry.
func GeometryError(id StrategyID, g Geometry) error {
	if g.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", g.Dimensions)
	}
	if id == StrategySparse && (g.Density <= 0 || g.Density > g.Dimensions) {
		return fmt.Errorf("sparse density must be in [1, %d], got %d", g.Dimensions, g.Density)
	}
	return nil
}

// Vector is an opaque, strategy-tagged semantic vector. The payload is
// private to the strategy that produced it. Vectors are immutable value
// objects: algebra operations always return new vectors.
type Vector struct {
	strategy StrategyID
	geometry Geometry
	payload  any
}

// Strategy returns the tag of the strategy that owns this vector.
func (v *Vector) Strategy() StrategyID { return v.strategy }

// Geometry returns the vector's declared geometry.
func (v *Vector) Geometry() Geometry { return v.geometry }

// SerializedVector is the versioned external form of a Vector, used for
// storage and KB transport. Deserialize(Serialize(v)) must round-trip
// losslessly for every strategy.
type SerializedVector struct {
	StrategyID StrategyID `json:"strategy_id"`
	Geometry   Geometry   `json:"geometry"`
	Version    int        `json:"version"`
	Data       []byte     `json:"data"`
}

// Profile carries the strategy-specific algebra constants. These are
// configuration per strategy, never universal: a dense binary substrate and
// a sparse lossy one legitimately disagree on every one of them.
type Profile struct {
	// RandomBaseline is the expected similarity of two independent random
	// vectors, and BaselineTolerance bounds its sampling variance.
	RandomBaseline    float64
	BaselineTolerance float64

	// RecoveryThreshold is the minimum similarity(bind(bind(a,b),b), a)
	// the strategy guarantees. 1.0 for exact-cancellation substrates.
	RecoveryThreshold float64

	// OrthogonalityMargin is the default threshold for IsOrthogonal.
	OrthogonalityMargin float64

	// BindSeparation is the maximum similarity bind output may retain to
	// either operand. XOR-style binds leave roughly half the structure in
	// place under overlap measures, so this is well above the random
	// baseline for the sparse strategy.
	BindSeparation float64
}

// Strategy is the algebra contract every numeric substrate satisfies.
// All operations panic on strategy or geometry mismatch (programmer bug);
// every recoverable condition is an error value.
type Strategy interface {
	ID() StrategyID
	Profile() Profile

	// NewZero returns the additive-identity vector for the geometry.
	NewZero(g Geometry) *Vector
	// NewRandom returns an independent random vector drawn from the
	// strategy's own seeded source.
	NewRandom(g Geometry) *Vector
	// NewFromName deterministically derives a vector from a symbolic name.
	// Identical (name, geometry, scope) always yields the identical vector;
	// distinct scopes isolate namespaces.
	NewFromName(name string, g Geometry, scope string) *Vector

	// Bind combines two vectors into one dissimilar to both inputs.
	// Commutative and associative for every strategy in this package.
	Bind(a, b *Vector) *Vector
	// Unbind inverts Bind given one operand. For the self-inverse
	// substrates here it is identical to Bind.
	Unbind(composite, known *Vector) *Vector
	// Bundle superposes vectors into one that stays similar to each input.
	// tieBreaker, when non-nil, resolves even-split positions
	// deterministically.
	Bundle(vectors []*Vector, tieBreaker *Vector) *Vector

	// Similarity is in [0,1], reflexive (sim(v,v)=1) and symmetric.
	Similarity(a, b *Vector) float64

	Clone(v *Vector) *Vector
	Equal(a, b *Vector) bool

	Serialize(v *Vector) (*SerializedVector, error)
	Deserialize(s *SerializedVector) (*Vector, error)
}

// Decoder is an optional strategy capability: resolve an approximate vector
// directly against a bounded named domain without generic scanning. The
// sparse strategy implements it via exponent overlap.
type Decoder interface {
	DecodeCandidates(approx *Vector, domain []NamedVector, limit int) []Match
}

// NamedVector pairs a vocabulary term with its vector.
type NamedVector struct {
	Name   string
	Vector *Vector
}

// Match is a scored vocabulary hit.
type Match struct {
	Name       string
	Similarity float64
}

// =============================================================================
// GENERIC ALGEBRA HELPERS
// =============================================================================

// BindAll folds Bind left-to-right over vectors. Panics on empty input.
func BindAll(s Strategy, vectors ...*Vector) *Vector {
	if len(vectors) == 0 {
		panic("hdc: BindAll requires at least one vector")
	}
	acc := vectors[0]
	for _, v := range vectors[1:] {
		acc = s.Bind(acc, v)
	}
	return acc
}

// Distance is 1 - Similarity.
func Distance(s Strategy, a, b *Vector) float64 {
	return 1 - s.Similarity(a, b)
}

// IsOrthogonal reports whether a and b are no more similar than the
// strategy's random baseline plus threshold. A negative threshold selects
// the strategy's default margin.
func IsOrthogonal(s Strategy, a, b *Vector, threshold float64) bool {
	p := s.Profile()
	if threshold < 0 {
		threshold = p.OrthogonalityMargin
	}
	return s.Similarity(a, b) <= p.RandomBaseline+threshold
}

// TopKSimilar scores query against every vocabulary entry and returns the k
// best matches, highest similarity first. Ties break on name for
// deterministic ordering.
func TopKSimilar(s Strategy, query *Vector, vocabulary []NamedVector, k int) []Match {
	if k <= 0 || len(vocabulary) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(vocabulary))
	for _, nv := range vocabulary {
		matches = append(matches, Match{Name: nv.Name, Similarity: s.Similarity(query, nv.Vector)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Name < matches[j].Name
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps strategy tags to implementations. It is constructed once and
// passed by reference to every component that needs it; there is no ambient
// "current strategy" state anywhere in this package.
type Registry struct {
	strategies map[StrategyID]Strategy
}

// NewRegistry builds a registry over the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[StrategyID]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.ID()] = s
	}
	return r
}

// DefaultRegistry returns a registry holding all built-in strategies, each
// seeded for reproducible NewRandom streams.
func DefaultRegistry(seed uint64) *Registry {
	return NewRegistry(
		NewDenseStrategy(seed),
		NewSparseStrategy(seed),
		NewBipolarStrategy(seed),
	)
}

// Strategy looks up a strategy by tag.
func (r *Registry) Strategy(id StrategyID) (Strategy, error) {
	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("hdc: unknown strategy %q", id)
	}
	return s, nil
}

// IDs lists registered strategy tags in sorted order.
func (r *Registry) IDs() []StrategyID {
	ids := make([]StrategyID, 0, len(r.strategies))
	for id := range r.strategies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Deserialize routes a serialized vector to the strategy named by its tag.
func (r *Registry) Deserialize(sv *SerializedVector) (*Vector, error) {
	s, err := r.Strategy(sv.StrategyID)
	if err != nil {
		return nil, err
	}
	return s.Deserialize(sv)
}

// checkOperands enforces the never-mix rule: combining vectors from two
// different strategies or geometries is a fatal usage error.
func checkOperands(id StrategyID, vectors ...*Vector) {
	for _, v := range vectors {
		if v == nil {
			panic(fmt.Sprintf("hdc: nil vector passed to %s operation", id))
		}
		if v.strategy != id {
			panic(fmt.Sprintf("hdc: strategy mismatch: %s operation on %s vector", id, v.strategy))
		}
	}
	for _, v := range vectors[1:] {
		if v.geometry != vectors[0].geometry {
			panic(fmt.Sprintf("hdc: geometry mismatch: %s vs %s", vectors[0].geometry, v.geometry))
		}
	}
}
