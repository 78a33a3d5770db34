package hdc

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// nameSeed derives a 64-bit seed from (strategy, scope, name, geometry).
// The hash input is length-prefixed so "ab"+"c" and "a"+"bc" cannot collide.
func nameSeed(id StrategyID, name string, g Geometry, scope string) uint64 {
	h := sha256.New()
	for _, part := range []string{string(id), scope, name} {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(part)))
		h.Write(lenBuf[:])
		h.Write([]byte(part))
	}
	fmt.Fprintf(h, "|%d|%d", g.Dimensions, g.Density)
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// splitmix64 is a tiny deterministic PRNG used to expand a name seed into a
// full payload. Quality is sufficient for quasi-orthogonal hypervectors and
// the output is stable across platforms, which math/rand does not promise
// across versions.
type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// nextBelow returns a uniform value in [0, bound) via rejection sampling.
func (s *splitmix64) nextBelow(bound uint64) uint64 {
	if bound == 0 {
		panic("hdc: zero bound")
	}
	limit := ^uint64(0) - ^uint64(0)%bound
	for {
		v := s.next()
		if v < limit {
			return v % bound
		}
	}
}
