package kb

import "holograph/internal/hdc"

// Fact encoding order, fixed for every strategy: each argument is bound into
// its role via Bind(position_i, entity_i); the role-bound arguments are
// folded together left-to-right with BindAll; the operator vector is bound
// last. All built-in binds are commutative and associative, so the fold
// order cannot change the result, but it is fixed anyway so lossy strategies
// trim identically on every encode.

// EncodeFact produces the record vector for operator(args...).
func EncodeFact(s hdc.Strategy, g hdc.Geometry, operator string, args []string) *hdc.Vector {
	record := hdc.OperatorVector(s, operator, g)
	for i, arg := range args {
		bound := s.Bind(hdc.PositionVector(s, i, g), hdc.EntityVector(s, arg, g))
		record = s.Bind(record, bound)
	}
	return record
}

// EncodePartial produces the partial query vector for a statement whose
// arguments are only partially known: the operator bound with every
// role-bound known argument. Unbinding it (and the hole's position vector)
// from the KB bundle leaves an approximation of the hole's filler.
func EncodePartial(s hdc.Strategy, g hdc.Geometry, operator string, knowns map[int]string) *hdc.Vector {
	partial := hdc.OperatorVector(s, operator, g)
	// Deterministic slot order; map iteration order must not leak into
	// lossy-strategy trimming.
	for i := 0; i < maxSlot(knowns)+1; i++ {
		value, ok := knowns[i]
		if !ok {
			continue
		}
		bound := s.Bind(hdc.PositionVector(s, i, g), hdc.EntityVector(s, value, g))
		partial = s.Bind(partial, bound)
	}
	return partial
}

func maxSlot(knowns map[int]string) int {
	max := -1
	for i := range knowns {
		if i > max {
			max = i
		}
	}
	return max
}
