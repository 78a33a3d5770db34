package hdc

import "fmt"

// Name-vector scopes. Scopes isolate namespaces: the operator "locatedIn"
// and an entity "locatedIn" must not collide on the same vector.
const (
	ScopeEntity   = "entity"
	ScopeOperator = "operator"
	ScopePosition = "position"
	ScopeContext  = "context"
)

// PositionVector returns the deterministic role vector for argument slot.
// It is a pure function of (slot, geometry, strategy): no hidden randomness,
// identical inputs always yield the identical vector.
func PositionVector(s Strategy, slot int, g Geometry) *Vector {
	if slot < 0 {
		panic(fmt.Sprintf("hdc: negative position slot %d", slot))
	}
	return s.NewFromName(fmt.Sprintf("slot-%d", slot), g, ScopePosition)
}

// OperatorVector returns the deterministic vector for an operator symbol.
func OperatorVector(s Strategy, operator string, g Geometry) *Vector {
	return s.NewFromName(operator, g, ScopeOperator)
}

// EntityVector returns the deterministic vector for an argument value.
func EntityVector(s Strategy, name string, g Geometry) *Vector {
	return s.NewFromName(name, g, ScopeEntity)
}
