package hdc

import "testing"

func TestBipolarIdentityAndInverse(t *testing.T) {
	s := NewBipolarStrategy(7)
	g := Geometry{Dimensions: 4096}

	v := s.NewFromName("v", g, ScopeEntity)
	identity := s.NewZero(g)

	if !s.Equal(s.Bind(v, identity), v) {
		t.Error("binding with the all-ones identity must be a no-op")
	}
	// Every vector is its own inverse under the elementwise product.
	if !s.Equal(s.Bind(v, v), identity) {
		t.Error("bind(v, v) must be the identity")
	}
}

func TestBipolarBundleMajority(t *testing.T) {
	s := NewBipolarStrategy(7)
	g := Geometry{Dimensions: 4096}

	inputs := []*Vector{
		s.NewFromName("a", g, ScopeEntity),
		s.NewFromName("b", g, ScopeEntity),
		s.NewFromName("c", g, ScopeEntity),
	}
	bundle := s.Bundle(inputs, nil)
	for i, in := range inputs {
		if sim := s.Similarity(bundle, in); sim < 0.65 {
			t.Errorf("input %d similarity to bundle = %.4f, want >= 0.65", i, sim)
		}
	}
}

func TestBipolarSerializationMapsSigns(t *testing.T) {
	s := NewBipolarStrategy(7)
	g := Geometry{Dimensions: 128}

	v := s.NewFromName("signs", g, ScopeEntity)
	sv, err := s.Serialize(v)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range sv.Data {
		if b != 0 && b != 1 {
			t.Fatalf("byte %d = %d, want 0 or 1", i, b)
		}
	}
	restored, err := s.Deserialize(sv)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(v, restored) {
		t.Error("round trip changed the vector")
	}

	sv.Data[0] = 7
	if _, err := s.Deserialize(sv); err == nil {
		t.Error("expected error for out-of-range payload byte")
	}
}
