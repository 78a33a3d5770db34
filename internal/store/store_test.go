package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(name string) Session {
	return Session{Name: name, Strategy: "dense", Dimensions: 8192}
}

func TestSaveAndLoadSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	facts := []FactRecord{
		{ID: "f1", Operator: "capitalOf", Args: []string{"Paris", "France"}, Source: "asserted"},
		{ID: "f2", Operator: "isA", Args: []string{"tweety", "bird"}, Source: "asserted", Proof: []string{"fact: isA(tweety, bird)"}},
	}
	rules := []RuleRecord{
		{Name: "gp", Conclusion: "grandparentOf", Premises: []string{"parentOf", "parentOf"},
			Source: "grandparentOf(X, Z) :- parentOf(X, Y), parentOf(Y, Z)."},
	}
	meta := []MetaRecord{
		{Operator: "ancestorOf", Kind: "transitive"},
		{Operator: "hasWings", Kind: "inheritable"},
	}
	require.NoError(t, s.SaveSession(ctx, testSession("default"), facts, rules, meta))

	state, err := s.LoadSession(ctx, "default")
	require.NoError(t, err)

	assert.Equal(t, "default", state.Session.Name)
	assert.Equal(t, "dense", state.Session.Strategy)
	assert.Equal(t, 8192, state.Session.Dimensions)
	assert.NotEmpty(t, state.Session.ID)

	require.Len(t, state.Facts, 2)
	assert.Equal(t, "capitalOf", state.Facts[0].Operator)
	assert.Equal(t, []string{"Paris", "France"}, state.Facts[0].Args)
	assert.Equal(t, []string{"fact: isA(tweety, bird)"}, state.Facts[1].Proof)

	require.Len(t, state.Rules, 1)
	assert.Equal(t, []string{"parentOf", "parentOf"}, state.Rules[0].Premises)
	assert.Contains(t, state.Rules[0].Source, ":-")

	require.Len(t, state.Meta, 2)
	assert.Equal(t, MetaRecord{Operator: "ancestorOf", Kind: "transitive"}, state.Meta[0])
}

func TestSaveSessionReplacesPriorState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []FactRecord{
		{Operator: "livesIn", Args: []string{"alice", "paris"}},
		{Operator: "livesIn", Args: []string{"bob", "berlin"}},
	}
	require.NoError(t, s.SaveSession(ctx, testSession("work"), first, nil, nil))

	before, err := s.GetSession(ctx, "work")
	require.NoError(t, err)

	second := []FactRecord{{Operator: "livesIn", Args: []string{"carol", "tokyo"}}}
	require.NoError(t, s.SaveSession(ctx, testSession("work"), second, nil, nil))

	state, err := s.LoadSession(ctx, "work")
	require.NoError(t, err)
	require.Len(t, state.Facts, 1, "save replaces, never appends")
	assert.Equal(t, "carol", state.Facts[0].Args[0])
	assert.Equal(t, before.ID, state.Session.ID, "session identity is stable across saves")
}

func TestSaveSessionPreservesFactIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	facts := []FactRecord{{ID: "fact-1", Operator: "capitalOf", Args: []string{"Paris", "France"}}}
	require.NoError(t, s.SaveSession(ctx, testSession("default"), facts, nil, nil))

	loaded, err := s.LoadSession(ctx, "default")
	require.NoError(t, err)
	require.Len(t, loaded.Facts, 1)
	assert.Equal(t, "fact-1", loaded.Facts[0].ID)
}

func TestListSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, testSession("alpha"), nil, nil, nil))
	require.NoError(t, s.SaveSession(ctx, Session{Name: "beta", Strategy: "sparse", Dimensions: 65536, Density: 32}, nil, nil, nil))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	byName := map[string]Session{}
	for _, sess := range sessions {
		byName[sess.Name] = sess
	}
	assert.Equal(t, 32, byName["beta"].Density)
	assert.Equal(t, "dense", byName["alpha"].Strategy)
}

func TestDeleteSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	facts := []FactRecord{{Operator: "capitalOf", Args: []string{"Paris", "France"}}}
	require.NoError(t, s.SaveSession(ctx, testSession("doomed"), facts, nil, nil))
	require.NoError(t, s.DeleteSession(ctx, "doomed"))

	_, err := s.GetSession(ctx, "doomed")
	assert.ErrorContains(t, err, "not found")

	err = s.DeleteSession(ctx, "doomed")
	assert.ErrorContains(t, err, "not found")
}

func TestLoadMissingSession(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadSession(context.Background(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestReopenSeesPersistedState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, testSession("default"),
		[]FactRecord{{Operator: "capitalOf", Args: []string{"Paris", "France"}}}, nil, nil))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	state, err := s.LoadSession(ctx, "default")
	require.NoError(t, err)
	require.Len(t, state.Facts, 1)
	assert.Equal(t, "capitalOf", state.Facts[0].Operator)
}
