package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SessionState is the full persisted content of one session.
type SessionState struct {
	Session Session
	Facts   []FactRecord
	Rules   []RuleRecord
	Meta    []MetaRecord
}

// LoadSession fetches a session header and its facts, rules and metadata.
// The three table loads run concurrently; sqlite serializes them on the
// single connection but the decode work overlaps.
func (s *Store) LoadSession(ctx context.Context, name string) (*SessionState, error) {
	session, err := s.GetSession(ctx, name)
	if err != nil {
		return nil, err
	}

	state := &SessionState{Session: *session}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		state.Facts, err = s.LoadFacts(gctx, session.ID)
		return err
	})
	g.Go(func() error {
		var err error
		state.Rules, err = s.LoadRules(gctx, session.ID)
		return err
	})
	g.Go(func() error {
		var err error
		state.Meta, err = s.LoadMeta(gctx, session.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}
	return state, nil
}
