// Package store persists holograph sessions to SQLite: facts, learned rules
// and operator metadata, keyed by session name. Vectors are deliberately not
// stored; they are deterministic derivations and are always re-encoded on
// load.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"holograph/internal/logging"
)

// Store wraps the SQLite session database.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Session is the stored session header.
type Session struct {
	ID         string
	Name       string
	Strategy   string
	Dimensions int
	Density    int
	UpdatedAt  time.Time
}

// FactRecord is one persisted fact row.
type FactRecord struct {
	ID       string
	Operator string
	Args     []string
	Source   string
	Proof    []string
}

// RuleRecord is one persisted rule row.
type RuleRecord struct {
	Name       string
	Conclusion string
	Premises   []string
	Source     string
}

// MetaRecord is one operator-metadata mark: kind is transitive, graph,
// inheritable or meta.
type MetaRecord struct {
	Operator string
	Kind     string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "open store")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("failed to set sqlite synchronous=NORMAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("failed to enable sqlite foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.Store("session store ready at %s", path)
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		strategy    TEXT NOT NULL,
		dimensions  INTEGER NOT NULL,
		density     INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS facts (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		operator    TEXT NOT NULL,
		args        TEXT NOT NULL,
		source      TEXT NOT NULL DEFAULT 'asserted',
		proof       TEXT,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_facts_session  ON facts(session_id);
	CREATE INDEX IF NOT EXISTS idx_facts_operator ON facts(session_id, operator);

	CREATE TABLE IF NOT EXISTS rules (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		conclusion  TEXT NOT NULL,
		premises    TEXT NOT NULL,
		source      TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_rules_session ON rules(session_id);

	CREATE TABLE IF NOT EXISTS operator_meta (
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		operator    TEXT NOT NULL,
		kind        TEXT NOT NULL,
		PRIMARY KEY (session_id, operator, kind)
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveSession replaces the stored state of one named session in a single
// transaction. The geometry header lets a load reject strategy mismatches
// before any re-encoding happens.
func (s *Store) SaveSession(ctx context.Context, session Session, facts []FactRecord, rules []RuleRecord, meta []MetaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "save session "+session.Name)
	defer timer.Stop()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	sessionID, err := upsertSession(ctx, tx, session)
	if err != nil {
		return err
	}
	for _, table := range []string{"facts", "rules", "operator_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, f := range facts {
		args, err := json.Marshal(f.Args)
		if err != nil {
			return fmt.Errorf("marshal args for %s: %w", f.Operator, err)
		}
		proof, err := json.Marshal(f.Proof)
		if err != nil {
			return fmt.Errorf("marshal proof for %s: %w", f.Operator, err)
		}
		id := f.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO facts (id, session_id, operator, args, source, proof) VALUES (?, ?, ?, ?, ?, ?)",
			id, sessionID, f.Operator, string(args), f.Source, string(proof)); err != nil {
			return fmt.Errorf("insert fact %s: %w", f.Operator, err)
		}
	}

	for _, r := range rules {
		premises, err := json.Marshal(r.Premises)
		if err != nil {
			return fmt.Errorf("marshal premises for %s: %w", r.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO rules (id, session_id, name, conclusion, premises, source) VALUES (?, ?, ?, ?, ?, ?)",
			uuid.NewString(), sessionID, r.Name, r.Conclusion, string(premises), r.Source); err != nil {
			return fmt.Errorf("insert rule %s: %w", r.Name, err)
		}
	}

	for _, m := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO operator_meta (session_id, operator, kind) VALUES (?, ?, ?)",
			sessionID, m.Operator, m.Kind); err != nil {
			return fmt.Errorf("insert operator meta %s/%s: %w", m.Operator, m.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	logging.Store("saved session %s: %d facts, %d rules, %d meta marks",
		session.Name, len(facts), len(rules), len(meta))
	return nil
}

func upsertSession(ctx context.Context, tx *sql.Tx, session Session) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM sessions WHERE name = ?", session.Name).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = session.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sessions (id, name, strategy, dimensions, density) VALUES (?, ?, ?, ?, ?)",
			id, session.Name, session.Strategy, session.Dimensions, session.Density); err != nil {
			return "", fmt.Errorf("insert session %s: %w", session.Name, err)
		}
	case err != nil:
		return "", fmt.Errorf("lookup session %s: %w", session.Name, err)
	default:
		if _, err := tx.ExecContext(ctx,
			"UPDATE sessions SET strategy = ?, dimensions = ?, density = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			session.Strategy, session.Dimensions, session.Density, id); err != nil {
			return "", fmt.Errorf("update session %s: %w", session.Name, err)
		}
	}
	return id, nil
}

// GetSession returns the stored header for a named session.
func (s *Store) GetSession(ctx context.Context, name string) (*Session, error) {
	var session Session
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, strategy, dimensions, density, updated_at FROM sessions WHERE name = ?", name).
		Scan(&session.ID, &session.Name, &session.Strategy, &session.Dimensions, &session.Density, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session %s: %w", name, err)
	}
	return &session, nil
}

// ListSessions returns all stored session headers, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, strategy, dimensions, density, updated_at FROM sessions ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.ID, &session.Name, &session.Strategy, &session.Dimensions, &session.Density, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// LoadFacts returns all persisted facts of a session.
func (s *Store) LoadFacts(ctx context.Context, sessionID string) ([]FactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, operator, args, source, proof FROM facts WHERE session_id = ? ORDER BY created_at, id", sessionID)
	if err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	defer rows.Close()

	var facts []FactRecord
	for rows.Next() {
		var f FactRecord
		var args string
		var proof sql.NullString
		if err := rows.Scan(&f.ID, &f.Operator, &args, &f.Source, &proof); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &f.Args); err != nil {
			return nil, fmt.Errorf("decode args for fact %s: %w", f.ID, err)
		}
		if proof.Valid && proof.String != "" {
			if err := json.Unmarshal([]byte(proof.String), &f.Proof); err != nil {
				return nil, fmt.Errorf("decode proof for fact %s: %w", f.ID, err)
			}
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// LoadRules returns all persisted rules of a session.
func (s *Store) LoadRules(ctx context.Context, sessionID string) ([]RuleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, conclusion, premises, source FROM rules WHERE session_id = ? ORDER BY name", sessionID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()

	var rules []RuleRecord
	for rows.Next() {
		var r RuleRecord
		var premises string
		if err := rows.Scan(&r.Name, &r.Conclusion, &premises, &r.Source); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(premises), &r.Premises); err != nil {
			return nil, fmt.Errorf("decode premises for rule %s: %w", r.Name, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// LoadMeta returns all persisted operator-metadata marks of a session.
func (s *Store) LoadMeta(ctx context.Context, sessionID string) ([]MetaRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT operator, kind FROM operator_meta WHERE session_id = ? ORDER BY operator, kind", sessionID)
	if err != nil {
		return nil, fmt.Errorf("load operator meta: %w", err)
	}
	defer rows.Close()

	var meta []MetaRecord
	for rows.Next() {
		var m MetaRecord
		if err := rows.Scan(&m.Operator, &m.Kind); err != nil {
			return nil, fmt.Errorf("scan operator meta: %w", err)
		}
		meta = append(meta, m)
	}
	return meta, rows.Err()
}

// DeleteSession removes a session and everything it owns.
func (s *Store) DeleteSession(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", name, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("session %q not found", name)
	}
	logging.Store("deleted session %s", name)
	return nil
}
