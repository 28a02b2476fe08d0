// Package session persists diagnosis runs. Every forward or backward
// run becomes a session row plus its reasoning trace, so past
// consultations can be listed and replayed.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"pakar/internal/engine"
)

// Mode distinguishes the two chaining strategies.
type Mode string

const (
	ModeForward  Mode = "forward"
	ModeBackward Mode = "backward"
)

// Record is one persisted diagnosis session.
type Record struct {
	ID        string            `json:"id"`
	Mode      Mode              `json:"mode"`
	StartedAt time.Time         `json:"started_at"`
	Symptoms  []engine.Fact     `json:"symptoms,omitempty"`
	Goals     []engine.Fact     `json:"goals,omitempty"`
	Results   []ResultEntry     `json:"results"`
	Events    []engine.Event    `json:"events,omitempty"`
	Stats     map[string]string `json:"stats,omitempty"`
}

// ResultEntry is one ranked conclusion within a session.
type ResultEntry struct {
	Fact       engine.Fact `json:"fact"`
	Confidence float64     `json:"confidence"`
	Proved     bool        `json:"proved"`
}

// Store manages the session database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewStore creates or opens the session store at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		symptoms_json TEXT,
		goals_json TEXT,
		results_json TEXT NOT NULL,
		stats_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_mode ON sessions(mode);

	CREATE TABLE IF NOT EXISTS trace_events (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		type TEXT NOT NULL,
		event_json TEXT NOT NULL,
		PRIMARY KEY (session_id, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save persists a session and its trace. A missing ID is assigned.
func (s *Store) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	symptomsJSON, _ := json.Marshal(rec.Symptoms)
	goalsJSON, _ := json.Marshal(rec.Goals)
	resultsJSON, _ := json.Marshal(rec.Results)
	statsJSON, _ := json.Marshal(rec.Stats)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, mode, started_at, symptoms_json, goals_json, results_json, stats_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Mode), rec.StartedAt, symptomsJSON, goalsJSON, resultsJSON, statsJSON)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	for i, ev := range rec.Events {
		eventJSON, _ := json.Marshal(ev)
		_, err = tx.Exec(`
			INSERT INTO trace_events (session_id, seq, timestamp, type, event_json)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, i, ev.Timestamp, string(ev.Type), eventJSON)
		if err != nil {
			return fmt.Errorf("failed to save trace event: %w", err)
		}
	}

	return tx.Commit()
}

// Get loads one session by ID, including its trace.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, mode, started_at, symptoms_json, goals_json, results_json, stats_json
		FROM sessions WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT event_json FROM trace_events WHERE session_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trace: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ev engine.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("corrupt trace event in session %s: %w", id, err)
		}
		rec.Events = append(rec.Events, ev)
	}
	return rec, rows.Err()
}

// List returns the most recent sessions, newest first, without traces.
func (s *Store) List(limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, mode, started_at, symptoms_json, goals_json, results_json, stats_json
		FROM sessions ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored sessions.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}

// Delete removes a session and its trace.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM trace_events WHERE session_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec         Record
		mode        string
		symptomsRaw []byte
		goalsRaw    []byte
		resultsRaw  []byte
		statsRaw    []byte
	)
	err := row.Scan(&rec.ID, &mode, &rec.StartedAt, &symptomsRaw, &goalsRaw, &resultsRaw, &statsRaw)
	if err != nil {
		return nil, err
	}
	rec.Mode = Mode(mode)
	if len(symptomsRaw) > 0 {
		json.Unmarshal(symptomsRaw, &rec.Symptoms)
	}
	if len(goalsRaw) > 0 {
		json.Unmarshal(goalsRaw, &rec.Goals)
	}
	if len(resultsRaw) > 0 {
		json.Unmarshal(resultsRaw, &rec.Results)
	}
	if len(statsRaw) > 0 {
		json.Unmarshal(statsRaw, &rec.Stats)
	}
	return &rec, nil
}
