package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/branchtale/pkg/domain"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func encodeList(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(encoded), nil
}

func decodeList(value string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(value), &values); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	return values, nil
}

// Store implements ports.TranscriptStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at path and migrates it.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New binds a Store to an existing database handle and migrates it.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a transcript.
func (s *Store) Save(ctx context.Context, t *domain.Transcript) error {
	if t.SessionID == "" {
		return fmt.Errorf("save transcript: session id is empty")
	}
	inputs, err := encodeList(t.Inputs)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	history, err := encodeList(t.History)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcripts (session_id, story_id, inputs, history, outcome, text, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			story_id = excluded.story_id,
			inputs = excluded.inputs,
			history = excluded.history,
			outcome = excluded.outcome,
			text = excluded.text,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at`,
		t.SessionID, t.StoryID, inputs, history, string(t.Outcome), t.Text, toMillis(t.StartedAt), toMillis(t.EndedAt))
	if err != nil {
		return fmt.Errorf("save transcript: upsert: %w", err)
	}
	return nil
}

// Load retrieves a transcript.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	var (
		t          domain.Transcript
		inputsRaw  string
		historyRaw string
		outcome    string
		startedAt  int64
		endedAt    int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, story_id, inputs, history, outcome, text, started_at, ended_at
		FROM transcripts WHERE session_id = ?`, sessionID).
		Scan(&t.SessionID, &t.StoryID, &inputsRaw, &historyRaw, &outcome, &t.Text, &startedAt, &endedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("load transcript: select: %w", err)
	}

	if t.Inputs, err = decodeList(inputsRaw); err != nil {
		return nil, fmt.Errorf("load transcript: inputs: %w", err)
	}
	if t.History, err = decodeList(historyRaw); err != nil {
		return nil, fmt.Errorf("load transcript: history: %w", err)
	}
	t.Outcome = domain.OutcomeTag(outcome)
	t.StartedAt = fromMillis(startedAt)
	t.EndedAt = fromMillis(endedAt)
	return &t, nil
}

// Delete removes a transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

// List returns archived session IDs, most recent first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM transcripts ORDER BY ended_at DESC, session_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: select: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list transcripts: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transcripts: rows: %w", err)
	}
	return ids, nil
}
