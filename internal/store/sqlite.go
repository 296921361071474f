package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/briefbot/internal/domain"
	"github.com/ashureev/briefbot/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements SessionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writes to avoid SQLITE_BUSY
}

var _ SessionStore = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed session store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets the webhook read sessions while another event writes.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		current_step TEXT NOT NULL,
		answers_json TEXT NOT NULL,
		pending_json TEXT,
		brief_number TEXT,
		edit_mode INTEGER NOT NULL DEFAULT 0,
		stage TEXT NOT NULL,
		profile_json TEXT,
		completed_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_review ON sessions(completed_at) WHERE stage = 'review';

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Get retrieves the session for a user.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	query := `
		SELECT user_id, current_step, answers_json, pending_json, brief_number,
		       edit_mode, stage, profile_json, completed_at, created_at, updated_at
		FROM sessions WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var session domain.Session
	var answersJSON string
	var pendingJSON, briefNumber, profileJSON sql.NullString
	var completedAt sql.NullInt64
	var createdAt, updatedAt int64
	var stage string

	err := row.Scan(
		&session.UserID, &session.CurrentStep, &answersJSON, &pendingJSON, &briefNumber,
		&session.EditMode, &stage, &profileJSON, &completedAt, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(answersJSON), &session.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if session.Answers == nil {
		session.Answers = make(map[string]domain.Answer)
	}
	if pendingJSON.Valid && pendingJSON.String != "" {
		if err := json.Unmarshal([]byte(pendingJSON.String), &session.Pending); err != nil {
			return nil, fmt.Errorf("decode pending selection: %w", err)
		}
	}
	if profileJSON.Valid && profileJSON.String != "" {
		if err := json.Unmarshal([]byte(profileJSON.String), &session.Profile); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	if completedAt.Valid {
		ts := time.Unix(completedAt.Int64, 0)
		session.CompletedAt = &ts
	}
	session.BriefNumber = briefNumber.String
	session.Stage = domain.Stage(stage)
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	return &session, nil
}

// Set creates or replaces the session for its user.
func (s *SQLiteStore) Set(ctx context.Context, session *domain.Session) error {
	answersJSON, err := json.Marshal(session.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	pendingJSON, err := json.Marshal(session.Pending)
	if err != nil {
		return fmt.Errorf("encode pending selection: %w", err)
	}
	profileJSON, err := json.Marshal(session.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	var completedAt interface{}
	if session.CompletedAt != nil {
		completedAt = session.CompletedAt.Unix()
	}
	var briefNumber interface{}
	if session.BriefNumber != "" {
		briefNumber = session.BriefNumber
	}
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO sessions (
			user_id, current_step, answers_json, pending_json, brief_number,
			edit_mode, stage, profile_json, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_step = excluded.current_step,
			answers_json = excluded.answers_json,
			pending_json = excluded.pending_json,
			brief_number = excluded.brief_number,
			edit_mode = excluded.edit_mode,
			stage = excluded.stage,
			profile_json = excluded.profile_json,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`

	return s.write(ctx, "set session", session.UserID, func() error {
		_, err := s.db.ExecContext(ctx, query,
			session.UserID, session.CurrentStep, string(answersJSON), string(pendingJSON), briefNumber,
			session.EditMode, string(session.Stage), string(profileJSON), completedAt,
			createdAt.Unix(), time.Now().Unix(),
		)
		return err
	})
}

// Update applies the non-nil fields of patch to the stored session.
func (s *SQLiteStore) Update(ctx context.Context, userID string, patch domain.SessionPatch) error {
	var step, pending, editMode, stage interface{}
	if patch.CurrentStep != nil {
		step = *patch.CurrentStep
	}
	if patch.Pending != nil {
		raw, err := json.Marshal(*patch.Pending)
		if err != nil {
			return fmt.Errorf("encode pending selection: %w", err)
		}
		pending = string(raw)
	}
	if patch.EditMode != nil {
		editMode = *patch.EditMode
	}
	if patch.Stage != nil {
		stage = string(*patch.Stage)
	}

	query := `
		UPDATE sessions SET
			current_step = COALESCE(?, current_step),
			pending_json = COALESCE(?, pending_json),
			edit_mode = COALESCE(?, edit_mode),
			stage = COALESCE(?, stage),
			updated_at = ?
		WHERE user_id = ?`

	return s.write(ctx, "update session", userID, func() error {
		result, err := s.db.ExecContext(ctx, query, step, pending, editMode, stage, time.Now().Unix(), userID)
		if err != nil {
			return err
		}
		if rows, err := result.RowsAffected(); err == nil && rows == 0 {
			slog.Warn("Session update affected 0 rows", "user_id", userID)
		}
		return nil
	})
}

// Delete removes the session for a user.
func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	return s.write(ctx, "delete session", userID, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
		return err
	})
}

// IncrementCounter adds one to the named counter in a single statement.
func (s *SQLiteStore) IncrementCounter(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO counters (name, value) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`

	var value int64
	err := s.write(ctx, "increment counter", name, func() error {
		return s.db.QueryRowContext(ctx, query, name).Scan(&value)
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// ListReviewBefore returns users whose review window started before cutoff.
func (s *SQLiteStore) ListReviewBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `SELECT user_id FROM sessions WHERE stage = ? AND completed_at < ?`

	rows, err := s.db.QueryContext(ctx, query, string(domain.StageReview), cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("query review sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close review sessions rows", "error", closeErr)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan review session row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review sessions: %w", err)
	}
	return ids, nil
}

// write runs fn under the write lock, retrying with exponential backoff
// while SQLite reports the database as busy or locked.
func (s *SQLiteStore) write(ctx context.Context, op, key string, fn func() error) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		s.mu.Lock()
		err = fn()
		s.mu.Unlock()
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms, 200ms
		slog.Debug("SQLite busy, retrying", "op", op, "key", key, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
