// Package store persists finished study sessions for the history command.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore implements core.SessionStore with SQLite storage.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB // Write connection
	readDB *sql.DB // Read-only connection
	mu     sync.RWMutex

	maxRetries    int
	baseRetryWait time.Duration
}

// Option configures the store.
type Option func(*SQLiteStore)

// WithRetry tunes the busy-retry behavior.
func WithRetry(maxRetries int, baseWait time.Duration) Option {
	return func(s *SQLiteStore) {
		s.maxRetries = maxRetries
		s.baseRetryWait = baseWait
	}
}

// NewSQLiteStore creates a new SQLite-backed session store.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		dbPath:        dbPath,
		maxRetries:    5,
		baseRetryWait: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	// Single write connection with WAL mode.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening write database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	readDB, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(1000)")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening read database: %w", err)
	}
	readDB.SetMaxOpenConns(10)
	readDB.SetMaxIdleConns(5)
	readDB.SetConnMaxLifetime(5 * time.Minute)
	s.readDB = readDB

	if err := s.migrate(); err != nil {
		_ = db.Close()
		_ = readDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	migrations := []string{migrationV1}
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}
		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing migration v%d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}

	return nil
}

// splitStatements splits a SQL script into individual statements.
func splitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		lines := strings.Split(stmt, "\n")
		var sqlLines []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				sqlLines = append(sqlLines, line)
			}
		}
		if len(sqlLines) > 0 {
			statements = append(statements, strings.Join(sqlLines, "\n"))
		}
	}
	return statements
}

// retryWrite executes a write operation, retrying on SQLITE_BUSY.
func (s *SQLiteStore) retryWrite(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := fn(); err != nil {
			if isSQLiteBusy(err) {
				lastErr = err
				wait := s.baseRetryWait * time.Duration(1<<attempt)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
					continue
				}
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d retries: %w", operation, s.maxRetries, lastErr)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// SaveSession persists a session with its results and exchanges.
// Saving the same ID again replaces the previous rows.
func (s *SQLiteStore) SaveSession(ctx context.Context, rec *core.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryWrite(ctx, "SaveSession", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, document, summary, report, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document = excluded.document,
				summary = excluded.summary,
				report = excluded.report,
				created_at = excluded.created_at
		`,
			string(rec.ID),
			rec.Document,
			rec.Summary,
			rec.Report,
			createdAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("upserting session: %w", err)
		}

		// Replace results wholesale; exchanges cascade.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM section_results WHERE session_id = ?", string(rec.ID),
		); err != nil {
			return fmt.Errorf("clearing old results: %w", err)
		}

		for _, res := range rec.Results {
			var score sql.NullFloat64
			if res.ComplexityScore != nil {
				score = sql.NullFloat64{Float64: *res.ComplexityScore, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO section_results (session_id, section_index, status, complexity_score, error)
				VALUES (?, ?, ?, ?, ?)
			`, string(rec.ID), res.SectionIndex, string(res.Status), score, res.Error); err != nil {
				return fmt.Errorf("inserting section %d: %w", res.SectionIndex, err)
			}

			for _, ex := range res.Exchanges() {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO exchanges (session_id, section_index, kind, ordinal, question, answer)
					VALUES (?, ?, ?, ?, ?, ?)
				`, string(rec.ID), res.SectionIndex, string(ex.Kind), ex.Ordinal, ex.Question, ex.Answer); err != nil {
					return fmt.Errorf("inserting exchange %d/%d: %w", res.SectionIndex, ex.Ordinal, err)
				}
			}
		}

		return tx.Commit()
	})
}

// LoadSession retrieves a session by ID. Returns nil without error if
// the session does not exist.
func (s *SQLiteStore) LoadSession(ctx context.Context, id core.SessionID) (*core.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.readDB.QueryRowContext(ctx, `
		SELECT id, document, summary, report, created_at
		FROM sessions WHERE id = ?
	`, string(id))

	var rec core.SessionRecord
	var recID, createdAt string
	var summary, report sql.NullString

	err := row.Scan(&recID, &rec.Document, &summary, &report, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	rec.ID = core.SessionID(recID)
	rec.Summary = summary.String
	rec.Report = report.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	results, err := s.loadResults(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Results = results

	return &rec, nil
}

func (s *SQLiteStore) loadResults(ctx context.Context, id core.SessionID) ([]core.SectionResult, error) {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT section_index, status, complexity_score, error
		FROM section_results WHERE session_id = ?
		ORDER BY section_index
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []core.SectionResult
	for rows.Next() {
		var res core.SectionResult
		var status string
		var score sql.NullFloat64
		var errMsg sql.NullString
		if err := rows.Scan(&res.SectionIndex, &status, &score, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		res.Status = core.SectionStatus(status)
		if score.Valid {
			v := score.Float64
			res.ComplexityScore = &v
		}
		res.Error = errMsg.String
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	for i := range results {
		if err := s.loadExchanges(ctx, id, &results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *SQLiteStore) loadExchanges(ctx context.Context, id core.SessionID, res *core.SectionResult) error {
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT kind, ordinal, question, answer
		FROM exchanges WHERE session_id = ? AND section_index = ?
		ORDER BY ordinal
	`, string(id), res.SectionIndex)
	if err != nil {
		return fmt.Errorf("querying exchanges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ex core.Exchange
		var kind string
		if err := rows.Scan(&kind, &ex.Ordinal, &ex.Question, &ex.Answer); err != nil {
			return fmt.Errorf("scanning exchange: %w", err)
		}
		ex.Kind = core.ExchangeKind(kind)
		if ex.Kind == core.ExchangeMain {
			main := ex
			res.Main = &main
			continue
		}
		res.Followups = append(res.Followups, ex)
	}
	return rows.Err()
}

// ListSessions returns summaries of all sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]core.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readDB.QueryContext(ctx, `
		SELECT
			s.id,
			s.document,
			s.created_at,
			COUNT(DISTINCT r.section_index),
			COUNT(DISTINCT CASE WHEN r.status != 'done' THEN r.section_index END),
			(SELECT COUNT(*) FROM exchanges e WHERE e.session_id = s.id)
		FROM sessions s
		LEFT JOIN section_results r ON r.session_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []core.SessionSummary
	for rows.Next() {
		var sum core.SessionSummary
		var id, createdAt string
		if err := rows.Scan(&id, &sum.Document, &createdAt, &sum.SectionCount, &sum.FailedCount, &sum.ExchangeCount); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		sum.ID = core.SessionID(id)
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteSession removes a session and its results.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id core.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryWrite(ctx, "DeleteSession", func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", string(id))
		if err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking delete: %w", err)
		}
		if affected == 0 {
			return core.ErrState(core.CodeSessionNotFound, fmt.Sprintf("session %s not found", id))
		}
		return nil
	})
}

// Close releases both database connections.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if err := s.readDB.Close(); err != nil {
		firstErr = err
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
