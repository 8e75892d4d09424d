package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"datapipe/internal/config"
)

// Store manages the download ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the ledger database under the state directory.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.LedgerPath())
}

// OpenPath opens the ledger at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an attempt. AttemptedAt defaults to now.
func (s *Store) Record(ctx context.Context, a Attempt) error {
	if a.Status != StatusFound && a.Status != StatusFailed {
		return fmt.Errorf("record attempt: unknown status %q", a.Status)
	}
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO attempts (run_id, move_id, name, link, status, file, error_message, attempted_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableString(a.RunID),
			a.MoveID,
			a.Name,
			nullableString(a.Link),
			a.Status,
			nullableString(a.File),
			nullableString(a.Error),
			a.AttemptedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
		return nil
	})
}

// Latest returns the most recent attempt for a move, or nil when none exists.
func (s *Store) Latest(ctx context.Context, moveID int) (*Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE move_id = ? ORDER BY id DESC LIMIT 1`, moveID)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest attempt: %w", err)
	}
	return a, nil
}

// FoundIDs returns the move ids whose latest attempt succeeded.
func (s *Store) FoundIDs(ctx context.Context) (map[int]string, error) {
	attempts, err := s.latestByStatus(ctx, StatusFound)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(attempts))
	for _, a := range attempts {
		out[a.MoveID] = a.File
	}
	return out, nil
}

// Failed returns the latest attempt of every move whose last try failed,
// ordered by move id.
func (s *Store) Failed(ctx context.Context) ([]Attempt, error) {
	return s.latestByStatus(ctx, StatusFailed)
}

// Stats counts moves by the status of their latest attempt.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM attempts
         WHERE id IN (SELECT MAX(id) FROM attempts GROUP BY move_id)
         GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Clear removes every attempt.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM attempts`)
		if err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (s *Store) latestByStatus(ctx context.Context, status Status) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts
         WHERE id IN (SELECT MAX(id) FROM attempts GROUP BY move_id) AND status = ?
         ORDER BY move_id`, status)
	if err != nil {
		return nil, fmt.Errorf("query %s attempts: %w", status, err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

const attemptColumns = "id, run_id, move_id, name, link, status, file, error_message, attempted_at"

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (*Attempt, error) {
	var (
		a          Attempt
		runID      sql.NullString
		link       sql.NullString
		status     string
		file       sql.NullString
		errMessage sql.NullString
		attempted  string
	)
	if err := scanner.Scan(&a.ID, &runID, &a.MoveID, &a.Name, &link, &status, &file, &errMessage, &attempted); err != nil {
		return nil, err
	}
	a.RunID = runID.String
	a.Link = link.String
	a.Status = Status(status)
	a.File = file.String
	a.Error = errMessage.String
	if t, err := time.Parse(time.RFC3339Nano, attempted); err == nil {
		a.AttemptedAt = t
	}
	return &a, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
