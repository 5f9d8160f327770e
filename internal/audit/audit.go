package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one recorded user action
type Event struct {
	ID        int64
	Timestamp time.Time
	Operation string
	Username  string
	Details   string
}

// Log is the sqlite-backed activity log. It records logins, signups,
// session changes, and message exchanges for later review.
type Log struct {
	db *sql.DB
}

// Open creates or opens the activity database at path
func Open(path string) (*Log, error) {
	// WAL mode for concurrent access, busy timeout for write contention
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open activity database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping activity database: %w", err)
	}

	l := &Log{db: db}
	if err := l.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return l, nil
}

// migrate creates the schema in a transaction
func (l *Log) migrate(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query := `
		CREATE TABLE IF NOT EXISTS activity_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			operation TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			details TEXT
		)
	`
	if _, err = tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create activity_log table: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_activity_username ON activity_log(username)`
	if _, err = tx.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}

	index = `CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_log(timestamp)`
	if _, err = tx.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create timestamp index: %w", err)
	}

	return tx.Commit()
}

// Record inserts one event
func (l *Log) Record(ctx context.Context, operation, username, details string) error {
	if operation == "" {
		return fmt.Errorf("operation is required")
	}

	query := `INSERT INTO activity_log (operation, username, details) VALUES (?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, query, operation, username, details); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first
func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, timestamp, operation, username, COALESCE(details, '')
		FROM activity_log
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Operation, &e.Username, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecentForUser returns the newest events for one user
func (l *Log) RecentForUser(ctx context.Context, username string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, timestamp, operation, username, COALESCE(details, '')
		FROM activity_log
		WHERE username = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := l.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Operation, &e.Username, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database connection
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
