package usage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// SQLiteStore implements Store using SQLite for persistence.
// It is suitable for single-instance deployments where quotas must survive
// restarts.
//
// The database runs in WAL mode with a single connection; SQLite only
// supports one writer.
type SQLiteStore struct {
	db        *sql.DB
	closeOnce sync.Once

	insertStmt  *sql.Stmt
	summaryStmt *sql.Stmt
	pruneStmt   *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// Path is the database file. ":memory:" is accepted for tests.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (creating if needed) the usage database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens the usage database with custom settings.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		trimmed INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_user_day ON usage_records(user_id, endpoint, created_at);
	CREATE INDEX IF NOT EXISTS idx_usage_created_at ON usage_records(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO usage_records (request_id, user_id, endpoint, model, input_tokens, output_tokens, trimmed, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.summaryStmt, err = s.db.Prepare(`
		SELECT COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM usage_records
		WHERE user_id = ? AND endpoint = ? AND created_at >= ? AND created_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare summary statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`DELETE FROM usage_records WHERE created_at < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Record persists rec.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	if rec.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	_, err := s.insertStmt.ExecContext(ctx,
		rec.RequestID,
		rec.UserID,
		string(rec.Endpoint),
		rec.Model,
		rec.InputTokens,
		rec.OutputTokens,
		rec.Trimmed,
		rec.CostUSD,
		rec.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Summary aggregates matching records for the UTC day containing day.
func (s *SQLiteStore) Summary(ctx context.Context, userID string, endpoint types.Endpoint, day time.Time) (*Summary, error) {
	from := dayStart(day)
	to := from.Add(24 * time.Hour)

	sum := &Summary{UserID: userID, Endpoint: endpoint, Day: from}
	err := s.summaryStmt.QueryRowContext(ctx, userID, string(endpoint), from.UnixMilli(), to.UnixMilli()).
		Scan(&sum.Requests, &sum.InputTokens, &sum.OutputTokens, &sum.CostUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	if sum.Requests == 0 {
		return nil, ErrNotFound
	}
	return sum, nil
}

// Prune deletes records older than olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database. It is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.summaryStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		closeErr = s.db.Close()
	})
	return closeErr
}
