package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryPath opens a private in-memory database. Used by tests and dry runs.
const MemoryPath = ":memory:"

// ErrDatabaseClosed is returned when an operation is attempted on a closed database.
var ErrDatabaseClosed = errors.New("database is closed")

// DB wraps the SQLite connection, the writer lock and the schema lifecycle.
type DB struct {
	closeErr  error
	db        *sql.DB
	lock      *LockFile
	logger    *slog.Logger
	dbPath    string
	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

// Options configures database initialization.
type Options struct {
	Logger      *slog.Logger
	Path        string
	LockTimeout time.Duration
	SkipLock    bool
	ReadOnly    bool
}

// DefaultDBPath returns the default database location
// ($XDG_DATA_HOME/wardrobe/wardrobe.db, falling back to ~/.local/share).
func DefaultDBPath() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "wardrobe", "wardrobe.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "wardrobe", "wardrobe.db"), nil
}

// Open opens the database, acquires the writer lock, and runs migrations.
// The caller must call Close() when done.
func Open(ctx context.Context, opts Options) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dbPath, err := resolveDBPath(opts)
	if err != nil {
		return nil, err
	}

	if dbPath == MemoryPath {
		sqlDB, err := openAndInit(ctx, dbPath, opts)
		if err != nil {
			return nil, err
		}
		return &DB{db: sqlDB, dbPath: dbPath, logger: logger}, nil
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	lock, err := acquireOpenLock(dbDir, opts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := openAndInit(ctx, dbPath, opts)
	if err != nil {
		if lock != nil {
			_ = lock.Release()
		}
		return nil, err
	}

	logger.Debug("database opened", "path", dbPath, "read_only", opts.ReadOnly)
	return &DB{db: sqlDB, lock: lock, dbPath: dbPath, logger: logger}, nil
}

func resolveDBPath(opts Options) (string, error) {
	if opts.Path != "" {
		return opts.Path, nil
	}
	return DefaultDBPath()
}

func acquireOpenLock(dbDir string, opts Options) (*LockFile, error) {
	if opts.SkipLock || opts.ReadOnly {
		return nil, nil
	}
	lockOpts := DefaultLockOptions()
	if opts.LockTimeout > 0 {
		lockOpts.Timeout = opts.LockTimeout
	}
	lock, err := AcquireLock(dbDir, lockOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire wardrobe lock: %w", err)
	}
	return lock, nil
}

func buildDSN(dbPath string, readOnly bool) string {
	if dbPath == MemoryPath {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	if readOnly {
		dsn += "&mode=ro"
	}
	return dsn
}

// openAndInit opens the SQLite database, configures it, pings it, and
// runs migrations.
func openAndInit(ctx context.Context, dbPath string, opts Options) (*sql.DB, error) {
	db, err := sql.Open("sqlite", buildDSN(dbPath, opts.ReadOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes every writer and keeps an in-memory
	// database alive for the lifetime of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !opts.ReadOnly {
		if err := RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

// Close checkpoints the WAL, closes the connection and releases the lock.
// It is safe to call Close multiple times.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		if d.db != nil {
			if d.dbPath != MemoryPath {
				_, _ = d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			}
			d.closeErr = d.db.Close()
		}
		if d.lock != nil {
			if err := d.lock.Release(); err != nil && d.closeErr == nil {
				d.closeErr = err
			}
		}
	})
	return d.closeErr
}

// DB returns the underlying sql.DB handed to the domain stores.
func (d *DB) DB() *sql.DB {
	return d.db
}

// Path returns the path to the database file.
func (d *DB) Path() string {
	return d.dbPath
}

// Ping verifies the connection is still usable.
func (d *DB) Ping(ctx context.Context) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrDatabaseClosed
	}
	return d.db.PingContext(ctx)
}

// QueryRowContext executes a query that returns at most one row.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// Validate checks that the schema is correctly initialized.
func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db)
}

// Version returns the current schema version.
func (d *DB) Version(ctx context.Context) (int, error) {
	return GetSchemaVersion(ctx, d.db)
}
