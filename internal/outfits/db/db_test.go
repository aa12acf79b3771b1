package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_CreatesDatabase(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "wardrobe.db")

	db, err := Open(context.Background(), Options{Path: dbPath, SkipLock: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_RunsMigrations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Validate(ctx); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	version, err := db.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("Version() = %d, want %d", version, SchemaVersion)
	}
}

func TestOpen_Memory(t *testing.T) {
	t.Parallel()

	db, err := Open(context.Background(), Options{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	defer db.Close()

	if err := db.Validate(context.Background()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if db.lock != nil {
		t.Error("in-memory database should not take a lock")
	}
}

func TestOpen_Pragmas(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	var journalMode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}

	var foreignKeys int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("foreign_keys = %d, want 1", foreignKeys)
	}
}

func TestMigrations_RefuseNewerVersion(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "wardrobe.db")
	db, err := Open(context.Background(), Options{Path: dbPath, SkipLock: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_, err = db.DB().ExecContext(context.Background(), `
		INSERT INTO schema_migrations (version, applied_ts) VALUES (?, ?)
	`, SchemaVersion+10, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("insert future version: %v", err)
	}
	db.Close()

	_, err = Open(context.Background(), Options{Path: dbPath, SkipLock: true})
	if !errors.Is(err, ErrSchemaVersionTooNew) {
		t.Fatalf("Open() error = %v, want ErrSchemaVersionTooNew", err)
	}
}

func TestMigrations_Idempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "wardrobe.db")
	for i := 0; i < 3; i++ {
		db, err := Open(context.Background(), Options{Path: dbPath, SkipLock: true})
		if err != nil {
			t.Fatalf("Open() iteration %d error = %v", i, err)
		}
		if err := db.Validate(context.Background()); err != nil {
			t.Errorf("Validate() iteration %d error = %v", i, err)
		}
		db.Close()
	}
}

func TestSchema_Constraints(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.DB().ExecContext(ctx, `
		INSERT INTO style_profile (preference_type, preference_value, weight, updated_at)
		VALUES ('color', '#000080', 7.5, 0)
	`)
	if err == nil {
		t.Error("weight above 5.0 should violate the check constraint")
	}

	_, err = db.DB().ExecContext(ctx, `
		INSERT INTO outfit_ratings (outfit_id, rating, created_at) VALUES (999, 4, 0)
	`)
	if err == nil {
		t.Error("rating for a missing outfit should violate the foreign key")
	}

	_, err = db.DB().ExecContext(ctx, `
		INSERT INTO outfits (occasion, worn_at) VALUES ('casual', 0)
	`)
	if err != nil {
		t.Fatalf("insert outfit: %v", err)
	}
	_, err = db.DB().ExecContext(ctx, `
		INSERT INTO outfit_ratings (outfit_id, rating, created_at) VALUES (1, 6, 0)
	`)
	if err == nil {
		t.Error("rating 6 should violate the check constraint")
	}
}

func TestLock_PreventsSecondWriter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wardrobe.db")

	db1, err := Open(context.Background(), Options{Path: dbPath, LockTimeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}

	if !IsLocked(filepath.Dir(dbPath)) {
		t.Error("IsLocked() = false while the first handle is open")
	}
	if pid := GetLockHolderPID(filepath.Dir(dbPath)); pid != os.Getpid() {
		t.Errorf("GetLockHolderPID() = %d, want %d", pid, os.Getpid())
	}

	_, err = Open(context.Background(), Options{Path: dbPath, LockTimeout: 100 * time.Millisecond})
	if err == nil {
		t.Fatal("second Open() should fail while the lock is held")
	}

	if err := db1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db2, err := Open(context.Background(), Options{Path: dbPath, LockTimeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open() after release error = %v", err)
	}
	db2.Close()
}

func TestDB_CloseIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := db.Ping(context.Background()); !errors.Is(err, ErrDatabaseClosed) {
		t.Errorf("Ping() after close = %v, want ErrDatabaseClosed", err)
	}
}

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), Options{
		Path:     filepath.Join(t.TempDir(), "wardrobe.db"),
		SkipLock: true,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
