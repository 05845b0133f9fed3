package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// maxAutoSnapshots is how many automatic snapshots are kept.
const maxAutoSnapshots = 5

// Snapshot errors.
var (
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrSnapshotExists      = errors.New("snapshot already exists")
	ErrSnapshotCorrupted   = errors.New("snapshot integrity check failed")
	ErrSnapshotUnsupported = errors.New("snapshots need a file-backed database")
)

// Snapshot describes one saved copy of the database.
type Snapshot struct {
	CreatedAt     time.Time `yaml:"created_at"`
	ID            string    `yaml:"id"`
	Reason        string    `yaml:"reason"`
	Size          int64     `yaml:"size"`
	Memos         int       `yaml:"memos"`
	SchemaVersion int       `yaml:"schema_version"`
	Auto          bool      `yaml:"auto"`
}

// SnapshotManager keeps point-in-time copies of the database in a
// "snapshots" directory beside it. Bulk re-analysis takes one first so a bad
// model run can be rolled back.
type SnapshotManager struct {
	db     *sql.DB
	dbPath string
	dir    string
}

// Snapshots returns the snapshot manager for this database.
func (s *SQLiteStorage) Snapshots() (*SnapshotManager, error) {
	if s.dbPath == ":memory:" {
		return nil, ErrSnapshotUnsupported
	}

	dbPath, err := filepath.Abs(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	dir := filepath.Join(filepath.Dir(dbPath), "snapshots")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &SnapshotManager{db: s.db, dbPath: dbPath, dir: dir}, nil
}

func validSnapshotID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\'";`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid snapshot id %q", id)
	}
	return nil
}

func (m *SnapshotManager) dataPath(id string) string { return filepath.Join(m.dir, id+".db") }
func (m *SnapshotManager) metaPath(id string) string { return filepath.Join(m.dir, id+".yaml") }

// Create copies the database into a new snapshot. An empty id is generated
// from the current time.
func (m *SnapshotManager) Create(ctx context.Context, id, reason string) (*Snapshot, error) {
	return m.create(ctx, id, reason, false)
}

// Auto takes an automatic snapshot before an operation and prunes old ones.
func (m *SnapshotManager) Auto(ctx context.Context, operation string) (*Snapshot, error) {
	id := fmt.Sprintf("auto-%s-%s", operation, time.Now().Format("20060102-150405"))
	snap, err := m.create(ctx, id, "before "+operation, true)
	if err != nil {
		return nil, err
	}
	if err := m.prune(ctx); err != nil {
		slog.Warn("failed to prune automatic snapshots", "error", err)
	}
	return snap, nil
}

func (m *SnapshotManager) create(ctx context.Context, id, reason string, auto bool) (*Snapshot, error) {
	if id == "" {
		id = "snapshot-" + time.Now().Format("20060102-150405")
	}
	if err := validSnapshotID(id); err != nil {
		return nil, err
	}

	dest := m.dataPath(id)
	if strings.Contains(dest, "'") {
		return nil, fmt.Errorf("snapshot path %q cannot contain quotes", dest)
	}
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotExists, id)
	}

	snap := Snapshot{ID: id, Reason: reason, Auto: auto, CreatedAt: time.Now().UTC()}
	if err := m.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&snap.SchemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memos").Scan(&snap.Memos); err != nil {
		return nil, fmt.Errorf("failed to count memos: %w", err)
	}

	// VACUUM INTO writes a consistent copy even while WAL frames are pending.
	// #nosec G202 -- dest is built from a validated id
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO '"+dest+"'"); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	snap.Size = info.Size()

	if err := m.writeMeta(snap); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil {
			slog.Error("failed to remove snapshot after metadata failure", "error", rmErr)
		}
		return nil, err
	}

	slog.Info("snapshot created", "id", id, "memos", snap.Memos, "auto", auto)
	return &snap, nil
}

// List returns every snapshot, newest first. Snapshots with unreadable
// metadata are skipped.
func (m *SnapshotManager) List(_ context.Context) ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	var snaps []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		snap, err := m.readMeta(strings.TrimSuffix(entry.Name(), ".yaml"))
		if err != nil {
			slog.Debug("skipping unreadable snapshot metadata", "file", entry.Name(), "error", err)
			continue
		}
		snaps = append(snaps, *snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps, nil
}

// Get returns one snapshot's metadata.
func (m *SnapshotManager) Get(_ context.Context, id string) (*Snapshot, error) {
	if err := validSnapshotID(id); err != nil {
		return nil, err
	}
	return m.readMeta(id)
}

// Restore replaces the database file with the snapshot. It closes the
// storage connection; callers must open a new SQLiteStorage afterwards.
func (m *SnapshotManager) Restore(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	src := m.dataPath(id)
	if err := verifyIntegrity(src); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotCorrupted, err)
	}

	// Fold the WAL into the main file so nothing is replayed over the restored copy.
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	backup := m.dbPath + ".restore-backup"
	if err := copyFile(m.dbPath, backup); err != nil {
		return fmt.Errorf("failed to back up current database: %w", err)
	}
	if err := copyFile(src, m.dbPath); err != nil {
		if restoreErr := copyFile(backup, m.dbPath); restoreErr != nil {
			slog.Error("failed to put database back after restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	for _, leftover := range []string{backup, m.dbPath + "-wal", m.dbPath + "-shm"} {
		if err := os.Remove(leftover); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove file after restore", "path", leftover, "error", err)
		}
	}

	slog.Info("snapshot restored", "id", id)
	return nil
}

// Delete removes a snapshot and its metadata.
func (m *SnapshotManager) Delete(_ context.Context, id string) error {
	if err := validSnapshotID(id); err != nil {
		return err
	}
	if err := os.Remove(m.dataPath(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	if err := os.Remove(m.metaPath(id)); err != nil && !os.IsNotExist(err) {
		slog.Debug("failed to remove snapshot metadata", "id", id, "error", err)
	}
	return nil
}

func (m *SnapshotManager) prune(ctx context.Context) error {
	snaps, err := m.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, snap := range snaps {
		if !snap.Auto {
			continue
		}
		kept++
		if kept > maxAutoSnapshots {
			if err := m.Delete(ctx, snap.ID); err != nil {
				slog.Debug("failed to delete old snapshot", "id", snap.ID, "error", err)
			}
		}
	}
	return nil
}

func (m *SnapshotManager) writeMeta(snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}
	tmp := m.metaPath(snap.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot metadata: %w", err)
	}
	return os.Rename(tmp, m.metaPath(snap.ID))
}

func (m *SnapshotManager) readMeta(id string) (*Snapshot, error) {
	data, err := os.ReadFile(m.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot metadata: %w", err)
	}
	return &snap, nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

// copyFile copies src to dst through a temporary file and a rename.
func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".tmp"
	out, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
