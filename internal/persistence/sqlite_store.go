package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MimeLyc/chunked-task-runner/internal/history"
	"github.com/MimeLyc/chunked-task-runner/internal/runner"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	db *sql.DB
}

var _ history.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) SaveRun(ctx context.Context, record *history.RunRecord) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (
			id, source, status, total_duration_ms, chunk_size_ms, chunk_count,
			chunks_completed, elapsed_total_ms, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source=excluded.source,
			status=excluded.status,
			total_duration_ms=excluded.total_duration_ms,
			chunk_size_ms=excluded.chunk_size_ms,
			chunk_count=excluded.chunk_count,
			chunks_completed=excluded.chunks_completed,
			elapsed_total_ms=excluded.elapsed_total_ms,
			error=excluded.error,
			started_at=excluded.started_at,
			finished_at=excluded.finished_at`,
		record.ID,
		record.Source,
		string(record.Status),
		record.TotalDuration.Milliseconds(),
		record.ChunkSize.Milliseconds(),
		record.ChunkCount,
		record.ChunksCompleted,
		record.ElapsedTotal.Milliseconds(),
		record.Error,
		record.StartedAt,
		record.FinishedAt,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_chunks WHERE run_id = ?`, record.ID); err != nil {
		return err
	}
	for _, chunk := range record.Chunks {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO run_chunks (run_id, chunk_index, elapsed_ms, completed_at, status)
			 VALUES (?, ?, ?, ?, ?)`,
			record.ID,
			chunk.Index,
			chunk.Elapsed.Milliseconds(),
			chunk.CompletedAt,
			string(chunk.Status),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadRuns(ctx context.Context) ([]*history.RunRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, source, status, total_duration_ms, chunk_size_ms, chunk_count,
			chunks_completed, elapsed_total_ms, error, started_at, finished_at
		 FROM runs
		 ORDER BY started_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*history.RunRecord, 0)
	for rows.Next() {
		var item history.RunRecord
		var status string
		var totalMs, chunkMs, elapsedMs int64
		if err := rows.Scan(
			&item.ID,
			&item.Source,
			&status,
			&totalMs,
			&chunkMs,
			&item.ChunkCount,
			&item.ChunksCompleted,
			&elapsedMs,
			&item.Error,
			&item.StartedAt,
			&item.FinishedAt,
		); err != nil {
			return nil, err
		}
		item.Status = runner.Status(status)
		item.TotalDuration = time.Duration(totalMs) * time.Millisecond
		item.ChunkSize = time.Duration(chunkMs) * time.Millisecond
		item.ElapsedTotal = time.Duration(elapsedMs) * time.Millisecond
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, item := range ret {
		chunks, err := s.loadChunks(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		item.Chunks = chunks
	}
	return ret, nil
}

func (s *SQLiteStore) loadChunks(ctx context.Context, runID string) ([]runner.ChunkRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT chunk_index, elapsed_ms, completed_at, status
		 FROM run_chunks
		 WHERE run_id = ?
		 ORDER BY chunk_index ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]runner.ChunkRecord, 0)
	for rows.Next() {
		var chunk runner.ChunkRecord
		var status string
		var elapsedMs int64
		if err := rows.Scan(&chunk.Index, &elapsedMs, &chunk.CompletedAt, &status); err != nil {
			return nil, err
		}
		chunk.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		chunk.Status = runner.Status(status)
		ret = append(ret, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_chunks WHERE run_id = ?`, runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return err
	}
	return tx.Commit()
}
