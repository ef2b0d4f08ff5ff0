// Package store persists import runs and imported records in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/xlimport/internal/config"
	"github.com/JonMunkholm/xlimport/internal/core"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by Store. *pgxpool.Pool, *pgx.Conn and
// pgx.Tx satisfy it.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Open connects a pool configured from cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// DatabaseName returns the database name in a connection URL, for logs.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

const runsDDL = `CREATE TABLE IF NOT EXISTS import_runs (
	id          UUID PRIMARY KEY,
	record_type TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	start_row   INTEGER NOT NULL,
	status      TEXT NOT NULL,
	imported    INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	error_file  TEXT,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0
)`

// Store implements core.RunStore.
type Store struct {
	db DBTX
}

// New wraps db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the import_runs table and runs each extra statement,
// typically the CopyDDL of registered record types.
func (s *Store) EnsureSchema(ctx context.Context, ddl ...string) error {
	for _, stmt := range append([]string{runsDDL}, ddl...) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// psql builds statements with PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var runColumns = []string{
	"id", "record_type", "file_name", "start_row", "status", "imported", "failed",
	"error_file", "error", "started_at", "duration_ms",
}

// SaveRun inserts or updates a run.
func (s *Store) SaveRun(ctx context.Context, run core.RunRecord) error {
	query, args, err := psql.Insert("import_runs").
		Columns(runColumns...).
		Values(
			pgtype.UUID{Bytes: run.ID, Valid: true},
			run.RecordType,
			run.FileName,
			int32(run.StartRow),
			run.Status,
			int32(run.Imported),
			int32(run.Failed),
			toPgText(run.ErrorFile),
			toPgText(run.Error),
			pgtype.Timestamptz{Time: run.StartedAt, Valid: !run.StartedAt.IsZero()},
			run.Duration.Milliseconds(),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	imported = EXCLUDED.imported,
	failed = EXCLUDED.failed,
	error_file = EXCLUDED.error_file,
	error = EXCLUDED.error,
	duration_ms = EXCLUDED.duration_ms`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save run query: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save import run %s: %w", run.ID, err)
	}
	return nil
}

// CopyRecords bulk-loads rows into table with COPY.
func (s *Store) CopyRecords(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := s.db.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]core.RunRecord, error) {
	builder := psql.Select(runColumns...).
		From("import_runs").
		OrderBy("started_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build import runs query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, fmt.Errorf("scan import runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.CollectableRow) (core.RunRecord, error) {
	var (
		id                 pgtype.UUID
		recordType, name   string
		status             string
		startRow           int32
		imported, failed   int32
		errorFile, errText pgtype.Text
		startedAt          pgtype.Timestamptz
		durationMS         int64
	)
	if err := row.Scan(&id, &recordType, &name, &startRow, &status, &imported, &failed,
		&errorFile, &errText, &startedAt, &durationMS); err != nil {
		return core.RunRecord{}, err
	}

	return core.RunRecord{
		ID:         uuid.UUID(id.Bytes),
		RecordType: recordType,
		FileName:   name,
		StartRow:   int(startRow),
		Status:     status,
		Imported:   int(imported),
		Failed:     int(failed),
		ErrorFile:  errorFile.String,
		Error:      errText.String,
		StartedAt:  startedAt.Time,
		Duration:   time.Duration(durationMS) * time.Millisecond,
	}, nil
}

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
