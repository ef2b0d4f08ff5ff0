package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs   []execCall
	execErr error

	copyTable   pgx.Identifier
	copyColumns []string
	copied      [][]any
	copyErr     error

	querySQL  string
	queryArgs []any
	rows      [][]any
	queryErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.querySQL = sql
	f.queryArgs = args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copyTable = table
	f.copyColumns = columns
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.copied = append(f.copied, v)
	}
	return int64(len(f.copied)), src.Err()
}

// fakeRows serves fixed rows, assigning each value to its scan target.
type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) { return r.rows[r.pos], nil }

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("scan %d targets for %d values", len(dest), len(row))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, New(db).EnsureSchema(context.Background(), "CREATE TABLE a (x int)", "  "))

	require.Len(t, db.execs, 2)
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS import_runs")
	assert.Equal(t, "CREATE TABLE a (x int)", db.execs[1].sql)
}

func TestEnsureSchema_Error(t *testing.T) {
	db := &fakeDB{execErr: errors.New("permission denied")}
	err := New(db).EnsureSchema(context.Background())
	assert.ErrorContains(t, err, "permission denied")
}

func TestSaveRun(t *testing.T) {
	db := &fakeDB{}
	id := uuid.New()
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := New(db).SaveRun(context.Background(), core.RunRecord{
		ID:         id,
		RecordType: "user",
		FileName:   "users.xlsx",
		StartRow:   2,
		Status:     core.RunSucceeded,
		Imported:   10,
		Failed:     1,
		ErrorFile:  "importFiles/error/x/users_error.xlsx",
		StartedAt:  started,
		Duration:   1500 * time.Millisecond,
	})
	require.NoError(t, err)

	require.Len(t, db.execs, 1)
	assert.True(t, strings.HasPrefix(db.execs[0].sql, "INSERT INTO import_runs (id,record_type,"), db.execs[0].sql)
	assert.Contains(t, db.execs[0].sql, "VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)")
	assert.Contains(t, db.execs[0].sql, "ON CONFLICT (id) DO UPDATE SET")
	args := db.execs[0].args
	require.Len(t, args, 11)
	assert.Equal(t, pgtype.UUID{Bytes: id, Valid: true}, args[0])
	assert.Equal(t, int32(2), args[3])
	assert.Equal(t, pgtype.Text{String: "importFiles/error/x/users_error.xlsx", Valid: true}, args[7])
	assert.Equal(t, pgtype.Text{}, args[8], "empty error stored as NULL")
	assert.Equal(t, int64(1500), args[10])
}

func TestCopyRecords(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	n, err := s.CopyRecords(context.Background(), "imported_users", []string{"username", "age"}, [][]any{
		{"alice", 30},
		{"bob", 41},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, pgx.Identifier{"imported_users"}, db.copyTable)
	assert.Equal(t, []string{"username", "age"}, db.copyColumns)
	assert.Equal(t, [][]any{{"alice", 30}, {"bob", 41}}, db.copied)

	n, err = s.CopyRecords(context.Background(), "imported_users", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyRecords_Error(t *testing.T) {
	db := &fakeDB{copyErr: errors.New(`relation "imported_users" does not exist`)}
	_, err := New(db).CopyRecords(context.Background(), "imported_users", []string{"username"}, [][]any{{"a"}})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "copy into imported_users"))
}

func TestRecentRuns(t *testing.T) {
	id := uuid.New()
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: [][]any{{
		pgtype.UUID{Bytes: id, Valid: true},
		"order",
		"orders.xlsx",
		int32(2),
		core.RunFailed,
		int32(0),
		int32(0),
		pgtype.Text{},
		pgtype.Text{String: "open workbook: zip: not a valid zip file", Valid: true},
		pgtype.Timestamptz{Time: started, Valid: true},
		int64(20),
	}}}

	runs, err := New(db).RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Contains(t, db.querySQL, "FROM import_runs ORDER BY started_at DESC LIMIT 5")
	assert.Empty(t, db.queryArgs)
	require.Len(t, runs, 1)
	assert.Equal(t, core.RunRecord{
		ID:         id,
		RecordType: "order",
		FileName:   "orders.xlsx",
		StartRow:   2,
		Status:     core.RunFailed,
		Error:      "open workbook: zip: not a valid zip file",
		StartedAt:  started,
		Duration:   20 * time.Millisecond,
	}, runs[0])
}

func TestRecentRuns_QueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("connection refused")}
	_, err := New(db).RecentRuns(context.Background(), 5)
	assert.ErrorContains(t, err, "connection refused")
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "imports", DatabaseName("postgres://u:p@localhost:5432/imports?sslmode=disable"))
	assert.Equal(t, "", DatabaseName("://bad"))
}

func TestStoreIsRunStore(t *testing.T) {
	var _ core.RunStore = New(&fakeDB{})
}
