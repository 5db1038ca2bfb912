package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/syssam/actian/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.Ingres, db),
		WithSlowThreshold(time.Hour),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	assert.Equal(t, time.Hour, drv.SlowThreshold())

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("DELETE FROM t").WillReturnError(errors.New("boom"))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.Error(t, drv.Exec(context.Background(), "DELETE FROM t", []any{}, nil))

	s := drv.QueryStats().Snapshot()
	assert.EqualValues(t, 1, s.Queries)
	assert.EqualValues(t, 1, s.Execs)
	assert.EqualValues(t, 1, s.Errors)
	assert.EqualValues(t, 0, s.Slow)
	assert.Empty(t, slow)

	drv.SetSlowThreshold(-1)
	mock.ExpectExec("UPDATE t").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(context.Background(), "UPDATE t SET a = 1", []any{}, nil))
	assert.EqualValues(t, 1, drv.QueryStats().Snapshot().Slow)
	assert.Equal(t, []string{"UPDATE t SET a = 1"}, slow)

	t.Run("tx", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Exec(context.Background(), "INSERT INTO t VALUES (1)", []any{}, nil))
		require.NoError(t, tx.Commit())
		assert.EqualValues(t, 3, drv.QueryStats().Snapshot().Execs)
	})

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Snapshot())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsSnapshot(t *testing.T) {
	s := StatsSnapshot{Queries: 3, Catalog: 2, Execs: 1, DDL: 1, Duration: 8 * time.Millisecond, Slow: 1}
	assert.Equal(t, 2*time.Millisecond, s.Avg())
	assert.Equal(t, "queries=3 catalog=2 execs=1 ddl=1 duration=8ms avg=2ms slow=1 errors=0", s.String())
	assert.Zero(t, StatsSnapshot{}.Avg())
}

func TestStatsDriver_Kinds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := NewStatsDriver(OpenDB(dialect.Ingres, db))
	ctx := context.Background()

	mock.ExpectQuery("FROM iitables").WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectQuery("FROM users").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("MODIFY").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(0, 1))
	for _, q := range []struct {
		ctx   context.Context
		query string
	}{
		{WithCatalog(ctx), "SELECT table_name FROM iitables"},
		{ctx, "SELECT id FROM users"},
	} {
		rows := &Rows{}
		require.NoError(t, drv.Query(q.ctx, q.query, []any{}, rows))
		require.NoError(t, rows.Close())
	}
	require.NoError(t, drv.Exec(ctx, "CREATE TABLE t (id INTEGER)", []any{}, nil))
	require.NoError(t, drv.Exec(ctx, "MODIFY t TO BTREE ON id", []any{}, nil))
	require.NoError(t, drv.Exec(ctx, "INSERT INTO t VALUES (1)", []any{}, nil))

	s := drv.QueryStats().Snapshot()
	assert.EqualValues(t, 2, s.Queries)
	assert.EqualValues(t, 1, s.Catalog)
	assert.EqualValues(t, 3, s.Execs)
	assert.EqualValues(t, 2, s.DDL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDDL(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"CREATE TABLE t (id INTEGER)", true},
		{"  modify t to btree", true},
		{"COMMENT ON TABLE t IS 'x'", true},
		{"DROP", true},
		{"INSERT INTO t VALUES (1)", false},
		{"CREATED", false},
		{"SELECT 'CREATE TABLE'", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDDL(tt.query), tt.query)
	}
	assert.True(t, IsCatalog(WithCatalog(context.Background())))
	assert.False(t, IsCatalog(context.Background()))
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.Vector, db), DebugWithLogger(logger))

	mock.ExpectExec("MODIFY users TO btree").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(context.Background(), "MODIFY users TO btree", []any{}, nil))
	assert.Contains(t, buf.String(), "msg=exec")
	assert.Contains(t, buf.String(), "dialect=vector")
	assert.Contains(t, buf.String(), "kind=ddl")
	assert.Contains(t, buf.String(), `query="MODIFY users TO btree"`)

	buf.Reset()
	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.Contains(t, buf.String(), "begin transaction")
	assert.Contains(t, buf.String(), "rollback transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}
