package ingres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"ariga.io/atlas/sql/schema"
	"github.com/google/uuid"

	"github.com/syssam/actian"
	"github.com/syssam/actian/dialect"
	dsql "github.com/syssam/actian/dialect/sql"
	"github.com/syssam/actian/dialect/sqlschema"
)

// LastIdentityQuery reads the identity value generated by the last INSERT
// of the session.
const LastIdentityQuery = "SELECT last_identity() AS lastrowid"

// Op is the kind of statement.
type Op uint8

const (
	OpOther Op = iota
	OpSelect
	OpInsert
	OpUpdate
	OpDelete
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "other"
	}
}

func (o Op) dml() bool { return o == OpInsert || o == OpUpdate || o == OpDelete }

// State is the state of an ExecContext.
type State uint8

const (
	StatePreExec State = iota
	StateDirect
	StateDeferredKeyFetch
	StateBufferedReturning
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePreExec:
		return "pre-exec"
	case StateDirect:
		return "direct"
	case StateDeferredKeyFetch:
		return "deferred-key-fetch"
	case StateBufferedReturning:
		return "buffered-returning"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Statement describes a statement about to run.
type Statement struct {
	Op    Op
	Query string
	Args  []any
	// Batch holds the argument rows of a multi-row execution. When set,
	// Args is ignored.
	Batch [][]any
	// HasIdentity reports that the target table has a generated key.
	HasIdentity bool
	// Inline reports that generated values were rendered into the text.
	Inline bool
	// Returning reports that the statement yields rows, explicitly or
	// through an effective returning clause.
	Returning bool
}

// BufferedRows is a fully drained result set.
type BufferedRows struct {
	Columns []string
	Values  [][]any
}

// Len returns the number of rows.
func (r *BufferedRows) Len() int { return len(r.Values) }

// ExecContext runs one statement and recovers its generated key. It is
// owned by a single execution and must not be shared.
//
// The connection must be pinned: a dialect/sql Session or Tx. The generated
// key lives in the server session and the follow-up query has to reach the
// same session before any other statement.
type ExecContext struct {
	id     uuid.UUID
	conn   dialect.ExecQuerier
	stmt   Statement
	state  State
	logger *slog.Logger

	rowsAffected int64
	lastID       int64
	hasLastID    bool
	rows         *BufferedRows
}

// NewExecContext returns an ExecContext for stmt on conn.
func (d *Dialect) NewExecContext(conn dialect.ExecQuerier, stmt Statement) *ExecContext {
	return &ExecContext{
		id:     uuid.New(),
		conn:   conn,
		stmt:   stmt,
		logger: d.logger,
	}
}

// ID returns the correlation id of the execution.
func (e *ExecContext) ID() uuid.UUID { return e.id }

// State returns the current state.
func (e *ExecContext) State() State { return e.state }

// PreExec decides how the statement is run. A single-row INSERT into a
// table with a generated key, without inline values or a returning clause,
// needs the deferred key fetch.
func (e *ExecContext) PreExec() State {
	if e.state != StatePreExec {
		return e.state
	}
	s := e.stmt
	switch {
	case s.Returning:
		e.state = StateBufferedReturning
	case s.Op == OpInsert && s.HasIdentity && len(s.Batch) == 0 && !s.Inline:
		e.state = StateDeferredKeyFetch
	default:
		e.state = StateDirect
	}
	return e.state
}

// Exec runs the statement and its follow-up work. Once the statement has
// been sent the context is done, even when the follow-up fails, so a retry
// cannot repeat the statement.
func (e *ExecContext) Exec(ctx context.Context) error {
	state := e.PreExec()
	e.logger.DebugContext(ctx, "executing statement", "exec_id", e.id.String(), "op", e.stmt.Op.String(), "state", state.String())
	if state == StateDone {
		return fmt.Errorf("dialect/ingres: exec %s: statement already executed", e.id)
	}
	e.state = StateDone
	if state == StateBufferedReturning || e.stmt.Op == OpSelect {
		if err := e.buffer(ctx); err != nil {
			return err
		}
		if state == StateBufferedReturning {
			e.rowsAffected = int64(e.rows.Len())
		}
		return nil
	}
	if err := e.exec(ctx); err != nil {
		return err
	}
	if state == StateDeferredKeyFetch {
		return e.fetchKey(ctx)
	}
	return nil
}

// batch returns the argument rows of the statement.
func (e *ExecContext) batch() [][]any {
	if len(e.stmt.Batch) == 0 {
		return [][]any{e.stmt.Args}
	}
	return e.stmt.Batch
}

func (e *ExecContext) exec(ctx context.Context) error {
	for _, args := range e.batch() {
		if args == nil {
			args = []any{}
		}
		var res sql.Result
		if err := e.conn.Exec(ctx, e.stmt.Query, args, &res); err != nil {
			return err
		}
		if !e.stmt.Op.dml() {
			continue
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		e.rowsAffected += n
	}
	return nil
}

// fetchKey reads the generated key. A missing row or a NULL value leaves
// the key absent.
func (e *ExecContext) fetchKey(ctx context.Context) error {
	e.logger.DebugContext(ctx, "fetching generated key", "exec_id", e.id.String(), "query", LastIdentityQuery)
	rows := &dsql.Rows{}
	if err := e.conn.Query(ctx, LastIdentityQuery, []any{}, rows); err != nil {
		return actian.NewQueryError("last_identity", err)
	}
	var id dsql.NullInt64
	err := dsql.ScanRows(rows, func(s dsql.ColumnScanner) error {
		if id.Valid {
			return nil
		}
		return s.Scan(&id)
	})
	if err != nil {
		return actian.NewQueryError("last_identity", err)
	}
	e.lastID, e.hasLastID = id.Int64, id.Valid
	return nil
}

// buffer drains the result set of every argument row into memory and
// closes each cursor before the next row runs.
func (e *ExecContext) buffer(ctx context.Context) error {
	buf := &BufferedRows{}
	for _, args := range e.batch() {
		if err := e.drain(ctx, args, buf); err != nil {
			return err
		}
	}
	e.rows = buf
	e.logger.DebugContext(ctx, "buffered result", "exec_id", e.id.String(), "rows", buf.Len())
	return nil
}

func (e *ExecContext) drain(ctx context.Context, args []any, buf *BufferedRows) error {
	if args == nil {
		args = []any{}
	}
	rows := &dsql.Rows{}
	if err := e.conn.Query(ctx, e.stmt.Query, args, rows); err != nil {
		return err
	}
	columns, err := rows.Columns()
	if err != nil {
		return errors.Join(err, rows.Close())
	}
	if buf.Columns == nil {
		buf.Columns = columns
	}
	return dsql.ScanRows(rows, func(s dsql.ColumnScanner) error {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := s.Scan(ptrs...); err != nil {
			return err
		}
		buf.Values = append(buf.Values, values)
		return nil
	})
}

// LastInsertID returns the generated key. The second value is false when
// no key was fetched or the server reported none.
func (e *ExecContext) LastInsertID() (int64, bool) {
	return e.lastID, e.hasLastID
}

// RowsAffected returns the affected row count. Batches report the sum.
func (e *ExecContext) RowsAffected() int64 { return e.rowsAffected }

// Rows returns the buffered result set, or nil.
func (e *ExecContext) Rows() *BufferedRows { return e.rows }

// HasIdentity reports whether inserts into t generate a key: a column with
// an explicit identity clause, or the implicit autoincrement column.
func HasIdentity(t *schema.Table) bool {
	for _, c := range t.Columns {
		if ant, _ := sqlschema.From(c.Attrs); ant.Identity != "" {
			return true
		}
	}
	c := autoIncrement(TypeMapper{}, t)
	if c == nil || c.Default != nil {
		return false
	}
	ant, _ := sqlschema.From(c.Attrs)
	return ant.IncrementalEnabled() && ant.Sequence == ""
}
