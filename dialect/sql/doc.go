// Package sql adapts database/sql to the dialect.Driver interface used by
// the Ingres adapter.
//
// The package does not build SQL. It carries statements produced by
// dialect/ingres to the server and returns results in the shape the adapter
// scans: a *sql.Result for Exec and a *Rows for Query.
//
// # Sessions
//
// Ingres keeps the last generated identity value per server session. A pool
// may hand consecutive statements to different sessions, so statements that
// read session state must run on a pinned connection:
//
//	s, err := drv.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	ec := d.NewExecContext(s, stmt)
//	err = ec.Exec(ctx)
//
// Transactions are pinned as well and may be used the same way.
//
// # Statistics and Debugging
//
// StatsDriver counts statements and reports slow ones, DebugDriver logs every
// statement through log/slog. Both wrap any dialect.Driver and can be stacked.
package sql
