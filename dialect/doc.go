// Package dialect defines the connection boundary used by the Ingres adapter.
//
// The adapter never opens connections itself. Callers hand it a value that
// implements ExecQuerier, usually a *dialect/sql.Driver, a transaction or a
// pinned session, and every catalog query or statement runs through it.
//
// # Dialect Constants
//
//	dialect.Ingres = "ingres"
//	dialect.Vector = "vector"
//
// Both servers share the catalog layout. They differ in a handful of DDL
// rules, which the adapter decides from the DBMS_TYPE capability rather than
// from the dialect name.
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Usage
//
//	drv, err := sql.Open(dialect.Ingres, "odbc", dsn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	d := ingres.New()
//	if err := d.Initialize(ctx, drv); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver glue, sessions, stats and debug drivers
//   - dialect/sqlschema: storage-structure and identity attributes for atlas schemas
//   - dialect/ingres: type mapping, statement and DDL compilation, execution and reflection
package dialect
