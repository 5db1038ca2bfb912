// Package ingres implements the Ingres and Vector SQL dialect.
//
// A Dialect bundles the pieces a database-agnostic layer needs to speak to
// the server:
//
//   - TypeMapper translates generic types to native type names and back.
//   - Compiler renders pagination, DISTINCT, sequence and savepoint text.
//   - DDL renders table, column, index and constraint definitions,
//     including the MODIFY statement that applies a storage structure.
//   - ExecContext runs a statement and recovers its generated key.
//   - Inspector reflects the system catalog into descriptors or atlas
//     schemas.
//
// # Capabilities
//
// Decisions that differ between the row store and the columnar server are
// driven by the DBMS_TYPE capability, loaded once per Dialect:
//
//	d := ingres.New()
//	if err := d.Initialize(ctx, drv); err != nil {
//	    return err
//	}
//
// Offline compilation can preset the snapshot:
//
//	d := ingres.New(ingres.WithCapabilities(map[string]string{"DBMS_TYPE": "VECTOR"}))
//
// # Generated Keys
//
// The server has no RETURNING clause for generated keys. An INSERT into a
// table with an identity column is followed by SELECT last_identity() on
// the same session, so the connection must be pinned:
//
//	s, err := drv.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	ec := d.NewExecContext(s, ingres.Statement{
//	    Op:          ingres.OpInsert,
//	    Query:       "INSERT INTO users (name) VALUES (?)",
//	    Args:        []any{"a8m"},
//	    HasIdentity: true,
//	})
//	if err := ec.Exec(ctx); err != nil {
//	    return err
//	}
//	id, ok := ec.LastInsertID()
//
// # Reflection
//
// An Inspector is a reflection session. Results are memoized, and absence
// is reported as an empty result rather than an error:
//
//	insp := d.Inspector(drv)
//	cols, err := insp.Columns(ctx, "users", "")
//	s, err := insp.InspectSchema(ctx, "", nil)
package ingres
