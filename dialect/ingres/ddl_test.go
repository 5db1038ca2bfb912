package ingres

import (
	"context"
	"errors"
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/actian"
	"github.com/syssam/actian/dialect"
	"github.com/syssam/actian/dialect/sql"
	"github.com/syssam/actian/dialect/sqlschema"
)

func ingresDialect(opts ...Option) *Dialect {
	return New(append([]Option{WithCapabilities(map[string]string{CapDBMSType: "INGRES"})}, opts...)...)
}

func vectorDialect() *Dialect {
	return New(WithCapabilities(map[string]string{CapDBMSType: "VECTOR"}))
}

func usersTable() *schema.Table {
	id := schema.NewIntColumn("id", "bigint")
	name := schema.NewStringColumn("name", "varchar")
	email := schema.NewNullStringColumn("email", "varchar").SetType(&schema.StringType{T: "varchar", Size: 64})
	t := schema.NewTable("users").
		AddColumns(id, name, email).
		SetPrimaryKey(schema.NewPrimaryKey(id))
	t.AddIndexes(schema.NewUniqueIndex("users_email").AddColumns(email))
	return t
}

func TestDDL_ColumnSpec(t *testing.T) {
	t.Run("implicit_identity", func(t *testing.T) {
		users := usersTable()
		spec, err := ingresDialect().DDL().ColumnSpec(users, users.Columns[0])
		require.NoError(t, err)
		assert.Equal(t, "id BIGINT GENERATED BY DEFAULT AS IDENTITY NOT NULL", spec)
	})

	t.Run("incremental_disabled", func(t *testing.T) {
		users := usersTable()
		users.Columns[0].AddAttrs(sqlschema.Incremental(false))
		spec, err := ingresDialect().DDL().ColumnSpec(users, users.Columns[0])
		require.NoError(t, err)
		assert.Equal(t, "id BIGINT NOT NULL", spec)
	})

	t.Run("explicit_identity", func(t *testing.T) {
		c := schema.NewIntColumn("seq", "int").AddAttrs(sqlschema.Identity(sqlschema.GeneratedAlways))
		tbl := schema.NewTable("t").AddColumns(c)
		spec, err := ingresDialect().DDL().ColumnSpec(tbl, c)
		require.NoError(t, err)
		assert.Equal(t, "seq INTEGER GENERATED ALWAYS AS IDENTITY NOT NULL", spec)
	})

	t.Run("sequence_default", func(t *testing.T) {
		users := usersTable()
		users.Columns[0].AddAttrs(sqlschema.Sequence("user_seq"))
		spec, err := ingresDialect().DDL().ColumnSpec(users, users.Columns[0])
		require.NoError(t, err)
		assert.Equal(t, "id BIGINT DEFAULT NEXT VALUE FOR user_seq NOT NULL", spec)
	})

	t.Run("varchar_length", func(t *testing.T) {
		users := usersTable()
		spec, err := ingresDialect().DDL().ColumnSpec(users, users.Columns[1])
		require.NoError(t, err)
		assert.Equal(t, "name VARCHAR(255) NOT NULL", spec)

		users.Columns[1].AddAttrs(sqlschema.Size(1024))
		spec, err = ingresDialect().DDL().ColumnSpec(users, users.Columns[1])
		require.NoError(t, err)
		assert.Equal(t, "name VARCHAR(1024) NOT NULL", spec)
	})

	t.Run("defaults", func(t *testing.T) {
		c := schema.NewNullIntColumn("age", "int").SetDefault(&schema.Literal{V: "18"})
		tbl := schema.NewTable("t").AddColumns(c)
		spec, err := ingresDialect().DDL().ColumnSpec(tbl, c)
		require.NoError(t, err)
		assert.Equal(t, "age INTEGER DEFAULT 18", spec)

		c = schema.NewTimeColumn("created", "timestamp").SetDefault(&schema.RawExpr{X: "CURRENT_TIMESTAMP"})
		tbl = schema.NewTable("t").AddColumns(c)
		spec, err = ingresDialect().DDL().ColumnSpec(tbl, c)
		require.NoError(t, err)
		assert.Equal(t, "created TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL", spec)
	})

	t.Run("generated", func(t *testing.T) {
		c := schema.NewNullIntColumn("total", "int").AddAttrs(&schema.GeneratedExpr{Expr: "a + b", Type: "STORED"})
		tbl := schema.NewTable("t").AddColumns(c)
		spec, err := ingresDialect().DDL().ColumnSpec(tbl, c)
		require.NoError(t, err)
		assert.Equal(t, "total INTEGER GENERATED ALWAYS AS (a + b) STORED", spec)
	})

	t.Run("boolean", func(t *testing.T) {
		c := schema.NewBoolColumn("active", "bool")
		tbl := schema.NewTable("t").AddColumns(c)
		spec, err := ingresDialect().DDL().ColumnSpec(tbl, c)
		require.NoError(t, err)
		assert.Equal(t, "active TINYINT NOT NULL", spec)
	})

	t.Run("unmapped", func(t *testing.T) {
		c := schema.NewJSONColumn("doc", "json")
		tbl := schema.NewTable("t").AddColumns(c)
		_, err := ingresDialect().DDL().ColumnSpec(tbl, c)
		require.Error(t, err)
		assert.True(t, actian.IsUnmappedType(err))
	})
}

func TestDDL_Nullability(t *testing.T) {
	t.Run("primary_key", func(t *testing.T) {
		for _, d := range []*Dialect{ingresDialect(), vectorDialect()} {
			users := usersTable()
			users.Columns[0].Type.Null = true
			spec, err := d.DDL().ColumnSpec(users, users.Columns[0])
			require.NoError(t, err)
			assert.Contains(t, spec, "NOT NULL")
		}
	})

	t.Run("unique_row_store", func(t *testing.T) {
		users := usersTable()
		spec, err := ingresDialect().DDL().ColumnSpec(users, users.Columns[2])
		require.NoError(t, err)
		assert.Equal(t, "email VARCHAR(64) NOT NULL", spec)
	})

	t.Run("unique_columnar", func(t *testing.T) {
		users := usersTable()
		spec, err := vectorDialect().DDL().ColumnSpec(users, users.Columns[2])
		require.NoError(t, err)
		assert.Equal(t, "email VARCHAR(64)", spec)
	})

	t.Run("unique_without_capabilities", func(t *testing.T) {
		users := usersTable()
		_, err := New().DDL().ColumnSpec(users, users.Columns[2])
		require.Error(t, err)
		assert.True(t, actian.IsCapabilityError(err))
		require.ErrorIs(t, err, actian.ErrCapabilitiesNotLoaded)
	})

	t.Run("unique_unknown_dbms", func(t *testing.T) {
		users := usersTable()
		d := New(WithCapabilities(map[string]string{CapDBMSType: "OPENROAD"}))
		_, err := d.DDL().ColumnSpec(users, users.Columns[2])
		var ce *actian.CapabilityError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "OPENROAD", ce.Value)
	})

	t.Run("nullable_plain", func(t *testing.T) {
		c := schema.NewNullStringColumn("bio", "text")
		tbl := schema.NewTable("t").AddColumns(c)
		spec, err := New().DDL().ColumnSpec(tbl, c)
		require.NoError(t, err)
		assert.Equal(t, "bio LONG VARCHAR", spec)
	})
}

func TestDDL_CreateTable(t *testing.T) {
	t.Run("users", func(t *testing.T) {
		users := usersTable()
		users.AddAttrs(sqlschema.Structure("BTREE", "id")).SetComment("application users")
		users.Columns[1].SetComment("user's name")
		users.AddIndexes(schema.NewIndex("users_name").AddColumns(users.Columns[1]).AddAttrs(sqlschema.Structure("HASH")))

		plan, err := ingresDialect().DDL().CreateTable(users)
		require.NoError(t, err)
		assert.Equal(t, "users", plan.Table)
		assert.Equal(t, "CREATE TABLE users (\n"+
			"\tid BIGINT GENERATED BY DEFAULT AS IDENTITY NOT NULL,\n"+
			"\tname VARCHAR(255) NOT NULL,\n"+
			"\temail VARCHAR(64) NOT NULL,\n"+
			"\tPRIMARY KEY (id)\n"+
			")", plan.Create)
		assert.Equal(t, "MODIFY users TO BTREE ON id", plan.Modify)
		assert.Equal(t, []string{
			"CREATE UNIQUE INDEX users_email ON users (email)",
			"CREATE INDEX users_name ON users (name) WITH STRUCTURE=HASH",
		}, plan.Indexes)
		assert.Equal(t, []string{
			"COMMENT ON TABLE users IS 'application users'",
			"COMMENT ON COLUMN users.name IS 'user''s name'",
		}, plan.Comments)

		stmts := plan.Statements()
		require.Len(t, stmts, 6)
		assert.Equal(t, plan.Create, stmts[0])
		assert.Equal(t, plan.Modify, stmts[1], "MODIFY runs before secondary indexes")
	})

	t.Run("constraints", func(t *testing.T) {
		owners := schema.NewTable("owners").AddColumns(schema.NewIntColumn("id", "int"))
		owners.SetPrimaryKey(schema.NewPrimaryKey(owners.Columns[0]))
		ownerID := schema.NewIntColumn("owner_id", "int")
		code := schema.NewStringColumn("code", "char").SetType(&schema.StringType{T: "char", Size: 4})
		pets := schema.NewTable("pets").
			SetSchema(schema.New("app")).
			AddColumns(schema.NewIntColumn("id", "int"), ownerID, code)
		pets.SetPrimaryKey(schema.NewPrimaryKey(pets.Columns[0]).SetName("pets_pk"))
		pets.AddIndexes(schema.NewUniqueIndex("pets_code").AddColumns(code).AddAttrs(sqlschema.Constraint()))
		pets.AddForeignKeys(schema.NewForeignKey("pets_owner").
			AddColumns(ownerID).
			SetRefTable(owners).
			AddRefColumns(owners.Columns[0]).
			SetOnDelete(schema.Cascade))
		pets.AddChecks(schema.NewCheck().SetName("code_len").SetExpr("length(code) = 4"))

		plan, err := ingresDialect().DDL().CreateTable(pets)
		require.NoError(t, err)
		assert.Equal(t, "CREATE TABLE app.pets (\n"+
			"\tid INTEGER GENERATED BY DEFAULT AS IDENTITY NOT NULL,\n"+
			"\towner_id INTEGER NOT NULL,\n"+
			"\tcode CHAR(4) NOT NULL,\n"+
			"\tCONSTRAINT pets_pk PRIMARY KEY (id),\n"+
			"\tCONSTRAINT pets_code UNIQUE (code),\n"+
			"\tCONSTRAINT pets_owner FOREIGN KEY (owner_id) REFERENCES owners (id) ON DELETE CASCADE,\n"+
			"\tCONSTRAINT code_len CHECK (length(code) = 4)\n"+
			")", plan.Create)
		assert.Empty(t, plan.Modify)
		assert.Empty(t, plan.Indexes)
	})

	t.Run("fk_column_is_not_identity", func(t *testing.T) {
		parent := schema.NewTable("parent").AddColumns(schema.NewIntColumn("id", "int"))
		id := schema.NewIntColumn("id", "int")
		child := schema.NewTable("child").AddColumns(id).SetPrimaryKey(schema.NewPrimaryKey(id))
		child.AddForeignKeys(schema.NewForeignKey("child_parent").AddColumns(id).SetRefTable(parent).AddRefColumns(parent.Columns[0]))
		plan, err := ingresDialect().DDL().CreateTable(child)
		require.NoError(t, err)
		assert.NotContains(t, plan.Create, "IDENTITY")
	})

	t.Run("validation", func(t *testing.T) {
		tbl := schema.NewTable("this_table_name_is_way_too_long_for_the_catalog").
			AddColumns(schema.NewIntColumn("id", "int"))
		_, err := ingresDialect().DDL().CreateTable(tbl)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("column_errors_joined", func(t *testing.T) {
		tbl := schema.NewTable("t").AddColumns(
			schema.NewJSONColumn("a", "json"),
			schema.NewJSONColumn("b", "json"),
		)
		_, err := ingresDialect().DDL().CreateTable(tbl)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JSONType")
		assert.True(t, actian.IsUnmappedType(err))
	})
}

func TestDDL_Statements(t *testing.T) {
	x := ingresDialect().DDL()
	users := usersTable()

	assert.Equal(t, "ALTER TABLE users DROP CONSTRAINT users_email RESTRICT", x.DropConstraint("users", "users_email", false))
	assert.Equal(t, "ALTER TABLE users DROP CONSTRAINT users_email CASCADE", x.DropConstraint("users", "users_email", true))
	assert.Equal(t, "DROP TABLE users", x.DropTable(users))
	assert.Equal(t, "DROP INDEX users_email", x.DropIndex(users.Indexes[0]))
	assert.Equal(t, "ALTER TABLE users DROP COLUMN name RESTRICT", x.DropColumn(users, "name", false))
	assert.Equal(t, "CREATE SEQUENCE user_seq START WITH 100 INCREMENT BY 10", x.CreateSequence("user_seq", 100, 10))
	assert.Equal(t, "CREATE SEQUENCE user_seq", x.CreateSequence("user_seq", 0, 0))
	assert.Equal(t, "DROP SEQUENCE user_seq", x.DropSequence("user_seq"))

	age := schema.NewNullIntColumn("age", "smallint")
	stmt, err := x.AddColumn(users, age)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE users ADD COLUMN age SMALLINT", stmt)

	idx := schema.NewUniqueIndex("users_name_email").
		AddColumns(users.Columns[1], users.Columns[2]).
		AddAttrs(sqlschema.UniqueStructure("btree", "name", "email"))
	stmt, err = x.CreateIndex(users, idx)
	require.NoError(t, err)
	assert.Equal(t, "CREATE UNIQUE INDEX users_name_email ON users (name, email) WITH STRUCTURE=BTREE UNIQUE ON name, email", stmt)

	_, err = x.CreateIndex(users, schema.NewIndex("empty"))
	require.Error(t, err)

	reserved := schema.NewTable("user").AddColumns(schema.NewIntColumn("order", "int"))
	reserved.AddAttrs(sqlschema.Structure("HEAP"))
	assert.Equal(t, `MODIFY "user" TO HEAP`, x.Modify(reserved))
	assert.Empty(t, x.Modify(users))
}

func TestTablePlan_Exec(t *testing.T) {
	ctx := context.Background()
	plan := &TablePlan{
		Table:    "users",
		Create:   "CREATE TABLE users (id INTEGER NOT NULL)",
		Modify:   "MODIFY users TO BTREE ON id",
		Indexes:  []string{"CREATE INDEX users_id ON users (id)"},
		Comments: []string{"COMMENT ON TABLE users IS 'u'"},
	}

	t.Run("ok", func(t *testing.T) {
		db, mk, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		for _, stmt := range plan.Statements() {
			mk.ExpectExec(escape(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		require.NoError(t, plan.Exec(ctx, sql.OpenDB(dialect.Ingres, db)))
		require.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("create_failed", func(t *testing.T) {
		db, mk, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mk.ExpectExec(escape(plan.Create)).WillReturnError(errors.New("E_US07DA duplicate object name"))
		err = plan.Exec(ctx, sql.OpenDB(dialect.Ingres, db))
		require.Error(t, err)
		assert.False(t, actian.IsPartialDDL(err))
		require.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("modify_failed", func(t *testing.T) {
		db, mk, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mk.ExpectExec(escape(plan.Create)).WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(escape(plan.Modify)).WillReturnError(errors.New("invalid key column"))
		err = plan.Exec(ctx, sql.OpenDB(dialect.Ingres, db))
		var pe *actian.PartialDDLError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "users", pe.Table)
		assert.Equal(t, "modify", pe.Phase)
		require.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("index_failed", func(t *testing.T) {
		db, mk, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mk.ExpectExec(escape(plan.Create)).WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(escape(plan.Modify)).WillReturnResult(sqlmock.NewResult(0, 0))
		mk.ExpectExec(escape(plan.Indexes[0])).WillReturnError(errors.New("lock timeout"))
		err = plan.Exec(ctx, sql.OpenDB(dialect.Ingres, db))
		var pe *actian.PartialDDLError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "index", pe.Phase)
		require.NoError(t, mk.ExpectationsWereMet())
	})
}
