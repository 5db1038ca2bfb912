package ingres

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"ariga.io/atlas/sql/schema"
	"github.com/google/uuid"

	"github.com/syssam/actian"
	"github.com/syssam/actian/dialect"
	"github.com/syssam/actian/dialect/sql"
	"github.com/syssam/actian/dialect/sqlschema"
)

// Identity is the identity kind of a reflected column.
type Identity uint8

const (
	IdentityNone Identity = iota
	IdentityAlways
	IdentityByDefault
)

// String implements fmt.Stringer.
func (i Identity) String() string {
	switch i {
	case IdentityAlways:
		return "always"
	case IdentityByDefault:
		return "by default"
	default:
		return "none"
	}
}

// Column describes a reflected column.
type Column struct {
	Name          string
	Type          *Type
	Native        string
	Nullable      bool
	Default       *string
	Identity      Identity
	Comment       string
	AutoIncrement bool
}

// PrimaryKey describes a reflected primary key.
type PrimaryKey struct {
	Name    string
	Columns []string
}

// ForeignKey describes a reflected foreign key. RefSchema is empty when the
// referred table lives in the default schema.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefSchema  string
	RefTable   string
	RefColumns []string
}

// UniqueConstraint describes a reflected unique constraint. Name is empty
// for constraints named by the server.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// Index describes a reflected index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Storage describes the storage structure of a reflected table. Keys are
// ordered by key sequence.
type Storage struct {
	Structure  string
	Keys       []string
	Unique     bool
	Compressed bool
}

type systemIndexesKey struct{}

// WithSystemIndexes returns a context under which Indexes also reports
// indexes generated by the server.
func WithSystemIndexes(ctx context.Context) context.Context {
	return context.WithValue(ctx, systemIndexesKey{}, true)
}

func systemIndexes(ctx context.Context) bool {
	v, _ := ctx.Value(systemIndexesKey{}).(bool)
	return v
}

// Inspector reflects the catalog through one connection. An Inspector is a
// reflection session: results are memoized per connection identity,
// operation and name, since catalog shape does not change within it.
type Inspector struct {
	d      *Dialect
	conn   dialect.ExecQuerier
	cache  actian.Cache
	connID string
	ttl    time.Duration
	logger *slog.Logger
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithCache sets the cache holding reflection results. The default is an
// in-process memory cache private to the Inspector.
func WithCache(c actian.Cache) InspectorOption {
	return func(i *Inspector) {
		i.cache = c
	}
}

// WithCacheTTL sets the lifetime of cached results. Zero keeps them for
// the life of the cache.
func WithCacheTTL(ttl time.Duration) InspectorOption {
	return func(i *Inspector) {
		i.ttl = ttl
	}
}

// WithConnID sets the connection identity used in cache keys. Inspectors
// sharing a cache and an identity share results.
func WithConnID(id string) InspectorOption {
	return func(i *Inspector) {
		i.connID = id
	}
}

// WithInspectorLogger sets the logger. The dialect logger is the default.
func WithInspectorLogger(l *slog.Logger) InspectorOption {
	return func(i *Inspector) {
		i.logger = l
	}
}

// Inspector returns a reflection session on conn.
func (d *Dialect) Inspector(conn dialect.ExecQuerier, opts ...InspectorOption) *Inspector {
	i := &Inspector{d: d, conn: conn, logger: d.logger}
	for _, opt := range opts {
		opt(i)
	}
	if i.cache == nil {
		i.cache = actian.NewMemoryCache()
	}
	if i.connID == "" {
		i.connID = uuid.NewString()
	}
	return i
}

// Invalidate drops the results memoized for the connection identity.
func (i *Inspector) Invalidate(ctx context.Context) error {
	return i.cache.DeletePrefix(ctx, actian.CacheKey{Conn: i.connID}.Prefix())
}

// memo returns the cached result of op or loads and stores it. Cache
// failures are logged and never fail the reflection.
func memo[T any](ctx context.Context, i *Inspector, op, name, schema string, load func() (T, error)) (T, error) {
	key := actian.CacheKey{Conn: i.connID, Op: op, Name: name, Schema: schema}.String()
	var v T
	ok, err := actian.CacheLoad(ctx, i.cache, key, &v)
	if err != nil {
		i.logger.WarnContext(ctx, "reflection cache read failed", "key", key, "error", err)
	}
	if ok {
		return v, nil
	}
	v, err = load()
	if err != nil {
		return v, err
	}
	if err := actian.CacheStore(ctx, i.cache, key, v, i.ttl); err != nil {
		i.logger.WarnContext(ctx, "reflection cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// query runs a catalog query and hands every row to fn. The cursor is
// closed on every path.
func (i *Inspector) query(ctx context.Context, op, query string, args []any, fn func(sql.ColumnScanner) error) error {
	rows := &sql.Rows{}
	if err := i.conn.Query(sql.WithCatalog(ctx), query, args, rows); err != nil {
		return actian.NewQueryError(op, err)
	}
	if err := sql.ScanRows(rows, fn); err != nil {
		return actian.NewQueryError(op, err)
	}
	return nil
}

// names runs a single column query and returns the normalized values.
func (i *Inspector) names(ctx context.Context, op, query string, args []any) ([]string, error) {
	var names []string
	err := i.query(ctx, op, query, args, func(s sql.ColumnScanner) error {
		var n sql.NullString
		if err := s.Scan(&n); err != nil {
			return err
		}
		names = append(names, i.d.Normalize(n.String))
		return nil
	})
	return names, err
}

// exists reports whether the query yields a row.
func (i *Inspector) exists(ctx context.Context, op, query string, args []any) (bool, error) {
	var found bool
	err := i.query(ctx, op, query, args, func(sql.ColumnScanner) error {
		found = true
		return nil
	})
	return found, err
}

// bind denormalizes the table and schema names before binding.
func (i *Inspector) bind(name, schema string) (string, string) {
	return i.d.Denormalize(name), i.d.Denormalize(schema)
}

type rawColumn struct {
	name, native, nulls, always, byDefault string
	def                                    sql.NullString
	length, scale                          sql.NullInt64
}

// Columns returns the columns of table in declaration order. A missing
// table has no columns.
func (i *Inspector) Columns(ctx context.Context, table, schema string) ([]*Column, error) {
	return memo(ctx, i, "columns", table, schema, func() ([]*Column, error) {
		t, s := i.bind(table, schema)
		q, args := columnsSQL(t, s)
		var raws []rawColumn
		err := i.query(ctx, "columns", q, args, func(sc sql.ColumnScanner) error {
			var (
				r                              rawColumn
				name, native, nulls, al, bydef sql.NullString
			)
			if err := sc.Scan(&name, &native, &nulls, &r.def, &r.length, &r.scale, &al, &bydef); err != nil {
				return err
			}
			r.name = strings.TrimRight(name.String, " ")
			r.native = strings.TrimSpace(native.String)
			r.nulls, r.always, r.byDefault = trim(nulls), trim(al), trim(bydef)
			raws = append(raws, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
		// Comments are read after the column cursor is closed.
		columns := make([]*Column, 0, len(raws))
		for _, r := range raws {
			typ, err := i.d.types.ReflectType(r.native, int(r.length.Int64), int(r.scale.Int64))
			if err != nil {
				return nil, fmt.Errorf("dialect/ingres: column %s.%s: %w", table, i.d.Normalize(r.name), err)
			}
			c := &Column{
				Name:     i.d.Normalize(r.name),
				Type:     typ,
				Native:   r.native,
				Nullable: r.nulls == "Y",
			}
			switch {
			case r.always == "Y":
				c.Identity = IdentityAlways
			case r.byDefault == "Y":
				c.Identity = IdentityByDefault
			}
			c.AutoIncrement = c.Identity != IdentityNone
			if r.def.Valid && strings.TrimSpace(r.def.String) != "" {
				def := strings.TrimSpace(r.def.String)
				c.Default = &def
			}
			if c.Comment, err = i.columnComment(ctx, t, r.name, s); err != nil {
				return nil, err
			}
			columns = append(columns, c)
		}
		return columns, nil
	})
}

func trim(s sql.NullString) string {
	return strings.TrimSpace(s.String)
}

func (i *Inspector) columnComment(ctx context.Context, table, column, schema string) (string, error) {
	q, args := columnCommentSQL(table, column, schema)
	return i.remark(ctx, "column comment", q, args)
}

func (i *Inspector) remark(ctx context.Context, op, q string, args []any) (string, error) {
	var remark string
	err := i.query(ctx, op, q, args, func(s sql.ColumnScanner) error {
		var r sql.NullString
		if err := s.Scan(&r); err != nil {
			return err
		}
		if remark == "" {
			remark = strings.TrimRight(r.String, " ")
		}
		return nil
	})
	return remark, err
}

// TableComment returns the comment of table, or "".
func (i *Inspector) TableComment(ctx context.Context, table, schema string) (string, error) {
	return memo(ctx, i, "table comment", table, schema, func() (string, error) {
		q, args := tableCommentSQL(i.bind(table, schema))
		return i.remark(ctx, "table comment", q, args)
	})
}

// PrimaryKey returns the primary key of table, or nil.
func (i *Inspector) PrimaryKey(ctx context.Context, table, schema string) (*PrimaryKey, error) {
	return memo(ctx, i, "primary key", table, schema, func() (*PrimaryKey, error) {
		q, args := primaryKeySQL(i.bind(table, schema))
		var pk *PrimaryKey
		err := i.query(ctx, "primary key", q, args, func(s sql.ColumnScanner) error {
			var name, column sql.NullString
			if err := s.Scan(&name, &column); err != nil {
				return err
			}
			if pk == nil {
				pk = &PrimaryKey{Name: i.d.Normalize(name.String)}
			}
			pk.Columns = append(pk.Columns, i.d.Normalize(column.String))
			return nil
		})
		return pk, err
	})
}

// ForeignKeys returns the foreign keys of table. Columns of each key are
// paired by key position.
func (i *Inspector) ForeignKeys(ctx context.Context, table, schema string) ([]*ForeignKey, error) {
	return memo(ctx, i, "foreign keys", table, schema, func() ([]*ForeignKey, error) {
		// The default schema is resolved before the key cursor is opened.
		def, err := i.DefaultSchema(ctx)
		if err != nil {
			return nil, err
		}
		q, args := foreignKeysSQL(i.bind(table, schema))
		var (
			order []string
			fks   = make(map[string]*ForeignKey)
		)
		err = i.query(ctx, "foreign keys", q, args, func(s sql.ColumnScanner) error {
			var name, column, refSchema, refTable, refColumn sql.NullString
			if err := s.Scan(&name, &column, &refSchema, &refTable, &refColumn); err != nil {
				return err
			}
			key := strings.TrimRight(name.String, " ")
			fk, ok := fks[key]
			if !ok {
				fk = &ForeignKey{
					Name:      i.d.Normalize(key),
					RefSchema: i.d.Normalize(refSchema.String),
					RefTable:  i.d.Normalize(refTable.String),
				}
				if fk.RefSchema == def {
					fk.RefSchema = ""
				}
				fks[key] = fk
				order = append(order, key)
			}
			fk.Columns = append(fk.Columns, i.d.Normalize(column.String))
			fk.RefColumns = append(fk.RefColumns, i.d.Normalize(refColumn.String))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ordered(order, fks), nil
	})
}

// UniqueConstraints returns the unique constraints of table.
func (i *Inspector) UniqueConstraints(ctx context.Context, table, schema string) ([]*UniqueConstraint, error) {
	return memo(ctx, i, "unique constraints", table, schema, func() ([]*UniqueConstraint, error) {
		q, args := uniqueSQL(i.bind(table, schema))
		var (
			order   []string
			uniques = make(map[string]*UniqueConstraint)
		)
		err := i.query(ctx, "unique constraints", q, args, func(s sql.ColumnScanner) error {
			var name, column sql.NullString
			if err := s.Scan(&name, &column); err != nil {
				return err
			}
			key := strings.TrimRight(name.String, " ")
			u, ok := uniques[key]
			if !ok {
				u = &UniqueConstraint{}
				if !strings.HasPrefix(key, "$") {
					u.Name = i.d.Normalize(key)
				}
				uniques[key] = u
				order = append(order, key)
			}
			u.Columns = append(u.Columns, i.d.Normalize(column.String))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ordered(order, uniques), nil
	})
}

// Indexes returns the indexes of table. Server generated indexes are left
// out unless ctx was derived with WithSystemIndexes.
func (i *Inspector) Indexes(ctx context.Context, table, schema string) ([]*Index, error) {
	system := systemIndexes(ctx)
	op := "indexes"
	if system {
		op = "indexes+system"
	}
	return memo(ctx, i, op, table, schema, func() ([]*Index, error) {
		t, s := i.bind(table, schema)
		q, args := indexesSQL(t, s, system)
		var (
			order   []string
			indexes = make(map[string]*Index)
		)
		err := i.query(ctx, "indexes", q, args, func(sc sql.ColumnScanner) error {
			var name, column, rule sql.NullString
			if err := sc.Scan(&name, &column, &rule); err != nil {
				return err
			}
			key := strings.TrimRight(name.String, " ")
			idx, ok := indexes[key]
			if !ok {
				idx = &Index{Name: i.d.Normalize(key), Unique: trim(rule) == "U"}
				indexes[key] = idx
				order = append(order, key)
			}
			idx.Columns = append(idx.Columns, i.d.Normalize(column.String))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ordered(order, indexes), nil
	})
}

// StorageStructure returns the storage structure of table, or nil when the
// table does not exist.
func (i *Inspector) StorageStructure(ctx context.Context, table, schema string) (*Storage, error) {
	return memo(ctx, i, "storage", table, schema, func() (*Storage, error) {
		t, s := i.bind(table, schema)
		q, args := storageSQL(t, s)
		var st *Storage
		err := i.query(ctx, "storage", q, args, func(sc sql.ColumnScanner) error {
			var structure, rule, compressed sql.NullString
			if err := sc.Scan(&structure, &rule, &compressed); err != nil {
				return err
			}
			if st == nil {
				st = &Storage{
					Structure:  strings.ToUpper(trim(structure)),
					Unique:     trim(rule) == "U",
					Compressed: trim(compressed) == "Y",
				}
			}
			return nil
		})
		if err != nil || st == nil {
			return nil, err
		}
		// The key cursor opens after the table row cursor is closed.
		q, args = storageKeysSQL(t, s)
		if st.Keys, err = i.names(ctx, "storage", q, args); err != nil {
			return nil, err
		}
		return st, nil
	})
}

// annotation returns the sqlschema attribute regenerating the structure,
// or nil for the default heap and for structures MODIFY does not accept.
func (st *Storage) annotation() *sqlschema.Annotation {
	name := st.Structure
	if st.Compressed && !strings.HasPrefix(name, "VECTORWISE") && !strings.HasPrefix(name, "X100") {
		name = "C" + name
	}
	if _, ok := structures[name]; !ok || name == "HEAP" {
		return nil
	}
	if st.Unique && len(st.Keys) > 0 {
		return sqlschema.UniqueStructure(name, st.Keys...)
	}
	return sqlschema.Structure(name, st.Keys...)
}

// ordered returns the values of m in insertion order.
func ordered[T any](order []string, m map[string]*T) []*T {
	vs := make([]*T, 0, len(order))
	for _, k := range order {
		vs = append(vs, m[k])
	}
	return vs
}

// TableNames returns the base tables of schema, or of every user when
// schema is empty. Catalog tables are left out.
func (i *Inspector) TableNames(ctx context.Context, schema string) ([]string, error) {
	return memo(ctx, i, "tables", "", schema, func() ([]string, error) {
		q, args := tablesSQL(i.d.Denormalize(schema))
		return i.names(ctx, "tables", q, args)
	})
}

// ViewNames returns the views of schema. The catalog holds one row per text
// segment, so names are deduplicated.
func (i *Inspector) ViewNames(ctx context.Context, schema string) ([]string, error) {
	return memo(ctx, i, "views", "", schema, func() ([]string, error) {
		q, args := viewsSQL(i.d.Denormalize(schema))
		names, err := i.names(ctx, "views", q, args)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{}, len(names))
		return slices.DeleteFunc(names, func(n string) bool {
			_, dup := seen[n]
			seen[n] = struct{}{}
			return dup
		}), nil
	})
}

// SchemaNames returns all schemas.
func (i *Inspector) SchemaNames(ctx context.Context) ([]string, error) {
	return memo(ctx, i, "schemas", "", "", func() ([]string, error) {
		return i.names(ctx, "schemas", schemasQuery, []any{})
	})
}

// SequenceNames returns the sequences of schema.
func (i *Inspector) SequenceNames(ctx context.Context, schema string) ([]string, error) {
	return memo(ctx, i, "sequences", "", schema, func() ([]string, error) {
		q, args := sequencesSQL(i.d.Denormalize(schema))
		return i.names(ctx, "sequences", q, args)
	})
}

type viewText struct {
	Text  string
	Found bool
}

// ViewDefinition returns the source text of view. The catalog splits it
// into ordered segments that are concatenated verbatim.
func (i *Inspector) ViewDefinition(ctx context.Context, view, schema string) (string, bool, error) {
	v, err := memo(ctx, i, "view definition", view, schema, func() (viewText, error) {
		q, args := viewDefSQL(i.bind(view, schema))
		var (
			b     strings.Builder
			found bool
		)
		err := i.query(ctx, "view definition", q, args, func(s sql.ColumnScanner) error {
			var seg sql.NullString
			if err := s.Scan(&seg); err != nil {
				return err
			}
			found = true
			b.WriteString(seg.String)
			return nil
		})
		return viewText{Text: b.String(), Found: found}, err
	})
	return v.Text, v.Found, err
}

// HasTable reports whether table exists.
func (i *Inspector) HasTable(ctx context.Context, table, schema string) (bool, error) {
	return memo(ctx, i, "has table", table, schema, func() (bool, error) {
		q, args := hasTableSQL(i.bind(table, schema))
		return i.exists(ctx, "has table", q, args)
	})
}

// HasView reports whether view exists.
func (i *Inspector) HasView(ctx context.Context, view, schema string) (bool, error) {
	return memo(ctx, i, "has view", view, schema, func() (bool, error) {
		q, args := hasViewSQL(i.bind(view, schema))
		return i.exists(ctx, "has view", q, args)
	})
}

// HasSequence reports whether sequence exists.
func (i *Inspector) HasSequence(ctx context.Context, sequence, schema string) (bool, error) {
	return memo(ctx, i, "has sequence", sequence, schema, func() (bool, error) {
		q, args := hasSequenceSQL(i.bind(sequence, schema))
		return i.exists(ctx, "has sequence", q, args)
	})
}

// DefaultSchema returns the effective user of the session.
func (i *Inspector) DefaultSchema(ctx context.Context) (string, error) {
	return memo(ctx, i, "default schema", "", "", func() (string, error) {
		names, err := i.names(ctx, "default schema", defaultSchemaQuery, []any{})
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "", actian.NewQueryError("default schema", actian.ErrNotFound)
		}
		return names[0], nil
	})
}

// InspectSchema returns the schema description by its name. An empty name
// means the default schema of the session.
func (i *Inspector) InspectSchema(ctx context.Context, name string, opts *schema.InspectOptions) (*schema.Schema, error) {
	if opts == nil {
		opts = &schema.InspectOptions{}
	}
	if name == "" {
		def, err := i.DefaultSchema(ctx)
		if err != nil {
			return nil, err
		}
		name = def
	}
	schemas, err := i.SchemaNames(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(schemas, name) {
		return nil, &schema.NotExistError{Err: fmt.Errorf("dialect/ingres: schema %q was not found", name)}
	}
	s := schema.New(name)
	mode := opts.Mode
	if mode == 0 {
		mode = schema.InspectTables | schema.InspectViews
	}
	if mode.Is(schema.InspectTables) {
		if err := i.inspectTables(ctx, s, opts); err != nil {
			return nil, err
		}
	}
	if mode.Is(schema.InspectViews) {
		if err := i.inspectViews(ctx, s, opts); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// InspectRealm returns the description of the given schemas, or of all of
// them.
func (i *Inspector) InspectRealm(ctx context.Context, opts *schema.InspectRealmOption) (*schema.Realm, error) {
	if opts == nil {
		opts = &schema.InspectRealmOption{}
	}
	names := opts.Schemas
	if len(names) == 0 {
		all, err := i.SchemaNames(ctx)
		if err != nil {
			return nil, err
		}
		names = all
	}
	r := schema.NewRealm()
	for _, name := range names {
		if excluded(name, opts.Exclude) {
			continue
		}
		s, err := i.InspectSchema(ctx, name, &schema.InspectOptions{Mode: opts.Mode})
		if err != nil {
			return nil, err
		}
		r.AddSchemas(s)
	}
	return r, nil
}

// excluded reports whether name matches one of the glob patterns.
func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (i *Inspector) inspectTables(ctx context.Context, s *schema.Schema, opts *schema.InspectOptions) error {
	names, err := i.TableNames(ctx, s.Name)
	if err != nil {
		return err
	}
	for _, name := range names {
		if (len(opts.Tables) > 0 && !slices.Contains(opts.Tables, name)) || excluded(name, opts.Exclude) {
			continue
		}
		t, err := i.inspectTable(ctx, name, s.Name)
		if err != nil {
			return err
		}
		s.AddTables(t)
	}
	// Foreign keys are linked once every table of the schema is known.
	for _, t := range s.Tables {
		fks, err := i.ForeignKeys(ctx, t.Name, s.Name)
		if err != nil {
			return err
		}
		for _, fk := range fks {
			t.AddForeignKeys(linkForeignKey(s, t, fk))
		}
	}
	return nil
}

// InspectTable builds the atlas description of table in a schema of its
// own. Referred tables other than table itself are detached stubs holding
// the name only.
func (i *Inspector) InspectTable(ctx context.Context, table, schemaName string) (*schema.Table, error) {
	t, err := i.inspectTable(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	s := schema.New(schemaName).AddTables(t)
	fks, err := i.ForeignKeys(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	for _, fk := range fks {
		t.AddForeignKeys(linkForeignKey(s, t, fk))
	}
	return t, nil
}

// inspectTable describes table without its foreign keys. Reflected unique
// constraints become unique indexes carrying a sqlschema constraint
// annotation.
func (i *Inspector) inspectTable(ctx context.Context, table, schemaName string) (*schema.Table, error) {
	t := schema.NewTable(table)
	cols, err := i.Columns(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		col := schema.NewColumn(c.Name).SetType(c.Type)
		col.Type.Raw, col.Type.Null = c.Native, c.Nullable
		switch c.Identity {
		case IdentityAlways:
			col.AddAttrs(sqlschema.Identity(sqlschema.GeneratedAlways))
		case IdentityByDefault:
			col.AddAttrs(sqlschema.Identity(sqlschema.GeneratedByDefault))
		default:
			if c.Default != nil {
				col.SetDefault(&schema.RawExpr{X: *c.Default})
			}
		}
		if c.Comment != "" {
			col.SetComment(c.Comment)
		}
		t.AddColumns(col)
	}
	pk, err := i.PrimaryKey(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	if pk != nil {
		parts := tableColumns(t, pk.Columns)
		t.SetPrimaryKey(schema.NewPrimaryKey(parts...).SetName(pk.Name))
		// A key reflected without identity must not gain one when the
		// table is regenerated.
		if len(parts) == 1 {
			if ant, _ := sqlschema.From(parts[0].Attrs); ant.Identity == "" {
				parts[0].AddAttrs(sqlschema.Incremental(false))
			}
		}
	}
	uniques, err := i.UniqueConstraints(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	for _, u := range uniques {
		t.AddIndexes(schema.NewUniqueIndex(u.Name).AddColumns(tableColumns(t, u.Columns)...).AddAttrs(sqlschema.Constraint()))
	}
	indexes, err := i.Indexes(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		t.AddIndexes(schema.NewIndex(idx.Name).SetUnique(idx.Unique).AddColumns(tableColumns(t, idx.Columns)...))
	}
	comment, err := i.TableComment(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	if comment != "" {
		t.SetComment(comment)
	}
	st, err := i.StorageStructure(ctx, table, schemaName)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if ant := st.annotation(); ant != nil {
			t.AddAttrs(ant)
		}
	}
	return t, nil
}

// tableColumns resolves column names of t. Unknown names get detached
// columns so the key keeps its width.
func tableColumns(t *schema.Table, names []string) []*schema.Column {
	cols := make([]*schema.Column, len(names))
	for n, name := range names {
		c, ok := t.Column(name)
		if !ok {
			c = schema.NewColumn(name)
		}
		cols[n] = c
	}
	return cols
}

func linkForeignKey(s *schema.Schema, t *schema.Table, fk *ForeignKey) *schema.ForeignKey {
	var ref *schema.Table
	if fk.RefSchema == "" || fk.RefSchema == s.Name {
		ref, _ = s.Table(fk.RefTable)
	}
	if ref == nil {
		rs := s
		if fk.RefSchema != "" && fk.RefSchema != s.Name {
			rs = schema.New(fk.RefSchema)
		}
		ref = schema.NewTable(fk.RefTable)
		ref.Schema = rs
	}
	return schema.NewForeignKey(fk.Name).
		AddColumns(tableColumns(t, fk.Columns)...).
		SetRefTable(ref).
		AddRefColumns(tableColumns(ref, fk.RefColumns)...)
}

func (i *Inspector) inspectViews(ctx context.Context, s *schema.Schema, opts *schema.InspectOptions) error {
	names, err := i.ViewNames(ctx, s.Name)
	if err != nil {
		return err
	}
	for _, name := range names {
		if excluded(name, opts.Exclude) {
			continue
		}
		def, ok, err := i.ViewDefinition(ctx, name, s.Name)
		if err != nil {
			return err
		}
		if ok {
			s.AddViews(schema.NewView(name, def))
		}
	}
	return nil
}

var _ schema.Inspector = (*Inspector)(nil)
