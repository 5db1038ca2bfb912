package ingres

// Catalog queries. Owner filters are appended when a schema is given, so
// the builders below return the text and its trailing arguments.
const (
	capabilitiesQuery  = "SELECT cap_capability, cap_value FROM iidbcapabilities"
	defaultSchemaQuery = "SELECT dbmsinfo('username')"
	schemasQuery       = "SELECT schema_name FROM iischema"

	columnsQuery = "SELECT column_name, column_datatype, column_nulls, column_default_val, " +
		"column_length, column_scale, column_always_ident, column_bydefault_ident " +
		"FROM iicolumns WHERE table_name = ?"
	columnCommentQuery = "SELECT long_remark FROM iidb_subcomments WHERE object_name = ? AND subobject_name = ?"
	tableCommentQuery  = "SELECT long_remark FROM iidb_comments WHERE object_name = ?"

	primaryKeyQuery = "SELECT k.constraint_name, k.column_name FROM iikeys k, iiconstraints c " +
		"WHERE k.constraint_name = c.constraint_name AND c.constraint_type = 'P' AND k.table_name = ?"
	uniqueQuery = "SELECT k.constraint_name, k.column_name FROM iikeys k, iiconstraints c " +
		"WHERE k.constraint_name = c.constraint_name AND c.constraint_type = 'U' AND k.table_name = ?"
	foreignKeysQuery = "SELECT f.constraint_name AS name, f.column_name AS constrained_column, " +
		"p.schema_name AS referred_schema, p.table_name AS referred_table, p.column_name AS referred_column " +
		"FROM iikeys f, iikeys p, iiref_constraints rc, iiconstraints c " +
		"WHERE c.constraint_type = 'R' AND c.constraint_name = rc.ref_constraint_name " +
		"AND p.constraint_name = rc.unique_constraint_name AND f.constraint_name = rc.ref_constraint_name " +
		"AND p.key_position = f.key_position AND f.table_name = ?"

	indexesQuery = "SELECT i.index_name, c.column_name, i.unique_rule FROM iiindexes i, iiindex_columns c " +
		"WHERE i.index_name = c.index_name AND i.index_owner = c.index_owner AND i.base_name = ?"

	storageQuery     = "SELECT storage_structure, unique_rule, is_compressed FROM iitables WHERE table_name = ?"
	storageKeysQuery = "SELECT column_name FROM iicolumns WHERE table_name = ? AND key_sequence > 0"

	tablesQuery       = "SELECT table_name FROM iitables WHERE table_type = 'T'"
	hasTableQuery     = "SELECT table_name FROM iitables WHERE table_name = ? AND table_type = 'T'"
	viewsQuery        = "SELECT table_name FROM iiviews"
	hasViewQuery      = "SELECT table_name FROM iiviews WHERE table_name = ?"
	viewDefQuery      = "SELECT text_segment FROM iiviews WHERE table_name = ?"
	sequencesQuery    = "SELECT seq_name FROM iisequences"
	hasSequenceQuery  = "SELECT seq_name FROM iisequences WHERE seq_name = ?"
	systemOwner       = "$ingres"
	notSystemOwner    = " AND table_owner != '$ingres'"
	notSystemTable    = " AND table_name NOT LIKE 'ii%'"
	orderByKeyPos     = " ORDER BY k.key_position"
	orderByForeignPos = " ORDER BY f.key_position"
)

// owned appends the owner predicate when schema is set.
func owned(query, column, schema string, args []any) (string, []any) {
	if schema == "" {
		return query, args
	}
	return query + " AND " + column + " = ?", append(args, schema)
}

func columnsSQL(table, schema string) (string, []any) {
	q, args := owned(columnsQuery, "table_owner", schema, []any{table})
	return q + " ORDER BY column_sequence", args
}

func columnCommentSQL(table, column, schema string) (string, []any) {
	return owned(columnCommentQuery, "object_owner", schema, []any{table, column})
}

func tableCommentSQL(table, schema string) (string, []any) {
	return owned(tableCommentQuery, "object_owner", schema, []any{table})
}

func primaryKeySQL(table, schema string) (string, []any) {
	q, args := owned(primaryKeyQuery, "k.schema_name", schema, []any{table})
	return q + orderByKeyPos, args
}

func uniqueSQL(table, schema string) (string, []any) {
	q, args := owned(uniqueQuery, "k.schema_name", schema, []any{table})
	return q + orderByKeyPos, args
}

func foreignKeysSQL(table, schema string) (string, []any) {
	q, args := owned(foreignKeysQuery, "f.schema_name", schema, []any{table})
	return q + orderByForeignPos, args
}

func indexesSQL(table, schema string, system bool) (string, []any) {
	q := indexesQuery
	if !system {
		q += " AND i.system_use = 'U'"
	}
	q, args := owned(q, "i.index_owner", schema, []any{table})
	return q + " ORDER BY c.key_sequence", args
}

func storageSQL(table, schema string) (string, []any) {
	return owned(storageQuery, "table_owner", schema, []any{table})
}

func storageKeysSQL(table, schema string) (string, []any) {
	q, args := owned(storageKeysQuery, "table_owner", schema, []any{table})
	return q + " ORDER BY key_sequence", args
}

// tablesSQL lists base tables. Catalog tables are hidden unless the system
// owner is asked for.
func tablesSQL(schema string) (string, []any) {
	switch schema {
	case "":
		return tablesQuery + notSystemOwner + notSystemTable, []any{}
	case systemOwner:
		return tablesQuery + " AND table_owner = ?", []any{schema}
	default:
		return tablesQuery + " AND table_owner = ?" + notSystemTable, []any{schema}
	}
}

func hasTableSQL(table, schema string) (string, []any) {
	return owned(hasTableQuery, "table_owner", schema, []any{table})
}

func viewsSQL(schema string) (string, []any) {
	if schema == "" {
		return viewsQuery + " WHERE table_owner != '$ingres'", []any{}
	}
	return viewsQuery + " WHERE table_owner = ?", []any{schema}
}

func hasViewSQL(view, schema string) (string, []any) {
	return owned(hasViewQuery, "table_owner", schema, []any{view})
}

func viewDefSQL(view, schema string) (string, []any) {
	q, args := viewDefQuery+notSystemOwner, []any{view}
	if schema != "" {
		q, args = owned(viewDefQuery, "table_owner", schema, args)
	}
	return q + " ORDER BY text_sequence", args
}

func sequencesSQL(schema string) (string, []any) {
	if schema == "" {
		return sequencesQuery, []any{}
	}
	return sequencesQuery + " WHERE seq_owner = ?", []any{schema}
}

func hasSequenceSQL(seq, schema string) (string, []any) {
	return owned(hasSequenceQuery, "seq_owner", schema, []any{seq})
}
