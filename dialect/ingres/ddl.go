package ingres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ariga.io/atlas/sql/schema"

	"github.com/syssam/actian"
	"github.com/syssam/actian/dialect"
	"github.com/syssam/actian/dialect/sqlschema"
)

// DefaultVarCharLength is the length given to variable character columns
// declared without one.
const DefaultVarCharLength = 255

// DDL renders definition statements from atlas schema objects.
type DDL struct {
	d *Dialect
}

func (x *DDL) quote(name string) string {
	return x.d.Compiler().Quote(name)
}

func (x *DDL) table(t *schema.Table) string {
	if t.Schema != nil && t.Schema.Name != "" {
		return x.quote(t.Schema.Name) + "." + x.quote(t.Name)
	}
	return x.quote(t.Name)
}

func (x *DDL) columns(cs []*schema.Column) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = x.quote(c.Name)
	}
	return strings.Join(names, ", ")
}

func (x *DDL) parts(parts []*schema.IndexPart) string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.C != nil {
			names = append(names, x.quote(p.C.Name))
		}
	}
	return strings.Join(names, ", ")
}

// ColumnSpec renders a column definition of t.
func (x *DDL) ColumnSpec(t *schema.Table, c *schema.Column) (string, error) {
	if c.Type == nil || c.Type.Type == nil {
		return "", fmt.Errorf("dialect/ingres: column %q has no type", c.Name)
	}
	g, err := x.d.types.FromAtlas(c.Type.Type)
	if err != nil {
		return "", err
	}
	ant, _ := sqlschema.From(c.Attrs)
	if (g.Kind == KindVarChar || g.Kind == KindNVarChar) && !g.Bounded() {
		n := DefaultVarCharLength
		if ant.Size > 0 {
			n = int(ant.Size)
		}
		g = &Type{Kind: g.Kind, Length: intp(n)}
	}
	native, err := x.d.types.Native(g)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(x.quote(c.Name))
	b.WriteByte(' ')
	b.WriteString(native)
	def, err := x.defaultValue(c, ant)
	if err != nil {
		return "", err
	}
	if def != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(def)
	}
	gen := generatedExpr(c)
	if gen != nil {
		b.WriteString(" GENERATED ALWAYS AS (")
		b.WriteString(gen.Expr)
		b.WriteByte(')')
		if strings.EqualFold(gen.Type, "STORED") {
			b.WriteString(" STORED")
		}
	}
	identity := ant.Identity != ""
	switch {
	case identity:
		fmt.Fprintf(&b, " GENERATED %s AS IDENTITY", ant.Identity)
	case def == "" && gen == nil && ant.IncrementalEnabled() && autoIncrement(x.d.types, t) == c:
		identity = true
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}
	notNull, err := x.notNull(t, c, identity)
	if err != nil {
		return "", err
	}
	if notNull {
		b.WriteString(" NOT NULL")
	}
	return b.String(), nil
}

// notNull decides the nullability of c. Unique columns are forced NOT NULL
// only by the row store, so the decision needs the DBMS_TYPE capability.
func (x *DDL) notNull(t *schema.Table, c *schema.Column, identity bool) (bool, error) {
	if identity || primaryKey(t, c) || !c.Type.Null {
		return true, nil
	}
	if !uniqueColumn(t, c) {
		return false, nil
	}
	sd, err := x.d.SubDialect()
	if err != nil {
		return false, err
	}
	return sd == RowStore, nil
}

func (x *DDL) defaultValue(c *schema.Column, ant sqlschema.Annotation) (string, error) {
	if ant.Sequence != "" {
		return x.d.Compiler().SequenceRef(ant.Sequence), nil
	}
	switch d := c.Default.(type) {
	case nil:
		return "", nil
	case *schema.Literal:
		return d.V, nil
	case *schema.RawExpr:
		return d.X, nil
	default:
		return "", fmt.Errorf("dialect/ingres: unsupported default %T on column %q", d, c.Name)
	}
}

func generatedExpr(c *schema.Column) *schema.GeneratedExpr {
	for _, a := range c.Attrs {
		if g, ok := a.(*schema.GeneratedExpr); ok {
			return g
		}
	}
	return nil
}

func primaryKey(t *schema.Table, c *schema.Column) bool {
	if t == nil || t.PrimaryKey == nil {
		return false
	}
	for _, p := range t.PrimaryKey.Parts {
		if p.C == c {
			return true
		}
	}
	return false
}

func uniqueColumn(t *schema.Table, c *schema.Column) bool {
	if t == nil {
		return false
	}
	for _, idx := range t.Indexes {
		if !idx.Unique {
			continue
		}
		for _, p := range idx.Parts {
			if p.C == c {
				return true
			}
		}
	}
	return false
}

// autoIncrement returns the single integer primary-key column of t that
// is not part of a foreign key, or nil.
func autoIncrement(m TypeMapper, t *schema.Table) *schema.Column {
	if t == nil || t.PrimaryKey == nil || len(t.PrimaryKey.Parts) != 1 {
		return nil
	}
	c := t.PrimaryKey.Parts[0].C
	if c == nil || c.Type == nil {
		return nil
	}
	if g, err := m.FromAtlas(c.Type.Type); err != nil || !g.Integral() {
		return nil
	}
	for _, fk := range t.ForeignKeys {
		for _, fc := range fk.Columns {
			if fc == c {
				return nil
			}
		}
	}
	return c
}

// DropConstraint renders the removal of a named table constraint.
func (x *DDL) DropConstraint(table, name string, cascade bool) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s %s", x.quote(table), x.quote(name), behavior(cascade))
}

func behavior(cascade bool) string {
	if cascade {
		return "CASCADE"
	}
	return "RESTRICT"
}

// CreateIndex renders the creation of idx on t.
func (x *DDL) CreateIndex(t *schema.Table, idx *schema.Index) (string, error) {
	if len(idx.Parts) == 0 {
		return "", fmt.Errorf("dialect/ingres: index %q has no columns", idx.Name)
	}
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&b, "INDEX %s ON %s (%s)", x.quote(idx.Name), x.table(t), x.parts(idx.Parts))
	if ant, _ := sqlschema.From(idx.Attrs); ant.HasStructure() {
		b.WriteString(" WITH STRUCTURE=")
		b.WriteString(x.structure(ant))
	}
	return b.String(), nil
}

// structure renders a storage structure with its optional keys.
func (x *DDL) structure(ant sqlschema.Annotation) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(ant.Structure))
	if len(ant.StructureKeys) > 0 {
		if ant.StructureUnique {
			b.WriteString(" UNIQUE")
		}
		keys := make([]string, len(ant.StructureKeys))
		for i, k := range ant.StructureKeys {
			keys[i] = x.quote(k)
		}
		b.WriteString(" ON ")
		b.WriteString(strings.Join(keys, ", "))
	}
	return b.String()
}

// Modify renders the MODIFY statement applying the storage structure of t.
// It returns "" when t carries no structure.
func (x *DDL) Modify(t *schema.Table) string {
	ant, _ := sqlschema.From(t.Attrs)
	if !ant.HasStructure() {
		return ""
	}
	return "MODIFY " + x.table(t) + " TO " + x.structure(ant)
}

// TablePlan is the multi-statement creation of one table. MODIFY rebuilds
// the table and drops its secondary indexes, so indexes come after it.
type TablePlan struct {
	Table    string
	Create   string
	Modify   string
	Indexes  []string
	Comments []string

	logger *slog.Logger
}

// Statements returns all statements in execution order.
func (p *TablePlan) Statements() []string {
	stmts := []string{p.Create}
	if p.Modify != "" {
		stmts = append(stmts, p.Modify)
	}
	stmts = append(stmts, p.Indexes...)
	return append(stmts, p.Comments...)
}

// Exec runs the plan on conn. The phases are not atomic: when a phase after
// CREATE TABLE fails, the table exists and a *actian.PartialDDLError is
// returned.
func (p *TablePlan) Exec(ctx context.Context, conn dialect.ExecQuerier) error {
	if err := conn.Exec(ctx, p.Create, []any{}, nil); err != nil {
		return err
	}
	phases := []struct {
		name  string
		stmts []string
	}{
		{"modify", nonEmpty(p.Modify)},
		{"index", p.Indexes},
		{"comment", p.Comments},
	}
	for _, ph := range phases {
		for _, stmt := range ph.stmts {
			if err := conn.Exec(ctx, stmt, []any{}, nil); err != nil {
				return &actian.PartialDDLError{Table: p.Table, Phase: ph.name, Err: err}
			}
		}
		if len(ph.stmts) > 0 && p.logger != nil {
			p.logger.DebugContext(ctx, "table phase applied", "table", p.Table, "phase", ph.name, "statements", len(ph.stmts))
		}
	}
	return nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// CreateTable renders the creation of t.
func (x *DDL) CreateTable(t *schema.Table) (*TablePlan, error) {
	if err := x.d.Validate(t); err != nil {
		return nil, err
	}
	var (
		lines []string
		errs  []error
	)
	for _, c := range t.Columns {
		spec, err := x.ColumnSpec(t, c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lines = append(lines, spec)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if pk := t.PrimaryKey; pk != nil && len(pk.Parts) > 0 {
		lines = append(lines, x.constraintName(pk.Name)+"PRIMARY KEY ("+x.parts(pk.Parts)+")")
	}
	var indexes []string
	for _, idx := range t.Indexes {
		if ant, _ := sqlschema.From(idx.Attrs); ant.Constraint && idx.Unique {
			lines = append(lines, x.constraintName(idx.Name)+"UNIQUE ("+x.parts(idx.Parts)+")")
			continue
		}
		stmt, err := x.CreateIndex(t, idx)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, stmt)
	}
	for _, fk := range t.ForeignKeys {
		line, err := x.foreignKey(fk)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	for _, a := range t.Attrs {
		if c, ok := a.(*schema.Check); ok {
			lines = append(lines, x.constraintName(c.Name)+"CHECK ("+c.Expr+")")
		}
	}
	plan := &TablePlan{
		Table:   t.Name,
		Create:  "CREATE TABLE " + x.table(t) + " (\n\t" + strings.Join(lines, ",\n\t") + "\n)",
		Modify:  x.Modify(t),
		Indexes: indexes,
		logger:  x.d.logger,
	}
	if c := comment(t.Attrs); c != "" {
		plan.Comments = append(plan.Comments, x.CommentOnTable(t, c))
	}
	for _, col := range t.Columns {
		if c := comment(col.Attrs); c != "" {
			plan.Comments = append(plan.Comments, x.CommentOnColumn(t, col, c))
		}
	}
	return plan, nil
}

// constraintName renders the CONSTRAINT prefix. Server generated names
// start with '$' and are left out.
func (x *DDL) constraintName(name string) string {
	if name == "" || strings.HasPrefix(name, "$") {
		return ""
	}
	return "CONSTRAINT " + x.quote(name) + " "
}

func (x *DDL) foreignKey(fk *schema.ForeignKey) (string, error) {
	if fk.RefTable == nil || len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
		return "", fmt.Errorf("dialect/ingres: invalid foreign key %q", fk.Symbol)
	}
	var b strings.Builder
	b.WriteString(x.constraintName(fk.Symbol))
	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)", x.columns(fk.Columns), x.table(fk.RefTable), x.columns(fk.RefColumns))
	if a := fk.OnDelete; a != "" && a != schema.NoAction {
		b.WriteString(" ON DELETE " + string(a))
	}
	if a := fk.OnUpdate; a != "" && a != schema.NoAction {
		b.WriteString(" ON UPDATE " + string(a))
	}
	return b.String(), nil
}

func comment(attrs []schema.Attr) string {
	for _, a := range attrs {
		if c, ok := a.(*schema.Comment); ok {
			return c.Text
		}
	}
	return ""
}

// DropTable renders the removal of t.
func (x *DDL) DropTable(t *schema.Table) string {
	return "DROP TABLE " + x.table(t)
}

// DropIndex renders the removal of an index.
func (x *DDL) DropIndex(idx *schema.Index) string {
	return "DROP INDEX " + x.quote(idx.Name)
}

// AddColumn renders the addition of c to t.
func (x *DDL) AddColumn(t *schema.Table, c *schema.Column) (string, error) {
	spec, err := x.ColumnSpec(t, c)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + x.table(t) + " ADD COLUMN " + spec, nil
}

// DropColumn renders the removal of a column.
func (x *DDL) DropColumn(t *schema.Table, name string, cascade bool) string {
	return "ALTER TABLE " + x.table(t) + " DROP COLUMN " + x.quote(name) + " " + behavior(cascade)
}

// CreateSequence renders the creation of a sequence.
func (x *DDL) CreateSequence(name string, start, increment int64) string {
	var b strings.Builder
	b.WriteString("CREATE SEQUENCE ")
	b.WriteString(x.quote(name))
	if start != 0 {
		fmt.Fprintf(&b, " START WITH %d", start)
	}
	if increment != 0 {
		fmt.Fprintf(&b, " INCREMENT BY %d", increment)
	}
	return b.String()
}

// DropSequence renders the removal of a sequence.
func (x *DDL) DropSequence(name string) string {
	return "DROP SEQUENCE " + x.quote(name)
}

// CommentOnTable renders a table comment.
func (x *DDL) CommentOnTable(t *schema.Table, text string) string {
	return "COMMENT ON TABLE " + x.table(t) + " IS " + literal(text)
}

// CommentOnColumn renders a column comment.
func (x *DDL) CommentOnColumn(t *schema.Table, c *schema.Column, text string) string {
	return "COMMENT ON COLUMN " + x.table(t) + "." + x.quote(c.Name) + " IS " + literal(text)
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
