package ingres

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SelectShape is a SELECT statement whose clauses were compiled elsewhere.
// The compiler only adds the vendor fragments around them.
type SelectShape struct {
	Columns  []string
	From     string
	Where    string
	OrderBy  []string
	Distinct bool
	Limit    int
	Offset   int
	// Subquery marks a nested statement. Nested statements get neither
	// pagination nor DISTINCT.
	Subquery bool
}

// Compiler renders the vendor-specific fragments of statements.
type Compiler struct {
	d *Dialect
}

// Pagination returns the pagination suffix of an outermost statement.
// Values less than or equal to zero are absent.
func (c *Compiler) Pagination(s SelectShape) string {
	if s.Subquery {
		return ""
	}
	var b strings.Builder
	if s.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(s.Offset))
		if s.Limit > 0 {
			b.WriteString(" FETCH FIRST ")
			b.WriteString(strconv.Itoa(s.Limit))
			b.WriteString(" ROWS ONLY")
		}
	} else if s.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(s.Limit))
	}
	return b.String()
}

// Precolumns returns the text placed before the column list.
func (c *Compiler) Precolumns(s SelectShape) string {
	if s.Distinct && !s.Subquery {
		return "DISTINCT "
	}
	return ""
}

// Compile assembles the statement.
func (c *Compiler) Compile(s SelectShape) (string, error) {
	if len(s.Columns) == 0 {
		return "", errors.New("dialect/ingres: select without columns")
	}
	if s.From == "" {
		return "", errors.New("dialect/ingres: select without FROM clause")
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(c.Precolumns(s))
	b.WriteString(strings.Join(s.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.From)
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.OrderBy, ", "))
	}
	b.WriteString(c.Pagination(s))
	return b.String(), nil
}

// SequenceRef returns the expression reading the next value of a sequence.
func (c *Compiler) SequenceRef(seq string) string {
	return "NEXT VALUE FOR " + c.Quote(seq)
}

// NextValue returns the statement fetching the next value of a sequence.
func (c *Compiler) NextValue(seq string) string {
	return "SELECT " + c.SequenceRef(seq)
}

// Savepoint returns the statement creating a savepoint.
func (c *Compiler) Savepoint(name string) string {
	return "SAVEPOINT " + c.Quote(name)
}

// RollbackTo returns the statement rolling back to a savepoint.
func (c *Compiler) RollbackTo(name string) string {
	return "ROLLBACK TO " + c.Quote(name)
}

// ReleaseSavepoint returns an empty statement. The server releases
// savepoints on commit and has no statement for it.
func (c *Compiler) ReleaseSavepoint(string) string {
	return ""
}

var isolationLevels = map[string]struct{}{
	"READ COMMITTED":   {},
	"READ UNCOMMITTED": {},
	"REPEATABLE READ":  {},
	"SERIALIZABLE":     {},
}

// SetIsolation returns the statement setting the session isolation level.
func (c *Compiler) SetIsolation(level string) (string, error) {
	level = strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(level, "_", " ")), " "))
	if _, ok := isolationLevels[level]; !ok {
		return "", fmt.Errorf("dialect/ingres: invalid isolation level %q", level)
	}
	return "SET SESSION ISOLATION LEVEL " + level, nil
}

// regular matches names in the canonical caller form. Under every policy
// callers use lower case, so other names keep their case only when delimited.
var regular = regexp.MustCompile(`^[a-z_][a-z0-9_#@$]*$`)

// reserved holds the keywords that must be delimited when used as names.
var reserved = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(`
		abort all and any as asc at avg between by byref call cascade check close
		column comment commit constraint copy count create current current_user
		cursor declare default delete desc describe distinct do drop else end
		escape execute exists fetch first for foreign from full global grant
		group having identity if immediate in index inner insert integrity
		intersect into is join key last left like local max min modify natural
		next not null of on only open or order outer permit primary procedure
		public raise references register relocate remove repeat restrict return
		revoke right rollback rows save savepoint schema select session
		session_user set some sum system system_user table then to union unique
		until update user using values view when where while with work`) {
		m[w] = struct{}{}
	}
	return m
}()

// Quote returns the identifier delimited when it is a reserved word or is
// not a regular lower-case name.
func (c *Compiler) Quote(name string) string {
	if !c.needsQuote(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (c *Compiler) needsQuote(name string) bool {
	if name == "" {
		return true
	}
	if _, ok := reserved[strings.ToLower(name)]; ok {
		return true
	}
	return !regular.MatchString(name)
}
