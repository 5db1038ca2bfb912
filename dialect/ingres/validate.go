package ingres

import (
	"errors"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/schema"

	"github.com/syssam/actian"
	"github.com/syssam/actian/dialect/sqlschema"
)

// structures lists the storage structures accepted by MODIFY and
// CREATE INDEX ... WITH STRUCTURE.
var structures = map[string]struct{}{
	"BTREE": {}, "HASH": {}, "ISAM": {}, "HEAP": {}, "HEAPSORT": {},
	"CBTREE": {}, "CHASH": {}, "CISAM": {}, "CHEAP": {}, "CHEAPSORT": {},
	"VECTORWISE": {}, "VECTORWISE_ROW": {}, "X100": {}, "X100_ROW": {},
}

// ValidationResult holds the findings of a table validation.
type ValidationResult struct {
	Errors   []error
	Warnings []error
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err returns the errors as one error, or nil.
func (r *ValidationResult) Err() error {
	return actian.NewAggregateError(r.Errors...)
}

func (r *ValidationResult) errorf(name, format string, args ...any) {
	r.Errors = append(r.Errors, actian.NewValidationError(name, fmt.Errorf(format, args...)))
}

func (r *ValidationResult) warnf(name, format string, args ...any) {
	r.Warnings = append(r.Warnings, actian.NewValidationError(name, fmt.Errorf(format, args...)))
}

// ValidateTable checks t against the server limits: identifier length,
// duplicate names, storage structures and their keys.
func (d *Dialect) ValidateTable(t *schema.Table) *ValidationResult {
	result := &ValidationResult{}
	d.checkIdent(result, "table", t.Name)

	if t.PrimaryKey == nil || len(t.PrimaryKey.Parts) == 0 {
		result.warnf(t.Name, "table has no primary key")
	}

	colNames := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		d.checkIdent(result, "column", c.Name)
		if colNames[c.Name] {
			result.errorf(t.Name+"."+c.Name, "duplicate column name")
		}
		colNames[c.Name] = true
	}

	if ant, _ := sqlschema.From(t.Attrs); ant.HasStructure() {
		checkStructure(result, t.Name, ant, colNames)
	}

	idxNames := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		ant, _ := sqlschema.From(idx.Attrs)
		// Anonymous unique constraints are named by the server.
		if idx.Name != "" || !ant.Constraint {
			d.checkIdent(result, "index", idx.Name)
			if idxNames[idx.Name] {
				result.errorf(t.Name, "duplicate index name %q", idx.Name)
			}
			idxNames[idx.Name] = true
		}
		for _, p := range idx.Parts {
			if p.C != nil && !colNames[p.C.Name] {
				result.errorf(t.Name, "index %q references non-existent column %q", idx.Name, p.C.Name)
			}
		}
		if ant.HasStructure() {
			checkStructure(result, idx.Name, ant, colNames)
		}
	}

	for _, fk := range t.ForeignKeys {
		if fk.Symbol != "" {
			d.checkIdent(result, "constraint", fk.Symbol)
		}
		for _, c := range fk.Columns {
			if !colNames[c.Name] {
				result.errorf(t.Name, "foreign key references non-existent column %q", c.Name)
			}
		}
	}
	return result
}

// Validate returns the errors found by ValidateTable. Warnings are logged.
func (d *Dialect) Validate(t *schema.Table) error {
	result := d.ValidateTable(t)
	for _, w := range result.Warnings {
		d.logger.Debug("table validation warning", "table", t.Name, "warning", w.Error())
	}
	return result.Err()
}

func (d *Dialect) checkIdent(r *ValidationResult, kind, name string) {
	switch {
	case name == "":
		r.errorf(kind, "empty %s name", kind)
	case len(name) > d.maxIdent:
		r.errorf(name, "%s name exceeds %d bytes", kind, d.maxIdent)
	}
}

func checkStructure(r *ValidationResult, name string, ant sqlschema.Annotation, cols map[string]bool) {
	if _, ok := structures[strings.ToUpper(ant.Structure)]; !ok {
		r.errorf(name, "unknown storage structure %q", ant.Structure)
	}
	if ant.StructureUnique && len(ant.StructureKeys) == 0 {
		r.errorf(name, "unique storage structure without keys")
	}
	for _, k := range ant.StructureKeys {
		if !cols[k] {
			r.errorf(name, "storage structure key %q is not a column", k)
		}
	}
}

// IsValidationError reports whether err holds a validation finding.
func IsValidationError(err error) bool {
	var agg *actian.AggregateError
	if errors.As(err, &agg) {
		for _, e := range agg.Errors {
			if actian.IsValidationError(e) {
				return true
			}
		}
	}
	return actian.IsValidationError(err)
}
