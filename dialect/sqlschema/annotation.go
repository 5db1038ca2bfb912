// Package sqlschema provides Ingres-specific attributes for atlas schemas.
//
// Import this package as:
//
//	import "github.com/syssam/actian/dialect/sqlschema"
//
// Attributes are attached through the Attrs slice of atlas tables, columns
// and indexes, and read back by the DDL compiler.
//
// # API Styles
//
// Functional style:
//
//	t.AddAttrs(sqlschema.Structure("BTREE", "id"))
//	c.AddAttrs(sqlschema.Sequence("user_seq"))
//
// Struct literal style:
//
//	t.AddAttrs(&sqlschema.Annotation{
//	    Structure:       "HASH",
//	    StructureKeys:   []string{"tenant", "id"},
//	    StructureUnique: true,
//	})
//
// # Storage Structures
//
// A table carrying a structure is created in two steps: CREATE TABLE, then
// MODIFY t TO <structure>. An index carrying a structure gets a
// WITH STRUCTURE clause.
//
// # Identity
//
//	c.AddAttrs(sqlschema.Identity(sqlschema.GeneratedAlways))
//	c.AddAttrs(sqlschema.Incremental(false)) // opt out of the implicit identity
package sqlschema

import (
	"slices"

	"ariga.io/atlas/sql/schema"
)

// Generation is the generation mode of an identity column.
type Generation string

const (
	GeneratedAlways    Generation = "ALWAYS"
	GeneratedByDefault Generation = "BY DEFAULT"
)

// Annotation holds Ingres settings for tables, columns and indexes.
type Annotation struct {
	schema.Attr

	// Structure is the storage structure of a table or index
	// (BTREE, HASH, ISAM, HEAP, or a compressed or vector variant).
	Structure string

	// StructureKeys are the key columns of the structure.
	StructureKeys []string

	// StructureUnique makes the structure keys unique. It only applies
	// when StructureKeys are set.
	StructureUnique bool

	// Identity sets an explicit identity clause on a column.
	Identity Generation

	// Incremental controls the implicit identity clause of the table's
	// autoincrement column. Nil means enabled.
	Incremental *bool

	// Sequence renders DEFAULT NEXT VALUE FOR <sequence> on a column.
	Sequence string

	// Size overrides the length of character columns without one.
	Size int64

	// Constraint renders a unique index as a table constraint instead of a
	// separate CREATE INDEX. Reflected unique constraints carry it.
	Constraint bool
}

// Structure sets the storage structure and its key columns.
//
// Example:
//
//	t.AddAttrs(sqlschema.Structure("BTREE", "id"))
func Structure(name string, keys ...string) *Annotation {
	return &Annotation{Structure: name, StructureKeys: keys}
}

// UniqueStructure sets the storage structure with unique key columns.
func UniqueStructure(name string, keys ...string) *Annotation {
	return &Annotation{Structure: name, StructureKeys: keys, StructureUnique: true}
}

// Identity sets an explicit identity clause.
func Identity(g Generation) *Annotation {
	return &Annotation{Identity: g}
}

// Incremental enables or disables the implicit identity clause.
func Incremental(v bool) *Annotation {
	return &Annotation{Incremental: &v}
}

// Sequence sets the sequence backing the column default.
func Sequence(name string) *Annotation {
	return &Annotation{Sequence: name}
}

// Size sets the fallback length of a character column.
func Size(n int64) *Annotation {
	return &Annotation{Size: n}
}

// Constraint marks a unique index as a table constraint.
func Constraint() *Annotation {
	return &Annotation{Constraint: true}
}

// Merge implements merging of two annotations. Set fields of other win.
func (a Annotation) Merge(other Annotation) Annotation {
	if other.Structure != "" {
		a.Structure = other.Structure
	}
	if len(other.StructureKeys) > 0 {
		a.StructureKeys = slices.Clone(other.StructureKeys)
	}
	if other.StructureUnique {
		a.StructureUnique = true
	}
	if other.Identity != "" {
		a.Identity = other.Identity
	}
	if other.Incremental != nil {
		a.Incremental = other.Incremental
	}
	if other.Sequence != "" {
		a.Sequence = other.Sequence
	}
	if other.Size != 0 {
		a.Size = other.Size
	}
	if other.Constraint {
		a.Constraint = true
	}
	return a
}

// HasStructure reports whether a storage structure is set.
func (a Annotation) HasStructure() bool {
	return a.Structure != ""
}

// IncrementalEnabled reports whether the implicit identity clause applies.
func (a Annotation) IncrementalEnabled() bool {
	return a.Incremental == nil || *a.Incremental
}

// From merges all annotations found in attrs. The second return value
// reports whether any was found.
func From(attrs []schema.Attr) (Annotation, bool) {
	var (
		ant   Annotation
		found bool
	)
	for _, at := range attrs {
		switch at := at.(type) {
		case *Annotation:
			ant, found = ant.Merge(*at), true
		case Annotation:
			ant, found = ant.Merge(at), true
		}
	}
	return ant, found
}

var _ schema.Attr = (*Annotation)(nil)
