package ingres

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/syssam/actian/dialect"
)

// DefaultMaxIdentifierLength is the identifier limit of the server catalog.
const DefaultMaxIdentifierLength = 32

// Dialect ties the type mapper, the statement and DDL compilers, execution
// contexts and catalog reflection to one capability snapshot. A Dialect is
// safe for concurrent use once Initialize returned.
type Dialect struct {
	name        string
	logger      *slog.Logger
	nameCase    NameCase
	maxIdent    int
	subDialects map[string]SubDialect
	caps        capabilityLoader
	types       TypeMapper
}

// Option configures a Dialect.
type Option func(*Dialect)

// WithName sets the dialect name reported to callers. Default is dialect.Ingres.
func WithName(name string) Option {
	return func(d *Dialect) {
		d.name = name
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dialect) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithNameCase sets the identifier case policy. Default is NameCaseLower.
func WithNameCase(c NameCase) Option {
	return func(d *Dialect) {
		d.nameCase = c
	}
}

// WithMaxIdentifierLength overrides the identifier length limit used by Validate.
func WithMaxIdentifierLength(n int) Option {
	return func(d *Dialect) {
		if n > 0 {
			d.maxIdent = n
		}
	}
}

// WithSubDialect registers an additional DBMS_TYPE value, matched without
// regard to case. Unregistered values are rejected by capability-dependent
// decisions.
func WithSubDialect(value string, s SubDialect) Option {
	return func(d *Dialect) {
		d.subDialects[strings.ToUpper(value)] = s
	}
}

// WithCapabilities presets the capability snapshot, marking the dialect as
// initialized. It is meant for offline DDL compilation and tests.
func WithCapabilities(caps map[string]string) Option {
	return func(d *Dialect) {
		d.caps.publish(newCapabilities(caps))
	}
}

// New returns a Dialect configured by opts.
func New(opts ...Option) *Dialect {
	d := &Dialect{
		name:        dialect.Ingres,
		logger:      slog.Default(),
		maxIdent:    DefaultMaxIdentifierLength,
		subDialects: maps.Clone(defaultSubDialects),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return d.name }

// Types returns the type mapper.
func (d *Dialect) Types() TypeMapper { return d.types }

// Compiler returns the statement compiler.
func (d *Dialect) Compiler() *Compiler { return &Compiler{d: d} }

// DDL returns the DDL compiler.
func (d *Dialect) DDL() *DDL { return &DDL{d: d} }
