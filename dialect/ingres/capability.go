package ingres

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/syssam/actian"
	"github.com/syssam/actian/dialect"
	"github.com/syssam/actian/dialect/sql"
)

// Capability names read from iidbcapabilities.
const (
	CapDBMSType      = "DBMS_TYPE"
	CapNameCase      = "DB_NAME_CASE"
	CapDelimitedCase = "DB_DELIMITED_CASE"
)

// SubDialect is the storage family reported by DBMS_TYPE.
type SubDialect uint8

const (
	// RowStore is the Ingres row-oriented server.
	RowStore SubDialect = iota + 1
	// Columnar is the Vector columnar server.
	Columnar
)

// String implements fmt.Stringer.
func (s SubDialect) String() string {
	switch s {
	case RowStore:
		return "row-store"
	case Columnar:
		return "columnar"
	default:
		return fmt.Sprintf("SubDialect(%d)", s)
	}
}

var defaultSubDialects = map[string]SubDialect{
	"INGRES":  RowStore,
	"VECTOR":  Columnar,
	"VECTORH": Columnar,
}

// Capabilities is an immutable snapshot of the server capability table.
type Capabilities struct {
	m map[string]string
}

func newCapabilities(m map[string]string) *Capabilities {
	return &Capabilities{m: maps.Clone(m)}
}

// Lookup returns the value of the named capability.
func (c *Capabilities) Lookup(name string) (string, bool) {
	v, ok := c.m[name]
	return v, ok
}

// DBMSType returns the DBMS_TYPE capability, or "" if absent.
func (c *Capabilities) DBMSType() string { return c.m[CapDBMSType] }

// Len returns the number of capabilities.
func (c *Capabilities) Len() int { return len(c.m) }

// Names returns the sorted capability names.
func (c *Capabilities) Names() []string {
	return slices.Sorted(maps.Keys(c.m))
}

// Map returns a copy of the snapshot.
func (c *Capabilities) Map() map[string]string { return maps.Clone(c.m) }

const (
	capUninitialized uint32 = iota
	capLoading
	capReady
)

// capabilityLoader publishes the snapshot once: uninitialized, loading, ready.
type capabilityLoader struct {
	state atomic.Uint32
	snap  atomic.Pointer[Capabilities]
}

func (l *capabilityLoader) publish(c *Capabilities) {
	l.snap.Store(c)
	l.state.Store(capReady)
}

func (l *capabilityLoader) load() (*Capabilities, bool) {
	if l.state.Load() != capReady {
		return nil, false
	}
	return l.snap.Load(), true
}

// Initialize loads the capability snapshot from the server. It runs the
// query once; later calls return nil without touching conn. A failed load
// leaves the dialect uninitialized so it can be retried.
//
// Initialize must not race with itself on the same Dialect. A concurrent
// call observes ErrCapabilitiesLoading instead of blocking.
func (d *Dialect) Initialize(ctx context.Context, conn dialect.ExecQuerier) error {
	if !d.caps.state.CompareAndSwap(capUninitialized, capLoading) {
		if d.caps.state.Load() == capReady {
			return nil
		}
		return actian.ErrCapabilitiesLoading
	}
	caps, err := loadCapabilities(ctx, conn)
	if err != nil {
		d.caps.state.Store(capUninitialized)
		return err
	}
	d.caps.publish(caps)
	d.logger.DebugContext(ctx, "capabilities loaded", "dialect", d.name, "count", caps.Len())
	return nil
}

func loadCapabilities(ctx context.Context, conn dialect.ExecQuerier) (*Capabilities, error) {
	rows := &sql.Rows{}
	if err := conn.Query(sql.WithCatalog(ctx), capabilitiesQuery, []any{}, rows); err != nil {
		return nil, actian.NewQueryError("capabilities", err)
	}
	m := make(map[string]string)
	err := sql.ScanRows(rows, func(s sql.ColumnScanner) error {
		var name, value sql.NullString
		if err := s.Scan(&name, &value); err != nil {
			return err
		}
		m[strings.TrimRight(name.String, " ")] = strings.TrimRight(value.String, " ")
		return nil
	})
	if err != nil {
		return nil, actian.NewQueryError("capabilities", err)
	}
	if len(m) == 0 {
		return nil, actian.ErrNoCapabilities
	}
	return &Capabilities{m: m}, nil
}

// Capabilities returns the loaded snapshot.
func (d *Dialect) Capabilities() (*Capabilities, error) {
	caps, ok := d.caps.load()
	if !ok {
		return nil, actian.ErrCapabilitiesNotLoaded
	}
	return caps, nil
}

// SubDialect resolves DBMS_TYPE. It fails when the snapshot is missing, the
// capability is absent or its value is not a registered sub-dialect.
func (d *Dialect) SubDialect() (SubDialect, error) {
	caps, err := d.Capabilities()
	if err != nil {
		return 0, actian.NewCapabilityError(CapDBMSType, "", err)
	}
	v, ok := caps.Lookup(CapDBMSType)
	if !ok {
		return 0, actian.NewCapabilityError(CapDBMSType, "", actian.ErrNotFound)
	}
	s, ok := d.subDialects[strings.ToUpper(v)]
	if !ok {
		return 0, actian.NewCapabilityError(CapDBMSType, v, nil)
	}
	return s, nil
}
