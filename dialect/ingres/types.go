package ingres

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ariga.io/atlas/sql/schema"

	"github.com/syssam/actian"
)

// Kind is the generic type vocabulary. The set is closed: a Kind without a
// renderer is reported as unmapped.
type Kind uint8

// Generic kinds.
const (
	KindInvalid Kind = iota
	KindTinyInt
	KindSmallInt
	KindInt
	KindBigInt
	KindBool
	KindDecimal
	KindFloat
	KindDate
	KindTime
	KindTimestamp
	KindInterval
	KindChar
	KindVarChar
	KindNChar
	KindNVarChar
	KindClob
	KindNClob
	KindBinary
	KindVarBinary
	KindBlob
	endKinds
)

var kindNames = [...]string{
	KindInvalid:   "INVALID",
	KindTinyInt:   "TINYINT",
	KindSmallInt:  "SMALLINT",
	KindInt:       "INTEGER",
	KindBigInt:    "BIGINT",
	KindBool:      "BOOLEAN",
	KindDecimal:   "DECIMAL",
	KindFloat:     "FLOAT",
	KindDate:      "DATE",
	KindTime:      "TIME",
	KindTimestamp: "TIMESTAMP",
	KindInterval:  "INTERVAL",
	KindChar:      "CHAR",
	KindVarChar:   "VARCHAR",
	KindNChar:     "NCHAR",
	KindNVarChar:  "NVARCHAR",
	KindClob:      "CLOB",
	KindNClob:     "NCLOB",
	KindBinary:    "BINARY",
	KindVarBinary: "VARBINARY",
	KindBlob:      "BLOB",
}

// String returns the generic name of the kind.
func (k Kind) String() string {
	if k < endKinds {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Zone is the time zone variant of time and timestamp types.
type Zone uint8

const (
	ZoneNone    Zone = iota // no zone information
	ZoneWith                // WITH TIME ZONE
	ZoneWithout             // WITHOUT TIME ZONE
	ZoneLocal               // WITH LOCAL TIME ZONE
)

// IntervalFields is the field range of an interval type.
type IntervalFields uint8

const (
	DayToSecond IntervalFields = iota
	YearToMonth
)

// Type is the generic column type. It embeds schema.Type so it can be used
// directly as the Type of an atlas column.
type Type struct {
	schema.Type `msgpack:"-"`

	Kind      Kind
	Length    *int           `msgpack:",omitempty"`
	Precision *int           `msgpack:",omitempty"`
	Scale     *int           `msgpack:",omitempty"`
	Zone      Zone           `msgpack:",omitempty"`
	Fields    IntervalFields `msgpack:",omitempty"`
}

func intp(v int) *int { return &v }

func sized(k Kind, n []int) *Type {
	t := &Type{Kind: k}
	if len(n) > 0 && n[0] > 0 {
		t.Length = intp(n[0])
	}
	return t
}

// Constructors of the generic types.
func TinyInt() *Type  { return &Type{Kind: KindTinyInt} }
func SmallInt() *Type { return &Type{Kind: KindSmallInt} }
func Integer() *Type  { return &Type{Kind: KindInt} }
func BigInt() *Type   { return &Type{Kind: KindBigInt} }
func Boolean() *Type  { return &Type{Kind: KindBool} }
func Date() *Type     { return &Type{Kind: KindDate} }
func Clob() *Type     { return &Type{Kind: KindClob} }
func NClob() *Type    { return &Type{Kind: KindNClob} }
func Blob() *Type     { return &Type{Kind: KindBlob} }

// Decimal returns a decimal type with optional precision and scale.
func Decimal(ps ...int) *Type {
	t := &Type{Kind: KindDecimal}
	if len(ps) > 0 && ps[0] > 0 {
		t.Precision = intp(ps[0])
		if len(ps) > 1 {
			t.Scale = intp(ps[1])
		}
	}
	return t
}

// Float returns a float type with an optional binary precision.
func Float(p ...int) *Type {
	t := &Type{Kind: KindFloat}
	if len(p) > 0 && p[0] > 0 {
		t.Precision = intp(p[0])
	}
	return t
}

// Time returns a time type with the given zone variant.
func Time(z Zone) *Type { return &Type{Kind: KindTime, Zone: z} }

// Timestamp returns a timestamp type with the given zone variant.
func Timestamp(z Zone) *Type { return &Type{Kind: KindTimestamp, Zone: z} }

// Interval returns an interval type.
func Interval(f IntervalFields) *Type { return &Type{Kind: KindInterval, Fields: f} }

// Character and binary types with an optional length. A missing length
// selects the unbounded tier.
func Char(n ...int) *Type      { return sized(KindChar, n) }
func VarChar(n ...int) *Type   { return sized(KindVarChar, n) }
func NChar(n ...int) *Type     { return sized(KindNChar, n) }
func NVarChar(n ...int) *Type  { return sized(KindNVarChar, n) }
func Binary(n ...int) *Type    { return sized(KindBinary, n) }
func VarBinary(n ...int) *Type { return sized(KindVarBinary, n) }

// Bounded reports whether a length is set.
func (t *Type) Bounded() bool { return t.Length != nil && *t.Length > 0 }

// Integral reports whether the type is one of the integer kinds.
func (t *Type) Integral() bool {
	switch t.Kind {
	case KindTinyInt, KindSmallInt, KindInt, KindBigInt:
		return true
	}
	return false
}

// renderers maps every kind to its native rendering.
var renderers = map[Kind]func(*Type) string{
	KindTinyInt:  fixed("TINYINT"),
	KindSmallInt: fixed("SMALLINT"),
	KindInt:      fixed("INTEGER"),
	KindBigInt:   fixed("BIGINT"),
	// Booleans are stored in the smallest integer type.
	KindBool: fixed("TINYINT"),
	KindDecimal: func(t *Type) string {
		switch {
		case t.Precision == nil:
			return "DECIMAL"
		case t.Scale == nil:
			return fmt.Sprintf("DECIMAL(%d)", *t.Precision)
		default:
			return fmt.Sprintf("DECIMAL(%d,%d)", *t.Precision, *t.Scale)
		}
	},
	KindFloat: func(t *Type) string {
		if t.Precision == nil {
			return "FLOAT"
		}
		return fmt.Sprintf("FLOAT(%d)", *t.Precision)
	},
	KindDate: fixed("ANSIDATE"),
	KindTime: func(t *Type) string {
		return "TIME" + zoneSuffix(t.Zone)
	},
	KindTimestamp: func(t *Type) string {
		return "TIMESTAMP" + zoneSuffix(t.Zone)
	},
	KindInterval: func(t *Type) string {
		if t.Fields == YearToMonth {
			return "INTERVAL YEAR TO MONTH"
		}
		return "INTERVAL DAY TO SECOND"
	},
	KindChar:      tiered("CHAR", "CHAR"),
	KindNChar:     tiered("NCHAR", "NCHAR"),
	KindBinary:    tiered("BYTE", "BYTE"),
	KindVarChar:   tiered("VARCHAR", "LONG VARCHAR"),
	KindNVarChar:  tiered("NVARCHAR", "LONG NVARCHAR"),
	KindVarBinary: tiered("BYTE VARYING", "LONG BYTE"),
	KindClob:      fixed("LONG VARCHAR"),
	KindNClob:     fixed("LONG NVARCHAR"),
	KindBlob:      fixed("LONG BYTE"),
}

func fixed(name string) func(*Type) string {
	return func(*Type) string { return name }
}

// tiered renders name(n) when bounded and long otherwise.
func tiered(name, long string) func(*Type) string {
	return func(t *Type) string {
		if !t.Bounded() {
			return long
		}
		return fmt.Sprintf("%s(%d)", name, *t.Length)
	}
}

func zoneSuffix(z Zone) string {
	switch z {
	case ZoneWith:
		return " WITH TIME ZONE"
	case ZoneWithout:
		return " WITHOUT TIME ZONE"
	case ZoneLocal:
		return " WITH LOCAL TIME ZONE"
	default:
		return ""
	}
}

// natives maps every native type name the catalog reports to a generic type.
// The two arguments are the catalog length and scale, or the parenthesized
// parameters of a type declaration.
var natives = map[string]func(a, b int) (*Type, error){
	"TINYINT":                        constant(TinyInt),
	"INTEGER1":                       constant(TinyInt),
	"SMALLINT":                       constant(SmallInt),
	"INTEGER2":                       constant(SmallInt),
	"INT":                            constant(Integer),
	"INTEGER4":                       constant(Integer),
	"BIGINT":                         constant(BigInt),
	"INTEGER8":                       constant(BigInt),
	"INTEGER":                        integerWidth,
	"BOOLEAN":                        constant(Boolean),
	"DECIMAL":                        decimal,
	"NUMERIC":                        decimal,
	"MONEY":                          constant(func() *Type { return Decimal() }),
	"FLOAT":                          floatWidth,
	"FLOAT4":                         constant(func() *Type { return Float(7) }),
	"REAL":                           constant(func() *Type { return Float(7) }),
	"FLOAT8":                         constant(func() *Type { return Float() }),
	"DOUBLE PRECISION":               constant(func() *Type { return Float() }),
	"ANSIDATE":                       constant(Date),
	"DATE":                           constant(func() *Type { return Timestamp(ZoneNone) }),
	"INGRESDATE":                     constant(func() *Type { return Timestamp(ZoneNone) }),
	"TIME":                           constant(func() *Type { return Time(ZoneNone) }),
	"TIME WITH TIME ZONE":            constant(func() *Type { return Time(ZoneWith) }),
	"TIME WITHOUT TIME ZONE":         constant(func() *Type { return Time(ZoneWithout) }),
	"TIME WITH LOCAL TIME ZONE":      constant(func() *Type { return Time(ZoneLocal) }),
	"TIMESTAMP":                      constant(func() *Type { return Timestamp(ZoneNone) }),
	"TIMESTAMP WITH TIME ZONE":       constant(func() *Type { return Timestamp(ZoneWith) }),
	"TIMESTAMP WITHOUT TIME ZONE":    constant(func() *Type { return Timestamp(ZoneWithout) }),
	"TIMESTAMP WITH LOCAL TIME ZONE": constant(func() *Type { return Timestamp(ZoneLocal) }),
	"INTERVAL YEAR TO MONTH":         constant(func() *Type { return Interval(YearToMonth) }),
	"INTERVAL DAY TO SECOND":         constant(func() *Type { return Interval(DayToSecond) }),
	"C":                              length(Char),
	"CHAR":                           length(Char),
	"CHARACTER":                      length(Char),
	"VARCHAR":                        length(VarChar),
	"CHARACTER VARYING":              length(VarChar),
	"TEXT":                           text,
	"LONG VARCHAR":                   constant(Clob),
	"CLOB":                           constant(Clob),
	"NCHAR":                          length(NChar),
	"NVARCHAR":                       length(NVarChar),
	"LONG NVARCHAR":                  constant(NClob),
	"NCLOB":                          constant(NClob),
	"BYTE":                           length(Binary),
	"BINARY":                         length(Binary),
	"BYTE VARYING":                   length(VarBinary),
	"VARBYTE":                        length(VarBinary),
	"VARBINARY":                      length(VarBinary),
	"LONG BYTE":                      constant(Blob),
	"BLOB":                           constant(Blob),
}

func decimal(a, b int) (*Type, error) { return Decimal(a, b), nil }

// text maps the legacy TEXT type. Without a length it is a large object.
func text(a, _ int) (*Type, error) {
	if a > 0 {
		return VarChar(a), nil
	}
	return Clob(), nil
}

func constant(f func() *Type) func(int, int) (*Type, error) {
	return func(int, int) (*Type, error) { return f(), nil }
}

func length(f func(...int) *Type) func(int, int) (*Type, error) {
	return func(a, _ int) (*Type, error) { return f(a), nil }
}

// integerWidth picks the integer kind from the byte width. A zero width
// comes from a declaration without parameters.
func integerWidth(a, _ int) (*Type, error) {
	switch a {
	case 0, 4:
		return Integer(), nil
	case 1:
		return TinyInt(), nil
	case 2:
		return SmallInt(), nil
	case 8:
		return BigInt(), nil
	default:
		return nil, fmt.Errorf("dialect/ingres: invalid integer width %d", a)
	}
}

// floatWidth maps a 4-byte float to single precision and an 8-byte one to
// the default double precision. Other values are a declared precision.
func floatWidth(a, _ int) (*Type, error) {
	switch a {
	case 0, 8:
		return Float(), nil
	case 4:
		return Float(7), nil
	default:
		return Float(a), nil
	}
}

// TypeMapper translates between generic and native types. It implements
// the atlas schema.TypeParseFormatter interface.
type TypeMapper struct{}

// Native returns the native name of a generic type.
func (TypeMapper) Native(t *Type) (string, error) {
	if t == nil {
		return "", actian.NewUnmappedKindError("nil")
	}
	render, ok := renderers[t.Kind]
	if !ok {
		return "", actian.NewUnmappedKindError(t.Kind.String())
	}
	return render(t), nil
}

// ReflectType returns the generic type of a catalog column.
func (TypeMapper) ReflectType(native string, length, scale int) (*Type, error) {
	name := strings.ToUpper(strings.TrimSpace(native))
	f, ok := natives[name]
	if !ok {
		return nil, actian.NewUnmappedNativeError(native)
	}
	return f(length, scale)
}

var reDecl = regexp.MustCompile(`^([A-Z][A-Z0-9_ ]*?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?((?:\s+[A-Z][A-Z ]*)?)$`)

// ParseType parses a native type declaration, e.g. DECIMAL(10,2).
func (m TypeMapper) ParseType(raw string) (schema.Type, error) {
	t, err := m.parse(raw)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (m TypeMapper) parse(raw string) (*Type, error) {
	match := reDecl.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(raw)))
	if match == nil {
		return nil, actian.NewUnmappedNativeError(raw)
	}
	name := match[1]
	if s := strings.TrimSpace(match[4]); s != "" {
		name += " " + s
	}
	a, _ := strconv.Atoi(match[2])
	b, _ := strconv.Atoi(match[3])
	f, ok := natives[name]
	if !ok {
		return nil, actian.NewUnmappedNativeError(raw)
	}
	t, err := f(a, b)
	if err != nil {
		return nil, err
	}
	// DECIMAL(p) declares no scale.
	if t.Kind == KindDecimal && match[3] == "" {
		t.Scale = nil
	}
	return t, nil
}

// FormatType returns the native name of a generic or atlas type.
func (m TypeMapper) FormatType(t schema.Type) (string, error) {
	g, err := m.FromAtlas(t)
	if err != nil {
		return "", err
	}
	return m.Native(g)
}

// FromAtlas converts an atlas column type to the generic type. Type names
// known to the native table are parsed first; otherwise the atlas type
// class decides.
func (m TypeMapper) FromAtlas(t schema.Type) (*Type, error) {
	switch t := t.(type) {
	case *Type:
		return t, nil
	case *schema.IntegerType:
		if g, err := m.parse(t.T); err == nil && g.Integral() {
			return g, nil
		}
		switch n := strings.ToLower(t.T); {
		case strings.Contains(n, "tiny"):
			return TinyInt(), nil
		case strings.Contains(n, "small"):
			return SmallInt(), nil
		case strings.Contains(n, "big"):
			return BigInt(), nil
		default:
			return Integer(), nil
		}
	case *schema.BoolType:
		return Boolean(), nil
	case *schema.DecimalType:
		if t.Precision == 0 {
			return Decimal(), nil
		}
		return Decimal(t.Precision, t.Scale), nil
	case *schema.FloatType:
		return Float(t.Precision), nil
	case *schema.TimeType:
		if g, err := m.parse(t.T); err == nil {
			return g, nil
		}
		n := strings.ToLower(t.T)
		z := ZoneNone
		switch {
		case strings.Contains(n, "local time zone"):
			z = ZoneLocal
		case strings.Contains(n, "without time zone"):
			z = ZoneWithout
		case strings.Contains(n, "with time zone"), strings.HasSuffix(n, "tz"):
			z = ZoneWith
		}
		switch {
		case strings.Contains(n, "timestamp"), strings.Contains(n, "datetime"):
			return Timestamp(z), nil
		case strings.Contains(n, "time"):
			return Time(z), nil
		case strings.Contains(n, "date"):
			return Date(), nil
		}
		return nil, actian.NewUnmappedNativeError(t.T)
	case *schema.StringType:
		g, err := m.parse(t.T)
		if err != nil {
			g = VarChar()
			if n := strings.ToLower(t.T); strings.Contains(n, "text") || strings.Contains(n, "clob") {
				g = Clob()
			}
		}
		if t.Size > 0 && g.Length == nil && sizeable(g.Kind) {
			g.Length = intp(t.Size)
		}
		return g, nil
	case *schema.BinaryType:
		g, err := m.parse(t.T)
		if err != nil {
			g = VarBinary()
			if strings.Contains(strings.ToLower(t.T), "blob") {
				g = Blob()
			}
		}
		if t.Size != nil && *t.Size > 0 && g.Length == nil && sizeable(g.Kind) {
			g.Length = intp(*t.Size)
		}
		return g, nil
	case *schema.UnsupportedType:
		return m.parse(t.T)
	case nil:
		return nil, actian.NewUnmappedKindError("nil")
	default:
		return nil, actian.NewUnmappedKindError(fmt.Sprintf("%T", t))
	}
}

func sizeable(k Kind) bool {
	switch k {
	case KindChar, KindVarChar, KindNChar, KindNVarChar, KindBinary, KindVarBinary:
		return true
	}
	return false
}

// Bool is a nullable boolean stored as TINYINT. Scanning reports any
// non-zero value as true.
type Bool struct {
	Bool  bool
	Valid bool
}

// Value implements driver.Valuer.
func (b Bool) Value() (driver.Value, error) {
	if !b.Valid {
		return nil, nil
	}
	if b.Bool {
		return int64(1), nil
	}
	return int64(0), nil
}

// Scan implements sql.Scanner.
func (b *Bool) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = Bool{}
	case bool:
		*b = Bool{Bool: v, Valid: true}
	case int64:
		*b = Bool{Bool: v != 0, Valid: true}
	case []byte:
		return b.Scan(string(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("dialect/ingres: scan bool from %q: %w", v, err)
		}
		*b = Bool{Bool: n != 0, Valid: true}
	default:
		return fmt.Errorf("dialect/ingres: unsupported bool source %T", src)
	}
	return nil
}

// BindBool converts a boolean argument to its stored form: 1, 0 or NULL.
// Integers are normalized to 0 or 1. Any other value is rejected.
func BindBool(v any) (driver.Value, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return Bool{Bool: v, Valid: true}.Value()
	case *bool:
		if v == nil {
			return nil, nil
		}
		return Bool{Bool: *v, Valid: true}.Value()
	case Bool:
		return v.Value()
	case *Bool:
		if v == nil {
			return nil, nil
		}
		return v.Value()
	case interface{ Value() (driver.Value, error) }:
		dv, err := v.Value()
		if err != nil {
			return nil, err
		}
		return BindBool(dv)
	case int:
		return Bool{Bool: v != 0, Valid: true}.Value()
	case int8:
		return Bool{Bool: v != 0, Valid: true}.Value()
	case int16:
		return Bool{Bool: v != 0, Valid: true}.Value()
	case int32:
		return Bool{Bool: v != 0, Valid: true}.Value()
	case int64:
		return Bool{Bool: v != 0, Valid: true}.Value()
	default:
		return nil, fmt.Errorf("dialect/ingres: cannot bind %T as bool", v)
	}
}

var (
	_ schema.TypeParseFormatter = TypeMapper{}
	_ driver.Valuer             = Bool{}
)
