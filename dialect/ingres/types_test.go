package ingres

import (
	"database/sql/driver"
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/actian"
	dsql "github.com/syssam/actian/dialect/sql"
)

func TestTypeMapper_Native(t *testing.T) {
	tests := []struct {
		typ  *Type
		want string
	}{
		{TinyInt(), "TINYINT"},
		{SmallInt(), "SMALLINT"},
		{Integer(), "INTEGER"},
		{BigInt(), "BIGINT"},
		{Boolean(), "TINYINT"},
		{Decimal(), "DECIMAL"},
		{Decimal(10), "DECIMAL(10)"},
		{Decimal(10, 2), "DECIMAL(10,2)"},
		{Float(), "FLOAT"},
		{Float(7), "FLOAT(7)"},
		{Date(), "ANSIDATE"},
		{Time(ZoneNone), "TIME"},
		{Time(ZoneWithout), "TIME WITHOUT TIME ZONE"},
		{Time(ZoneWith), "TIME WITH TIME ZONE"},
		{Time(ZoneLocal), "TIME WITH LOCAL TIME ZONE"},
		{Timestamp(ZoneNone), "TIMESTAMP"},
		{Timestamp(ZoneWith), "TIMESTAMP WITH TIME ZONE"},
		{Timestamp(ZoneWithout), "TIMESTAMP WITHOUT TIME ZONE"},
		{Timestamp(ZoneLocal), "TIMESTAMP WITH LOCAL TIME ZONE"},
		{Interval(YearToMonth), "INTERVAL YEAR TO MONTH"},
		{Interval(DayToSecond), "INTERVAL DAY TO SECOND"},
		{Char(10), "CHAR(10)"},
		{Char(), "CHAR"},
		{NChar(3), "NCHAR(3)"},
		{VarChar(64), "VARCHAR(64)"},
		{VarChar(), "LONG VARCHAR"},
		{NVarChar(64), "NVARCHAR(64)"},
		{NVarChar(), "LONG NVARCHAR"},
		{Binary(16), "BYTE(16)"},
		{VarBinary(16), "BYTE VARYING(16)"},
		{VarBinary(), "LONG BYTE"},
		{Clob(), "LONG VARCHAR"},
		{NClob(), "LONG NVARCHAR"},
		{Blob(), "LONG BYTE"},
	}
	var m TypeMapper
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := m.Native(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unmapped", func(t *testing.T) {
		_, err := m.Native(&Type{Kind: KindInvalid})
		require.Error(t, err)
		assert.True(t, actian.IsUnmappedType(err))
		_, err = m.Native(&Type{Kind: endKinds + 1})
		assert.True(t, actian.IsUnmappedType(err))
	})
}

func TestTypeMapper_RenderersCoverKinds(t *testing.T) {
	for k := KindInvalid + 1; k < endKinds; k++ {
		_, ok := renderers[k]
		assert.True(t, ok, "kind %s has no renderer", k)
	}
}

func TestTypeMapper_ReflectType(t *testing.T) {
	tests := []struct {
		native        string
		length, scale int
		want          *Type
	}{
		{"INTEGER", 1, 0, TinyInt()},
		{"INTEGER", 2, 0, SmallInt()},
		{"INTEGER", 4, 0, Integer()},
		{"INTEGER", 8, 0, BigInt()},
		{"TINYINT", 0, 0, TinyInt()},
		{"BIGINT", 0, 0, BigInt()},
		{"DECIMAL", 10, 2, Decimal(10, 2)},
		{"MONEY", 14, 0, Decimal()},
		{"FLOAT", 4, 0, Float(7)},
		{"FLOAT", 8, 0, Float()},
		{"ANSIDATE", 4, 0, Date()},
		{"INGRESDATE", 12, 0, Timestamp(ZoneNone)},
		{"DATE", 12, 0, Timestamp(ZoneNone)},
		{"TIMESTAMP WITH TIME ZONE", 0, 0, Timestamp(ZoneWith)},
		{"TIME WITHOUT TIME ZONE", 0, 0, Time(ZoneWithout)},
		{"INTERVAL YEAR TO MONTH", 0, 0, Interval(YearToMonth)},
		{"C", 10, 0, Char(10)},
		{"CHAR", 1, 0, Char(1)},
		{"VARCHAR", 32, 0, VarChar(32)},
		{"TEXT", 20, 0, VarChar(20)},
		{"TEXT", 0, 0, Clob()},
		{"LONG VARCHAR", 0, 0, Clob()},
		{"NVARCHAR", 10, 0, NVarChar(10)},
		{"LONG NVARCHAR", 0, 0, NClob()},
		{"BYTE", 4, 0, Binary(4)},
		{"BYTE VARYING", 4, 0, VarBinary(4)},
		{"LONG BYTE", 0, 0, Blob()},
		{"BOOLEAN", 1, 0, Boolean()},
		{"varchar ", 5, 0, VarChar(5)},
	}
	var m TypeMapper
	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			got, err := m.ReflectType(tt.native, tt.length, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid_width", func(t *testing.T) {
		_, err := m.ReflectType("INTEGER", 3, 0)
		require.Error(t, err)
	})

	t.Run("unmapped", func(t *testing.T) {
		_, err := m.ReflectType("OBJECT_KEY", 8, 0)
		require.Error(t, err)
		var e *actian.UnmappedTypeError
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "OBJECT_KEY", e.Native)
	})
}

func TestTypeMapper_ParseType(t *testing.T) {
	tests := []struct {
		raw  string
		want *Type
	}{
		{"DECIMAL(10,2)", Decimal(10, 2)},
		{"decimal(10, 2)", Decimal(10, 2)},
		{"DECIMAL(10)", Decimal(10)},
		{"DECIMAL", Decimal()},
		{"VARCHAR(255)", VarChar(255)},
		{"BYTE VARYING(16)", VarBinary(16)},
		{"LONG VARCHAR", Clob()},
		{"TIMESTAMP WITH TIME ZONE", Timestamp(ZoneWith)},
		{"timestamp(6) with local time zone", Timestamp(ZoneLocal)},
		{"INTEGER", Integer()},
		{"INTEGER8", BigInt()},
		{"double precision", Float()},
		{"INTERVAL DAY TO SECOND", Interval(DayToSecond)},
		{"TIME", Time(ZoneNone)},
	}
	var m TypeMapper
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := m.ParseType(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			native, err := m.FormatType(got)
			require.NoError(t, err)
			again, err := m.ParseType(native)
			require.NoError(t, err)
			assert.Equal(t, got, again, "round trip through %q", native)
		})
	}

	for _, raw := range []string{"", "GEOMETRY", "VARCHAR(", "(10)"} {
		_, err := m.ParseType(raw)
		assert.True(t, actian.IsUnmappedType(err), raw)
	}
}

func TestTypeMapper_FormatAtlasTypes(t *testing.T) {
	size := 8
	tests := []struct {
		typ  schema.Type
		want string
	}{
		{&schema.IntegerType{T: "bigint"}, "BIGINT"},
		{&schema.IntegerType{T: "int"}, "INTEGER"},
		{&schema.IntegerType{T: "smallserial"}, "SMALLINT"},
		{&schema.BoolType{T: "bool"}, "TINYINT"},
		{&schema.DecimalType{T: "decimal", Precision: 10, Scale: 2}, "DECIMAL(10,2)"},
		{&schema.DecimalType{T: "decimal"}, "DECIMAL"},
		{&schema.FloatType{T: "float", Precision: 53}, "FLOAT(53)"},
		{&schema.TimeType{T: "timestamp with time zone"}, "TIMESTAMP WITH TIME ZONE"},
		{&schema.TimeType{T: "timestamptz"}, "TIMESTAMP WITH TIME ZONE"},
		{&schema.TimeType{T: "datetime"}, "TIMESTAMP"},
		{&schema.TimeType{T: "date"}, "TIMESTAMP"},
		{&schema.TimeType{T: "ansidate"}, "ANSIDATE"},
		{&schema.TimeType{T: "time"}, "TIME"},
		{&schema.StringType{T: "varchar", Size: 64}, "VARCHAR(64)"},
		{&schema.StringType{T: "char", Size: 2}, "CHAR(2)"},
		{&schema.StringType{T: "text"}, "LONG VARCHAR"},
		{&schema.StringType{T: "longtext"}, "LONG VARCHAR"},
		{&schema.BinaryType{T: "blob"}, "LONG BYTE"},
		{&schema.BinaryType{T: "varbinary", Size: &size}, "BYTE VARYING(8)"},
		{&schema.UnsupportedType{T: "NCHAR(4)"}, "NCHAR(4)"},
		{Decimal(5, 1), "DECIMAL(5,1)"},
	}
	var m TypeMapper
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := m.FormatType(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := m.FormatType(&schema.JSONType{T: "json"})
	assert.True(t, actian.IsUnmappedType(err))
	_, err = m.FormatType(nil)
	assert.True(t, actian.IsUnmappedType(err))
}

func TestBool(t *testing.T) {
	t.Run("bind", func(t *testing.T) {
		yes, no := true, false
		tests := []struct {
			in   any
			want driver.Value
		}{
			{true, int64(1)},
			{false, int64(0)},
			{nil, nil},
			{&yes, int64(1)},
			{&no, int64(0)},
			{(*bool)(nil), nil},
			{Bool{Bool: true, Valid: true}, int64(1)},
			{Bool{}, nil},
			{dsql.NullBool{Bool: false, Valid: true}, int64(0)},
			{dsql.NullBool{}, nil},
			{1, int64(1)},
			{int64(42), int64(1)},
			{int8(-1), int64(1)},
			{0, int64(0)},
		}
		for _, tt := range tests {
			got, err := BindBool(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "%#v", tt.in)
		}
		_, err := BindBool("yes")
		require.Error(t, err)
		_, err = BindBool(1.5)
		require.Error(t, err)
	})

	t.Run("scan", func(t *testing.T) {
		tests := []struct {
			src  any
			want Bool
		}{
			{int64(1), Bool{Bool: true, Valid: true}},
			{int64(0), Bool{Valid: true}},
			{int64(7), Bool{Bool: true, Valid: true}},
			{nil, Bool{}},
			{true, Bool{Bool: true, Valid: true}},
			{[]byte("1"), Bool{Bool: true, Valid: true}},
			{"0", Bool{Valid: true}},
		}
		for _, tt := range tests {
			var b Bool
			require.NoError(t, b.Scan(tt.src))
			assert.Equal(t, tt.want, b, "%#v", tt.src)
		}
		var b Bool
		require.Error(t, b.Scan(1.5))
		require.Error(t, b.Scan("x"))
	})
}
