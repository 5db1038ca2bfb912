package ingres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiler_Pagination(t *testing.T) {
	c := New().Compiler()
	tests := []struct {
		name  string
		shape SelectShape
		want  string
	}{
		{name: "none", shape: SelectShape{}, want: ""},
		{name: "limit", shape: SelectShape{Limit: 10}, want: " LIMIT 10"},
		{name: "offset", shape: SelectShape{Offset: 5}, want: " OFFSET 5"},
		{name: "offset_limit", shape: SelectShape{Offset: 5, Limit: 10}, want: " OFFSET 5 FETCH FIRST 10 ROWS ONLY"},
		{name: "zero_offset", shape: SelectShape{Offset: 0, Limit: 3}, want: " LIMIT 3"},
		{name: "negative", shape: SelectShape{Offset: -1, Limit: -1}, want: ""},
		{name: "subquery", shape: SelectShape{Offset: 5, Limit: 10, Subquery: true}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Pagination(tt.shape))
		})
	}
}

func TestCompiler_Compile(t *testing.T) {
	c := New().Compiler()
	t.Run("full", func(t *testing.T) {
		query, err := c.Compile(SelectShape{
			Columns:  []string{"id", "name"},
			From:     "users",
			Where:    "age > ?",
			OrderBy:  []string{"name", "id DESC"},
			Distinct: true,
			Limit:    20,
			Offset:   40,
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT DISTINCT id, name FROM users WHERE age > ? ORDER BY name, id DESC OFFSET 40 FETCH FIRST 20 ROWS ONLY", query)
	})
	t.Run("subquery", func(t *testing.T) {
		query, err := c.Compile(SelectShape{
			Columns:  []string{"id"},
			From:     "users",
			Distinct: true,
			Limit:    1,
			Subquery: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT id FROM users", query)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := c.Compile(SelectShape{From: "users"})
		require.Error(t, err)
		_, err = c.Compile(SelectShape{Columns: []string{"1"}})
		require.Error(t, err)
	})
}

func TestCompiler_Statements(t *testing.T) {
	c := New().Compiler()
	assert.Equal(t, "NEXT VALUE FOR user_seq", c.SequenceRef("user_seq"))
	assert.Equal(t, "SELECT NEXT VALUE FOR user_seq", c.NextValue("user_seq"))
	assert.Equal(t, `SELECT NEXT VALUE FOR "Seq"`, c.NextValue("Seq"))
	assert.Equal(t, "SAVEPOINT sp1", c.Savepoint("sp1"))
	assert.Equal(t, "ROLLBACK TO sp1", c.RollbackTo("sp1"))
	assert.Empty(t, c.ReleaseSavepoint("sp1"))
}

func TestCompiler_SetIsolation(t *testing.T) {
	c := New().Compiler()
	for level, want := range map[string]string{
		"read committed":   "SET SESSION ISOLATION LEVEL READ COMMITTED",
		"READ_UNCOMMITTED": "SET SESSION ISOLATION LEVEL READ UNCOMMITTED",
		"repeatable  read": "SET SESSION ISOLATION LEVEL REPEATABLE READ",
		"Serializable":     "SET SESSION ISOLATION LEVEL SERIALIZABLE",
	} {
		got, err := c.SetIsolation(level)
		require.NoError(t, err, level)
		assert.Equal(t, want, got)
	}
	_, err := c.SetIsolation("snapshot")
	require.Error(t, err)
}

func TestCompiler_Quote(t *testing.T) {
	c := New().Compiler()
	tests := []struct {
		name, want string
	}{
		{"users", "users"},
		{"user_id", "user_id"},
		{"_tmp", "_tmp"},
		{"a$b", "a$b"},
		{"user", `"user"`},
		{"select", `"select"`},
		{"Table", `"Table"`},
		{"Users", `"Users"`},
		{"1abc", `"1abc"`},
		{"first name", `"first name"`},
		{`a"b`, `"a""b"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Quote(tt.name), tt.name)
	}
}
