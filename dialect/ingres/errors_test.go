package ingres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stateErr string

func (e stateErr) Error() string    { return "driver error" }
func (e stateErr) SQLState() string { return string(e) }

type codeErr string

func (e codeErr) Error() string { return "driver error" }
func (e codeErr) Code() string  { return string(e) }

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name                   string
		err                    error
		unique, foreign, check bool
	}{
		{name: "nil"},
		{name: "plain", err: errors.New("connection reset")},
		{name: "unique_state", err: stateErr("23505"), unique: true},
		{name: "unique_code", err: codeErr("23505"), unique: true},
		{name: "unique_wrapped", err: fmt.Errorf("insert: %w", stateErr("23505")), unique: true},
		{name: "unique_odbc_text", err: errors.New("[Actian][Ingres ODBC Driver]{23505} insert failed"), unique: true},
		{name: "unique_message", err: errors.New("E_US1194 Duplicate key on INSERT detected."), unique: true},
		{name: "unique_vector", err: errors.New("duplicate key value violates constraint"), unique: true},
		{name: "foreign_state", err: stateErr("23503"), foreign: true},
		{name: "foreign_message", err: errors.New("E_US1906 Referential constraint violated."), foreign: true},
		{name: "check_state", err: codeErr("23513"), check: true},
		{name: "check_message", err: errors.New("row violates check constraint c1"), check: true},
		{name: "other_state", err: stateErr("40001")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.foreign, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.foreign || tt.check, IsConstraintError(tt.err))
		})
	}
}
