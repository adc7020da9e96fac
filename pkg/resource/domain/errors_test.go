package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid operator", NewErrInvalidFilterOperator("text", "like"), `invalid text filter operator: "like"`},
		{"invalid value", NewErrInvalidFilterValue("number", `"abc"`), `invalid number filter value: "abc"`},
		{"missing field with id", NewErrMissingField("year", 7), "row 7 is missing filtered field year"},
		{"missing field without id", NewErrMissingField("year", nil), "row is missing filtered field year"},
		{"too deep", NewErrFilterTooDeep(64), "filter nesting exceeds max depth 64"},
		{"invalid sort", NewErrInvalidSort("price", "up"), `invalid sort direction "up" for field price`},
		{"row limit", NewErrRowLimitExceeded(200, 150), "Too many rows requested. (requested 200, limit 150)"},
		{"invalid window", NewErrInvalidWindow(5, 5), "invalid row window [5, 5): startRow must be >= 0 and endRow > startRow"},
		{"not connected", NewErrNotConnected("memory"), "data source memory is not connected"},
		{"read only", NewErrReadOnly("excel", "insert"), "data source excel is read-only, cannot insert"},
		{"dataset not found", NewErrDatasetNotFound("cars"), "dataset cars not found"},
		{"invalid config", NewErrInvalidConfig("port", "out of range"), "invalid config for port: out of range"},
		{"connection failed", NewErrConnectionFailed("mysql", "refused"), "failed to connect to mysql data source: refused"},
		{"row not found", NewErrRowNotFound("7"), "row 7 not found"},
		{"unknown field", NewErrUnknownField("colour"), "cannot update field colour: unknown field"},
		{"id field", NewErrInvalidUpdate("id", "row id cannot be changed"), "cannot update field id: row id cannot be changed"},
		{"unsupported pushdown", NewErrUnsupportedPushdown("sqlite", "unknown column"), "sqlite data source cannot push down request: unknown column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrors_As(t *testing.T) {
	wrapped := fmt.Errorf("filter for field make: %w", NewErrInvalidFilterOperator("text", "like"))

	var opErr *ErrInvalidFilterOperator
	assert.True(t, errors.As(wrapped, &opErr))
	assert.Equal(t, "like", opErr.Operator)

	var missing *ErrMissingField
	assert.False(t, errors.As(wrapped, &missing))
}
