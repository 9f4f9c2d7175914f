package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Cell
		want bool
	}{
		{name: "equal text", a: Cell{Value: "x"}, b: Cell{Value: "x"}, want: true},
		{name: "different text", a: Cell{Value: "x"}, b: Cell{Value: "y"}, want: false},
		{name: "both null ignores value", a: Cell{Value: "x", Null: true}, b: Cell{Value: "y", Null: true}, want: true},
		{name: "null vs empty string", a: Cell{Null: true}, b: Cell{Value: ""}, want: false},
		{name: "empty vs empty", a: Cell{}, b: Cell{}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CellEqual(tt.a, tt.b))
		})
	}
}

func TestNewWorkingRowIsACopy(t *testing.T) {
	t.Parallel()

	base := BaselineRow{Cells: []Cell{{Value: "a"}, {Null: true}}}
	w := NewWorkingRow(base)
	w.Cells[0] = Cell{Value: "changed"}

	assert.Equal(t, "a", base.Cells[0].Value, "baseline must not observe working edits")
	assert.False(t, w.IsNew)
}

func TestEmptyWorkingRow(t *testing.T) {
	t.Parallel()

	w := EmptyWorkingRow(3)
	assert.True(t, w.IsNew)
	assert.Len(t, w.Cells, 3)
	for _, c := range w.Cells {
		assert.False(t, c.Null)
		assert.Empty(t, c.Value)
	}
}

func TestQueryResultStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, QueryStatusOK, (&QueryResult{}).Status())
	assert.Equal(t, QueryStatusError, (&QueryResult{Err: &QueryError{Message: "boom"}}).Status())
	assert.Equal(t, QueryStatusCancelled, (&QueryResult{
		Cancelled: true,
		Err:       &QueryError{Message: CancelledMessage},
	}).Status())
}
