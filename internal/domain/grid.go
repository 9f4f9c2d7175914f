package domain

// RowToken opaquely identifies one physical row within the currently loaded
// page. Tokens are leases scoped to a single page load: reloading or
// navigating invalidates every token, and they are never persisted or used
// as business identifiers.
type RowToken string

// Cell is one editable cell value. A null cell is distinct from an empty
// string; Null takes precedence over Value in every comparison.
type Cell struct {
	Value string `json:"value"`
	Null  bool   `json:"null"`
}

// CellEqual reports whether two cells hold the same value under the
// null-flag-first rule: cells differ if their null flags differ, or if both
// are non-null and their text differs. Dirty markers in the host layer and
// the change compiler must agree, so both use this function.
func CellEqual(a, b Cell) bool {
	if a.Null != b.Null {
		return false
	}
	if a.Null {
		return true
	}
	return a.Value == b.Value
}

// BaselineRow holds the last-loaded authoritative cell state for one row.
// Immutable once created; replaced wholesale on reload.
type BaselineRow struct {
	Cells []Cell
}

// WorkingRow is an in-progress, possibly edited copy of a baseline row, or
// a new unsaved row when IsNew is set.
type WorkingRow struct {
	Cells []Cell
	IsNew bool
}

// NewWorkingRow clones a baseline row into an editable working copy.
func NewWorkingRow(b BaselineRow) WorkingRow {
	cells := make([]Cell, len(b.Cells))
	copy(cells, b.Cells)
	return WorkingRow{Cells: cells}
}

// EmptyWorkingRow creates the shell for a newly added row: every cell is
// empty and non-null until the user edits it.
func EmptyWorkingRow(columns int) WorkingRow {
	return WorkingRow{Cells: make([]Cell, columns), IsNew: true}
}

// ColumnDescriptor pairs a column name with a rendered type label. The
// label is display-only and never participates in SQL generation.
type ColumnDescriptor struct {
	Name      string `json:"name"`
	TypeLabel string `json:"typeLabel,omitempty"`
}

// CellChange names one column's new value within a change operation.
type CellChange struct {
	Column int    `json:"column"`
	Value  string `json:"value"`
	Null   bool   `json:"null"`
}

// ChangeKind discriminates change operation variants.
type ChangeKind string

// Change operation kinds.
const (
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeInsert ChangeKind = "INSERT"
)

// ChangeOperation is one compiled write: an update of an existing row
// (addressed by RowIndex into the page's token list) or an insert of a new
// row. An operation always carries at least one cell change; empty diffs
// are filtered out before compilation.
type ChangeOperation struct {
	Kind     ChangeKind   `json:"kind"`
	RowIndex int          `json:"rowIndex,omitempty"`
	Changes  []CellChange `json:"changes"`
}

// SaveResult reports the outcome of applying a compiled change set.
type SaveResult struct {
	Updated      int `json:"updated"`
	Inserted     int `json:"inserted"`
	SkippedStale int `json:"skippedStale,omitempty"`
}

// Page is one loaded table page plus its identity tokens.
type Page struct {
	Columns     []ColumnDescriptor
	Rows        []BaselineRow
	Tokens      []RowToken
	HasNextPage bool
}
