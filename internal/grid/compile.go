package grid

import "gridsync/internal/domain"

// Compile diffs the edited working rows against their baseline and
// produces the ordered list of write operations. It is a pure function of
// its inputs and retains no state across calls.
//
// Existing rows emit an Update holding only the cells whose value differs
// from the baseline under the null-flag-first rule. New rows emit an
// Insert holding every column the user set to a non-empty value or to an
// explicit null; columns left at the default empty/non-null state are
// omitted rather than written as empty strings. Rows with no qualifying
// cells emit nothing.
func Compile(original []domain.BaselineRow, working []domain.WorkingRow, columns []string) []domain.ChangeOperation {
	var ops []domain.ChangeOperation

	for i, w := range working {
		if w.IsNew {
			var changes []domain.CellChange
			for col := range columns {
				if col >= len(w.Cells) {
					break
				}
				c := w.Cells[col]
				if c.Value == "" && !c.Null {
					continue
				}
				changes = append(changes, domain.CellChange{Column: col, Value: c.Value, Null: c.Null})
			}
			if len(changes) > 0 {
				ops = append(ops, domain.ChangeOperation{Kind: domain.ChangeInsert, Changes: changes})
			}
			continue
		}

		if i >= len(original) {
			continue
		}
		base := original[i]
		var changes []domain.CellChange
		for col := range columns {
			if col >= len(w.Cells) || col >= len(base.Cells) {
				break
			}
			if domain.CellEqual(base.Cells[col], w.Cells[col]) {
				continue
			}
			c := w.Cells[col]
			changes = append(changes, domain.CellChange{Column: col, Value: c.Value, Null: c.Null})
		}
		if len(changes) > 0 {
			ops = append(ops, domain.ChangeOperation{Kind: domain.ChangeUpdate, RowIndex: i, Changes: changes})
		}
	}

	return ops
}
