// Package grid implements the paged table snapshot manager: loading pages
// with stable per-row identity tokens, diffing client-side edits against a
// baseline, and applying the compiled diff transactionally.
package grid

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gridsync/internal/domain"
)

// encodeCell serializes one scanned value into its editable text form.
// Null is an explicit flag, never conflated with the empty string; times
// round-trip through RFC 3339; binary becomes hex-escaped text; uuids get
// their canonical dashed form. Driver-decoded composite values (pgtype
// numerics, tids, intervals) render through their own text encoding
// rather than Go struct formatting, so the text is what the server would
// parse back.
func encodeCell(v interface{}) domain.Cell {
	switch val := v.(type) {
	case nil:
		return domain.Cell{Null: true}
	case string:
		return domain.Cell{Value: val}
	case time.Time:
		return domain.Cell{Value: val.Format(time.RFC3339Nano)}
	case []byte:
		return domain.Cell{Value: `\x` + hex.EncodeToString(val)}
	case [16]byte:
		return domain.Cell{Value: uuid.UUID(val).String()}
	case driver.Valuer:
		dv, err := val.Value()
		if err != nil {
			return domain.Cell{Value: fmt.Sprint(v)}
		}
		return encodeCell(dv)
	default:
		return domain.Cell{Value: fmt.Sprint(val)}
	}
}

// quoteIdent quotes a SQL identifier so arbitrary names and case survive.
func quoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"', '"')
		} else {
			out = append(out, name[i])
		}
	}
	return string(append(out, '"'))
}

// cellArg converts a cell into a bound statement parameter. Values always
// travel as parameters, never interpolated into SQL text.
func cellArg(value string, null bool) interface{} {
	if null {
		return nil
	}
	return value
}
