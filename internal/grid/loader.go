package grid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gridsync/internal/domain"
	"gridsync/internal/pool"
)

// locatorAlias names the synthetic physical-row locator column in page
// queries. Chosen to be unlikely to collide with real column names; it is
// stripped from the reported column list.
const locatorAlias = "__gridsync_ctid__"

// columnLabelSQL is the best-effort metadata probe for display type labels.
const columnLabelSQL = `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// Loader fetches one page of a table's rows, tagging each with a
// page-lifetime identity token derived from its physical locator.
type Loader struct {
	provider pool.Provider
	logger   *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(provider pool.Provider, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{provider: provider, logger: logger}
}

// splitTableName splits a possibly schema-qualified name, defaulting the
// schema to "public".
func splitTableName(table string) (schema, name string) {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "public", table
}

// pageSQL builds the single page query: locator first, then every real
// column, ordered by the locator for determinism, fetching one row past
// the page to detect a following page without a COUNT(*). The locator is
// cast to text so the token arrives in the exact form the write-back's
// `::tid` cast parses, independent of driver type mapping.
func pageSQL(table string) string {
	schema, name := splitTableName(table)
	return fmt.Sprintf("SELECT ctid::text AS %s, * FROM %s.%s ORDER BY ctid LIMIT $1 OFFSET $2",
		quoteIdent(locatorAlias), quoteIdent(schema), quoteIdent(name))
}

// LoadPage fetches the zero-based pageIndex of the table. One checked-out
// connection serves the page query; the metadata probe for type labels
// runs on the ambient pool and degrades to empty labels on failure.
func (l *Loader) LoadPage(ctx context.Context, table string, pageSize, pageIndex int) (*domain.Page, error) {
	if strings.TrimSpace(table) == "" {
		return nil, domain.ErrValidation("table name is required")
	}
	if pageSize <= 0 {
		return nil, domain.ErrValidation("page size must be positive")
	}
	if pageIndex < 0 {
		return nil, domain.ErrValidation("page index must not be negative")
	}

	conn, err := l.provider.Checkout(ctx)
	if err != nil {
		return nil, domain.ErrConnection(err, "checkout connection: %v", err)
	}
	defer conn.Release() //nolint:errcheck

	res, err := conn.Query(ctx, pageSQL(table), pageSize+1, pageIndex*pageSize)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	locator := -1
	var names []string
	for i, c := range res.Columns {
		if c == locatorAlias && locator < 0 {
			locator = i
			continue
		}
		names = append(names, c)
	}
	if locator < 0 {
		return nil, fmt.Errorf("load page: locator column missing from result")
	}

	rows := res.Rows
	hasNext := false
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		hasNext = true
	}

	page := &domain.Page{
		Rows:        make([]domain.BaselineRow, len(rows)),
		Tokens:      make([]domain.RowToken, len(rows)),
		HasNextPage: hasNext,
	}
	for i, r := range rows {
		cells := make([]domain.Cell, 0, len(names))
		for j, v := range r {
			if j == locator {
				// Tokens go through the cell encoder so a driver-decoded
				// locator still renders as server-parseable text.
				page.Tokens[i] = domain.RowToken(encodeCell(v).Value)
				continue
			}
			cells = append(cells, encodeCell(v))
		}
		page.Rows[i] = domain.BaselineRow{Cells: cells}
	}

	page.Columns = l.describeColumns(ctx, table, names)
	return page, nil
}

// describeColumns attaches display type labels to the column list. Label
// lookup is best-effort: any failure yields empty labels, never a page
// load failure.
func (l *Loader) describeColumns(ctx context.Context, table string, names []string) []domain.ColumnDescriptor {
	out := make([]domain.ColumnDescriptor, len(names))
	for i, n := range names {
		out[i] = domain.ColumnDescriptor{Name: n}
	}

	schema, name := splitTableName(table)
	res, err := l.provider.Query(ctx, columnLabelSQL, schema, name)
	if err != nil {
		l.logger.Debug("column label probe failed", "table", table, "err", err)
		return out
	}

	labels := make(map[string]string, len(res.Rows))
	for _, r := range res.Rows {
		if len(r) == 2 {
			labels[fmt.Sprint(r[0])] = fmt.Sprint(r[1])
		}
	}
	for i := range out {
		out[i].TypeLabel = labels[out[i].Name]
	}
	return out
}
