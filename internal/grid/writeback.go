package grid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gridsync/internal/domain"
	"gridsync/internal/pool"
)

// Runner applies a compiled change set inside one transaction on one
// dedicated connection. Either every operation commits or none does.
type Runner struct {
	provider pool.Provider
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(provider pool.Provider, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{provider: provider, logger: logger}
}

// Apply executes the operations in compiled order. Updates address rows
// through the page's identity tokens; an operation whose token is no
// longer tracked is skipped and counted rather than attempted. Any
// statement failure rolls the whole batch back.
//
// After a successful Apply the caller must reload the page: physical
// locators may shift on row rewrite, so previous tokens are not reusable.
func (r *Runner) Apply(ctx context.Context, table string, columns []string, tokens []domain.RowToken, ops []domain.ChangeOperation) (*domain.SaveResult, error) {
	out := &domain.SaveResult{}
	if len(ops) == 0 {
		return out, nil
	}

	conn, err := r.provider.Checkout(ctx)
	if err != nil {
		return nil, domain.ErrConnection(err, "checkout connection: %v", err)
	}
	defer conn.Release() //nolint:errcheck

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, domain.ErrTransaction(err, "begin transaction: %v", err)
	}

	for _, op := range ops {
		var n int64
		var err error
		switch op.Kind {
		case domain.ChangeUpdate:
			if op.RowIndex < 0 || op.RowIndex >= len(tokens) || tokens[op.RowIndex] == "" {
				out.SkippedStale++
				continue
			}
			n, err = applyUpdate(ctx, tx, table, columns, tokens[op.RowIndex], op.Changes)
			out.Updated += int(n)
		case domain.ChangeInsert:
			n, err = applyInsert(ctx, tx, table, columns, op.Changes)
			out.Inserted += int(n)
		default:
			err = fmt.Errorf("unknown change kind %q", op.Kind)
		}
		if err != nil {
			_ = tx.Rollback()
			return nil, domain.ErrTransaction(err, "save failed, all changes rolled back: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.ErrTransaction(err, "commit failed: %v", err)
	}

	r.logger.Info("changes saved",
		"table", table, "updated", out.Updated, "inserted", out.Inserted, "skipped", out.SkippedStale)
	return out, nil
}

func applyUpdate(ctx context.Context, tx pool.Tx, table string, columns []string, token domain.RowToken, changes []domain.CellChange) (int64, error) {
	schema, name := splitTableName(table)

	var set strings.Builder
	args := make([]interface{}, 0, len(changes)+1)
	for i, ch := range changes {
		if ch.Column < 0 || ch.Column >= len(columns) {
			return 0, fmt.Errorf("cell change column %d out of range", ch.Column)
		}
		if i > 0 {
			set.WriteString(", ")
		}
		fmt.Fprintf(&set, "%s = $%d", quoteIdent(columns[ch.Column]), i+1)
		args = append(args, cellArg(ch.Value, ch.Null))
	}
	args = append(args, string(token))

	stmt := fmt.Sprintf("UPDATE %s.%s SET %s WHERE ctid = $%d::tid",
		quoteIdent(schema), quoteIdent(name), set.String(), len(args))
	return tx.Exec(ctx, stmt, args...)
}

func applyInsert(ctx context.Context, tx pool.Tx, table string, columns []string, changes []domain.CellChange) (int64, error) {
	schema, name := splitTableName(table)

	var cols, params strings.Builder
	args := make([]interface{}, 0, len(changes))
	for i, ch := range changes {
		if ch.Column < 0 || ch.Column >= len(columns) {
			return 0, fmt.Errorf("cell change column %d out of range", ch.Column)
		}
		if i > 0 {
			cols.WriteString(", ")
			params.WriteString(", ")
		}
		cols.WriteString(quoteIdent(columns[ch.Column]))
		fmt.Fprintf(&params, "$%d", i+1)
		args = append(args, cellArg(ch.Value, ch.Null))
	}

	stmt := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s)",
		quoteIdent(schema), quoteIdent(name), cols.String(), params.String())
	return tx.Exec(ctx, stmt, args...)
}
