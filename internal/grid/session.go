package grid

import (
	"context"
	"sync"
	"time"

	"gridsync/internal/domain"
)

// Session is one active table-edit view: a loaded page, its baseline and
// identity tokens, and the user's in-progress edits. The session
// exclusively owns its tokens and baseline; navigation and reload replace
// them wholesale, never merging stale and fresh state.
type Session struct {
	loader *Loader
	runner *Runner

	mu         sync.Mutex
	table      string
	pageSize   int
	pageIndex  int
	columns    []domain.ColumnDescriptor
	baseline   []domain.BaselineRow
	tokens     []domain.RowToken
	working    []domain.WorkingRow
	hasNext    bool
	lastActive time.Time
	disposed   bool
}

// SessionState is a copyable snapshot of a session for the host layer.
type SessionState struct {
	Table       string                    `json:"table"`
	PageSize    int                       `json:"pageSize"`
	PageIndex   int                       `json:"pageIndex"`
	Columns     []domain.ColumnDescriptor `json:"columns"`
	Rows        []domain.WorkingRow       `json:"rows"`
	HasNextPage bool                      `json:"hasNextPage"`
	Dirty       bool                      `json:"dirty"`
}

// OpenSession loads the first requested page of a table and returns the
// edit session for it.
func OpenSession(ctx context.Context, loader *Loader, runner *Runner, table string, pageSize, pageIndex int) (*Session, error) {
	s := &Session{
		loader:    loader,
		runner:    runner,
		table:     table,
		pageSize:  pageSize,
		pageIndex: pageIndex,
	}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// reload fetches the current page and resets baseline, tokens, and
// working rows. Caller must hold no lock guarantees; reload takes care of
// its own locking through the public entry points.
func (s *Session) reload(ctx context.Context) error {
	page, err := s.loader.LoadPage(ctx, s.table, s.pageSize, s.pageIndex)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = page.Columns
	s.baseline = page.Rows
	s.tokens = page.Tokens
	s.hasNext = page.HasNextPage
	s.working = make([]domain.WorkingRow, len(page.Rows))
	for i, b := range page.Rows {
		s.working[i] = domain.NewWorkingRow(b)
	}
	s.lastActive = time.Now()
	return nil
}

// Reload refreshes the current page, discarding pending edits.
func (s *Session) Reload(ctx context.Context) error {
	return s.reload(ctx)
}

// Navigate moves to the adjacent page. Moving past the first page or past
// the last known page is a validation error. Pending edits are discarded.
func (s *Session) Navigate(ctx context.Context, dir domain.PageDirection) error {
	s.mu.Lock()
	switch dir {
	case domain.PageNext:
		if !s.hasNext {
			s.mu.Unlock()
			return domain.ErrValidation("no next page")
		}
		s.pageIndex++
	case domain.PagePrev:
		if s.pageIndex == 0 {
			s.mu.Unlock()
			return domain.ErrValidation("already at first page")
		}
		s.pageIndex--
	default:
		s.mu.Unlock()
		return domain.ErrValidation("invalid page direction %q", dir)
	}
	s.mu.Unlock()
	return s.reload(ctx)
}

// SetCell applies one cell edit to the working copy.
func (s *Session) SetCell(row, col int, value string, null bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= len(s.working) {
		return domain.ErrValidation("row %d out of range", row)
	}
	if col < 0 || col >= len(s.columns) {
		return domain.ErrValidation("column %d out of range", col)
	}
	s.working[row].Cells[col] = domain.Cell{Value: value, Null: null}
	s.lastActive = time.Now()
	return nil
}

// AddRow appends an empty new row shell and returns its index.
func (s *Session) AddRow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = append(s.working, domain.EmptyWorkingRow(len(s.columns)))
	s.lastActive = time.Now()
	return len(s.working) - 1
}

// RevertRow restores one row's working copy from the baseline. Reverting
// a new row removes it.
func (s *Session) RevertRow(row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= len(s.working) {
		return domain.ErrValidation("row %d out of range", row)
	}
	if s.working[row].IsNew {
		s.working = append(s.working[:row], s.working[row+1:]...)
		return nil
	}
	s.working[row] = domain.NewWorkingRow(s.baseline[row])
	return nil
}

// Dirty reports whether any cell differs from the baseline under the same
// comparison rule the compiler uses, so dirty markers and compiled
// changes never disagree.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(Compile(s.baseline, s.working, s.columnNames())) > 0
}

// Save compiles pending edits, applies them transactionally, and reloads
// the page to establish a fresh baseline with new identity tokens.
func (s *Session) Save(ctx context.Context) (*domain.SaveResult, error) {
	s.mu.Lock()
	ops := Compile(s.baseline, s.working, s.columnNames())
	table := s.table
	cols := s.columnNames()
	tokens := s.tokens
	s.mu.Unlock()

	if len(ops) == 0 {
		return &domain.SaveResult{}, nil
	}

	res, err := s.runner.Apply(ctx, table, cols, tokens, ops)
	if err != nil {
		return nil, err
	}
	if err := s.reload(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// HandleCommand dispatches one host command to the session.
func (s *Session) HandleCommand(ctx context.Context, cmd domain.Command) (*domain.SaveResult, error) {
	switch c := cmd.(type) {
	case domain.SaveCommand:
		return s.Save(ctx)
	case domain.RefreshCommand:
		return nil, s.Reload(ctx)
	case domain.PageCommand:
		return nil, s.Navigate(ctx, c.Direction)
	case domain.CancelCommand:
		return nil, s.Reload(ctx)
	default:
		return nil, domain.ErrValidation("unsupported command")
	}
}

// State snapshots the session for the host layer.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]domain.WorkingRow, len(s.working))
	for i, w := range s.working {
		cells := make([]domain.Cell, len(w.Cells))
		copy(cells, w.Cells)
		rows[i] = domain.WorkingRow{Cells: cells, IsNew: w.IsNew}
	}
	return SessionState{
		Table:       s.table,
		PageSize:    s.pageSize,
		PageIndex:   s.pageIndex,
		Columns:     append([]domain.ColumnDescriptor(nil), s.columns...),
		Rows:        rows,
		HasNextPage: s.hasNext,
		Dirty:       len(Compile(s.baseline, s.working, s.columnNames())) > 0,
	}
}

// LastActive reports the time of the most recent mutation or load.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Dispose marks the session dead. Idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.baseline = nil
	s.tokens = nil
	s.working = nil
}

// Disposed reports whether the session has been disposed.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// columnNames requires s.mu held.
func (s *Session) columnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}
