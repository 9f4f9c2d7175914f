package grid

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gridsync/internal/domain"
)

// Registry owns the single active table-edit session. Opening a new
// session disposes the previous one; there is never more than one live
// edit view, mirroring the one-active-panel model of the host UI.
type Registry struct {
	loader *Loader
	runner *Runner
	logger *slog.Logger

	mu      sync.Mutex
	id      string
	session *Session
}

// NewRegistry creates a Registry.
func NewRegistry(loader *Loader, runner *Runner, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{loader: loader, runner: runner, logger: logger}
}

// Open starts an edit session for the table, replacing and disposing any
// previous one. Returns the new session's id.
func (r *Registry) Open(ctx context.Context, table string, pageSize, pageIndex int) (string, *Session, error) {
	s, err := OpenSession(ctx, r.loader, r.runner, table, pageSize, pageIndex)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.Dispose()
		r.logger.Info("edit session replaced", "id", r.id)
	}
	r.id = uuid.NewString()
	r.session = s
	return r.id, s, nil
}

// Get returns the active session if the id matches.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.id != id || r.session.Disposed() {
		return nil, domain.ErrNotFound("edit session %q not found", id)
	}
	return r.session, nil
}

// Close disposes the session with the given id. Unknown ids are a
// NotFoundError.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.id != id {
		return domain.ErrNotFound("edit session %q not found", id)
	}
	r.session.Dispose()
	r.session = nil
	r.id = ""
	return nil
}

// SweepIdle disposes the active session when it has been idle longer than
// ttl. Run periodically by the host.
func (r *Registry) SweepIdle(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return
	}
	if time.Since(r.session.LastActive()) > ttl {
		r.logger.Info("disposing idle edit session", "id", r.id)
		r.session.Dispose()
		r.session = nil
		r.id = ""
	}
}
