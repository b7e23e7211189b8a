package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage"
)

// ErrInterceptor wraps failures of post-commit interceptors.
var ErrInterceptor = errors.New("registry: interceptor failed")

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides shell management over a primary store.
// All public methods are safe for concurrent use.
type Registry struct {
	store        storage.Storage
	lister       storage.Lister
	listerName   string
	interceptors []Interceptor
	observer     Observer
	logger       Logger
	now          func() time.Time

	// refMu serialises read-modify-write of submodel references.
	refMu sync.Mutex
}

// New creates a registry over store.
func New(store storage.Storage) *Registry {
	return &Registry{
		store:      store,
		lister:     store,
		listerName: store.Name(),
		observer:   noopObserver{},
		logger:     noopLogger{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetObserver sets the operation observer.
func (r *Registry) SetObserver(o Observer) {
	r.observer = o
}

// SetLister routes listings to l instead of the primary store. Page
// observations are labelled with l's Name when it has one.
func (r *Registry) SetLister(l storage.Lister) {
	r.lister = l
	r.listerName = r.store.Name()
	if named, ok := l.(interface{ Name() string }); ok {
		r.listerName = named.Name()
	}
}

// AddInterceptor appends an interceptor. Call before serving requests.
func (r *Registry) AddInterceptor(i Interceptor) {
	r.interceptors = append(r.interceptors, i)
}

// Backend returns the primary store's name.
func (r *Registry) Backend() string {
	return r.store.Name()
}

// HealthCheck checks the primary store when it supports health checks.
func (r *Registry) HealthCheck(ctx context.Context) error {
	if hc, ok := r.store.(storage.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// GetShell retrieves a shell by ID.
func (r *Registry) GetShell(ctx context.Context, id string) (sh *shell.Shell, err error) {
	defer r.observe("get", time.Now(), &err)
	return r.store.Get(ctx, id)
}

// ListShells returns one page of shells matching spec.
func (r *Registry) ListShells(ctx context.Context, spec filter.Spec, info paging.Info) (page paging.Result[*shell.Shell], err error) {
	defer r.observe("list", time.Now(), &err)

	spec = spec.Normalized()
	if err := spec.Validate(); err != nil {
		return page, err
	}
	if err := info.Validate(); err != nil {
		return page, err
	}
	page, err = r.lister.List(ctx, spec, info)
	if err != nil {
		return page, err
	}
	if po, ok := r.observer.(PageObserver); ok {
		po.ObservePage(r.listerName, len(page.Items), page.HasMore())
	}
	return page, nil
}

// CreateShell validates and stores a new shell, generating an ID when
// none is given. sh is only updated once the shell has been stored.
func (r *Registry) CreateShell(ctx context.Context, sh *shell.Shell) (err error) {
	defer r.observe("create", time.Now(), &err)

	if sh == nil {
		return fmt.Errorf("%w: nil shell", shell.ErrInvalid)
	}
	c := sh.DeepCopy()
	if c.ID == "" {
		c.ID = shell.GenerateID()
	}
	shell.Normalize(c)
	if err := shell.Validate(c); err != nil {
		return err
	}

	now := r.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := r.store.Insert(ctx, c); err != nil {
		return err
	}
	*sh = *c.DeepCopy()

	r.logger.Info("shell created", "id", c.ID, "id_short", c.IDShort)
	return r.notify(ctx, Event{Type: EventCreated, ShellID: c.ID, Shell: c, Time: now})
}

// UpdateShell replaces the shell stored under id. An empty sh.ID takes id;
// a different one fails with shell.ErrIDMismatch.
func (r *Registry) UpdateShell(ctx context.Context, id string, sh *shell.Shell) (err error) {
	defer r.observe("update", time.Now(), &err)

	if sh == nil {
		return fmt.Errorf("%w: nil shell", shell.ErrInvalid)
	}
	c := sh.DeepCopy()
	if c.ID == "" {
		c.ID = id
	}
	if c.ID != id {
		return fmt.Errorf("%w: body id %q, target %q", shell.ErrIDMismatch, c.ID, id)
	}
	shell.Normalize(c)
	if err := shell.Validate(c); err != nil {
		return err
	}
	err = r.replace(ctx, c)
	if err == nil || errors.Is(err, ErrInterceptor) {
		*sh = *c.DeepCopy()
	}
	return err
}

// DeleteShell removes a shell.
func (r *Registry) DeleteShell(ctx context.Context, id string) (err error) {
	defer r.observe("delete", time.Now(), &err)

	removed, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}

	r.logger.Info("shell deleted", "id", id)
	return r.notify(ctx, Event{Type: EventDeleted, ShellID: id, Shell: removed, Time: r.now()})
}

// Clear removes every shell and returns the removed IDs.
func (r *Registry) Clear(ctx context.Context) (removed []string, err error) {
	defer r.observe("clear", time.Now(), &err)

	removed, err = r.store.Clear(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Info("shells cleared", "count", len(removed))
	return removed, r.notify(ctx, Event{Type: EventCleared, RemovedIDs: removed, Time: r.now()})
}

// ListSubmodelRefs returns one page of a shell's submodel references in ID order.
func (r *Registry) ListSubmodelRefs(ctx context.Context, id string, info paging.Info) (page paging.Result[shell.SubmodelRef], err error) {
	defer r.observe("list_submodel_refs", time.Now(), &err)

	if err := info.Validate(); err != nil {
		return page, err
	}
	sh, err := r.store.Get(ctx, id)
	if err != nil {
		return page, err
	}
	return paging.Slice(sh.SortedSubmodels(), info, func(ref shell.SubmodelRef) string { return ref.ID }), nil
}

// AddSubmodelRef attaches a submodel reference to a shell.
func (r *Registry) AddSubmodelRef(ctx context.Context, id string, ref shell.SubmodelRef) (err error) {
	defer r.observe("add_submodel_ref", time.Now(), &err)

	if ref.ID == "" {
		return fmt.Errorf("%w: submodel reference id is required", shell.ErrInvalid)
	}
	return r.modify(ctx, id, func(sh *shell.Shell) error {
		if sh.HasSubmodel(ref.ID) {
			return fmt.Errorf("%w: %s", shell.ErrSubmodelRefExists, ref.ID)
		}
		sh.Submodels = append(sh.Submodels, ref)
		return nil
	})
}

// RemoveSubmodelRef detaches a submodel reference from a shell.
func (r *Registry) RemoveSubmodelRef(ctx context.Context, id, submodelID string) (err error) {
	defer r.observe("remove_submodel_ref", time.Now(), &err)

	return r.modify(ctx, id, func(sh *shell.Shell) error {
		for i, existing := range sh.Submodels {
			if existing.ID == submodelID {
				sh.Submodels = append(sh.Submodels[:i], sh.Submodels[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", shell.ErrSubmodelRefNotFound, submodelID)
	})
}

// modify applies fn to the stored shell and writes it back.
func (r *Registry) modify(ctx context.Context, id string, fn func(sh *shell.Shell) error) error {
	r.refMu.Lock()
	defer r.refMu.Unlock()

	sh, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(sh); err != nil {
		return err
	}
	if err := shell.Validate(sh); err != nil {
		return err
	}
	return r.replace(ctx, sh)
}

// replace writes sh over the stored copy, keeping its creation time.
func (r *Registry) replace(ctx context.Context, sh *shell.Shell) error {
	existing, err := r.store.Get(ctx, sh.ID)
	if err != nil {
		return err
	}
	sh.CreatedAt = existing.CreatedAt
	sh.UpdatedAt = r.now()

	if err := r.store.Update(ctx, sh.ID, sh); err != nil {
		return err
	}

	r.logger.Info("shell updated", "id", sh.ID, "id_short", sh.IDShort)
	return r.notify(ctx, Event{Type: EventUpdated, ShellID: sh.ID, Shell: sh.DeepCopy(), Time: sh.UpdatedAt})
}

// notify runs every interceptor and joins their failures.
func (r *Registry) notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, i := range r.interceptors {
		if err := i.Intercept(ctx, ev); err != nil {
			r.logger.Error("interceptor failed",
				"interceptor", i.Name(), "event", string(ev.Type), "id", ev.ShellID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", i.Name(), err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInterceptor, errors.Join(errs...))
}

func (r *Registry) observe(op string, start time.Time, errp *error) {
	r.observer.ObserveOperation(op, r.store.Name(), time.Since(start), *errp)
}
