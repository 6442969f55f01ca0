package inputs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coreweave/storage-inputs/storage"
)

var ErrResourceNameMismatch = errors.New("descriptor belongs to a different resource")

// ResourceNameMismatchError reports a descriptor handed to the registry under
// another resource's name.
type ResourceNameMismatchError struct {
	Requested  string
	Descriptor string
}

func (e *ResourceNameMismatchError) Error() string {
	return fmt.Sprintf("descriptor for resource %q passed for %q", e.Descriptor, e.Requested)
}

func (e *ResourceNameMismatchError) Unwrap() error {
	return ErrResourceNameMismatch
}

// Registry caches one Manager per resource name. The zero value is not
// usable; call NewRegistry.
type Registry struct {
	cfg Config

	mu       sync.Mutex
	managers map[string]*Manager
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		managers: make(map[string]*Manager),
	}
}

// Get returns the cached manager for resourceName, if any.
func (r *Registry) Get(resourceName string) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[resourceName]
	return m, ok
}

// GetOrOpen returns the cached manager for resourceName, opening it first if
// needed. A non-nil d must carry resourceName; it replaces the held
// descriptor and is re-validated, and a new resource is created from it when
// nothing exists on disk yet.
func (r *Registry) GetOrOpen(ctx context.Context, resourceName string, d *storage.Descriptor) (*Manager, error) {
	if d != nil && d.ResourceName != resourceName {
		return nil, &ResourceNameMismatchError{Requested: resourceName, Descriptor: d.ResourceName}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[resourceName]; ok {
		if d != nil {
			if err := m.ReplaceDescriptor(ctx, d); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	var (
		m   *Manager
		err error
	)
	switch {
	case d != nil && !CanResourceBeTransformed(r.cfg.BackendDir, resourceName):
		m, err = CreateNew(r.cfg, d)
	default:
		m, err = Open(ctx, r.cfg, resourceName)
		if err == nil && d != nil {
			err = m.ReplaceDescriptor(ctx, d)
		}
	}
	if err != nil {
		return nil, err
	}
	r.managers[resourceName] = m
	return m, nil
}

// Forget drops the cached manager for resourceName.
func (r *Registry) Forget(resourceName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, resourceName)
}
