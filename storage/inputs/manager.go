// Package inputs owns the lifecycle of a storage resource's cli-inputs.json:
// creation, loading, validation, mutation, persistence and migration from
// the legacy file layout.
package inputs

import (
	"context"
	"fmt"

	"github.com/coreweave/storage-inputs/storage"
	"github.com/coreweave/storage-inputs/storage/migration"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Mode records which constructor produced a Manager.
type Mode int

const (
	ModeCreate Mode = iota
	ModeLoad
	ModeMigrationPending
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeLoad:
		return "load"
	case ModeMigrationPending:
		return "migration-pending"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// state is either uninitialized or ready with a descriptor.
type state interface {
	descriptor() (*storage.Descriptor, bool)
}

type uninitialized struct{}

func (uninitialized) descriptor() (*storage.Descriptor, bool) { return nil, false }

type ready struct{ d *storage.Descriptor }

func (r ready) descriptor() (*storage.Descriptor, bool) { return r.d, true }

// Config carries the collaborators a Manager needs.
type Config struct {
	BackendDir string
	Validator  storage.Validator
	Migration  migration.Options
}

// Manager holds one storage resource's descriptor. It is not safe for
// concurrent use.
type Manager struct {
	paths     storage.Paths
	validator storage.Validator
	engine    *migration.Engine
	mode      Mode
	state     state
}

func newManager(cfg Config, resourceName string, mode Mode) *Manager {
	paths := storage.NewPaths(cfg.BackendDir, resourceName)
	return &Manager{
		paths:     paths,
		validator: cfg.Validator,
		engine:    migration.NewEngine(paths, cfg.Validator, cfg.Migration),
		mode:      mode,
		state:     uninitialized{},
	}
}

// CreateNew holds a copy of d as the pending descriptor of a new resource.
// Validation happens on Save.
func CreateNew(cfg Config, d *storage.Descriptor) (*Manager, error) {
	if d == nil {
		return nil, fmt.Errorf("creating storage resource: descriptor is required")
	}
	m := newManager(cfg, d.ResourceName, ModeCreate)
	m.state = ready{d: d.Clone()}
	return m, nil
}

// LoadExisting reads and validates the resource's cli-inputs.json.
func LoadExisting(ctx context.Context, cfg Config, resourceName string) (*Manager, error) {
	m := newManager(cfg, resourceName, ModeLoad)
	d, raw, err := storage.ReadDescriptor(m.paths.CLIInputs())
	if err != nil {
		return nil, err
	}
	if err := m.validate(ctx, d, raw); err != nil {
		return nil, err
	}
	m.state = ready{d: d}
	tflog.Debug(ctx, "loaded storage cli inputs", map[string]any{"resource": resourceName})
	return m, nil
}

// OpenForMigration returns a manager without a descriptor. Accessors fail
// with storage.ErrDescriptorNotInitialized until Migrate succeeds.
func OpenForMigration(cfg Config, resourceName string) *Manager {
	return newManager(cfg, resourceName, ModeMigrationPending)
}

// Open loads the resource when cli-inputs.json exists and otherwise opens
// it for migration.
func Open(ctx context.Context, cfg Config, resourceName string) (*Manager, error) {
	if CanResourceBeTransformed(cfg.BackendDir, resourceName) {
		return LoadExisting(ctx, cfg, resourceName)
	}
	return OpenForMigration(cfg, resourceName), nil
}

// CanResourceBeTransformed reports whether the resource already has a
// cli-inputs.json.
func CanResourceBeTransformed(backendDir, resourceName string) bool {
	return storage.FileExists(storage.NewPaths(backendDir, resourceName).CLIInputs())
}

func (m *Manager) Mode() Mode {
	return m.mode
}

func (m *Manager) ResourceName() string {
	return m.paths.ResourceName
}

func (m *Manager) Paths() storage.Paths {
	return m.paths
}

func (m *Manager) CLIInputFileExists() bool {
	return storage.FileExists(m.paths.CLIInputs())
}

// Descriptor returns a copy of the held descriptor, loading it from disk
// when nothing is held yet.
func (m *Manager) Descriptor() (*storage.Descriptor, error) {
	if d, ok := m.state.descriptor(); ok {
		return d.Clone(), nil
	}
	d, _, err := storage.ReadDescriptor(m.paths.CLIInputs())
	if err != nil {
		return nil, err
	}
	m.state = ready{d: d}
	return d.Clone(), nil
}

// Save validates d and atomically writes it to cli-inputs.json, then holds a
// copy of it. A nil d saves the held descriptor. An invalid descriptor
// leaves the file on disk untouched.
func (m *Manager) Save(ctx context.Context, d *storage.Descriptor) error {
	if d == nil {
		held, ok := m.state.descriptor()
		if !ok {
			return fmt.Errorf("saving cli inputs for %q: %w", m.paths.ResourceName, storage.ErrDescriptorNotInitialized)
		}
		d = held
	}
	payload, err := storage.EncodeDescriptor(d)
	if err != nil {
		return err
	}
	if err := m.validate(ctx, d, payload); err != nil {
		return err
	}
	if err := m.write(ctx, payload); err != nil {
		return err
	}
	m.state = ready{d: d.Clone()}
	return nil
}

// ReplaceDescriptor holds a copy of d and re-validates it without
// persisting. Call Save to write it.
func (m *Manager) ReplaceDescriptor(ctx context.Context, d *storage.Descriptor) error {
	if d == nil {
		return fmt.Errorf("replacing cli inputs for %q: descriptor is required", m.paths.ResourceName)
	}
	m.state = ready{d: d.Clone()}
	payload, err := storage.EncodeDescriptor(d)
	if err != nil {
		return err
	}
	return m.validate(ctx, d, payload)
}

func (m *Manager) NeedsMigration() bool {
	return m.engine.NeedsMigration()
}

// Migrate rewrites a legacy resource into cli-inputs.json and holds the
// result. It does nothing when the resource has no legacy files. The written
// descriptor is held even when removing the legacy files fails.
func (m *Manager) Migrate(ctx context.Context) error {
	d, err := m.engine.Migrate(ctx, m.persistValidated)
	if d != nil {
		m.state = ready{d: d}
	}
	return err
}

// SetAdminTrigger installs the tool-owned admin trigger binding.
func (m *Manager) SetAdminTrigger(b storage.TriggerBinding) error {
	d, ok := m.state.descriptor()
	if !ok {
		return fmt.Errorf("installing admin trigger on %q: %w", m.paths.ResourceName, storage.ErrDescriptorNotInitialized)
	}
	d.AdminTriggerFunction = &b
	return nil
}

func (m *Manager) ClearAdminTrigger() error {
	d, ok := m.state.descriptor()
	if !ok {
		return fmt.Errorf("removing admin trigger from %q: %w", m.paths.ResourceName, storage.ErrDescriptorNotInitialized)
	}
	d.AdminTriggerFunction = nil
	return nil
}

// AddAdditionalTrigger binds b after checking that none of its prefixes
// belong to another function. The change is held in memory until Save.
func (m *Manager) AddAdditionalTrigger(b storage.TriggerBinding) error {
	d, ok := m.state.descriptor()
	if !ok {
		return fmt.Errorf("installing additional trigger on %q: %w", m.paths.ResourceName, storage.ErrDescriptorNotInitialized)
	}
	if err := storage.AssertPrefixAvailable(b.TriggerFunction, b.TriggerPrefix, d.AdditionalTriggerFunctions); err != nil {
		return fmt.Errorf("installing additional trigger on %q: %w", m.paths.ResourceName, err)
	}
	d.AdditionalTriggerFunctions = storage.UpsertBinding(d.AdditionalTriggerFunctions, b)
	return nil
}

// validate checks payload, the encoding of d, against the schema and d's
// additional triggers for prefixes claimed by more than one function.
func (m *Manager) validate(ctx context.Context, d *storage.Descriptor, payload []byte) error {
	if err := m.validator.Validate(ctx, storage.ServiceS3, storage.CategoryStorage, storage.SchemaName, payload); err != nil {
		return &storage.InvalidDescriptorError{ResourceName: m.paths.ResourceName, Err: err}
	}
	if err := storage.ValidateBindings(d.AdditionalTriggerFunctions); err != nil {
		return &storage.InvalidDescriptorError{ResourceName: m.paths.ResourceName, Err: err}
	}
	return nil
}

// persistValidated writes a descriptor the migration engine already validated.
func (m *Manager) persistValidated(ctx context.Context, d *storage.Descriptor) error {
	payload, err := storage.EncodeDescriptor(d)
	if err != nil {
		return err
	}
	return m.write(ctx, payload)
}

func (m *Manager) write(ctx context.Context, payload []byte) error {
	if err := storage.WriteFileAtomic(m.paths.CLIInputs(), payload); err != nil {
		return fmt.Errorf("saving cli inputs for %q: %w", m.paths.ResourceName, err)
	}
	tflog.Debug(ctx, "saved storage cli inputs", map[string]any{
		"resource": m.paths.ResourceName,
		"path":     m.paths.CLIInputs(),
	})
	return nil
}
