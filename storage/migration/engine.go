// Package migration rewrites a storage resource that is still described by
// the legacy parameters.json / policy template / storage-params.json files
// into a single cli-inputs.json, exactly once.
package migration

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/coreweave/storage-inputs/storage"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

var (
	ErrLegacyFileMissing = errors.New("legacy storage file missing")
	ErrMigrationDeclined = errors.New("auth dependency migration declined")
)

// State is the migration state of one resource.
type State int

const (
	NotNeeded State = iota
	NeedsMigration
)

func (s State) String() string {
	switch s {
	case NotNeeded:
		return "NotNeeded"
	case NeedsMigration:
		return "NeedsMigration"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AuthMigrator migrates the auth resource storage depends on. It returns
// false when the user declined.
type AuthMigrator interface {
	MigrateAuthDependency(ctx context.Context) (bool, error)
}

type AuthMigratorFunc func(ctx context.Context) (bool, error)

func (f AuthMigratorFunc) MigrateAuthDependency(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Exiter ends the process with the given code.
type Exiter func(code int)

// Persister writes an already validated descriptor.
type Persister func(ctx context.Context, d *storage.Descriptor) error

type Options struct {
	// AuthMigrator is consulted before any legacy file is read. Nil accepts.
	AuthMigrator AuthMigrator
	// Exit is called with 0 when the auth migration is declined. Defaults to os.Exit.
	Exit Exiter
	// NewSuffix generates the policy suffix. Defaults to storage.NewPolicySuffix.
	NewSuffix storage.SuffixGenerator
}

type Engine struct {
	paths     storage.Paths
	validator storage.Validator
	auth      AuthMigrator
	exit      Exiter
	newSuffix storage.SuffixGenerator
}

func NewEngine(paths storage.Paths, validator storage.Validator, opts Options) *Engine {
	e := &Engine{
		paths:     paths,
		validator: validator,
		auth:      opts.AuthMigrator,
		exit:      opts.Exit,
		newSuffix: opts.NewSuffix,
	}
	if e.exit == nil {
		e.exit = os.Exit
	}
	if e.newSuffix == nil {
		e.newSuffix = storage.NewPolicySuffix
	}
	return e
}

// State inspects the resource directory. Both the legacy parameters and the
// legacy policy template must be present; storage-params.json is optional.
func (e *Engine) State() State {
	if storage.FileExists(e.paths.LegacyParameters()) && storage.FileExists(e.paths.LegacyTemplate()) {
		return NeedsMigration
	}
	return NotNeeded
}

func (e *Engine) NeedsMigration() bool {
	return e.State() == NeedsMigration
}

// Migrate converts the legacy bundle and hands the result to persist. It is
// a no-op returning (nil, nil) when there is nothing to migrate. Legacy files
// are only removed after persist succeeded.
func (e *Engine) Migrate(ctx context.Context, persist Persister) (*storage.Descriptor, error) {
	ctx = tflog.SetField(ctx, "resource", e.paths.ResourceName)
	if !e.NeedsMigration() {
		tflog.Debug(ctx, "storage resource does not need migration")
		return nil, nil
	}

	if e.auth != nil {
		accepted, err := e.auth.MigrateAuthDependency(ctx)
		if err != nil {
			tflog.Error(ctx, "migration for auth resource failed", map[string]any{"error": err.Error()})
			return nil, fmt.Errorf("migrating auth dependency: %w", err)
		}
		if !accepted {
			tflog.Info(ctx, "auth dependency migration declined, exiting")
			e.exit(0)
			return nil, ErrMigrationDeclined
		}
	}

	bundle, err := ReadBundle(e.paths)
	if err != nil {
		return nil, err
	}
	tflog.Debug(ctx, "read legacy storage bundle", map[string]any{
		"template_resources": len(bundle.Template.Resources),
		"group_access":       bundle.HasGroupPermission,
	})

	d, err := InferDescriptor(e.paths.ResourceName, bundle, e.newSuffix)
	if err != nil {
		return nil, fmt.Errorf("inferring cli inputs for %q: %w", e.paths.ResourceName, err)
	}

	payload, err := storage.EncodeDescriptor(d)
	if err != nil {
		return nil, err
	}
	if err := e.validator.Validate(ctx, storage.ServiceS3, storage.CategoryStorage, storage.SchemaName, payload); err != nil {
		return nil, &storage.InvalidDescriptorError{ResourceName: e.paths.ResourceName, Err: err}
	}

	if err := persist(ctx, d); err != nil {
		return nil, err
	}

	if err := e.removeLegacyFiles(); err != nil {
		return d, err
	}
	tflog.Info(ctx, "migrated storage resource to cli-inputs.json", map[string]any{
		"storage_access": string(d.StorageAccess),
	})
	return d, nil
}

func (e *Engine) removeLegacyFiles() error {
	var errs []error
	for _, path := range []string{e.paths.LegacyTemplate(), e.paths.LegacyParameters(), e.paths.LegacyStorageParams()} {
		if err := storage.RemoveIfExists(path); err != nil {
			errs = append(errs, fmt.Errorf("removing legacy file: %w", err))
		}
	}
	return errors.Join(errs...)
}
