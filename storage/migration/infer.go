package migration

import (
	"fmt"

	"github.com/coreweave/storage-inputs/storage"
	"github.com/coreweave/storage-inputs/storage/permissions"
)

// InferDescriptor builds the cli-inputs descriptor equivalent to a legacy
// bundle. The policy suffix is always freshly generated, never copied.
func InferDescriptor(resourceName string, b *Bundle, newSuffix storage.SuffixGenerator) (*storage.Descriptor, error) {
	suffix, err := newSuffix()
	if err != nil {
		return nil, err
	}

	d := &storage.Descriptor{
		ResourceName:    resourceName,
		BucketName:      b.Parameters.BucketName,
		PolicyUUID:      suffix,
		StorageAccess:   storage.AccessAuthOnly,
		GuestAccess:     []permissions.Permission{},
		AuthAccess:      []permissions.Permission{},
		TriggerFunction: storage.TriggerFunctionNone,
	}
	if b.Parameters.TriggerFunction != "" {
		d.TriggerFunction = b.Parameters.TriggerFunction
	}

	if selected := enabledPermissions(b.Parameters.SelectedAuthenticatedPermissions, b.Parameters.AuthenticatedFlags()); len(selected) > 0 {
		if d.AuthAccess, err = permissions.SelectedPermissionsToCanonicalSet(selected); err != nil {
			return nil, fmt.Errorf("authenticated permissions: %w", err)
		}
	}
	if selected := enabledPermissions(b.Parameters.SelectedGuestPermissions, b.Parameters.GuestFlags()); len(selected) > 0 {
		if d.GuestAccess, err = permissions.SelectedPermissionsToCanonicalSet(selected); err != nil {
			return nil, fmt.Errorf("guest permissions: %w", err)
		}
	}

	// authOnly stays the default even when both lists end up empty.
	if len(d.GuestAccess) > 0 {
		d.StorageAccess = storage.AccessAuthAndGuest
	} else if len(d.AuthAccess) > 0 {
		d.StorageAccess = storage.AccessAuthOnly
	}

	if b.HasGroupPermission {
		d.GroupAccess, err = permissions.TranslateGroupAccess(b.GroupPermissionMap, permissions.LegacyFlagSetToCanonicalSet)
		if err != nil {
			return nil, fmt.Errorf("group permissions: %w", err)
		}
	}
	return d, nil
}

// enabledPermissions returns selected only when at least one of the
// audience's flags is set to something other than DISALLOW.
func enabledPermissions(selected StringList, flags []string) []string {
	if len(selected) == 0 {
		return nil
	}
	for _, flag := range flags {
		if flag != "" && flag != Disallow {
			return selected
		}
	}
	return nil
}
