package migration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/coreweave/storage-inputs/storage"
	"github.com/coreweave/storage-inputs/storage/permissions"
	"github.com/tidwall/jsonc"
)

// Disallow is the legacy flag value that turns an audience/action pair off.
const Disallow = "DISALLOW"

const groupPermissionMapKey = "groupPermissionMap"

// StringList handles either a single string or a []string.
type StringList []string

func (sl *StringList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*sl = []string{s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(b, &ss); err != nil {
		return fmt.Errorf("StringList: expected string or []string, got %s: %w", string(b), err)
	}
	*sl = ss
	return nil
}

// Parameters is the part of a legacy parameters.json that migration reads.
type Parameters struct {
	BucketName      string `json:"bucketName"`
	TriggerFunction string `json:"triggerFunction"`

	SelectedAuthenticatedPermissions StringList `json:"selectedAuthenticatedPermissions"`
	SelectedGuestPermissions         StringList `json:"selectedGuestPermissions"`

	S3PermissionsAuthenticatedPublic    string `json:"s3PermissionsAuthenticatedPublic"`
	S3PermissionsAuthenticatedPrivate   string `json:"s3PermissionsAuthenticatedPrivate"`
	S3PermissionsAuthenticatedProtected string `json:"s3PermissionsAuthenticatedProtected"`
	S3PermissionsAuthenticatedUploads   string `json:"s3PermissionsAuthenticatedUploads"`

	S3PermissionsGuestPublic    string `json:"s3PermissionsGuestPublic"`
	S3PermissionsGuestPrivate   string `json:"s3PermissionsGuestPrivate"`
	S3PermissionsGuestProtected string `json:"s3PermissionsGuestProtected"`
	S3PermissionsGuestUploads   string `json:"s3PermissionsGuestUploads"`
}

// AuthenticatedFlags returns the four authenticated audience flags.
func (p Parameters) AuthenticatedFlags() []string {
	return []string{
		p.S3PermissionsAuthenticatedPublic,
		p.S3PermissionsAuthenticatedPrivate,
		p.S3PermissionsAuthenticatedProtected,
		p.S3PermissionsAuthenticatedUploads,
	}
}

// GuestFlags returns the four guest audience flags.
func (p Parameters) GuestFlags() []string {
	return []string{
		p.S3PermissionsGuestPublic,
		p.S3PermissionsGuestPrivate,
		p.S3PermissionsGuestProtected,
		p.S3PermissionsGuestUploads,
	}
}

// Template is the legacy CloudFormation policy template. Only its outline is
// decoded; the policies themselves are regenerated from cli-inputs.json.
type Template struct {
	Description string                      `json:"Description"`
	Parameters  map[string]json.RawMessage  `json:"Parameters"`
	Resources   map[string]TemplateResource `json:"Resources"`
}

type TemplateResource struct {
	Type       string          `json:"Type"`
	Properties json.RawMessage `json:"Properties"`
}

// Bundle is the legacy three-file representation of a storage resource.
type Bundle struct {
	Parameters Parameters
	Template   Template

	// GroupPermissionMap is nil unless storage-params.json carries the key.
	GroupPermissionMap map[string][]permissions.LegacyFlag
	HasGroupPermission bool
}

// ReadBundle loads the legacy files of a resource. parameters.json and the
// policy template are required; storage-params.json is optional.
func ReadBundle(paths storage.Paths) (*Bundle, error) {
	var b Bundle
	if _, err := readLegacyJSON(paths.LegacyParameters(), true, &b.Parameters); err != nil {
		return nil, err
	}
	if _, err := readLegacyJSON(paths.LegacyTemplate(), true, &b.Template); err != nil {
		return nil, err
	}

	var storageParams map[string]json.RawMessage
	found, err := readLegacyJSON(paths.LegacyStorageParams(), false, &storageParams)
	if err != nil {
		return nil, err
	}
	if !found {
		return &b, nil
	}
	raw, ok := storageParams[groupPermissionMapKey]
	if !ok {
		return &b, nil
	}
	b.HasGroupPermission = true
	if err := json.Unmarshal(raw, &b.GroupPermissionMap); err != nil {
		return nil, fmt.Errorf("parsing %s in %s: %w", groupPermissionMapKey, paths.LegacyStorageParams(), err)
	}
	return &b, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readLegacyJSON decodes a hand-editable legacy file into v. Comments,
// trailing commas and a leading byte order mark are tolerated. A missing
// optional file reports found == false without an error.
func readLegacyJSON(path string, required bool, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if required {
				return false, fmt.Errorf("%w: %s", ErrLegacyFileMissing, path)
			}
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	data = jsonc.ToJSON(bytes.TrimPrefix(data, utf8BOM))
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}
