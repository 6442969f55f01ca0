// Package permissions translates between the three vocabularies a storage
// resource's access rules are written in: the canonical permission set used
// by cli-inputs.json, the S3 policy actions used by generated policies, and
// the flag literals used by the legacy storage-params.json format.
package permissions

import (
	"errors"
	"fmt"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	ErrUnknownPermissionValue     = errors.New("unknown permission value")
	ErrNoTriggerForReadPermission = errors.New("no trigger event exists for read permission")
)

// Permission is the canonical permission kind stored in cli-inputs.json.
type Permission string

const (
	CreateAndUpdate Permission = "CREATE_AND_UPDATE"
	Read            Permission = "READ"
	Delete          Permission = "DELETE"
)

// CloudAction is an action string used in generated S3 access policies.
type CloudAction string

const (
	PutObject    CloudAction = "s3:PutObject"
	GetObject    CloudAction = "s3:GetObject"
	DeleteObject CloudAction = "s3:DeleteObject"
	ListBucket   CloudAction = "s3:ListBucket"
)

// LegacyFlag is the permission literal used by storage-params.json.
type LegacyFlag string

const (
	LegacyCreateAndUpdate LegacyFlag = "create/update"
	LegacyRead            LegacyFlag = "read"
	LegacyDelete          LegacyFlag = "delete"
)

// TriggerEvent is the S3 notification event a trigger function subscribes to.
// Values are S3 bucket notification event names ("s3:ObjectCreated:*",
// "s3:ObjectRemoved:*"), written verbatim into triggerEvents.
type TriggerEvent = s3types.Event

const (
	ObjectPutPostCopy TriggerEvent = s3types.EventS3ObjectCreated
	ObjectRemoved     TriggerEvent = s3types.EventS3ObjectRemoved
)

// Every value of each vocabulary, in declaration order.
var (
	AllPermissions   = []Permission{CreateAndUpdate, Read, Delete}
	AllCloudActions  = []CloudAction{PutObject, GetObject, DeleteObject, ListBucket}
	AllLegacyFlags   = []LegacyFlag{LegacyCreateAndUpdate, LegacyRead, LegacyDelete}
	AllTriggerEvents = []TriggerEvent{ObjectPutPostCopy, ObjectRemoved}
)

var (
	cloudToCanonical = map[CloudAction]Permission{
		PutObject:    CreateAndUpdate,
		GetObject:    Read,
		ListBucket:   Read,
		DeleteObject: Delete,
	}

	canonicalToCloud = map[Permission][]CloudAction{
		CreateAndUpdate: {PutObject},
		Read:            {GetObject, ListBucket},
		Delete:          {DeleteObject},
	}

	legacyToCanonical = map[LegacyFlag]Permission{
		LegacyCreateAndUpdate: CreateAndUpdate,
		LegacyRead:            Read,
		LegacyDelete:          Delete,
	}

	canonicalToLegacy = map[Permission]LegacyFlag{
		CreateAndUpdate: LegacyCreateAndUpdate,
		Read:            LegacyRead,
		Delete:          LegacyDelete,
	}

	// Read has no entry: reads never fire notifications.
	canonicalToTrigger = map[Permission]TriggerEvent{
		CreateAndUpdate: ObjectPutPostCopy,
		Delete:          ObjectRemoved,
	}
)

// UnknownValueError reports a literal that is not part of the named vocabulary.
type UnknownValueError struct {
	Vocabulary string
	Value      string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("unknown %s value %q", e.Vocabulary, e.Value)
}

func (e *UnknownValueError) Unwrap() error {
	return ErrUnknownPermissionValue
}

// Valid reports whether p is one of the canonical permissions.
func (p Permission) Valid() bool {
	_, ok := canonicalToCloud[p]
	return ok
}

func CloudActionToCanonical(action CloudAction) (Permission, error) {
	p, ok := cloudToCanonical[action]
	if !ok {
		return "", &UnknownValueError{Vocabulary: "cloud action", Value: string(action)}
	}
	return p, nil
}

// CanonicalToCloudActions expands a permission into the policy actions that
// grant it. Read expands to both GetObject and ListBucket.
func CanonicalToCloudActions(p Permission) ([]CloudAction, error) {
	actions, ok := canonicalToCloud[p]
	if !ok {
		return nil, &UnknownValueError{Vocabulary: "permission", Value: string(p)}
	}
	return append([]CloudAction(nil), actions...), nil
}

func LegacyFlagToCanonical(flag LegacyFlag) (Permission, error) {
	p, ok := legacyToCanonical[flag]
	if !ok {
		return "", &UnknownValueError{Vocabulary: "legacy flag", Value: string(flag)}
	}
	return p, nil
}

func CanonicalToLegacyFlag(p Permission) (LegacyFlag, error) {
	flag, ok := canonicalToLegacy[p]
	if !ok {
		return "", &UnknownValueError{Vocabulary: "permission", Value: string(p)}
	}
	return flag, nil
}

// CloudActionSetToCanonicalSet maps each action and removes duplicates,
// keeping the order of first occurrence. [GetObject, ListBucket] yields [Read].
func CloudActionSetToCanonicalSet(actions []CloudAction) ([]Permission, error) {
	out := make([]Permission, 0, len(actions))
	for _, action := range actions {
		p, err := CloudActionToCanonical(action)
		if err != nil {
			return nil, err
		}
		out = appendUnique(out, p)
	}
	return out, nil
}

func LegacyFlagSetToCanonicalSet(flags []LegacyFlag) ([]Permission, error) {
	out := make([]Permission, 0, len(flags))
	for _, flag := range flags {
		p, err := LegacyFlagToCanonical(flag)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CanonicalSetToCloudActions concatenates the expansion of every permission.
func CanonicalSetToCloudActions(perms []Permission) ([]CloudAction, error) {
	out := make([]CloudAction, 0, len(perms)*2)
	for _, p := range perms {
		actions, err := CanonicalToCloudActions(p)
		if err != nil {
			return nil, err
		}
		out = append(out, actions...)
	}
	return out, nil
}

// SelectedPermissionsToCanonicalSet translates the selected*Permissions
// arrays of a legacy parameters.json. Older tool versions wrote these as
// policy actions and newer ones as legacy flags, so each entry is tried
// against both vocabularies.
func SelectedPermissionsToCanonicalSet(values []string) ([]Permission, error) {
	out := make([]Permission, 0, len(values))
	for _, v := range values {
		if p, ok := cloudToCanonical[CloudAction(v)]; ok {
			out = appendUnique(out, p)
			continue
		}
		if p, ok := legacyToCanonical[LegacyFlag(v)]; ok {
			out = appendUnique(out, p)
			continue
		}
		return nil, &UnknownValueError{Vocabulary: "selected permission", Value: v}
	}
	return out, nil
}

func TriggerEventForPermission(p Permission) (TriggerEvent, error) {
	if p == Read {
		return "", ErrNoTriggerForReadPermission
	}
	event, ok := canonicalToTrigger[p]
	if !ok {
		return "", &UnknownValueError{Vocabulary: "permission", Value: string(p)}
	}
	return event, nil
}

// TranslateGroupAccess applies translate to every group's permission list.
// A nil map stays nil so that "no group access configured" survives.
func TranslateGroupAccess[T any](groups map[string][]T, translate func([]T) ([]Permission, error)) (map[string][]Permission, error) {
	if groups == nil {
		return nil, nil
	}
	out := make(map[string][]Permission, len(groups))
	for group, values := range groups {
		perms, err := translate(values)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", group, err)
		}
		out[group] = perms
	}
	return out, nil
}

func appendUnique(perms []Permission, p Permission) []Permission {
	for _, existing := range perms {
		if existing == p {
			return perms
		}
	}
	return append(perms, p)
}
