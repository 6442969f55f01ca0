// Package storage defines the cli-inputs descriptor of a storage resource
// and the file layout it lives in.
package storage

import (
	"slices"

	"github.com/coreweave/storage-inputs/storage/permissions"
)

const (
	ServiceS3       = "S3"
	CategoryStorage = "storage"
	SchemaName      = "S3UserInputs"

	// TriggerFunctionNone marks a resource without a primary trigger function.
	TriggerFunctionNone = "NONE"
)

// AccessType selects which audiences may reach the bucket.
type AccessType string

const (
	AccessAuthOnly     AccessType = "authOnly"
	AccessAuthAndGuest AccessType = "authAndGuest"
	AccessNone         AccessType = "none"
)

var AllAccessTypes = []AccessType{AccessAuthOnly, AccessAuthAndGuest, AccessNone}

// PrefixTransform controls how a trigger prefix is rendered at deploy time.
type PrefixTransform string

const (
	PrefixTransformNone         PrefixTransform = "NONE"
	PrefixTransformAttachRegion PrefixTransform = "ATTACH_REGION"
)

var AllPrefixTransforms = []PrefixTransform{PrefixTransformNone, PrefixTransformAttachRegion}

type TriggerPrefix struct {
	Prefix          string          `json:"prefix"`
	PrefixTransform PrefixTransform `json:"prefixTransform"`
}

// TriggerBinding attaches a function to bucket events, optionally limited to
// a set of key prefixes.
type TriggerBinding struct {
	TriggerFunction string                     `json:"triggerFunction"`
	Permissions     []permissions.Permission   `json:"permissions"`
	TriggerEvents   []permissions.TriggerEvent `json:"triggerEvents"`
	TriggerPrefix   []TriggerPrefix            `json:"triggerPrefix,omitempty"`
}

// Descriptor is the content of cli-inputs.json for one storage resource.
//
// AdminTriggerFunction is owned by the tool and only ever set through
// SetAdminTrigger; every other field is user editable.
type Descriptor struct {
	ResourceName               string                              `json:"resourceName"`
	BucketName                 string                              `json:"bucketName,omitempty"`
	PolicyUUID                 string                              `json:"policyUUID"`
	StorageAccess              AccessType                          `json:"storageAccess"`
	GuestAccess                []permissions.Permission            `json:"guestAccess"`
	AuthAccess                 []permissions.Permission            `json:"authAccess"`
	GroupAccess                map[string][]permissions.Permission `json:"groupAccess,omitempty"`
	TriggerFunction            string                              `json:"triggerFunction,omitempty"`
	AdminTriggerFunction       *TriggerBinding                     `json:"adminTriggerFunction,omitempty"`
	AdditionalTriggerFunctions []TriggerBinding                    `json:"additionalTriggerFunctions,omitempty"`
}

// Clone returns a deep copy so callers can mutate without touching held state.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	out := *d
	out.GuestAccess = slices.Clone(d.GuestAccess)
	out.AuthAccess = slices.Clone(d.AuthAccess)
	if d.GroupAccess != nil {
		out.GroupAccess = make(map[string][]permissions.Permission, len(d.GroupAccess))
		for group, perms := range d.GroupAccess {
			out.GroupAccess[group] = slices.Clone(perms)
		}
	}
	if d.AdminTriggerFunction != nil {
		admin := d.AdminTriggerFunction.clone()
		out.AdminTriggerFunction = &admin
	}
	if d.AdditionalTriggerFunctions != nil {
		out.AdditionalTriggerFunctions = make([]TriggerBinding, len(d.AdditionalTriggerFunctions))
		for i, b := range d.AdditionalTriggerFunctions {
			out.AdditionalTriggerFunctions[i] = b.clone()
		}
	}
	return &out
}

func (b TriggerBinding) clone() TriggerBinding {
	b.Permissions = slices.Clone(b.Permissions)
	b.TriggerEvents = slices.Clone(b.TriggerEvents)
	b.TriggerPrefix = slices.Clone(b.TriggerPrefix)
	return b
}
