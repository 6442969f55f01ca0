package schema

import (
	"errors"

	"github.com/coreweave/storage-inputs/storage"
	"github.com/coreweave/storage-inputs/storage/permissions"
	"github.com/zclconf/go-cty/cty"
)

const (
	S3Service          = storage.ServiceS3
	StorageCategory    = storage.CategoryStorage
	S3UserInputsSchema = storage.SchemaName
)

var (
	permissionList = cty.List(cty.String)

	triggerPrefixType = cty.Object(map[string]cty.Type{
		"prefix":          cty.String,
		"prefixTransform": cty.String,
	})

	triggerBindingType = cty.Object(map[string]cty.Type{
		"triggerFunction": cty.String,
		"permissions":     permissionList,
		"triggerEvents":   cty.List(cty.String),
		"triggerPrefix":   cty.List(triggerPrefixType),
	})

	s3UserInputsType = cty.Object(map[string]cty.Type{
		"resourceName":               cty.String,
		"bucketName":                 cty.String,
		"policyUUID":                 cty.String,
		"storageAccess":              cty.String,
		"guestAccess":                permissionList,
		"authAccess":                 permissionList,
		"groupAccess":                cty.Map(permissionList),
		"triggerFunction":            cty.String,
		"adminTriggerFunction":       triggerBindingType,
		"additionalTriggerFunctions": cty.List(triggerBindingType),
	})
)

// S3UserInputs is the schema of a storage resource's cli-inputs.json.
func S3UserInputs() Schema {
	return Schema{Type: s3UserInputsType, Check: checkS3UserInputs}
}

func checkS3UserInputs(v cty.Value) (cty.Path, error) {
	root := cty.Path{}
	if v.IsNull() {
		return root, errors.New("cli inputs must be an object")
	}
	if p, err := requireAttrs(v, root, "resourceName", "policyUUID", "storageAccess", "guestAccess", "authAccess"); err != nil {
		return p, err
	}
	if p, err := requireNonEmpty(v, root, "resourceName"); err != nil {
		return p, err
	}
	if p, err := requireNonEmpty(v, root, "policyUUID"); err != nil {
		return p, err
	}
	if p, err := oneOf(v.GetAttr("storageAccess"), root.GetAttr("storageAccess"), storage.AllAccessTypes); err != nil {
		return p, err
	}
	for _, name := range []string{"guestAccess", "authAccess"} {
		if p, err := eachOneOf(v.GetAttr(name), root.GetAttr(name), permissions.AllPermissions); err != nil {
			return p, err
		}
	}

	if groups := v.GetAttr("groupAccess"); !groups.IsNull() {
		for group, perms := range groups.AsValueMap() {
			if p, err := eachOneOf(perms, root.GetAttr("groupAccess").IndexString(group), permissions.AllPermissions); err != nil {
				return p, err
			}
		}
	}

	if admin := v.GetAttr("adminTriggerFunction"); !admin.IsNull() {
		if p, err := checkTriggerBinding(admin, root.GetAttr("adminTriggerFunction")); err != nil {
			return p, err
		}
	}

	if additional := v.GetAttr("additionalTriggerFunctions"); !additional.IsNull() {
		path := root.GetAttr("additionalTriggerFunctions")
		for i, b := range additional.AsValueSlice() {
			if p, err := checkTriggerBinding(b, path.IndexInt(i)); err != nil {
				return p, err
			}
		}
	}
	return nil, nil
}

func checkTriggerBinding(b cty.Value, path cty.Path) (cty.Path, error) {
	if b.IsNull() {
		return path, errors.New("trigger binding must be an object")
	}
	if p, err := requireAttrs(b, path, "triggerFunction", "permissions", "triggerEvents"); err != nil {
		return p, err
	}
	if p, err := requireNonEmpty(b, path, "triggerFunction"); err != nil {
		return p, err
	}
	if p, err := eachOneOf(b.GetAttr("permissions"), path.GetAttr("permissions"), permissions.AllPermissions); err != nil {
		return p, err
	}
	if p, err := eachOneOf(b.GetAttr("triggerEvents"), path.GetAttr("triggerEvents"), permissions.AllTriggerEvents); err != nil {
		return p, err
	}

	prefixes := b.GetAttr("triggerPrefix")
	if prefixes.IsNull() {
		return nil, nil
	}
	for i, prefix := range prefixes.AsValueSlice() {
		prefixPath := path.GetAttr("triggerPrefix").IndexInt(i)
		if prefix.IsNull() {
			return prefixPath, errors.New("trigger prefix must be an object")
		}
		if p, err := requireAttrs(prefix, prefixPath, "prefix", "prefixTransform"); err != nil {
			return p, err
		}
		if p, err := oneOf(prefix.GetAttr("prefixTransform"), prefixPath.GetAttr("prefixTransform"), storage.AllPrefixTransforms); err != nil {
			return p, err
		}
	}
	return nil, nil
}
