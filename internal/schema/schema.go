// Package schema validates cli-inputs payloads against typed object schemas.
//
// Each schema is a cty object type. A payload is first decoded with
// cty/json, which rejects unknown attributes and mistyped values, and then
// walked for required attributes and enumerated string values.
package schema

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var ErrSchemaViolation = errors.New("schema violation")

// ViolationError describes the first place a payload departs from its schema.
type ViolationError struct {
	Schema string
	Path   string
	Detail string
}

func (e *ViolationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Schema, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Schema, e.Path, e.Detail)
}

func (e *ViolationError) Unwrap() error {
	return ErrSchemaViolation
}

// Schema is one named input shape.
type Schema struct {
	Type cty.Type
	// Check runs after decoding succeeded and reports the first violation.
	Check func(v cty.Value) (cty.Path, error)
}

// Validator holds schemas keyed by service, category and schema name.
type Validator struct {
	schemas map[string]Schema
}

func NewValidator() *Validator {
	return &Validator{schemas: map[string]Schema{}}
}

// NewDefault returns a validator with every schema this module ships.
func NewDefault() *Validator {
	v := NewValidator()
	v.Register(S3Service, StorageCategory, S3UserInputsSchema, S3UserInputs())
	return v
}

func (v *Validator) Register(service, category, name string, s Schema) {
	v.schemas[schemaKey(service, category, name)] = s
}

func (v *Validator) Validate(ctx context.Context, service, category, name string, payload []byte) error {
	s, ok := v.schemas[schemaKey(service, category, name)]
	if !ok {
		return fmt.Errorf("no schema %q registered for %s/%s", name, category, service)
	}

	val, err := ctyjson.Unmarshal(payload, s.Type)
	if err != nil {
		var pathErr cty.PathError
		if errors.As(err, &pathErr) {
			return violation(ctx, name, pathErr.Path, pathErr.Error())
		}
		return violation(ctx, name, nil, err.Error())
	}

	if s.Check != nil {
		if path, err := s.Check(val); err != nil {
			return violation(ctx, name, path, err.Error())
		}
	}

	tflog.Trace(ctx, "cli inputs passed schema validation", map[string]any{"schema": name})
	return nil
}

func violation(ctx context.Context, name string, path cty.Path, detail string) error {
	err := &ViolationError{Schema: name, Path: FormatPath(path), Detail: detail}
	tflog.Debug(ctx, "cli inputs failed schema validation", map[string]any{
		"schema": name,
		"path":   err.Path,
		"detail": detail,
	})
	return err
}

func schemaKey(service, category, name string) string {
	return service + "/" + category + "/" + name
}

// FormatPath renders a cty path as "a.b[0].c".
func FormatPath(path cty.Path) string {
	var b strings.Builder
	for _, step := range path {
		switch s := step.(type) {
		case cty.GetAttrStep:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Name)
		case cty.IndexStep:
			switch s.Key.Type() {
			case cty.Number:
				bf := s.Key.AsBigFloat()
				i, _ := bf.Int64()
				fmt.Fprintf(&b, "[%d]", i)
			case cty.String:
				fmt.Fprintf(&b, "[%q]", s.Key.AsString())
			default:
				b.WriteString("[?]")
			}
		}
	}
	return b.String()
}

// requireAttrs reports the first attribute of obj that is null.
func requireAttrs(obj cty.Value, path cty.Path, names ...string) (cty.Path, error) {
	for _, name := range names {
		if obj.GetAttr(name).IsNull() {
			return path.GetAttr(name), fmt.Errorf("missing required attribute %q", name)
		}
	}
	return nil, nil
}

// requireNonEmpty reports a string attribute that is present but blank.
func requireNonEmpty(obj cty.Value, path cty.Path, name string) (cty.Path, error) {
	v := obj.GetAttr(name)
	if !v.IsNull() && strings.TrimSpace(v.AsString()) == "" {
		return path.GetAttr(name), fmt.Errorf("attribute %q must not be empty", name)
	}
	return nil, nil
}

// oneOf checks a string value against the allowed set.
func oneOf[T ~string](v cty.Value, path cty.Path, allowed []T) (cty.Path, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !slices.Contains(allowed, T(v.AsString())) {
		return path, fmt.Errorf("value %q is not one of %v", v.AsString(), allowed)
	}
	return nil, nil
}

// eachOneOf checks every element of a list of strings.
func eachOneOf[T ~string](list cty.Value, path cty.Path, allowed []T) (cty.Path, error) {
	if list.IsNull() {
		return nil, nil
	}
	for i, elem := range list.AsValueSlice() {
		if p, err := oneOf(elem, path.IndexInt(i), allowed); err != nil {
			return p, err
		}
	}
	return nil, nil
}
