package storage_test

import (
	"errors"
	"testing"

	"github.com/coreweave/storage-inputs/storage"
	"github.com/coreweave/storage-inputs/storage/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prefixes(values ...string) []storage.TriggerPrefix {
	out := make([]storage.TriggerPrefix, 0, len(values))
	for _, v := range values {
		out = append(out, storage.TriggerPrefix{Prefix: v, PrefixTransform: storage.PrefixTransformNone})
	}
	return out
}

func binding(function string, prefixValues ...string) storage.TriggerBinding {
	b := storage.TriggerBinding{
		TriggerFunction: function,
		Permissions:     []permissions.Permission{permissions.CreateAndUpdate},
		TriggerEvents:   []permissions.TriggerEvent{permissions.ObjectPutPostCopy},
	}
	if len(prefixValues) > 0 {
		b.TriggerPrefix = prefixes(prefixValues...)
	}
	return b
}

func TestAssertPrefixAvailable(t *testing.T) {
	t.Parallel()

	existing := []storage.TriggerBinding{binding("A", "images/")}

	tests := []struct {
		name      string
		function  string
		prefixes  []storage.TriggerPrefix
		wantOwner string
	}{
		{name: "other function conflicts", function: "B", prefixes: prefixes("images/"), wantOwner: "A"},
		{name: "overlap on one of many", function: "B", prefixes: prefixes("docs/", "images/"), wantOwner: "A"},
		{name: "same function re-registers", function: "A", prefixes: prefixes("images/")},
		{name: "disjoint prefix", function: "B", prefixes: prefixes("videos/")},
		{name: "no prefixes", function: "B"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := storage.AssertPrefixAvailable(tt.function, tt.prefixes, existing)
			if tt.wantOwner == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, storage.ErrPrefixConflict)
			var conflict *storage.PrefixConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, tt.wantOwner, conflict.OwningFunction)
			assert.Equal(t, "images/", conflict.Prefix)
		})
	}
}

func TestValidateBindings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		bindings  []storage.TriggerBinding
		wantOwner string
	}{
		{name: "empty"},
		{name: "disjoint", bindings: []storage.TriggerBinding{binding("A", "images/"), binding("B", "docs/")}},
		{name: "same function twice", bindings: []storage.TriggerBinding{binding("A", "images/"), binding("A", "images/", "docs/")}},
		{name: "unprefixed bindings", bindings: []storage.TriggerBinding{binding("A"), binding("B")}},
		{name: "shared prefix", bindings: []storage.TriggerBinding{binding("A", "images/"), binding("B", "docs/", "images/")}, wantOwner: "A"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := storage.ValidateBindings(tt.bindings)
			if tt.wantOwner == "" {
				assert.NoError(t, err)
				return
			}
			var conflict *storage.PrefixConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.wantOwner, conflict.OwningFunction)
			assert.Equal(t, "images/", conflict.Prefix)
		})
	}
}

func TestUpsertBinding(t *testing.T) {
	t.Parallel()

	t.Run("append to empty", func(t *testing.T) {
		t.Parallel()
		got := storage.UpsertBinding(nil, binding("A", "images/"))
		assert.Equal(t, []storage.TriggerBinding{binding("A", "images/")}, got)
	})

	t.Run("replace keeps position", func(t *testing.T) {
		t.Parallel()
		existing := []storage.TriggerBinding{binding("A", "images/", "thumbs/"), binding("B", "docs/")}
		replacement := binding("A", "thumbs/", "images/")
		replacement.Permissions = []permissions.Permission{permissions.Delete}

		got := storage.UpsertBinding(existing, replacement)
		require.Len(t, got, 2)
		assert.Equal(t, replacement, got[0])
		assert.Equal(t, "B", got[1].TriggerFunction)
		// input slice is untouched
		assert.Equal(t, []permissions.Permission{permissions.CreateAndUpdate}, existing[0].Permissions)
	})

	t.Run("different prefix set appends", func(t *testing.T) {
		t.Parallel()
		existing := []storage.TriggerBinding{binding("A", "images/")}
		got := storage.UpsertBinding(existing, binding("A", "images/", "thumbs/"))
		assert.Len(t, got, 2)
	})

	t.Run("different function appends", func(t *testing.T) {
		t.Parallel()
		existing := []storage.TriggerBinding{binding("A")}
		got := storage.UpsertBinding(existing, binding("B"))
		assert.Len(t, got, 2)
	})
}

func TestDescriptorClone(t *testing.T) {
	t.Parallel()

	admin := binding("admin")
	d := &storage.Descriptor{
		ResourceName:               "photos",
		AuthAccess:                 []permissions.Permission{permissions.Read},
		GroupAccess:                map[string][]permissions.Permission{"Admins": {permissions.Delete}},
		AdminTriggerFunction:       &admin,
		AdditionalTriggerFunctions: []storage.TriggerBinding{binding("A", "images/")},
	}

	c := d.Clone()
	assert.Equal(t, d, c)

	c.AuthAccess[0] = permissions.Delete
	c.GroupAccess["Admins"][0] = permissions.Read
	c.AdminTriggerFunction.TriggerFunction = "other"
	c.AdditionalTriggerFunctions[0].TriggerPrefix[0].Prefix = "other/"

	assert.Equal(t, permissions.Read, d.AuthAccess[0])
	assert.Equal(t, permissions.Delete, d.GroupAccess["Admins"][0])
	assert.Equal(t, "admin", d.AdminTriggerFunction.TriggerFunction)
	assert.Equal(t, "images/", d.AdditionalTriggerFunctions[0].TriggerPrefix[0].Prefix)

	var nilDescriptor *storage.Descriptor
	assert.Nil(t, nilDescriptor.Clone())
}
