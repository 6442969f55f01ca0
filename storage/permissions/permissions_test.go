package permissions_test

import (
	"errors"
	"testing"

	"github.com/coreweave/storage-inputs/storage/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalCloudRoundTrip(t *testing.T) {
	t.Parallel()

	for _, p := range permissions.AllPermissions {
		p := p
		t.Run(string(p), func(t *testing.T) {
			t.Parallel()
			actions, err := permissions.CanonicalToCloudActions(p)
			require.NoError(t, err)
			require.NotEmpty(t, actions)

			for _, action := range actions {
				back, err := permissions.CloudActionToCanonical(action)
				require.NoError(t, err)
				assert.Equal(t, p, back)
			}
		})
	}
}

func TestCloudActionSetToCanonicalSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		actions []permissions.CloudAction
		want    []permissions.Permission
	}{
		{
			name:    "read collision collapses",
			actions: []permissions.CloudAction{permissions.GetObject, permissions.ListBucket},
			want:    []permissions.Permission{permissions.Read},
		},
		{
			name: "first occurrence order kept",
			actions: []permissions.CloudAction{
				permissions.DeleteObject,
				permissions.ListBucket,
				permissions.PutObject,
				permissions.GetObject,
			},
			want: []permissions.Permission{permissions.Delete, permissions.Read, permissions.CreateAndUpdate},
		},
		{
			name:    "empty",
			actions: nil,
			want:    []permissions.Permission{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := permissions.CloudActionSetToCanonicalSet(tt.actions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCloudRoundTripShrinksThenRegrows(t *testing.T) {
	t.Parallel()

	perms, err := permissions.CloudActionSetToCanonicalSet([]permissions.CloudAction{permissions.GetObject})
	require.NoError(t, err)
	actions, err := permissions.CanonicalSetToCloudActions(perms)
	require.NoError(t, err)
	assert.Equal(t, []permissions.CloudAction{permissions.GetObject, permissions.ListBucket}, actions)

	again, err := permissions.CloudActionSetToCanonicalSet(actions)
	require.NoError(t, err)
	assert.Equal(t, perms, again)
}

func TestLegacyFlagRoundTrip(t *testing.T) {
	t.Parallel()

	seen := map[permissions.Permission]bool{}
	for _, flag := range permissions.AllLegacyFlags {
		p, err := permissions.LegacyFlagToCanonical(flag)
		require.NoError(t, err)
		assert.False(t, seen[p], "two legacy flags map to %s", p)
		seen[p] = true

		back, err := permissions.CanonicalToLegacyFlag(p)
		require.NoError(t, err)
		assert.Equal(t, flag, back)
	}
}

func TestTablesAreTotal(t *testing.T) {
	t.Parallel()

	for _, action := range permissions.AllCloudActions {
		_, err := permissions.CloudActionToCanonical(action)
		assert.NoError(t, err, action)
	}
	for _, p := range permissions.AllPermissions {
		assert.True(t, p.Valid())
		_, err := permissions.CanonicalToCloudActions(p)
		assert.NoError(t, err, p)
		_, err = permissions.CanonicalToLegacyFlag(p)
		assert.NoError(t, err, p)
	}
}

func TestUnknownValues(t *testing.T) {
	t.Parallel()

	_, err := permissions.CloudActionToCanonical("s3:GetBucketAcl")
	require.ErrorIs(t, err, permissions.ErrUnknownPermissionValue)

	var unknown *permissions.UnknownValueError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "s3:GetBucketAcl", unknown.Value)

	_, err = permissions.LegacyFlagToCanonical("write")
	assert.ErrorIs(t, err, permissions.ErrUnknownPermissionValue)

	_, err = permissions.CanonicalToCloudActions("ADMIN")
	assert.ErrorIs(t, err, permissions.ErrUnknownPermissionValue)

	_, err = permissions.LegacyFlagSetToCanonicalSet([]permissions.LegacyFlag{permissions.LegacyRead, "list"})
	assert.ErrorIs(t, err, permissions.ErrUnknownPermissionValue)

	assert.False(t, permissions.Permission("ADMIN").Valid())
}

func TestSelectedPermissionsToCanonicalSet(t *testing.T) {
	t.Parallel()

	got, err := permissions.SelectedPermissionsToCanonicalSet([]string{"s3:GetObject", "read", "create/update", "s3:ListBucket"})
	require.NoError(t, err)
	assert.Equal(t, []permissions.Permission{permissions.Read, permissions.CreateAndUpdate}, got)

	_, err = permissions.SelectedPermissionsToCanonicalSet([]string{"READ"})
	assert.ErrorIs(t, err, permissions.ErrUnknownPermissionValue)
}

func TestTriggerEventForPermission(t *testing.T) {
	t.Parallel()

	event, err := permissions.TriggerEventForPermission(permissions.CreateAndUpdate)
	require.NoError(t, err)
	assert.Equal(t, permissions.ObjectPutPostCopy, event)
	assert.Equal(t, "s3:ObjectCreated:*", string(event))

	event, err = permissions.TriggerEventForPermission(permissions.Delete)
	require.NoError(t, err)
	assert.Equal(t, permissions.ObjectRemoved, event)
	assert.Equal(t, "s3:ObjectRemoved:*", string(event))

	_, err = permissions.TriggerEventForPermission(permissions.Read)
	assert.ErrorIs(t, err, permissions.ErrNoTriggerForReadPermission)

	_, err = permissions.TriggerEventForPermission("ADMIN")
	assert.ErrorIs(t, err, permissions.ErrUnknownPermissionValue)
}

func TestTranslateGroupAccess(t *testing.T) {
	t.Parallel()

	got, err := permissions.TranslateGroupAccess[permissions.LegacyFlag](nil, permissions.LegacyFlagSetToCanonicalSet)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = permissions.TranslateGroupAccess(map[string][]permissions.LegacyFlag{
		"Admins":  {permissions.LegacyCreateAndUpdate, permissions.LegacyRead, permissions.LegacyDelete},
		"Viewers": {permissions.LegacyRead},
		"Nobody":  {},
	}, permissions.LegacyFlagSetToCanonicalSet)
	require.NoError(t, err)
	assert.Equal(t, map[string][]permissions.Permission{
		"Admins":  {permissions.CreateAndUpdate, permissions.Read, permissions.Delete},
		"Viewers": {permissions.Read},
		"Nobody":  {},
	}, got)

	got, err = permissions.TranslateGroupAccess(map[string][]permissions.CloudAction{
		"Readers": {permissions.GetObject, permissions.ListBucket},
	}, permissions.CloudActionSetToCanonicalSet)
	require.NoError(t, err)
	assert.Equal(t, map[string][]permissions.Permission{"Readers": {permissions.Read}}, got)

	_, err = permissions.TranslateGroupAccess(map[string][]permissions.LegacyFlag{
		"Bad": {"write"},
	}, permissions.LegacyFlagSetToCanonicalSet)
	assert.ErrorIs(t, err, permissions.ErrUnknownPermissionValue)
}
