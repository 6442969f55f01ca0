package testutil_test

import (
	"os"
	"testing"

	"github.com/coreweave/storage-inputs/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEnvIfUnset(t *testing.T) {
	t.Parallel()

	t.Run("When not set, sets variable", func(t *testing.T) {
		name, value := "STORAGE_INPUTS_SET_ENV_IF_UNSET_1", "test_value"

		_, found := os.LookupEnv(name)
		require.False(t, found, "environment variable %s is already set", name)
		defer os.Unsetenv(name)

		assert.True(t, testutil.SetEnvIfUnset(name, value))
		assert.Equal(t, value, os.Getenv(name))
	})

	t.Run("When set, does not set variable", func(t *testing.T) {
		name, expectedValue := "STORAGE_INPUTS_SET_ENV_IF_UNSET_2", "actual_value"

		_, found := os.LookupEnv(name)
		require.False(t, found, "environment variable %s is already set", name)
		require.NoError(t, os.Setenv(name, expectedValue))
		defer os.Unsetenv(name)

		assert.False(t, testutil.SetEnvIfUnset(name, "ignored_value"))
		assert.Equal(t, expectedValue, os.Getenv(name))
	})
}
