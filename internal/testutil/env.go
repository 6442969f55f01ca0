package testutil

import (
	"os"

	"github.com/coreweave/storage-inputs/internal/config"
)

// SetEnvIfUnset sets name to value unless it is already present, and reports
// whether it did.
func SetEnvIfUnset(name, value string) bool {
	if _, found := os.LookupEnv(name); found {
		return false
	}
	_ = os.Setenv(name, value)
	return true
}

// SetEnvDefaults sets default values for environment variables used in tests.
func SetEnvDefaults() {
	defaultPairs := map[string]string{
		config.LogLevelEnvVar:    "OFF",
		config.AutoApproveEnvVar: "false",
	}

	for name, value := range defaultPairs {
		SetEnvIfUnset(name, value)
	}
}
