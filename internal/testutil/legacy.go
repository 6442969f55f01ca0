package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/coreweave/storage-inputs/storage"
)

// LegacyFiles holds the content of a legacy storage bundle. A nil field is
// not written.
type LegacyFiles struct {
	Parameters    any
	Template      any
	StorageParams any
}

// DefaultTemplate is a trimmed legacy policy template with one auth policy.
func DefaultTemplate() map[string]any {
	return map[string]any{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Description":              "S3 resource stack",
		"Parameters": map[string]any{
			"bucketName": map[string]any{"Type": "String"},
		},
		"Resources": map[string]any{
			"S3AuthPublicPolicy": map[string]any{
				"Type": "AWS::IAM::Policy",
				"Properties": map[string]any{
					"PolicyDocument": map[string]any{
						"Version": "2012-10-17",
						"Statement": []any{
							map[string]any{
								"Effect": "Allow",
								"Action": map[string]any{
									"Fn::Split": []any{",", map[string]any{"Ref": "s3PermissionsAuthenticatedPublic"}},
								},
							},
						},
					},
				},
			},
		},
	}
}

// WriteLegacyBundle writes the given legacy files into the resource directory.
func WriteLegacyBundle(t testing.TB, paths storage.Paths, files LegacyFiles) {
	t.Helper()
	if files.Parameters != nil {
		WriteJSON(t, paths.LegacyParameters(), files.Parameters)
	}
	if files.Template != nil {
		WriteJSON(t, paths.LegacyTemplate(), files.Template)
	}
	if files.StorageParams != nil {
		WriteJSON(t, paths.LegacyStorageParams(), files.StorageParams)
	}
}

// WriteJSON marshals v to path, or writes it verbatim when v is a string.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()
	var data []byte
	switch raw := v.(type) {
	case string:
		data = []byte(raw)
	default:
		var err error
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			t.Fatalf("marshal %s: %v", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
