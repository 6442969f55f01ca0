package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	CLIInputsFileName      = "cli-inputs.json"
	LegacyParametersFile   = "parameters.json"
	LegacyTemplateFile     = "s3-cloudformation-template.json"
	LegacyStorageParamFile = "storage-params.json"
	BuildDirName           = "build"
)

// Paths resolves the files of one storage resource under a project backend
// directory: <backend>/storage/<resource>/.
type Paths struct {
	BackendDir   string
	ResourceName string
}

func NewPaths(backendDir, resourceName string) Paths {
	return Paths{BackendDir: backendDir, ResourceName: resourceName}
}

func (p Paths) ResourceDir() string {
	return filepath.Join(p.BackendDir, CategoryStorage, p.ResourceName)
}

func (p Paths) CLIInputs() string {
	return filepath.Join(p.ResourceDir(), CLIInputsFileName)
}

func (p Paths) LegacyParameters() string {
	return filepath.Join(p.ResourceDir(), LegacyParametersFile)
}

func (p Paths) LegacyTemplate() string {
	return filepath.Join(p.ResourceDir(), LegacyTemplateFile)
}

func (p Paths) LegacyStorageParams() string {
	return filepath.Join(p.ResourceDir(), LegacyStorageParamFile)
}

func (p Paths) BuildDir() string {
	return filepath.Join(p.ResourceDir(), BuildDirName)
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ReadDescriptor decodes cli-inputs.json. A missing file yields
// ErrDescriptorFileMissing.
func ReadDescriptor(path string) (*Descriptor, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDescriptorFileMissing, path)
		}
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &d, data, nil
}

// EncodeDescriptor renders d the way it is stored on disk.
func EncodeDescriptor(d *Descriptor) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling cli inputs: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFileAtomic writes data to a temporary sibling of path and renames it
// into place, creating the parent directory when needed. A failure never
// leaves a partially written path behind.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming temporary file into place: %w", err)
	}
	return nil
}

// RemoveIfExists deletes path, treating an already missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
