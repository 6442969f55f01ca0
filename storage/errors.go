package storage

import (
	"errors"
	"fmt"
)

var (
	ErrDescriptorNotInitialized = errors.New("storage resource cli inputs are not initialized")
	ErrDescriptorFileMissing    = errors.New("cli-inputs.json file missing from the resource directory")
	ErrInvalidDescriptor        = errors.New("invalid cli inputs")
	ErrPrefixConflict           = errors.New("trigger prefix already claimed by another function")
)

// PrefixConflictError names the prefix and the function that already owns it.
type PrefixConflictError struct {
	Prefix         string
	OwningFunction string
}

func (e *PrefixConflictError) Error() string {
	return fmt.Sprintf("trigger %s already configured on prefix %q", e.OwningFunction, e.Prefix)
}

func (e *PrefixConflictError) Unwrap() error {
	return ErrPrefixConflict
}

// InvalidDescriptorError wraps the validator's rejection of a resource's inputs.
type InvalidDescriptorError struct {
	ResourceName string
	Err          error
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid cli inputs for storage resource %q: %v", e.ResourceName, e.Err)
}

func (e *InvalidDescriptorError) Unwrap() []error {
	return []error{ErrInvalidDescriptor, e.Err}
}
