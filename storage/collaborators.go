package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-uuid"
)

// Validator checks a JSON payload against a named input schema.
type Validator interface {
	Validate(ctx context.Context, service, category, schemaName string, payload []byte) error
}

// SuffixGenerator produces the policy suffix stored in policyUUID.
type SuffixGenerator func() (string, error)

// NewPolicySuffix returns the first group of a random UUID, e.g. "1a2b3c4d".
func NewPolicySuffix() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("generating policy suffix: %w", err)
	}
	short, _, _ := strings.Cut(id, "-")
	return short, nil
}
