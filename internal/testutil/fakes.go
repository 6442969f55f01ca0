package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrRejected = errors.New("rejected by test validator")

// Validator records every payload it sees and rejects those for which
// Reject returns true.
type Validator struct {
	mu       sync.Mutex
	Reject   func(payload []byte) bool
	Payloads [][]byte
}

func (v *Validator) Validate(_ context.Context, service, category, name string, payload []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Payloads = append(v.Payloads, append([]byte(nil), payload...))
	if v.Reject != nil && v.Reject(payload) {
		return fmt.Errorf("%s/%s/%s: %w", service, category, name, ErrRejected)
	}
	return nil
}

// Calls returns how many payloads were validated.
func (v *Validator) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.Payloads)
}

// Exit records exit codes instead of terminating the test binary.
type Exit struct {
	mu    sync.Mutex
	Codes []int
}

func (e *Exit) Exit(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Codes = append(e.Codes, code)
}

// Suffixes returns a generator yielding the given suffixes in order.
func Suffixes(values ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(values) {
			return "", fmt.Errorf("suffix generator exhausted after %d values", len(values))
		}
		v := values[i]
		i++
		return v, nil
	}
}
