package storage

// AssertPrefixAvailable fails with a *PrefixConflictError when any of
// prefixes is already claimed by a binding for a different function.
// Re-registering a function's own prefixes is allowed.
func AssertPrefixAvailable(function string, prefixes []TriggerPrefix, existing []TriggerBinding) error {
	if len(prefixes) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		wanted[p.Prefix] = struct{}{}
	}

	for _, binding := range existing {
		if binding.TriggerFunction == function {
			continue
		}
		for _, configured := range binding.TriggerPrefix {
			if _, ok := wanted[configured.Prefix]; ok {
				return &PrefixConflictError{Prefix: configured.Prefix, OwningFunction: binding.TriggerFunction}
			}
		}
	}
	return nil
}

// ValidateBindings fails with a *PrefixConflictError when two bindings for
// different functions claim the same prefix.
func ValidateBindings(bindings []TriggerBinding) error {
	for i, b := range bindings {
		if err := AssertPrefixAvailable(b.TriggerFunction, b.TriggerPrefix, bindings[:i]); err != nil {
			return err
		}
	}
	return nil
}

// UpsertBinding replaces the binding with the same function and exactly the
// same prefix set, keeping its position, or appends b when there is none.
func UpsertBinding(bindings []TriggerBinding, b TriggerBinding) []TriggerBinding {
	out := make([]TriggerBinding, len(bindings), len(bindings)+1)
	copy(out, bindings)
	for i, existing := range out {
		if existing.TriggerFunction == b.TriggerFunction && samePrefixSet(existing.TriggerPrefix, b.TriggerPrefix) {
			out[i] = b
			return out
		}
	}
	return append(out, b)
}

func samePrefixSet(a, b []TriggerPrefix) bool {
	left := prefixSet(a)
	right := prefixSet(b)
	if len(left) != len(right) {
		return false
	}
	for p := range left {
		if _, ok := right[p]; !ok {
			return false
		}
	}
	return true
}

func prefixSet(prefixes []TriggerPrefix) map[TriggerPrefix]struct{} {
	set := make(map[TriggerPrefix]struct{}, len(prefixes))
	for _, p := range prefixes {
		set[p] = struct{}{}
	}
	return set
}
