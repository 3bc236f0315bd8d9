package config

import (
	"fmt"
	"sort"
	"strings"
)

// normalizer provides type-safe string-to-enum normalization shared by the
// config enums (log level/format, relay mode, run log backend).
type normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
	validKeys    []string // Cached for error messages
}

func newNormalizer[T comparable](values map[string]T, defaultValue T) *normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))

	for k, v := range values {
		key := strings.ToLower(strings.TrimSpace(k))
		normalized[key] = v
		validKeys = append(validKeys, key)
	}

	// Sort keys for consistent error messages
	sort.Strings(validKeys)

	return &normalizer[T]{
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
	}
}

// Normalize attempts to convert a string to the enum type.
// Returns the default value if the string is not recognized.
func (n *normalizer[T]) Normalize(raw string) T {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if value, exists := n.validValues[cleaned]; exists {
		return value
	}
	return n.defaultValue
}

// NormalizeWithError attempts to convert a string to the enum type.
// Returns an error if the string is not recognized.
func (n *normalizer[T]) NormalizeWithError(raw string) (T, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if value, exists := n.validValues[cleaned]; exists {
		return value, nil
	}

	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}
