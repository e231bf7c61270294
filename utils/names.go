// utils/names.go
package utils

import "strings"

// NormalizeNameKey returns the case-insensitive lookup key for a country name.
// "  Côte d'Ivoire " and "CÔTE D'IVOIRE" map to the same key.
func NormalizeNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeCurrencyCode trims and upper-cases an ISO-like currency code.
// An empty result means "no currency".
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NullIfEmpty returns nil for blank strings so optional columns store NULL.
func NullIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
