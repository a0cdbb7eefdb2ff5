package utils

import "github.com/google/uuid"

// IsValidID reports whether s is a syntactically well-formed identifier.
// Malformed ids are rejected before any lookup.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
