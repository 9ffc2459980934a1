package models

import "strings"

// ValidUserID reports whether id can key per-user state on disk: non-empty,
// not a dot entry, and free of path separators.
func ValidUserID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
