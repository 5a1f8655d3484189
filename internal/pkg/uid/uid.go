// Package uid provides identifier generators behind small interfaces so
// callers can swap real generators for deterministic ones in tests.
package uid

// StringID generates string identifiers (UUIDs, tokens).
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers (row IDs).
type NumberID interface {
	Generate() int64
}
