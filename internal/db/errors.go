package db

import "errors"

// Domain-level database error sentinels.
var (
	// Lookup table errors
	ErrMappingNotFound = errors.New("logo mapping not found")

	// Catalog errors
	ErrEntryNotFound = errors.New("catalog entry not found")
)
