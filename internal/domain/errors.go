package domain

import "errors"

// Sentinel errors shared across the CLI, the HTTP layer, and the ingestion
// pipeline. Callers classify failures with errors.Is; anything that matches
// neither sentinel is treated as an external or internal failure.
var (
	// ErrNotFound marks lookups of persons, interactions, or followups that
	// do not exist. The VFS resolver does not use it: absence during path
	// resolution is an expected outcome and is returned as a nil node.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks rejected user input: empty transcript files,
	// malformed dates, values outside the tag or person-type taxonomy.
	ErrInvalidInput = errors.New("invalid input")
)
