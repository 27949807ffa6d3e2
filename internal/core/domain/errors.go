package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist. It is never
	// conflated with an empty-but-valid result.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid caller input, such as
	// an empty query string.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates the vector store cannot be reached at
	// startup. This is fatal: the system cannot do useful work without it.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrDataIntegrity indicates stored chunks that cannot be resolved into
	// a consistent view, e.g. a conversation whose chunks yield zero
	// messages. Surfaced explicitly rather than coerced into empty success.
	ErrDataIntegrity = errors.New("data integrity anomaly")

	// ErrNoExportFiles indicates a folder contains no recognizable export
	// files (neither a projects nor a conversations file).
	ErrNoExportFiles = errors.New("no recognizable export files")
)
