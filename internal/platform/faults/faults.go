package faults

import "errors"

// Failure classes of the evidence pipeline. Stage-level wrappers decide
// whether a class is retried (extraction, persistence), skipped
// (validation), or absorbed into record state (association).
var (
	// ErrUnsupportedKind is returned for document kinds the extractor
	// cannot handle.
	ErrUnsupportedKind = errors.New("unsupported document kind")
	// ErrExtraction wraps upstream OCR/classification failures; retried at
	// the stage level.
	ErrExtraction = errors.New("extraction failed")
	// ErrValidation marks malformed visit/diagnosis payloads; logged and
	// skipped, never retried.
	ErrValidation = errors.New("invalid payload")
	// ErrAssociation marks embedding, nearest-tag lookup, or tag link
	// failures; absorbed into ratable=false on the condition.
	ErrAssociation = errors.New("tag association failed")
	// ErrPersistence wraps transactional write failures; rolls back the
	// unit session and retries at the stage level.
	ErrPersistence = errors.New("persistence failed")
)
