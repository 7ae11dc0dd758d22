// ABOUTME: Error taxonomy for the generation pipeline
// ABOUTME: Sentinels are wrapped with fmt.Errorf and checked with errors.Is
package models

import "errors"

var (
	// ErrGeneratorUnavailable marks transient provider outages; callers
	// retry these with backoff.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrGeneration marks semantic failures such as an out-of-range
	// chapter index or an empty outline. Fatal for the run.
	ErrGeneration = errors.New("generation failed")

	// ErrDuplicateChapterTitle marks two chapters sharing a title,
	// almost always a generator malfunction. Fatal for the run.
	ErrDuplicateChapterTitle = errors.New("duplicate chapter title")

	// ErrMissingContext marks a phase whose required upstream output
	// never completed. Fatal for the run.
	ErrMissingContext = errors.New("missing upstream context")

	// ErrSerialization marks a corrupt on-disk artifact. Recovered
	// locally by heuristic parsing or regeneration, never fatal.
	ErrSerialization = errors.New("corrupt artifact")
)
