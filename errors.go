package arbor

import "errors"

// Sentinel errors for the operations that can fail. Structural lookups that
// merely find nothing return empty results instead of errors.
var (
	// ErrNotFound means the named declaration does not exist in the scanned
	// sources. The wrapped message may carry a "did you mean" suggestion.
	ErrNotFound = errors.New("declaration not found")

	// ErrAmbiguousKind means the cursor position does not identify a
	// declaration of a kind the rename engine knows how to handle.
	ErrAmbiguousKind = errors.New("cannot determine declaration kind at position")

	// ErrPredicate means a query pattern carried a predicate the evaluator
	// could not parse at all.
	ErrPredicate = errors.New("malformed query predicate")

	// ErrUnreadableSource wraps I/O failures reading or writing source files.
	ErrUnreadableSource = errors.New("unreadable source")

	// ErrInvariantViolation reports internal state that should be impossible,
	// such as overlapping edits to the same span.
	ErrInvariantViolation = errors.New("invariant violation")
)
