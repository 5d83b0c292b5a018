package bhc

import "github.com/rsavage/bhc/internal/bhcerr"

// Kind classifies why a run was rejected or aborted.
type Kind = bhcerr.Kind

// Error is the typed error returned at the package boundary.
type Error = bhcerr.Error

const (
	// InvalidInput covers shape mismatches, non-finite input values, or a
	// ValueDomain <= 1.
	InvalidInput = bhcerr.InvalidInput
	// InvalidHyperparameter covers non-positive scales or Alpha <= 0.
	InvalidHyperparameter = bhcerr.InvalidHyperparameter
	// NumericFailure covers a singular kernel or a non-finite evidence value.
	NumericFailure = bhcerr.NumericFailure
	// Unsupported covers a Mode that does not match the declared ElementKind.
	Unsupported = bhcerr.Unsupported
)

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return bhcerr.Is(err, kind)
}

func newError(kind Kind, format string, args ...any) *Error {
	return bhcerr.New(kind, format, args...)
}
