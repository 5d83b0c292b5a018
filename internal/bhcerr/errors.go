// Package bhcerr defines the typed error taxonomy shared by every package
// in the engine, so that internal packages (timecourse, multinomial,
// dendrogram) and the public bhc package can raise and classify the same
// four error kinds spec.md's external interface calls for, without the
// internal packages importing the public package.
package bhcerr

import (
	"errors"
	"fmt"
)

// Kind classifies why a run was rejected or aborted.
type Kind int

const (
	// InvalidInput covers shape mismatches, non-finite input values, or V<=1.
	InvalidInput Kind = iota
	// InvalidHyperparameter covers non-positive scales or alpha<=0.
	InvalidHyperparameter
	// NumericFailure covers a singular kernel or a non-finite evidence value.
	NumericFailure
	// Unsupported covers a mode that does not match the declared element kind.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case InvalidHyperparameter:
		return "InvalidHyperparameter"
	case NumericFailure:
		return "NumericFailure"
	case Unsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Error is the typed error returned at the bhc package boundary. It carries
// enough context (Cluster, Merge) for a caller to report which candidate
// cluster or merge triggered the failure.
type Error struct {
	Kind    Kind
	Msg     string
	Cluster []int  // item indices of the offending cluster, if applicable
	Merge   [2]int // node indices of the offending merge, if applicable
	Err     error  // wrapped cause, if any
}

func (e *Error) Error() string {
	s := fmt.Sprintf("bhc: %s: %s", e.Kind, e.Msg)
	if len(e.Cluster) > 0 {
		s += fmt.Sprintf(" (cluster=%v)", e.Cluster)
	}
	if e.Merge != [2]int{0, 0} {
		s += fmt.Sprintf(" (merge=%v)", e.Merge)
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WithCluster returns a copy of e annotated with the offending cluster's
// item indices.
func (e *Error) WithCluster(cluster []int) *Error {
	e2 := *e
	e2.Cluster = append([]int(nil), cluster...)
	return &e2
}

// WithMerge returns a copy of e annotated with the offending merge's node
// indices.
func (e *Error) WithMerge(i, j int) *Error {
	e2 := *e
	e2.Merge = [2]int{i, j}
	return &e2
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
