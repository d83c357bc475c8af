package scanner

import (
	"errors"
	"fmt"
)

// Tab describes a topic listing on the source site with its own pagination.
type Tab struct {
	Name string
	URL  string
}

// Status classifies the outcome of a single unit of harvest work.
type Status int

const (
	// StatusOK means the unit produced data.
	StatusOK Status = iota
	// StatusSkipped means the unit was usable but yielded nothing, e.g. malformed markup.
	StatusSkipped
	// StatusFailed means the unit could not be fetched or processed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result carries a stage outcome across a stage boundary instead of an error return
// that would abort the caller.
type Result[T any] struct {
	Value  T
	Status Status
	Reason error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

// Skip marks the unit as skipped for the given reason.
func Skip[T any](reason error) Result[T] {
	return Result[T]{Status: StatusSkipped, Reason: reason}
}

// Fail marks the unit as failed for the given reason.
func Fail[T any](reason error) Result[T] {
	return Result[T]{Status: StatusFailed, Reason: reason}
}

// Ok reports whether the result carries a value.
func (r Result[T]) Ok() bool {
	return r.Status == StatusOK
}

// Common skip reasons.
var (
	ErrMissingTitle     = errors.New("page has no title")
	ErrMissingContainer = errors.New("page has no definition containers")
)
