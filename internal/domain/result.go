package domain

import "errors"

// Status tags how a component produced its value.
type Status int

const (
	// StatusOK means the value was fully extracted.
	StatusOK Status = iota
	// StatusFallback means a usable but degraded value was substituted.
	StatusFallback
	// StatusFailed means the operation failed; Value holds the best available default.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFallback:
		return "fallback"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is a tagged outcome. Err is set for fallback and failed results.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

func Fallback[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Status: StatusFallback, Err: err}
}

func Failed[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Status: StatusFailed, Err: err}
}

// Degraded reports whether the value is anything other than a full extraction.
func (r Result[T]) Degraded() bool {
	return r.Status != StatusOK
}

var (
	ErrFetch = errors.New("fetch error")
	ErrParse = errors.New("parse error")
	ErrImage = errors.New("image error")
	ErrStore = errors.New("store error")
	ErrInit  = errors.New("init error")
)
