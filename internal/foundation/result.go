// Package foundation provides generic utilities for type-safe operations.
package foundation

import "fmt"

// Result represents an operation that either succeeded with value T or failed with error E.
// Build stages record their outcome as a Result so a report can carry both kinds side by side.
type Result[T any, E error] struct {
	value T
	err   E
	isOk  bool
}

// Ok creates a successful Result with the given value.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, isOk: true}
}

// Err creates a failed Result with the given error.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// FromTuple creates a Result from the traditional Go (value, error) pattern.
func FromTuple[T any, E error](value T, err E) Result[T, E] {
	if any(err) != nil {
		return Err[T](err)
	}
	return Ok[T, E](value)
}

// IsOk returns true if the Result represents a successful operation.
func (r Result[T, E]) IsOk() bool {
	return r.isOk
}

// IsErr returns true if the Result represents a failed operation.
func (r Result[T, E]) IsErr() bool {
	return !r.isOk
}

// Unwrap returns the value if Ok, panics if Err.
func (r Result[T, E]) Unwrap() T {
	if !r.isOk {
		panic(fmt.Sprintf("called Unwrap on Err result: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value if Ok, otherwise returns the fallback.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	if r.isOk {
		return r.value
	}
	return fallback
}

// UnwrapErr returns the error if Err, panics if Ok.
func (r Result[T, E]) UnwrapErr() E {
	if r.isOk {
		panic("called UnwrapErr on Ok result")
	}
	return r.err
}

// ToTuple converts Result to the traditional Go (value, error) pattern.
func (r Result[T, E]) ToTuple() (T, E) {
	if r.isOk {
		var zeroErr E
		return r.value, zeroErr
	}
	var zeroVal T
	return zeroVal, r.err
}

// Map transforms a successful Result[T, E] to Result[U, E].
func Map[T, U any, E error](r Result[T, E], fn func(T) U) Result[U, E] {
	if r.isOk {
		return Ok[U, E](fn(r.value))
	}
	return Err[U](r.err)
}
