// Package syncutil holds small concurrency helpers.
package syncutil

import (
	"sync/atomic"
	"time"
)

// Atomic holds a value of type T that can be loaded and stored by multiple
// goroutines safely.
type Atomic[T any] struct {
	ptr atomic.Pointer[T]
}

// NewAtomic creates a new Atomic instance initialized with the given value.
func NewAtomic[T any](initial T) *Atomic[T] {
	a := &Atomic[T]{}
	a.Store(initial)
	return a
}

// Load returns the current value, the zero value of T if nothing was stored.
func (a *Atomic[T]) Load() T {
	if v := a.ptr.Load(); v != nil {
		return *v
	}
	var zero T
	return zero
}

// Store sets the value.
func (a *Atomic[T]) Store(value T) {
	a.ptr.Store(&value)
}

// Swap stores value and returns the previous one.
func (a *Atomic[T]) Swap(value T) T {
	if old := a.ptr.Swap(&value); old != nil {
		return *old
	}
	var zero T
	return zero
}

// AtomicString is a string that can be atomically loaded and stored.
type AtomicString = Atomic[string]

// NewAtomicString creates a new AtomicString with an initial value.
func NewAtomicString(initial string) *AtomicString {
	return NewAtomic(initial)
}

// AtomicTime is a time.Time that can be atomically loaded and stored.
type AtomicTime = Atomic[time.Time]

// NewAtomicTime creates a new AtomicTime with an initial value.
func NewAtomicTime(initial time.Time) *AtomicTime {
	return NewAtomic(initial)
}
