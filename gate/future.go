package gate

import (
	"context"
	"errors"
	"sync"
)

// Availability is the live answer to "can an in-place update run now?"
type Availability struct {
	Available bool `json:"available"` // the store has a newer build
	Allowed   bool `json:"allowed"`   // the requested Mode is permitted for it
}

// AvailabilityFuture resolves exactly once, with either an Availability or
// an error. Platform adapters call Succeed from their success continuation
// and Fail from their failure continuation; whichever fires first wins.
type AvailabilityFuture struct {
	once   sync.Once
	done   chan struct{}
	result Availability
	err    error
}

// NewAvailabilityFuture creates an unresolved future
func NewAvailabilityFuture() *AvailabilityFuture {
	return &AvailabilityFuture{done: make(chan struct{})}
}

// ResolvedAvailability creates a future already resolved with a or err
func ResolvedAvailability(a Availability, err error) *AvailabilityFuture {
	f := NewAvailabilityFuture()
	if err != nil {
		f.Fail(err)
	} else {
		f.Succeed(a)
	}
	return f
}

// Succeed resolves the future with a. Returns false if it was already resolved.
func (f *AvailabilityFuture) Succeed(a Availability) bool {
	return f.resolve(a, nil)
}

// Fail resolves the future with err. Returns false if it was already resolved.
func (f *AvailabilityFuture) Fail(err error) bool {
	if err == nil {
		err = errors.New("unknown")
	}
	return f.resolve(Availability{}, err)
}

func (f *AvailabilityFuture) resolve(a Availability, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.result = a
		f.err = err
		resolved = true
		close(f.done)
	})
	return resolved
}

// Done is closed once the future resolves
func (f *AvailabilityFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx ends. A resolved future
// always wins over an ended ctx. The future itself never times out.
func (f *AvailabilityFuture) Wait(ctx context.Context) (Availability, error) {
	select {
	case <-f.done:
		return f.result, f.err
	default:
	}

	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Availability{}, ctx.Err()
	}
}
