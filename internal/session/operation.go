package session

import (
	"errors"
	"fmt"
)

// Phase is the state of one async operation.
type Phase int

const (
	Idle Phase = iota
	InFlight
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrPanic wraps a panic recovered by Do.
var ErrPanic = errors.New("operation panicked")

// Operation tracks one kind of request: Idle -> InFlight -> Succeeded|Failed -> Idle.
// Settling records the outcome and returns the operation to Idle in the same step.
type Operation struct {
	phase Phase
	last  Phase
}

// Begin moves Idle to InFlight. It returns false if already in flight.
func (o *Operation) Begin() bool {
	if o.phase == InFlight {
		return false
	}
	o.phase = InFlight
	return true
}

// Settle records the outcome of the in-flight call and returns to Idle.
// It returns false when nothing was in flight.
func (o *Operation) Settle(err error) bool {
	if o.phase != InFlight {
		return false
	}
	if err != nil {
		o.last = Failed
	} else {
		o.last = Succeeded
	}
	o.phase = Idle
	return true
}

// InFlight reports whether a call is outstanding.
func (o *Operation) InFlight() bool { return o.phase == InFlight }

// Phase returns the current phase.
func (o *Operation) Phase() Phase { return o.phase }

// Last returns the outcome of the most recent settled call, or Idle if none.
func (o *Operation) Last() Phase { return o.last }

// Do runs fn and always returns, converting a panic into an ErrPanic error,
// so the caller can settle the operation unconditionally.
func Do(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
