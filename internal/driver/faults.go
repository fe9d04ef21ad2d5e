package driver

import (
	"errors"
	"fmt"
)

// Kind classifies a failed browser interaction. The transient set is closed:
// anything the driver cannot place in it is KindUnclassified, which is always
// surfaced, never absorbed.
type Kind string

const (
	// KindInvalidArgument marks a programming error such as an unknown
	// locator strategy. Fatal, never contained.
	KindInvalidArgument Kind = "invalid_argument"

	KindElementNotFound     Kind = "element_not_found"
	KindWaitTimeout         Kind = "wait_timeout"
	KindStaleElement        Kind = "stale_element"
	KindSessionNotCreated   Kind = "session_not_created"
	KindInvalidElementState Kind = "invalid_element_state"
	KindNotInteractable     Kind = "not_interactable"
	KindDriverFault         Kind = "driver_fault"
	KindBadAttribute        Kind = "bad_attribute"

	// KindUnclassified covers every condition outside the known set.
	// Fatal: unknown failure modes must surface loudly.
	KindUnclassified Kind = "unclassified"
)

// Transient reports whether faults of this kind are contained locally so the
// surrounding run keeps going.
func (k Kind) Transient() bool {
	switch k {
	case KindElementNotFound, KindWaitTimeout, KindStaleElement,
		KindSessionNotCreated, KindInvalidElementState,
		KindNotInteractable, KindDriverFault, KindBadAttribute:
		return true
	}
	return false
}

// Fault is a classified browser-interaction failure.
type Fault struct {
	Kind Kind
	Op   string
	Err  error
}

// NewFault wraps err as a classified fault for the named operation.
func NewFault(kind Kind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// KindOf extracts the fault kind from an error chain. Errors that carry no
// fault are unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnclassified
}
