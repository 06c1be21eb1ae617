package audiograph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState is returned if engine method cannot be executed at
	// this moment.
	ErrInvalidState = errors.New("invalid state")
	// ErrDeviceUnavailable is returned if device cannot be opened or
	// started.
	ErrDeviceUnavailable = errors.New("device unavailable")
)

// CycleError is returned when connection would create a cycle.
type CycleError struct {
	From string
	To   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("connect %s to %s: cycle", e.From, e.To)
}

// TopologyError is returned when graph cannot be changed or processed as
// requested.
type TopologyError struct {
	Op     string
	Node   string
	Socket int
	Reason string
}

func (e *TopologyError) Error() string {
	if e.Socket >= 0 {
		return fmt.Sprintf("%s %s: socket %d: %s", e.Op, e.Node, e.Socket, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Node, e.Reason)
}

// execErrors wraps errors that might occure when multiple resources are
// failing.
type execErrors []error

func (e execErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e execErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// As finds the first error that matches target.
func (e execErrors) As(target interface{}) bool {
	for _, se := range e {
		if errors.As(se, target) {
			return true
		}
	}
	return false
}

// ret returns untyped nil if error is list is empty.
func (e execErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
