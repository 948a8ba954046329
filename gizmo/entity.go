// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

// State is the client-side lifecycle state of a record.
type State int

const (
	// StateNew is a record that has never been stored.
	StateNew State = iota

	// StateClean is a record loaded from the server and not
	// since modified through the client.
	StateClean

	// StateSaved is a record the client successfully created or
	// updated.
	StateSaved

	// StateDestroyed is a record the server confirmed deleted.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateClean:
		return "clean"
	case StateSaved:
		return "saved"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Entity carries the lifecycle state and server-reported errors of a
// record.  Record types embed it; the zero value is a new record with
// no errors.
type Entity struct {
	state  State
	errors []string
}

// Lifecycle returns e itself, so that any type embedding Entity
// exposes it through an interface.  The embedded field is itself
// named Entity, so the method needs another name.
func (e *Entity) Lifecycle() *Entity {
	return e
}

// State returns the current lifecycle state.
func (e *Entity) State() State {
	return e.state
}

// SetState changes the lifecycle state.
func (e *Entity) SetState(state State) {
	e.state = state
}

// IsNew reports whether the record has never been stored.
func (e *Entity) IsNew() bool {
	return e.state == StateNew
}

// IsDestroyed reports whether the server confirmed deleting the
// record.
func (e *Entity) IsDestroyed() bool {
	return e.state == StateDestroyed
}

// Errors returns the messages of failed operations since the last
// successful one.
func (e *Entity) Errors() []string {
	return e.errors
}

// Observe records the outcome of one server call: a failure appends
// message, a success clears all recorded errors.
func (e *Entity) Observe(ok bool, message string) {
	if ok {
		e.errors = nil
	} else {
		e.errors = append(e.errors, message)
	}
}
